package integration

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Run Result Types
// ---------------------------------------------------------------------------

// RunStatus classifies the outcome of one sync pass
type RunStatus string

const (
	// RunStatusEmpty means the window yielded no orders at all
	RunStatusEmpty RunStatus = "EMPTY"
	// RunStatusOK means the pass completed; duplicates and unresolved
	// SKUs are reported in the result, not escalated to a failure
	RunStatusOK RunStatus = "OK"
)

// IsValid returns true if the status is valid
func (s RunStatus) IsValid() bool {
	return s == RunStatusEmpty || s == RunStatusOK
}

// String returns the string representation of RunStatus
func (s RunStatus) String() string {
	return string(s)
}

// SyncRunResult is the contract returned to callers for one sync pass
type SyncRunResult struct {
	// RunID uniquely identifies this pass
	RunID uuid.UUID
	// Window is the time range selector the pass used
	Window SyncWindow
	// Status is the three-way outcome classification
	Status RunStatus
	// Synced counts orders created on the storefront during this pass
	Synced int
	// Duplicates lists marketplace order IDs that already existed
	Duplicates []string
	// UnresolvedSKUs lists SKUs that failed variant resolution
	UnresolvedSKUs []string
	// Message is a human-readable summary built from non-zero counts
	Message string
	// StartedAt and CompletedAt bound the pass
	StartedAt   time.Time
	CompletedAt time.Time
}

// HasDuplicates returns true when at least one order already existed
func (r *SyncRunResult) HasDuplicates() bool {
	return len(r.Duplicates) > 0
}

// Summary builds the human-readable message from non-zero counts only
func (r *SyncRunResult) Summary() string {
	parts := make([]string, 0, 3)
	if r.Synced > 0 {
		parts = append(parts, fmt.Sprintf("%d orders synced", r.Synced))
	}
	if len(r.Duplicates) > 0 {
		parts = append(parts, fmt.Sprintf("%d already existed", len(r.Duplicates)))
	}
	if len(r.UnresolvedSKUs) > 0 {
		parts = append(parts, fmt.Sprintf("%d SKUs not found", len(r.UnresolvedSKUs)))
	}
	if len(parts) == 0 {
		return "no orders were synced"
	}
	return strings.Join(parts, ", ")
}

// StatusRunReport summarizes one status propagation pass
type StatusRunReport struct {
	// Examined counts marketplace orders inspected
	Examined int
	// MarkedPaid counts storefront orders transitioned to paid
	MarkedPaid int
	// Canceled counts storefront orders canceled
	Canceled int
	// Fulfilled counts storefront orders fulfilled
	Fulfilled int
	// InvoicesIssued counts invoices created during the pass
	InvoicesIssued int
	// Skipped counts orders requiring no action or missing on the storefront
	Skipped int
	// Failed counts orders whose update failed
	Failed int
}

// ShipmentSyncResult reports the outcome of a single-order shipment sync
type ShipmentSyncResult struct {
	// OrderID is the marketplace order the sync targeted
	OrderID string
	// Fulfilled is true when the storefront order was marked fulfilled
	Fulfilled bool
	// Message explains the outcome
	Message string
}
