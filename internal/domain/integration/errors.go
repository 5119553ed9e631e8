package integration

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// Sentinel Errors
// ---------------------------------------------------------------------------

var (
	// Platform errors
	ErrPlatformUnavailable     = errors.New("integration: platform temporarily unavailable")
	ErrPlatformRequestFailed   = errors.New("integration: platform request failed")
	ErrPlatformInvalidResponse = errors.New("integration: invalid platform response")
	ErrPlatformAuthFailed      = errors.New("integration: platform authentication failed")

	// Sync run errors
	ErrRunInProgress       = errors.New("integration: sync run already in progress")
	ErrInvalidSyncWindow   = errors.New("integration: invalid sync window")
	ErrOrderNotFound       = errors.New("integration: order not found")
	ErrVariantNotFound     = errors.New("integration: product variant not found")
	ErrVariantInvalidID    = errors.New("integration: product variant has non-numeric identifier")
	ErrCatalogItemNotFound = errors.New("integration: catalog item not found")

	// Status propagation errors
	ErrMissingFulfillmentOrder = errors.New("integration: order has no fulfillment order")
	ErrStatusUpdateFailed      = errors.New("integration: order status update failed")

	// Invoicing errors
	ErrInvoiceNotCreated = errors.New("integration: invoicing backend did not create the invoice")
)

// ---------------------------------------------------------------------------
// PlatformError
// ---------------------------------------------------------------------------

// PlatformError is a transport-level failure from one of the external
// platforms. It carries the upstream HTTP status and response body so that
// callers can log the exact upstream failure without re-fetching it.
type PlatformError struct {
	// Platform identifies which platform failed ("kuantokusta", "shopify", "moloni")
	Platform string
	// StatusCode is the upstream HTTP status code (0 when the request never completed)
	StatusCode int
	// Body is the upstream response body, truncated by the adapter
	Body string
	// Err is the wrapped sentinel (ErrPlatformUnavailable, ErrPlatformRequestFailed, ...)
	Err error
}

// Error implements the error interface
func (e *PlatformError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: HTTP %d: %s", e.Platform, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s: %v", e.Platform, e.Err)
}

// Unwrap returns the wrapped sentinel error
func (e *PlatformError) Unwrap() error {
	return e.Err
}

// NewPlatformError creates a PlatformError for a failed upstream call
func NewPlatformError(platform string, statusCode int, body string, err error) *PlatformError {
	return &PlatformError{
		Platform:   platform,
		StatusCode: statusCode,
		Body:       body,
		Err:        err,
	}
}

// AsPlatformError returns the PlatformError in err's chain, if any
func AsPlatformError(err error) (*PlatformError, bool) {
	var pe *PlatformError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
