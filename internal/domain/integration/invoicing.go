package integration

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Invoicing Value Objects
// ---------------------------------------------------------------------------

// DefaultVAT is the placeholder VAT number for consumers who did not
// provide one ("final consumer" number used by Portuguese invoicing)
const DefaultVAT = "999999990"

// BillingParty identifies the customer an invoice is issued to
type BillingParty struct {
	// Name is the customer name
	Name string
	// VAT is the customer VAT number; DefaultVAT when absent
	VAT string
	// Address, Zip, City, Country locate the customer
	Address string
	Zip     string
	City    string
	Country string
	// Phone is the optional contact phone
	Phone string
	// Email is the optional contact email
	Email string
}

// CatalogItem is a product in the invoicing backend's catalog
type CatalogItem struct {
	// ItemID is the invoicing backend's product identifier
	ItemID int64
	// Name is the product name as registered in the catalog
	Name string
	// TaxID is the tax regime applied to the product
	TaxID int64
}

// InvoiceLine is one line of an invoice draft
type InvoiceLine struct {
	// ItemID is the catalog item the line bills
	ItemID int64
	// Name is the line description
	Name string
	// Quantity is the billed quantity
	Quantity int
	// Price is the unit price
	Price decimal.Decimal
	// TaxID is the tax regime for the line
	TaxID int64
}

// InvoiceDraft is a complete invoice ready for submission
type InvoiceDraft struct {
	// CustomerID is the resolved billing party identifier
	CustomerID int64
	// OrderRef links the invoice back to the marketplace order; the
	// invoicing backend stores it as the document reference and it is
	// the key for duplicate-issuance lookups
	OrderRef string
	// Date is the document date
	Date time.Time
	// DueDate is the payment due date
	DueDate time.Time
	// Lines are the invoice lines
	Lines []InvoiceLine
}

// InvoiceRecord is an issued (or previously issued) invoice document
type InvoiceRecord struct {
	// InvoiceID is the invoice identifier; zero when the backend returned
	// only a document identifier
	InvoiceID int64
	// DocumentID is the generic document identifier
	DocumentID int64
	// OrderRef is the marketplace order reference the document carries
	OrderRef string
}

// IsIssued returns true when the backend assigned at least one identifier
func (r *InvoiceRecord) IsIssued() bool {
	return r.InvoiceID != 0 || r.DocumentID != 0
}

// ---------------------------------------------------------------------------
// Invoicer Port
// ---------------------------------------------------------------------------

// Invoicer is the port for the invoicing backend. At most one invoice may
// exist per order; callers enforce this by FindInvoiceByOrderRef before
// IssueInvoice, since the backend offers no unique constraint.
type Invoicer interface {
	// FindOrCreateCustomer resolves the billing party, searching by name
	// first and creating the customer only on an empty search result.
	FindOrCreateCustomer(ctx context.Context, party BillingParty) (int64, error)

	// FindItemBySKU resolves a catalog item by SKU.
	// Returns (nil, nil) when the catalog has no such item.
	FindItemBySKU(ctx context.Context, sku string) (*CatalogItem, error)

	// FindInvoiceByOrderRef returns the invoice carrying the order
	// reference, or (nil, nil) when none exists.
	FindInvoiceByOrderRef(ctx context.Context, ref string) (*InvoiceRecord, error)

	// IssueInvoice submits the draft and returns the created record.
	IssueInvoice(ctx context.Context, draft InvoiceDraft) (*InvoiceRecord, error)
}
