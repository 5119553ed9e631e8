package integration

import "context"

// ---------------------------------------------------------------------------
// Reference Tags
// ---------------------------------------------------------------------------

// SourceMarkerTag marks every storefront order created by the bridge
const SourceMarkerTag = "kuantokusta"

// referenceTagPrefix prefixes the deterministic per-order reference tag
const referenceTagPrefix = "KK-"

// ReferenceTag returns the deterministic storefront tag for a marketplace
// order. The tag is the sole deduplication key: existence checks and reverse
// lookups both resolve through it.
func ReferenceTag(orderID string) string {
	return referenceTagPrefix + orderID
}

// ---------------------------------------------------------------------------
// Destination Order Value Objects
// ---------------------------------------------------------------------------

// StorefrontAddress is a shipping or billing address in the storefront schema
type StorefrontAddress struct {
	Address1 string
	Address2 string
	City     string
	Zip      string
	Country  string
	Phone    string
}

// StorefrontLineItem is a resolved line item of a destination order
type StorefrontLineItem struct {
	// VariantID is the storefront-native product variant identifier
	VariantID int64
	// Quantity is the ordered quantity
	Quantity int
	// Price is the unit price formatted to two decimal places
	Price string
	// SKU is the seller SKU the variant was resolved from
	SKU string
	// Title is the product display name
	Title string
}

// ShippingLine is one shipping charge on a destination order
type ShippingLine struct {
	Title string
	Price string
	Code  string
}

// StorefrontOrder is an order in the storefront platform's schema, ready to
// be created. Tags always include SourceMarkerTag and the reference tag.
type StorefrontOrder struct {
	// FirstName is the first token of the customer name
	FirstName string
	// LastName is the remaining tokens of the customer name, space-joined
	LastName string
	// Email is a valid email; the mapper substitutes a deterministic
	// placeholder when the source email is missing or malformed
	Email           string
	ShippingAddress StorefrontAddress
	BillingAddress  StorefrontAddress
	LineItems       []StorefrontLineItem
	// FinancialStatus is the initial payment status ("pending")
	FinancialStatus string
	// Currency is the order currency (the marketplace only trades EUR)
	Currency string
	// TotalPrice is the order total formatted to two decimal places
	TotalPrice    string
	ShippingLines []ShippingLine
	Tags          []string
	// Note is a free-form note shown to storefront operators
	Note string
}

// VariantRef identifies a storefront product variant resolved from a SKU
type VariantRef struct {
	// VariantID is the numeric variant identifier
	VariantID int64
	// SKU is the matched SKU
	SKU string
	// DisplayName is the product title on the storefront
	DisplayName string
}

// StorefrontOrderStatus is the storefront's view of an order located by tag
type StorefrontOrderStatus struct {
	// OrderID is the storefront order identifier (GraphQL GID)
	OrderID string
	// Name is the human-readable order number
	Name string
	// FinancialStatus is the storefront financial status (PAID, PENDING, ...)
	FinancialStatus string
	// FulfillmentOrderID is the identifier required to fulfill the order;
	// empty when the storefront has not created a fulfillment order yet
	FulfillmentOrderID string
}

// IsPaid returns true when no further payment action is needed
func (s *StorefrontOrderStatus) IsPaid() bool {
	return s.FinancialStatus == "PAID" || s.FinancialStatus == "PARTIALLY_PAID"
}

// ---------------------------------------------------------------------------
// Storefront Port
// ---------------------------------------------------------------------------

// Storefront is the port for the destination commerce platform. Every
// mutation is idempotent or a no-op on already-satisfied state.
type Storefront interface {
	// OrderExistsByTag reports whether an order carrying the tag exists.
	// This check is eventually consistent: an order created moments ago
	// may not be indexed yet.
	OrderExistsByTag(ctx context.Context, tag string) (bool, error)

	// CreateOrder creates the order and returns its storefront identifier.
	CreateOrder(ctx context.Context, order *StorefrontOrder) (string, error)

	// FindVariantBySKU resolves a seller SKU to a storefront variant.
	// Returns (nil, nil) when no variant carries the SKU.
	FindVariantBySKU(ctx context.Context, sku string) (*VariantRef, error)

	// GetOrderStatus locates an order by tag and returns its status.
	// Returns ErrOrderNotFound when no order carries the tag.
	GetOrderStatus(ctx context.Context, tag string) (*StorefrontOrderStatus, error)

	// MarkOrderPaid marks the order as paid; no-op when already paid
	// or partially paid.
	MarkOrderPaid(ctx context.Context, orderID string) error

	// CancelOrder cancels the order.
	CancelOrder(ctx context.Context, orderID string) error

	// MarkOrderFulfilled fulfills the order through its fulfillment order.
	MarkOrderFulfilled(ctx context.Context, fulfillmentOrderID string) error
}
