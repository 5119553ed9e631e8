package integration

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// SyncWindow
// ---------------------------------------------------------------------------

// SyncWindow selects the time range a sync pass considers
type SyncWindow string

const (
	// SyncWindowToday covers orders created since local midnight
	SyncWindowToday SyncWindow = "today"
	// SyncWindowWeek covers orders created since Monday of the current week
	SyncWindowWeek SyncWindow = "week"
	// SyncWindowMonth covers orders created since the first day of the current month
	SyncWindowMonth SyncWindow = "month"
)

// IsValid returns true if the window is valid
func (w SyncWindow) IsValid() bool {
	switch w {
	case SyncWindowToday, SyncWindowWeek, SyncWindowMonth:
		return true
	default:
		return false
	}
}

// String returns the string representation of SyncWindow
func (w SyncWindow) String() string {
	return string(w)
}

// Range returns the [start, end] interval the window covers relative to now
func (w SyncWindow) Range(now time.Time) (time.Time, time.Time) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch w {
	case SyncWindowWeek:
		// ISO week starts on Monday
		offset := (int(midnight.Weekday()) + 6) % 7
		return midnight.AddDate(0, 0, -offset), now
	case SyncWindowMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()), now
	default:
		return midnight, now
	}
}

// ---------------------------------------------------------------------------
// OrderState
// ---------------------------------------------------------------------------

// OrderState is the lifecycle state of an order on the marketplace.
// The marketplace reports states as free-form strings with inconsistent
// casing; ParseOrderState normalizes before matching.
type OrderState string

const (
	// OrderStateWaitingPayment indicates payment has not been received yet
	OrderStateWaitingPayment OrderState = "WAITING_PAYMENT"
	// OrderStateWaitingApproval indicates payment received, pending marketplace approval
	OrderStateWaitingApproval OrderState = "WAITING_APPROVAL"
	// OrderStateApproved indicates the marketplace approved the order
	OrderStateApproved OrderState = "APPROVED"
	// OrderStateShipped indicates the seller dispatched the order
	OrderStateShipped OrderState = "SHIPPED"
	// OrderStateInTransit indicates the carrier has the parcel
	OrderStateInTransit OrderState = "IN_TRANSIT"
	// OrderStateCanceled indicates the order was canceled
	OrderStateCanceled OrderState = "CANCELED"
	// OrderStateUnknown is any state the bridge does not recognize
	OrderStateUnknown OrderState = "UNKNOWN"
)

// ParseOrderState maps a raw marketplace state string to an OrderState.
// Matching is case-insensitive and whitespace-trimmed.
func ParseOrderState(raw string) OrderState {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "waiting payment":
		return OrderStateWaitingPayment
	case "waiting approval":
		return OrderStateWaitingApproval
	case "approved":
		return OrderStateApproved
	case "shipped":
		return OrderStateShipped
	case "in transit":
		return OrderStateInTransit
	case "canceled", "cancelled":
		return OrderStateCanceled
	default:
		return OrderStateUnknown
	}
}

// IsValid returns true for every state except OrderStateUnknown
func (s OrderState) IsValid() bool {
	switch s {
	case OrderStateWaitingPayment, OrderStateWaitingApproval, OrderStateApproved,
		OrderStateShipped, OrderStateInTransit, OrderStateCanceled:
		return true
	default:
		return false
	}
}

// String returns the string representation of OrderState
func (s OrderState) String() string {
	return string(s)
}

// IsShipped returns true if the parcel left the seller (shipped or in transit)
func (s OrderState) IsShipped() bool {
	return s == OrderStateShipped || s == OrderStateInTransit
}

// ---------------------------------------------------------------------------
// StatusAction
// ---------------------------------------------------------------------------

// StatusAction is the storefront action a marketplace state maps to
type StatusAction string

const (
	// StatusActionNone requires no storefront change
	StatusActionNone StatusAction = "NONE"
	// StatusActionMarkPaid marks the storefront order as paid
	StatusActionMarkPaid StatusAction = "MARK_PAID"
	// StatusActionCancel cancels the storefront order
	StatusActionCancel StatusAction = "CANCEL"
	// StatusActionFulfill marks the storefront order as fulfilled
	StatusActionFulfill StatusAction = "FULFILL"
)

// PropagationAction returns the storefront action for this marketplace state.
// This is the single mapping table for status propagation; shipped and
// in-transit are deliberately equivalent.
func (s OrderState) PropagationAction() StatusAction {
	switch s {
	case OrderStateApproved, OrderStateWaitingApproval:
		return StatusActionMarkPaid
	case OrderStateCanceled:
		return StatusActionCancel
	case OrderStateShipped, OrderStateInTransit:
		return StatusActionFulfill
	default:
		// Waiting payment and unknown states are informational only
		return StatusActionNone
	}
}

// ---------------------------------------------------------------------------
// Source Order Value Objects
// ---------------------------------------------------------------------------

// SourceAddress is a delivery or billing address as the marketplace reports it
type SourceAddress struct {
	// CustomerName is the full customer name, unsplit
	CustomerName string
	// Address1 is the first address line
	Address1 string
	// Address2 is the optional second address line
	Address2 string
	// ZipCode is the postal code
	ZipCode string
	// City is the city name
	City string
	// Country is the country name or code
	Country string
	// Contact is the phone contact
	Contact string
	// VAT is the customer's VAT number, when provided
	VAT string
}

// SourceOrderItem is one line item of a marketplace order
type SourceOrderItem struct {
	// Name is the product display name
	Name string
	// SellerProductID is the seller's SKU for this product
	SellerProductID string
	// ID is the marketplace's own product identifier
	ID string
	// Quantity is the ordered quantity
	Quantity int
	// Price is the unit price
	Price decimal.Decimal
}

// SourceShipping describes the shipping option the buyer selected
type SourceShipping struct {
	// Type is the shipping method name
	Type string
	// Value is the shipping cost
	Value decimal.Decimal
}

// SourceOrder is an immutable snapshot of a marketplace order. It is
// re-fetched on every sync pass; the bridge never caches or mutates it.
type SourceOrder struct {
	// OrderID is the marketplace order identifier, unique per source
	OrderID string
	// DeliveryAddress is where the order ships to
	DeliveryAddress SourceAddress
	// BillingAddress is the invoicing address
	BillingAddress SourceAddress
	// CustomerEmail is the buyer's email, possibly missing or malformed
	CustomerEmail string
	// Products contains the order line items
	Products []SourceOrderItem
	// ProductsPrice is the total product amount before shipping
	ProductsPrice decimal.Decimal
	// TotalPrice is the total the buyer paid
	TotalPrice decimal.Decimal
	// Shipping is the selected shipping option, nil when absent
	Shipping *SourceShipping
	// OrderState is the raw lifecycle state string from the marketplace
	OrderState string
	// CreatedAt is when the order was placed
	CreatedAt time.Time
	// ApprovalDate is when the marketplace approved the order
	ApprovalDate *time.Time
	// ShippedDate is when the order was shipped
	ShippedDate *time.Time
	// CancelDate is when the order was canceled
	CancelDate *time.Time
}

// State returns the parsed lifecycle state
func (o *SourceOrder) State() OrderState {
	return ParseOrderState(o.OrderState)
}

// ShipmentNotice carries tracking information pushed back to the marketplace
type ShipmentNotice struct {
	// Carrier is the shipping company name
	Carrier string
	// TrackingNumber is the carrier tracking number
	TrackingNumber string
	// TrackingURL is the optional tracking page URL
	TrackingURL string
}

// ---------------------------------------------------------------------------
// Marketplace Port
// ---------------------------------------------------------------------------

// Marketplace is the port for the order source platform. The concrete
// adapter (KuantoKusta) lives in the infrastructure layer.
type Marketplace interface {
	// FetchOrders returns the orders created within [start, end].
	// The label filters by marketplace state and may be empty.
	FetchOrders(ctx context.Context, start, end time.Time, label string) ([]SourceOrder, error)

	// GetOrder returns a single order by marketplace identifier.
	// Returns ErrOrderNotFound when the marketplace does not know the order.
	GetOrder(ctx context.Context, orderID string) (*SourceOrder, error)

	// ConfirmShipment pushes tracking information for a shipped order
	// back to the marketplace.
	ConfirmShipment(ctx context.Context, orderID string, notice ShipmentNotice) error
}
