package marketplace

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kkbridge/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Wire Types
// ---------------------------------------------------------------------------

// kkOrder is a marketplace order as returned by the KMS orders API
type kkOrder struct {
	OrderID         string        `json:"orderId"`
	DeliveryAddress kkAddress     `json:"deliveryAddress"`
	BillingAddress  kkAddress     `json:"billingAddress"`
	CustomerEmail   string        `json:"customerEmail,omitempty"`
	Products        []kkProduct   `json:"products"`
	AdditionalInfo  string        `json:"additionalInfo,omitempty"`
	ProductsPrice   float64       `json:"productsPrice"`
	TotalPrice      float64       `json:"totalPrice"`
	DeliveryTime    int           `json:"deliveryTime,omitempty"`
	Shipping        *kkShipping   `json:"shipping,omitempty"`
	ApprovalDate    string        `json:"approvalDate,omitempty"`
	ShippedDate     string        `json:"shippedDate,omitempty"`
	CancelDate      string        `json:"cancelDate,omitempty"`
	CreatedAt       string        `json:"createdAt"`
	UpdatedAt       string        `json:"updatedAt,omitempty"`
	OrderState      string        `json:"orderState"`
	Commission      *kkCommission `json:"commission,omitempty"`
}

// kkAddress is a delivery or billing address
type kkAddress struct {
	CustomerName string `json:"customerName"`
	Address1     string `json:"address1"`
	Address2     string `json:"address2,omitempty"`
	ZipCode      string `json:"zipCode"`
	City         string `json:"city"`
	Country      string `json:"country"`
	Contact      string `json:"contact,omitempty"`
	VAT          string `json:"vat,omitempty"`
}

// kkProduct is one order line item
type kkProduct struct {
	Name            string  `json:"name"`
	SellerProductID string  `json:"sellerProductId"`
	ID              string  `json:"id"`
	Quantity        int     `json:"quantity"`
	Price           float64 `json:"price"`
}

// kkShipping is the buyer's shipping selection
type kkShipping struct {
	Type  string  `json:"type"`
	Value float64 `json:"value"`
}

// kkCommission is the marketplace commission block
type kkCommission struct {
	TotalValue float64 `json:"totalValue"`
}

// kkShipmentRequest is the tracking payload for the order send endpoint
type kkShipmentRequest struct {
	Carrier     string `json:"carrier"`
	TrackingID  string `json:"trackingId"`
	TrackingURL string `json:"trackingUrl,omitempty"`
}

// ---------------------------------------------------------------------------
// Conversion
// ---------------------------------------------------------------------------

// toDomain converts a wire order into the domain representation
func (o *kkOrder) toDomain() integration.SourceOrder {
	products := make([]integration.SourceOrderItem, 0, len(o.Products))
	for _, p := range o.Products {
		products = append(products, integration.SourceOrderItem{
			Name:            p.Name,
			SellerProductID: p.SellerProductID,
			ID:              p.ID,
			Quantity:        p.Quantity,
			Price:           decimal.NewFromFloat(p.Price),
		})
	}

	order := integration.SourceOrder{
		OrderID:         o.OrderID,
		DeliveryAddress: o.DeliveryAddress.toDomain(),
		BillingAddress:  o.BillingAddress.toDomain(),
		CustomerEmail:   o.CustomerEmail,
		Products:        products,
		ProductsPrice:   decimal.NewFromFloat(o.ProductsPrice),
		TotalPrice:      decimal.NewFromFloat(o.TotalPrice),
		OrderState:      o.OrderState,
		CreatedAt:       parseKKTime(o.CreatedAt),
	}

	if o.Shipping != nil {
		order.Shipping = &integration.SourceShipping{
			Type:  o.Shipping.Type,
			Value: decimal.NewFromFloat(o.Shipping.Value),
		}
	}
	order.ApprovalDate = parseKKTimePtr(o.ApprovalDate)
	order.ShippedDate = parseKKTimePtr(o.ShippedDate)
	order.CancelDate = parseKKTimePtr(o.CancelDate)

	return order
}

func (a *kkAddress) toDomain() integration.SourceAddress {
	return integration.SourceAddress{
		CustomerName: a.CustomerName,
		Address1:     a.Address1,
		Address2:     a.Address2,
		ZipCode:      a.ZipCode,
		City:         a.City,
		Country:      a.Country,
		Contact:      a.Contact,
		VAT:          a.VAT,
	}
}

// parseKKTime parses the marketplace timestamp format, zero on failure
func parseKKTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t
	}
	// date-only fallback
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t
	}
	return time.Time{}
}

func parseKKTimePtr(raw string) *time.Time {
	t := parseKKTime(raw)
	if t.IsZero() {
		return nil
	}
	return &t
}
