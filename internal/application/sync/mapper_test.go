package sync

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kkbridge/backend/internal/domain/integration"
)

func sampleSourceOrder() *integration.SourceOrder {
	return &integration.SourceOrder{
		OrderID: "987654",
		DeliveryAddress: integration.SourceAddress{
			CustomerName: "Maria João Silva",
			Address1:     "Rua das Flores 10",
			ZipCode:      "4000-123",
			City:         "Porto",
			Country:      "Portugal",
			Contact:      "912345678",
		},
		BillingAddress: integration.SourceAddress{
			CustomerName: "Maria João Silva",
			Address1:     "Rua das Flores 10",
			ZipCode:      "4000-123",
			City:         "Porto",
			Country:      "Portugal",
		},
		CustomerEmail: "maria@example.com",
		Products: []integration.SourceOrderItem{
			{Name: "Wireless Mouse", SellerProductID: "SKU-MOUSE", ID: "p1", Quantity: 2, Price: decimal.RequireFromString("19.9")},
		},
		ProductsPrice: decimal.RequireFromString("39.8"),
		TotalPrice:    decimal.RequireFromString("44.7"),
		Shipping:      &integration.SourceShipping{Type: "CTT Expresso", Value: decimal.RequireFromString("4.9")},
		OrderState:    "Approved",
		CreatedAt:     time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC),
	}
}

func sampleResolvedLines(src *integration.SourceOrder) []ResolvedLine {
	lines := make([]ResolvedLine, 0, len(src.Products))
	for i, item := range src.Products {
		lines = append(lines, ResolvedLine{
			Item: item,
			Variant: integration.VariantRef{
				VariantID:   int64(5000 + i),
				SKU:         item.SellerProductID,
				DisplayName: item.Name,
			},
		})
	}
	return lines
}

func TestMapToStorefrontOrder(t *testing.T) {
	src := sampleSourceOrder()
	order := MapToStorefrontOrder(src, sampleResolvedLines(src))

	assert.Equal(t, "Maria", order.FirstName)
	assert.Equal(t, "João Silva", order.LastName)
	assert.Equal(t, "maria@example.com", order.Email)
	assert.Equal(t, "pending", order.FinancialStatus)
	assert.Equal(t, "EUR", order.Currency)
	assert.Equal(t, "44.70", order.TotalPrice)
	assert.Equal(t, []string{"kuantokusta", "KK-987654"}, order.Tags)

	require.Len(t, order.LineItems, 1)
	assert.Equal(t, int64(5000), order.LineItems[0].VariantID)
	assert.Equal(t, 2, order.LineItems[0].Quantity)
	assert.Equal(t, "19.90", order.LineItems[0].Price)
	assert.Equal(t, "SKU-MOUSE", order.LineItems[0].SKU)

	require.Len(t, order.ShippingLines, 1)
	assert.Equal(t, "CTT Expresso", order.ShippingLines[0].Title)
	assert.Equal(t, "4.90", order.ShippingLines[0].Price)

	assert.Equal(t, "Rua das Flores 10", order.ShippingAddress.Address1)
	assert.Equal(t, "4000-123", order.ShippingAddress.Zip)
	assert.Equal(t, "912345678", order.ShippingAddress.Phone)
}

func TestMapToStorefrontOrderWithoutShipping(t *testing.T) {
	src := sampleSourceOrder()
	src.Shipping = nil

	order := MapToStorefrontOrder(src, sampleResolvedLines(src))
	assert.Empty(t, order.ShippingLines)
}

func TestSplitCustomerName(t *testing.T) {
	tests := []struct {
		name          string
		full          string
		expectedFirst string
		expectedLast  string
	}{
		{name: "two tokens", full: "Ana Costa", expectedFirst: "Ana", expectedLast: "Costa"},
		{name: "many tokens", full: "Maria João Pires Silva", expectedFirst: "Maria", expectedLast: "João Pires Silva"},
		{name: "single token", full: "Madonna", expectedFirst: "Madonna", expectedLast: ""},
		{name: "extra whitespace", full: "  Rui   Santos  ", expectedFirst: "Rui", expectedLast: "Santos"},
		{name: "empty", full: "", expectedFirst: "", expectedLast: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, last := splitCustomerName(tt.full)
			assert.Equal(t, tt.expectedFirst, first)
			assert.Equal(t, tt.expectedLast, last)
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		expected string
	}{
		{name: "valid email kept", email: "ana@example.com", expected: "ana@example.com"},
		{name: "valid email trimmed", email: " ana@example.com ", expected: "ana@example.com"},
		{name: "missing email", email: "", expected: "kk-42@noemail.kuantokusta.pt"},
		{name: "no at sign", email: "not-an-email", expected: "kk-42@noemail.kuantokusta.pt"},
		{name: "no tld", email: "ana@localhost", expected: "kk-42@noemail.kuantokusta.pt"},
		{name: "embedded space", email: "ana silva@example.com", expected: "kk-42@noemail.kuantokusta.pt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizeEmail(tt.email, "42"))
		})
	}
}

func TestNormalizeEmailIsDeterministic(t *testing.T) {
	first := normalizeEmail("", "987654")
	second := normalizeEmail("broken@", "987654")
	assert.Equal(t, first, second)
}
