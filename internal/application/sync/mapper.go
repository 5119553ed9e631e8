package sync

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kkbridge/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Order Mapping
// ---------------------------------------------------------------------------

// emailPattern accepts anything shaped local@domain.tld; the storefront
// rejects orders whose email fails its own stricter validation, so the
// placeholder below is substituted for anything doubtful.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// placeholderEmailDomain hosts the deterministic per-order placeholder
// addresses used when the marketplace did not provide a usable email
const placeholderEmailDomain = "noemail.kuantokusta.pt"

// ResolvedLine pairs a marketplace line item with the storefront variant
// it resolved to
type ResolvedLine struct {
	// Item is the marketplace line item
	Item integration.SourceOrderItem
	// Variant is the storefront variant resolved from the item's SKU
	Variant integration.VariantRef
}

// MapToStorefrontOrder converts a marketplace order plus its resolved line
// items into a storefront order ready for creation. The function is pure:
// it performs no I/O and never fails.
func MapToStorefrontOrder(src *integration.SourceOrder, lines []ResolvedLine) *integration.StorefrontOrder {
	first, last := splitCustomerName(src.DeliveryAddress.CustomerName)

	items := make([]integration.StorefrontLineItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, integration.StorefrontLineItem{
			VariantID: line.Variant.VariantID,
			Quantity:  line.Item.Quantity,
			Price:     line.Item.Price.StringFixed(2),
			SKU:       line.Item.SellerProductID,
			Title:     line.Item.Name,
		})
	}

	var shippingLines []integration.ShippingLine
	if src.Shipping != nil {
		shippingLines = []integration.ShippingLine{{
			Title: src.Shipping.Type,
			Price: src.Shipping.Value.StringFixed(2),
			Code:  src.Shipping.Type,
		}}
	}

	return &integration.StorefrontOrder{
		FirstName:       first,
		LastName:        last,
		Email:           normalizeEmail(src.CustomerEmail, src.OrderID),
		ShippingAddress: mapAddress(src.DeliveryAddress),
		BillingAddress:  mapAddress(src.BillingAddress),
		LineItems:       items,
		FinancialStatus: "pending",
		Currency:        "EUR",
		TotalPrice:      src.TotalPrice.StringFixed(2),
		ShippingLines:   shippingLines,
		Tags:            []string{integration.SourceMarkerTag, integration.ReferenceTag(src.OrderID)},
		Note:            fmt.Sprintf("KuantoKusta order %s", src.OrderID),
	}
}

// mapAddress converts a marketplace address into the storefront schema
func mapAddress(a integration.SourceAddress) integration.StorefrontAddress {
	return integration.StorefrontAddress{
		Address1: a.Address1,
		Address2: a.Address2,
		City:     a.City,
		Zip:      a.ZipCode,
		Country:  a.Country,
		Phone:    a.Contact,
	}
}

// splitCustomerName splits a full name into first name and remainder.
// A single-token name yields an empty last name.
func splitCustomerName(full string) (string, string) {
	fields := strings.Fields(full)
	if len(fields) == 0 {
		return "", ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}

// normalizeEmail returns the source email when it looks valid, or a
// deterministic per-order placeholder otherwise. Determinism matters:
// re-running the sync for the same order must produce the same email.
func normalizeEmail(email, orderID string) string {
	email = strings.TrimSpace(email)
	if emailPattern.MatchString(email) {
		return email
	}
	return fmt.Sprintf("kk-%s@%s", orderID, placeholderEmailDomain)
}
