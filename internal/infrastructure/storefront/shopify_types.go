package storefront

import (
	"encoding/json"
	"strings"
)

// ---------------------------------------------------------------------------
// REST Wire Types
// ---------------------------------------------------------------------------

// restOrderRequest wraps an order for the REST create endpoint
type restOrderRequest struct {
	Order restOrder `json:"order"`
}

// restOrder is the order payload in the Admin REST schema
type restOrder struct {
	LineItems       []restLineItem `json:"line_items"`
	Customer        restCustomer   `json:"customer"`
	Email           string         `json:"email"`
	ShippingAddress restAddress    `json:"shipping_address"`
	BillingAddress  restAddress    `json:"billing_address"`
	FinancialStatus string         `json:"financial_status"`
	Currency        string         `json:"currency"`
	TotalPrice      string         `json:"total_price,omitempty"`
	ShippingLines   []restShipping `json:"shipping_lines"`
	Tags            string         `json:"tags"`
	Note            string         `json:"note,omitempty"`
}

// restLineItem is one order line in the REST schema
type restLineItem struct {
	VariantID int64  `json:"variant_id"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
	SKU       string `json:"sku,omitempty"`
	Title     string `json:"title,omitempty"`
}

// restCustomer is the order customer block
type restCustomer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// restAddress is a shipping or billing address in the REST schema
type restAddress struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Address1  string `json:"address1"`
	Address2  string `json:"address2,omitempty"`
	City      string `json:"city"`
	Zip       string `json:"zip"`
	Country   string `json:"country"`
	Phone     string `json:"phone,omitempty"`
}

// restShipping is one shipping line
type restShipping struct {
	Title string `json:"title"`
	Price string `json:"price"`
	Code  string `json:"code,omitempty"`
}

// restOrderResponse is the create order response
type restOrderResponse struct {
	Order struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"order"`
}

// restOrderListResponse is the response of the orders listing endpoint
type restOrderListResponse struct {
	Orders []struct {
		ID int64 `json:"id"`
	} `json:"orders"`
}

// ---------------------------------------------------------------------------
// GraphQL Wire Types
// ---------------------------------------------------------------------------

// graphQLRequest is the request envelope for the GraphQL endpoint
type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// graphQLResponse is the response envelope for the GraphQL endpoint
type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors,omitempty"`
}

// graphQLError is a top-level GraphQL error
type graphQLError struct {
	Message string `json:"message"`
}

// userError is a mutation-level user error
type userError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

// joinUserErrors renders user errors into a single message
func joinUserErrors(errs []userError) string {
	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		messages = append(messages, e.Message)
	}
	return strings.Join(messages, ", ")
}

// variantSearchData is the productVariants query payload
type variantSearchData struct {
	ProductVariants struct {
		Edges []struct {
			Node struct {
				ID      string `json:"id"`
				SKU     string `json:"sku"`
				Title   string `json:"title"`
				Product struct {
					Title string `json:"title"`
				} `json:"product"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"productVariants"`
}

// orderSearchData is the orders-by-tag query payload
type orderSearchData struct {
	Orders struct {
		Edges []struct {
			Node struct {
				ID                     string `json:"id"`
				Name                   string `json:"name"`
				DisplayFinancialStatus string `json:"displayFinancialStatus"`
				FulfillmentOrders      struct {
					Nodes []struct {
						ID     string `json:"id"`
						Status string `json:"status"`
					} `json:"nodes"`
				} `json:"fulfillmentOrders"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"orders"`
}

// orderNodeData is the single-order financial status query payload
type orderNodeData struct {
	Node *struct {
		ID                     string `json:"id"`
		Name                   string `json:"name"`
		DisplayFinancialStatus string `json:"displayFinancialStatus"`
	} `json:"node"`
}

// markPaidData is the orderMarkAsPaid mutation payload
type markPaidData struct {
	OrderMarkAsPaid struct {
		Order *struct {
			ID                     string `json:"id"`
			Name                   string `json:"name"`
			DisplayFinancialStatus string `json:"displayFinancialStatus"`
		} `json:"order"`
		UserErrors []userError `json:"userErrors"`
	} `json:"orderMarkAsPaid"`
}

// cancelOrderData is the orderCancel mutation payload
type cancelOrderData struct {
	OrderCancel struct {
		Order *struct {
			ID         string `json:"id"`
			CanceledAt string `json:"canceledAt"`
		} `json:"order"`
		UserErrors []userError `json:"userErrors"`
	} `json:"orderCancel"`
}

// fulfillmentCreateData is the fulfillmentCreateV2 mutation payload
type fulfillmentCreateData struct {
	FulfillmentCreateV2 struct {
		Fulfillment *struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"fulfillment"`
		UserErrors []userError `json:"userErrors"`
	} `json:"fulfillmentCreateV2"`
}
