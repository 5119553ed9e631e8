package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kkbridge/backend/internal/domain/integration"
)

const (
	// platformName identifies this adapter in errors and logs
	platformName = "shopify"
	// maxResponseSize limits the response body size to prevent memory exhaustion
	maxResponseSize = 10 * 1024 * 1024 // 10MB max response
)

// ShopifyAdapter implements the Storefront port against the Shopify Admin
// API. Order creation and tag lookups go through REST; variant resolution
// and order mutations go through GraphQL.
type ShopifyAdapter struct {
	config     *ShopifyConfig
	httpClient *http.Client
}

// NewShopifyAdapter creates a new Shopify adapter with the given configuration
func NewShopifyAdapter(config *ShopifyConfig) (*ShopifyAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &ShopifyAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// ---------------------------------------------------------------------------
// Order Creation
// ---------------------------------------------------------------------------

// OrderExistsByTag reports whether an order carrying the tag exists
func (a *ShopifyAdapter) OrderExistsByTag(ctx context.Context, tag string) (bool, error) {
	query := url.Values{}
	query.Set("status", "any")
	query.Set("tag", tag)
	query.Set("fields", "id")
	query.Set("limit", "1")

	body, err := a.doREST(ctx, http.MethodGet, "/orders.json?"+query.Encode(), nil)
	if err != nil {
		return false, err
	}

	var resp restOrderListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return false, fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
	}
	return len(resp.Orders) > 0, nil
}

// CreateOrder creates the order and returns its storefront identifier
func (a *ShopifyAdapter) CreateOrder(ctx context.Context, order *integration.StorefrontOrder) (string, error) {
	payload := restOrderRequest{Order: toRESTOrder(order)}

	body, err := a.doREST(ctx, http.MethodPost, "/orders.json", payload)
	if err != nil {
		return "", err
	}

	var resp restOrderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
	}
	if resp.Order.ID == 0 {
		return "", fmt.Errorf("%w: order creation returned no identifier", integration.ErrPlatformInvalidResponse)
	}
	return strconv.FormatInt(resp.Order.ID, 10), nil
}

// toRESTOrder converts a domain order into the REST create payload
func toRESTOrder(order *integration.StorefrontOrder) restOrder {
	lineItems := make([]restLineItem, 0, len(order.LineItems))
	for _, item := range order.LineItems {
		lineItems = append(lineItems, restLineItem{
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			Price:     item.Price,
			SKU:       item.SKU,
			Title:     item.Title,
		})
	}

	shippingLines := make([]restShipping, 0, len(order.ShippingLines))
	for _, line := range order.ShippingLines {
		shippingLines = append(shippingLines, restShipping{
			Title: line.Title,
			Price: line.Price,
			Code:  line.Code,
		})
	}

	return restOrder{
		LineItems: lineItems,
		Customer: restCustomer{
			FirstName: order.FirstName,
			LastName:  order.LastName,
			Email:     order.Email,
		},
		Email:           order.Email,
		ShippingAddress: toRESTAddress(order.ShippingAddress, order.FirstName, order.LastName),
		BillingAddress:  toRESTAddress(order.BillingAddress, order.FirstName, order.LastName),
		FinancialStatus: order.FinancialStatus,
		Currency:        order.Currency,
		TotalPrice:      order.TotalPrice,
		ShippingLines:   shippingLines,
		Tags:            strings.Join(order.Tags, ", "),
		Note:            order.Note,
	}
}

func toRESTAddress(a integration.StorefrontAddress, firstName, lastName string) restAddress {
	return restAddress{
		FirstName: firstName,
		LastName:  lastName,
		Address1:  a.Address1,
		Address2:  a.Address2,
		City:      a.City,
		Zip:       a.Zip,
		Country:   a.Country,
		Phone:     a.Phone,
	}
}

// ---------------------------------------------------------------------------
// Variant Resolution
// ---------------------------------------------------------------------------

const variantBySKUQuery = `
query VariantBySKU($query: String!) {
  productVariants(first: 1, query: $query) {
    edges {
      node {
        id
        sku
        title
        product {
          title
        }
      }
    }
  }
}`

// FindVariantBySKU resolves a seller SKU to a storefront variant.
// Returns (nil, nil) when no variant carries the SKU.
func (a *ShopifyAdapter) FindVariantBySKU(ctx context.Context, sku string) (*integration.VariantRef, error) {
	var data variantSearchData
	err := a.doGraphQL(ctx, variantBySKUQuery, map[string]any{
		"query": fmt.Sprintf("sku:%s", sku),
	}, &data)
	if err != nil {
		return nil, err
	}

	edges := data.ProductVariants.Edges
	if len(edges) == 0 {
		return nil, nil
	}

	node := edges[0].Node
	variantID, err := numericIDFromGID(node.ID)
	if err != nil {
		return nil, err
	}
	return &integration.VariantRef{
		VariantID:   variantID,
		SKU:         node.SKU,
		DisplayName: node.Product.Title,
	}, nil
}

// numericIDFromGID extracts the numeric tail of a GraphQL GID
// (gid://shopify/ProductVariant/5000 -> 5000)
func numericIDFromGID(gid string) (int64, error) {
	idx := strings.LastIndex(gid, "/")
	if idx < 0 || idx == len(gid)-1 {
		return 0, fmt.Errorf("%w: %q", integration.ErrVariantInvalidID, gid)
	}
	id, err := strconv.ParseInt(gid[idx+1:], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", integration.ErrVariantInvalidID, gid)
	}
	return id, nil
}

// ---------------------------------------------------------------------------
// Status Lookups and Mutations
// ---------------------------------------------------------------------------

const orderByTagQuery = `
query OrderByTag($query: String!) {
  orders(first: 1, query: $query) {
    edges {
      node {
        id
        name
        displayFinancialStatus
        fulfillmentOrders(first: 1) {
          nodes {
            id
            status
          }
        }
      }
    }
  }
}`

// GetOrderStatus locates an order by tag and returns its status
func (a *ShopifyAdapter) GetOrderStatus(ctx context.Context, tag string) (*integration.StorefrontOrderStatus, error) {
	var data orderSearchData
	err := a.doGraphQL(ctx, orderByTagQuery, map[string]any{
		"query": fmt.Sprintf("tag:%s", tag),
	}, &data)
	if err != nil {
		return nil, err
	}

	edges := data.Orders.Edges
	if len(edges) == 0 {
		return nil, fmt.Errorf("%w: tag %q", integration.ErrOrderNotFound, tag)
	}

	node := edges[0].Node
	status := &integration.StorefrontOrderStatus{
		OrderID:         node.ID,
		Name:            node.Name,
		FinancialStatus: node.DisplayFinancialStatus,
	}
	if len(node.FulfillmentOrders.Nodes) > 0 {
		status.FulfillmentOrderID = node.FulfillmentOrders.Nodes[0].ID
	}
	return status, nil
}

const orderFinancialStatusQuery = `
query OrderFinancialStatus($id: ID!) {
  node(id: $id) {
    ... on Order {
      id
      name
      displayFinancialStatus
    }
  }
}`

const markOrderPaidMutation = `
mutation MarkOrderPaid($input: OrderMarkAsPaidInput!) {
  orderMarkAsPaid(input: $input) {
    order {
      id
      name
      displayFinancialStatus
    }
    userErrors {
      field
      message
    }
  }
}`

// MarkOrderPaid marks the order as paid. Already-paid orders are a no-op,
// checked against the live financial status rather than trusting the caller.
func (a *ShopifyAdapter) MarkOrderPaid(ctx context.Context, orderID string) error {
	var node orderNodeData
	err := a.doGraphQL(ctx, orderFinancialStatusQuery, map[string]any{"id": orderID}, &node)
	if err != nil {
		return err
	}
	if node.Node == nil {
		return fmt.Errorf("%w: %s", integration.ErrOrderNotFound, orderID)
	}
	if node.Node.DisplayFinancialStatus == "PAID" || node.Node.DisplayFinancialStatus == "PARTIALLY_PAID" {
		return nil
	}

	var data markPaidData
	err = a.doGraphQL(ctx, markOrderPaidMutation, map[string]any{
		"input": map[string]any{"id": orderID},
	}, &data)
	if err != nil {
		return err
	}
	if len(data.OrderMarkAsPaid.UserErrors) > 0 {
		return fmt.Errorf("%w: %s", integration.ErrStatusUpdateFailed, joinUserErrors(data.OrderMarkAsPaid.UserErrors))
	}
	if data.OrderMarkAsPaid.Order == nil {
		return fmt.Errorf("%w: mark paid returned no order", integration.ErrPlatformInvalidResponse)
	}
	return nil
}

const cancelOrderMutation = `
mutation CancelOrder($orderId: ID!) {
  orderCancel(orderId: $orderId) {
    order {
      id
      canceledAt
    }
    userErrors {
      field
      message
    }
  }
}`

// CancelOrder cancels the order
func (a *ShopifyAdapter) CancelOrder(ctx context.Context, orderID string) error {
	var data cancelOrderData
	err := a.doGraphQL(ctx, cancelOrderMutation, map[string]any{"orderId": orderID}, &data)
	if err != nil {
		return err
	}
	if len(data.OrderCancel.UserErrors) > 0 {
		return fmt.Errorf("%w: %s", integration.ErrStatusUpdateFailed, joinUserErrors(data.OrderCancel.UserErrors))
	}
	return nil
}

const fulfillOrderMutation = `
mutation FulfillOrder($orderId: ID!) {
  fulfillmentCreateV2(fulfillment: {
    lineItemsByFulfillmentOrder: [
      { fulfillmentOrderId: $orderId }
    ],
    notifyCustomer: true
  }) {
    fulfillment {
      id
      status
    }
    userErrors {
      field
      message
    }
  }
}`

// MarkOrderFulfilled fulfills the order through its fulfillment order
func (a *ShopifyAdapter) MarkOrderFulfilled(ctx context.Context, fulfillmentOrderID string) error {
	var data fulfillmentCreateData
	err := a.doGraphQL(ctx, fulfillOrderMutation, map[string]any{"orderId": fulfillmentOrderID}, &data)
	if err != nil {
		return err
	}
	if len(data.FulfillmentCreateV2.UserErrors) > 0 {
		return fmt.Errorf("%w: %s", integration.ErrStatusUpdateFailed, joinUserErrors(data.FulfillmentCreateV2.UserErrors))
	}
	return nil
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

// doREST performs a request against the Admin REST API
func (a *ShopifyAdapter) doREST(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("shopify: failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.config.BaseURL()+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("shopify: failed to create request: %w", err)
	}
	return a.send(req)
}

// doGraphQL performs a query against the Admin GraphQL API and unmarshals
// the data payload into out
func (a *ShopifyAdapter) doGraphQL(ctx context.Context, query string, variables map[string]any, out any) error {
	data, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("shopify: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.BaseURL()+"/graphql.json", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("shopify: failed to create request: %w", err)
	}

	body, err := a.send(req)
	if err != nil {
		return err
	}

	var envelope graphQLResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
	}
	if len(envelope.Errors) > 0 {
		messages := make([]string, 0, len(envelope.Errors))
		for _, e := range envelope.Errors {
			messages = append(messages, e.Message)
		}
		return fmt.Errorf("%w: %s", integration.ErrPlatformRequestFailed, strings.Join(messages, ", "))
	}
	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
		}
	}
	return nil
}

// send executes the request and classifies HTTP-level failures
func (a *ShopifyAdapter) send(req *http.Request) ([]byte, error) {
	req.Header.Set("X-Shopify-Access-Token", a.config.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, integration.NewPlatformError(platformName, 0, "", integration.ErrPlatformUnavailable)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("shopify: failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, integration.NewPlatformError(platformName, resp.StatusCode, string(body), integration.ErrPlatformAuthFailed)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, integration.NewPlatformError(platformName, resp.StatusCode, string(body), integration.ErrPlatformUnavailable)
	case resp.StatusCode >= 400:
		return nil, integration.NewPlatformError(platformName, resp.StatusCode, string(body), integration.ErrPlatformRequestFailed)
	}

	return body, nil
}

// Ensure ShopifyAdapter implements the Storefront port
var _ integration.Storefront = (*ShopifyAdapter)(nil)
