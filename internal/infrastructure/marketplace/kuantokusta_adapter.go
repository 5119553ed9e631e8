package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/kkbridge/backend/internal/domain/integration"
)

const (
	// platformName identifies this adapter in errors and logs
	platformName = "kuantokusta"
	// maxResponseSize limits the response body size to prevent memory exhaustion
	maxResponseSize = 10 * 1024 * 1024 // 10MB max response
)

// KuantoKustaAdapter implements the Marketplace port for KuantoKusta
type KuantoKustaAdapter struct {
	config     *KuantoKustaConfig
	httpClient *http.Client
}

// NewKuantoKustaAdapter creates a new KuantoKusta adapter with the given configuration
func NewKuantoKustaAdapter(config *KuantoKustaConfig) (*KuantoKustaAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &KuantoKustaAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// ---------------------------------------------------------------------------
// Order Operations
// ---------------------------------------------------------------------------

// FetchOrders returns the orders created within [start, end]. The optional
// label filters by marketplace order state.
func (a *KuantoKustaAdapter) FetchOrders(ctx context.Context, start, end time.Time, label string) ([]integration.SourceOrder, error) {
	query := url.Values{}
	query.Set("dateFrom", start.Format(time.RFC3339))
	query.Set("dateTo", end.Format(time.RFC3339))
	if label != "" {
		query.Set("state", label)
	}

	body, err := a.doRequest(ctx, http.MethodGet, "/kms/orders?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var wireOrders []kkOrder
	if err := json.Unmarshal(body, &wireOrders); err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
	}

	orders := make([]integration.SourceOrder, 0, len(wireOrders))
	for i := range wireOrders {
		orders = append(orders, wireOrders[i].toDomain())
	}
	return orders, nil
}

// GetOrder returns a single order by marketplace identifier
func (a *KuantoKustaAdapter) GetOrder(ctx context.Context, orderID string) (*integration.SourceOrder, error) {
	body, err := a.doRequest(ctx, http.MethodGet, "/kms/orders/"+url.PathEscape(orderID), nil)
	if err != nil {
		var pe *integration.PlatformError
		if pe, _ = integration.AsPlatformError(err); pe != nil && pe.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", integration.ErrOrderNotFound, orderID)
		}
		return nil, err
	}

	var wireOrder kkOrder
	if err := json.Unmarshal(body, &wireOrder); err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
	}
	if wireOrder.OrderID == "" {
		return nil, fmt.Errorf("%w: %s", integration.ErrOrderNotFound, orderID)
	}

	order := wireOrder.toDomain()
	return &order, nil
}

// ConfirmShipment pushes tracking information for a shipped order
func (a *KuantoKustaAdapter) ConfirmShipment(ctx context.Context, orderID string, notice integration.ShipmentNotice) error {
	payload := kkShipmentRequest{
		Carrier:     notice.Carrier,
		TrackingID:  notice.TrackingNumber,
		TrackingURL: notice.TrackingURL,
	}

	_, err := a.doRequest(ctx, http.MethodPost, "/kms/orders/"+url.PathEscape(orderID)+"/send", payload)
	return err
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

// doRequest performs an HTTP request against the marketplace API
func (a *KuantoKustaAdapter) doRequest(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("kuantokusta: failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.config.APIBaseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("kuantokusta: failed to create request: %w", err)
	}
	req.Header.Set("x-api-key", a.config.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, integration.NewPlatformError(platformName, 0, "", integration.ErrPlatformUnavailable)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("kuantokusta: failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, integration.NewPlatformError(platformName, resp.StatusCode, string(body), integration.ErrPlatformAuthFailed)
	case resp.StatusCode >= 500:
		return nil, integration.NewPlatformError(platformName, resp.StatusCode, string(body), integration.ErrPlatformUnavailable)
	case resp.StatusCode >= 400:
		return nil, integration.NewPlatformError(platformName, resp.StatusCode, string(body), integration.ErrPlatformRequestFailed)
	}

	return body, nil
}

// Ensure KuantoKustaAdapter implements the Marketplace port
var _ integration.Marketplace = (*KuantoKustaAdapter)(nil)
