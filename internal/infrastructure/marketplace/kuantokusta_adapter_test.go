package marketplace

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kkbridge/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Config Tests
// ---------------------------------------------------------------------------

func TestKuantoKustaConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  *KuantoKustaConfig
		wantErr error
	}{
		{
			name:    "valid config",
			config:  &KuantoKustaConfig{APIKey: "test_key"},
			wantErr: nil,
		},
		{
			name:    "missing api key",
			config:  &KuantoKustaConfig{},
			wantErr: ErrKuantoKustaConfigMissingAPIKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestKuantoKustaConfig_ValidateAppliesDefaults(t *testing.T) {
	config := &KuantoKustaConfig{APIKey: "test_key"}
	require.NoError(t, config.Validate())
	assert.Equal(t, KuantoKustaProductionAPIURL, config.APIBaseURL)
	assert.Equal(t, 30, config.TimeoutSeconds)
}

// ---------------------------------------------------------------------------
// Adapter Tests
// ---------------------------------------------------------------------------

func newTestAdapter(t *testing.T, handler http.HandlerFunc) *KuantoKustaAdapter {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	adapter, err := NewKuantoKustaAdapter(&KuantoKustaConfig{
		APIBaseURL: server.URL,
		APIKey:     "test_key",
	})
	require.NoError(t, err)
	return adapter
}

func TestFetchOrders(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/kms/orders", r.URL.Path)
		assert.Equal(t, "test_key", r.Header.Get("x-api-key"))
		assert.NotEmpty(t, r.URL.Query().Get("dateFrom"))
		assert.NotEmpty(t, r.URL.Query().Get("dateTo"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]kkOrder{
			{
				OrderID: "987654",
				DeliveryAddress: kkAddress{
					CustomerName: "Maria Silva",
					Address1:     "Rua das Flores 10",
					ZipCode:      "4000-123",
					City:         "Porto",
					Country:      "Portugal",
				},
				Products: []kkProduct{
					{Name: "Wireless Mouse", SellerProductID: "SKU-MOUSE", ID: "p1", Quantity: 2, Price: 19.9},
				},
				ProductsPrice: 39.8,
				TotalPrice:    44.7,
				Shipping:      &kkShipping{Type: "CTT Expresso", Value: 4.9},
				OrderState:    "Approved",
				CreatedAt:     "2026-03-01T10:00:00Z",
				ApprovalDate:  "2026-03-01T11:00:00Z",
			},
		})
	})

	orders, err := adapter.FetchOrders(context.Background(), time.Now().Add(-24*time.Hour), time.Now(), "")
	require.NoError(t, err)
	require.Len(t, orders, 1)

	order := orders[0]
	assert.Equal(t, "987654", order.OrderID)
	assert.Equal(t, "Maria Silva", order.DeliveryAddress.CustomerName)
	assert.Equal(t, integration.OrderStateApproved, order.State())
	assert.Equal(t, "44.7", order.TotalPrice.String())
	require.Len(t, order.Products, 1)
	assert.Equal(t, "SKU-MOUSE", order.Products[0].SellerProductID)
	assert.Equal(t, "19.9", order.Products[0].Price.String())
	require.NotNil(t, order.Shipping)
	assert.Equal(t, "CTT Expresso", order.Shipping.Type)
	require.NotNil(t, order.ApprovalDate)
	assert.Equal(t, time.Date(2026, time.March, 1, 11, 0, 0, 0, time.UTC), order.ApprovalDate.UTC())
}

func TestFetchOrdersWithStateFilter(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Approved", r.URL.Query().Get("state"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("[]"))
	})

	orders, err := adapter.FetchOrders(context.Background(), time.Now(), time.Now(), "Approved")
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestFetchOrdersServerError(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	})

	_, err := adapter.FetchOrders(context.Background(), time.Now(), time.Now(), "")
	assert.ErrorIs(t, err, integration.ErrPlatformUnavailable)

	pe, ok := integration.AsPlatformError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, pe.StatusCode)
}

func TestFetchOrdersAuthError(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	})

	_, err := adapter.FetchOrders(context.Background(), time.Now(), time.Now(), "")
	assert.ErrorIs(t, err, integration.ErrPlatformAuthFailed)
}

func TestFetchOrdersMalformedBody(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	})

	_, err := adapter.FetchOrders(context.Background(), time.Now(), time.Now(), "")
	assert.ErrorIs(t, err, integration.ErrPlatformInvalidResponse)
}

func TestGetOrder(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/kms/orders/987654", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(kkOrder{
			OrderID:    "987654",
			OrderState: "Shipped",
			CreatedAt:  "2026-03-01T10:00:00Z",
		})
	})

	order, err := adapter.GetOrder(context.Background(), "987654")
	require.NoError(t, err)
	assert.Equal(t, "987654", order.OrderID)
	assert.True(t, order.State().IsShipped())
}

func TestGetOrderNotFound(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no such order", http.StatusNotFound)
	})

	_, err := adapter.GetOrder(context.Background(), "missing")
	assert.ErrorIs(t, err, integration.ErrOrderNotFound)
}

func TestConfirmShipment(t *testing.T) {
	var received kkShipmentRequest
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/kms/orders/987654/send", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	})

	err := adapter.ConfirmShipment(context.Background(), "987654", integration.ShipmentNotice{
		Carrier:        "CTT",
		TrackingNumber: "RR123456789PT",
		TrackingURL:    "https://www.ctt.pt/track/RR123456789PT",
	})
	require.NoError(t, err)
	assert.Equal(t, "CTT", received.Carrier)
	assert.Equal(t, "RR123456789PT", received.TrackingID)
}
