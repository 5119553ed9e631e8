package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kkbridge/backend/internal/domain/integration"
	"github.com/kkbridge/backend/internal/interfaces/http/dto"
)

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

type fakeOrderRunner struct {
	result     *integration.SyncRunResult
	err        error
	lastWindow integration.SyncWindow
}

func (f *fakeOrderRunner) RunSync(_ context.Context, window integration.SyncWindow) (*integration.SyncRunResult, error) {
	f.lastWindow = window
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeStatusRunner struct {
	report     *integration.StatusRunReport
	err        error
	lastWindow integration.SyncWindow
}

func (f *fakeStatusRunner) RunStatusUpdate(_ context.Context, window integration.SyncWindow) (*integration.StatusRunReport, error) {
	f.lastWindow = window
	if f.err != nil {
		return nil, f.err
	}
	return f.report, nil
}

type fakeShipmentSyncer struct {
	result      *integration.ShipmentSyncResult
	syncErr     error
	pushErr     error
	lastOrderID string
	lastNotice  integration.ShipmentNotice
}

func (f *fakeShipmentSyncer) SyncShipmentFromSource(_ context.Context, orderID string) (*integration.ShipmentSyncResult, error) {
	f.lastOrderID = orderID
	if f.syncErr != nil {
		return nil, f.syncErr
	}
	return f.result, nil
}

func (f *fakeShipmentSyncer) PushShipmentToMarketplace(_ context.Context, orderID string, notice integration.ShipmentNotice) error {
	f.lastOrderID = orderID
	f.lastNotice = notice
	return f.pushErr
}

func newTestRouter(orders *fakeOrderRunner, statuses *fakeStatusRunner, shipments *fakeShipmentSyncer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewSyncHandler(orders, statuses, shipments, zap.NewNop())

	router := gin.New()
	api := router.Group("/api/v1")
	h.RegisterRoutes(api)
	return router
}

func okRunResult(window integration.SyncWindow) *integration.SyncRunResult {
	now := time.Now()
	r := &integration.SyncRunResult{
		RunID:       uuid.New(),
		Window:      window,
		Status:      integration.RunStatusOK,
		Synced:      2,
		StartedAt:   now,
		CompletedAt: now,
	}
	r.Message = r.Summary()
	return r
}

// ---------------------------------------------------------------------------
// Order sync endpoint
// ---------------------------------------------------------------------------

func TestSyncOrders_OK(t *testing.T) {
	orders := &fakeOrderRunner{result: okRunResult(integration.SyncWindowToday)}
	router := newTestRouter(orders, &fakeStatusRunner{}, &fakeShipmentSyncer{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/sync/orders", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, integration.SyncWindowToday, orders.lastWindow)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "OK", data["status"])
	assert.Equal(t, float64(2), data["synced"])
	assert.Equal(t, "2 orders synced", data["message"])
}

func TestSyncOrders_WindowQueryParam(t *testing.T) {
	orders := &fakeOrderRunner{result: okRunResult(integration.SyncWindowMonth)}
	router := newTestRouter(orders, &fakeStatusRunner{}, &fakeShipmentSyncer{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/sync/orders?window=month", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, integration.SyncWindowMonth, orders.lastWindow)
}

func TestSyncOrders_EmptyWindow(t *testing.T) {
	orders := &fakeOrderRunner{result: &integration.SyncRunResult{
		RunID:  uuid.New(),
		Window: integration.SyncWindowToday,
		Status: integration.RunStatusEmpty,
	}}
	router := newTestRouter(orders, &fakeStatusRunner{}, &fakeShipmentSyncer{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/sync/orders", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.Bytes())
}

func TestSyncOrders_AllDuplicates(t *testing.T) {
	result := &integration.SyncRunResult{
		RunID:      uuid.New(),
		Window:     integration.SyncWindowToday,
		Status:     integration.RunStatusOK,
		Duplicates: []string{"1001", "1002"},
	}
	result.Message = result.Summary()
	orders := &fakeOrderRunner{result: result}
	router := newTestRouter(orders, &fakeStatusRunner{}, &fakeShipmentSyncer{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/sync/orders", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, dto.ErrCodeAlreadyExists, resp.Error.Code)
	assert.Equal(t, "2 already existed", resp.Error.Message)
}

func TestSyncOrders_PartialDuplicatesStillOK(t *testing.T) {
	result := okRunResult(integration.SyncWindowToday)
	result.Duplicates = []string{"1001"}
	result.Message = result.Summary()
	orders := &fakeOrderRunner{result: result}
	router := newTestRouter(orders, &fakeStatusRunner{}, &fakeShipmentSyncer{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/sync/orders", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSyncOrders_InvalidWindow(t *testing.T) {
	orders := &fakeOrderRunner{err: integration.ErrInvalidSyncWindow}
	router := newTestRouter(orders, &fakeStatusRunner{}, &fakeShipmentSyncer{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/sync/orders?window=decade", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, integration.SyncWindow("decade"), orders.lastWindow)
}

func TestSyncOrders_RunInProgress(t *testing.T) {
	orders := &fakeOrderRunner{err: integration.ErrRunInProgress}
	router := newTestRouter(orders, &fakeStatusRunner{}, &fakeShipmentSyncer{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/sync/orders", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrCodeConflict, resp.Error.Code)
}

func TestSyncOrders_PlatformFailure(t *testing.T) {
	orders := &fakeOrderRunner{
		err: integration.NewPlatformError("kuantokusta", 503, "maintenance", integration.ErrPlatformUnavailable),
	}
	router := newTestRouter(orders, &fakeStatusRunner{}, &fakeShipmentSyncer{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/sync/orders", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrCodeUpstreamUnavailable, resp.Error.Code)
}

// ---------------------------------------------------------------------------
// Status sync endpoint
// ---------------------------------------------------------------------------

func TestSyncStatus_OK(t *testing.T) {
	statuses := &fakeStatusRunner{report: &integration.StatusRunReport{
		Examined:       5,
		MarkedPaid:     2,
		InvoicesIssued: 2,
		Fulfilled:      1,
		Skipped:        2,
	}}
	router := newTestRouter(&fakeOrderRunner{}, statuses, &fakeShipmentSyncer{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/sync/status?window=week", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, integration.SyncWindowWeek, statuses.lastWindow)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(5), data["examined"])
	assert.Equal(t, float64(2), data["marked_paid"])
	assert.Equal(t, float64(2), data["invoices_issued"])
	assert.Equal(t, float64(1), data["fulfilled"])
}

func TestSyncStatus_RunInProgress(t *testing.T) {
	statuses := &fakeStatusRunner{err: integration.ErrRunInProgress}
	router := newTestRouter(&fakeOrderRunner{}, statuses, &fakeShipmentSyncer{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/sync/status", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

// ---------------------------------------------------------------------------
// Shipment endpoints
// ---------------------------------------------------------------------------

func TestSyncShipment_Fulfilled(t *testing.T) {
	shipments := &fakeShipmentSyncer{result: &integration.ShipmentSyncResult{
		OrderID:   "4711",
		Fulfilled: true,
		Message:   "order fulfilled",
	}}
	router := newTestRouter(&fakeOrderRunner{}, &fakeStatusRunner{}, shipments)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/sync/shipments/4711", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "4711", shipments.lastOrderID)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, true, data["fulfilled"])
	assert.Equal(t, "order fulfilled", data["message"])
}

func TestSyncShipment_NotYetShipped(t *testing.T) {
	shipments := &fakeShipmentSyncer{result: &integration.ShipmentSyncResult{
		OrderID: "4711",
		Message: "order is APPROVED, not shipped",
	}}
	router := newTestRouter(&fakeOrderRunner{}, &fakeStatusRunner{}, shipments)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/sync/shipments/4711", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, false, data["fulfilled"])
}

func TestSyncShipment_OrderNotFound(t *testing.T) {
	shipments := &fakeShipmentSyncer{syncErr: integration.ErrOrderNotFound}
	router := newTestRouter(&fakeOrderRunner{}, &fakeStatusRunner{}, shipments)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/sync/shipments/unknown", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSyncShipment_MissingFulfillmentOrder(t *testing.T) {
	shipments := &fakeShipmentSyncer{syncErr: integration.ErrMissingFulfillmentOrder}
	router := newTestRouter(&fakeOrderRunner{}, &fakeStatusRunner{}, shipments)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/sync/shipments/4711", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrCodeInvalidState, resp.Error.Code)
}

func TestConfirmShipment_OK(t *testing.T) {
	shipments := &fakeShipmentSyncer{}
	router := newTestRouter(&fakeOrderRunner{}, &fakeStatusRunner{}, shipments)

	body, _ := json.Marshal(map[string]string{
		"carrier":         "CTT",
		"tracking_number": "PT123456789",
		"tracking_url":    "https://www.ctt.pt/track/PT123456789",
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/marketplace/orders/4711/shipment", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "4711", shipments.lastOrderID)
	assert.Equal(t, "CTT", shipments.lastNotice.Carrier)
	assert.Equal(t, "PT123456789", shipments.lastNotice.TrackingNumber)
	assert.Equal(t, "https://www.ctt.pt/track/PT123456789", shipments.lastNotice.TrackingURL)
}

func TestConfirmShipment_MissingTrackingNumber(t *testing.T) {
	shipments := &fakeShipmentSyncer{}
	router := newTestRouter(&fakeOrderRunner{}, &fakeStatusRunner{}, shipments)

	body, _ := json.Marshal(map[string]string{"carrier": "CTT"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/marketplace/orders/4711/shipment", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, shipments.lastOrderID)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
}

func TestConfirmShipment_MarketplaceRejects(t *testing.T) {
	shipments := &fakeShipmentSyncer{
		pushErr: integration.NewPlatformError("kuantokusta", 400, "state does not allow shipment", integration.ErrPlatformRequestFailed),
	}
	router := newTestRouter(&fakeOrderRunner{}, &fakeStatusRunner{}, shipments)

	body, _ := json.Marshal(map[string]string{
		"carrier":         "CTT",
		"tracking_number": "PT123456789",
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/marketplace/orders/4711/shipment", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrCodeUpstream, resp.Error.Code)
}
