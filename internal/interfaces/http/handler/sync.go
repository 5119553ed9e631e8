package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kkbridge/backend/internal/domain/integration"
	"github.com/kkbridge/backend/internal/interfaces/http/dto"
)

// OrderSyncRunner runs one order synchronization pass
type OrderSyncRunner interface {
	RunSync(ctx context.Context, window integration.SyncWindow) (*integration.SyncRunResult, error)
}

// StatusSyncRunner propagates marketplace order states to the storefront
type StatusSyncRunner interface {
	RunStatusUpdate(ctx context.Context, window integration.SyncWindow) (*integration.StatusRunReport, error)
}

// ShipmentSyncer handles single-order shipment flows in both directions
type ShipmentSyncer interface {
	SyncShipmentFromSource(ctx context.Context, orderID string) (*integration.ShipmentSyncResult, error)
	PushShipmentToMarketplace(ctx context.Context, orderID string, notice integration.ShipmentNotice) error
}

// SyncHandler handles synchronization API endpoints
type SyncHandler struct {
	BaseHandler
	orders    OrderSyncRunner
	statuses  StatusSyncRunner
	shipments ShipmentSyncer
	logger    *zap.Logger
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(
	orders OrderSyncRunner,
	statuses StatusSyncRunner,
	shipments ShipmentSyncer,
	logger *zap.Logger,
) *SyncHandler {
	return &SyncHandler{
		orders:    orders,
		statuses:  statuses,
		shipments: shipments,
		logger:    logger,
	}
}

// RegisterRoutes registers synchronization routes
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sync := rg.Group("/sync")
	{
		sync.POST("/orders", h.SyncOrders)
		sync.POST("/status", h.SyncStatus)
		sync.POST("/shipments/:orderID", h.SyncShipment)
	}

	marketplace := rg.Group("/marketplace")
	{
		marketplace.POST("/orders/:orderID/shipment", h.ConfirmShipment)
	}
}

// SyncRunResponse represents the outcome of one order sync pass
type SyncRunResponse struct {
	RunID          string    `json:"run_id"`
	Window         string    `json:"window"`
	Status         string    `json:"status"`
	Synced         int       `json:"synced"`
	Duplicates     []string  `json:"duplicates,omitempty"`
	UnresolvedSKUs []string  `json:"unresolved_skus,omitempty"`
	Message        string    `json:"message"`
	StartedAt      time.Time `json:"started_at"`
	CompletedAt    time.Time `json:"completed_at"`
}

func newSyncRunResponse(result *integration.SyncRunResult) SyncRunResponse {
	return SyncRunResponse{
		RunID:          result.RunID.String(),
		Window:         result.Window.String(),
		Status:         result.Status.String(),
		Synced:         result.Synced,
		Duplicates:     result.Duplicates,
		UnresolvedSKUs: result.UnresolvedSKUs,
		Message:        result.Message,
		StartedAt:      result.StartedAt,
		CompletedAt:    result.CompletedAt,
	}
}

// StatusRunResponse represents the outcome of one status propagation pass
type StatusRunResponse struct {
	Examined       int `json:"examined"`
	MarkedPaid     int `json:"marked_paid"`
	Canceled       int `json:"canceled"`
	Fulfilled      int `json:"fulfilled"`
	InvoicesIssued int `json:"invoices_issued"`
	Skipped        int `json:"skipped"`
	Failed         int `json:"failed"`
}

// ShipmentSyncResponse represents the outcome of a single-order shipment sync
type ShipmentSyncResponse struct {
	OrderID   string `json:"order_id"`
	Fulfilled bool   `json:"fulfilled"`
	Message   string `json:"message"`
}

// ConfirmShipmentRequest carries tracking details pushed to the marketplace
type ConfirmShipmentRequest struct {
	Carrier        string `json:"carrier" binding:"required"`
	TrackingNumber string `json:"tracking_number" binding:"required"`
	TrackingURL    string `json:"tracking_url"`
}

// SyncOrders triggers one order sync pass over the requested window.
// Returns 204 when the window held no orders, 409 when every fetched
// order already existed, and 200 with the run result otherwise.
func (h *SyncHandler) SyncOrders(c *gin.Context) {
	window := integration.SyncWindow(c.DefaultQuery("window", integration.SyncWindowToday.String()))

	result, err := h.orders.RunSync(c.Request.Context(), window)
	if err != nil {
		h.HandleSyncError(c, err)
		return
	}

	if result.Status == integration.RunStatusEmpty {
		h.NoContent(c)
		return
	}
	if result.Synced == 0 && result.HasDuplicates() {
		h.Error(c, http.StatusConflict, dto.ErrCodeAlreadyExists, result.Message)
		return
	}

	h.Success(c, newSyncRunResponse(result))
}

// SyncStatus triggers one status propagation pass over the requested window
func (h *SyncHandler) SyncStatus(c *gin.Context) {
	window := integration.SyncWindow(c.DefaultQuery("window", integration.SyncWindowToday.String()))

	report, err := h.statuses.RunStatusUpdate(c.Request.Context(), window)
	if err != nil {
		h.HandleSyncError(c, err)
		return
	}

	h.Success(c, StatusRunResponse{
		Examined:       report.Examined,
		MarkedPaid:     report.MarkedPaid,
		Canceled:       report.Canceled,
		Fulfilled:      report.Fulfilled,
		InvoicesIssued: report.InvoicesIssued,
		Skipped:        report.Skipped,
		Failed:         report.Failed,
	})
}

// SyncShipment checks a single marketplace order for shipment and, when
// shipped, fulfills the matching storefront order
func (h *SyncHandler) SyncShipment(c *gin.Context) {
	orderID := c.Param("orderID")
	if orderID == "" {
		h.BadRequest(c, "order ID is required")
		return
	}

	result, err := h.shipments.SyncShipmentFromSource(c.Request.Context(), orderID)
	if err != nil {
		h.HandleSyncError(c, err)
		return
	}

	h.Success(c, ShipmentSyncResponse{
		OrderID:   result.OrderID,
		Fulfilled: result.Fulfilled,
		Message:   result.Message,
	})
}

// ConfirmShipment pushes seller tracking details for an order back to
// the marketplace
func (h *SyncHandler) ConfirmShipment(c *gin.Context) {
	orderID := c.Param("orderID")
	if orderID == "" {
		h.BadRequest(c, "order ID is required")
		return
	}

	var req ConfirmShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeValidation, err.Error())
		return
	}

	notice := integration.ShipmentNotice{
		Carrier:        req.Carrier,
		TrackingNumber: req.TrackingNumber,
		TrackingURL:    req.TrackingURL,
	}
	if err := h.shipments.PushShipmentToMarketplace(c.Request.Context(), orderID, notice); err != nil {
		h.logger.Warn("Shipment confirmation failed",
			zap.String("order_id", orderID),
			zap.Error(err))
		h.HandleSyncError(c, err)
		return
	}

	h.NoContent(c)
}
