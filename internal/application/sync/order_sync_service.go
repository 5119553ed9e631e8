package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/kkbridge/backend/internal/domain/integration"
	"github.com/kkbridge/backend/internal/infrastructure/telemetry"
)

// OrderSyncService copies marketplace orders onto the storefront. One pass
// at a time: concurrent RunSync calls beyond the first fail fast with
// integration.ErrRunInProgress.
type OrderSyncService struct {
	marketplace integration.Marketplace
	storefront  integration.Storefront
	logger      *zap.Logger
	running     *atomic.Bool
}

// NewOrderSyncService creates a new OrderSyncService
func NewOrderSyncService(
	marketplace integration.Marketplace,
	storefront integration.Storefront,
	logger *zap.Logger,
) *OrderSyncService {
	return &OrderSyncService{
		marketplace: marketplace,
		storefront:  storefront,
		logger:      logger,
		running:     atomic.NewBool(false),
	}
}

// RunSync executes one synchronization pass over the given window.
// Per-order failures are logged and skipped; only a failure to list the
// window at all aborts the pass.
func (s *OrderSyncService) RunSync(ctx context.Context, window integration.SyncWindow) (*integration.SyncRunResult, error) {
	if !window.IsValid() {
		return nil, fmt.Errorf("%w: %q", integration.ErrInvalidSyncWindow, window)
	}
	if !s.running.CompareAndSwap(false, true) {
		return nil, integration.ErrRunInProgress
	}
	defer s.running.Store(false)

	ctx, span := telemetry.StartServiceSpan(ctx, "order_sync", "run")
	defer span.End()

	result := &integration.SyncRunResult{
		RunID:     uuid.New(),
		Window:    window,
		StartedAt: time.Now(),
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrRunID, result.RunID.String(),
		telemetry.SpanAttrWindow, window.String(),
	)

	start, end := window.Range(result.StartedAt)
	s.logger.Info("Starting order sync",
		zap.String("run_id", result.RunID.String()),
		zap.String("window", window.String()),
		zap.Time("from", start),
		zap.Time("to", end))

	orders, err := s.marketplace.FetchOrders(ctx, start, end, "")
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Failed to fetch marketplace orders", zap.Error(err))
		return nil, fmt.Errorf("fetch marketplace orders: %w", err)
	}

	if len(orders) == 0 {
		result.Status = integration.RunStatusEmpty
		result.Message = result.Summary()
		result.CompletedAt = time.Now()
		s.logger.Info("Order sync found no orders in window",
			zap.String("run_id", result.RunID.String()))
		return result, nil
	}

	for i := range orders {
		s.syncOne(ctx, &orders[i], result)
	}

	result.Status = integration.RunStatusOK
	result.Message = result.Summary()
	result.CompletedAt = time.Now()

	telemetry.SetAttributes(span,
		"synced", result.Synced,
		"duplicates", len(result.Duplicates),
		"unresolved_skus", len(result.UnresolvedSKUs),
	)
	s.logger.Info("Order sync completed",
		zap.String("run_id", result.RunID.String()),
		zap.Int("synced", result.Synced),
		zap.Int("duplicates", len(result.Duplicates)),
		zap.Int("unresolved_skus", len(result.UnresolvedSKUs)),
		zap.Duration("elapsed", result.CompletedAt.Sub(result.StartedAt)))

	return result, nil
}

// syncOne processes a single marketplace order. Failures are recorded on
// the result or logged; they never abort the pass.
func (s *OrderSyncService) syncOne(ctx context.Context, order *integration.SourceOrder, result *integration.SyncRunResult) {
	log := s.logger.With(
		zap.String("run_id", result.RunID.String()),
		zap.String("order_id", order.OrderID))

	if len(order.Products) == 0 {
		log.Debug("Skipping order without line items")
		return
	}

	tag := integration.ReferenceTag(order.OrderID)
	exists, err := s.storefront.OrderExistsByTag(ctx, tag)
	if err != nil {
		log.Error("Failed to check for existing storefront order", zap.Error(err))
		return
	}
	if exists {
		log.Debug("Order already exists on storefront", zap.String("tag", tag))
		result.Duplicates = append(result.Duplicates, order.OrderID)
		return
	}

	lines := make([]ResolvedLine, 0, len(order.Products))
	for _, item := range order.Products {
		variant, err := s.storefront.FindVariantBySKU(ctx, item.SellerProductID)
		if err != nil {
			log.Error("Variant lookup failed",
				zap.String("sku", item.SellerProductID),
				zap.Error(err))
			result.UnresolvedSKUs = append(result.UnresolvedSKUs, item.SellerProductID)
			continue
		}
		if variant == nil {
			log.Warn("No storefront variant for SKU", zap.String("sku", item.SellerProductID))
			result.UnresolvedSKUs = append(result.UnresolvedSKUs, item.SellerProductID)
			continue
		}
		lines = append(lines, ResolvedLine{Item: item, Variant: *variant})
	}

	if len(lines) == 0 {
		log.Warn("Skipping order: no line item resolved to a variant")
		return
	}

	storefrontOrder := MapToStorefrontOrder(order, lines)
	orderID, err := s.storefront.CreateOrder(ctx, storefrontOrder)
	if err != nil {
		log.Error("Failed to create storefront order", zap.Error(err))
		return
	}

	result.Synced++
	log.Info("Storefront order created",
		zap.String("storefront_order_id", orderID),
		zap.Int("line_items", len(lines)))
}
