package sync

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kkbridge/backend/internal/domain/integration"
)

// ShipmentService handles single-order shipment flows in both directions:
// reflecting a marketplace shipment on the storefront, and pushing seller
// tracking details back to the marketplace.
type ShipmentService struct {
	marketplace integration.Marketplace
	storefront  integration.Storefront
	logger      *zap.Logger
}

// NewShipmentService creates a new ShipmentService
func NewShipmentService(
	marketplace integration.Marketplace,
	storefront integration.Storefront,
	logger *zap.Logger,
) *ShipmentService {
	return &ShipmentService{
		marketplace: marketplace,
		storefront:  storefront,
		logger:      logger,
	}
}

// SyncShipmentFromSource checks whether the marketplace order has shipped
// and, if so, fulfills the corresponding storefront order. A not-yet-shipped
// order is a normal outcome, not an error.
func (s *ShipmentService) SyncShipmentFromSource(ctx context.Context, orderID string) (*integration.ShipmentSyncResult, error) {
	log := s.logger.With(zap.String("order_id", orderID))

	order, err := s.marketplace.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("fetch marketplace order: %w", err)
	}

	state := order.State()
	if !state.IsShipped() {
		log.Debug("Order has not shipped", zap.String("state", state.String()))
		return &integration.ShipmentSyncResult{
			OrderID: orderID,
			Message: fmt.Sprintf("order is %s, not shipped", state),
		}, nil
	}

	status, err := s.storefront.GetOrderStatus(ctx, integration.ReferenceTag(orderID))
	if err != nil {
		if errors.Is(err, integration.ErrOrderNotFound) {
			log.Warn("Shipped order has no storefront counterpart")
		}
		return nil, fmt.Errorf("look up storefront order: %w", err)
	}
	if status.FulfillmentOrderID == "" {
		return nil, fmt.Errorf("%w: %s", integration.ErrMissingFulfillmentOrder, status.OrderID)
	}

	if err := s.storefront.MarkOrderFulfilled(ctx, status.FulfillmentOrderID); err != nil {
		return nil, fmt.Errorf("fulfill storefront order: %w", err)
	}

	log.Info("Storefront order fulfilled from marketplace shipment",
		zap.String("storefront_order_id", status.OrderID))
	return &integration.ShipmentSyncResult{
		OrderID:   orderID,
		Fulfilled: true,
		Message:   "order fulfilled",
	}, nil
}

// PushShipmentToMarketplace sends seller tracking details for a shipped
// order back to the marketplace.
func (s *ShipmentService) PushShipmentToMarketplace(ctx context.Context, orderID string, notice integration.ShipmentNotice) error {
	if notice.Carrier == "" || notice.TrackingNumber == "" {
		return fmt.Errorf("%w: carrier and tracking number are required", integration.ErrStatusUpdateFailed)
	}

	if err := s.marketplace.ConfirmShipment(ctx, orderID, notice); err != nil {
		s.logger.Error("Failed to confirm shipment on marketplace",
			zap.String("order_id", orderID),
			zap.Error(err))
		return fmt.Errorf("confirm marketplace shipment: %w", err)
	}

	s.logger.Info("Shipment confirmed on marketplace",
		zap.String("order_id", orderID),
		zap.String("carrier", notice.Carrier),
		zap.String("tracking_number", notice.TrackingNumber))
	return nil
}
