package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/kkbridge/backend/internal/domain/integration"
	"github.com/kkbridge/backend/internal/infrastructure/telemetry"
)

// invoiceDueDays is the payment term applied to issued invoices
const invoiceDueDays = 30

// StatusSyncService propagates marketplace order state changes to the
// storefront and issues invoices for approved orders. Like the order sync,
// only one pass may run at a time.
type StatusSyncService struct {
	marketplace integration.Marketplace
	storefront  integration.Storefront
	invoicer    integration.Invoicer
	logger      *zap.Logger
	running     *atomic.Bool
}

// NewStatusSyncService creates a new StatusSyncService
func NewStatusSyncService(
	marketplace integration.Marketplace,
	storefront integration.Storefront,
	invoicer integration.Invoicer,
	logger *zap.Logger,
) *StatusSyncService {
	return &StatusSyncService{
		marketplace: marketplace,
		storefront:  storefront,
		invoicer:    invoicer,
		logger:      logger,
		running:     atomic.NewBool(false),
	}
}

// RunStatusUpdate executes one status propagation pass over the window.
// Per-order failures are counted and logged, never escalated.
func (s *StatusSyncService) RunStatusUpdate(ctx context.Context, window integration.SyncWindow) (*integration.StatusRunReport, error) {
	if !window.IsValid() {
		return nil, fmt.Errorf("%w: %q", integration.ErrInvalidSyncWindow, window)
	}
	if !s.running.CompareAndSwap(false, true) {
		return nil, integration.ErrRunInProgress
	}
	defer s.running.Store(false)

	ctx, span := telemetry.StartServiceSpan(ctx, "status_sync", "run")
	defer span.End()

	now := time.Now()
	start, end := window.Range(now)
	s.logger.Info("Starting status sync",
		zap.String("window", window.String()),
		zap.Time("from", start),
		zap.Time("to", end))

	orders, err := s.marketplace.FetchOrders(ctx, start, end, "")
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Failed to fetch marketplace orders", zap.Error(err))
		return nil, fmt.Errorf("fetch marketplace orders: %w", err)
	}

	report := &integration.StatusRunReport{}
	for i := range orders {
		s.propagateOne(ctx, &orders[i], report)
	}

	telemetry.SetAttributes(span,
		"examined", report.Examined,
		"marked_paid", report.MarkedPaid,
		"canceled", report.Canceled,
		"fulfilled", report.Fulfilled,
		"invoices_issued", report.InvoicesIssued,
		"failed", report.Failed,
	)
	s.logger.Info("Status sync completed",
		zap.Int("examined", report.Examined),
		zap.Int("marked_paid", report.MarkedPaid),
		zap.Int("canceled", report.Canceled),
		zap.Int("fulfilled", report.Fulfilled),
		zap.Int("invoices_issued", report.InvoicesIssued),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed))

	return report, nil
}

// propagateOne applies the storefront action for one marketplace order
func (s *StatusSyncService) propagateOne(ctx context.Context, order *integration.SourceOrder, report *integration.StatusRunReport) {
	report.Examined++

	state := order.State()
	action := state.PropagationAction()
	log := s.logger.With(
		zap.String("order_id", order.OrderID),
		zap.String("state", state.String()),
		zap.String("action", string(action)))

	if action == integration.StatusActionNone {
		report.Skipped++
		return
	}

	status, err := s.storefront.GetOrderStatus(ctx, integration.ReferenceTag(order.OrderID))
	if err != nil {
		if errors.Is(err, integration.ErrOrderNotFound) {
			log.Warn("Order not found on storefront, skipping status update")
			report.Skipped++
			return
		}
		log.Error("Failed to look up storefront order", zap.Error(err))
		report.Failed++
		return
	}
	log = log.With(zap.String("storefront_order_id", status.OrderID))

	switch action {
	case integration.StatusActionMarkPaid:
		if status.IsPaid() {
			log.Debug("Order already paid on storefront")
			report.Skipped++
		} else if err := s.storefront.MarkOrderPaid(ctx, status.OrderID); err != nil {
			log.Error("Failed to mark order paid", zap.Error(err))
			report.Failed++
			return
		} else {
			report.MarkedPaid++
			log.Info("Order marked as paid")
		}
		// Approval is the invoicing trigger; waiting-approval orders are
		// paid on the storefront but not yet invoiced
		if state == integration.OrderStateApproved {
			s.ensureInvoice(ctx, order, log, report)
		}

	case integration.StatusActionCancel:
		if err := s.storefront.CancelOrder(ctx, status.OrderID); err != nil {
			log.Error("Failed to cancel order", zap.Error(err))
			report.Failed++
			return
		}
		report.Canceled++
		log.Info("Order canceled")

	case integration.StatusActionFulfill:
		if status.FulfillmentOrderID == "" {
			log.Warn("Order has no fulfillment order yet, skipping")
			report.Skipped++
			return
		}
		if err := s.storefront.MarkOrderFulfilled(ctx, status.FulfillmentOrderID); err != nil {
			log.Error("Failed to fulfill order", zap.Error(err))
			report.Failed++
			return
		}
		report.Fulfilled++
		log.Info("Order fulfilled")
	}
}

// ensureInvoice issues the invoice for an approved order exactly once.
// The guard is a lookup by order reference; the invoicing backend has no
// unique constraint of its own.
func (s *StatusSyncService) ensureInvoice(ctx context.Context, order *integration.SourceOrder, log *zap.Logger, report *integration.StatusRunReport) {
	existing, err := s.invoicer.FindInvoiceByOrderRef(ctx, order.OrderID)
	if err != nil {
		log.Error("Failed to check for existing invoice", zap.Error(err))
		report.Failed++
		return
	}
	if existing != nil {
		log.Debug("Invoice already issued",
			zap.Int64("document_id", existing.DocumentID))
		return
	}

	record, err := s.issueInvoice(ctx, order)
	if err != nil {
		log.Error("Failed to issue invoice", zap.Error(err))
		report.Failed++
		return
	}

	report.InvoicesIssued++
	log.Info("Invoice issued",
		zap.Int64("invoice_id", record.InvoiceID),
		zap.Int64("document_id", record.DocumentID))
}

// issueInvoice builds and submits the invoice draft for one order
func (s *StatusSyncService) issueInvoice(ctx context.Context, order *integration.SourceOrder) (*integration.InvoiceRecord, error) {
	customerID, err := s.invoicer.FindOrCreateCustomer(ctx, billingPartyFromOrder(order))
	if err != nil {
		return nil, fmt.Errorf("resolve billing customer: %w", err)
	}

	lines := make([]integration.InvoiceLine, 0, len(order.Products))
	for _, item := range order.Products {
		catalogItem, err := s.invoicer.FindItemBySKU(ctx, item.SellerProductID)
		if err != nil {
			return nil, fmt.Errorf("resolve catalog item %q: %w", item.SellerProductID, err)
		}
		if catalogItem == nil {
			return nil, fmt.Errorf("%w: %q", integration.ErrCatalogItemNotFound, item.SellerProductID)
		}
		lines = append(lines, integration.InvoiceLine{
			ItemID:   catalogItem.ItemID,
			Name:     catalogItem.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
			TaxID:    catalogItem.TaxID,
		})
	}

	now := time.Now()
	record, err := s.invoicer.IssueInvoice(ctx, integration.InvoiceDraft{
		CustomerID: customerID,
		OrderRef:   order.OrderID,
		Date:       now,
		DueDate:    now.AddDate(0, 0, invoiceDueDays),
		Lines:      lines,
	})
	if err != nil {
		return nil, err
	}
	if !record.IsIssued() {
		return nil, integration.ErrInvoiceNotCreated
	}
	return record, nil
}

// billingPartyFromOrder maps a marketplace billing address to an invoicing
// party, falling back to the final-consumer VAT number
func billingPartyFromOrder(order *integration.SourceOrder) integration.BillingParty {
	addr := order.BillingAddress
	vat := addr.VAT
	if vat == "" {
		vat = integration.DefaultVAT
	}
	return integration.BillingParty{
		Name:    addr.CustomerName,
		VAT:     vat,
		Address: addr.Address1,
		Zip:     addr.ZipCode,
		City:    addr.City,
		Country: addr.Country,
		Phone:   addr.Contact,
		Email:   order.CustomerEmail,
	}
}
