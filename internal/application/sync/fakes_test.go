package sync

import (
	"context"
	"time"

	"github.com/kkbridge/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Port fakes
// ---------------------------------------------------------------------------

type fakeMarketplace struct {
	orders     []integration.SourceOrder
	fetchErr   error
	fetchGate  chan struct{} // when set, FetchOrders blocks until closed
	getOrder   *integration.SourceOrder
	getErr     error
	confirmErr error
	confirmed  map[string]integration.ShipmentNotice
}

func (f *fakeMarketplace) FetchOrders(_ context.Context, _, _ time.Time, _ string) ([]integration.SourceOrder, error) {
	if f.fetchGate != nil {
		<-f.fetchGate
	}
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.orders, nil
}

func (f *fakeMarketplace) GetOrder(_ context.Context, orderID string) (*integration.SourceOrder, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.getOrder == nil || f.getOrder.OrderID != orderID {
		return nil, integration.ErrOrderNotFound
	}
	return f.getOrder, nil
}

func (f *fakeMarketplace) ConfirmShipment(_ context.Context, orderID string, notice integration.ShipmentNotice) error {
	if f.confirmErr != nil {
		return f.confirmErr
	}
	if f.confirmed == nil {
		f.confirmed = make(map[string]integration.ShipmentNotice)
	}
	f.confirmed[orderID] = notice
	return nil
}

type fakeStorefront struct {
	existingTags map[string]bool
	existsErr    error
	variants     map[string]*integration.VariantRef
	variantErrs  map[string]error
	created      []*integration.StorefrontOrder
	createErr    error
	statuses     map[string]*integration.StorefrontOrderStatus
	statusErr    error
	markedPaid   []string
	markPaidErr  error
	canceled     []string
	cancelErr    error
	fulfilled    []string
	fulfillErr   error
}

func (f *fakeStorefront) OrderExistsByTag(_ context.Context, tag string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	return f.existingTags[tag], nil
}

func (f *fakeStorefront) CreateOrder(_ context.Context, order *integration.StorefrontOrder) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, order)
	return "gid://shopify/Order/1001", nil
}

func (f *fakeStorefront) FindVariantBySKU(_ context.Context, sku string) (*integration.VariantRef, error) {
	if err, ok := f.variantErrs[sku]; ok {
		return nil, err
	}
	return f.variants[sku], nil
}

func (f *fakeStorefront) GetOrderStatus(_ context.Context, tag string) (*integration.StorefrontOrderStatus, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	status, ok := f.statuses[tag]
	if !ok {
		return nil, integration.ErrOrderNotFound
	}
	return status, nil
}

func (f *fakeStorefront) MarkOrderPaid(_ context.Context, orderID string) error {
	if f.markPaidErr != nil {
		return f.markPaidErr
	}
	f.markedPaid = append(f.markedPaid, orderID)
	return nil
}

func (f *fakeStorefront) CancelOrder(_ context.Context, orderID string) error {
	if f.cancelErr != nil {
		return f.cancelErr
	}
	f.canceled = append(f.canceled, orderID)
	return nil
}

func (f *fakeStorefront) MarkOrderFulfilled(_ context.Context, fulfillmentOrderID string) error {
	if f.fulfillErr != nil {
		return f.fulfillErr
	}
	f.fulfilled = append(f.fulfilled, fulfillmentOrderID)
	return nil
}

type fakeInvoicer struct {
	customerID   int64
	customerErr  error
	parties      []integration.BillingParty
	items        map[string]*integration.CatalogItem
	itemErr      error
	invoices     map[string]*integration.InvoiceRecord
	findErr      error
	issued       []integration.InvoiceDraft
	issueErr     error
	issuedRecord *integration.InvoiceRecord
}

func (f *fakeInvoicer) FindOrCreateCustomer(_ context.Context, party integration.BillingParty) (int64, error) {
	if f.customerErr != nil {
		return 0, f.customerErr
	}
	f.parties = append(f.parties, party)
	return f.customerID, nil
}

func (f *fakeInvoicer) FindItemBySKU(_ context.Context, sku string) (*integration.CatalogItem, error) {
	if f.itemErr != nil {
		return nil, f.itemErr
	}
	return f.items[sku], nil
}

func (f *fakeInvoicer) FindInvoiceByOrderRef(_ context.Context, ref string) (*integration.InvoiceRecord, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.invoices[ref], nil
}

func (f *fakeInvoicer) IssueInvoice(_ context.Context, draft integration.InvoiceDraft) (*integration.InvoiceRecord, error) {
	if f.issueErr != nil {
		return nil, f.issueErr
	}
	f.issued = append(f.issued, draft)
	if f.issuedRecord != nil {
		return f.issuedRecord, nil
	}
	return &integration.InvoiceRecord{InvoiceID: 7001, DocumentID: 8001, OrderRef: draft.OrderRef}, nil
}
