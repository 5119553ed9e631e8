package invoicing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kkbridge/backend/internal/domain/integration"
)

const (
	// platformName identifies this adapter in errors and logs
	platformName = "moloni"
	// maxResponseSize limits the response body size to prevent memory exhaustion
	maxResponseSize = 10 * 1024 * 1024 // 10MB max response
	// defaultTaxID is the tax regime applied when a product carries none
	defaultTaxID = 2657253
	// vatExemptionReason is the Portuguese exemption code sent on every line
	vatExemptionReason = "M01"
	// tokenExpiryMargin refreshes the token slightly before it expires
	tokenExpiryMargin = 60 * time.Second
	// documentDateLayout is the date format the API expects
	documentDateLayout = "2006-01-02"
	// documentStatusFinal marks documents as closed, not draft
	documentStatusFinal = "1"
)

// MoloniAdapter implements the Invoicer port against the Moloni API.
// Authentication uses the OAuth password grant; the token is cached and
// refreshed before expiry. Every business call is a form-encoded POST.
type MoloniAdapter struct {
	config     *MoloniConfig
	httpClient *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewMoloniAdapter creates a new Moloni adapter with the given configuration
func NewMoloniAdapter(config *MoloniConfig) (*MoloniAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &MoloniAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// ---------------------------------------------------------------------------
// Customer Operations
// ---------------------------------------------------------------------------

// FindOrCreateCustomer resolves the billing party, searching by name first
// and creating the customer only on an empty search result
func (a *MoloniAdapter) FindOrCreateCustomer(ctx context.Context, party integration.BillingParty) (int64, error) {
	name := party.Name
	if name == "" {
		name = "Cliente KuantoKusta"
	}

	filters, err := json.Marshal(map[string]string{"name": name})
	if err != nil {
		return 0, fmt.Errorf("moloni: failed to marshal filters: %w", err)
	}

	form := url.Values{}
	form.Set("company_id", strconv.FormatInt(a.config.CompanyID, 10))
	form.Set("filters", string(filters))

	body, err := a.doForm(ctx, "/customers/getAll/", form)
	if err != nil {
		return 0, err
	}

	var customers []moloniCustomer
	if err := json.Unmarshal(body, &customers); err == nil && len(customers) > 0 {
		return customers[0].CustomerID, nil
	}

	return a.createCustomer(ctx, name, party)
}

// createCustomer inserts a new customer record
func (a *MoloniAdapter) createCustomer(ctx context.Context, name string, party integration.BillingParty) (int64, error) {
	vat := party.VAT
	if vat == "" {
		vat = integration.DefaultVAT
	}
	country := party.Country
	if country == "" {
		country = "PT"
	}

	form := url.Values{}
	form.Set("company_id", strconv.FormatInt(a.config.CompanyID, 10))
	form.Set("name", name)
	form.Set("vat", vat)
	form.Set("address", party.Address)
	form.Set("zip_code", party.Zip)
	form.Set("city", party.City)
	form.Set("country", country)
	form.Set("phone", party.Phone)
	if party.Email != "" {
		form.Set("email", party.Email)
	}

	body, err := a.doForm(ctx, "/customers/insert/", form)
	if err != nil {
		return 0, err
	}

	var resp moloniInsertResponse
	if err := json.Unmarshal(body, &resp); err != nil || resp.CustomerID == 0 {
		return 0, fmt.Errorf("%w: customer insert returned no identifier", integration.ErrPlatformInvalidResponse)
	}
	return resp.CustomerID, nil
}

// ---------------------------------------------------------------------------
// Catalog Operations
// ---------------------------------------------------------------------------

// FindItemBySKU resolves a catalog item by SKU.
// Returns (nil, nil) when the catalog has no such item.
func (a *MoloniAdapter) FindItemBySKU(ctx context.Context, sku string) (*integration.CatalogItem, error) {
	form := url.Values{}
	form.Set("company_id", strconv.FormatInt(a.config.CompanyID, 10))
	form.Set("search", sku)

	body, err := a.doForm(ctx, "/products/getBySearch/", form)
	if err != nil {
		return nil, err
	}

	var products []moloniProduct
	if err := json.Unmarshal(body, &products); err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
	}
	if len(products) == 0 {
		return nil, nil
	}

	product := products[0]
	taxID := product.TaxID
	if taxID == 0 {
		taxID = defaultTaxID
	}
	return &integration.CatalogItem{
		ItemID: product.ProductID,
		Name:   product.Name,
		TaxID:  taxID,
	}, nil
}

// ---------------------------------------------------------------------------
// Invoice Operations
// ---------------------------------------------------------------------------

// FindInvoiceByOrderRef returns the document carrying the order reference,
// or (nil, nil) when none exists
func (a *MoloniAdapter) FindInvoiceByOrderRef(ctx context.Context, ref string) (*integration.InvoiceRecord, error) {
	form := url.Values{}
	form.Set("company_id", strconv.FormatInt(a.config.CompanyID, 10))
	form.Set("your_reference", ref)
	form.Set("status", documentStatusFinal)

	body, err := a.doForm(ctx, "/documents/getAll/", form)
	if err != nil {
		return nil, err
	}

	var documents []moloniDocument
	if err := json.Unmarshal(body, &documents); err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
	}
	if len(documents) == 0 {
		return nil, nil
	}
	return &integration.InvoiceRecord{
		DocumentID: documents[0].DocumentID,
		OrderRef:   documents[0].YourReference,
	}, nil
}

// IssueInvoice submits the draft and returns the created record
func (a *MoloniAdapter) IssueInvoice(ctx context.Context, draft integration.InvoiceDraft) (*integration.InvoiceRecord, error) {
	documentSetID, err := a.resolveDocumentSet(ctx)
	if err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("company_id", strconv.FormatInt(a.config.CompanyID, 10))
	form.Set("customer_id", strconv.FormatInt(draft.CustomerID, 10))
	form.Set("document_set_id", strconv.FormatInt(documentSetID, 10))
	form.Set("date", draft.Date.Format(documentDateLayout))
	form.Set("expiration_date", draft.DueDate.Format(documentDateLayout))
	form.Set("status", documentStatusFinal)
	form.Set("your_reference", draft.OrderRef)

	for i, line := range draft.Lines {
		prefix := fmt.Sprintf("products[%d]", i)
		form.Set(prefix+"[product_id]", strconv.FormatInt(line.ItemID, 10))
		form.Set(prefix+"[name]", line.Name)
		form.Set(prefix+"[qty]", strconv.Itoa(line.Quantity))
		form.Set(prefix+"[price]", line.Price.StringFixed(2))
		form.Set(prefix+"[tax_id]", strconv.FormatInt(line.TaxID, 10))
		form.Set(prefix+"[exemption_reason]", vatExemptionReason)
	}

	body, err := a.doForm(ctx, "/invoices/insert/", form)
	if err != nil {
		return nil, err
	}

	var resp moloniInsertResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
	}
	if resp.InvoiceID == 0 && resp.DocumentID == 0 {
		return nil, integration.ErrInvoiceNotCreated
	}
	return &integration.InvoiceRecord{
		InvoiceID:  resp.InvoiceID,
		DocumentID: resp.DocumentID,
		OrderRef:   draft.OrderRef,
	}, nil
}

// resolveDocumentSet returns the first configured document numbering series
func (a *MoloniAdapter) resolveDocumentSet(ctx context.Context) (int64, error) {
	form := url.Values{}
	form.Set("company_id", strconv.FormatInt(a.config.CompanyID, 10))

	body, err := a.doForm(ctx, "/documentSets/getAll/", form)
	if err != nil {
		return 0, err
	}

	var sets []moloniDocumentSet
	if err := json.Unmarshal(body, &sets); err != nil {
		return 0, fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
	}
	if len(sets) == 0 {
		return 0, fmt.Errorf("%w: no document set configured", integration.ErrPlatformInvalidResponse)
	}
	return sets[0].DocumentSetID, nil
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

// token returns a valid access token, refreshing through the password
// grant when the cached one is missing or about to expire
func (a *MoloniAdapter) token(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.accessToken != "" && time.Now().Before(a.tokenExpiry) {
		return a.accessToken, nil
	}

	query := url.Values{}
	query.Set("grant_type", "password")
	query.Set("client_id", a.config.DeveloperID)
	query.Set("client_secret", a.config.ClientSecret)
	query.Set("username", a.config.Username)
	query.Set("password", a.config.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.config.APIBaseURL+"/grant/?"+query.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("moloni: failed to create request: %w", err)
	}

	body, err := a.send(req)
	if err != nil {
		return "", err
	}

	var resp moloniTokenResponse
	if err := json.Unmarshal(body, &resp); err != nil || resp.AccessToken == "" {
		return "", integration.NewPlatformError(platformName, 0, string(body), integration.ErrPlatformAuthFailed)
	}

	a.accessToken = resp.AccessToken
	a.tokenExpiry = time.Now().Add(time.Duration(resp.ExpiresIn)*time.Second - tokenExpiryMargin)
	return a.accessToken, nil
}

// doForm performs a form-encoded POST against a business endpoint
func (a *MoloniAdapter) doForm(ctx context.Context, path string, form url.Values) ([]byte, error) {
	token, err := a.token(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := a.config.APIBaseURL + path + "?access_token=" + url.QueryEscape(token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("moloni: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return a.send(req)
}

// send executes the request and classifies HTTP-level failures
func (a *MoloniAdapter) send(req *http.Request) ([]byte, error) {
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, integration.NewPlatformError(platformName, 0, "", integration.ErrPlatformUnavailable)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("moloni: failed to read response: %w", err)
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

// Ensure MoloniAdapter implements the Invoicer port
var _ integration.Invoicer = (*MoloniAdapter)(nil)
