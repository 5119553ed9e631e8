package invoicing

// ---------------------------------------------------------------------------
// Wire Types
// ---------------------------------------------------------------------------

// moloniTokenResponse is the password grant response
type moloniTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// moloniCustomer is a customer record
type moloniCustomer struct {
	CustomerID int64  `json:"customer_id"`
	Name       string `json:"name"`
	VAT        string `json:"vat"`
}

// moloniProduct is a product record from the search endpoint
type moloniProduct struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Reference string  `json:"reference"`
	TaxID     int64   `json:"tax_id"`
	Price     float64 `json:"price"`
}

// moloniDocumentSet is a document numbering series
type moloniDocumentSet struct {
	DocumentSetID int64  `json:"document_set_id"`
	Name          string `json:"name"`
}

// moloniDocument is a generic document from the documents listing
type moloniDocument struct {
	DocumentID    int64  `json:"document_id"`
	YourReference string `json:"your_reference"`
}

// moloniInsertResponse is the response of customer and invoice inserts
type moloniInsertResponse struct {
	CustomerID int64 `json:"customer_id,omitempty"`
	InvoiceID  int64 `json:"invoice_id,omitempty"`
	DocumentID int64 `json:"document_id,omitempty"`
	Valid      int   `json:"valid,omitempty"`
}
