package invoicing

import "errors"

// MoloniConfig holds configuration for the Moloni invoicing API
type MoloniConfig struct {
	// APIBaseURL is the base URL of the Moloni API
	APIBaseURL string
	// DeveloperID is the OAuth client identifier
	DeveloperID string
	// ClientSecret is the OAuth client secret
	ClientSecret string
	// Username is the account username for the password grant
	Username string
	// Password is the account password for the password grant
	Password string
	// CompanyID is the company every document is issued under
	CompanyID int64
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

// MoloniProductionAPIURL is the production API endpoint
const MoloniProductionAPIURL = "https://api.moloni.pt/v1"

// Errors for Moloni configuration
var (
	ErrMoloniConfigMissingDeveloperID  = errors.New("moloni: developer ID is required")
	ErrMoloniConfigMissingClientSecret = errors.New("moloni: client secret is required")
	ErrMoloniConfigMissingUsername     = errors.New("moloni: username is required")
	ErrMoloniConfigMissingPassword     = errors.New("moloni: password is required")
	ErrMoloniConfigMissingCompanyID    = errors.New("moloni: company ID is required")
)

// NewMoloniConfig creates a new Moloni configuration with defaults
func NewMoloniConfig(developerID, clientSecret, username, password string, companyID int64) *MoloniConfig {
	return &MoloniConfig{
		APIBaseURL:     MoloniProductionAPIURL,
		DeveloperID:    developerID,
		ClientSecret:   clientSecret,
		Username:       username,
		Password:       password,
		CompanyID:      companyID,
		TimeoutSeconds: 30,
	}
}

// Validate validates the Moloni configuration
func (c *MoloniConfig) Validate() error {
	if c.DeveloperID == "" {
		return ErrMoloniConfigMissingDeveloperID
	}
	if c.ClientSecret == "" {
		return ErrMoloniConfigMissingClientSecret
	}
	if c.Username == "" {
		return ErrMoloniConfigMissingUsername
	}
	if c.Password == "" {
		return ErrMoloniConfigMissingPassword
	}
	if c.CompanyID == 0 {
		return ErrMoloniConfigMissingCompanyID
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = MoloniProductionAPIURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}
