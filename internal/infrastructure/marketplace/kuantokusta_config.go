package marketplace

import "errors"

// KuantoKustaConfig holds configuration for the KuantoKusta marketplace API
type KuantoKustaConfig struct {
	// APIBaseURL is the base URL of the marketplace API
	APIBaseURL string
	// APIKey is the seller API key sent on every request
	APIKey string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

// KuantoKustaProductionAPIURL is the production API endpoint
const KuantoKustaProductionAPIURL = "https://api-marketplace.kuantokusta.pt/v1"

// Errors for KuantoKusta configuration
var (
	ErrKuantoKustaConfigMissingAPIKey = errors.New("kuantokusta: API key is required")
)

// NewKuantoKustaConfig creates a new KuantoKusta configuration with defaults
func NewKuantoKustaConfig(apiKey string) *KuantoKustaConfig {
	return &KuantoKustaConfig{
		APIBaseURL:     KuantoKustaProductionAPIURL,
		APIKey:         apiKey,
		TimeoutSeconds: 30,
	}
}

// Validate validates the KuantoKusta configuration
func (c *KuantoKustaConfig) Validate() error {
	if c.APIKey == "" {
		return ErrKuantoKustaConfigMissingAPIKey
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = KuantoKustaProductionAPIURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}
