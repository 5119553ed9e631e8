package storefront

import (
	"errors"
	"fmt"
	"strings"
)

// ShopifyConfig holds configuration for the Shopify Admin API
type ShopifyConfig struct {
	// ShopDomain is the myshopify.com domain of the store
	ShopDomain string
	// AccessToken is the Admin API access token
	AccessToken string
	// APIVersion is the Admin API version
	APIVersion string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int

	// apiBaseURL overrides the computed base URL, used by tests
	apiBaseURL string
}

// DefaultShopifyAPIVersion is the Admin API version used when none is set
const DefaultShopifyAPIVersion = "2024-10"

// Errors for Shopify configuration
var (
	ErrShopifyConfigMissingShopDomain  = errors.New("shopify: shop domain is required")
	ErrShopifyConfigMissingAccessToken = errors.New("shopify: access token is required")
)

// NewShopifyConfig creates a new Shopify configuration with defaults
func NewShopifyConfig(shopDomain, accessToken string) *ShopifyConfig {
	return &ShopifyConfig{
		ShopDomain:     shopDomain,
		AccessToken:    accessToken,
		APIVersion:     DefaultShopifyAPIVersion,
		TimeoutSeconds: 30,
	}
}

// Validate validates the Shopify configuration
func (c *ShopifyConfig) Validate() error {
	if c.ShopDomain == "" && c.apiBaseURL == "" {
		return ErrShopifyConfigMissingShopDomain
	}
	if c.AccessToken == "" {
		return ErrShopifyConfigMissingAccessToken
	}
	if c.APIVersion == "" {
		c.APIVersion = DefaultShopifyAPIVersion
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}

// BaseURL returns the Admin API base URL for this shop
func (c *ShopifyConfig) BaseURL() string {
	if c.apiBaseURL != "" {
		return c.apiBaseURL
	}
	domain := strings.TrimSuffix(c.ShopDomain, "/")
	return fmt.Sprintf("https://%s/admin/api/%s", domain, c.APIVersion)
}
