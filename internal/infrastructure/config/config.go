package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App         AppConfig
	Log         LogConfig
	HTTP        HTTPConfig
	Scheduler   SchedulerConfig
	Marketplace MarketplaceConfig
	Storefront  StorefrontConfig
	Invoicing   InvoicingConfig
	Telemetry   TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
}

// SchedulerConfig holds the periodic sync trigger configuration
type SchedulerConfig struct {
	Enabled            bool
	OrderSyncInterval  time.Duration
	StatusSyncInterval time.Duration
	Window             string // today, week, month
}

// MarketplaceConfig holds KuantoKusta API settings
type MarketplaceConfig struct {
	APIBaseURL     string
	APIKey         string
	TimeoutSeconds int
}

// StorefrontConfig holds Shopify Admin API settings
type StorefrontConfig struct {
	ShopDomain     string
	AccessToken    string
	APIVersion     string
	TimeoutSeconds int
}

// InvoicingConfig holds Moloni API credentials
type InvoicingConfig struct {
	APIBaseURL     string
	DeveloperID    string
	ClientSecret   string
	Username       string
	Password       string
	CompanyID      int64
	TimeoutSeconds int
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with KKB_ prefix (e.g., KKB_MARKETPLACE_API_KEY)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	// Set config file settings
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	// Enable environment variable override
	v.SetEnvPrefix("KKB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Build config struct
	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		Scheduler: SchedulerConfig{
			Enabled:            v.GetBool("scheduler.enabled"),
			OrderSyncInterval:  v.GetDuration("scheduler.order_sync_interval"),
			StatusSyncInterval: v.GetDuration("scheduler.status_sync_interval"),
			Window:             v.GetString("scheduler.window"),
		},
		Marketplace: MarketplaceConfig{
			APIBaseURL:     v.GetString("marketplace.api_base_url"),
			APIKey:         v.GetString("marketplace.api_key"),
			TimeoutSeconds: v.GetInt("marketplace.timeout_seconds"),
		},
		Storefront: StorefrontConfig{
			ShopDomain:     v.GetString("storefront.shop_domain"),
			AccessToken:    v.GetString("storefront.access_token"),
			APIVersion:     v.GetString("storefront.api_version"),
			TimeoutSeconds: v.GetInt("storefront.timeout_seconds"),
		},
		Invoicing: InvoicingConfig{
			APIBaseURL:     v.GetString("invoicing.api_base_url"),
			DeveloperID:    v.GetString("invoicing.developer_id"),
			ClientSecret:   v.GetString("invoicing.client_secret"),
			Username:       v.GetString("invoicing.username"),
			Password:       v.GetString("invoicing.password"),
			CompanyID:      v.GetInt64("invoicing.company_id"),
			TimeoutSeconds: v.GetInt("invoicing.timeout_seconds"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
		},
	}

	// Apply defaults for empty values
	applyDefaults(cfg)

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "kkbridge-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	// NOTE: CORS origins are intentionally not given a default fallback to "*".
	// An empty list means no cross-origin requests are allowed until explicitly configured.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if cfg.Scheduler.OrderSyncInterval == 0 {
		cfg.Scheduler.OrderSyncInterval = 5 * time.Minute
	}
	if cfg.Scheduler.StatusSyncInterval == 0 {
		cfg.Scheduler.StatusSyncInterval = 15 * time.Minute
	}
	if cfg.Scheduler.Window == "" {
		cfg.Scheduler.Window = "today"
	}
	if cfg.Marketplace.TimeoutSeconds == 0 {
		cfg.Marketplace.TimeoutSeconds = 30
	}
	if cfg.Storefront.APIVersion == "" {
		cfg.Storefront.APIVersion = "2024-10"
	}
	if cfg.Storefront.TimeoutSeconds == 0 {
		cfg.Storefront.TimeoutSeconds = 30
	}
	if cfg.Invoicing.TimeoutSeconds == 0 {
		cfg.Invoicing.TimeoutSeconds = 30
	}
	// Telemetry defaults
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317" // Default gRPC endpoint
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0 // 100% in development
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "kkbridge-backend"
	}
	// Note: Insecure defaults to false for safety (TLS enabled by default)
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	switch c.Scheduler.Window {
	case "today", "week", "month":
	default:
		return fmt.Errorf("scheduler.window must be one of today, week, month; got %q", c.Scheduler.Window)
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if c.Marketplace.APIKey == "" {
			return fmt.Errorf("marketplace.api_key is required in production")
		}
		if c.Storefront.ShopDomain == "" {
			return fmt.Errorf("storefront.shop_domain is required in production")
		}
		if c.Storefront.AccessToken == "" {
			return fmt.Errorf("storefront.access_token is required in production")
		}
		if c.Invoicing.DeveloperID == "" || c.Invoicing.ClientSecret == "" {
			return fmt.Errorf("invoicing.developer_id and invoicing.client_secret are required in production")
		}
		if c.Invoicing.Username == "" || c.Invoicing.Password == "" {
			return fmt.Errorf("invoicing.username and invoicing.password are required in production")
		}
		if c.Invoicing.CompanyID == 0 {
			return fmt.Errorf("invoicing.company_id is required in production")
		}
		// CORS must not use wildcard with credentials
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	// Validate telemetry configuration (all environments)
	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}
