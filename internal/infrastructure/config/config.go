package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Log        LogConfig
	HTTP       HTTPConfig
	Shipping   ShippingConfig
	Stripe     StripeConfig
	CRM        CRMConfig
	Accounting AccountingConfig
	Email      EmailConfig
	Checkout   CheckoutConfig
	Dispatcher DispatcherConfig
	Catalog    CatalogConfig
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

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds JWT settings
type JWTConfig struct {
	Secret          string
	TokenExpiration time.Duration
	Issuer          string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
	CORSAllowOrigins  []string
	CORSAllowMethods  []string
	CORSAllowHeaders  []string
	TrustedProxies    []string
}

// ShippingConfig holds carrier rate API settings
type ShippingConfig struct {
	APIToken        string
	BaseURL         string
	TimeoutSeconds  int
	DefaultWeightOz string
	OriginName      string
	OriginStreet    string
	OriginCity      string
	OriginState     string
	OriginZip       string
	OriginCountry   string
}

// StripeConfig holds payment processor settings
type StripeConfig struct {
	SecretKey         string
	IsTestMode        bool
	AllowedCurrencies []string
	MaxNetworkRetries int
}

// CRMConfig holds CRM ledger settings
type CRMConfig struct {
	Enabled          bool
	AccessToken      string
	APIBaseURL       string
	SalesOrderModule string
	LeadModule       string
	TimeoutSeconds   int
}

// AccountingConfig holds accounting ledger settings
type AccountingConfig struct {
	Enabled        bool
	ClientID       string
	ClientSecret   string
	RefreshToken   string
	RealmID        string
	APIBaseURL     string
	TokenURL       string
	IsSandbox      bool
	TimeoutSeconds int
}

// EmailConfig holds SMTP settings
type EmailConfig struct {
	Enabled    bool
	Host       string
	Port       int
	Username   string
	Password   string
	From       string
	OpsMailbox string
}

// CheckoutConfig holds pricing guardrails
type CheckoutConfig struct {
	// MaxManualChargeCents caps direct amount authorizations that carry no cart
	MaxManualChargeCents int64
}

// DispatcherConfig holds background task queue settings
type DispatcherConfig struct {
	Workers     int
	QueueSize   int
	TaskTimeout time.Duration
}

// CatalogProduct is one priced catalog entry for the static lookup
type CatalogProduct struct {
	SKU        string `mapstructure:"sku"`
	Name       string `mapstructure:"name"`
	UnitPrice  string `mapstructure:"unit_price"`
	Weight     string `mapstructure:"weight"`
	WeightUnit string `mapstructure:"weight_unit"`
}

// CatalogConfig holds the static price catalog
type CatalogConfig struct {
	Products []CatalogProduct
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with PARTSDESK_ prefix (e.g., PARTSDESK_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// missing config file is fine, defaults and env vars cover it
	}

	v.SetEnvPrefix("PARTSDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:          v.GetString("jwt.secret"),
			TokenExpiration: v.GetDuration("jwt.token_expiration"),
			Issuer:          v.GetString("jwt.issuer"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:    v.GetInt("http.max_header_bytes"),
			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:   v.GetDuration("http.rate_limit_window"),
			CORSAllowOrigins:  v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods:  v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders:  v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:    v.GetStringSlice("http.trusted_proxies"),
		},
		Shipping: ShippingConfig{
			APIToken:        v.GetString("shipping.api_token"),
			BaseURL:         v.GetString("shipping.base_url"),
			TimeoutSeconds:  v.GetInt("shipping.timeout_seconds"),
			DefaultWeightOz: v.GetString("shipping.default_weight_oz"),
			OriginName:      v.GetString("shipping.origin_name"),
			OriginStreet:    v.GetString("shipping.origin_street"),
			OriginCity:      v.GetString("shipping.origin_city"),
			OriginState:     v.GetString("shipping.origin_state"),
			OriginZip:       v.GetString("shipping.origin_zip"),
			OriginCountry:   v.GetString("shipping.origin_country"),
		},
		Stripe: StripeConfig{
			SecretKey:         v.GetString("stripe.secret_key"),
			IsTestMode:        v.GetBool("stripe.is_test_mode"),
			AllowedCurrencies: v.GetStringSlice("stripe.allowed_currencies"),
			MaxNetworkRetries: v.GetInt("stripe.max_network_retries"),
		},
		CRM: CRMConfig{
			Enabled:          v.GetBool("crm.enabled"),
			AccessToken:      v.GetString("crm.access_token"),
			APIBaseURL:       v.GetString("crm.api_base_url"),
			SalesOrderModule: v.GetString("crm.sales_order_module"),
			LeadModule:       v.GetString("crm.lead_module"),
			TimeoutSeconds:   v.GetInt("crm.timeout_seconds"),
		},
		Accounting: AccountingConfig{
			Enabled:        v.GetBool("accounting.enabled"),
			ClientID:       v.GetString("accounting.client_id"),
			ClientSecret:   v.GetString("accounting.client_secret"),
			RefreshToken:   v.GetString("accounting.refresh_token"),
			RealmID:        v.GetString("accounting.realm_id"),
			APIBaseURL:     v.GetString("accounting.api_base_url"),
			TokenURL:       v.GetString("accounting.token_url"),
			IsSandbox:      v.GetBool("accounting.is_sandbox"),
			TimeoutSeconds: v.GetInt("accounting.timeout_seconds"),
		},
		Email: EmailConfig{
			Enabled:    v.GetBool("email.enabled"),
			Host:       v.GetString("email.host"),
			Port:       v.GetInt("email.port"),
			Username:   v.GetString("email.username"),
			Password:   v.GetString("email.password"),
			From:       v.GetString("email.from"),
			OpsMailbox: v.GetString("email.ops_mailbox"),
		},
		Checkout: CheckoutConfig{
			MaxManualChargeCents: v.GetInt64("checkout.max_manual_charge_cents"),
		},
		Dispatcher: DispatcherConfig{
			Workers:     v.GetInt("dispatcher.workers"),
			QueueSize:   v.GetInt("dispatcher.queue_size"),
			TaskTimeout: v.GetDuration("dispatcher.task_timeout"),
		},
	}

	if err := v.UnmarshalKey("catalog.products", &cfg.Catalog.Products); err != nil {
		return nil, fmt.Errorf("error parsing catalog products: %w", err)
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "partsdesk-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "partsdesk"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.JWT.TokenExpiration == 0 {
		cfg.JWT.TokenExpiration = 24 * time.Hour
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "partsdesk-backend"
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
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 100
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if cfg.Shipping.TimeoutSeconds == 0 {
		cfg.Shipping.TimeoutSeconds = 10
	}
	if cfg.Shipping.DefaultWeightOz == "" {
		cfg.Shipping.DefaultWeightOz = "16"
	}
	if len(cfg.Stripe.AllowedCurrencies) == 0 {
		cfg.Stripe.AllowedCurrencies = []string{"usd"}
	}
	if cfg.Stripe.MaxNetworkRetries == 0 {
		cfg.Stripe.MaxNetworkRetries = 2
	}
	if cfg.CRM.TimeoutSeconds == 0 {
		cfg.CRM.TimeoutSeconds = 15
	}
	if cfg.Accounting.TimeoutSeconds == 0 {
		cfg.Accounting.TimeoutSeconds = 15
	}
	if cfg.Email.Port == 0 {
		cfg.Email.Port = 587
	}
	if cfg.Checkout.MaxManualChargeCents == 0 {
		cfg.Checkout.MaxManualChargeCents = 5_000_000 // $50,000
	}
	if cfg.Dispatcher.Workers == 0 {
		cfg.Dispatcher.Workers = 4
	}
	if cfg.Dispatcher.QueueSize == 0 {
		cfg.Dispatcher.QueueSize = 64
	}
	if cfg.Dispatcher.TaskTimeout == 0 {
		cfg.Dispatcher.TaskTimeout = 30 * time.Second
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Checkout.MaxManualChargeCents < 0 {
		return fmt.Errorf("checkout.max_manual_charge_cents cannot be negative")
	}

	if c.App.Env == "production" {
		if c.JWT.Secret == "" {
			return fmt.Errorf("jwt.secret is required in production")
		}
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Stripe.SecretKey != "" && c.Stripe.IsTestMode {
			return fmt.Errorf("stripe.is_test_mode must be false in production")
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the Redis host:port address
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
