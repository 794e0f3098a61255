package payment

import (
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v81"
)

// StripeConfig holds configuration for the Stripe payment integration
type StripeConfig struct {
	// SecretKey is the Stripe secret API key (sk_test_xxx or sk_live_xxx)
	SecretKey string `mapstructure:"secret_key"`

	// IsTestMode indicates if using Stripe test mode
	IsTestMode bool `mapstructure:"is_test_mode"`

	// AllowedCurrencies is the lowercase ISO currency allow-list.
	// Authorizations in any other currency are rejected before reaching
	// the provider.
	AllowedCurrencies []string `mapstructure:"allowed_currencies"`

	// MaxNetworkRetries is the automatic retry budget for transient
	// network failures. Payment calls retry; ledger calls deliberately
	// do not.
	MaxNetworkRetries int64 `mapstructure:"max_network_retries"`
}

// DefaultStripeConfig returns a default configuration for development
func DefaultStripeConfig() *StripeConfig {
	return &StripeConfig{
		IsTestMode:        true,
		AllowedCurrencies: []string{"usd"},
		MaxNetworkRetries: 2,
	}
}

// Validate validates the Stripe configuration
func (c *StripeConfig) Validate() error {
	if c.SecretKey == "" {
		return fmt.Errorf("stripe: secret key is required")
	}
	if c.IsTestMode {
		if len(c.SecretKey) > 7 && c.SecretKey[:7] != "sk_test" {
			return fmt.Errorf("stripe: test mode enabled but secret key is not a test key")
		}
	} else {
		if len(c.SecretKey) > 7 && c.SecretKey[:7] != "sk_live" {
			return fmt.Errorf("stripe: live mode enabled but secret key is not a live key")
		}
	}
	if len(c.AllowedCurrencies) == 0 {
		return fmt.Errorf("stripe: at least one allowed currency is required")
	}
	if c.MaxNetworkRetries < 0 {
		c.MaxNetworkRetries = 0
	}
	return nil
}

// CurrencyAllowed reports whether the given ISO code is on the allow-list
func (c *StripeConfig) CurrencyAllowed(currency string) bool {
	currency = strings.ToLower(strings.TrimSpace(currency))
	for _, allowed := range c.AllowedCurrencies {
		if strings.ToLower(allowed) == currency {
			return true
		}
	}
	return false
}

// InitStripeClient initializes the Stripe client with the configured API
// key and retry budget
func (c *StripeConfig) InitStripeClient() {
	stripe.Key = c.SecretKey
	stripe.SetBackend(stripe.APIBackend, stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		MaxNetworkRetries: stripe.Int64(c.MaxNetworkRetries),
	}))
}
