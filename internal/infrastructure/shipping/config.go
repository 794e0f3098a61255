package shipping

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// FallbackPolicy holds the synthetic-rate constants used when the live rate
// provider is unavailable. These are commercial policy, configurable per
// deployment, but the two-tier shape (ground/2-day/overnight domestic,
// economy/priority international) is fixed.
type FallbackPolicy struct {
	Domestic2DayBase       decimal.Decimal `mapstructure:"domestic_2day_base"`
	Domestic2DayPerLb      decimal.Decimal `mapstructure:"domestic_2day_per_lb"`
	DomesticOvernightBase  decimal.Decimal `mapstructure:"domestic_overnight_base"`
	DomesticOvernightPerLb decimal.Decimal `mapstructure:"domestic_overnight_per_lb"`
	IntlEconomyBase        decimal.Decimal `mapstructure:"intl_economy_base"`
	IntlEconomyPerLb       decimal.Decimal `mapstructure:"intl_economy_per_lb"`
	IntlPriorityBase       decimal.Decimal `mapstructure:"intl_priority_base"`
	IntlPriorityPerLb      decimal.Decimal `mapstructure:"intl_priority_per_lb"`
}

// DefaultFallbackPolicy returns the stock rate card
func DefaultFallbackPolicy() FallbackPolicy {
	return FallbackPolicy{
		Domestic2DayBase:       decimal.NewFromInt(25),
		Domestic2DayPerLb:      decimal.NewFromFloat(1.50),
		DomesticOvernightBase:  decimal.NewFromInt(45),
		DomesticOvernightPerLb: decimal.NewFromFloat(2.50),
		IntlEconomyBase:        decimal.NewFromInt(65),
		IntlEconomyPerLb:       decimal.NewFromFloat(6.50),
		IntlPriorityBase:       decimal.NewFromInt(120),
		IntlPriorityPerLb:      decimal.NewFromInt(12),
	}
}

// OriginAddress is the warehouse the rate provider quotes from
type OriginAddress struct {
	Name    string `mapstructure:"name"`
	Street1 string `mapstructure:"street1"`
	City    string `mapstructure:"city"`
	State   string `mapstructure:"state"`
	Zip     string `mapstructure:"zip"`
	Country string `mapstructure:"country"`
	Phone   string `mapstructure:"phone"`
	Email   string `mapstructure:"email"`
}

// ParcelSize is the fixed default parcel dimensions sent with every quote
type ParcelSize struct {
	Length       string `mapstructure:"length"`
	Width        string `mapstructure:"width"`
	Height       string `mapstructure:"height"`
	DistanceUnit string `mapstructure:"distance_unit"`
}

// Config holds configuration for the Shippo rates integration
type Config struct {
	// APIToken is the Shippo API token (shippo_test_xxx or shippo_live_xxx)
	APIToken string `mapstructure:"api_token"`

	// BaseURL is the API base, overridable for tests
	BaseURL string `mapstructure:"base_url"`

	TimeoutSeconds int `mapstructure:"timeout_seconds"`

	// DefaultWeightOz substitutes for carts whose total weight is zero or
	// unparseable
	DefaultWeightOz decimal.Decimal `mapstructure:"default_weight_oz"`

	Origin   OriginAddress  `mapstructure:"origin"`
	Parcel   ParcelSize     `mapstructure:"parcel"`
	Fallback FallbackPolicy `mapstructure:"fallback"`
}

// DefaultConfig returns a config with the stock parcel and rate card
func DefaultConfig() *Config {
	return &Config{
		BaseURL:         "https://api.goshippo.com",
		TimeoutSeconds:  10,
		DefaultWeightOz: decimal.NewFromInt(16),
		Parcel: ParcelSize{
			Length:       "12",
			Width:        "12",
			Height:       "8",
			DistanceUnit: "in",
		},
		Fallback: DefaultFallbackPolicy(),
	}
}

// Validate validates the shipping configuration
func (c *Config) Validate() error {
	if c.APIToken == "" {
		return fmt.Errorf("shipping: api token is required")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("shipping: base url is required")
	}
	if c.Origin.Zip == "" || c.Origin.Country == "" {
		return fmt.Errorf("shipping: origin zip and country are required")
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 10
	}
	if c.DefaultWeightOz.LessThanOrEqual(decimal.Zero) {
		c.DefaultWeightOz = decimal.NewFromInt(16)
	}
	return nil
}
