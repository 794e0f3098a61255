package crm

import "errors"

// ZohoDefaultAPIBaseURL is the production CRM API endpoint
const ZohoDefaultAPIBaseURL = "https://www.zohoapis.com/crm/v2"

// Errors for Zoho CRM configuration
var (
	ErrZohoConfigMissingToken = errors.New("zoho: access token is required")
)

// ZohoConfig holds configuration for the Zoho CRM integration
type ZohoConfig struct {
	// AccessToken is the OAuth access token sent on every request
	AccessToken string
	// APIBaseURL is the base URL for the CRM REST API
	APIBaseURL string
	// SalesOrderModule is the CRM module sales orders are written to
	SalesOrderModule string
	// LeadModule is the CRM module quote requests are written to
	LeadModule string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

// NewZohoConfig creates a Zoho configuration with defaults
func NewZohoConfig(accessToken string) *ZohoConfig {
	return &ZohoConfig{
		AccessToken:      accessToken,
		APIBaseURL:       ZohoDefaultAPIBaseURL,
		SalesOrderModule: "Sales_Orders",
		LeadModule:       "Leads",
		TimeoutSeconds:   15,
	}
}

// Validate validates the Zoho configuration and fills in defaults
func (c *ZohoConfig) Validate() error {
	if c.AccessToken == "" {
		return ErrZohoConfigMissingToken
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = ZohoDefaultAPIBaseURL
	}
	if c.SalesOrderModule == "" {
		c.SalesOrderModule = "Sales_Orders"
	}
	if c.LeadModule == "" {
		c.LeadModule = "Leads"
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 15
	}
	return nil
}
