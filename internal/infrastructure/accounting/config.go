package accounting

import "errors"

const (
	// QuickBooksProductionAPIURL is the production API endpoint
	QuickBooksProductionAPIURL = "https://quickbooks.api.intuit.com"
	// QuickBooksSandboxAPIURL is the sandbox API endpoint
	QuickBooksSandboxAPIURL = "https://sandbox-quickbooks.api.intuit.com"
	// QuickBooksTokenURL is the OAuth token exchange endpoint
	QuickBooksTokenURL = "https://oauth.platform.intuit.com/oauth2/v1/tokens/bearer"
)

// Errors for QuickBooks configuration
var (
	ErrQuickBooksConfigMissingClientID     = errors.New("quickbooks: client ID is required")
	ErrQuickBooksConfigMissingClientSecret = errors.New("quickbooks: client secret is required")
	ErrQuickBooksConfigMissingRefreshToken = errors.New("quickbooks: refresh token is required")
	ErrQuickBooksConfigMissingRealmID      = errors.New("quickbooks: realm ID is required")
)

// QuickBooksConfig holds configuration for the accounting ledger integration
type QuickBooksConfig struct {
	// ClientID is the OAuth application client ID
	ClientID string
	// ClientSecret is the OAuth application client secret
	ClientSecret string
	// RefreshToken is the long-lived OAuth refresh token
	RefreshToken string
	// RealmID is the company (realm) the invoices belong to
	RealmID string
	// APIBaseURL is the base URL for the accounting API
	APIBaseURL string
	// TokenURL is the OAuth token exchange endpoint
	TokenURL string
	// IsSandbox selects the sandbox API endpoint when APIBaseURL is unset
	IsSandbox bool
	// IncomeAccountRef is the account invoice lines are booked against
	IncomeAccountRef string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

// NewQuickBooksConfig creates a QuickBooks configuration with defaults
func NewQuickBooksConfig(clientID, clientSecret, refreshToken, realmID string) *QuickBooksConfig {
	return &QuickBooksConfig{
		ClientID:       clientID,
		ClientSecret:   clientSecret,
		RefreshToken:   refreshToken,
		RealmID:        realmID,
		APIBaseURL:     QuickBooksProductionAPIURL,
		TokenURL:       QuickBooksTokenURL,
		TimeoutSeconds: 15,
	}
}

// Validate validates the QuickBooks configuration and fills in defaults
func (c *QuickBooksConfig) Validate() error {
	if c.ClientID == "" {
		return ErrQuickBooksConfigMissingClientID
	}
	if c.ClientSecret == "" {
		return ErrQuickBooksConfigMissingClientSecret
	}
	if c.RefreshToken == "" {
		return ErrQuickBooksConfigMissingRefreshToken
	}
	if c.RealmID == "" {
		return ErrQuickBooksConfigMissingRealmID
	}
	if c.APIBaseURL == "" {
		if c.IsSandbox {
			c.APIBaseURL = QuickBooksSandboxAPIURL
		} else {
			c.APIBaseURL = QuickBooksProductionAPIURL
		}
	}
	if c.TokenURL == "" {
		c.TokenURL = QuickBooksTokenURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 15
	}
	return nil
}
