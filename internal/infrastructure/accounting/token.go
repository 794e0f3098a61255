package accounting

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/partsdesk/backend/internal/infrastructure/cache"
)

// tokenExpiryMargin is subtracted from the provider's stated lifetime so a
// token is refreshed before it can expire mid-request
const tokenExpiryMargin = 60 * time.Second

const tokenCacheKey = "accounting:access_token"

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// tokenSource mints and caches OAuth access tokens for the accounting API.
// Tokens live in the injected cache store so restarts and replicas reuse
// them instead of burning refresh grants.
type tokenSource struct {
	config     *QuickBooksConfig
	store      cache.Store
	httpClient *http.Client
	mu         sync.Mutex
}

func newTokenSource(config *QuickBooksConfig, store cache.Store, httpClient *http.Client) *tokenSource {
	return &tokenSource{
		config:     config,
		store:      store,
		httpClient: httpClient,
	}
}

// AccessToken returns a valid access token, refreshing through the OAuth
// refresh-token grant when the cached one is missing or expired
func (ts *tokenSource) AccessToken(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if token, ok, err := ts.store.Get(ctx, tokenCacheKey); err == nil && ok && token != "" {
		return token, nil
	}

	token, expiresIn, err := ts.refresh(ctx)
	if err != nil {
		return "", err
	}

	ttl := time.Duration(expiresIn)*time.Second - tokenExpiryMargin
	if ttl > 0 {
		// a cache write failure only costs an extra refresh next time
		_ = ts.store.Set(ctx, tokenCacheKey, token, ttl)
	}
	return token, nil
}

func (ts *tokenSource) refresh(ctx context.Context) (string, int64, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", ts.config.RefreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.config.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, fmt.Errorf("quickbooks: failed to create token request: %w", err)
	}
	req.SetBasicAuth(ts.config.ClientID, ts.config.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := ts.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("quickbooks: token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("quickbooks: token exchange returned status %d", resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", 0, fmt.Errorf("quickbooks: failed to parse token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", 0, fmt.Errorf("quickbooks: token exchange returned no access token")
	}
	return tr.AccessToken, tr.ExpiresIn, nil
}

// invalidate drops the cached token, forcing a refresh on the next call
func (ts *tokenSource) invalidate(ctx context.Context) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	_ = ts.store.Delete(ctx, tokenCacheKey)
}
