// Package accounting synchronizes captured orders to a QuickBooks-style
// invoice ledger. Access tokens come from an OAuth refresh grant and are
// cached with a safety margin; invoice calls themselves are single-shot.
package accounting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/partsdesk/backend/internal/domain/order"
	"github.com/partsdesk/backend/internal/domain/quote"
	"github.com/partsdesk/backend/internal/infrastructure/cache"
)

// maxResponseSize is the maximum allowed response size from the accounting API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// QuickBooksAdapter writes invoices to QuickBooks Online
type QuickBooksAdapter struct {
	config     *QuickBooksConfig
	tokens     *tokenSource
	httpClient *http.Client
}

// NewQuickBooksAdapter creates a new QuickBooks adapter. The cache store
// holds the OAuth access token between calls.
func NewQuickBooksAdapter(config *QuickBooksConfig, store cache.Store) (*QuickBooksAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	client := &http.Client{
		Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
	}
	return &QuickBooksAdapter{
		config:     config,
		tokens:     newTokenSource(config, store, client),
		httpClient: client,
	}, nil
}

// SyncOrder creates an invoice for the given order, deduplicating the
// customer by shipping email. It returns the new invoice ID.
func (a *QuickBooksAdapter) SyncOrder(ctx context.Context, ord *order.Order) (string, error) {
	customerID, err := a.resolveCustomer(ctx, ord.ShippingAddress.Name, ord.ShippingAddress.Company, ord.ShippingAddress.NormalizedEmail())
	if err != nil {
		return "", err
	}

	lines := make([]qbInvoiceLine, 0, len(ord.Items))
	for _, item := range ord.Items {
		lines = append(lines, qbInvoiceLine{
			DetailType:  "SalesItemLineDetail",
			Amount:      item.Amount().InexactFloat64(),
			Description: fmt.Sprintf("%s (%s)", item.Name, item.SKU),
			SalesItemLineDetail: &qbSalesItemLineDetail{
				UnitPrice: item.UnitPrice.InexactFloat64(),
				Qty:       item.Quantity,
			},
		})
	}

	invoice := qbInvoice{
		DocNumber:   ord.Reference(),
		CustomerRef: qbRef{Value: customerID},
		Line:        lines,
		CurrencyRef: &qbRef{Value: string(ord.Currency)},
		PrivateNote: privateNote(ord),
	}
	return a.createInvoice(ctx, invoice)
}

// SyncQuote creates a draft invoice for an accepted quote and returns the
// new invoice ID
func (a *QuickBooksAdapter) SyncQuote(ctx context.Context, q *quote.Quote) (string, error) {
	customerID, err := a.resolveCustomer(ctx, q.CustomerName, q.Company, strings.ToLower(strings.TrimSpace(q.CustomerEmail)))
	if err != nil {
		return "", err
	}

	lines := make([]qbInvoiceLine, 0, len(q.Items))
	for _, item := range q.Items {
		lines = append(lines, qbInvoiceLine{
			DetailType:  "SalesItemLineDetail",
			Amount:      item.UnitPrice.Mul(decimal.NewFromInt(item.Quantity)).InexactFloat64(),
			Description: fmt.Sprintf("%s (%s)", item.Name, item.SKU),
			SalesItemLineDetail: &qbSalesItemLineDetail{
				UnitPrice: item.UnitPrice.InexactFloat64(),
				Qty:       item.Quantity,
			},
		})
	}

	invoice := qbInvoice{
		CustomerRef: qbRef{Value: customerID},
		Line:        lines,
		PrivateNote: "Converted from storefront quote request",
	}
	return a.createInvoice(ctx, invoice)
}

// resolveCustomer returns the ID of the customer with the given email,
// creating one when no match exists
func (a *QuickBooksAdapter) resolveCustomer(ctx context.Context, name, company, email string) (string, error) {
	query := fmt.Sprintf("select Id from Customer where PrimaryEmailAddr = '%s'", escapeQueryLiteral(email))
	endpoint := fmt.Sprintf("%s/v3/company/%s/query?query=%s", a.config.APIBaseURL, a.config.RealmID, url.QueryEscape(query))

	status, body, err := a.doRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", apiError("customer query", status, body)
	}

	var qr qbCustomerQueryResponse
	if err := json.Unmarshal(body, &qr); err != nil {
		return "", fmt.Errorf("quickbooks: failed to parse customer query response: %w", err)
	}
	if len(qr.QueryResponse.Customer) > 0 {
		return qr.QueryResponse.Customer[0].ID, nil
	}

	return a.createCustomer(ctx, qbCustomer{
		DisplayName:      customerDisplayName(name, company, email),
		CompanyName:      company,
		PrimaryEmailAddr: &qbEmail{Address: email},
	})
}

func (a *QuickBooksAdapter) createCustomer(ctx context.Context, customer qbCustomer) (string, error) {
	payload, err := json.Marshal(customer)
	if err != nil {
		return "", fmt.Errorf("quickbooks: failed to marshal customer: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v3/company/%s/customer", a.config.APIBaseURL, a.config.RealmID)
	status, body, err := a.doRequest(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return "", apiError("customer create", status, body)
	}

	var resp qbCustomerCreateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("quickbooks: failed to parse customer create response: %w", err)
	}
	if resp.Customer.ID == "" {
		return "", fmt.Errorf("quickbooks: customer create returned no ID")
	}
	return resp.Customer.ID, nil
}

func (a *QuickBooksAdapter) createInvoice(ctx context.Context, invoice qbInvoice) (string, error) {
	payload, err := json.Marshal(invoice)
	if err != nil {
		return "", fmt.Errorf("quickbooks: failed to marshal invoice: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v3/company/%s/invoice", a.config.APIBaseURL, a.config.RealmID)
	status, body, err := a.doRequest(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return "", apiError("invoice create", status, body)
	}

	var resp qbInvoiceCreateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("quickbooks: failed to parse invoice create response: %w", err)
	}
	if resp.Invoice.ID == "" {
		return "", fmt.Errorf("quickbooks: invoice create returned no ID")
	}
	return resp.Invoice.ID, nil
}

// doRequest performs an authenticated HTTP request to the accounting API.
// A 401 invalidates the cached token and retries once with a fresh one.
func (a *QuickBooksAdapter) doRequest(ctx context.Context, method, endpoint string, payload []byte) (int, []byte, error) {
	status, body, err := a.doRequestOnce(ctx, method, endpoint, payload)
	if err != nil {
		return 0, nil, err
	}
	if status == http.StatusUnauthorized {
		a.tokens.invalidate(ctx)
		return a.doRequestOnce(ctx, method, endpoint, payload)
	}
	return status, body, nil
}

func (a *QuickBooksAdapter) doRequestOnce(ctx context.Context, method, endpoint string, payload []byte) (int, []byte, error) {
	token, err := a.tokens.AccessToken(ctx)
	if err != nil {
		return 0, nil, err
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("quickbooks: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("quickbooks: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return 0, nil, fmt.Errorf("quickbooks: failed to read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func apiError(op string, status int, body []byte) error {
	var fault qbFault
	if err := json.Unmarshal(body, &fault); err == nil && len(fault.Fault.Error) > 0 {
		e := fault.Fault.Error[0]
		return fmt.Errorf("quickbooks: %s failed: %s (%s)", op, e.Message, e.Code)
	}
	return fmt.Errorf("quickbooks: %s returned status %d", op, status)
}

// escapeQueryLiteral escapes single quotes for the query endpoint's string
// literals
func escapeQueryLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "\\'")
}

func customerDisplayName(name, company, email string) string {
	if name != "" {
		return name
	}
	if company != "" {
		return company
	}
	return email
}

func privateNote(ord *order.Order) string {
	note := fmt.Sprintf("Payment method: %s", ord.PaymentMethod)
	if ord.PONumber != "" {
		note += fmt.Sprintf(", PO %s", ord.PONumber)
	}
	return note
}
