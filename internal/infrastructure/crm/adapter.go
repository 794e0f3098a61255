// Package crm synchronizes captured orders and quote requests to a
// Zoho-style CRM ledger. Calls are single-shot with a conservative
// timeout; retry is left to the manual sync path.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/partsdesk/backend/internal/domain/order"
	"github.com/partsdesk/backend/internal/domain/quote"
)

// maxResponseSize is the maximum allowed response size from the CRM API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// ZohoAdapter writes orders and quotes to Zoho CRM
type ZohoAdapter struct {
	config     *ZohoConfig
	httpClient *http.Client
}

// NewZohoAdapter creates a new Zoho adapter with the given configuration
func NewZohoAdapter(config *ZohoConfig) (*ZohoAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &ZohoAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// SyncOrder creates a sales order record for the given order, deduplicating
// the contact by shipping email. It returns the new CRM record ID.
func (a *ZohoAdapter) SyncOrder(ctx context.Context, ord *order.Order) (string, error) {
	contactID, err := a.findContactByEmail(ctx, ord.ShippingAddress.NormalizedEmail())
	if err != nil {
		return "", err
	}
	if contactID == "" {
		contactID, err = a.createContact(ctx, zohoContact{
			LastName:    contactLastName(ord.ShippingAddress.Name),
			Email:       ord.ShippingAddress.NormalizedEmail(),
			Phone:       ord.ShippingAddress.Phone,
			AccountName: ord.ShippingAddress.Company,
		})
		if err != nil {
			return "", err
		}
	}

	lines := make([]zohoOrderLine, 0, len(ord.Items))
	for _, item := range ord.Items {
		lines = append(lines, zohoOrderLine{
			ProductCode: item.SKU,
			Description: item.Name,
			Quantity:    item.Quantity,
			ListPrice:   item.UnitPrice.InexactFloat64(),
		})
	}

	record := zohoSalesOrder{
		Subject:       ord.Reference(),
		ContactName:   zohoContactRef{ID: contactID},
		Status:        string(ord.Status),
		GrandTotal:    ord.Total.InexactFloat64(),
		Currency:      string(ord.Currency),
		PONumber:      ord.PONumber,
		PaymentMethod: string(ord.PaymentMethod),
		OrderedItems:  lines,
	}
	return a.createRecord(ctx, a.config.SalesOrderModule, record)
}

// SyncQuote creates a lead record for the given quote request and returns
// the new CRM record ID
func (a *ZohoAdapter) SyncQuote(ctx context.Context, q *quote.Quote) (string, error) {
	notes := q.Notes
	for _, item := range q.Items {
		notes = fmt.Sprintf("%s\n%dx %s (%s)", notes, item.Quantity, item.Name, item.SKU)
	}

	lead := zohoLead{
		LastName:    contactLastName(q.CustomerName),
		Email:       q.CustomerEmail,
		Company:     q.Company,
		Phone:       q.Phone,
		Description: notes,
		LeadSource:  "Storefront Quote Request",
		LeadStatus:  string(q.Status),
	}
	return a.createRecord(ctx, a.config.LeadModule, lead)
}

// findContactByEmail returns the existing contact ID for the email, or ""
// if no contact matches. Zoho answers an empty search with 204 No Content.
func (a *ZohoAdapter) findContactByEmail(ctx context.Context, email string) (string, error) {
	criteria := fmt.Sprintf("(Email:equals:%s)", email)
	endpoint := fmt.Sprintf("%s/Contacts/search?criteria=%s", a.config.APIBaseURL, url.QueryEscape(criteria))

	status, body, err := a.doRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	if status == http.StatusNoContent {
		return "", nil
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("zoho: contact search returned status %d", status)
	}

	var resp zohoSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("zoho: failed to parse search response: %w", err)
	}
	if len(resp.Data) == 0 {
		return "", nil
	}
	return resp.Data[0].ID, nil
}

func (a *ZohoAdapter) createContact(ctx context.Context, contact zohoContact) (string, error) {
	return createZohoRecord(ctx, a, "Contacts", contact)
}

func (a *ZohoAdapter) createRecord(ctx context.Context, module string, record any) (string, error) {
	return createZohoRecord(ctx, a, module, record)
}

func createZohoRecord[T any](ctx context.Context, a *ZohoAdapter, module string, record T) (string, error) {
	payload, err := json.Marshal(zohoWriteRequest[T]{Data: []T{record}})
	if err != nil {
		return "", fmt.Errorf("zoho: failed to marshal %s record: %w", module, err)
	}

	endpoint := fmt.Sprintf("%s/%s", a.config.APIBaseURL, module)
	status, body, err := a.doRequest(ctx, http.MethodPost, endpoint, payload)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return "", fmt.Errorf("zoho: create %s returned status %d", module, status)
	}

	var resp zohoWriteResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("zoho: failed to parse create response: %w", err)
	}
	if len(resp.Data) == 0 {
		return "", fmt.Errorf("zoho: create %s returned no records", module)
	}
	result := resp.Data[0]
	if result.Status != "success" {
		return "", fmt.Errorf("zoho: create %s failed: %s (%s)", module, result.Message, result.Code)
	}
	if result.Details.ID == "" {
		return "", fmt.Errorf("zoho: create %s returned no record ID", module)
	}
	return result.Details.ID, nil
}

// doRequest performs an HTTP request to the CRM API
func (a *ZohoAdapter) doRequest(ctx context.Context, method, endpoint string, payload []byte) (int, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("zoho: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Zoho-oauthtoken "+a.config.AccessToken)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("zoho: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return 0, nil, fmt.Errorf("zoho: failed to read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// contactLastName derives the mandatory Last_Name field from a free-form
// customer name
func contactLastName(name string) string {
	if name == "" {
		return "Customer"
	}
	return name
}
