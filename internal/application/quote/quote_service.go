// Package quote implements the quote-request use cases: public capture,
// sales review, and push to the external ledgers.
package quote

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apporder "github.com/partsdesk/backend/internal/application/order"
	"github.com/partsdesk/backend/internal/domain/order"
	"github.com/partsdesk/backend/internal/domain/quote"
	"github.com/partsdesk/backend/internal/domain/shared"
)

// ItemInput is one requested line on a quote request
type ItemInput struct {
	SKU      string `json:"sku" binding:"max=64"`
	Name     string `json:"name" binding:"max=255"`
	Quantity int64  `json:"quantity"`
}

// CreateQuoteRequest represents a public quote request submission
type CreateQuoteRequest struct {
	CustomerName  string      `json:"customer_name" binding:"required,max=255"`
	CustomerEmail string      `json:"customer_email" binding:"required,email"`
	Company       string      `json:"company" binding:"max=255"`
	Phone         string      `json:"phone" binding:"max=50"`
	Notes         string      `json:"notes" binding:"max=4000"`
	Items         []ItemInput `json:"items" binding:"required,min=1,dive"`
}

// UpdateQuoteRequest applies a review status change
type UpdateQuoteRequest struct {
	Status string `json:"status" binding:"required"`
}

// ItemResponse is one quote line in API responses
type ItemResponse struct {
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Response is the quote representation returned by the API
type Response struct {
	ID                  uuid.UUID       `json:"id"`
	CustomerName        string          `json:"customer_name"`
	CustomerEmail       string          `json:"customer_email"`
	Company             string          `json:"company,omitempty"`
	Phone               string          `json:"phone,omitempty"`
	Notes               string          `json:"notes,omitempty"`
	Status              string          `json:"status"`
	Total               decimal.Decimal `json:"total"`
	Items               []ItemResponse  `json:"items"`
	CRMRecordID         *string         `json:"crm_record_id,omitempty"`
	AccountingInvoiceID *string         `json:"accounting_invoice_id,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// ListResponse is a paginated quote list
type ListResponse struct {
	Quotes   []Response `json:"quotes"`
	Total    int64      `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
}

// ToResponse converts a quote aggregate to its API representation
func ToResponse(q *quote.Quote) Response {
	items := make([]ItemResponse, 0, len(q.Items))
	for _, item := range q.Items {
		items = append(items, ItemResponse{
			SKU:       item.SKU,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return Response{
		ID:                  q.ID,
		CustomerName:        q.CustomerName,
		CustomerEmail:       q.CustomerEmail,
		Company:             q.Company,
		Phone:               q.Phone,
		Notes:               q.Notes,
		Status:              string(q.Status),
		Total:               q.Total(),
		Items:               items,
		CRMRecordID:         q.CRMRecordID,
		AccountingInvoiceID: q.AccountingInvoiceID,
		CreatedAt:           q.CreatedAt,
		UpdatedAt:           q.UpdatedAt,
	}
}

// Service implements the quote use cases
type Service struct {
	quotes     quote.Repository
	sync       *apporder.SyncService
	dispatcher apporder.Dispatcher
	mailer     apporder.Sender
	logger     *zap.Logger
}

// NewService creates the quote service. Dispatcher and mailer may be nil.
func NewService(quotes quote.Repository, sync *apporder.SyncService, dispatcher apporder.Dispatcher, mailer apporder.Sender, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		quotes:     quotes,
		sync:       sync,
		dispatcher: dispatcher,
		mailer:     mailer,
		logger:     log,
	}
}

// Create captures a public quote request and queues the CRM lead push and
// the sales desk notification. Both side effects are best effort; the
// quote itself is already persisted when they run.
func (s *Service) Create(ctx context.Context, req *CreateQuoteRequest) (*Response, error) {
	q, err := quote.New(req.CustomerName, req.CustomerEmail, req.Company, req.Phone, req.Notes)
	if err != nil {
		return nil, err
	}
	for _, item := range req.Items {
		if err := q.AddItem(strings.TrimSpace(item.SKU), strings.TrimSpace(item.Name), item.Quantity, decimal.Zero); err != nil {
			return nil, err
		}
	}

	if err := s.quotes.Save(ctx, q); err != nil {
		return nil, err
	}

	s.logger.Info("Quote request captured",
		zap.String("quote_id", q.ID.String()),
		zap.String("customer_email", q.CustomerEmail),
		zap.Int("items", len(q.Items)))

	s.dispatchPostCapture(q)

	resp := ToResponse(q)
	return &resp, nil
}

func (s *Service) dispatchPostCapture(q *quote.Quote) {
	if s.dispatcher == nil {
		return
	}

	quoteID := q.ID
	if s.sync != nil {
		if !s.dispatcher.Dispatch("quote-sync-crm", func(ctx context.Context) error {
			return s.sync.SyncQuote(ctx, quoteID, order.LedgerTargetCRM)
		}) {
			s.logger.Warn("Dropped quote CRM sync task", zap.String("quote_id", quoteID.String()))
		}
	}

	if s.mailer != nil {
		subject, body := requestNotification(q)
		if !s.dispatcher.Dispatch("quote-request-email", func(ctx context.Context) error {
			return s.mailer.Send(ctx, subject, body, nil)
		}) {
			s.logger.Warn("Dropped quote notification task", zap.String("quote_id", quoteID.String()))
		}
	}
}

// requestNotification builds the internal alert for a new quote request.
// It goes only to the ops mailbox, so recipients stay empty.
func requestNotification(q *quote.Quote) (subject, body string) {
	subject = fmt.Sprintf("New quote request from %s", q.CustomerName)

	var b strings.Builder
	b.WriteString("<h2>New quote request</h2>")
	fmt.Fprintf(&b, "<p>Customer: %s &lt;%s&gt;</p>", html.EscapeString(q.CustomerName), html.EscapeString(q.CustomerEmail))
	if q.Company != "" {
		fmt.Fprintf(&b, "<p>Company: %s</p>", html.EscapeString(q.Company))
	}
	if q.Phone != "" {
		fmt.Fprintf(&b, "<p>Phone: %s</p>", html.EscapeString(q.Phone))
	}
	b.WriteString("<table><tr><th>SKU</th><th>Item</th><th>Qty</th></tr>")
	for _, item := range q.Items {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td><td>%d</td></tr>",
			html.EscapeString(item.SKU), html.EscapeString(item.Name), item.Quantity)
	}
	b.WriteString("</table>")
	if q.Notes != "" {
		fmt.Fprintf(&b, "<p>Notes: %s</p>", html.EscapeString(q.Notes))
	}
	return subject, b.String()
}

// Get returns one quote
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Response, error) {
	q, err := s.quotes.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToResponse(q)
	return &resp, nil
}

// List returns a page of quotes
func (s *Service) List(ctx context.Context, filter shared.Filter) (*ListResponse, error) {
	quotes, total, err := s.quotes.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	responses := make([]Response, 0, len(quotes))
	for i := range quotes {
		responses = append(responses, ToResponse(&quotes[i]))
	}
	return &ListResponse{
		Quotes:   responses,
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}, nil
}

// UpdateStatus applies a review status change
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, req *UpdateQuoteRequest) (*Response, error) {
	q, err := s.quotes.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	status := quote.Status(strings.ToUpper(strings.TrimSpace(req.Status)))
	if err := q.SetStatus(status); err != nil {
		return nil, err
	}
	if err := s.quotes.Save(ctx, q); err != nil {
		return nil, err
	}
	resp := ToResponse(q)
	return &resp, nil
}

// Sync manually pushes a quote to one external ledger via the shared
// idempotent path
func (s *Service) Sync(ctx context.Context, id uuid.UUID, target order.LedgerTarget) (*Response, error) {
	if err := s.sync.SyncQuote(ctx, id, target); err != nil {
		return nil, err
	}
	q, err := s.quotes.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToResponse(q)
	return &resp, nil
}
