// Package quote models quote requests: the lower-stakes sibling of orders.
// Quotes share the idempotent external-ledger sync contract but carry no
// payment authorization and no fulfillment lifecycle.
package quote

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/partsdesk/backend/internal/domain/shared"
	"github.com/partsdesk/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Status represents the review status of a quote request
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusReviewed Status = "REVIEWED"
	StatusAccepted Status = "ACCEPTED"
	StatusRejected Status = "REJECTED"
	StatusPaid     Status = "PAID"
)

// IsValid checks if the status is known
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusReviewed, StatusAccepted, StatusRejected, StatusPaid:
		return true
	}
	return false
}

// Item is a requested line on a quote. Unit price may be zero while the
// quote is still being worked.
type Item struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	QuoteID   uuid.UUID       `gorm:"type:uuid;index;not null"`
	SKU       string          `gorm:"size:64;not null"`
	Name      string          `gorm:"size:255;not null"`
	Quantity  int64           `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(12,2)"`
}

// Quote is a customer quote request awaiting sales review
type Quote struct {
	shared.BaseAggregateRoot
	CustomerName  string `gorm:"size:255;not null"`
	CustomerEmail string `gorm:"size:255;not null;index"`
	Company       string `gorm:"size:255"`
	Phone         string `gorm:"size:50"`
	Notes         string `gorm:"type:text"`
	Status        Status `gorm:"size:20;not null;index"`
	Items         []Item `gorm:"foreignKey:QuoteID"`

	// Same set-once sync contract as orders
	CRMRecordID         *string `gorm:"size:100"`
	AccountingInvoiceID *string `gorm:"size:100"`
}

// New creates a pending quote request
func New(customerName, customerEmail, company, phone, notes string) (*Quote, error) {
	if strings.TrimSpace(customerName) == "" {
		return nil, shared.NewDomainError("INVALID_CUSTOMER_NAME", "Customer name cannot be empty")
	}
	if !valueobject.IsValidEmail(customerEmail) {
		return nil, shared.ErrInvalidEmail
	}
	return &Quote{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CustomerName:      strings.TrimSpace(customerName),
		CustomerEmail:     strings.ToLower(strings.TrimSpace(customerEmail)),
		Company:           strings.TrimSpace(company),
		Phone:             strings.TrimSpace(phone),
		Notes:             notes,
		Status:            StatusPending,
		Items:             make([]Item, 0),
	}, nil
}

// AddItem appends a requested line
func (q *Quote) AddItem(sku, name string, quantity int64, unitPrice decimal.Decimal) error {
	if sku == "" && name == "" {
		return shared.NewDomainError("INVALID_ITEM", "Quote item needs a SKU or a name")
	}
	if quantity < 1 {
		quantity = 1
	}
	q.Items = append(q.Items, Item{
		ID:        uuid.New(),
		QuoteID:   q.ID,
		SKU:       sku,
		Name:      name,
		Quantity:  quantity,
		UnitPrice: unitPrice,
	})
	q.UpdatedAt = time.Now()
	return nil
}

// SetStatus applies a review status change
func (q *Quote) SetStatus(status Status) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Unknown quote status")
	}
	q.Status = status
	q.UpdatedAt = time.Now()
	return nil
}

// Total sums the priced lines
func (q *Quote) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range q.Items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(item.Quantity)))
	}
	return total
}

// LinkCRMRecord records the CRM ledger ID, set at most once
func (q *Quote) LinkCRMRecord(recordID string) error {
	if q.CRMRecordID != nil {
		return shared.ErrAlreadySynced
	}
	if recordID == "" {
		return shared.ErrInvalidInput
	}
	q.CRMRecordID = &recordID
	q.UpdatedAt = time.Now()
	return nil
}

// LinkAccountingInvoice records the accounting ledger ID, set at most once
func (q *Quote) LinkAccountingInvoice(invoiceID string) error {
	if q.AccountingInvoiceID != nil {
		return shared.ErrAlreadySynced
	}
	if invoiceID == "" {
		return shared.ErrInvalidInput
	}
	q.AccountingInvoiceID = &invoiceID
	q.UpdatedAt = time.Now()
	return nil
}

// IsSyncedToCRM reports whether the CRM linkage is set
func (q *Quote) IsSyncedToCRM() bool {
	return q.CRMRecordID != nil
}

// IsSyncedToAccounting reports whether the accounting linkage is set
func (q *Quote) IsSyncedToAccounting() bool {
	return q.AccountingInvoiceID != nil
}
