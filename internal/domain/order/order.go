package order

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/partsdesk/backend/internal/domain/shared"
	"github.com/partsdesk/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// PaymentMethod represents how an order is paid
type PaymentMethod string

const (
	PaymentMethodCard          PaymentMethod = "CARD"
	PaymentMethodPurchaseOrder PaymentMethod = "PURCHASE_ORDER"
	PaymentMethodBankTransfer  PaymentMethod = "BANK_TRANSFER"
)

// IsValid checks if the payment method is known
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCard, PaymentMethodPurchaseOrder, PaymentMethodBankTransfer:
		return true
	}
	return false
}

// Status represents the fulfillment status of an order
type Status string

const (
	StatusPendingApproval Status = "PENDING_APPROVAL"
	StatusProcessing      Status = "PROCESSING"
	StatusShipped         Status = "SHIPPED"
	StatusDelivered       Status = "DELIVERED"
	StatusCancelled       Status = "CANCELLED"
)

// IsValid checks if the status is a known Status
func (s Status) IsValid() bool {
	switch s {
	case StatusPendingApproval, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// Item is a frozen snapshot of a cart line at capture time. It is
// deliberately not a join to the live catalog: later price or name changes
// must not alter a captured order.
type Item struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID   uuid.UUID       `gorm:"type:uuid;index;not null"`
	SKU       string          `gorm:"size:64;not null"`
	Name      string          `gorm:"size:255;not null"`
	Quantity  int64           `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(12,2);not null"`
}

// NewItem creates an order line snapshot
func NewItem(orderID uuid.UUID, sku, name string, quantity int64, unitPrice decimal.Decimal) (*Item, error) {
	if sku == "" {
		return nil, shared.NewDomainError("INVALID_SKU", "SKU cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if quantity < 1 {
		quantity = 1
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	return &Item{
		ID:        uuid.New(),
		OrderID:   orderID,
		SKU:       sku,
		Name:      name,
		Quantity:  quantity,
		UnitPrice: unitPrice,
	}, nil
}

// Amount returns quantity times unit price
func (i *Item) Amount() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(i.Quantity))
}

// Order is the aggregate root for a captured customer order. Total is the
// server-computed authoritative amount; linkage IDs record the at-most-once
// propagation to the external ledgers.
type Order struct {
	shared.BaseAggregateRoot
	Total           decimal.Decimal      `gorm:"type:numeric(12,2);not null"`
	Currency        valueobject.Currency `gorm:"size:3;not null;default:USD"`
	PaymentMethod   PaymentMethod        `gorm:"size:20;not null"`
	PONumber        string               `gorm:"size:64"`
	Status          Status               `gorm:"size:20;not null;index"`
	TrackingNumber  string               `gorm:"size:100"`
	Carrier         string               `gorm:"size:50"`
	PaymentIntentID string               `gorm:"size:100"`
	SalespersonID   *uuid.UUID           `gorm:"type:uuid;index"`
	Items           []Item               `gorm:"foreignKey:OrderID"`
	ShippingAddress valueobject.Address  `gorm:"embedded;embeddedPrefix:shipping_"`
	BillingAddress  valueobject.Address  `gorm:"embedded;embeddedPrefix:billing_"`

	// External ledger linkage. Each is written by exactly one successful
	// synchronization, ever; a set field makes re-sync a no-op.
	CRMRecordID         *string `gorm:"size:100"`
	AccountingInvoiceID *string `gorm:"size:100"`
}

// New creates a captured order. The total must already be the authoritative
// server-computed amount; initial status follows the payment method.
func New(method PaymentMethod, poNumber string, total decimal.Decimal, currency valueobject.Currency, shippingAddr, billingAddr valueobject.Address) (*Order, error) {
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Unknown payment method")
	}
	if method == PaymentMethodPurchaseOrder && strings.TrimSpace(poNumber) == "" {
		return nil, shared.ErrMissingPONumber
	}
	if total.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Order total cannot be negative")
	}
	if shippingAddr.Validate() != nil {
		return nil, shared.ErrInvalidEmail
	}
	if billingAddr.Email == "" {
		billingAddr.Email = shippingAddr.Email
	}
	if billingAddr.Validate() != nil {
		return nil, shared.ErrInvalidEmail
	}
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}

	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Total:             total,
		Currency:          currency,
		PaymentMethod:     method,
		PONumber:          strings.TrimSpace(poNumber),
		Status:            initialStatus(method),
		ShippingAddress:   shippingAddr,
		BillingAddress:    billingAddr,
		Items:             make([]Item, 0),
	}

	o.AddDomainEvent(NewCreatedEvent(o))

	return o, nil
}

// Card orders are authorized before capture so they go straight to
// PROCESSING; PO and bank-transfer orders wait on a human.
func initialStatus(method PaymentMethod) Status {
	if method == PaymentMethodCard {
		return StatusProcessing
	}
	return StatusPendingApproval
}

// AddItem appends a line snapshot to the order
func (o *Order) AddItem(sku, name string, quantity int64, unitPrice decimal.Decimal) (*Item, error) {
	item, err := NewItem(o.ID, sku, name, quantity, unitPrice)
	if err != nil {
		return nil, err
	}
	o.Items = append(o.Items, *item)
	o.UpdatedAt = time.Now()
	return item, nil
}

// Reference derives the human-readable order reference from the creation
// date and a short slice of the ID. It is a stable function of both, never
// stored separately.
func (o *Order) Reference() string {
	compact := strings.ReplaceAll(o.ID.String(), "-", "")
	return "PD-" + o.CreatedAt.UTC().Format("20060102") + "-" + strings.ToUpper(compact[:6])
}

// SetStatus applies an operator-driven status change. The status graph is
// intentionally unconstrained: any status may follow any other, matching
// how operators actually correct orders.
func (o *Order) SetStatus(status Status) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Unknown order status")
	}
	if status == o.Status {
		return nil
	}
	o.Status = status
	o.UpdatedAt = time.Now()
	o.AddDomainEvent(NewStatusChangedEvent(o))
	return nil
}

// SetTracking updates tracking number and carrier. It reports whether a
// non-empty value actually changed so the caller can fire the tracking
// notification at most once per real change, not once per update call.
func (o *Order) SetTracking(trackingNumber, carrier string) bool {
	changed := false
	if trackingNumber != "" && trackingNumber != o.TrackingNumber {
		o.TrackingNumber = trackingNumber
		changed = true
	}
	if carrier != "" && carrier != o.Carrier {
		o.Carrier = carrier
		changed = true
	}
	if changed {
		o.UpdatedAt = time.Now()
		o.AddDomainEvent(NewTrackingUpdatedEvent(o))
	}
	return changed
}

// SetSalesperson records the salesperson attributed to the order
func (o *Order) SetSalesperson(userID uuid.UUID) {
	o.SalespersonID = &userID
	o.UpdatedAt = time.Now()
}

// SetPaymentIntent records the card authorization reference
func (o *Order) SetPaymentIntent(intentID string) {
	o.PaymentIntentID = intentID
	o.UpdatedAt = time.Now()
}

// LinkCRMRecord records the CRM ledger ID. Set at most once; a second link
// attempt is rejected so re-synchronization stays a no-op.
func (o *Order) LinkCRMRecord(recordID string) error {
	if o.CRMRecordID != nil {
		return shared.ErrAlreadySynced
	}
	if recordID == "" {
		return shared.ErrInvalidInput
	}
	o.CRMRecordID = &recordID
	o.UpdatedAt = time.Now()
	return nil
}

// LinkAccountingInvoice records the accounting ledger invoice ID, set at
// most once
func (o *Order) LinkAccountingInvoice(invoiceID string) error {
	if o.AccountingInvoiceID != nil {
		return shared.ErrAlreadySynced
	}
	if invoiceID == "" {
		return shared.ErrInvalidInput
	}
	o.AccountingInvoiceID = &invoiceID
	o.UpdatedAt = time.Now()
	return nil
}

// IsSyncedToCRM reports whether the CRM linkage is set
func (o *Order) IsSyncedToCRM() bool {
	return o.CRMRecordID != nil
}

// IsSyncedToAccounting reports whether the accounting linkage is set
func (o *Order) IsSyncedToAccounting() bool {
	return o.AccountingInvoiceID != nil
}

// TotalMoney returns the authoritative total as Money
func (o *Order) TotalMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(o.Total, o.Currency)
	return m
}

// ItemCount returns the number of line snapshots
func (o *Order) ItemCount() int {
	return len(o.Items)
}
