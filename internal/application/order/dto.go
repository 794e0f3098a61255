package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/partsdesk/backend/internal/application/checkout"
	"github.com/partsdesk/backend/internal/domain/order"
	"github.com/partsdesk/backend/internal/domain/shared/valueobject"
)

// AddressInput carries a shipping or billing address from the client
type AddressInput struct {
	Name       string `json:"name" binding:"max=255"`
	Company    string `json:"company" binding:"max=255"`
	Email      string `json:"email" binding:"required,email"`
	Phone      string `json:"phone" binding:"max=50"`
	Street1    string `json:"street1" binding:"max=255"`
	Street2    string `json:"street2" binding:"max=255"`
	City       string `json:"city" binding:"max=100"`
	State      string `json:"state" binding:"max=100"`
	PostalCode string `json:"postal_code" binding:"max=20"`
	Country    string `json:"country" binding:"max=2"`
}

// ToAddress converts the input to the domain value object
func (a *AddressInput) ToAddress() valueobject.Address {
	if a == nil {
		return valueobject.Address{}
	}
	return valueobject.Address{
		Name:       a.Name,
		Company:    a.Company,
		Email:      a.Email,
		Phone:      a.Phone,
		Street1:    a.Street1,
		Street2:    a.Street2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

// CreateOrderRequest represents a request to create an order
type CreateOrderRequest struct {
	Items               []checkout.CartItem `json:"items" binding:"required,min=1,dive"`
	PaymentMethod       string              `json:"payment_method" binding:"required"`
	PONumber            string              `json:"po_number" binding:"max=64"`
	PaymentIntentID     string              `json:"payment_intent_id" binding:"max=100"`
	ShippingServiceCode string              `json:"shipping_service_code" binding:"max=50"`
	Currency            string              `json:"currency" binding:"max=3"`
	ShippingAddress     AddressInput        `json:"shipping_address" binding:"required"`
	BillingAddress      *AddressInput       `json:"billing_address"`
}

// UpdateOrderRequest represents an operator update. Only the provided
// fields are applied.
type UpdateOrderRequest struct {
	Status         *string `json:"status"`
	TrackingNumber *string `json:"tracking_number"`
	Carrier        *string `json:"carrier"`
}

// ItemResponse is one order line in API responses
type ItemResponse struct {
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Amount    decimal.Decimal `json:"amount"`
}

// AddressResponse is an address in API responses
type AddressResponse struct {
	Name       string `json:"name,omitempty"`
	Company    string `json:"company,omitempty"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	Street1    string `json:"street1,omitempty"`
	Street2    string `json:"street2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// Response is the full order representation returned to authenticated callers
type Response struct {
	ID                  uuid.UUID       `json:"id"`
	Reference           string          `json:"reference"`
	Status              string          `json:"status"`
	PaymentMethod       string          `json:"payment_method"`
	PONumber            string          `json:"po_number,omitempty"`
	Total               decimal.Decimal `json:"total"`
	Currency            string          `json:"currency"`
	TrackingNumber      string          `json:"tracking_number,omitempty"`
	Carrier             string          `json:"carrier,omitempty"`
	PaymentIntentID     string          `json:"payment_intent_id,omitempty"`
	SalespersonID       *uuid.UUID      `json:"salesperson_id,omitempty"`
	Items               []ItemResponse  `json:"items"`
	ShippingAddress     AddressResponse `json:"shipping_address"`
	BillingAddress      AddressResponse `json:"billing_address"`
	CRMRecordID         *string         `json:"crm_record_id,omitempty"`
	AccountingInvoiceID *string         `json:"accounting_invoice_id,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// ListResponse is a paginated order list
type ListResponse struct {
	Orders   []Response `json:"orders"`
	Total    int64      `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
}

// TrackResponse is the minimal public projection for the tracking endpoint.
// It deliberately omits amounts, addresses and items.
type TrackResponse struct {
	Reference      string    `json:"reference"`
	Status         string    `json:"status"`
	TrackingNumber string    `json:"tracking_number,omitempty"`
	Carrier        string    `json:"carrier,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func toAddressResponse(a valueobject.Address) AddressResponse {
	return AddressResponse{
		Name:       a.Name,
		Company:    a.Company,
		Email:      a.Email,
		Phone:      a.Phone,
		Street1:    a.Street1,
		Street2:    a.Street2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

// ToResponse converts an order aggregate to its API representation
func ToResponse(o *order.Order) Response {
	items := make([]ItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, ItemResponse{
			SKU:       item.SKU,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Amount:    item.Amount(),
		})
	}

	return Response{
		ID:                  o.ID,
		Reference:           o.Reference(),
		Status:              string(o.Status),
		PaymentMethod:       string(o.PaymentMethod),
		PONumber:            o.PONumber,
		Total:               o.Total,
		Currency:            string(o.Currency),
		TrackingNumber:      o.TrackingNumber,
		Carrier:             o.Carrier,
		PaymentIntentID:     o.PaymentIntentID,
		SalespersonID:       o.SalespersonID,
		Items:               items,
		ShippingAddress:     toAddressResponse(o.ShippingAddress),
		BillingAddress:      toAddressResponse(o.BillingAddress),
		CRMRecordID:         o.CRMRecordID,
		AccountingInvoiceID: o.AccountingInvoiceID,
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
	}
}

// ToTrackResponse converts an order to its public tracking projection
func ToTrackResponse(o *order.Order) TrackResponse {
	return TrackResponse{
		Reference:      o.Reference(),
		Status:         string(o.Status),
		TrackingNumber: o.TrackingNumber,
		Carrier:        o.Carrier,
		CreatedAt:      o.CreatedAt,
	}
}
