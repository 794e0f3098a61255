package order

import (
	"github.com/partsdesk/backend/internal/domain/shared"
)

// Event types for the order aggregate
const (
	EventTypeCreated         = "order.created"
	EventTypeStatusChanged   = "order.status_changed"
	EventTypeTrackingUpdated = "order.tracking_updated"
)

// AggregateType identifies the order aggregate in events
const AggregateType = "Order"

// CreatedEvent is raised when an order is captured
type CreatedEvent struct {
	shared.BaseDomainEvent
	Reference     string        `json:"reference"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	Status        Status        `json:"status"`
	Total         string        `json:"total"`
	CustomerEmail string        `json:"customer_email"`
}

// NewCreatedEvent creates an order created event
func NewCreatedEvent(o *Order) *CreatedEvent {
	return &CreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCreated, AggregateType, o.ID),
		Reference:       o.Reference(),
		PaymentMethod:   o.PaymentMethod,
		Status:          o.Status,
		Total:           o.Total.StringFixed(2),
		CustomerEmail:   o.ShippingAddress.NormalizedEmail(),
	}
}

// StatusChangedEvent is raised on an operator status change
type StatusChangedEvent struct {
	shared.BaseDomainEvent
	Reference string `json:"reference"`
	Status    Status `json:"status"`
}

// NewStatusChangedEvent creates a status changed event
func NewStatusChangedEvent(o *Order) *StatusChangedEvent {
	return &StatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStatusChanged, AggregateType, o.ID),
		Reference:       o.Reference(),
		Status:          o.Status,
	}
}

// TrackingUpdatedEvent is raised when tracking number or carrier actually
// changes to a non-empty value
type TrackingUpdatedEvent struct {
	shared.BaseDomainEvent
	Reference      string `json:"reference"`
	TrackingNumber string `json:"tracking_number"`
	Carrier        string `json:"carrier"`
}

// NewTrackingUpdatedEvent creates a tracking updated event
func NewTrackingUpdatedEvent(o *Order) *TrackingUpdatedEvent {
	return &TrackingUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTrackingUpdated, AggregateType, o.ID),
		Reference:       o.Reference(),
		TrackingNumber:  o.TrackingNumber,
		Carrier:         o.Carrier,
	}
}
