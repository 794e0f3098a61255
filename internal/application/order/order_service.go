package order

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/partsdesk/backend/internal/application/checkout"
	"github.com/partsdesk/backend/internal/domain/order"
	"github.com/partsdesk/backend/internal/domain/shared"
	"github.com/partsdesk/backend/internal/domain/shared/valueobject"
	"github.com/partsdesk/backend/internal/infrastructure/auth"
)

// Dispatcher hands work to the background task pool. A false return means
// the task was dropped, never that it failed.
type Dispatcher interface {
	Dispatch(name string, run func(ctx context.Context) error) bool
}

// Sender delivers a transactional email
type Sender interface {
	Send(ctx context.Context, subject, htmlBody string, recipients []string) error
}

// Service implements the order capture and fulfillment use cases. Capture
// persists first and then hands ledger sync and email off to the
// dispatcher, so a slow or broken integration never fails a paid order.
type Service struct {
	orders     order.Repository
	pricing    *checkout.PricingService
	sync       *SyncService
	dispatcher Dispatcher
	mailer     Sender
	logger     *zap.Logger
}

// NewService creates the order service. Dispatcher and mailer may be nil;
// capture then simply skips the side effects that need them.
func NewService(orders order.Repository, pricing *checkout.PricingService, sync *SyncService, dispatcher Dispatcher, mailer Sender, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		orders:     orders,
		pricing:    pricing,
		sync:       sync,
		dispatcher: dispatcher,
		mailer:     mailer,
		logger:     log,
	}
}

// Create captures an order. The total is recomputed server-side from the
// submitted SKUs and quantities; any prices sent by the client are ignored.
func (s *Service) Create(ctx context.Context, identity *auth.Identity, req *CreateOrderRequest) (*Response, error) {
	method := order.PaymentMethod(strings.ToUpper(strings.TrimSpace(req.PaymentMethod)))
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Unknown payment method: "+req.PaymentMethod)
	}
	if method == order.PaymentMethodCard && strings.TrimSpace(req.PaymentIntentID) == "" {
		return nil, shared.NewDomainError("MISSING_PAYMENT_INTENT", "Card orders require a payment intent reference")
	}

	currency, err := parseCurrency(req.Currency)
	if err != nil {
		return nil, err
	}

	shippingAddr := req.ShippingAddress.ToAddress()
	cart, err := s.pricing.Price(ctx, req.Items, shippingAddr, req.ShippingServiceCode)
	if err != nil {
		return nil, err
	}

	o, err := order.New(method, req.PONumber, cart.Total, currency, shippingAddr, req.BillingAddress.ToAddress())
	if err != nil {
		return nil, err
	}
	for _, item := range cart.Items {
		if _, err := o.AddItem(item.SKU, item.Name, item.Quantity, item.UnitPrice); err != nil {
			return nil, err
		}
	}
	if method == order.PaymentMethodCard {
		o.SetPaymentIntent(strings.TrimSpace(req.PaymentIntentID))
	}
	if identity != nil && identity.Role == auth.RoleSalesperson {
		o.SetSalesperson(identity.UserID)
	}

	if err := s.orders.Save(ctx, o); err != nil {
		return nil, err
	}

	s.logger.Info("Order captured",
		zap.String("order_id", o.ID.String()),
		zap.String("reference", o.Reference()),
		zap.String("payment_method", string(o.PaymentMethod)),
		zap.String("total", o.Total.String()))

	s.dispatchPostCapture(o)

	resp := ToResponse(o)
	return &resp, nil
}

// dispatchPostCapture queues the fire-and-forget side effects of a
// successful capture. Drops are logged and otherwise ignored; each ledger
// can be retried through the manual sync endpoint, and email is best
// effort by design.
func (s *Service) dispatchPostCapture(o *order.Order) {
	if s.dispatcher == nil {
		return
	}

	orderID := o.ID
	if s.sync != nil {
		if !s.dispatcher.Dispatch("order-sync-crm", func(ctx context.Context) error {
			return s.sync.SyncOrder(ctx, orderID, order.LedgerTargetCRM)
		}) {
			s.logger.Warn("Dropped CRM sync task", zap.String("order_id", orderID.String()))
		}
		if !s.dispatcher.Dispatch("order-sync-accounting", func(ctx context.Context) error {
			return s.sync.SyncOrder(ctx, orderID, order.LedgerTargetAccounting)
		}) {
			s.logger.Warn("Dropped accounting sync task", zap.String("order_id", orderID.String()))
		}
	}

	if s.mailer != nil {
		subject, body, recipients := confirmationEmail(o)
		if !s.dispatcher.Dispatch("order-confirmation-email", func(ctx context.Context) error {
			return s.mailer.Send(ctx, subject, body, recipients)
		}) {
			s.logger.Warn("Dropped confirmation email task", zap.String("order_id", orderID.String()))
		}
	}
}

func parseCurrency(code string) (valueobject.Currency, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return valueobject.DefaultCurrency, nil
	}
	switch c := valueobject.Currency(code); c {
	case valueobject.USD, valueobject.CAD, valueobject.EUR, valueobject.GBP:
		return c, nil
	}
	return "", shared.ErrUnsupportedCurrency
}

// Get returns one order, scoped to the caller. A caller outside the
// order's scope gets the same not-found error as for a nonexistent ID, so
// the endpoint does not leak which order IDs exist.
func (s *Service) Get(ctx context.Context, identity *auth.Identity, id uuid.UUID) (*Response, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.canAccess(identity, o) {
		return nil, shared.ErrNotFound
	}
	resp := ToResponse(o)
	return &resp, nil
}

func (s *Service) canAccess(identity *auth.Identity, o *order.Order) bool {
	if identity == nil {
		return false
	}
	switch identity.Role {
	case auth.RoleSuperAdmin:
		return true
	case auth.RoleSalesperson:
		return o.SalespersonID != nil && *o.SalespersonID == identity.UserID
	case auth.RoleBuyer:
		return strings.EqualFold(o.ShippingAddress.Email, identity.Email)
	}
	return false
}

// List returns the caller's order slice: everything for admins, own book
// of business for salespeople, own purchases for buyers.
func (s *Service) List(ctx context.Context, identity *auth.Identity, filter shared.Filter) (*ListResponse, error) {
	if identity == nil {
		return nil, shared.ErrUnauthorized
	}

	var (
		orders []order.Order
		total  int64
		err    error
	)
	switch identity.Role {
	case auth.RoleSuperAdmin:
		orders, total, err = s.orders.FindAll(ctx, filter)
	case auth.RoleSalesperson:
		orders, total, err = s.orders.FindBySalesperson(ctx, identity.UserID, filter)
	case auth.RoleBuyer:
		orders, total, err = s.orders.FindByShippingEmail(ctx, identity.Email, filter)
	default:
		return nil, shared.ErrForbidden
	}
	if err != nil {
		return nil, err
	}

	responses := make([]Response, 0, len(orders))
	for i := range orders {
		responses = append(responses, ToResponse(&orders[i]))
	}
	return &ListResponse{
		Orders:   responses,
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}, nil
}

// Update applies operator changes to status, tracking number and carrier.
// A tracking notification goes out only when a tracking value actually
// changed, not on every update call.
func (s *Service) Update(ctx context.Context, identity *auth.Identity, id uuid.UUID, req *UpdateOrderRequest) (*Response, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.canAccess(identity, o) {
		return nil, shared.ErrNotFound
	}

	if req.Status != nil {
		status := order.Status(strings.ToUpper(strings.TrimSpace(*req.Status)))
		if err := o.SetStatus(status); err != nil {
			return nil, err
		}
	}

	trackingChanged := false
	if req.TrackingNumber != nil || req.Carrier != nil {
		tracking := ""
		if req.TrackingNumber != nil {
			tracking = strings.TrimSpace(*req.TrackingNumber)
		}
		carrier := ""
		if req.Carrier != nil {
			carrier = strings.TrimSpace(*req.Carrier)
		}
		trackingChanged = o.SetTracking(tracking, carrier)
	}

	if err := s.orders.Save(ctx, o); err != nil {
		return nil, err
	}

	if trackingChanged && s.dispatcher != nil && s.mailer != nil {
		subject, body, recipients := trackingEmail(o)
		orderID := o.ID
		if !s.dispatcher.Dispatch("order-tracking-email", func(ctx context.Context) error {
			return s.mailer.Send(ctx, subject, body, recipients)
		}) {
			s.logger.Warn("Dropped tracking email task", zap.String("order_id", orderID.String()))
		}
	}

	resp := ToResponse(o)
	return &resp, nil
}

// Sync manually pushes an order to one external ledger. It reuses the same
// idempotent path as the automatic post-capture sync, so retrying an
// already linked order is a successful no-op.
func (s *Service) Sync(ctx context.Context, id uuid.UUID, target order.LedgerTarget) (*Response, error) {
	if err := s.sync.SyncOrder(ctx, id, target); err != nil {
		return nil, err
	}
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToResponse(o)
	return &resp, nil
}

// Track resolves a public tracking lookup by order reference and shipping
// email. Matching is all-or-nothing and the response is a minimal
// projection with no amounts or addresses.
func (s *Service) Track(ctx context.Context, reference, email string) (*TrackResponse, error) {
	if strings.TrimSpace(reference) == "" || strings.TrimSpace(email) == "" {
		return nil, shared.ErrNotFound
	}
	o, err := s.orders.FindByReferenceAndEmail(ctx, strings.TrimSpace(reference), strings.TrimSpace(email))
	if err != nil {
		return nil, err
	}
	resp := ToTrackResponse(o)
	return &resp, nil
}
