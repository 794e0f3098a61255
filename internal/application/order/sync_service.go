package order

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/partsdesk/backend/internal/domain/order"
	"github.com/partsdesk/backend/internal/domain/quote"
	"github.com/partsdesk/backend/internal/domain/shared"
)

// Ledger is an external system of record an order or quote can be pushed
// to. Both adapters return the provider-side record ID on success.
type Ledger interface {
	SyncOrder(ctx context.Context, o *order.Order) (string, error)
	SyncQuote(ctx context.Context, q *quote.Quote) (string, error)
}

// ErrSyncUnavailable is returned when the requested ledger integration is
// not configured.
var ErrSyncUnavailable = shared.NewDomainError("SYNC_UNAVAILABLE", "The requested integration is not configured")

// SyncService pushes captured orders and quotes to the external ledgers.
// Every path funnels through the same guard-then-act sequence so automatic
// post-capture sync and manual retry behave identically: reload the
// aggregate, skip if its linkage is already set, create the remote record,
// then persist the linkage with a conditional write.
type SyncService struct {
	orders     order.Repository
	quotes     quote.Repository
	crm        Ledger
	accounting Ledger
	logger     *zap.Logger
}

// NewSyncService creates a sync service. Either ledger may be nil when the
// corresponding integration is disabled.
func NewSyncService(orders order.Repository, quotes quote.Repository, crm, accounting Ledger, log *zap.Logger) *SyncService {
	if log == nil {
		log = zap.NewNop()
	}
	return &SyncService{
		orders:     orders,
		quotes:     quotes,
		crm:        crm,
		accounting: accounting,
		logger:     log,
	}
}

func (s *SyncService) ledgerFor(target order.LedgerTarget) (Ledger, error) {
	var ledger Ledger
	switch target {
	case order.LedgerTargetCRM:
		ledger = s.crm
	case order.LedgerTargetAccounting:
		ledger = s.accounting
	default:
		return nil, shared.NewDomainError("INVALID_SYNC_TARGET", "Unknown sync target: "+string(target))
	}
	if ledger == nil {
		return nil, ErrSyncUnavailable
	}
	return ledger, nil
}

// SyncOrder pushes one order to one ledger. It is idempotent from the
// caller's perspective: a second call for an already linked order is a
// successful no-op. The check and the remote creation are not atomic, so
// two racing calls can create two remote records; the conditional linkage
// write keeps exactly one of them, and the stray record is cleaned up by
// hand. That trade was chosen over cross-process locking.
func (s *SyncService) SyncOrder(ctx context.Context, orderID uuid.UUID, target order.LedgerTarget) error {
	// Load before resolving the ledger so an unknown order reports
	// NOT_FOUND even when the integration is disabled.
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return err
	}

	ledger, err := s.ledgerFor(target)
	if err != nil {
		return err
	}

	log := s.logger.With(
		zap.String("order_id", orderID.String()),
		zap.String("target", string(target)),
	)

	if orderLinked(o, target) {
		log.Info("Order already synced, skipping")
		return nil
	}

	externalID, err := ledger.SyncOrder(ctx, o)
	if err != nil {
		log.Error("Order sync failed", zap.Error(err))
		return err
	}

	if err := s.orders.SetLedgerLink(ctx, orderID, target, externalID); err != nil {
		if errors.Is(err, shared.ErrAlreadySynced) {
			// Lost a race with a concurrent sync. The earlier linkage
			// stands; this remote record is the stray one.
			log.Warn("Order was linked concurrently, keeping earlier linkage",
				zap.String("stray_external_id", externalID))
			return nil
		}
		return err
	}

	log.Info("Order synced", zap.String("external_id", externalID))
	return nil
}

// SyncQuote pushes one quote to one ledger with the same idempotency
// contract as SyncOrder.
func (s *SyncService) SyncQuote(ctx context.Context, quoteID uuid.UUID, target order.LedgerTarget) error {
	q, err := s.quotes.FindByID(ctx, quoteID)
	if err != nil {
		return err
	}

	ledger, err := s.ledgerFor(target)
	if err != nil {
		return err
	}

	log := s.logger.With(
		zap.String("quote_id", quoteID.String()),
		zap.String("target", string(target)),
	)

	if quoteLinked(q, target) {
		log.Info("Quote already synced, skipping")
		return nil
	}

	externalID, err := ledger.SyncQuote(ctx, q)
	if err != nil {
		log.Error("Quote sync failed", zap.Error(err))
		return err
	}

	if err := s.quotes.SetLedgerLink(ctx, quoteID, target, externalID); err != nil {
		if errors.Is(err, shared.ErrAlreadySynced) {
			log.Warn("Quote was linked concurrently, keeping earlier linkage",
				zap.String("stray_external_id", externalID))
			return nil
		}
		return err
	}

	log.Info("Quote synced", zap.String("external_id", externalID))
	return nil
}

func orderLinked(o *order.Order, target order.LedgerTarget) bool {
	if target == order.LedgerTargetCRM {
		return o.IsSyncedToCRM()
	}
	return o.IsSyncedToAccounting()
}

func quoteLinked(q *quote.Quote, target order.LedgerTarget) bool {
	if target == order.LedgerTargetCRM {
		return q.IsSyncedToCRM()
	}
	return q.IsSyncedToAccounting()
}
