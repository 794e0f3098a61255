package quote

import (
	"context"

	"github.com/google/uuid"
	"github.com/partsdesk/backend/internal/domain/order"
	"github.com/partsdesk/backend/internal/domain/shared"
)

// Repository is the persistence port for quotes
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Quote, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Quote, int64, error)
	Save(ctx context.Context, quote *Quote) error
	// SetLedgerLink persists an external ledger linkage with the same
	// conditional-write semantics as the order repository.
	SetLedgerLink(ctx context.Context, quoteID uuid.UUID, target order.LedgerTarget, externalID string) error
}
