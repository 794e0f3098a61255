package order

import (
	"context"

	"github.com/google/uuid"
	"github.com/partsdesk/backend/internal/domain/shared"
)

// LedgerTarget identifies which external ledger a linkage belongs to
type LedgerTarget string

const (
	LedgerTargetCRM        LedgerTarget = "crm"
	LedgerTargetAccounting LedgerTarget = "accounting"
)

// IsValid checks if the target names a known ledger
func (t LedgerTarget) IsValid() bool {
	return t == LedgerTargetCRM || t == LedgerTargetAccounting
}

// Repository is the persistence port for orders. Orders are never deleted
// in normal operation, so no Delete is exposed.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Order, int64, error)
	FindBySalesperson(ctx context.Context, salespersonID uuid.UUID, filter shared.Filter) ([]Order, int64, error)
	FindByShippingEmail(ctx context.Context, email string, filter shared.Filter) ([]Order, int64, error)
	// FindByReferenceAndEmail resolves a public tracking lookup. Both the
	// derived reference and the shipping email must match; any mismatch is
	// reported as shared.ErrNotFound.
	FindByReferenceAndEmail(ctx context.Context, reference, email string) (*Order, error)
	Save(ctx context.Context, order *Order) error
	// SetLedgerLink persists an external ledger linkage with a conditional
	// write: it succeeds only if the linkage column is still unset, and
	// returns shared.ErrAlreadySynced otherwise.
	SetLedgerLink(ctx context.Context, orderID uuid.UUID, target LedgerTarget, externalID string) error
}
