package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/partsdesk/backend/internal/domain/order"
	"github.com/partsdesk/backend/internal/domain/quote"
	"github.com/partsdesk/backend/internal/domain/shared"
)

// GormQuoteRepository implements quote.Repository using GORM
type GormQuoteRepository struct {
	db *gorm.DB
}

// NewGormQuoteRepository creates a new GormQuoteRepository
func NewGormQuoteRepository(db *gorm.DB) *GormQuoteRepository {
	return &GormQuoteRepository{db: db}
}

// FindByID finds a quote by its ID
func (r *GormQuoteRepository) FindByID(ctx context.Context, id uuid.UUID) (*quote.Quote, error) {
	var q quote.Quote
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&q, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &q, nil
}

// FindAll finds all quotes with pagination
func (r *GormQuoteRepository) FindAll(ctx context.Context, filter shared.Filter) ([]quote.Quote, int64, error) {
	query := r.db.WithContext(ctx).Model(&quote.Quote{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var quotes []quote.Quote
	if err := query.
		Preload("Items").
		Order("created_at DESC").
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&quotes).Error; err != nil {
		return nil, 0, err
	}
	return quotes, total, nil
}

// Save persists the quote and its items
func (r *GormQuoteRepository) Save(ctx context.Context, q *quote.Quote) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(q).Error; err != nil {
			return err
		}
		for i := range q.Items {
			q.Items[i].QuoteID = q.ID
			if err := tx.Save(&q.Items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SetLedgerLink writes an external ledger linkage once, with the same
// conditional-write semantics as the order repository
func (r *GormQuoteRepository) SetLedgerLink(ctx context.Context, quoteID uuid.UUID, target order.LedgerTarget, externalID string) error {
	column, ok := ledgerColumns[target]
	if !ok {
		return shared.NewDomainError("INVALID_SYNC_TARGET", "Unknown ledger target")
	}

	result := r.db.WithContext(ctx).
		Model(&quote.Quote{}).
		Where(fmt.Sprintf("id = ? AND %s IS NULL", column), quoteID).
		Update(column, externalID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&quote.Quote{}).Where("id = ?", quoteID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.ErrNotFound
		}
		return shared.ErrAlreadySynced
	}
	return nil
}
