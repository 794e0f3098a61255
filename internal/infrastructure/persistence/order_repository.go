package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/partsdesk/backend/internal/domain/order"
	"github.com/partsdesk/backend/internal/domain/shared"
)

// ledger linkage columns, keyed by target
var ledgerColumns = map[order.LedgerTarget]string{
	order.LedgerTargetCRM:        "crm_record_id",
	order.LedgerTargetAccounting: "accounting_invoice_id",
}

// GormOrderRepository implements order.Repository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds an order by its ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var o order.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&o, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// FindAll finds all orders with pagination
func (r *GormOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]order.Order, int64, error) {
	return r.findWhere(ctx, filter, nil)
}

// FindBySalesperson finds orders recorded against a salesperson
func (r *GormOrderRepository) FindBySalesperson(ctx context.Context, salespersonID uuid.UUID, filter shared.Filter) ([]order.Order, int64, error) {
	return r.findWhere(ctx, filter, func(q *gorm.DB) *gorm.DB {
		return q.Where("salesperson_id = ?", salespersonID)
	})
}

// FindByShippingEmail finds orders whose shipping email matches, case-insensitively
func (r *GormOrderRepository) FindByShippingEmail(ctx context.Context, email string, filter shared.Filter) ([]order.Order, int64, error) {
	return r.findWhere(ctx, filter, func(q *gorm.DB) *gorm.DB {
		return q.Where("LOWER(shipping_email) = ?", strings.ToLower(strings.TrimSpace(email)))
	})
}

func (r *GormOrderRepository) findWhere(ctx context.Context, filter shared.Filter, scope func(*gorm.DB) *gorm.DB) ([]order.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&order.Order{})
	if scope != nil {
		query = scope(query)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []order.Order
	if err := query.
		Preload("Items").
		Order("created_at DESC").
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// FindByReferenceAndEmail resolves a public tracking lookup. The reference
// encodes the creation date, so candidates are narrowed to that UTC day and
// the matching email before comparing derived references.
func (r *GormOrderRepository) FindByReferenceAndEmail(ctx context.Context, reference, email string) (*order.Order, error) {
	day, err := referenceDay(reference)
	if err != nil {
		return nil, shared.ErrNotFound
	}

	var orders []order.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("created_at >= ? AND created_at < ?", day, day.Add(24*time.Hour)).
		Where("LOWER(shipping_email) = ?", strings.ToLower(strings.TrimSpace(email))).
		Find(&orders).Error; err != nil {
		return nil, err
	}

	for i := range orders {
		if strings.EqualFold(orders[i].Reference(), strings.TrimSpace(reference)) {
			return &orders[i], nil
		}
	}
	return nil, shared.ErrNotFound
}

// referenceDay extracts the UTC creation day from a PD-YYYYMMDD-XXXXXX reference
func referenceDay(reference string) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(reference), "-")
	if len(parts) != 3 || parts[0] != "PD" {
		return time.Time{}, fmt.Errorf("malformed reference")
	}
	return time.ParseInLocation("20060102", parts[1], time.UTC)
}

// Save persists the order and its item snapshot
func (r *GormOrderRepository) Save(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(o).Error; err != nil {
			return err
		}
		for i := range o.Items {
			o.Items[i].OrderID = o.ID
			if err := tx.Save(&o.Items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SetLedgerLink writes an external ledger linkage once. The UPDATE's
// IS NULL predicate closes the idempotency window at the row level.
func (r *GormOrderRepository) SetLedgerLink(ctx context.Context, orderID uuid.UUID, target order.LedgerTarget, externalID string) error {
	column, ok := ledgerColumns[target]
	if !ok {
		return shared.NewDomainError("INVALID_SYNC_TARGET", "Unknown ledger target")
	}

	result := r.db.WithContext(ctx).
		Model(&order.Order{}).
		Where(fmt.Sprintf("id = ? AND %s IS NULL", column), orderID).
		Update(column, externalID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&order.Order{}).Where("id = ?", orderID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.ErrNotFound
		}
		return shared.ErrAlreadySynced
	}
	return nil
}
