package orderrepo

import (
	"context"
	"errors"
	"time"

	"restaurant/internal/adapters/out/persistence/storeerr"
	"restaurant/internal/core/domain/model/kernel"
	"restaurant/internal/core/domain/model/order"
	"restaurant/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if storeerr.IsDuplicate(err) {
			return errs.NewConflictErrorWithCause("order", aggregate.ID().String(), err)
		}
		return storeerr.Classify("add order", err)
	}

	return nil
}

// Update writes the order under its current version and replaces its line items. It
// must run inside a transaction so that the header and the items change together.
func (r *GormOrderRepository) Update(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	db := r.db.WithContext(ctx)

	result := db.Model(&OrderDTO{}).
		Where("id = ? AND version = ?", dto.ID, dto.Version).
		Updates(map[string]any{
			"table_name":     dto.Table,
			"status":         dto.Status,
			"total":          dto.Total,
			"billed":         dto.Billed,
			"payment_method": dto.PaymentMethod,
			"version":        dto.Version + 1,
		})
	if result.Error != nil {
		return storeerr.Classify("update order", result.Error)
	}

	if result.RowsAffected == 0 {
		return r.missingOrStale(ctx, aggregate)
	}

	if err := db.Where("order_id = ?", dto.ID).Delete(&LineItemDTO{}).Error; err != nil {
		return storeerr.Classify("replace order items", err)
	}

	if len(dto.LineItems) > 0 {
		if err := db.Create(&dto.LineItems).Error; err != nil {
			return storeerr.Classify("replace order items", err)
		}
	}

	aggregate.AdvanceVersion()
	return nil
}

func (r *GormOrderRepository) Delete(ctx context.Context, id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}

	db := r.db.WithContext(ctx)
	if err := db.Where("order_id = ?", id.Bytes()).Delete(&LineItemDTO{}).Error; err != nil {
		return storeerr.Classify("delete order items", err)
	}

	result := db.Where("id = ?", id.Bytes()).Delete(&OrderDTO{})
	if result.Error != nil {
		return storeerr.Classify("delete order", result.Error)
	}

	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("order", id.String())
	}

	return nil
}

func (r *GormOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	return r.get(ctx, id, r.db)
}

// GetForUpdate takes a row lock on PostgreSQL. SQLite serializes writers on its own and
// has no FOR UPDATE.
func (r *GormOrderRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	db := r.db
	if db.Dialector.Name() == "postgres" {
		db = db.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
	}
	return r.get(ctx, id, db)
}

func (r *GormOrderRepository) FindAll(ctx context.Context) ([]*order.Order, error) {
	return r.find(ctx, "find orders", r.db)
}

func (r *GormOrderRepository) FindByTable(ctx context.Context, tableName string) ([]*order.Order, error) {
	return r.find(ctx, "find orders by table", r.db.Where("table_name = ?", tableName))
}

func (r *GormOrderRepository) FindUnbilledByTable(ctx context.Context, tableName string) ([]*order.Order, error) {
	return r.find(ctx, "find unbilled orders by table",
		r.db.Where("table_name = ? AND billed = ?", tableName, false))
}

func (r *GormOrderRepository) FindUnbilled(ctx context.Context) ([]*order.Order, error) {
	return r.find(ctx, "find unbilled orders", r.db.Where("billed = ?", false))
}

func (r *GormOrderRepository) FindByStatus(ctx context.Context, status order.Status) ([]*order.Order, error) {
	if err := status.Validate(); err != nil {
		return nil, err
	}
	return r.find(ctx, "find orders by status", r.db.Where("status = ?", int(status)))
}

// FindCreatedBetween returns orders created in the half-open range [from, to).
func (r *GormOrderRepository) FindCreatedBetween(ctx context.Context, from, to time.Time) ([]*order.Order, error) {
	return r.find(ctx, "find orders by creation time",
		r.db.Where("created_at >= ? AND created_at < ?", from.UTC(), to.UTC()))
}

func (r *GormOrderRepository) CountUnbilledByTable(ctx context.Context, tableName string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&OrderDTO{}).
		Where("table_name = ? AND billed = ?", tableName, false).
		Count(&count).Error; err != nil {
		return 0, storeerr.Classify("count unbilled orders", err)
	}
	return count, nil
}

func (r *GormOrderRepository) get(ctx context.Context, id kernel.UUID, db *gorm.DB) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto OrderDTO
	if err := db.WithContext(ctx).
		Preload("LineItems", byPosition).
		First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order", id.String())
		}
		return nil, storeerr.Classify("get order", err)
	}

	return toDomain(dto)
}

func (r *GormOrderRepository) find(ctx context.Context, operation string, db *gorm.DB) ([]*order.Order, error) {
	var dtos []OrderDTO
	if err := db.WithContext(ctx).
		Preload("LineItems", byPosition).
		Order("created_at").
		Order("id").
		Find(&dtos).Error; err != nil {
		return nil, storeerr.Classify(operation, err)
	}

	orders := make([]*order.Order, 0, len(dtos))
	for _, dto := range dtos {
		o, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	return orders, nil
}

// missingOrStale explains an update that matched no row.
func (r *GormOrderRepository) missingOrStale(ctx context.Context, aggregate *order.Order) error {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&OrderDTO{}).
		Where("id = ?", aggregate.ID().Bytes()).
		Count(&count).Error; err != nil {
		return storeerr.Classify("update order", err)
	}

	if count == 0 {
		return errs.NewObjectNotFoundError("order", aggregate.ID().String())
	}
	return errs.NewConflictErrorWithCause(
		"order",
		aggregate.ID().String(),
		errs.NewVersionIsInvalidErrorWithCause("version"),
	)
}

func byPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position")
}
