package tablerepo

import (
	"context"
	"errors"

	"restaurant/internal/adapters/out/persistence/storeerr"
	"restaurant/internal/core/domain/model/kernel"
	"restaurant/internal/core/domain/model/table"
	"restaurant/internal/pkg/errs"

	"gorm.io/gorm"
)

var errNameIsTaken = errors.New("name is already taken")

type GormTableRepository struct {
	db *gorm.DB
}

func NewGormTableRepository(db *gorm.DB) *GormTableRepository {
	return &GormTableRepository{db: db}
}

func (r *GormTableRepository) Add(ctx context.Context, aggregate *table.Table) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if storeerr.IsDuplicate(err) {
			return errs.NewConflictErrorWithCause("table", aggregate.Name(), errNameIsTaken)
		}
		return storeerr.Classify("add table", err)
	}

	return nil
}

func (r *GormTableRepository) Update(ctx context.Context, aggregate *table.Table) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).
		Model(&TableDTO{}).
		Where("id = ?", dto.ID).
		Updates(map[string]any{
			"name":      dto.Name,
			"occupancy": dto.Occupancy,
		})
	if result.Error != nil {
		if storeerr.IsDuplicate(result.Error) {
			return errs.NewConflictErrorWithCause("table", aggregate.Name(), errNameIsTaken)
		}
		return storeerr.Classify("update table", result.Error)
	}

	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("table", aggregate.ID().String())
	}

	return nil
}

func (r *GormTableRepository) Delete(ctx context.Context, id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Where("id = ?", id.Bytes()).Delete(&TableDTO{})
	if result.Error != nil {
		return storeerr.Classify("delete table", result.Error)
	}

	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("table", id.String())
	}

	return nil
}

func (r *GormTableRepository) Get(ctx context.Context, id kernel.UUID) (*table.Table, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto TableDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("table", id.String())
		}
		return nil, storeerr.Classify("get table", err)
	}

	return toDomain(dto)
}

func (r *GormTableRepository) GetByName(ctx context.Context, name string) (*table.Table, error) {
	var dto TableDTO
	if err := r.db.WithContext(ctx).First(&dto, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("table", name)
		}
		return nil, storeerr.Classify("get table by name", err)
	}

	return toDomain(dto)
}

func (r *GormTableRepository) FindAll(ctx context.Context) ([]*table.Table, error) {
	var dtos []TableDTO
	if err := r.db.WithContext(ctx).Order("name").Find(&dtos).Error; err != nil {
		return nil, storeerr.Classify("find tables", err)
	}

	tables := make([]*table.Table, 0, len(dtos))
	for _, dto := range dtos {
		t, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}

	return tables, nil
}
