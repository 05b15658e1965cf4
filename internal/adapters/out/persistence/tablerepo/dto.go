// Package tablerepo persists Table aggregates. A table is a single row; its name carries
// a unique index because orders refer to tables by name.
package tablerepo

import (
	"restaurant/internal/core/domain/model/kernel"
	"restaurant/internal/core/domain/model/table"

	"github.com/google/uuid"
)

type TableDTO struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"type:varchar(100);not null;uniqueIndex"`
	Occupancy int       `gorm:"type:smallint;not null"`
}

// TableName keeps clear of the reserved word "tables".
func (TableDTO) TableName() string {
	return "restaurant_tables"
}

func fromDomain(t *table.Table) TableDTO {
	return TableDTO{
		ID:        t.ID().Bytes(),
		Name:      t.Name(),
		Occupancy: int(t.Occupancy()),
	}
}

func toDomain(dto TableDTO) (*table.Table, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	return table.RestoreTable(id, dto.Name, table.Occupancy(dto.Occupancy))
}
