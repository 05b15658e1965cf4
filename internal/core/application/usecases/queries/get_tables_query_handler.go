package queries

import (
	"context"

	"restaurant/internal/core/domain/model/kernel"
	"restaurant/internal/core/domain/model/table"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetTablesQueryHandler reads the floor plan straight from the database in one
// statement.
//
// Example:
//
//	handler := NewGetTablesQueryHandler(db)
//	tables, err := handler.Handle(ctx, NewGetTablesQuery())
//	for _, t := range tables {
//	    fmt.Printf("%s: %s (%d open)\n", t.Name, t.Occupancy, t.UnbilledOrders)
//	}
type GetTablesQueryHandler struct {
	db *gorm.DB
}

func NewGetTablesQueryHandler(db *gorm.DB) GetTablesQueryHandler {
	return GetTablesQueryHandler{db: db}
}

// Handle returns tables sorted by name.
func (h GetTablesQueryHandler) Handle(ctx context.Context, query GetTablesQuery) ([]GetTablesQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	tables := make([]GetTablesQueryResponse, 0)

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			t.id,
			t.name,
			t.occupancy,
			COUNT(o.id) AS unbilled
		FROM restaurant_tables t
		LEFT JOIN orders o ON o.table_name = t.name AND o.billed = ?
		GROUP BY t.id, t.name, t.occupancy
		ORDER BY t.name
	`, false).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var resp GetTablesQueryResponse
		var occupancy int

		if err = rows.Scan(&id, &resp.Name, &occupancy, &resp.UnbilledOrders); err != nil {
			return nil, err
		}

		tableID, idErr := kernel.UUIDFromBytes(id[:])
		if idErr != nil {
			return nil, idErr
		}
		resp.ID = tableID

		resp.Occupancy = table.Occupancy(occupancy)
		if err = resp.Occupancy.Validate(); err != nil {
			return nil, err
		}

		tables = append(tables, resp)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return tables, nil
}
