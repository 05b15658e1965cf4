package queries

import (
	"errors"

	"restaurant/internal/core/domain/model/kernel"
	"restaurant/internal/core/domain/model/table"
	"restaurant/internal/pkg/guard"
)

var ErrGetTablesQueryIsNotConstructed = errors.New(
	"GetTablesQuery must be created via NewGetTablesQuery constructor",
)

// GetTablesQuery returns the floor plan: every table with its occupancy and the number of
// unbilled orders that reference it.
type GetTablesQuery struct {
	guard guard.ConstructorGuard
}

func NewGetTablesQuery() GetTablesQuery {
	return GetTablesQuery{guard: guard.NewConstructorGuard()}
}

func (q GetTablesQuery) Validate() error {
	return q.guard.Validate(ErrGetTablesQueryIsNotConstructed)
}

type GetTablesQueryResponse struct {
	ID             kernel.UUID
	Name           string
	Occupancy      table.Occupancy
	UnbilledOrders int64
}
