package http

import (
	"context"
	"net/http"

	"restaurant/internal/adapters/presenter"
	"restaurant/internal/core/application/usecases/queries"
	"restaurant/internal/core/domain/model/kernel"
	"restaurant/internal/core/domain/model/table"

	"github.com/labstack/echo/v4"
)

type TableName struct {
	Name string `json:"name"`
}

// ListTables handles GET /api/v1/tables.
func (s *Server) ListTables(c echo.Context) error {
	rows, err := s.getTables.Handle(c.Request().Context(), queries.NewGetTablesQuery())
	if err != nil {
		return s.fail(c, err)
	}

	views := make([]presenter.TableView, 0, len(rows))
	for _, row := range rows {
		unbilled := row.UnbilledOrders
		views = append(views, presenter.TableView{
			ID:             row.ID.String(),
			Name:           row.Name,
			Occupancy:      row.Occupancy.String(),
			UnbilledOrders: &unbilled,
		})
	}
	return c.JSON(http.StatusOK, views)
}

// CreateTable handles POST /api/v1/tables.
func (s *Server) CreateTable(c echo.Context) error {
	var body TableName
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	created, err := s.tables.Create(c.Request().Context(), body.Name)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusCreated, presenter.Table(created))
}

// RenameTable handles PUT /api/v1/tables/:id.
func (s *Server) RenameTable(c echo.Context) error {
	id, err := bindID(c)
	if err != nil {
		return s.fail(c, err)
	}

	var body TableName
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	renamed, err := s.tables.Rename(c.Request().Context(), id, body.Name)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, presenter.Table(renamed))
}

// DeleteTable handles DELETE /api/v1/tables/:id.
func (s *Server) DeleteTable(c echo.Context) error {
	id, err := bindID(c)
	if err != nil {
		return s.fail(c, err)
	}

	if err := s.tables.Delete(c.Request().Context(), id); err != nil {
		return s.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ReserveTable handles POST /api/v1/tables/:id/reserve.
func (s *Server) ReserveTable(c echo.Context) error {
	return s.changeTable(c, s.tables.Reserve)
}

// ReleaseTable handles POST /api/v1/tables/:id/release.
func (s *Server) ReleaseTable(c echo.Context) error {
	return s.changeTable(c, s.tables.Release)
}

func (s *Server) changeTable(c echo.Context, change func(ctx context.Context, id kernel.UUID) (*table.Table, error)) error {
	id, err := bindID(c)
	if err != nil {
		return s.fail(c, err)
	}

	changed, err := change(c.Request().Context(), id)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, presenter.Table(changed))
}
