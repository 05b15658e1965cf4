package http

import (
	"time"

	"restaurant/internal/core/domain/model/kernel"
	"restaurant/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
	"github.com/oapi-codegen/runtime/types"
)

// ListOrdersParams are the optional filters of GET /api/v1/orders.
type ListOrdersParams struct {
	Table    *string
	Unbilled *bool
	Status   *string
	From     *time.Time
	To       *time.Time
	Day      *types.Date
}

func bindID(c echo.Context) (kernel.UUID, error) {
	var id uuid.UUID
	if err := runtime.BindStyledParameterWithOptions("simple", "id", c.Param("id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true},
	); err != nil {
		return kernel.UUID{}, errs.NewValueIsInvalidErrorWithCause("id", err)
	}

	restored, err := kernel.UUIDFromBytes(id[:])
	if err != nil {
		return kernel.UUID{}, errs.NewValueIsInvalidErrorWithCause("id", err)
	}
	return restored, nil
}

func bindListOrdersParams(c echo.Context) (ListOrdersParams, error) {
	var params ListOrdersParams
	query := c.QueryParams()

	for name, dest := range map[string]any{
		"table":    &params.Table,
		"unbilled": &params.Unbilled,
		"status":   &params.Status,
		"from":     &params.From,
		"to":       &params.To,
		"day":      &params.Day,
	} {
		if err := runtime.BindQueryParameter("form", true, false, name, query, dest); err != nil {
			return ListOrdersParams{}, errs.NewValueIsInvalidErrorWithCause(name, err)
		}
	}
	return params, nil
}
