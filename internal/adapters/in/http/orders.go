package http

import (
	"net/http"

	"restaurant/internal/core/application/usecases/queries"
	"restaurant/internal/core/domain/model/kernel"
	"restaurant/internal/core/domain/model/order"
	"restaurant/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

type NewItem struct {
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice *string `json:"unitPrice,omitempty"`
	Note      string  `json:"note,omitempty"`
}

type ItemChange struct {
	PriorID   *string `json:"priorId,omitempty"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice *string `json:"unitPrice,omitempty"`
	Note      string  `json:"note,omitempty"`
	Cancel    bool    `json:"cancel,omitempty"`
}

type NewOrder struct {
	Table string    `json:"table"`
	Items []NewItem `json:"items"`
}

type ItemsUpdate struct {
	Items []ItemChange `json:"items"`
}

type StatusUpdate struct {
	Status string `json:"status"`
}

type Invoice struct {
	PaymentMethod string `json:"paymentMethod"`
}

// ListOrders handles GET /api/v1/orders. At most one of table, status, from/to and day may
// be given; unbilled narrows the table filter or, alone, lists every unbilled order.
func (s *Server) ListOrders(c echo.Context) error {
	params, err := bindListOrdersParams(c)
	if err != nil {
		return s.fail(c, err)
	}

	query, err := listOrdersQuery(params)
	if err != nil {
		return s.fail(c, err)
	}

	orders, err := s.listOrders.Handle(c.Request().Context(), query)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, s.presenter.Orders(orders))
}

// CreateOrder handles POST /api/v1/orders.
func (s *Server) CreateOrder(c echo.Context) error {
	var body NewOrder
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	drafts := make([]order.ItemDraft, 0, len(body.Items))
	for _, item := range body.Items {
		draft, err := newItemDraft(nil, item.Name, item.Quantity, item.UnitPrice, item.Note, false)
		if err != nil {
			return s.fail(c, err)
		}
		drafts = append(drafts, draft)
	}

	created, err := s.orders.Create(c.Request().Context(), body.Table, drafts)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusCreated, s.presenter.Order(created))
}

// GetOrder handles GET /api/v1/orders/:id.
func (s *Server) GetOrder(c echo.Context) error {
	id, err := bindID(c)
	if err != nil {
		return s.fail(c, err)
	}

	query, err := queries.NewGetOrderQuery(id)
	if err != nil {
		return s.fail(c, err)
	}

	found, err := s.getOrder.Handle(c.Request().Context(), query)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, s.presenter.Order(found))
}

// ReplaceOrderItems handles PUT /api/v1/orders/:id/items.
func (s *Server) ReplaceOrderItems(c echo.Context) error {
	id, err := bindID(c)
	if err != nil {
		return s.fail(c, err)
	}

	var body ItemsUpdate
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	drafts := make([]order.ItemDraft, 0, len(body.Items))
	for _, item := range body.Items {
		draft, err := newItemDraft(item.PriorID, item.Name, item.Quantity, item.UnitPrice, item.Note, item.Cancel)
		if err != nil {
			return s.fail(c, err)
		}
		drafts = append(drafts, draft)
	}

	updated, err := s.orders.ReplaceItems(c.Request().Context(), id, drafts)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, s.presenter.Order(updated))
}

// SetOrderStatus handles PUT /api/v1/orders/:id/status.
func (s *Server) SetOrderStatus(c echo.Context) error {
	id, err := bindID(c)
	if err != nil {
		return s.fail(c, err)
	}

	var body StatusUpdate
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	updated, err := s.orders.SetStatus(c.Request().Context(), id, body.Status)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, s.presenter.Order(updated))
}

// InvoiceOrder handles POST /api/v1/orders/:id/invoice.
func (s *Server) InvoiceOrder(c echo.Context) error {
	id, err := bindID(c)
	if err != nil {
		return s.fail(c, err)
	}

	var body Invoice
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	billed, err := s.orders.Invoice(c.Request().Context(), id, body.PaymentMethod)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, s.presenter.Order(billed))
}

// RemoveOrder handles DELETE /api/v1/orders/:id and answers with the removed order.
func (s *Server) RemoveOrder(c echo.Context) error {
	id, err := bindID(c)
	if err != nil {
		return s.fail(c, err)
	}

	removed, err := s.orders.Remove(c.Request().Context(), id)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, s.presenter.Order(removed))
}

func newItemDraft(
	priorID *string,
	name string,
	quantity int,
	unitPrice *string,
	note string,
	cancel bool,
) (order.ItemDraft, error) {
	draft := order.ItemDraft{Name: name, Quantity: quantity, Note: note, Cancel: cancel}

	if unitPrice != nil {
		price, err := kernel.MoneyFromString(*unitPrice)
		if err != nil {
			return order.ItemDraft{}, err
		}
		draft.UnitPrice = price
	}

	if priorID != nil {
		id, err := kernel.UUIDFromString(*priorID)
		if err != nil {
			return order.ItemDraft{}, errs.NewValueIsInvalidErrorWithCause("prior id", err)
		}
		draft.PriorID = &id
	}

	return draft, nil
}

func listOrdersQuery(params ListOrdersParams) (queries.ListOrdersQuery, error) {
	filters := 0
	for _, set := range []bool{
		params.Table != nil,
		params.Status != nil,
		params.From != nil || params.To != nil,
		params.Day != nil,
	} {
		if set {
			filters++
		}
	}
	if filters > 1 {
		return queries.ListOrdersQuery{}, errs.NewValueIsInvalidError("only one of table, status, from/to and day can be used")
	}

	unbilled := params.Unbilled != nil && *params.Unbilled

	switch {
	case params.Table != nil:
		return queries.NewListOrdersByTableQuery(*params.Table, unbilled)
	case params.Status != nil:
		return queries.NewListOrdersByStatusQuery(*params.Status)
	case params.From != nil || params.To != nil:
		if params.From == nil || params.To == nil {
			return queries.ListOrdersQuery{}, errs.NewValueIsRequiredError("from and to")
		}
		return queries.NewListOrdersCreatedBetweenQuery(*params.From, *params.To)
	case params.Day != nil:
		return queries.NewListOrdersOfDayQuery(params.Day.Time), nil
	case unbilled:
		return queries.NewListUnbilledOrdersQuery(), nil
	default:
		return queries.NewListOrdersQuery(), nil
	}
}
