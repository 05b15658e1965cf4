// Package http exposes orders, tables and the live order streams over Echo.
package http

import (
	"context"
	"net/http"

	"restaurant/internal/adapters/out/broadcast"
	"restaurant/internal/adapters/presenter"
	"restaurant/internal/core/application/usecases/queries"
	"restaurant/internal/core/domain/model/kernel"
	"restaurant/internal/core/domain/model/order"
	"restaurant/internal/core/domain/model/table"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type OrderService interface {
	Create(ctx context.Context, tableName string, items []order.ItemDraft) (*order.Order, error)
	ReplaceItems(ctx context.Context, orderID kernel.UUID, items []order.ItemDraft) (*order.Order, error)
	SetStatus(ctx context.Context, orderID kernel.UUID, status string) (*order.Order, error)
	Invoice(ctx context.Context, orderID kernel.UUID, paymentMethod string) (*order.Order, error)
	Remove(ctx context.Context, orderID kernel.UUID) (*order.Order, error)
}

type TableService interface {
	Create(ctx context.Context, name string) (*table.Table, error)
	Rename(ctx context.Context, id kernel.UUID, newName string) (*table.Table, error)
	Delete(ctx context.Context, id kernel.UUID) error
	Reserve(ctx context.Context, id kernel.UUID) (*table.Table, error)
	Release(ctx context.Context, id kernel.UUID) (*table.Table, error)
}

type GetOrderHandler interface {
	Handle(ctx context.Context, query queries.GetOrderQuery) (*order.Order, error)
}

type ListOrdersHandler interface {
	Handle(ctx context.Context, query queries.ListOrdersQuery) ([]*order.Order, error)
}

type GetTablesHandler interface {
	Handle(ctx context.Context, query queries.GetTablesQuery) ([]queries.GetTablesQueryResponse, error)
}

// ViewerHub is the part of the broadcast hub the stream endpoints need.
type ViewerHub interface {
	Subscribe(ctx context.Context, viewer broadcast.Viewer) (*broadcast.Connection, error)
	Unsubscribe(conn *broadcast.Connection)
	Touch(conn *broadcast.Connection)
	ActiveCount() int
	Connections() []broadcast.ConnectionInfo
}

// Dependencies lists what the Server delegates to. Health may be nil.
type Dependencies struct {
	Orders     OrderService
	Tables     TableService
	GetOrder   GetOrderHandler
	ListOrders ListOrdersHandler
	GetTables  GetTablesHandler
	Hub        ViewerHub
	Presenter  presenter.OrderPresenter
	Health     func(ctx context.Context) error
	Logger     logrus.FieldLogger
}

// Server translates HTTP requests into application calls and domain results into views.
type Server struct {
	orders     OrderService
	tables     TableService
	getOrder   GetOrderHandler
	listOrders ListOrdersHandler
	getTables  GetTablesHandler
	hub        ViewerHub
	presenter  presenter.OrderPresenter
	health     func(ctx context.Context) error
	logger     logrus.FieldLogger
}

func NewServer(deps Dependencies) *Server {
	return &Server{
		orders:     deps.Orders,
		tables:     deps.Tables,
		getOrder:   deps.GetOrder,
		listOrders: deps.ListOrders,
		getTables:  deps.GetTables,
		hub:        deps.Hub,
		presenter:  deps.Presenter,
		health:     deps.Health,
		logger:     deps.Logger.WithField("component", "http"),
	}
}

// RegisterHandlers mounts every route of s on e.
func RegisterHandlers(e *echo.Echo, s *Server) {
	e.GET("/health", s.Health)

	api := e.Group("/api/v1")

	api.GET("/orders", s.ListOrders)
	api.POST("/orders", s.CreateOrder)
	api.GET("/orders/:id", s.GetOrder)
	api.DELETE("/orders/:id", s.RemoveOrder)
	api.PUT("/orders/:id/items", s.ReplaceOrderItems)
	api.PUT("/orders/:id/status", s.SetOrderStatus)
	api.POST("/orders/:id/invoice", s.InvoiceOrder)

	api.GET("/tables", s.ListTables)
	api.POST("/tables", s.CreateTable)
	api.PUT("/tables/:id", s.RenameTable)
	api.DELETE("/tables/:id", s.DeleteTable)
	api.POST("/tables/:id/reserve", s.ReserveTable)
	api.POST("/tables/:id/release", s.ReleaseTable)

	api.GET("/stream/orders", s.StreamOrders)
	api.GET("/ws/orders", s.WatchOrders)
	api.GET("/viewers", s.ListViewers)
}

// Health handles GET /health.
func (s *Server) Health(c echo.Context) error {
	if s.health != nil {
		if err := s.health(c.Request().Context()); err != nil {
			s.logger.WithError(err).Warn("health check failed")
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
