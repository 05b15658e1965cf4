package cmd

import (
	"context"
	"time"

	httpin "restaurant/internal/adapters/in/http"
	"restaurant/internal/adapters/out/broadcast"
	"restaurant/internal/adapters/out/persistence"
	"restaurant/internal/adapters/out/persistence/orderrepo"
	"restaurant/internal/adapters/out/rabbitmq"
	"restaurant/internal/adapters/presenter"
	"restaurant/internal/core/application/services"
	"restaurant/internal/core/application/usecases/commands"
	"restaurant/internal/core/application/usecases/queries"
	"restaurant/internal/core/ports"
	"restaurant/internal/jobs"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CompositionRoot wires the adapters to the application. The coordinator, the hub and
// the presenter are shared by everything it creates.
type CompositionRoot struct {
	configs     Config
	gormDB      *gorm.DB
	uowFactory  *persistence.GormUnitOfWorkFactory
	logger      logrus.FieldLogger
	presenter   presenter.OrderPresenter
	hub         *broadcast.Hub
	coordinator *commands.TableCoordinator
}

func NewCompositionRoot(configs Config, gormDB *gorm.DB, logger logrus.FieldLogger) *CompositionRoot {
	c := &CompositionRoot{
		configs:    configs,
		gormDB:     gormDB,
		uowFactory: persistence.NewGormUnitOfWorkFactory(gormDB),
		logger:     logger,
		presenter:  presenter.NewOrderPresenter(configs.QR()),
	}
	c.hub = broadcast.NewHub(configs.Broadcast(), c.presenter, logger)
	c.coordinator = commands.NewTableCoordinator(c.uowFactoryForTables(), configs.TableCoordinator(), logger)
	return c
}

func (c *CompositionRoot) Hub() *broadcast.Hub {
	return c.hub
}

func (c *CompositionRoot) TableCoordinator() *commands.TableCoordinator {
	return c.coordinator
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	return commands.NewCreateOrderCommandHandler(c.uowFactoryForOrders(), c.coordinator, time.Now)
}

func (c *CompositionRoot) CreateReplaceLineItemsCommandHandler() commands.ReplaceLineItemsCommandHandler {
	return commands.NewReplaceLineItemsCommandHandler(c.uowFactoryForOrders())
}

func (c *CompositionRoot) CreateSetOrderStatusCommandHandler() commands.SetOrderStatusCommandHandler {
	return commands.NewSetOrderStatusCommandHandler(c.uowFactoryForOrders())
}

func (c *CompositionRoot) CreateInvoiceOrderCommandHandler() commands.InvoiceOrderCommandHandler {
	return commands.NewInvoiceOrderCommandHandler(c.uowFactoryForOrders(), c.coordinator, c.logger)
}

func (c *CompositionRoot) CreateRemoveOrderCommandHandler() commands.RemoveOrderCommandHandler {
	return commands.NewRemoveOrderCommandHandler(c.uowFactoryForOrders(), c.coordinator)
}

func (c *CompositionRoot) CreateGetOrderQueryHandler() queries.GetOrderQueryHandler {
	return queries.NewGetOrderQueryHandler(orderrepo.NewGormOrderRepository(c.gormDB))
}

func (c *CompositionRoot) CreateListOrdersQueryHandler() queries.ListOrdersQueryHandler {
	return queries.NewListOrdersQueryHandler(orderrepo.NewGormOrderRepository(c.gormDB))
}

func (c *CompositionRoot) CreateGetTablesQueryHandler() queries.GetTablesQueryHandler {
	return queries.NewGetTablesQueryHandler(c.gormDB)
}

// CreateOrderService publishes to the hub and to every extra publisher.
func (c *CompositionRoot) CreateOrderService(extra ...ports.OrderPublisher) *services.OrderService {
	publishers := append([]ports.OrderPublisher{c.hub}, extra...)
	return services.NewOrderService(
		services.OrderHandlers{
			Create:       c.CreateCreateOrderCommandHandler(),
			ReplaceItems: c.CreateReplaceLineItemsCommandHandler(),
			SetStatus:    c.CreateSetOrderStatusCommandHandler(),
			Invoice:      c.CreateInvoiceOrderCommandHandler(),
			Remove:       c.CreateRemoveOrderCommandHandler(),
		},
		publishers,
		c.configs.OrderService(),
		c.logger,
	)
}

func (c *CompositionRoot) CreateHTTPServer(orders *services.OrderService) *httpin.Server {
	return httpin.NewServer(httpin.Dependencies{
		Orders:     orders,
		Tables:     c.coordinator,
		GetOrder:   c.CreateGetOrderQueryHandler(),
		ListOrders: c.CreateListOrdersQueryHandler(),
		GetTables:  c.CreateGetTablesQueryHandler(),
		Hub:        c.hub,
		Presenter:  c.presenter,
		Health:     c.pingDatabase,
		Logger:     c.logger,
	})
}

func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	return jobs.NewJobManager(c.coordinator, c.hub, c.configs.Schedules(), c.logger)
}

// ConnectRelay dials RabbitMQ when AMQP_URL is set. It returns nil without a URL.
func (c *CompositionRoot) ConnectRelay() (*rabbitmq.OrderRelay, error) {
	if c.configs.AMQPURL == "" {
		return nil, nil
	}
	return rabbitmq.Dial(c.configs.Relay(), c.presenter, c.logger)
}

func (c *CompositionRoot) pingDatabase(ctx context.Context) error {
	sqlDB, err := c.gormDB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (c *CompositionRoot) uowFactoryForOrders() commands.OrderUoWFactory {
	return FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) uowFactoryForTables() commands.UoWFactory {
	return FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}

type FuncUoWFactory func() commands.UoW

func (f FuncUoWFactory) Create() commands.UoW {
	return f()
}
