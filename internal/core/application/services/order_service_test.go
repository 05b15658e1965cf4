package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"restaurant/internal/adapters/out/persistence"
	"restaurant/internal/core/application/services"
	"restaurant/internal/core/application/usecases/commands"
	"restaurant/internal/core/domain/model/kernel"
	"restaurant/internal/core/domain/model/order"
	"restaurant/internal/core/domain/model/table"
	"restaurant/internal/core/ports"
	"restaurant/internal/pkg/errs"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type orderUoWFactory struct{ inner *persistence.GormUnitOfWorkFactory }

func (f orderUoWFactory) Create() commands.OrderUoW { return f.inner.Create() }

type uowFactory struct{ inner *persistence.GormUnitOfWorkFactory }

func (f uowFactory) Create() commands.UoW { return f.inner.Create() }

// recordingPublisher keeps every snapshot it receives.
type recordingPublisher struct {
	mu     sync.Mutex
	events []*order.Order
}

func (p *recordingPublisher) PublishOrder(_ context.Context, snapshot *order.Order) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, snapshot)
}

func (p *recordingPublisher) Events() []*order.Order {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*order.Order(nil), p.events...)
}

// gatedPublisher records snapshots and holds back those matching hold until release is
// closed. entered is closed when the first held snapshot arrives.
type gatedPublisher struct {
	recordingPublisher
	hold      func(*order.Order) bool
	entered   chan struct{}
	release   chan struct{}
	enterOnce sync.Once
}

func newGatedPublisher(hold func(*order.Order) bool) *gatedPublisher {
	return &gatedPublisher{
		hold:    hold,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (p *gatedPublisher) PublishOrder(ctx context.Context, snapshot *order.Order) {
	if p.hold(snapshot) {
		p.enterOnce.Do(func() { close(p.entered) })
		<-p.release
	}
	p.recordingPublisher.PublishOrder(ctx, snapshot)
}

type OrderServiceTestSuite struct {
	suite.Suite
	store       ports.UnitOfWorkFactory
	coordinator *commands.TableCoordinator
	handlers    services.OrderHandlers
	logger      logrus.FieldLogger
	publisher   *recordingPublisher
	service     *services.OrderService
}

func (s *OrderServiceTestSuite) SetupTest() {
	logger, _ := test.NewNullLogger()

	db, err := persistence.Open(persistence.Config{Driver: persistence.DriverSQLite, SQLitePath: ":memory:"}, logger)
	s.Require().NoError(err)
	s.Require().NoError(persistence.Migrate(db))
	s.T().Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})

	factory := persistence.NewGormUnitOfWorkFactory(db)
	orders := orderUoWFactory{inner: factory}
	s.store = factory
	s.coordinator = commands.NewTableCoordinator(
		uowFactory{inner: factory},
		commands.TableCoordinatorConfig{Attempts: 2, Backoff: time.Millisecond},
		logger,
	)
	s.publisher = &recordingPublisher{}
	s.logger = logger
	s.handlers = services.OrderHandlers{
		Create:       commands.NewCreateOrderCommandHandler(orders, s.coordinator, nil),
		ReplaceItems: commands.NewReplaceLineItemsCommandHandler(orders),
		SetStatus:    commands.NewSetOrderStatusCommandHandler(orders),
		Invoice:      commands.NewInvoiceOrderCommandHandler(orders, s.coordinator, logger),
		Remove:       commands.NewRemoveOrderCommandHandler(orders, s.coordinator),
	}
	s.service = s.serviceWith(s.publisher)
}

func (s *OrderServiceTestSuite) serviceWith(publishers ...ports.OrderPublisher) *services.OrderService {
	return services.NewOrderService(
		s.handlers,
		publishers,
		services.OrderServiceConfig{Attempts: 3, Backoff: time.Millisecond},
		s.logger,
	)
}

func (s *OrderServiceTestSuite) waitFor(ch <-chan struct{}, what string) {
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		s.FailNow("timed out waiting for " + what)
	}
}

func (s *OrderServiceTestSuite) occupancy(name string) table.Occupancy {
	t, err := s.store.Create().TableRepository().GetByName(s.T().Context(), name)
	s.Require().NoError(err)
	return t.Occupancy()
}

func ceviche(t *testing.T) order.ItemDraft {
	t.Helper()
	price, err := kernel.MoneyFromString("10.00")
	require.NoError(t, err)
	return order.ItemDraft{Name: "Ceviche", Quantity: 2, UnitPrice: price}
}

func (s *OrderServiceTestSuite) TestLifecycle() {
	ctx := s.T().Context()
	_, err := s.coordinator.Create(ctx, "T1")
	s.Require().NoError(err)

	created, err := s.service.Create(ctx, "T1", []order.ItemDraft{ceviche(s.T())})
	s.Require().NoError(err)
	s.Equal(order.InProgress, created.Status())
	s.Equal("20.00", created.Total().String())
	s.Equal(table.Occupied, s.occupancy("T1"))

	ready, err := s.service.SetStatus(ctx, created.ID(), "ready")
	s.Require().NoError(err)
	s.Equal(order.Ready, ready.Status())

	billed, err := s.service.Invoice(ctx, created.ID(), "card")
	s.Require().NoError(err)
	s.True(billed.IsBilled())
	s.Equal(order.Card, *billed.PaymentMethod())
	s.Equal(table.Free, s.occupancy("T1"))

	events := s.publisher.Events()
	s.Require().Len(events, 3)
	s.Equal(order.InProgress, events[0].Status())
	s.Equal(order.Ready, events[1].Status())
	s.Equal(order.Invoiced, events[2].Status())
}

func (s *OrderServiceTestSuite) TestTableStaysOccupiedUntilLastOrderIsBilled() {
	ctx := s.T().Context()
	_, err := s.coordinator.Create(ctx, "T2")
	s.Require().NoError(err)

	first, err := s.service.Create(ctx, "T2", nil)
	s.Require().NoError(err)
	second, err := s.service.Create(ctx, "T2", nil)
	s.Require().NoError(err)

	_, err = s.service.Invoice(ctx, first.ID(), "cash")
	s.Require().NoError(err)
	s.Equal(table.Occupied, s.occupancy("T2"))

	_, err = s.service.Invoice(ctx, second.ID(), "cash")
	s.Require().NoError(err)
	s.Equal(table.Free, s.occupancy("T2"))
}

func (s *OrderServiceTestSuite) TestInvoiceFallsBackToDefaultMethod() {
	created, err := s.service.Create(s.T().Context(), "Bar", nil)
	s.Require().NoError(err)

	billed, err := s.service.Invoice(s.T().Context(), created.ID(), "bitcoin")

	s.Require().NoError(err)
	s.Equal(order.DefaultPaymentMethod, *billed.PaymentMethod())
}

func (s *OrderServiceTestSuite) TestRemovePublishesLastSnapshot() {
	ctx := s.T().Context()
	_, err := s.coordinator.Create(ctx, "T3")
	s.Require().NoError(err)
	created, err := s.service.Create(ctx, "T3", []order.ItemDraft{ceviche(s.T())})
	s.Require().NoError(err)

	removed, err := s.service.Remove(ctx, created.ID())
	s.Require().NoError(err)
	s.True(removed.ID().IsEqual(created.ID()))
	s.Equal(table.Free, s.occupancy("T3"))

	events := s.publisher.Events()
	s.Require().Len(events, 2)
	s.True(events[1].ID().IsEqual(created.ID()))
	s.Equal("20.00", events[1].Total().String())

	_, err = s.store.Create().OrderRepository().Get(ctx, created.ID())
	s.ErrorIs(err, errs.ErrObjectNotFound)
}

func (s *OrderServiceTestSuite) TestFailuresAreNotPublished() {
	ctx := s.T().Context()

	_, err := s.service.Create(ctx, "  ", nil)
	s.ErrorIs(err, errs.ErrValueIsRequired)

	_, err = s.service.SetStatus(ctx, kernel.NewUUID(), "ready")
	s.ErrorIs(err, errs.ErrObjectNotFound)

	created, err := s.service.Create(ctx, "T4", nil)
	s.Require().NoError(err)
	_, err = s.service.SetStatus(ctx, created.ID(), "teleported")
	s.ErrorIs(err, errs.ErrValueIsInvalid)
	_, err = s.service.SetStatus(ctx, created.ID(), "invoiced")
	s.ErrorIs(err, errs.ErrValueIsInvalid)

	s.Len(s.publisher.Events(), 1)
}

func (s *OrderServiceTestSuite) TestConcurrentMutationsOfOneOrder() {
	ctx := s.T().Context()
	created, err := s.service.Create(ctx, "T5", []order.ItemDraft{ceviche(s.T())})
	s.Require().NoError(err)

	const writers = 8
	var wg sync.WaitGroup
	errCh := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(quantity int) {
			defer wg.Done()
			draft := ceviche(s.T())
			draft.Quantity = quantity
			_, err := s.service.ReplaceItems(ctx, created.ID(), []order.ItemDraft{draft})
			errCh <- err
		}(i + 1)
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		s.NoError(err)
	}

	stored, err := s.store.Create().OrderRepository().Get(ctx, created.ID())
	s.Require().NoError(err)
	s.Equal(writers, stored.Version())
	s.Len(s.publisher.Events(), writers+1)
}

func (s *OrderServiceTestSuite) TestRemovingOrdersFreesTableAfterTheLastOne() {
	ctx := s.T().Context()
	_, err := s.coordinator.Create(ctx, "T7")
	s.Require().NoError(err)

	first, err := s.service.Create(ctx, "T7", nil)
	s.Require().NoError(err)
	second, err := s.service.Create(ctx, "T7", nil)
	s.Require().NoError(err)

	_, err = s.service.Remove(ctx, first.ID())
	s.Require().NoError(err)
	s.Equal(table.Occupied, s.occupancy("T7"))

	_, err = s.service.Remove(ctx, second.ID())
	s.Require().NoError(err)
	s.Equal(table.Free, s.occupancy("T7"))
}

func (s *OrderServiceTestSuite) TestSnapshotsOfOneOrderLeaveInCommitOrder() {
	ctx := s.T().Context()
	created, err := s.service.Create(ctx, "T8", nil)
	s.Require().NoError(err)

	gate := newGatedPublisher(func(o *order.Order) bool { return o.Status() == order.Ready })
	service := s.serviceWith(gate)

	readyDone := make(chan error, 1)
	go func() {
		_, err := service.SetStatus(ctx, created.ID(), "ready")
		readyDone <- err
	}()
	s.waitFor(gate.entered, "the READY snapshot")

	deliveredDone := make(chan error, 1)
	go func() {
		_, err := service.SetStatus(ctx, created.ID(), "delivered")
		deliveredDone <- err
	}()

	select {
	case <-deliveredDone:
		s.FailNow("second change finished while the first snapshot was still being sent")
	case <-time.After(50 * time.Millisecond):
	}

	close(gate.release)
	s.Require().NoError(<-readyDone)
	s.Require().NoError(<-deliveredDone)

	events := gate.Events()
	s.Require().Len(events, 2)
	s.Equal(order.Ready, events[0].Status())
	s.Equal(order.Delivered, events[1].Status())
}

func (s *OrderServiceTestSuite) TestInvoicesOnDifferentTablesDoNotWaitForEachOther() {
	ctx := s.T().Context()
	for _, name := range []string{"T9", "T10"} {
		_, err := s.coordinator.Create(ctx, name)
		s.Require().NoError(err)
	}
	slow, err := s.service.Create(ctx, "T9", nil)
	s.Require().NoError(err)
	fast, err := s.service.Create(ctx, "T10", nil)
	s.Require().NoError(err)

	gate := newGatedPublisher(func(o *order.Order) bool { return o.TableName() == "T9" })
	service := s.serviceWith(gate)

	slowDone := make(chan error, 1)
	go func() {
		_, err := service.Invoice(ctx, slow.ID(), "cash")
		slowDone <- err
	}()
	s.waitFor(gate.entered, "the T9 invoice")

	fastDone := make(chan error, 1)
	go func() {
		_, err := service.Invoice(ctx, fast.ID(), "card")
		fastDone <- err
	}()

	select {
	case err := <-fastDone:
		s.Require().NoError(err)
	case <-time.After(2 * time.Second):
		s.FailNow("T10 invoice waited for the T9 invoice")
	}
	s.Equal(table.Free, s.occupancy("T10"))

	close(gate.release)
	s.Require().NoError(<-slowDone)
	s.Equal(table.Free, s.occupancy("T9"))

	events := gate.Events()
	s.Require().Len(events, 2)
	s.Equal("T10", events[0].TableName())
	s.Equal("T9", events[1].TableName())
}

func TestOrderServiceTestSuite(t *testing.T) {
	suite.Run(t, new(OrderServiceTestSuite))
}

type MockSetStatusHandler struct {
	mock.Mock
}

func (m *MockSetStatusHandler) Handle(ctx context.Context, cmd commands.SetOrderStatusCommand) (*order.Order, error) {
	args := m.Called(ctx, cmd)
	if o := args.Get(0); o != nil {
		return o.(*order.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestOrderService_RetriesLostUpdates(t *testing.T) {
	logger, _ := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	snapshot, err := order.NewOrder(kernel.NewUUID(), "T1", time.Now(), nil)
	require.NoError(t, err)
	conflict := errs.NewConflictError("order", snapshot.ID().String())

	t.Run("should retry and publish once on success", func(t *testing.T) {
		handler := &MockSetStatusHandler{}
		publisher := &recordingPublisher{}
		handler.On("Handle", mock.Anything, mock.Anything).Return(nil, conflict).Twice()
		handler.On("Handle", mock.Anything, mock.Anything).Return(snapshot, nil).Once()

		service := services.NewOrderService(
			services.OrderHandlers{SetStatus: handler},
			[]ports.OrderPublisher{publisher},
			services.OrderServiceConfig{Attempts: 3, Backoff: time.Millisecond},
			logger,
		)

		result, err := service.SetStatus(t.Context(), snapshot.ID(), "READY")

		require.NoError(t, err)
		assert.Same(t, snapshot, result)
		assert.Len(t, publisher.Events(), 1)
		handler.AssertNumberOfCalls(t, "Handle", 3)
	})

	t.Run("should surface the conflict after the last attempt", func(t *testing.T) {
		handler := &MockSetStatusHandler{}
		publisher := &recordingPublisher{}
		handler.On("Handle", mock.Anything, mock.Anything).Return(nil, conflict)

		service := services.NewOrderService(
			services.OrderHandlers{SetStatus: handler},
			[]ports.OrderPublisher{publisher},
			services.OrderServiceConfig{Attempts: 2, Backoff: time.Millisecond},
			logger,
		)

		_, err := service.SetStatus(t.Context(), snapshot.ID(), "READY")

		require.ErrorIs(t, err, errs.ErrConflict)
		assert.Empty(t, publisher.Events())
		handler.AssertNumberOfCalls(t, "Handle", 2)
	})

	t.Run("should not retry other failures", func(t *testing.T) {
		handler := &MockSetStatusHandler{}
		handler.On("Handle", mock.Anything, mock.Anything).
			Return(nil, errs.NewObjectNotFoundError("order", snapshot.ID().String())).Once()

		service := services.NewOrderService(
			services.OrderHandlers{SetStatus: handler},
			nil,
			services.OrderServiceConfig{Attempts: 5, Backoff: time.Millisecond},
			logger,
		)

		_, err := service.SetStatus(t.Context(), snapshot.ID(), "READY")

		require.ErrorIs(t, err, errs.ErrObjectNotFound)
		handler.AssertExpectations(t)
	})

	t.Run("should stop waiting when the context ends", func(t *testing.T) {
		handler := &MockSetStatusHandler{}
		handler.On("Handle", mock.Anything, mock.Anything).Return(nil, conflict).Once()

		service := services.NewOrderService(
			services.OrderHandlers{SetStatus: handler},
			nil,
			services.OrderServiceConfig{Attempts: 5, Backoff: time.Hour},
			logger,
		)

		ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
		defer cancel()
		_, err := service.SetStatus(ctx, snapshot.ID(), "READY")

		require.ErrorIs(t, err, errs.ErrConflict)
		require.ErrorIs(t, err, context.DeadlineExceeded)
		handler.AssertExpectations(t)
	})
}
