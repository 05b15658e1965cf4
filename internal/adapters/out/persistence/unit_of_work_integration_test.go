package persistence_test

import (
	"context"
	"testing"
	"time"

	"restaurant/internal/adapters/out/persistence"
	"restaurant/internal/core/domain/model/kernel"
	"restaurant/internal/core/domain/model/order"
	"restaurant/internal/core/domain/model/table"
	"restaurant/internal/core/ports"
	"restaurant/internal/pkg/errs"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gorm_postgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// UnitOfWorkIntegrationTestSuite runs the GORM Unit of Work and both repositories
// against a real PostgreSQL server.
type UnitOfWorkIntegrationTestSuite struct {
	suite.Suite
	container *postgres.PostgresContainer
	db        *gorm.DB
	factory   ports.UnitOfWorkFactory
}

func (suite *UnitOfWorkIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(30*time.Second)),
	)
	suite.Require().NoError(err)
	suite.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	db, err := gorm.Open(gorm_postgres.Open(dsn), &gorm.Config{TranslateError: true})
	suite.Require().NoError(err)
	suite.db = db

	suite.Require().NoError(persistence.Migrate(db))
	suite.factory = persistence.NewGormUnitOfWorkFactory(db)
}

func (suite *UnitOfWorkIntegrationTestSuite) SetupTest() {
	err := suite.db.Exec("TRUNCATE TABLE order_line_items, orders, restaurant_tables").Error
	suite.Require().NoError(err)
}

func (suite *UnitOfWorkIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *UnitOfWorkIntegrationTestSuite) TestTransactionLifecycle() {
	ctx := suite.T().Context()
	uow := suite.factory.Create()

	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.Begin(ctx), "a second Begin keeps the open transaction")
	suite.Require().NoError(uow.Commit(ctx))

	suite.Error(uow.Commit(ctx), "commit without a transaction")
	suite.Error(uow.Rollback(ctx), "rollback without a transaction")
}

func (suite *UnitOfWorkIntegrationTestSuite) TestCommitSpansBothRepositories() {
	ctx := suite.T().Context()
	uow := suite.factory.Create()

	tbl := suite.newTable("T1")
	o := suite.newOrder("T1")

	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.TableRepository().Add(ctx, tbl))
	suite.Require().NoError(uow.OrderRepository().Add(ctx, o))
	suite.Require().True(tbl.Occupy())
	suite.Require().NoError(uow.TableRepository().Update(ctx, tbl))
	suite.Require().NoError(uow.Commit(ctx))

	reader := suite.factory.Create()
	loaded, err := reader.OrderRepository().Get(ctx, o.ID())
	suite.Require().NoError(err)
	suite.Equal("21.00", loaded.Total().String())

	seated, err := reader.TableRepository().GetByName(ctx, "T1")
	suite.Require().NoError(err)
	suite.Equal(table.Occupied, seated.Occupancy())
}

func (suite *UnitOfWorkIntegrationTestSuite) TestRollbackDiscardsEverything() {
	ctx := suite.T().Context()
	uow := suite.factory.Create()

	tbl := suite.newTable("T1")
	o := suite.newOrder("T1")

	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.TableRepository().Add(ctx, tbl))
	suite.Require().NoError(uow.OrderRepository().Add(ctx, o))
	suite.Require().NoError(uow.Rollback(ctx))

	reader := suite.factory.Create()
	_, err := reader.OrderRepository().Get(ctx, o.ID())
	suite.ErrorIs(err, errs.ErrObjectNotFound)
	_, err = reader.TableRepository().Get(ctx, tbl.ID())
	suite.ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *UnitOfWorkIntegrationTestSuite) TestIsolationBetweenUnits() {
	ctx := suite.T().Context()
	first := suite.factory.Create()
	second := suite.factory.Create()

	o1 := suite.newOrder("T1")
	o2 := suite.newOrder("T2")

	suite.Require().NoError(first.Begin(ctx))
	suite.Require().NoError(second.Begin(ctx))
	suite.Require().NoError(first.OrderRepository().Add(ctx, o1))
	suite.Require().NoError(second.OrderRepository().Add(ctx, o2))

	_, err := first.OrderRepository().Get(ctx, o2.ID())
	suite.ErrorIs(err, errs.ErrObjectNotFound)

	suite.Require().NoError(first.Commit(ctx))
	suite.Require().NoError(second.Rollback(ctx))

	all, err := suite.factory.Create().OrderRepository().FindAll(ctx)
	suite.Require().NoError(err)
	suite.Require().Len(all, 1)
	suite.True(all[0].IsEqual(o1))
}

func (suite *UnitOfWorkIntegrationTestSuite) TestLostUpdateIsRejected() {
	ctx := suite.T().Context()
	o := suite.newOrder("T1")
	suite.Require().NoError(suite.factory.Create().OrderRepository().Add(ctx, o))

	reader := suite.factory.Create().OrderRepository()
	stale, err := reader.Get(ctx, o.ID())
	suite.Require().NoError(err)
	fresh, err := reader.Get(ctx, o.ID())
	suite.Require().NoError(err)

	suite.Require().NoError(fresh.ChangeStatus(order.Ready))
	suite.Require().NoError(reader.Update(ctx, fresh))

	suite.Require().NoError(stale.Invoice(order.Cash))
	err = reader.Update(ctx, stale)

	suite.ErrorIs(err, errs.ErrConflict)
}

func (suite *UnitOfWorkIntegrationTestSuite) TestGetForUpdateSerializesWriters() {
	ctx := suite.T().Context()
	o := suite.newOrder("T1")
	suite.Require().NoError(suite.factory.Create().OrderRepository().Add(ctx, o))

	holder := suite.factory.Create()
	suite.Require().NoError(holder.Begin(ctx))
	locked, err := holder.OrderRepository().GetForUpdate(ctx, o.ID())
	suite.Require().NoError(err)

	acquired := make(chan error, 1)
	go func() {
		waiter := suite.factory.Create()
		if beginErr := waiter.Begin(ctx); beginErr != nil {
			acquired <- beginErr
			return
		}
		defer func() { _ = waiter.Rollback(ctx) }()

		_, getErr := waiter.OrderRepository().GetForUpdate(ctx, o.ID())
		acquired <- getErr
	}()

	select {
	case <-acquired:
		suite.Fail("second writer acquired the row while it was locked")
	case <-time.After(300 * time.Millisecond):
	}

	suite.Require().NoError(locked.ChangeStatus(order.Ready))
	suite.Require().NoError(holder.OrderRepository().Update(ctx, locked))
	suite.Require().NoError(holder.Commit(ctx))

	select {
	case err = <-acquired:
		suite.NoError(err)
	case <-time.After(5 * time.Second):
		suite.Fail("second writer never acquired the row")
	}
}

func (suite *UnitOfWorkIntegrationTestSuite) TestDuplicateTableName() {
	ctx := suite.T().Context()
	repo := suite.factory.Create().TableRepository()
	suite.Require().NoError(repo.Add(ctx, suite.newTable("T1")))

	err := repo.Add(ctx, suite.newTable("T1"))

	suite.ErrorIs(err, errs.ErrConflict)
}

func (suite *UnitOfWorkIntegrationTestSuite) newOrder(tableName string) *order.Order {
	unitPrice, err := kernel.MoneyFromString("10.50")
	suite.Require().NoError(err)

	o, err := order.NewOrder(kernel.NewUUID(), tableName, time.Now(), []order.ItemDraft{
		{Name: "Lomo saltado", Quantity: 2, UnitPrice: unitPrice},
	})
	suite.Require().NoError(err)
	return o
}

func (suite *UnitOfWorkIntegrationTestSuite) newTable(name string) *table.Table {
	tbl, err := table.NewTable(kernel.NewUUID(), name)
	suite.Require().NoError(err)
	return tbl
}

func TestUnitOfWorkIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(UnitOfWorkIntegrationTestSuite))
}
