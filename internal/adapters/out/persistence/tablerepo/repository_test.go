package tablerepo_test

import (
	"testing"

	"restaurant/internal/adapters/out/persistence"
	"restaurant/internal/adapters/out/persistence/tablerepo"
	"restaurant/internal/core/domain/model/kernel"
	"restaurant/internal/core/domain/model/table"
	"restaurant/internal/pkg/errs"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepository(t *testing.T) *tablerepo.GormTableRepository {
	t.Helper()
	logger, _ := test.NewNullLogger()

	db, err := persistence.Open(persistence.Config{Driver: persistence.DriverSQLite, SQLitePath: ":memory:"}, logger)
	require.NoError(t, err)
	require.NoError(t, persistence.Migrate(db))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})
	return tablerepo.NewGormTableRepository(db)
}

func newTable(t *testing.T, name string) *table.Table {
	t.Helper()
	tbl, err := table.NewTable(kernel.NewUUID(), name)
	require.NoError(t, err)
	return tbl
}

func TestGormTableRepository_AddAndGet(t *testing.T) {
	repo := newRepository(t)
	ctx := t.Context()
	tbl := newTable(t, "Terrace 1")
	require.NoError(t, repo.Add(ctx, tbl))

	byID, err := repo.Get(ctx, tbl.ID())
	require.NoError(t, err)
	assert.Equal(t, "Terrace 1", byID.Name())
	assert.Equal(t, table.Free, byID.Occupancy())

	byName, err := repo.GetByName(ctx, "Terrace 1")
	require.NoError(t, err)
	assert.True(t, byName.IsEqual(tbl))
}

func TestGormTableRepository_NotFound(t *testing.T) {
	repo := newRepository(t)

	_, err := repo.Get(t.Context(), kernel.NewUUID())
	assert.ErrorIs(t, err, errs.ErrObjectNotFound)

	_, err = repo.GetByName(t.Context(), "nowhere")
	assert.ErrorIs(t, err, errs.ErrObjectNotFound)

	assert.ErrorIs(t, repo.Delete(t.Context(), kernel.NewUUID()), errs.ErrObjectNotFound)
	assert.ErrorIs(t, repo.Update(t.Context(), newTable(t, "ghost")), errs.ErrObjectNotFound)
}

func TestGormTableRepository_UniqueName(t *testing.T) {
	repo := newRepository(t)
	ctx := t.Context()
	require.NoError(t, repo.Add(ctx, newTable(t, "T1")))
	second := newTable(t, "T2")
	require.NoError(t, repo.Add(ctx, second))

	t.Run("on add", func(t *testing.T) {
		err := repo.Add(ctx, newTable(t, "T1"))

		assert.ErrorIs(t, err, errs.ErrConflict)
	})

	t.Run("on rename", func(t *testing.T) {
		require.NoError(t, second.Rename("T1"))

		err := repo.Update(ctx, second)

		assert.ErrorIs(t, err, errs.ErrConflict)
	})
}

func TestGormTableRepository_Update(t *testing.T) {
	repo := newRepository(t)
	ctx := t.Context()
	tbl := newTable(t, "T1")
	require.NoError(t, repo.Add(ctx, tbl))

	require.NoError(t, tbl.Rename("Bar 1"))
	require.True(t, tbl.Occupy())
	require.NoError(t, repo.Update(ctx, tbl))

	loaded, err := repo.Get(ctx, tbl.ID())
	require.NoError(t, err)
	assert.Equal(t, "Bar 1", loaded.Name())
	assert.Equal(t, table.Occupied, loaded.Occupancy())
}

func TestGormTableRepository_DeleteAndFindAll(t *testing.T) {
	repo := newRepository(t)
	ctx := t.Context()
	b := newTable(t, "B")
	a := newTable(t, "A")
	c := newTable(t, "C")
	for _, tbl := range []*table.Table{b, a, c} {
		require.NoError(t, repo.Add(ctx, tbl))
	}

	require.NoError(t, repo.Delete(ctx, c.ID()))

	tables, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, "A", tables[0].Name())
	assert.Equal(t, "B", tables[1].Name())
}
