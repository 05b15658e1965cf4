package commands

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"restaurant/internal/core/domain/model/kernel"
	"restaurant/internal/core/domain/model/table"
	"restaurant/internal/core/domain/services"
	"restaurant/internal/pkg/errs"
	"restaurant/internal/pkg/keylock"

	"github.com/sirupsen/logrus"
)

// TableCoordinatorConfig bounds the retries of post-commit occupancy updates.
type TableCoordinatorConfig struct {
	Attempts int
	Backoff  time.Duration
}

func DefaultTableCoordinatorConfig() TableCoordinatorConfig {
	return TableCoordinatorConfig{Attempts: 3, Backoff: 50 * time.Millisecond}
}

// TableCoordinator keeps table occupancy in line with the unbilled orders that reference
// each table, and owns table identity (create, rename, delete, reservation).
//
// Every change for a given table name runs under a per-name lock, each in its own
// unit of work. Occupancy follow-ups triggered by order handlers run after the order
// transaction committed: they are retried with backoff and then only logged, since the
// order change must stand. ReconcileAll repairs whatever they missed.
type TableCoordinator struct {
	uowFactory UoWFactory
	resolver   services.OccupancyResolver
	locks      *keylock.KeyLock
	cfg        TableCoordinatorConfig
	logger     logrus.FieldLogger
}

func NewTableCoordinator(uowFactory UoWFactory, cfg TableCoordinatorConfig, logger logrus.FieldLogger) *TableCoordinator {
	if cfg.Attempts <= 0 {
		cfg.Attempts = 1
	}
	return &TableCoordinator{
		uowFactory: uowFactory,
		resolver:   services.NewOccupancyResolver(),
		locks:      keylock.New(),
		cfg:        cfg,
		logger:     logger.WithField("component", "table-coordinator"),
	}
}

// MarkOccupied seats tableName. It is idempotent; a Reserved table is seated too. An
// unknown table is left alone, tables are never created implicitly.
func (c *TableCoordinator) MarkOccupied(ctx context.Context, tableName string) error {
	return c.withRetry(ctx, "mark occupied", tableName, func(ctx context.Context) error {
		return c.update(ctx, tableName, func(uow UoW, t *table.Table) (bool, error) {
			return t.Occupy(), nil
		})
	})
}

// ReconcileAfterBilling frees tableName when it has no unbilled order left. It never
// seats a table.
func (c *TableCoordinator) ReconcileAfterBilling(ctx context.Context, tableName string) error {
	return c.withRetry(ctx, "reconcile after billing", tableName, func(ctx context.Context) error {
		return c.update(ctx, tableName, func(uow UoW, t *table.Table) (bool, error) {
			unbilled, err := uow.OrderRepository().CountUnbilledByTable(ctx, tableName)
			if err != nil {
				return false, err
			}
			return c.resolver.ApplyAfterBilling(t, unbilled)
		})
	})
}

// Reconcile derives the occupancy of tableName from scratch, in both directions.
func (c *TableCoordinator) Reconcile(ctx context.Context, tableName string) error {
	return c.withRetry(ctx, "reconcile", tableName, func(ctx context.Context) error {
		return c.update(ctx, tableName, func(uow UoW, t *table.Table) (bool, error) {
			unbilled, err := uow.OrderRepository().CountUnbilledByTable(ctx, tableName)
			if err != nil {
				return false, err
			}
			return c.resolver.Apply(t, unbilled)
		})
	})
}

// ReconcileAll runs Reconcile for every known table and returns the joined failures.
func (c *TableCoordinator) ReconcileAll(ctx context.Context) error {
	tables, err := c.uowFactory.Create().TableRepository().FindAll(ctx)
	if err != nil {
		return err
	}

	var failures []error
	for _, t := range tables {
		if ctx.Err() != nil {
			failures = append(failures, ctx.Err())
			break
		}
		if err = c.Reconcile(ctx, t.Name()); err != nil {
			failures = append(failures, fmt.Errorf("table %s: %w", t.Name(), err))
		}
	}
	return errors.Join(failures...)
}

// Create registers a table. Its occupancy is derived right away, so a table created for
// a name that already has unbilled orders starts Occupied.
func (c *TableCoordinator) Create(ctx context.Context, name string) (*table.Table, error) {
	created, err := table.NewTable(kernel.NewUUID(), name)
	if err != nil {
		return nil, err
	}

	unlock, err := c.lockNames(ctx, created.Name())
	if err != nil {
		return nil, err
	}
	defer unlock()

	err = c.inTx(ctx, func(uow UoW) error {
		tableRepo := uow.TableRepository()
		if _, getErr := tableRepo.GetByName(ctx, created.Name()); getErr == nil {
			return errs.NewConflictErrorWithCause("table", created.Name(), errors.New("name is already taken"))
		} else if !errors.Is(getErr, errs.ErrObjectNotFound) {
			return getErr
		}

		unbilled, countErr := uow.OrderRepository().CountUnbilledByTable(ctx, created.Name())
		if countErr != nil {
			return countErr
		}
		if _, applyErr := c.resolver.Apply(created, unbilled); applyErr != nil {
			return applyErr
		}

		return tableRepo.Add(ctx, created)
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// Rename gives a table a new unique name. Orders reference tables by name, so a table
// with unbilled orders cannot be renamed.
func (c *TableCoordinator) Rename(ctx context.Context, id kernel.UUID, newName string) (*table.Table, error) {
	current, err := c.uowFactory.Create().TableRepository().Get(ctx, id)
	if err != nil {
		return nil, err
	}

	candidate, err := table.RestoreTable(current.ID(), newName, current.Occupancy())
	if err != nil {
		return nil, err
	}

	unlock, err := c.lockNames(ctx, current.Name(), candidate.Name())
	if err != nil {
		return nil, err
	}
	defer unlock()

	var renamed *table.Table
	err = c.inTx(ctx, func(uow UoW) error {
		t, getErr := uow.TableRepository().Get(ctx, id)
		if getErr != nil {
			return getErr
		}

		if t.Name() == candidate.Name() {
			renamed = t
			return nil
		}

		if busyErr := c.ensureNoUnbilled(ctx, uow, t.Name()); busyErr != nil {
			return busyErr
		}

		if renameErr := t.Rename(candidate.Name()); renameErr != nil {
			return renameErr
		}

		unbilled, countErr := uow.OrderRepository().CountUnbilledByTable(ctx, t.Name())
		if countErr != nil {
			return countErr
		}
		if _, applyErr := c.resolver.Apply(t, unbilled); applyErr != nil {
			return applyErr
		}

		renamed = t
		return uow.TableRepository().Update(ctx, t)
	})
	if err != nil {
		return nil, err
	}

	return renamed, nil
}

// Delete removes a table that has no unbilled orders.
func (c *TableCoordinator) Delete(ctx context.Context, id kernel.UUID) error {
	current, err := c.uowFactory.Create().TableRepository().Get(ctx, id)
	if err != nil {
		return err
	}

	unlock, err := c.lockNames(ctx, current.Name())
	if err != nil {
		return err
	}
	defer unlock()

	return c.inTx(ctx, func(uow UoW) error {
		t, getErr := uow.TableRepository().Get(ctx, id)
		if getErr != nil {
			return getErr
		}

		if busyErr := c.ensureNoUnbilled(ctx, uow, t.Name()); busyErr != nil {
			return busyErr
		}

		return uow.TableRepository().Delete(ctx, id)
	})
}

// Reserve holds a Free table for an upcoming party.
func (c *TableCoordinator) Reserve(ctx context.Context, id kernel.UUID) (*table.Table, error) {
	return c.updateByID(ctx, id, (*table.Table).Reserve)
}

// Release cancels a reservation.
func (c *TableCoordinator) Release(ctx context.Context, id kernel.UUID) (*table.Table, error) {
	return c.updateByID(ctx, id, (*table.Table).Release)
}

func (c *TableCoordinator) updateByID(
	ctx context.Context,
	id kernel.UUID,
	change func(*table.Table) error,
) (*table.Table, error) {
	current, err := c.uowFactory.Create().TableRepository().Get(ctx, id)
	if err != nil {
		return nil, err
	}

	unlock, err := c.lockNames(ctx, current.Name())
	if err != nil {
		return nil, err
	}
	defer unlock()

	var updated *table.Table
	err = c.inTx(ctx, func(uow UoW) error {
		t, getErr := uow.TableRepository().Get(ctx, id)
		if getErr != nil {
			return getErr
		}
		if changeErr := change(t); changeErr != nil {
			return changeErr
		}
		updated = t
		return uow.TableRepository().Update(ctx, t)
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// update locks tableName and applies change to the stored table. A missing table is a
// no-op.
func (c *TableCoordinator) update(
	ctx context.Context,
	tableName string,
	change func(uow UoW, t *table.Table) (bool, error),
) error {
	unlock, err := c.lockNames(ctx, tableName)
	if err != nil {
		return err
	}
	defer unlock()

	return c.inTx(ctx, func(uow UoW) error {
		t, getErr := uow.TableRepository().GetByName(ctx, tableName)
		if errors.Is(getErr, errs.ErrObjectNotFound) {
			c.logger.WithField("table", tableName).Debug("no such table, occupancy left alone")
			return nil
		}
		if getErr != nil {
			return getErr
		}

		previous := t.Occupancy()
		changed, changeErr := change(uow, t)
		if changeErr != nil || !changed {
			return changeErr
		}

		if updateErr := uow.TableRepository().Update(ctx, t); updateErr != nil {
			return updateErr
		}

		c.logger.WithFields(logrus.Fields{
			"table": tableName,
			"from":  previous.String(),
			"to":    t.Occupancy().String(),
		}).Info("table occupancy changed")
		return nil
	})
}

func (c *TableCoordinator) ensureNoUnbilled(ctx context.Context, uow UoW, tableName string) error {
	unbilled, err := uow.OrderRepository().CountUnbilledByTable(ctx, tableName)
	if err != nil {
		return err
	}
	if unbilled > 0 {
		return errs.NewConflictErrorWithCause(
			"table",
			tableName,
			fmt.Errorf("%d unbilled orders still reference it", unbilled),
		)
	}
	return nil
}

func (c *TableCoordinator) inTx(ctx context.Context, fn func(uow UoW) error) error {
	uow := c.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err := fn(uow); err != nil {
		return err
	}

	return uow.Commit(ctx)
}

// lockNames takes the per-name locks in sorted order so that two renames never wait on
// each other.
func (c *TableCoordinator) lockNames(ctx context.Context, names ...string) (func(), error) {
	sorted := slices.Clone(names)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	unlocks := make([]func(), 0, len(sorted))
	release := func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}

	for _, name := range sorted {
		unlock, err := c.locks.Lock(ctx, name)
		if err != nil {
			release()
			return nil, err
		}
		unlocks = append(unlocks, unlock)
	}

	return release, nil
}

func (c *TableCoordinator) withRetry(
	ctx context.Context,
	operation string,
	tableName string,
	fn func(ctx context.Context) error,
) error {
	var err error
retry:
	for attempt := 1; ; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if errs.IsValidation(err) || attempt >= c.cfg.Attempts {
			break
		}

		timer := time.NewTimer(c.cfg.Backoff << (attempt - 1))
		select {
		case <-ctx.Done():
			timer.Stop()
			err = errors.Join(err, ctx.Err())
			break retry
		case <-timer.C:
		}
	}

	c.logger.WithFields(logrus.Fields{
		"table":     tableName,
		"operation": operation,
	}).WithError(err).Error("table occupancy update failed")
	return err
}
