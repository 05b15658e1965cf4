package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

type TableReconciler interface {
	ReconcileAll(ctx context.Context) error
}

// TableReconciliationJob periodically rederives every table's occupancy.
type TableReconciliationJob struct {
	reconciler TableReconciler
	schedule   string
	timeout    time.Duration
	cron       *cron.Cron
	logger     logrus.FieldLogger
}

func NewTableReconciliationJob(
	reconciler TableReconciler,
	schedule string,
	timeout time.Duration,
	logger logrus.FieldLogger,
) *TableReconciliationJob {
	logger = logger.WithField("component", "table_reconciliation_job")
	return &TableReconciliationJob{
		reconciler: reconciler,
		schedule:   schedule,
		timeout:    timeout,
		cron:       newCron(logger),
		logger:     logger,
	}
}

func (j *TableReconciliationJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, j.run); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.WithField("schedule", j.schedule).Info("table reconciliation job started")
	return nil
}

func (j *TableReconciliationJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info("table reconciliation job stopped")
}

func (j *TableReconciliationJob) run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	started := time.Now()
	if err := j.reconciler.ReconcileAll(ctx); err != nil {
		j.logger.WithError(err).Error("table reconciliation failed")
		return
	}
	j.logger.WithField("took", time.Since(started).String()).Debug("tables reconciled")
}

func newCron(logger logrus.FieldLogger) *cron.Cron {
	return cron.New(
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(logger))),
	)
}
