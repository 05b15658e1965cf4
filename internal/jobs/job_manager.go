package jobs

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Schedules configures when the jobs run.
type Schedules struct {
	Reconciliation        string
	ReconciliationTimeout time.Duration
	Heartbeat             string
}

func DefaultSchedules() Schedules {
	return Schedules{
		Reconciliation:        "0 * * * * *",
		ReconciliationTimeout: 30 * time.Second,
		Heartbeat:             "*/15 * * * * *",
	}
}

// JobManager coordinates all scheduled jobs in the application.
// Provides a unified interface to start and stop all background jobs.
type JobManager struct {
	reconciliationJob *TableReconciliationJob
	heartbeatJob      *ViewerHeartbeatJob
}

func NewJobManager(
	reconciler TableReconciler,
	sweeper ViewerSweeper,
	schedules Schedules,
	logger logrus.FieldLogger,
) *JobManager {
	return &JobManager{
		reconciliationJob: NewTableReconciliationJob(
			reconciler, schedules.Reconciliation, schedules.ReconciliationTimeout, logger),
		heartbeatJob: NewViewerHeartbeatJob(sweeper, schedules.Heartbeat, logger),
	}
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.reconciliationJob.Start(); err != nil {
		return fmt.Errorf("failed to start table reconciliation job: %w", err)
	}

	if err := jm.heartbeatJob.Start(); err != nil {
		// Stop already started jobs if this one fails
		jm.reconciliationJob.Stop()
		return fmt.Errorf("failed to start viewer heartbeat job: %w", err)
	}

	return nil
}

// StopAll stops all scheduled jobs and waits for running ones to finish.
func (jm *JobManager) StopAll() {
	jm.heartbeatJob.Stop()
	jm.reconciliationJob.Stop()
}
