package jobs

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

type ViewerSweeper interface {
	Sweep(ctx context.Context) int
}

// ViewerHeartbeatJob pings the live viewers so that dead connections leave the registry
// even when no order changes.
type ViewerHeartbeatJob struct {
	sweeper  ViewerSweeper
	schedule string
	cron     *cron.Cron
	logger   logrus.FieldLogger
}

func NewViewerHeartbeatJob(sweeper ViewerSweeper, schedule string, logger logrus.FieldLogger) *ViewerHeartbeatJob {
	logger = logger.WithField("component", "viewer_heartbeat_job")
	return &ViewerHeartbeatJob{
		sweeper:  sweeper,
		schedule: schedule,
		cron:     newCron(logger),
		logger:   logger,
	}
}

func (j *ViewerHeartbeatJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, j.run); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.WithField("schedule", j.schedule).Info("viewer heartbeat job started")
	return nil
}

func (j *ViewerHeartbeatJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info("viewer heartbeat job stopped")
}

func (j *ViewerHeartbeatJob) run() {
	if dropped := j.sweeper.Sweep(context.Background()); dropped > 0 {
		j.logger.WithField("dropped", dropped).Info("dropped silent viewers")
	}
}
