// Package jobs runs the floor's periodic upkeep on a seconds-resolution cron.
//
// TableReconciliationJob recomputes every table's occupancy from its unbilled orders. It
// heals tables left stale when a follow-up after an order change gave up.
// ViewerHeartbeatJob pings live order viewers and drops those that stopped answering.
//
//	manager := jobs.NewJobManager(coordinator, hub, jobs.DefaultSchedules(), logger)
//	if err := manager.StartAll(); err != nil {
//		logger.WithError(err).Fatal("cannot start jobs")
//	}
//	defer manager.StopAll()
//
// A run still going when the next one is due is skipped. If any job fails to start,
// the ones already started are stopped.
package jobs
