package runner

import (
	"context"
	"time"

	"github.com/coneno/logger"
	"github.com/osit-platform/osit-backend/pkg/types"
)

// OrphanSweeper removes owned sub-documents left behind by interrupted deletes
type OrphanSweeper interface {
	DeleteOrphanedSubDocuments(ctx context.Context) (types.OrphanSweepReport, error)
}

type Runner struct {
	store              OrphanSweeper
	timerEventCooldown int64 // how often the timer event should be performed, in seconds
}

func NewRunner(store OrphanSweeper, timerEventCooldown int64) *Runner {
	return &Runner{
		store:              store,
		timerEventCooldown: timerEventCooldown,
	}
}

// Run starts the background timer until ctx is cancelled. A cooldown of zero disables it.
func (s *Runner) Run(ctx context.Context) {
	if s.timerEventCooldown <= 0 {
		logger.Info.Println("orphan sweep disabled")
		return
	}
	go s.startTimerThread(ctx)
}

func (s *Runner) startTimerThread(ctx context.Context) {
	for {
		delay := s.timerEventCooldown
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(delay) * time.Second):
			s.SweepOrphans(ctx)
		}
	}
}

func (s *Runner) SweepOrphans(ctx context.Context) types.OrphanSweepReport {
	logger.Debug.Println("running orphan sweep")
	report, err := s.store.DeleteOrphanedSubDocuments(ctx)
	if err != nil {
		logger.Error.Println(err)
		return report
	}
	if report.Total() > 0 {
		logger.Info.Printf("orphan sweep removed %d child profiles, %d assignment details, %d intervention plans",
			report.ChildProfiles, report.AssignmentDetails, report.InterventionPlans)
	}
	return report
}
