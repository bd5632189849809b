// Package scheduler runs the daily recommendation on a cron schedule.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"pricepipe/models"
	"pricepipe/utils"
)

// DailyRecommender produces the recommendations for one day.
type DailyRecommender interface {
	RecommendFor(ctx context.Context, day time.Time) (*models.RecommendationReport, error)
}

type CronScheduler struct {
	cron        *cron.Cron
	recommender DailyRecommender
	loc         *time.Location
	logger      *utils.Logger
	now         func() time.Time
}

// NewCronScheduler creates a scheduler whose cron expressions and "today"
// are both evaluated in loc.
func NewCronScheduler(recommender DailyRecommender, loc *time.Location, logger *utils.Logger) *CronScheduler {
	if loc == nil {
		loc = time.UTC
	}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cron.PrintfLogger(logger)),
	)

	return &CronScheduler{
		cron:        c,
		recommender: recommender,
		loc:         loc,
		logger:      logger,
		now:         time.Now,
	}
}

// Start registers the job and starts the cron loop. With runNow the job also
// runs once immediately; a failure there is logged and does not stop the
// scheduler.
func (s *CronScheduler) Start(ctx context.Context, schedule string, runNow bool) error {
	s.logger.Info("[scheduler] Starting with schedule %q (%s)", schedule, s.loc)

	if _, err := s.cron.AddFunc(schedule, func() { s.runOnce(ctx) }); err != nil {
		return err
	}

	s.cron.Start()

	if runNow {
		s.logger.Info("[scheduler] Performing initial recommendation run")
		s.runOnce(ctx)
	}
	return nil
}

func (s *CronScheduler) runOnce(ctx context.Context) {
	day := s.now().In(s.loc)
	s.logger.Info("[scheduler] Recommendation job triggered for %s", day.Format(time.DateOnly))

	report, err := s.recommender.RecommendFor(ctx, day)
	if err != nil {
		s.logger.Error("[scheduler] Recommendation job failed: %v", err)
		return
	}
	s.logger.Info("[scheduler] Recommendation job completed: %d rows", report.Inserted)
}

// Stop waits for a running job to finish.
func (s *CronScheduler) Stop() {
	s.logger.Info("[scheduler] Stopping")
	<-s.cron.Stop().Done()
	s.logger.Info("[scheduler] Stopped")
}

func (s *CronScheduler) GetEntries() []cron.Entry {
	return s.cron.Entries()
}
