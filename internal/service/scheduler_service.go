package service

import (
	"fmt"
	stdlog "log"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"chronicle/internal/config"
)

// SchedulerService wraps cron-based jobs. A job still running when its next
// tick fires is skipped rather than started twice.
type SchedulerService struct {
	cron *cron.Cron
}

func NewSchedulerService(loc *time.Location, log zerolog.Logger) *SchedulerService {
	cronLog := cron.PrintfLogger(stdlog.New(log.With().Str("component", "cron").Logger(), "", 0))
	return &SchedulerService{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
	}
}

// ScheduleDaily registers a daily job at the given HH:MM time string.
func (s *SchedulerService) ScheduleDaily(timeStr string, job func()) (cron.EntryID, error) {
	spec, err := buildDailySpec(timeStr)
	if err != nil {
		return 0, err
	}
	return s.cron.AddFunc(spec, job)
}

func (s *SchedulerService) Start() {
	s.cron.Start()
}

func (s *SchedulerService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// ScheduleAligned runs job every interval on wall-clock boundaries
// (every 5 minutes fires at :00, :05, ...), so reminder windows line up.
func (s *SchedulerService) ScheduleAligned(interval time.Duration, job func()) (cron.EntryID, error) {
	minutes := int(interval / time.Minute)
	if minutes <= 0 || minutes > 60 || 60%minutes != 0 {
		return 0, fmt.Errorf("interval %s must divide an hour into whole minutes", interval)
	}
	return s.cron.AddFunc(fmt.Sprintf("0 */%d * * * *", minutes), job)
}

// Entries returns the next scheduled run of every registered job.
func (s *SchedulerService) Entries() []cron.Entry {
	return s.cron.Entries()
}

func buildDailySpec(timeStr string) (string, error) {
	hour, minute, err := config.ParseClock(timeStr)
	if err != nil {
		return "", err
	}
	// cron format: second minute hour dom month dow
	return fmt.Sprintf("0 %d %d * * *", minute, hour), nil
}
