package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// SchedulerService wraps cron-based jobs.
type SchedulerService struct {
	cron *cron.Cron
	log  zerolog.Logger
	runs sync.WaitGroup
}

func NewSchedulerService(loc *time.Location, log zerolog.Logger) *SchedulerService {
	return &SchedulerService{
		cron: cron.New(cron.WithLocation(loc), cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		log:  log.With().Str("component", "scheduler").Logger(),
	}
}

func (s *SchedulerService) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs, including start-up runs.
func (s *SchedulerService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.runs.Wait()
}

// ScheduleInterval registers a periodic job every given duration.
func (s *SchedulerService) ScheduleInterval(interval time.Duration, job func()) (cron.EntryID, error) {
	return s.scheduleJob(interval, cron.FuncJob(job))
}

// ScheduleNow registers job like ScheduleInterval and also starts one run
// right away. The immediate run and the ticks share one skip guard, so a
// tick that arrives while the first run is busy is dropped.
func (s *SchedulerService) ScheduleNow(interval time.Duration, job func()) (cron.EntryID, error) {
	guarded := cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(cron.FuncJob(job))
	id, err := s.scheduleJob(interval, guarded)
	if err != nil {
		return 0, err
	}
	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		guarded.Run()
	}()
	return id, nil
}

func (s *SchedulerService) scheduleJob(interval time.Duration, job cron.Job) (cron.EntryID, error) {
	if interval <= 0 {
		return 0, fmt.Errorf("interval must be positive")
	}
	// Convert to cron spec: every N seconds.
	seconds := int(interval.Seconds())
	if seconds <= 0 {
		seconds = 1
	}
	spec := fmt.Sprintf("@every %ds", seconds)
	return s.cron.AddJob(spec, job)
}

// ScheduleNormalize runs the ordering integrity sweep every interval. The
// sweep also runs once right away.
func (s *SchedulerService) ScheduleNormalize(ctx context.Context, rec *Reconciler, interval time.Duration) (cron.EntryID, error) {
	job := func() {
		start := time.Now()
		report, err := rec.NormalizeAll(ctx)
		if err != nil {
			s.log.Error().Err(err).Msg("normalize card positions")
			return
		}
		s.log.Info().
			Int("partitions", report.Partitions).
			Int("repaired", report.Repaired).
			Int("cards", report.Cards).
			Dur("took", time.Since(start)).
			Msg("normalized card positions")
	}
	return s.ScheduleNow(interval, job)
}
