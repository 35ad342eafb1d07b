package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/diamond-forecast/internal/config"
	"github.com/yourusername/diamond-forecast/internal/service"
)

// Forecaster runs one forecast for a slate day.
type Forecaster interface {
	SlateDay(now time.Time) (time.Time, error)
	Run(ctx context.Context, day time.Time) (*service.RunMetrics, error)
}

// Scheduler manages the scheduled forecast jobs
type Scheduler struct {
	cron            *cron.Cron
	forecaster      Forecaster
	logger          *logrus.Entry
	location        *time.Location
	mu              sync.RWMutex
	isRunning       bool
	jobIDs          []cron.EntryID
	jobTimeout      time.Duration
	gracefulTimeout time.Duration
	now             func() time.Time
}

// NewScheduler creates a scheduler whose jobs fire in the configured time zone
func NewScheduler(cfg config.ScheduleConfig, forecaster Forecaster, log *logrus.Logger) *Scheduler {
	if log == nil {
		log = logrus.New()
	}
	entry := log.WithField("component", "scheduler")
	loc := cfg.Location()
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(cronLogger{entry}), cron.SkipIfStillRunning(cronLogger{entry})),
		),
		forecaster:      forecaster,
		logger:          entry,
		location:        loc,
		jobIDs:          make([]cron.EntryID, 0),
		jobTimeout:      2 * time.Hour,
		gracefulTimeout: 30 * time.Second,
		now:             time.Now,
	}
}

// ScheduleDailyForecast schedules a full forecast run for the current slate day
func (s *Scheduler) ScheduleDailyForecast(cronExpression string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	entryID, err := s.cron.AddFunc(cronExpression, s.runForecast)
	if err != nil {
		return fmt.Errorf("failed to add job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithFields(logrus.Fields{
		"cron":     cronExpression,
		"timezone": s.location.String(),
	}).Info("Scheduled daily forecast job")

	return nil
}

func (s *Scheduler) runForecast() {
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	day, err := s.forecaster.SlateDay(s.now())
	if err != nil {
		s.logger.WithError(err).Error("Cannot determine slate day")
		return
	}
	log := s.logger.WithField("day", day.Format("2006-01-02"))
	log.Info("Starting scheduled forecast")

	summary, err := s.forecaster.Run(ctx, day)
	if err != nil {
		log.WithError(err).Error("Scheduled forecast failed")
		return
	}
	log.WithField("summary", summary.String()).Info("Scheduled forecast completed")
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")

	return nil
}

// Stop waits for running jobs up to the graceful timeout
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	s.isRunning = false
	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("Scheduler stopped")
		return nil
	case <-time.After(s.gracefulTimeout):
		return fmt.Errorf("scheduler stop timed out after %s", s.gracefulTimeout)
	}
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRun returns the time of the next scheduled job run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning || len(s.jobIDs) == 0 {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			if nextRun.IsZero() || entry.Next.Before(nextRun) {
				nextRun = entry.Next
			}
		}
	}

	return nextRun
}

// Entries returns information about scheduled entries
func (s *Scheduler) Entries() []cron.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]cron.Entry, 0, len(s.jobIDs))
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			entries = append(entries, entry)
		}
	}

	return entries
}

// cronLogger adapts a logrus entry to cron.Logger.
type cronLogger struct {
	entry *logrus.Entry
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(kvFields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.entry.WithError(err).WithFields(kvFields(keysAndValues)).Error(msg)
}

func kvFields(keysAndValues []interface{}) logrus.Fields {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}
