// Package scheduler runs the daily dunning sweep on a cron-like schedule.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	appdunning "github.com/mahnwerk/backend/internal/application/dunning"
	"go.uber.org/zap"
)

// cronTickerInterval is the interval at which the scheduler checks for execution
const cronTickerInterval = 1 * time.Minute

// SweepRunner runs the daily dunning sweep. Implemented by the application
// layer's sweep service.
type SweepRunner interface {
	RunDaily(ctx context.Context) (*appdunning.SweepResult, error)
}

// SweepCronSchedulerConfig holds configuration for the cron-based sweep scheduler
type SweepCronSchedulerConfig struct {
	// Enabled indicates if the cron scheduler is enabled
	Enabled bool
	// CronHour is the hour (0-23) to run the daily sweep
	CronHour int
	// CronMinute is the minute (0-59) to run the daily sweep
	CronMinute int
	// DailyCronSchedule is the cron expression (parsed to extract hour/minute)
	DailyCronSchedule string
	// JobTimeout is the maximum time a single sweep run may take
	JobTimeout time.Duration
}

// DefaultSweepCronSchedulerConfig returns default sweep scheduler configuration.
// Defaults to running at 6:00 AM daily, after overnight payment imports settle.
func DefaultSweepCronSchedulerConfig() SweepCronSchedulerConfig {
	return SweepCronSchedulerConfig{
		Enabled:           true,
		CronHour:          6,
		CronMinute:        0,
		DailyCronSchedule: "0 6 * * *",
		JobTimeout:        15 * time.Minute,
	}
}

// ParseCronSchedule parses a cron expression "minute hour * * *" to extract hour and minute.
// Returns defaults (6:00) if parsing fails or the expression is empty.
func ParseCronSchedule(cronExpr string) (hour, minute int, err error) {
	hour = 6
	minute = 0

	if cronExpr == "" {
		return hour, minute, nil
	}

	parts := strings.Fields(cronExpr)
	if len(parts) < 2 {
		return hour, minute, nil
	}

	if parts[0] != "*" {
		if val, parseErr := parseIntOrDefault(parts[0], 0); parseErr == nil {
			minute = val
		}
	}
	if parts[1] != "*" {
		if val, parseErr := parseIntOrDefault(parts[1], 6); parseErr == nil {
			hour = val
		}
	}

	if minute < 0 || minute > 59 {
		return 6, 0, fmt.Errorf("minute must be 0-59, got %d", minute)
	}
	if hour < 0 || hour > 23 {
		return 6, 0, fmt.Errorf("hour must be 0-23, got %d", hour)
	}

	return hour, minute, nil
}

// parseIntOrDefault parses an int string or returns default
func parseIntOrDefault(s string, defaultVal int) (int, error) {
	if s == "" || s == "*" {
		return defaultVal, nil
	}
	var val int
	for _, c := range s {
		if c < '0' || c > '9' {
			return defaultVal, ErrInvalidConfig
		}
		val = val*10 + int(c-'0')
	}
	return val, nil
}

// SweepCronScheduler triggers the daily dunning sweep at a fixed time of day.
// Dedup across replicas is the sweep service's job, so the scheduler only has
// to fire locally once per day.
type SweepCronScheduler struct {
	config SweepCronSchedulerConfig
	sweeps SweepRunner
	logger *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	lastRunAt *time.Time
	nextRunAt *time.Time
}

// NewSweepCronScheduler creates a new cron-based sweep scheduler
func NewSweepCronScheduler(
	config SweepCronSchedulerConfig,
	sweeps SweepRunner,
	logger *zap.Logger,
) *SweepCronScheduler {
	if config.DailyCronSchedule != "" {
		if hour, minute, err := ParseCronSchedule(config.DailyCronSchedule); err == nil {
			config.CronHour = hour
			config.CronMinute = minute
		} else {
			logger.Warn("Invalid sweep cron schedule, keeping defaults",
				zap.String("schedule", config.DailyCronSchedule),
				zap.Error(err),
			)
		}
	}

	return &SweepCronScheduler{
		config: config,
		sweeps: sweeps,
		logger: logger,
	}
}

// Start starts the cron scheduler
func (s *SweepCronScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.calculateNextRunTime()

	s.wg.Add(1)
	go s.cronLoop(ctx)

	s.logger.Info("Sweep cron scheduler started",
		zap.Int("cron_hour", s.config.CronHour),
		zap.Int("cron_minute", s.config.CronMinute),
		zap.Timep("next_run_at", s.nextRunAt),
	)

	return nil
}

// Stop stops the cron scheduler
func (s *SweepCronScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Sweep cron scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Sweep cron scheduler stop timed out")
		return ctx.Err()
	}
}

// cronLoop runs the main cron loop
func (s *SweepCronScheduler) cronLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(cronTickerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if s.shouldRun(now) {
				s.runSweep(ctx)
				s.calculateNextRunTime()
			}
		}
	}
}

// shouldRun checks if the cron should run at the given time
func (s *SweepCronScheduler) shouldRun(now time.Time) bool {
	return now.Hour() == s.config.CronHour && now.Minute() == s.config.CronMinute
}

// calculateNextRunTime calculates the next run time
func (s *SweepCronScheduler) calculateNextRunTime() {
	now := time.Now()
	next := time.Date(now.Year(), now.Month(), now.Day(), s.config.CronHour, s.config.CronMinute, 0, 0, now.Location())
	if now.After(next) {
		next = next.AddDate(0, 0, 1)
	}

	s.mu.Lock()
	s.nextRunAt = &next
	s.mu.Unlock()
}

// runSweep runs one dunning sweep with the configured timeout
func (s *SweepCronScheduler) runSweep(ctx context.Context) {
	s.logger.Info("Starting scheduled dunning sweep")

	now := time.Now()
	s.mu.Lock()
	s.lastRunAt = &now
	s.mu.Unlock()

	if s.config.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.JobTimeout)
		defer cancel()
	}

	result, err := s.sweeps.RunDaily(ctx)
	if err != nil {
		s.logger.Error("Scheduled dunning sweep failed", zap.Error(err))
		return
	}
	if result.Deduplicated {
		s.logger.Info("Scheduled dunning sweep skipped, already ran today",
			zap.Time("as_of", result.AsOf),
		)
		return
	}

	s.logger.Info("Scheduled dunning sweep finished",
		zap.Time("as_of", result.AsOf),
		zap.Int("candidates", result.Candidates),
		zap.Int("escalated", result.Escalated),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)
}

// TriggerManualRun triggers a sweep outside the schedule.
// Note: Uses background context to avoid premature cancellation when an HTTP request completes
func (s *SweepCronScheduler) TriggerManualRun(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.mu.Unlock()

	go s.runSweep(context.Background())
	return nil
}

// GetStatus returns the current status of the cron scheduler
func (s *SweepCronScheduler) GetStatus() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	return map[string]any{
		"enabled":     s.config.Enabled,
		"is_running":  s.isRunning,
		"cron_hour":   s.config.CronHour,
		"cron_minute": s.config.CronMinute,
		"last_run_at": s.lastRunAt,
		"next_run_at": s.nextRunAt,
	}
}

// GetNextRunAt returns when the next scheduled run will occur
func (s *SweepCronScheduler) GetNextRunAt() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextRunAt
}

// GetLastRunAt returns when the last run occurred
func (s *SweepCronScheduler) GetLastRunAt() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRunAt
}
