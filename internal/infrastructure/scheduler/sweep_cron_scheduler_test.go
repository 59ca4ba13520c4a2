package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestParseCronSchedule(t *testing.T) {
	tests := []struct {
		name         string
		cronExpr     string
		expectedHour int
		expectedMin  int
	}{
		{
			name:         "Default 6am",
			cronExpr:     "0 6 * * *",
			expectedHour: 6,
			expectedMin:  0,
		},
		{
			name:         "3:30am",
			cronExpr:     "30 3 * * *",
			expectedHour: 3,
			expectedMin:  30,
		},
		{
			name:         "Midnight",
			cronExpr:     "0 0 * * *",
			expectedHour: 0,
			expectedMin:  0,
		},
		{
			name:         "11pm",
			cronExpr:     "0 23 * * *",
			expectedHour: 23,
			expectedMin:  0,
		},
		{
			name:         "Empty string defaults",
			cronExpr:     "",
			expectedHour: 6,
			expectedMin:  0,
		},
		{
			name:         "Extra whitespace",
			cronExpr:     "  15   4   *   *   *  ",
			expectedHour: 4,
			expectedMin:  15,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hour, minute, err := ParseCronSchedule(tt.cronExpr)
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedHour, hour, "hour mismatch")
			assert.Equal(t, tt.expectedMin, minute, "minute mismatch")
		})
	}
}

func TestDefaultSweepCronSchedulerConfig(t *testing.T) {
	cfg := DefaultSweepCronSchedulerConfig()

	assert.True(t, cfg.Enabled)
	assert.Equal(t, 6, cfg.CronHour)
	assert.Equal(t, 0, cfg.CronMinute)
	assert.Equal(t, "0 6 * * *", cfg.DailyCronSchedule)
	assert.Equal(t, 15*time.Minute, cfg.JobTimeout)
}

func TestShouldRun(t *testing.T) {
	cfg := DefaultSweepCronSchedulerConfig()
	cfg.CronHour = 6
	cfg.CronMinute = 30

	s := &SweepCronScheduler{
		config: cfg,
	}

	tests := []struct {
		name     string
		time     time.Time
		expected bool
	}{
		{
			name:     "Exact match",
			time:     time.Date(2026, 1, 15, 6, 30, 0, 0, time.UTC),
			expected: true,
		},
		{
			name:     "Wrong hour",
			time:     time.Date(2026, 1, 15, 7, 30, 0, 0, time.UTC),
			expected: false,
		},
		{
			name:     "Wrong minute",
			time:     time.Date(2026, 1, 15, 6, 31, 0, 0, time.UTC),
			expected: false,
		},
		{
			name:     "Midnight vs 6:30",
			time:     time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := s.shouldRun(tt.time)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestCalculateNextRunTime(t *testing.T) {
	cfg := DefaultSweepCronSchedulerConfig()

	s := &SweepCronScheduler{
		config: cfg,
	}

	s.calculateNextRunTime()
	assert.NotNil(t, s.nextRunAt)
	assert.Equal(t, cfg.CronHour, s.nextRunAt.Hour())
	assert.Equal(t, cfg.CronMinute, s.nextRunAt.Minute())
	assert.False(t, s.nextRunAt.Before(time.Now().Add(-time.Minute)))
}

func TestSweepCronScheduler_GetStatus(t *testing.T) {
	cfg := DefaultSweepCronSchedulerConfig()
	s := &SweepCronScheduler{
		config:    cfg,
		isRunning: true,
	}

	status := s.GetStatus()

	assert.Equal(t, true, status["enabled"])
	assert.Equal(t, true, status["is_running"])
	assert.Equal(t, cfg.CronHour, status["cron_hour"])
	assert.Equal(t, cfg.CronMinute, status["cron_minute"])
}

func TestSweepCronScheduler_TriggerManualRun_NotRunning(t *testing.T) {
	cfg := DefaultSweepCronSchedulerConfig()
	s := &SweepCronScheduler{
		config:    cfg,
		isRunning: false,
	}

	err := s.TriggerManualRun(context.Background())
	assert.ErrorIs(t, err, ErrSchedulerNotRunning)
}

func TestNewSweepCronScheduler_ParsesSchedule(t *testing.T) {
	cfg := DefaultSweepCronSchedulerConfig()
	cfg.DailyCronSchedule = "45 21 * * *"

	s := NewSweepCronScheduler(cfg, nil, zap.NewNop())

	assert.Equal(t, 21, s.config.CronHour)
	assert.Equal(t, 45, s.config.CronMinute)
}
