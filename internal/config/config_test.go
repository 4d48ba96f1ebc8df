package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "3000", cfg.App.Port)
	assert.Equal(t, "collaboration_events", cfg.App.EventChannel)
	assert.Equal(t, "workspace_activities", cfg.App.ActivityTopic)

	assert.Equal(t, "JOBS", cfg.JobQueue.Stream)
	assert.Equal(t, "jobs.submit", cfg.JobQueue.Subject)
	assert.Equal(t, "job-workers", cfg.JobQueue.Durable)
	assert.Equal(t, 5, cfg.JobQueue.Concurrency)
	assert.Equal(t, 3, cfg.JobQueue.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.JobQueue.BackoffBase)
	assert.Equal(t, 5*time.Minute, cfg.JobQueue.JobTimeout)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "8080")
	t.Setenv("JOB_MAX_RETRIES", "7")
	t.Setenv("JOB_BACKOFF_BASE", "500ms")
	t.Setenv("JOB_TIMEOUT", "90s")

	cfg := Load()

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, 7, cfg.JobQueue.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.JobQueue.BackoffBase)
	assert.Equal(t, 90*time.Second, cfg.JobQueue.JobTimeout)
}

func TestGetEnvAsIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("JOB_CONCURRENCY", "lots")

	cfg := Load()
	assert.Equal(t, 5, cfg.JobQueue.Concurrency)
}
