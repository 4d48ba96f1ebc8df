package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestHealthReportsEachComponent(t *testing.T) {
	c := &Container{QueueAvailable: true}

	report := c.Health(context.Background())

	assert.Equal(t, "up", report["job_queue"])
	// No database or redis handle wired means the probes cannot succeed.
	assert.Equal(t, "down", report["database"])
	assert.Equal(t, "down", report["redis"])
}

func TestHealthDegradedQueueAndUnreachableRedis(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1", // nothing listens here
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })

	c := &Container{QueueAvailable: false, rdb: rdb}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	report := c.Health(ctx)

	assert.Equal(t, "degraded", report["job_queue"])
	assert.Equal(t, "down", report["database"])
	assert.Equal(t, "down", report["redis"])
}
