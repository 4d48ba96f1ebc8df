package broker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffDoublesAndCaps(t *testing.T) {
	q := &Queue{cfg: QueueConfig{
		BackoffBase: 2 * time.Second,
		BackoffCap:  30 * time.Second,
	}}

	assert.Equal(t, 2*time.Second, q.Backoff(1))
	assert.Equal(t, 4*time.Second, q.Backoff(2))
	assert.Equal(t, 8*time.Second, q.Backoff(3))
	assert.Equal(t, 16*time.Second, q.Backoff(4))
	assert.Equal(t, 30*time.Second, q.Backoff(5))
	assert.Equal(t, 30*time.Second, q.Backoff(50))

	// Attempt numbers below 1 behave like the first attempt.
	assert.Equal(t, 2*time.Second, q.Backoff(0))
}

func TestAckWaitFollowsConfig(t *testing.T) {
	// A configured window is used as-is so it can be sized past the
	// handler timeout; redelivery of a still-running job would break
	// single-consumer record ownership.
	q := &Queue{cfg: QueueConfig{AckWait: 5*time.Minute + 30*time.Second}}
	assert.Equal(t, 5*time.Minute+30*time.Second, q.ackWait())

	unset := &Queue{cfg: QueueConfig{}}
	assert.Equal(t, defaultAckWait, unset.ackWait())
}
