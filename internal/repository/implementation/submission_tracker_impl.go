package implementation

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"collab-platform-be/internal/repository/contract"

	"github.com/redis/go-redis/v9"
)

const submittedKeyPrefix = "jobs:submitted:"

// RedisSubmissionTracker keeps cross-instance submission markers in Redis
// with a TTL; after the TTL an unrecorded job reads as not-found, which is
// acceptable for jobs that never reached a worker in a day. The marker value
// holds the submission itself so ownership checks work before any worker
// has written a job record.
type RedisSubmissionTracker struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisSubmissionTracker(rdb *redis.Client) contract.SubmissionTracker {
	return &RedisSubmissionTracker{rdb: rdb, ttl: 24 * time.Hour}
}

func (t *RedisSubmissionTracker) Mark(ctx context.Context, sub contract.Submission) error {
	value, err := json.Marshal(sub)
	if err != nil {
		return err
	}
	return t.rdb.Set(ctx, submittedKeyPrefix+sub.JobId, value, t.ttl).Err()
}

func (t *RedisSubmissionTracker) Find(ctx context.Context, jobId string) (*contract.Submission, error) {
	value, err := t.rdb.Get(ctx, submittedKeyPrefix+jobId).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sub contract.Submission
	if err := json.Unmarshal(value, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}
