package service

import (
	"context"
	"sync"
	"time"

	"collab-platform-be/internal/entity"
	"collab-platform-be/internal/repository/contract"
	"collab-platform-be/internal/repository/specification"
	"collab-platform-be/pkg/broker"
	"collab-platform-be/pkg/events"

	"gorm.io/gorm"
)

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

// fakeJobRepo keeps records in memory and answers the query specifications
// the services actually use.
type fakeJobRepo struct {
	mu      sync.Mutex
	jobs    map[string]*entity.Job
	findErr error
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[string]*entity.Job)}
}

func (r *fakeJobRepo) Create(_ context.Context, job *entity.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *job
	r.jobs[job.JobId] = &clone
	return nil
}

func (r *fakeJobRepo) Update(_ context.Context, job *entity.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[job.JobId]; !ok {
		return gorm.ErrRecordNotFound
	}
	clone := *job
	r.jobs[job.JobId] = &clone
	return nil
}

func (r *fakeJobRepo) FindOne(_ context.Context, specs ...specification.Specification) (*entity.Job, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, spec := range specs {
		if byId, ok := spec.(specification.ByJobID); ok {
			if job, found := r.jobs[byId.JobID]; found {
				clone := *job
				return &clone, nil
			}
			return nil, nil
		}
	}
	return nil, nil
}

func (r *fakeJobRepo) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*entity.Job
	for _, job := range r.jobs {
		if matchesJobSpecs(job, specs) {
			clone := *job
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (r *fakeJobRepo) Count(_ context.Context, specs ...specification.Specification) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, job := range r.jobs {
		if matchesJobSpecs(job, specs) {
			n++
		}
	}
	return n, nil
}

func matchesJobSpecs(job *entity.Job, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.OwnedByUser:
			if job.UserId != s.UserID {
				return false
			}
		case specification.ByStatus:
			if string(job.Status) != s.Status {
				return false
			}
		case specification.ByJobType:
			if job.Type != s.Type {
				return false
			}
		}
	}
	return true
}

func (r *fakeJobRepo) get(jobId string) *entity.Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.jobs[jobId]
}

type fakeTracker struct {
	mu     sync.Mutex
	marked map[string]contract.Submission
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{marked: make(map[string]contract.Submission)}
}

func (t *fakeTracker) Mark(_ context.Context, sub contract.Submission) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.marked[sub.JobId] = sub
	return nil
}

func (t *fakeTracker) Find(_ context.Context, jobId string) (*contract.Submission, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	sub, ok := t.marked[jobId]
	if !ok {
		return nil, nil
	}
	return &sub, nil
}

type fakeEnqueuer struct {
	mu       sync.Mutex
	enqueued []string
	payloads [][]byte
	err      error
}

func (q *fakeEnqueuer) Enqueue(_ context.Context, msgId string, payload []byte) error {
	if q.err != nil {
		return q.err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.enqueued = append(q.enqueued, msgId)
	q.payloads = append(q.payloads, payload)
	return nil
}

// fakeConsumer satisfies JobConsumer for engine tests that drive
// processDelivery directly.
type fakeConsumer struct{}

func (fakeConsumer) Process(context.Context, int, func(context.Context, broker.Delivery)) error {
	return nil
}

func (fakeConsumer) Backoff(attempt int) time.Duration {
	delay := 2 * time.Second
	for i := 1; i < attempt; i++ {
		delay *= 2
	}
	return delay
}

type fakeDelivery struct {
	payload    []byte
	attempt    int
	acked      bool
	termed     bool
	retryDelay *time.Duration
}

func (d *fakeDelivery) Payload() []byte { return d.payload }
func (d *fakeDelivery) Attempt() int    { return d.attempt }
func (d *fakeDelivery) Ack() error      { d.acked = true; return nil }
func (d *fakeDelivery) Term() error     { d.termed = true; return nil }
func (d *fakeDelivery) Retry(delay time.Duration) error {
	d.retryDelay = &delay
	return nil
}

type fakeFanout struct {
	mu        sync.Mutex
	published []events.CollaborationEvent
}

func (f *fakeFanout) Publish(event events.CollaborationEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, event)
}

func (f *fakeFanout) Start(context.Context) error { return nil }

type fakeLocalDelivery struct {
	mu     sync.Mutex
	frames map[string][][]byte
}

func newFakeLocalDelivery() *fakeLocalDelivery {
	return &fakeLocalDelivery{frames: make(map[string][][]byte)}
}

func (d *fakeLocalDelivery) DeliverToRoom(workspaceId string, data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.frames[workspaceId] = append(d.frames[workspaceId], data)
}
