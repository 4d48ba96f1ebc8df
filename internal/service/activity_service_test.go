package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"collab-platform-be/internal/dto"
	"collab-platform-be/internal/entity"
	"collab-platform-be/internal/repository/specification"
	"collab-platform-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeActivityRepo struct {
	mu         sync.Mutex
	activities []*entity.Activity
}

func (r *fakeActivityRepo) Create(_ context.Context, activity *entity.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *activity
	r.activities = append(r.activities, &clone)
	return nil
}

func (r *fakeActivityRepo) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*entity.Activity
	for _, a := range r.activities {
		if matchesActivitySpecs(a, specs) {
			result = append(result, a)
		}
	}
	return result, nil
}

func (r *fakeActivityRepo) Count(_ context.Context, specs ...specification.Specification) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, a := range r.activities {
		if matchesActivitySpecs(a, specs) {
			n++
		}
	}
	return n, nil
}

func matchesActivitySpecs(a *entity.Activity, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByWorkspaceID:
			if a.WorkspaceId != s.WorkspaceID {
				return false
			}
		case specification.ByEventType:
			if a.EventType != s.EventType {
				return false
			}
		}
	}
	return true
}

func (r *fakeActivityRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.activities)
}

func newActivityFixture(t *testing.T) (IActivityService, *fakeActivityRepo, context.CancelFunc) {
	t.Helper()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	repo := &fakeActivityRepo{}
	svc := NewActivityService(pubSub, "test_activities", repo, nopLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, svc.Consume(ctx))
	return svc, repo, cancel
}

func TestRecordPersistsDurableEvents(t *testing.T) {
	svc, repo, cancel := newActivityFixture(t)
	defer cancel()

	event := events.New(events.FileChanged, "ws-1", uuid.New(), "alice", map[string]interface{}{"file": "main.go"})
	svc.Record(event)

	require.Eventually(t, func() bool { return repo.count() == 1 }, time.Second, 5*time.Millisecond)

	stored := repo.activities[0]
	assert.Equal(t, event.Id, stored.Id)
	assert.Equal(t, "ws-1", stored.WorkspaceId)
	assert.Equal(t, events.FileChanged, stored.EventType)
	assert.Equal(t, "alice", stored.UserName)
	assert.Equal(t, "main.go", stored.Payload["file"])
}

func TestRecordSkipsEphemeralEvents(t *testing.T) {
	svc, repo, cancel := newActivityFixture(t)
	defer cancel()

	svc.Record(events.New(events.CursorMoved, "ws-1", uuid.New(), "alice", map[string]interface{}{"line": 3}))
	svc.Record(events.New(events.JobProgress, "ws-1", uuid.New(), "", map[string]interface{}{"progress": 50}))
	svc.Record(events.New(events.UserJoined, "ws-1", uuid.New(), "alice", nil))

	require.Eventually(t, func() bool { return repo.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, events.UserJoined, repo.activities[0].EventType)
}

func TestListByWorkspace(t *testing.T) {
	svc, repo, cancel := newActivityFixture(t)
	defer cancel()

	now := time.Now()
	require.NoError(t, repo.Create(context.Background(), &entity.Activity{
		Id:          uuid.New(),
		WorkspaceId: "ws-1",
		UserId:      uuid.New(),
		UserName:    "alice",
		EventType:   events.FileChanged,
		Payload:     map[string]interface{}{"file": "a.go"},
		Timestamp:   now,
	}))

	items, total, err := svc.ListByWorkspace(context.Background(), &dto.ListActivitiesRequest{
		WorkspaceId: "ws-1",
		Limit:       10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, "alice", items[0].UserName)
	assert.Equal(t, events.FileChanged, items[0].EventType)
}

func TestListByWorkspaceFiltersEventType(t *testing.T) {
	svc, repo, cancel := newActivityFixture(t)
	defer cancel()

	now := time.Now()
	for _, eventType := range []string{events.FileChanged, events.UserJoined, events.FileChanged} {
		require.NoError(t, repo.Create(context.Background(), &entity.Activity{
			Id:          uuid.New(),
			WorkspaceId: "ws-1",
			UserId:      uuid.New(),
			EventType:   eventType,
			Timestamp:   now,
		}))
	}

	items, total, err := svc.ListByWorkspace(context.Background(), &dto.ListActivitiesRequest{
		WorkspaceId: "ws-1",
		EventType:   events.FileChanged,
		Limit:       10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, items, 2)
	for _, item := range items {
		assert.Equal(t, events.FileChanged, item.EventType)
	}
}
