package memory

import (
	"time"

	"collab-platform-be/internal/entity"

	"github.com/patrickmn/go-cache"
)

// JobStatusCache holds terminal job records in-process so hot status polling
// of finished jobs skips the database. Only terminal statuses may be cached;
// anything else could go stale while a worker is still writing.
type JobStatusCache struct {
	cache *cache.Cache
}

func NewJobStatusCache() *JobStatusCache {
	c := cache.New(5*time.Minute, 10*time.Minute)
	return &JobStatusCache{cache: c}
}

func (r *JobStatusCache) Save(job *entity.Job) {
	if !job.Status.Terminal() {
		return
	}
	r.cache.Set(job.JobId, job, cache.DefaultExpiration)
}

func (r *JobStatusCache) Get(jobId string) (*entity.Job, bool) {
	if x, found := r.cache.Get(jobId); found {
		return x.(*entity.Job), true
	}
	return nil, false
}
