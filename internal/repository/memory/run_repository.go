package memory

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"news-council-be/internal/entity"
)

type CouncilRunRepository struct {
	cache *cache.Cache
}

func NewCouncilRunRepository() *CouncilRunRepository {
	// Runs expire an hour after their last update; expired entries are
	// purged every 10 minutes.
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &CouncilRunRepository{
		cache: c,
	}
}

// Save stores a snapshot of the run. The caller keeps ownership of its own
// record and may mutate it freely; readers never share memory with it.
func (r *CouncilRunRepository) Save(run *entity.CouncilRun) {
	snapshot := *run
	r.cache.Set(run.Id.String(), &snapshot, cache.DefaultExpiration)
}

// Get returns a copy of the stored run, safe to read while the run's owner
// keeps updating and re-saving it.
func (r *CouncilRunRepository) Get(runID uuid.UUID) (*entity.CouncilRun, bool) {
	if x, found := r.cache.Get(runID.String()); found {
		run := *x.(*entity.CouncilRun)
		return &run, true
	}
	return nil, false
}

func (r *CouncilRunRepository) Delete(runID uuid.UUID) {
	r.cache.Delete(runID.String())
}
