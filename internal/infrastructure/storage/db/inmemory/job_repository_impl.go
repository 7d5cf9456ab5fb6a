package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/tdex-network/tdex-execd/internal/core/domain"
)

type jobRepositoryImpl struct {
	jobs     map[string]domain.Job
	counters domain.JobCounters
	locker   *sync.Mutex
}

// NewJobRepositoryImpl returns a new inmemory JobRepository implementation.
func NewJobRepositoryImpl() domain.JobRepository {
	return &jobRepositoryImpl{
		jobs:   make(map[string]domain.Job),
		locker: &sync.Mutex{},
	}
}

func (r *jobRepositoryImpl) AddJob(_ context.Context, job *domain.Job) (bool, error) {
	r.locker.Lock()
	defer r.locker.Unlock()

	if _, ok := r.jobs[job.ID]; ok {
		return false, nil
	}
	r.jobs[job.ID] = *job
	return true, nil
}

func (r *jobRepositoryImpl) UpdateJob(_ context.Context, job *domain.Job) error {
	r.locker.Lock()
	defer r.locker.Unlock()

	r.jobs[job.ID] = *job
	return nil
}

func (r *jobRepositoryImpl) DeleteJob(_ context.Context, jobID string) error {
	r.locker.Lock()
	defer r.locker.Unlock()

	delete(r.jobs, jobID)
	return nil
}

func (r *jobRepositoryImpl) GetAllJobs(_ context.Context) ([]*domain.Job, error) {
	r.locker.Lock()
	defer r.locker.Unlock()

	jobs := make([]*domain.Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		job := j
		jobs = append(jobs, &job)
	}
	sort.SliceStable(jobs, func(i, j int) bool {
		return jobs[i].Less(jobs[j])
	})
	return jobs, nil
}

func (r *jobRepositoryImpl) GetCounters(_ context.Context) (*domain.JobCounters, error) {
	r.locker.Lock()
	defer r.locker.Unlock()

	counters := r.counters
	return &counters, nil
}

func (r *jobRepositoryImpl) IncrementCounters(
	_ context.Context, completed, failed int,
) error {
	r.locker.Lock()
	defer r.locker.Unlock()

	r.counters.Completed += completed
	r.counters.Failed += failed
	return nil
}
