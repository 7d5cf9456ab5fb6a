package dbbadger

import (
	"context"
	"sort"

	"github.com/dgraph-io/badger/v3"
	"github.com/tdex-network/tdex-execd/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

const countersKey = "counters"

type jobCounters struct {
	Completed int
	Failed    int
}

type jobRepositoryImpl struct {
	store *badgerhold.Store
}

// NewJobRepositoryImpl returns a new badger JobRepository implementation.
func NewJobRepositoryImpl(store *badgerhold.Store) domain.JobRepository {
	return &jobRepositoryImpl{store}
}

func (r *jobRepositoryImpl) AddJob(
	_ context.Context, job *domain.Job,
) (bool, error) {
	if err := r.store.Insert(job.ID, *job); err != nil {
		if err == badgerhold.ErrKeyExists {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *jobRepositoryImpl) UpdateJob(_ context.Context, job *domain.Job) error {
	return r.store.Upsert(job.ID, *job)
}

func (r *jobRepositoryImpl) DeleteJob(_ context.Context, jobID string) error {
	if err := r.store.Delete(jobID, domain.Job{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return err
	}
	return nil
}

func (r *jobRepositoryImpl) GetAllJobs(
	_ context.Context,
) ([]*domain.Job, error) {
	var jobs []domain.Job
	if err := r.store.Find(&jobs, nil); err != nil {
		return nil, err
	}

	res := make([]*domain.Job, 0, len(jobs))
	for i := range jobs {
		res = append(res, &jobs[i])
	}
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].Less(res[j])
	})
	return res, nil
}

func (r *jobRepositoryImpl) GetCounters(
	_ context.Context,
) (*domain.JobCounters, error) {
	var counters jobCounters
	if err := r.store.Get(countersKey, &counters); err != nil {
		if err == badgerhold.ErrNotFound {
			return &domain.JobCounters{}, nil
		}
		return nil, err
	}
	return &domain.JobCounters{
		Completed: counters.Completed,
		Failed:    counters.Failed,
	}, nil
}

func (r *jobRepositoryImpl) IncrementCounters(
	_ context.Context, completed, failed int,
) error {
	return r.store.Badger().Update(func(tx *badger.Txn) error {
		var counters jobCounters
		if err := r.store.TxGet(tx, countersKey, &counters); err != nil &&
			err != badgerhold.ErrNotFound {
			return err
		}
		counters.Completed += completed
		counters.Failed += failed
		return r.store.TxUpsert(tx, countersKey, counters)
	})
}
