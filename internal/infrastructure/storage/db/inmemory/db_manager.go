package inmemory

import (
	"github.com/tdex-network/tdex-execd/internal/core/domain"
	"github.com/tdex-network/tdex-execd/internal/core/ports"
)

type repoManager struct {
	orderRepository domain.OrderRepository
	jobRepository   domain.JobRepository
}

// NewRepoManager returns a RepoManager whose repositories live in memory.
func NewRepoManager() ports.RepoManager {
	return &repoManager{
		orderRepository: NewOrderRepositoryImpl(),
		jobRepository:   NewJobRepositoryImpl(),
	}
}

func (r *repoManager) OrderRepository() domain.OrderRepository {
	return r.orderRepository
}

func (r *repoManager) JobRepository() domain.JobRepository {
	return r.jobRepository
}

func (r *repoManager) Close() {}
