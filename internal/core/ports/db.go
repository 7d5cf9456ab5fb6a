package ports

import "github.com/tdex-network/tdex-execd/internal/core/domain"

// RepoManager gives access to the repositories of every domain entity.
type RepoManager interface {
	OrderRepository() domain.OrderRepository
	JobRepository() domain.JobRepository
	Close()
}
