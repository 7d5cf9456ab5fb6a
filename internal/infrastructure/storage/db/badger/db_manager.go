package dbbadger

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/tdex-execd/internal/core/domain"
	"github.com/tdex-network/tdex-execd/internal/core/ports"
	"github.com/timshannon/badgerhold/v4"
)

const (
	ordersDir = "orders"
	jobsDir   = "jobs"
)

type repoManager struct {
	orderStore *badgerhold.Store
	jobStore   *badgerhold.Store

	orderRepository domain.OrderRepository
	jobRepository   domain.JobRepository

	stopGC chan struct{}
}

// NewRepoManager opens (or creates if not exists) the badger stores for
// orders and jobs. If baseDbDir is empty the stores are kept in memory.
func NewRepoManager(
	baseDbDir string, logger badger.Logger,
) (ports.RepoManager, error) {
	var orderDir, jobDir string
	if len(baseDbDir) > 0 {
		orderDir = filepath.Join(baseDbDir, ordersDir)
		jobDir = filepath.Join(baseDbDir, jobsDir)
	}

	stopGC := make(chan struct{})

	orderStore, err := createDb(orderDir, logger, stopGC)
	if err != nil {
		return nil, fmt.Errorf("opening order db: %w", err)
	}

	jobStore, err := createDb(jobDir, logger, stopGC)
	if err != nil {
		orderStore.Close()
		return nil, fmt.Errorf("opening job db: %w", err)
	}

	return &repoManager{
		orderStore:      orderStore,
		jobStore:        jobStore,
		orderRepository: NewOrderRepositoryImpl(orderStore),
		jobRepository:   NewJobRepositoryImpl(jobStore),
		stopGC:          stopGC,
	}, nil
}

func (r *repoManager) OrderRepository() domain.OrderRepository {
	return r.orderRepository
}

func (r *repoManager) JobRepository() domain.JobRepository {
	return r.jobRepository
}

func (r *repoManager) Close() {
	close(r.stopGC)
	r.orderStore.Close()
	r.jobStore.Close()
}

func createDb(
	dbDir string, logger badger.Logger, stopGC chan struct{},
) (*badgerhold.Store, error) {
	isInMemory := len(dbDir) <= 0

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger

	if isInMemory {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	db, err := badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
	if err != nil {
		return nil, err
	}

	if !isInMemory {
		ticker := time.NewTicker(30 * time.Minute)

		go func() {
			defer ticker.Stop()
			for {
				select {
				case <-stopGC:
					return
				case <-ticker.C:
					if err := db.Badger().RunValueLogGC(0.5); err != nil &&
						err != badger.ErrNoRewrite {
						log.Error(err)
					}
				}
			}
		}()
	}

	return db, nil
}
