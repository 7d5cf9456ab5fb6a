package queue

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/tdex-execd/internal/core/domain"
	"github.com/tdex-network/tdex-execd/internal/core/ports"
	"github.com/tdex-network/tdex-execd/pkg/retry"
	"go.uber.org/ratelimit"
)

var (
	ErrQueueClosed     = errors.New("queue is closed")
	ErrQueueNotStarted = errors.New("queue is not started")
)

// jobResult is the outcome of a single job attempt, sent by the worker to
// the result loop.
type jobResult struct {
	job      *domain.Job
	err      error
	stalled  bool
	duration time.Duration
}

// Queue is a durable priority queue dispatching orders to a bounded pool of
// workers. Jobs of a lower priority class are always dispatched first, jobs
// of the same class in arrival order. A failed job is run again, as a whole,
// according to the configured retry policy.
type Queue struct {
	cfg       Config
	repo      domain.JobRepository
	processor ports.OrderProcessor
	metrics   ports.Metrics
	limiter   ratelimit.Limiter

	lock      sync.Mutex
	writeLock sync.Mutex
	jobs      map[string]*domain.Job
	waiting   jobHeap
	timers    map[string]*time.Timer
	active    int
	completed int
	failed    int
	seq       uint64
	paused    bool
	started   bool
	closed    bool

	wake    chan struct{}
	slots   chan struct{}
	results chan jobResult

	ctx          context.Context
	cancel       context.CancelFunc
	workers      sync.WaitGroup
	dispatchDone chan struct{}
	resultsDone  chan struct{}
}

// NewQueue returns a queue dispatching jobs to the given processor.
// Start must be called to restore persisted jobs and begin dispatching.
func NewQueue(
	cfg Config, repo domain.JobRepository, processor ports.OrderProcessor,
	metrics ports.Metrics,
) (*Queue, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if repo == nil {
		return nil, fmt.Errorf("missing job repository")
	}
	if processor == nil {
		return nil, fmt.Errorf("missing order processor")
	}
	if metrics == nil {
		metrics = ports.NoopMetrics{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		cfg:       cfg,
		repo:      repo,
		processor: processor,
		metrics:   metrics,
		limiter: ratelimit.New(
			cfg.RateLimit,
			ratelimit.Per(cfg.RateWindow),
			ratelimit.WithoutSlack,
		),
		jobs:         make(map[string]*domain.Job),
		waiting:      make(jobHeap, 0),
		timers:       make(map[string]*time.Timer),
		wake:         make(chan struct{}, 1),
		slots:        make(chan struct{}, cfg.Concurrency),
		results:      make(chan jobResult, cfg.Concurrency),
		ctx:          ctx,
		cancel:       cancel,
		dispatchDone: make(chan struct{}),
		resultsDone:  make(chan struct{}),
	}, nil
}

// Start restores the jobs persisted by a previous run and starts
// dispatching. Jobs found active were left by a worker that died and are
// handled as stalled; delayed ones are rescheduled for their remaining time.
func (q *Queue) Start(ctx context.Context) error {
	q.lock.Lock()
	defer q.lock.Unlock()

	if q.closed {
		return ErrQueueClosed
	}
	if q.started {
		return nil
	}

	counters, err := q.repo.GetCounters(ctx)
	if err != nil {
		return fmt.Errorf("failed to restore job counters: %w", err)
	}
	q.completed = counters.Completed
	q.failed = counters.Failed

	jobs, err := q.repo.GetAllJobs(ctx)
	if err != nil {
		return fmt.Errorf("failed to restore jobs: %w", err)
	}

	numOfStalled := 0
	for _, job := range jobs {
		if job.Seq > q.seq {
			q.seq = job.Seq
		}

		switch job.State {
		case domain.JobStateActive:
			numOfStalled++
			if !q.requeueStalled(job) {
				q.failed++
				if err := q.repo.DeleteJob(ctx, job.ID); err != nil {
					return err
				}
				if err := q.repo.IncrementCounters(ctx, 0, 1); err != nil {
					return err
				}
				continue
			}
			if err := q.repo.UpdateJob(ctx, job); err != nil {
				return err
			}
		case domain.JobStateDelayed:
			q.jobs[job.ID] = job
			q.scheduleRetry(job, time.Until(job.NextAttemptAt))
		default:
			q.jobs[job.ID] = job
			heap.Push(&q.waiting, job)
		}
	}

	if len(jobs) > 0 {
		log.Infof(
			"queue: restored %d jobs (%d stalled)", len(jobs), numOfStalled,
		)
	}

	q.started = true
	go q.dispatch()
	go q.handleResults()
	q.signal()
	q.metrics.QueueStats(q.statsLocked())
	return nil
}

// Enqueue adds a job for the order, with a priority derived from its type.
// It's a no-op if a job for the same order is already in the queue. Jobs can
// be added only once the queue is started, after the persisted ones have
// been restored.
func (q *Queue) Enqueue(ctx context.Context, order domain.Order) error {
	q.lock.Lock()
	if q.closed {
		q.lock.Unlock()
		return ErrQueueClosed
	}
	if !q.started {
		q.lock.Unlock()
		return ErrQueueNotStarted
	}
	if _, ok := q.jobs[order.ID]; ok {
		q.lock.Unlock()
		return nil
	}
	q.seq++
	job := domain.NewJob(order, q.seq)
	q.jobs[job.ID] = job
	q.lock.Unlock()

	added, err := q.repo.AddJob(ctx, job)
	if err != nil || !added {
		q.lock.Lock()
		delete(q.jobs, job.ID)
		q.lock.Unlock()
		if err != nil {
			return fmt.Errorf("failed to persist job: %w", err)
		}
		return nil
	}

	q.lock.Lock()
	heap.Push(&q.waiting, job)
	stats := q.statsLocked()
	q.lock.Unlock()

	q.metrics.QueueStats(stats)
	q.signal()

	log.WithField("order_id", order.ID).Debugf(
		"queue: enqueued job with priority %d", job.Priority,
	)
	return nil
}

// Stats returns the number of jobs in every state.
func (q *Queue) Stats() ports.QueueStats {
	q.lock.Lock()
	defer q.lock.Unlock()
	return q.statsLocked()
}

// Pause stops dispatching jobs. Jobs already running are not affected.
func (q *Queue) Pause() {
	q.lock.Lock()
	q.paused = true
	stats := q.statsLocked()
	q.lock.Unlock()

	q.metrics.QueueStats(stats)
	log.Info("queue: paused")
}

// Resume restarts dispatching jobs.
func (q *Queue) Resume() {
	q.lock.Lock()
	q.paused = false
	stats := q.statsLocked()
	q.lock.Unlock()

	q.metrics.QueueStats(stats)
	q.signal()
	log.Info("queue: resumed")
}

// Close stops dispatching, waits for running jobs to complete and records
// their outcome. Waiting and delayed jobs stay persisted for the next run.
func (q *Queue) Close() {
	q.lock.Lock()
	if q.closed {
		q.lock.Unlock()
		return
	}
	q.closed = true
	started := q.started
	for id, timer := range q.timers {
		timer.Stop()
		delete(q.timers, id)
	}
	q.lock.Unlock()

	q.cancel()
	if !started {
		return
	}

	<-q.dispatchDone
	q.workers.Wait()
	close(q.results)
	<-q.resultsDone
	log.Info("queue: closed")
}

func (q *Queue) statsLocked() ports.QueueStats {
	return ports.QueueStats{
		Waiting:   len(q.waiting),
		Active:    q.active,
		Delayed:   len(q.timers),
		Completed: q.completed,
		Failed:    q.failed,
		Paused:    q.paused,
	}
}

func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// dispatch acquires a worker slot, waits for the next job and hands it to a
// new worker, until the queue is closed.
func (q *Queue) dispatch() {
	defer close(q.dispatchDone)

	for {
		select {
		case q.slots <- struct{}{}:
		case <-q.ctx.Done():
			return
		}

		job, ok := q.next()
		if !ok {
			return
		}

		q.workers.Add(1)
		go q.work(job)
	}
}

// next blocks until a job can be dispatched without exceeding the rate
// limit. It returns false once the queue is closed.
func (q *Queue) next() (*domain.Job, bool) {
	for {
		if !q.hasReadyJob() {
			select {
			case <-q.wake:
				continue
			case <-q.ctx.Done():
				return nil, false
			}
		}

		q.limiter.Take()
		if q.ctx.Err() != nil {
			return nil, false
		}

		if job := q.pop(); job != nil {
			return job, true
		}
	}
}

func (q *Queue) hasReadyJob() bool {
	q.lock.Lock()
	defer q.lock.Unlock()
	return !q.paused && len(q.waiting) > 0
}

func (q *Queue) pop() *domain.Job {
	q.lock.Lock()
	if q.paused || len(q.waiting) <= 0 {
		q.lock.Unlock()
		return nil
	}

	job := heap.Pop(&q.waiting).(*domain.Job)
	job.State = domain.JobStateActive
	job.Attempts++
	q.active++
	jobCopy := *job
	stats := q.statsLocked()
	q.unlockAndPersist(func(ctx context.Context) {
		if err := q.repo.UpdateJob(ctx, &jobCopy); err != nil {
			log.WithError(err).WithField("order_id", job.ID).Warn(
				"queue: failed to persist active job",
			)
		}
	})

	q.metrics.QueueStats(stats)
	return &jobCopy
}

// work runs one attempt of the job. A panicking processor is handled like a
// worker that died while processing: the job is reported as stalled.
func (q *Queue) work(job *domain.Job) {
	defer q.workers.Done()

	start := time.Now()
	res := jobResult{job: job}

	func() {
		defer func() {
			if r := recover(); r != nil {
				res.stalled = true
				res.err = fmt.Errorf("worker panicked: %v", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), q.cfg.JobTimeout)
		defer cancel()
		res.err = q.processor.ProcessOrder(ctx, job.Order)
	}()

	res.duration = time.Since(start)
	q.results <- res
}

// handleResults is the single consumer of job outcomes.
func (q *Queue) handleResults() {
	defer close(q.resultsDone)

	for res := range q.results {
		q.handleResult(res)
		<-q.slots
	}
}

func (q *Queue) handleResult(res jobResult) {
	logger := log.WithField("order_id", res.job.ID)

	q.lock.Lock()
	q.active--
	job, ok := q.jobs[res.job.ID]
	if !ok {
		q.lock.Unlock()
		return
	}
	job.State = res.job.State
	job.Attempts = res.job.Attempts

	var (
		outcome   string
		completed int
		failed    int
		remove    bool
	)

	switch {
	case res.stalled:
		logger.WithError(res.err).Warn("queue: job stalled")
		if q.requeueStalled(job) {
			outcome = ports.JobOutcomeRetried
			q.signal()
			break
		}
		outcome, failed, remove = ports.JobOutcomeFailed, 1, true
		logger.Errorf(
			"queue: job stalled more than %d times, giving up", q.cfg.MaxStalledCount,
		)

	case res.err == nil:
		outcome, completed, remove = ports.JobOutcomeCompleted, 1, true

	case job.Attempts < q.cfg.RetryPolicy.MaxAttempts:
		job.LastError = res.err.Error()
		delay := q.cfg.RetryPolicy.Delay(job.Attempts - 1)
		if !q.closed {
			q.scheduleRetry(job, delay)
		} else {
			job.State = domain.JobStateDelayed
			job.NextAttemptAt = time.Now().Add(delay)
		}
		outcome = ports.JobOutcomeRetried
		logger.WithError(res.err).Warnf(
			"queue: attempt %d/%d failed, retrying in %s",
			job.Attempts, q.cfg.RetryPolicy.MaxAttempts, delay,
		)

	default:
		job.LastError = res.err.Error()
		outcome, failed, remove = ports.JobOutcomeFailed, 1, true
		attemptsErr := &retry.AttemptsError{Attempts: job.Attempts, Err: res.err}
		logger.WithError(attemptsErr).Error("queue: job permanently failed")
	}

	if remove {
		delete(q.jobs, job.ID)
	}
	q.completed += completed
	q.failed += failed
	jobCopy := *job
	stats := q.statsLocked()
	q.unlockAndPersist(func(ctx context.Context) {
		if remove {
			if err := q.repo.DeleteJob(ctx, jobCopy.ID); err != nil {
				logger.WithError(err).Warn("queue: failed to delete job")
			}
			if err := q.repo.IncrementCounters(ctx, completed, failed); err != nil {
				logger.WithError(err).Warn("queue: failed to update counters")
			}
			return
		}
		if err := q.repo.UpdateJob(ctx, &jobCopy); err != nil {
			logger.WithError(err).Warn("queue: failed to persist job")
		}
	})

	q.metrics.JobFinished(outcome, res.duration)
	q.metrics.QueueStats(stats)
}

// unlockAndPersist releases the lock and runs the given write against the
// job store. The write lock is acquired before the lock is released, so that
// writes reach the store in the same order as the changes they record.
func (q *Queue) unlockAndPersist(write func(ctx context.Context)) {
	q.writeLock.Lock()
	q.lock.Unlock()
	defer q.writeLock.Unlock()

	write(context.Background())
}

// requeueStalled puts the stalled job back in the waiting list, unless it
// already stalled too many times. Must be called with the lock held.
func (q *Queue) requeueStalled(job *domain.Job) bool {
	job.StalledCount++
	if job.StalledCount > q.cfg.MaxStalledCount {
		return false
	}
	if job.Attempts > 0 {
		job.Attempts--
	}
	job.State = domain.JobStateWaiting
	q.jobs[job.ID] = job
	heap.Push(&q.waiting, job)
	return true
}

// scheduleRetry moves the job to the delayed set until the delay elapses.
// Must be called with the lock held.
func (q *Queue) scheduleRetry(job *domain.Job, delay time.Duration) {
	if delay < 0 {
		delay = 0
	}
	job.State = domain.JobStateDelayed
	job.NextAttemptAt = time.Now().Add(delay)

	jobID := job.ID
	q.timers[jobID] = time.AfterFunc(delay, func() {
		q.promote(jobID)
	})
}

// promote moves a delayed job back to the waiting list.
func (q *Queue) promote(jobID string) {
	q.lock.Lock()
	if q.closed {
		q.lock.Unlock()
		return
	}
	delete(q.timers, jobID)
	job, ok := q.jobs[jobID]
	if !ok {
		q.lock.Unlock()
		return
	}
	job.State = domain.JobStateWaiting
	heap.Push(&q.waiting, job)
	jobCopy := *job
	stats := q.statsLocked()
	q.unlockAndPersist(func(ctx context.Context) {
		if err := q.repo.UpdateJob(ctx, &jobCopy); err != nil {
			log.WithError(err).WithField("order_id", jobID).Warn(
				"queue: failed to persist promoted job",
			)
		}
	})

	q.metrics.QueueStats(stats)
	q.signal()
}
