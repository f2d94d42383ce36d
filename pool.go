package jobsched

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// DefaultShutdownPollInterval is how often Shutdown re-checks
// HasPendingJobs while draining.
const DefaultShutdownPollInterval = time.Millisecond

// WorkerPool is a fixed set of goroutines that pull jobs from a
// Scheduler and execute them outside any scheduler lock. It holds only a
// reference to the Scheduler — the Scheduler has no knowledge of the
// pool, so the pool is a pure consumer, not part of scheduling
// semantics.
type WorkerPool struct {
	scheduler *Scheduler
	logger    *slog.Logger

	workerCount  int
	pollInterval time.Duration

	running  atomic.Bool
	draining atomic.Bool

	cvMu sync.Mutex
	cv   *sync.Cond

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	shutdownOnce sync.Once
}

// PoolOption configures a WorkerPool at construction time.
type PoolOption func(*WorkerPool)

// WithPoolLogger overrides the pool's structured logger. Default is
// slog.Default().
func WithPoolLogger(logger *slog.Logger) PoolOption {
	return func(p *WorkerPool) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithShutdownPollInterval overrides the drain-loop poll interval used
// by Shutdown. Default is DefaultShutdownPollInterval (1ms), matching
// the spec's coarse-spin design.
func WithShutdownPollInterval(d time.Duration) PoolOption {
	return func(p *WorkerPool) {
		if d > 0 {
			p.pollInterval = d
		}
	}
}

// NewWorkerPool creates a WorkerPool of workerCount goroutines sharing
// scheduler, and starts them immediately in the RUNNING state.
func NewWorkerPool(scheduler *Scheduler, workerCount int, opts ...PoolOption) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())
	p := &WorkerPool{
		scheduler:    scheduler,
		logger:       slog.Default(),
		workerCount:  workerCount,
		pollInterval: DefaultShutdownPollInterval,
		ctx:          ctx,
		cancel:       cancel,
	}
	p.cv = sync.NewCond(&p.cvMu)
	p.running.Store(true)

	for _, opt := range opts {
		opt(p)
	}

	for i := 0; i < workerCount; i++ {
		workerID := uuid.NewString()
		p.wg.Add(1)
		go p.workerLoop(workerID)
	}
	return p
}

// NotifyWorkers wakes one idle worker. Producers call this after Submit
// to resume promptly; the scheduler never calls it itself, keeping
// submission decoupled from worker-pool identity.
func (p *WorkerPool) NotifyWorkers() {
	p.cvMu.Lock()
	p.cv.Signal()
	p.cvMu.Unlock()
}

// IsRunning reports whether the pool is still running. It turns false
// once Shutdown has drained every client queue, before the workers are
// joined.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}

// WorkerCount returns the number of worker goroutines the pool was
// constructed with.
func (p *WorkerPool) WorkerCount() int {
	return p.workerCount
}

// Shutdown transitions the pool RUNNING -> DRAINING -> STOPPED: it lets
// workers keep executing until every client queue is empty, then stops
// them. It is idempotent — a second call blocks until the first
// completes and then returns immediately.
func (p *WorkerPool) Shutdown() {
	p.shutdownOnce.Do(func() {
		p.draining.Store(true)
		p.broadcast()

		// Coarse spin: closes the race where a worker sampled "no job"
		// between a producer's push and the producer's notify.
		for p.scheduler.HasPendingJobs() {
			p.broadcast()
			time.Sleep(p.pollInterval)
		}

		p.running.Store(false)
		p.broadcast()
		p.cancel()

		p.wg.Wait()
		p.logger.Info("worker pool stopped", "worker_count", p.workerCount)
	})
}

func (p *WorkerPool) broadcast() {
	p.cvMu.Lock()
	p.cv.Broadcast()
	p.cvMu.Unlock()
}

func (p *WorkerPool) workerLoop(workerID string) {
	defer p.wg.Done()

	for {
		if p.ctx.Err() != nil {
			return
		}

		job := p.scheduler.SelectNextJob()
		if job == nil {
			if p.draining.Load() && !p.scheduler.HasPendingJobs() {
				return
			}
			p.waitForWakeup()
			continue
		}

		start := time.Now()
		if job.Task != nil {
			job.Task()
		}
		duration := time.Since(start)

		p.scheduler.RecordExecution(job.ClientID, duration)
		p.logger.Debug("job executed", "worker_id", workerID, "client_id", job.ClientID,
			"job_id", job.JobID, "duration_us", duration.Microseconds())
	}
}

// waitForWakeup blocks until NotifyWorkers, Shutdown's draining
// transition, or its running=false transition. The predicate is checked
// before waiting; any wakeup, spurious or not, returns to the worker
// loop, which always re-attempts selection before sleeping again.
func (p *WorkerPool) waitForWakeup() {
	p.cvMu.Lock()
	if !p.draining.Load() && p.running.Load() {
		p.cv.Wait()
	}
	p.cvMu.Unlock()
}
