package jobsched

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// ClientMetrics is a point-in-time snapshot of one client's counters.
// Individual fields are read independently (atomics for the counters,
// the client mutex for queue depth), so the snapshot is per-field
// consistent, not transactional.
type ClientMetrics struct {
	Submitted          uint64
	Executed           uint64
	AvgExecutionTimeUs float64
	QueueDepth         int
	Weight             uint32
	OverflowCount      uint64
}

// GlobalMetrics is a point-in-time snapshot of scheduler-wide counters.
type GlobalMetrics struct {
	TotalProcessed    uint64
	ActiveClients     int
	JainFairnessIndex float64
}

// Scheduler holds a registry of per-client queues and dispatches jobs to
// worker goroutines under a pluggable SchedulingPolicy. It is safe for
// concurrent use by multiple producer and worker goroutines.
type Scheduler struct {
	logger *slog.Logger

	registryMu  sync.RWMutex
	clients     map[string]*clientState
	clientOrder []string

	policyMu sync.Mutex
	policy   SchedulingPolicy

	nextJobID      atomic.Uint64
	totalProcessed atomic.Uint64
}

// SchedulerOption configures a Scheduler at construction time.
type SchedulerOption func(*Scheduler)

// WithLogger overrides the scheduler's structured logger. The default is
// slog.Default().
func WithLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPolicy injects a SchedulingPolicy. The default is WeightedRoundRobin.
func WithPolicy(policy SchedulingPolicy) SchedulerOption {
	return func(s *Scheduler) {
		if policy != nil {
			s.policy = policy
		}
	}
}

// NewScheduler creates a Scheduler. Without WithPolicy, it defaults to
// WeightedRoundRobin; job ids start at 1.
func NewScheduler(opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		logger:      slog.Default(),
		clients:     make(map[string]*clientState),
		clientOrder: make([]string, 0),
		policy:      NewWeightedRoundRobin(),
	}
	s.nextJobID.Store(1)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterOption configures client registration.
type RegisterOption func(*registerConfig)

type registerConfig struct {
	weight           uint32
	maxQueueDepth    int
	overflowStrategy OverflowStrategy
}

// WithWeight sets the client's WRR/DRR weight. Default 1.
func WithWeight(weight uint32) RegisterOption {
	return func(c *registerConfig) { c.weight = weight }
}

// WithMaxQueueDepth bounds the client's queue. Default 0 (unlimited).
func WithMaxQueueDepth(depth int) RegisterOption {
	return func(c *registerConfig) { c.maxQueueDepth = depth }
}

// WithOverflowStrategy sets the backpressure strategy applied once the
// queue is at MaxQueueDepth. Default Reject.
func WithOverflowStrategy(strategy OverflowStrategy) RegisterOption {
	return func(c *registerConfig) { c.overflowStrategy = strategy }
}

// Register adds a new client to the scheduler. It fails with
// ErrInvalidWeight if weight resolves to 0, or ErrAlreadyRegistered if
// clientID is already known.
func (s *Scheduler) Register(clientID string, opts ...RegisterOption) error {
	cfg := registerConfig{weight: 1, overflowStrategy: Reject}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.weight == 0 {
		return fmt.Errorf("%w: %s", ErrInvalidWeight, clientID)
	}

	s.registryMu.Lock()
	defer s.registryMu.Unlock()

	if _, exists := s.clients[clientID]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, clientID)
	}

	s.clients[clientID] = newClientState(clientID, cfg.weight, cfg.maxQueueDepth, cfg.overflowStrategy)
	s.clientOrder = append(s.clientOrder, clientID)

	s.policyMu.Lock()
	s.policy.OnClientRegistered(clientID, cfg.weight)
	s.policyMu.Unlock()

	s.logger.Info("client registered", "client_id", clientID, "weight", cfg.weight,
		"max_queue_depth", cfg.maxQueueDepth, "overflow_strategy", cfg.overflowStrategy.String())
	return nil
}

// SubmitOption configures a single Submit call.
type SubmitOption func(*submitConfig)

type submitConfig struct {
	costHint uint32
}

// WithCostHint sets the DRR credit cost of the job. Default 1; ignored
// by policies that don't read it.
func WithCostHint(cost uint32) SubmitOption {
	return func(c *submitConfig) { c.costHint = cost }
}

// Submit enqueues task under clientID. It fails with ErrUnknownClient if
// clientID is not registered. Under the Block overflow strategy, Submit
// waits until the queue has room or ctx is cancelled; all other
// strategies return immediately. Submit never runs task itself.
func (s *Scheduler) Submit(ctx context.Context, clientID string, task func(), opts ...SubmitOption) error {
	cfg := submitConfig{costHint: 1}
	for _, opt := range opts {
		opt(&cfg)
	}

	s.registryMu.RLock()
	client, ok := s.clients[clientID]
	s.registryMu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownClient, clientID)
	}

	job := &Job{
		ClientID:    clientID,
		Task:        task,
		EnqueueTime: time.Now(),
		JobID:       s.nextJobID.Add(1) - 1,
		CostHint:    cfg.costHint,
	}

	client.mu.Lock()
	if client.maxQueueDepth > 0 && len(client.queue) >= client.maxQueueDepth {
		switch client.overflowStrategy {
		case Reject:
			client.overflow.Add(1)
			client.mu.Unlock()
			s.logger.Debug("submit rejected: queue full", "client_id", clientID, "job_id", job.JobID)
			return fmt.Errorf("%w: %s", ErrQueueFull, clientID)

		case Block:
			if err := s.waitForRoomLocked(ctx, client); err != nil {
				client.mu.Unlock()
				return err
			}

		case DropOldest:
			if len(client.queue) >= client.maxQueueDepth {
				client.popFrontLocked()
				client.overflow.Add(1)
				s.logger.Debug("submit: dropped oldest job", "client_id", clientID)
			}

		case DropNewest:
			client.overflow.Add(1)
			client.mu.Unlock()
			s.logger.Debug("submit: dropped newest job", "client_id", clientID, "job_id", job.JobID)
			return nil
		}
	}

	client.pushBackLocked(job)
	client.mu.Unlock()

	client.submitted.Add(1)
	s.logger.Debug("submit accepted", "client_id", clientID, "job_id", job.JobID)
	return nil
}

// waitForRoomLocked waits on client.submitCV until the queue has room or
// ctx is done. Caller must hold client.mu; it is still held on return,
// with or without an error, and on error the caller releases it. A
// context.Context has no native integration with sync.Cond, so
// a short-lived goroutine translates ctx.Done() into a Broadcast that
// wakes the waiter.
func (s *Scheduler) waitForRoomLocked(ctx context.Context, client *clientState) error {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
		stop := make(chan struct{})
		defer close(stop)
		go func() {
			select {
			case <-ctx.Done():
				client.mu.Lock()
				client.submitCV.Broadcast()
				client.mu.Unlock()
			case <-stop:
			}
		}()
	}

	for len(client.queue) >= client.maxQueueDepth {
		if ctx != nil {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		client.submitCV.Wait()
	}
	return nil
}

// SelectNextJob asks the scheduling policy for the next job to run. It
// returns nil if every client queue is empty. The scheduler never
// executes the job itself; it only transfers ownership to the caller.
func (s *Scheduler) SelectNextJob() *Job {
	s.registryMu.RLock()
	defer s.registryMu.RUnlock()

	if len(s.clientOrder) == 0 {
		return nil
	}

	s.policyMu.Lock()
	defer s.policyMu.Unlock()
	return s.policy.SelectNextJob(s.clientOrder, s.clients)
}

// RecordExecution records that a job belonging to clientID finished
// running, updating that client's and the scheduler's metrics. It
// silently ignores an unknown clientID — defensive, since this can only
// be called by a worker with a Job obtained from SelectNextJob.
func (s *Scheduler) RecordExecution(clientID string, duration time.Duration) {
	s.registryMu.RLock()
	client, ok := s.clients[clientID]
	s.registryMu.RUnlock()
	if !ok {
		return
	}

	client.executed.Add(1)
	client.totalExecMicro.Add(duration.Microseconds())
	s.totalProcessed.Add(1)

	s.policyMu.Lock()
	s.policy.OnJobExecuted(clientID, duration)
	s.policyMu.Unlock()
}

// HasPendingJobs reports whether any client queue is non-empty. Used by
// the worker pool's drain loop.
func (s *Scheduler) HasPendingJobs() bool {
	s.registryMu.RLock()
	defer s.registryMu.RUnlock()

	for _, id := range s.clientOrder {
		client := s.clients[id]
		client.mu.Lock()
		empty := len(client.queue) == 0
		client.mu.Unlock()
		if !empty {
			return true
		}
	}
	return false
}

// GetClientMetrics returns a snapshot of clientID's counters. It fails with
// ErrUnknownClient if clientID is not registered.
func (s *Scheduler) GetClientMetrics(clientID string) (ClientMetrics, error) {
	s.registryMu.RLock()
	client, ok := s.clients[clientID]
	s.registryMu.RUnlock()
	if !ok {
		return ClientMetrics{}, fmt.Errorf("%w: %s", ErrUnknownClient, clientID)
	}

	submitted := client.submitted.Load()
	executed := client.executed.Load()
	totalUs := client.totalExecMicro.Load()

	var avg float64
	if executed > 0 {
		avg = float64(totalUs) / float64(executed)
	}

	client.mu.Lock()
	depth := client.queueDepthLocked()
	client.mu.Unlock()

	return ClientMetrics{
		Submitted:          submitted,
		Executed:           executed,
		AvgExecutionTimeUs: avg,
		QueueDepth:         depth,
		Weight:             client.weight,
		OverflowCount:      client.overflow.Load(),
	}, nil
}

// GetGlobalMetrics returns a scheduler-wide snapshot, including the Jain
// fairness index over executed-job counts. The index is 1.0 when fewer
// than two clients are registered or when no jobs have executed yet.
func (s *Scheduler) GetGlobalMetrics() GlobalMetrics {
	s.registryMu.RLock()
	defer s.registryMu.RUnlock()

	gm := GlobalMetrics{
		TotalProcessed: s.totalProcessed.Load(),
		ActiveClients:  len(s.clients),
	}

	if len(s.clients) < 2 {
		gm.JainFairnessIndex = 1.0
		return gm
	}

	var sum, sumSq float64
	for _, client := range s.clients {
		x := float64(client.executed.Load())
		sum += x
		sumSq += x * x
	}

	if sumSq == 0 {
		gm.JainFairnessIndex = 1.0
	} else {
		n := float64(len(s.clients))
		gm.JainFairnessIndex = (sum * sum) / (n * sumSq)
	}
	return gm
}

// TotalJobsProcessed returns the scheduler-wide executed job count.
func (s *Scheduler) TotalJobsProcessed() uint64 {
	return s.totalProcessed.Load()
}

// RegisteredClients returns the registered client ids in registration
// order. Callers must not mutate the returned slice.
func (s *Scheduler) RegisteredClients() []string {
	s.registryMu.RLock()
	defer s.registryMu.RUnlock()

	out := make([]string, len(s.clientOrder))
	copy(out, s.clientOrder)
	return out
}
