// Package jobsched provides an in-process, multi-tenant job scheduling
// core: a fixed worker pool that dispatches opaque work units submitted
// under a client (tenant) identity, using a pluggable fairness policy to
// pick the next job to run.
//
// The package supports:
//   - Per-client queues, weights, and backpressure (reject / block /
//     drop-oldest / drop-newest)
//   - Pluggable selection policies (Weighted Round Robin, Deficit Round
//     Robin), chosen without changing Scheduler call sites
//   - A fixed worker pool with cooperative wakeup and graceful
//     drain-then-stop shutdown
//   - Per-client and global metrics, including a Jain fairness index
//
// Example usage:
//
//	sched := jobsched.NewScheduler()
//	sched.Register("tenant-a", jobsched.WithWeight(3))
//	sched.Submit(ctx, "tenant-a", func() { doWork() })
//
//	pool := jobsched.NewWorkerPool(sched, 4)
//	defer pool.Shutdown()
package jobsched

import "time"

// Job is an opaque unit of work tagged by client identity. Jobs are
// produced by Scheduler.Submit and consumed at most once by a worker; a
// job dropped by backpressure never runs.
type Job struct {
	ClientID    string    // tenant key the job was submitted under
	Task        func()    // nullary effectful callable, consumed on execution
	EnqueueTime time.Time // captured at construction
	JobID       uint64    // monotonically increasing, process-unique
	CostHint    uint32    // DRR credit cost; default 1; ignored by WRR
}
