package jobsched

import "time"

// SchedulingPolicy picks the next job to run across all registered
// clients. Implementations maintain their own cursor/credit state and
// must only mutate it while the scheduler's policy lock is held (the
// scheduler guarantees this for every call).
//
// A policy may assume:
//   - clientOrder is stable and non-empty (the scheduler checks
//     emptiness before calling).
//   - clients contains an entry for every id in clientOrder.
//   - it has exclusive access to its own state for the duration of the
//     call.
//   - it must acquire each client's mutex only briefly, to inspect or
//     mutate that client's queue.
type SchedulingPolicy interface {
	// OnClientRegistered is a one-shot initialization hook, called
	// exactly once per client while the registry's exclusive lock is
	// held.
	OnClientRegistered(clientID string, weight uint32)

	// SelectNextJob returns the next job to run, or nil if every client
	// is empty. It must leave the policy in a consistent cursor state
	// whether or not a job is returned.
	SelectNextJob(clientOrder []string, clients map[string]*clientState) *Job

	// OnJobExecuted is an optional hook for time-aware policies. Neither
	// WeightedRoundRobin nor DeficitRoundRobin use it.
	OnJobExecuted(clientID string, duration time.Duration)
}

// noOpExecutedHook implements the default no-op OnJobExecuted so
// concrete policies can embed it instead of redeclaring an empty method
// — the idiomatic Go substitute for the scheduling_policy.h base class's
// non-pure virtual default.
type noOpExecutedHook struct{}

func (noOpExecutedHook) OnJobExecuted(string, time.Duration) {}
