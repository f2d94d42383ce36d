package jobsched

// DefaultDRRBaseQuantum matches the base_quantum default from the
// reference implementation.
const DefaultDRRBaseQuantum uint32 = 100

// DeficitRoundRobin serves each client from a per-round credit balance:
// a client earns weight*baseQuantum credits per round and each job
// deducts its CostHint. A client keeps serving jobs while its deficit
// stays positive; idle clients do not accumulate credit.
//
// Like WeightedRoundRobin, DeficitRoundRobin keeps no internal lock of
// its own: the scheduler always calls SelectNextJob while holding its
// policy mutex.
type DeficitRoundRobin struct {
	noOpExecutedHook

	baseQuantum uint32
	drrIndex    int
	deficit     map[string]int64
}

// NewDeficitRoundRobin creates a DRR policy with the given base quantum
// (credits per round, scaled by client weight). A baseQuantum of 1 with
// all jobs at CostHint 1 degrades to strict round robin weighted by
// client weight, identical in observable order to WeightedRoundRobin
// with the same weights.
func NewDeficitRoundRobin(baseQuantum uint32) *DeficitRoundRobin {
	return &DeficitRoundRobin{
		baseQuantum: baseQuantum,
		deficit:     make(map[string]int64),
	}
}

// OnClientRegistered seeds the client's deficit balance at zero.
func (p *DeficitRoundRobin) OnClientRegistered(clientID string, _ uint32) {
	p.deficit[clientID] = 0
}

// SelectNextJob implements the DRR selection algorithm from the spec:
// idle clients reset to zero deficit (no carry), a client's deficit is
// refilled by weight*baseQuantum on arrival if non-positive, the
// dequeued job's CostHint is debited, and the cursor rotates once the
// deficit goes non-positive.
func (p *DeficitRoundRobin) SelectNextJob(clientOrder []string, clients map[string]*clientState) *Job {
	n := len(clientOrder)

	for scanned := 0; scanned < n; scanned++ {
		current := clientOrder[p.drrIndex]
		client := clients[current]

		client.mu.Lock()
		if len(client.queue) == 0 {
			client.mu.Unlock()
			p.deficit[current] = 0
			p.drrIndex = (p.drrIndex + 1) % n
			continue
		}

		if p.deficit[current] <= 0 {
			p.deficit[current] += int64(client.weight) * int64(p.baseQuantum)
		}

		job := client.popFrontLocked()
		p.deficit[current] -= int64(job.CostHint)

		if p.deficit[current] <= 0 {
			p.drrIndex = (p.drrIndex + 1) % n
		}

		client.submitCV.Signal()
		client.mu.Unlock()
		return job
	}

	return nil
}
