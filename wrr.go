package jobsched

// WeightedRoundRobin serves each client up to its registered weight in
// consecutive jobs before the cursor advances. It ignores CostHint.
//
// With a single worker and no further submissions mid-drain, jobs emit
// in the pattern c0^w0 c1^w1 ... ck^wk repeated, skipping empty clients
// (work-conserving).
//
// WeightedRoundRobin keeps no internal lock of its own: the scheduler
// always calls SelectNextJob while holding its policy mutex, so rrIndex
// and rrRemaining never need independent synchronization.
type WeightedRoundRobin struct {
	noOpExecutedHook

	rrIndex     int
	rrRemaining uint32
}

// NewWeightedRoundRobin creates a WeightedRoundRobin policy with no
// per-client state to initialize — weight is read directly from
// clientState at selection time.
func NewWeightedRoundRobin() *WeightedRoundRobin {
	return &WeightedRoundRobin{}
}

// OnClientRegistered is a no-op: WRR reads weight directly off
// clientState, so there is nothing to initialize per client.
func (p *WeightedRoundRobin) OnClientRegistered(string, uint32) {}

// SelectNextJob implements the WRR selection algorithm from the spec:
// lazy refill of the current client's quota on arrival, work-conserving
// skip of empty clients, rotation once the quota is spent.
func (p *WeightedRoundRobin) SelectNextJob(clientOrder []string, clients map[string]*clientState) *Job {
	n := len(clientOrder)

	for scanned := 0; scanned < n; scanned++ {
		current := clients[clientOrder[p.rrIndex]]

		if p.rrRemaining == 0 {
			p.rrRemaining = current.weight
		}

		current.mu.Lock()
		if len(current.queue) > 0 {
			job := current.popFrontLocked()
			current.submitCV.Signal()
			current.mu.Unlock()

			p.rrRemaining--
			if p.rrRemaining == 0 {
				p.rrIndex = (p.rrIndex + 1) % n
			}
			return job
		}
		current.mu.Unlock()

		// Work-conserving skip: don't let an empty client hold a quota.
		p.rrRemaining = 0
		p.rrIndex = (p.rrIndex + 1) % n
	}

	return nil
}
