package jobsched

import "testing"

func TestDeficitRoundRobin_UnitCostMatchesWRR(t *testing.T) {
	order := []string{"A", "B"}
	weights := map[string]uint32{"A": 1, "B": 1}
	clients := newTestClients(t, weights, order)

	enqueue(clients["A"], "A", 1)
	enqueue(clients["A"], "A", 2)
	enqueue(clients["B"], "B", 3)
	enqueue(clients["B"], "B", 4)

	policy := NewDeficitRoundRobin(1)
	policy.OnClientRegistered("A", 1)
	policy.OnClientRegistered("B", 1)

	var got []string
	for {
		job := policy.SelectNextJob(order, clients)
		if job == nil {
			break
		}
		got = append(got, job.ClientID)
	}

	want := []string{"A", "B", "A", "B"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestDeficitRoundRobin_ThroughputRatio(t *testing.T) {
	order := []string{"A", "B"}
	weights := map[string]uint32{"A": 1, "B": 3}
	clients := newTestClients(t, weights, order)

	for i := 0; i < 20; i++ {
		enqueue(clients["A"], "A", uint64(i))
	}
	for i := 0; i < 60; i++ {
		enqueue(clients["B"], "B", uint64(1000+i))
	}

	policy := NewDeficitRoundRobin(1)
	policy.OnClientRegistered("A", 1)
	policy.OnClientRegistered("B", 3)

	executed := map[string]int{}
	selected := 0
	for {
		job := policy.SelectNextJob(order, clients)
		if job == nil {
			break
		}
		executed[job.ClientID]++
		selected++
		// While both clients are backlogged, B is served 3 jobs per A job.
		if selected == 40 && (executed["A"] != 10 || executed["B"] != 30) {
			t.Fatalf("after 40 selections executed = %v, want A=10 B=30", executed)
		}
	}

	if executed["A"] != 20 || executed["B"] != 60 {
		t.Fatalf("executed = %v, want A=20 B=60", executed)
	}
}

func TestDeficitRoundRobin_IdleClientDoesNotAccumulateCredit(t *testing.T) {
	order := []string{"A", "B"}
	weights := map[string]uint32{"A": 1, "B": 1}
	clients := newTestClients(t, weights, order)

	policy := NewDeficitRoundRobin(10)
	policy.OnClientRegistered("A", 1)
	policy.OnClientRegistered("B", 1)

	// Simulate A having accumulated stale credit from a prior cycle: the
	// selection loop must zero it out the next time it scans over A while
	// A's queue is empty, rather than letting it carry forward.
	policy.deficit["A"] = 37

	enqueue(clients["B"], "B", 1)
	job := policy.SelectNextJob(order, clients) // drrIndex starts at A (empty) -> resets -> rotates to B
	if job == nil || job.ClientID != "B" {
		t.Fatalf("expected B to be served, got %+v", job)
	}
	if got := policy.deficit["A"]; got != 0 {
		t.Fatalf("expected A's idle deficit reset to 0, got %d", got)
	}

	// Now A becomes active: it must earn exactly one round's worth of
	// credit (weight * base_quantum), not the stale 37 plus a refill.
	enqueue(clients["A"], "A", 2)
	enqueue(clients["A"], "A", 3)
	job = policy.SelectNextJob(order, clients)
	if job == nil || job.ClientID != "A" {
		t.Fatalf("expected A to be served next, got %+v", job)
	}
	if got := policy.deficit["A"]; got != 9 { // 1*10 - 1 cost
		t.Fatalf("expected A's deficit to reflect a single fresh quantum, got %d", got)
	}
}

func TestDeficitRoundRobin_LargeCostSpansRounds(t *testing.T) {
	order := []string{"A", "B"}
	weights := map[string]uint32{"A": 1, "B": 1}
	clients := newTestClients(t, weights, order)

	policy := NewDeficitRoundRobin(10)
	policy.OnClientRegistered("A", 1)
	policy.OnClientRegistered("B", 1)

	clients["A"].mu.Lock()
	clients["A"].pushBackLocked(&Job{ClientID: "A", JobID: 1, CostHint: 25})
	clients["A"].mu.Unlock()
	enqueue(clients["B"], "B", 2)

	job := policy.SelectNextJob(order, clients)
	if job == nil || job.ClientID != "A" || job.CostHint != 25 {
		t.Fatalf("expected A's oversized job first, got %+v", job)
	}
	// A's deficit is now 10-25 = -15; cursor rotated to B.
	next := policy.SelectNextJob(order, clients)
	if next == nil || next.ClientID != "B" {
		t.Fatalf("expected B next, got %+v", next)
	}
}
