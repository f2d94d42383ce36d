package jobsched_test

import (
	"context"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kschedule/jobsched"
)

var _ = Describe("Scheduler", func() {
	var s *jobsched.Scheduler

	BeforeEach(func() {
		s = jobsched.NewScheduler()
	})

	Describe("Client registration", func() {
		It("rejects a zero weight", func() {
			err := s.Register("a", jobsched.WithWeight(0))
			Expect(err).To(MatchError(jobsched.ErrInvalidWeight))
		})

		It("rejects a duplicate client id", func() {
			Expect(s.Register("a")).To(Succeed())
			Expect(s.Register("a")).To(MatchError(jobsched.ErrAlreadyRegistered))
		})
	})

	Describe("Backpressure", func() {
		BeforeEach(func() {
			Expect(s.Register("a",
				jobsched.WithMaxQueueDepth(2),
				jobsched.WithOverflowStrategy(jobsched.Reject))).To(Succeed())
		})

		It("rejects submissions once the queue is at capacity", func() {
			Expect(s.Submit(context.Background(), "a", func() {})).To(Succeed())
			Expect(s.Submit(context.Background(), "a", func() {})).To(Succeed())
			err := s.Submit(context.Background(), "a", func() {})
			Expect(err).To(MatchError(jobsched.ErrQueueFull))

			m, err := s.GetClientMetrics("a")
			Expect(err).NotTo(HaveOccurred())
			Expect(m.OverflowCount).To(Equal(uint64(1)))
			Expect(m.Submitted).To(Equal(uint64(2)))
		})
	})

	Describe("Weighted round robin under the default policy", func() {
		It("dispatches jobs from registered clients in proportion to weight", func() {
			Expect(s.Register("a", jobsched.WithWeight(3))).To(Succeed())
			Expect(s.Register("b", jobsched.WithWeight(1))).To(Succeed())
			Expect(s.Register("c", jobsched.WithWeight(2))).To(Succeed())

			for i := 0; i < 3; i++ {
				Expect(s.Submit(context.Background(), "a", func() {})).To(Succeed())
			}
			Expect(s.Submit(context.Background(), "b", func() {})).To(Succeed())
			for i := 0; i < 2; i++ {
				Expect(s.Submit(context.Background(), "c", func() {})).To(Succeed())
			}

			var order []string
			for {
				job := s.SelectNextJob()
				if job == nil {
					break
				}
				order = append(order, job.ClientID)
			}

			Expect(order).To(Equal([]string{"a", "a", "a", "b", "c", "c"}))
		})
	})

	Describe("Worker pool fairness", func() {
		It("converges to a Jain fairness index near 1.0 across equally-weighted, equally-loaded clients", func() {
			clientIDs := []string{"tenant-1", "tenant-2", "tenant-3"}
			for _, id := range clientIDs {
				Expect(s.Register(id)).To(Succeed())
			}

			pool := jobsched.NewWorkerPool(s, 4, jobsched.WithShutdownPollInterval(time.Millisecond))

			const jobsPerClient = 30
			for _, id := range clientIDs {
				for i := 0; i < jobsPerClient; i++ {
					Expect(s.Submit(context.Background(), id, func() {})).To(Succeed())
				}
			}
			pool.NotifyWorkers()
			pool.Shutdown()

			gm := s.GetGlobalMetrics()
			Expect(gm.TotalProcessed).To(Equal(uint64(jobsPerClient * len(clientIDs))))
			Expect(gm.JainFairnessIndex).To(BeNumerically(">=", 0.99))
			Expect(gm.JainFairnessIndex).To(BeNumerically("<=", 1.0))
		})

		It("drains pending work before fully stopping", func() {
			Expect(s.Register("a")).To(Succeed())
			pool := jobsched.NewWorkerPool(s, 2, jobsched.WithShutdownPollInterval(time.Millisecond))

			var executed atomic.Int64
			for i := 0; i < 25; i++ {
				Expect(s.Submit(context.Background(), "a", func() { executed.Add(1) })).To(Succeed())
			}
			pool.NotifyWorkers()
			pool.Shutdown()

			Expect(executed.Load()).To(Equal(int64(25)))
			Expect(pool.IsRunning()).To(BeFalse())
		})
	})

	Describe("Metrics snapshot", func() {
		It("reports a zero-division-safe fairness index before any job executes", func() {
			Expect(s.Register("a")).To(Succeed())
			Expect(s.Register("b")).To(Succeed())

			gm := s.GetGlobalMetrics()
			Expect(gm.JainFairnessIndex).To(Equal(1.0))
			Expect(gm.TotalProcessed).To(Equal(uint64(0)))
		})
	})
})
