package jobsched

import "github.com/prometheus/client_golang/prometheus"

// MetricsCollector adapts a Scheduler's per-client and global metrics
// (ClientMetrics, GlobalMetrics) into a prometheus.Collector. It never
// mutates scheduler state — Collect only reads snapshots on each scrape.
type MetricsCollector struct {
	scheduler *Scheduler
	clientIDs func() []string

	submitted      *prometheus.Desc
	executed       *prometheus.Desc
	avgExecUs      *prometheus.Desc
	queueDepth     *prometheus.Desc
	weight         *prometheus.Desc
	overflowCount  *prometheus.Desc
	totalProcessed *prometheus.Desc
	activeClients  *prometheus.Desc
	jainFairness   *prometheus.Desc
}

// NewMetricsCollector creates a MetricsCollector for scheduler. clientIDs
// returns the set of client ids to scrape per-client metrics for; it is
// called on every Collect, so callers typically supply a function that
// reads the scheduler's own registered-client list (see
// Scheduler.RegisteredClients).
func NewMetricsCollector(scheduler *Scheduler, clientIDs func() []string) *MetricsCollector {
	const ns = "jobsched"
	clientLabels := []string{"client_id"}

	return &MetricsCollector{
		scheduler: scheduler,
		clientIDs: clientIDs,

		submitted: prometheus.NewDesc(
			prometheus.BuildFQName(ns, "client", "submitted_total"),
			"Total jobs submitted for this client.", clientLabels, nil),
		executed: prometheus.NewDesc(
			prometheus.BuildFQName(ns, "client", "executed_total"),
			"Total jobs executed for this client.", clientLabels, nil),
		avgExecUs: prometheus.NewDesc(
			prometheus.BuildFQName(ns, "client", "avg_execution_time_microseconds"),
			"Average job execution time for this client.", clientLabels, nil),
		queueDepth: prometheus.NewDesc(
			prometheus.BuildFQName(ns, "client", "queue_depth"),
			"Current queue depth for this client.", clientLabels, nil),
		weight: prometheus.NewDesc(
			prometheus.BuildFQName(ns, "client", "weight"),
			"Registered scheduling weight for this client.", clientLabels, nil),
		overflowCount: prometheus.NewDesc(
			prometheus.BuildFQName(ns, "client", "overflow_total"),
			"Total jobs dropped or rejected by backpressure for this client.", clientLabels, nil),
		totalProcessed: prometheus.NewDesc(
			prometheus.BuildFQName(ns, "", "total_processed"),
			"Total jobs processed across all clients.", nil, nil),
		activeClients: prometheus.NewDesc(
			prometheus.BuildFQName(ns, "", "active_clients"),
			"Number of registered clients.", nil, nil),
		jainFairness: prometheus.NewDesc(
			prometheus.BuildFQName(ns, "", "jain_fairness_index"),
			"Jain fairness index over executed-job counts across clients.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *MetricsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.submitted
	ch <- c.executed
	ch <- c.avgExecUs
	ch <- c.queueDepth
	ch <- c.weight
	ch <- c.overflowCount
	ch <- c.totalProcessed
	ch <- c.activeClients
	ch <- c.jainFairness
}

// Collect implements prometheus.Collector.
func (c *MetricsCollector) Collect(ch chan<- prometheus.Metric) {
	for _, id := range c.clientIDs() {
		m, err := c.scheduler.GetClientMetrics(id)
		if err != nil {
			continue
		}
		ch <- prometheus.MustNewConstMetric(c.submitted, prometheus.CounterValue, float64(m.Submitted), id)
		ch <- prometheus.MustNewConstMetric(c.executed, prometheus.CounterValue, float64(m.Executed), id)
		ch <- prometheus.MustNewConstMetric(c.avgExecUs, prometheus.GaugeValue, m.AvgExecutionTimeUs, id)
		ch <- prometheus.MustNewConstMetric(c.queueDepth, prometheus.GaugeValue, float64(m.QueueDepth), id)
		ch <- prometheus.MustNewConstMetric(c.weight, prometheus.GaugeValue, float64(m.Weight), id)
		ch <- prometheus.MustNewConstMetric(c.overflowCount, prometheus.CounterValue, float64(m.OverflowCount), id)
	}

	gm := c.scheduler.GetGlobalMetrics()
	ch <- prometheus.MustNewConstMetric(c.totalProcessed, prometheus.CounterValue, float64(gm.TotalProcessed))
	ch <- prometheus.MustNewConstMetric(c.activeClients, prometheus.GaugeValue, float64(gm.ActiveClients))
	ch <- prometheus.MustNewConstMetric(c.jainFairness, prometheus.GaugeValue, gm.JainFairnessIndex)
}
