package jobsched

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the scheduler's tunable parameters.
type Config struct {
	// WorkerCount is how many worker goroutines a WorkerPool starts
	// with. Default: runtime-sized by the caller of LoadConfig.
	WorkerCount int

	// Policy selects the default scheduling policy: "wrr" or "drr".
	Policy string

	// DRRBaseQuantum is the credit quantum per round for the DRR policy
	// (ignored when Policy is "wrr").
	DRRBaseQuantum uint32

	// ShutdownPollInterval is how often WorkerPool.Shutdown re-checks
	// for pending jobs while draining.
	ShutdownPollInterval time.Duration
}

// LoadConfig loads scheduler configuration via viper, reading the
// following environment variables (and, if present, a config file named
// jobsched.{yaml,json,toml} on the given search paths):
//   - JOBSCHED_WORKER_COUNT
//   - JOBSCHED_POLICY ("wrr" or "drr")
//   - JOBSCHED_DRR_BASE_QUANTUM
//   - JOBSCHED_SHUTDOWN_POLL_INTERVAL (duration string, e.g. "1ms")
//
// defaultWorkerCount is used when neither the environment nor a config
// file sets JOBSCHED_WORKER_COUNT — callers typically pass
// runtime.NumCPU(). searchPaths is optional; LoadConfig still succeeds
// (falling back to defaults) if no config file is found.
func LoadConfig(defaultWorkerCount int, searchPaths ...string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("jobsched")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("worker_count", defaultWorkerCount)
	v.SetDefault("policy", "wrr")
	v.SetDefault("drr_base_quantum", DefaultDRRBaseQuantum)
	v.SetDefault("shutdown_poll_interval", DefaultShutdownPollInterval)

	v.SetConfigName("jobsched")
	for _, p := range searchPaths {
		v.AddConfigPath(p)
	}
	if len(searchPaths) > 0 {
		if err := v.ReadInConfig(); err != nil {
			if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
				return nil, err
			}
		}
	}

	cfg := &Config{
		WorkerCount:          v.GetInt("worker_count"),
		Policy:               v.GetString("policy"),
		DRRBaseQuantum:       uint32(v.GetUint("drr_base_quantum")),
		ShutdownPollInterval: v.GetDuration("shutdown_poll_interval"),
	}
	return cfg, nil
}

// NewPolicy builds the SchedulingPolicy named by Config.Policy. Unknown
// policy names fall back to WeightedRoundRobin.
func (c *Config) NewPolicy() SchedulingPolicy {
	switch strings.ToLower(c.Policy) {
	case "drr":
		return NewDeficitRoundRobin(c.DRRBaseQuantum)
	default:
		return NewWeightedRoundRobin()
	}
}
