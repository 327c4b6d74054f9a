package workers

import (
	"context"
	"time"

	"poise/internal/perf"
)

// PerfSamplerWorker periodically snapshots pipeline health and logs any
// threshold recommendations. The scoring path itself never waits on it.
type PerfSamplerWorker struct {
	*BaseWorker
	monitor *perf.Monitor
}

// NewPerfSamplerWorker creates the performance sampling worker
func NewPerfSamplerWorker(monitor *perf.Monitor, interval time.Duration) *PerfSamplerWorker {
	return &PerfSamplerWorker{
		BaseWorker: NewBaseWorker("perf_sampler", interval, true),
		monitor:    monitor,
	}
}

// Run samples the monitor once
func (w *PerfSamplerWorker) Run(ctx context.Context) error {
	start := time.Now()

	snap := w.monitor.Snapshot()
	if snap.Passes == 0 {
		w.RecordRun(time.Since(start))
		return nil
	}

	w.Log().Infow("Pipeline health",
		"passes", snap.Passes,
		"avg_latency", snap.AvgLatency,
		"throughput", snap.Throughput,
		"error_rate", snap.ErrorRate,
	)
	for _, rec := range snap.Recommendations {
		w.Log().Warnw("Performance recommendation", "recommendation", rec)
	}

	w.RecordRun(time.Since(start))
	return nil
}
