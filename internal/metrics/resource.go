package metrics

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// ResourceSampler periodically samples the daemon's own resource usage
// into the self_* gauges.
type ResourceSampler struct {
	interval time.Duration
	proc     *process.Process
	logger   *slog.Logger
}

// NewResourceSampler creates a sampler for the current process.
func NewResourceSampler(interval time.Duration, logger *slog.Logger) (*ResourceSampler, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &ResourceSampler{
		interval: interval,
		proc:     proc,
		logger:   logger.With("component", "resource_sampler"),
	}, nil
}

// Run samples until the context is cancelled.
func (rs *ResourceSampler) Run(ctx context.Context) {
	ticker := time.NewTicker(rs.interval)
	defer ticker.Stop()

	rs.sample()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rs.sample()
		}
	}
}

func (rs *ResourceSampler) sample() {
	if cpu, err := rs.proc.CPUPercent(); err == nil {
		SelfCPUPercent.Set(cpu)
	}
	if memInfo, err := rs.proc.MemoryInfo(); err == nil {
		SelfMemoryBytes.WithLabelValues("rss").Set(float64(memInfo.RSS))
		SelfMemoryBytes.WithLabelValues("vms").Set(float64(memInfo.VMS))
	}
	if threads, err := rs.proc.NumThreads(); err == nil {
		SelfThreads.Set(float64(threads))
	}
	if fds, err := rs.proc.NumFDs(); err == nil {
		SelfFileDescriptors.Set(float64(fds))
	}
}
