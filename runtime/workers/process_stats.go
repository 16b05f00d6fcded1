package workers

import (
	"chat-sync/observability"
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

const DefaultStatsInterval = 5 * time.Second

// ProcessStats samples the memory and CPU of the running process into the metrics.
type ProcessStats struct {
	log      *slog.Logger
	metrics  *observability.Metrics
	interval time.Duration
}

func NewProcessStats(log *slog.Logger, metrics *observability.Metrics, interval time.Duration) *ProcessStats {
	if interval <= 0 {
		interval = DefaultStatsInterval
	}
	return &ProcessStats{log: log, metrics: metrics, interval: interval}
}

func (w *ProcessStats) Run(ctx context.Context) error {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.sample(p); err != nil {
			w.log.Warn("Failed to collect self stats", "error", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *ProcessStats) sample(p *process.Process) error {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return err
	}
	w.metrics.SetProcessStats(memInfo.RSS, cpuPercent)
	return nil
}
