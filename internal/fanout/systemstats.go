package fanout

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"
)

// SystemStatsInterval is the host cpu/ram sampling cadence.
const SystemStatsInterval = 5 * time.Second

// RunSystemStats periodically samples host CPU and RAM usage and pushes
// the snapshot into f, until ctx is canceled.
func RunSystemStats(ctx context.Context, f *Fanout, interval time.Duration, logger *zap.Logger) {
	if interval == 0 {
		interval = SystemStatsInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.UpdateSystemStats(sampleSystemStats(f.hub.Count(), logger))
		}
	}
}

func sampleSystemStats(connectedClients int, logger *zap.Logger) map[string]any {
	stats := map[string]any{
		"cpu_percent":       0.0,
		"ram_percent":       0.0,
		"ram_used_mb":       0.0,
		"ram_total_mb":      0.0,
		"connected_clients": connectedClients,
	}

	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		stats["cpu_percent"] = pct[0]
	} else if err != nil {
		logger.Debug("cpu sample failed", zap.Error(err))
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		stats["ram_percent"] = vm.UsedPercent
		stats["ram_used_mb"] = float64(vm.Used) / (1024 * 1024)
		stats["ram_total_mb"] = float64(vm.Total) / (1024 * 1024)
	} else {
		logger.Debug("mem sample failed", zap.Error(err))
	}

	return stats
}
