// Package sysmetrics reports process and host resource usage, backing the
// system status endpoint.
package sysmetrics

import (
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Snapshot is a point-in-time reading of host resource usage.
type Snapshot struct {
	CPUPercent    float64   `json:"cpu_percent"`
	MemoryPercent float64   `json:"memory_percent"`
	MemoryUsedMB  float64   `json:"memory_used_mb"`
	MemoryTotalMB float64   `json:"memory_total_mb"`
	UptimeSeconds float64   `json:"uptime_seconds"`
	CollectedAt   time.Time `json:"collected_at"`
}

// Collector reports host resource usage relative to a fixed startup time.
type Collector struct {
	startedAt time.Time
}

// NewCollector starts the uptime clock at construction time.
func NewCollector() *Collector {
	return &Collector{startedAt: time.Now()}
}

// Collect samples CPU over a short window and reads memory instantly, so a
// single call blocks for about 100ms.
func (c *Collector) Collect() (Snapshot, error) {
	cpuPercents, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		return Snapshot{}, err
	}
	var cpuPercent float64
	if len(cpuPercents) > 0 {
		cpuPercent = cpuPercents[0]
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		CPUPercent:    cpuPercent,
		MemoryPercent: memStat.UsedPercent,
		MemoryUsedMB:  float64(memStat.Used) / 1024 / 1024,
		MemoryTotalMB: float64(memStat.Total) / 1024 / 1024,
		UptimeSeconds: time.Since(c.startedAt).Seconds(),
		CollectedAt:   time.Now(),
	}, nil
}
