// Package sysmon samples host CPU and memory usage for the dashboard header
// and for sizing sweep runs.
package sysmon

import (
	"context"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// Stats holds a single snapshot of system-wide resource usage.
type Stats struct {
	CPUPercent     float64 // 0.0 .. 100.0
	MemPercent     float64 // 0.0 .. 100.0
	AvailableBytes uint64
	LogicalCPUs    int
}

// Sample collects a snapshot with a background context.
func Sample() Stats {
	return SampleContext(context.Background())
}

// SampleContext collects a system-wide CPU and memory snapshot.
// CPU uses interval=0 (delta since last call). Fields whose probe fails are
// left at zero.
func SampleContext(ctx context.Context) Stats {
	var s Stats
	if pcts, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(pcts) > 0 {
		s.CPUPercent = pcts[0]
	}
	if n, err := cpu.CountsWithContext(ctx, true); err == nil {
		s.LogicalCPUs = n
	}
	if vmem, err := mem.VirtualMemoryWithContext(ctx); err == nil && vmem != nil {
		s.MemPercent = vmem.UsedPercent
		s.AvailableBytes = vmem.Available
	}
	return s
}

// Headroom returns how many simulations needing perSimulation bytes each can
// run side by side, bounded by limit and by the logical CPUs. It never
// returns less than one, and falls back to limit when the probes failed.
func (s Stats) Headroom(perSimulation uint64, limit int) int {
	n := limit
	if s.LogicalCPUs > 0 && s.LogicalCPUs < n {
		n = s.LogicalCPUs
	}
	if s.AvailableBytes > 0 && perSimulation > 0 {
		if byMem := s.AvailableBytes / perSimulation; byMem < uint64(n) {
			n = int(byMem)
		}
	}
	return max(n, 1)
}
