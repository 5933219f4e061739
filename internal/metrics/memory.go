package metrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
)

// MemorySnapshot holds a point-in-time memory reading.
type MemorySnapshot struct {
	HeapAlloc   uint64 // bytes in use by live objects
	Sys         uint64 // total bytes obtained from the OS
	NumGC       uint32 // completed GC cycles
	HeapObjects uint64 // allocated heap objects
}

// MemoryCollector reads runtime memory statistics for the dashboard footer.
type MemoryCollector struct{}

// NewMemoryCollector creates a new memory collector.
func NewMemoryCollector() *MemoryCollector {
	return &MemoryCollector{}
}

// Snapshot reads current memory statistics.
func (mc *MemoryCollector) Snapshot() MemorySnapshot {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemorySnapshot{
		HeapAlloc:   m.HeapAlloc,
		Sys:         m.Sys,
		NumGC:       m.NumGC,
		HeapObjects: m.HeapObjects,
	}
}

// GridBytes estimates the memory held by the two buffers of an n×n field.
func GridBytes(n int) uint64 {
	return uint64(2 * n * n * 8)
}

// RegisterGridGauge exposes the estimated field memory of the running batch.
// The callback is evaluated at scrape time.
func RegisterGridGauge(reg prometheus.Registerer, current func() uint64) error {
	return reg.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "grid_bytes",
		Help:      "Estimated bytes held by the fields of running simulations.",
	}, func() float64 { return float64(current()) }))
}
