package subclust

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    extractCounter prometheus.Counter
//	    writeHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordExtract(clusters int, duration time.Duration, err error) {
//	    p.extractCounter.Inc()
//	    // ... record error state, duration, etc.
//	}
type MetricsCollector interface {
	// RecordExtract is called after each hierarchy extraction.
	// clusters is the number of clusters built (root included),
	// duration is the total time taken, err is nil if successful.
	RecordExtract(clusters int, duration time.Duration, err error)

	// RecordClusterWrite is called for each cluster unit written during a
	// materialization. rows is the number of data rows in the unit.
	RecordClusterWrite(rows int, duration time.Duration, err error)

	// RecordMaterialize is called after each materialization.
	// units is the number of output units written, the transcript included,
	// duration is the total time taken, err is nil if successful.
	RecordMaterialize(units int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordExtract(int, time.Duration, error)      {}
func (NoopMetricsCollector) RecordClusterWrite(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordMaterialize(int, time.Duration, error)  {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	ExtractCount          atomic.Int64
	ExtractErrors         atomic.Int64
	ExtractClusters       atomic.Int64
	ExtractTotalNanos     atomic.Int64
	ClusterWriteCount     atomic.Int64
	ClusterWriteErrors    atomic.Int64
	ClusterWriteRows      atomic.Int64
	MaterializeCount      atomic.Int64
	MaterializeErrors     atomic.Int64
	MaterializeUnits      atomic.Int64
	MaterializeTotalNanos atomic.Int64
}

// RecordExtract implements MetricsCollector.
func (b *BasicMetricsCollector) RecordExtract(clusters int, duration time.Duration, err error) {
	b.ExtractCount.Add(1)
	b.ExtractClusters.Add(int64(clusters))
	b.ExtractTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ExtractErrors.Add(1)
	}
}

// RecordClusterWrite implements MetricsCollector.
func (b *BasicMetricsCollector) RecordClusterWrite(rows int, duration time.Duration, err error) {
	b.ClusterWriteCount.Add(1)
	b.ClusterWriteRows.Add(int64(rows))
	if err != nil {
		b.ClusterWriteErrors.Add(1)
	}
}

// RecordMaterialize implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMaterialize(units int, duration time.Duration, err error) {
	b.MaterializeCount.Add(1)
	b.MaterializeUnits.Add(int64(units))
	b.MaterializeTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.MaterializeErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		ExtractCount:        b.ExtractCount.Load(),
		ExtractErrors:       b.ExtractErrors.Load(),
		ExtractClusters:     b.ExtractClusters.Load(),
		ExtractAvgNanos:     b.getAvgExtractNanos(),
		ClusterWriteCount:   b.ClusterWriteCount.Load(),
		ClusterWriteErrors:  b.ClusterWriteErrors.Load(),
		ClusterWriteRows:    b.ClusterWriteRows.Load(),
		MaterializeCount:    b.MaterializeCount.Load(),
		MaterializeErrors:   b.MaterializeErrors.Load(),
		MaterializeUnits:    b.MaterializeUnits.Load(),
		MaterializeAvgNanos: b.getAvgMaterializeNanos(),
	}
}

func (b *BasicMetricsCollector) getAvgExtractNanos() int64 {
	count := b.ExtractCount.Load()
	if count == 0 {
		return 0
	}
	return b.ExtractTotalNanos.Load() / count
}

func (b *BasicMetricsCollector) getAvgMaterializeNanos() int64 {
	count := b.MaterializeCount.Load()
	if count == 0 {
		return 0
	}
	return b.MaterializeTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	ExtractCount        int64
	ExtractErrors       int64
	ExtractClusters     int64
	ExtractAvgNanos     int64
	ClusterWriteCount   int64
	ClusterWriteErrors  int64
	ClusterWriteRows    int64
	MaterializeCount    int64
	MaterializeErrors   int64
	MaterializeUnits    int64
	MaterializeAvgNanos int64
}
