// =============================================================================
// csvline - Run Metrics
// =============================================================================
//
// Counters for a convert run, kept in a private Prometheus registry. There is
// no HTTP endpoint; the registry is written as a text-format file that a node
// exporter textfile collector can pick up.
//
// =============================================================================

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "csvline"

// File outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Reasons for skipped rows.
const (
	ReasonEmpty      = "empty"
	ReasonMismatched = "mismatched"
	ReasonError      = "error"
)

// Collector holds the run metrics. A nil *Collector ignores every call.
type Collector struct {
	registry *prometheus.Registry

	records     prometheus.Counter
	emptyLines  prometheus.Counter
	joinedLines prometheus.Counter
	skippedRows *prometheus.CounterVec
	files       *prometheus.CounterVec
	duration    prometheus.Histogram
}

// New creates a Collector with its own registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		records: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Records parsed from input files.",
		}),
		emptyLines: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "empty_records_total",
			Help:      "Records with no fields.",
		}),
		joinedLines: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "joined_lines_total",
			Help:      "Physical lines appended to an incomplete quoted record.",
		}),
		skippedRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_rows_total",
			Help:      "Rows dropped while reading, by reason.",
		}, []string{"reason"}),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_total",
			Help:      "Input files processed, by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "file_duration_seconds",
			Help:      "Time spent converting one file.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
	c.registry.MustRegister(c.records, c.emptyLines, c.joinedLines, c.skippedRows, c.files, c.duration)
	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// AddRecords counts parsed records and how many of them were empty.
func (c *Collector) AddRecords(total, empty int) {
	if c == nil {
		return
	}
	c.records.Add(float64(total))
	c.emptyLines.Add(float64(empty))
}

// AddJoinedLines counts continuation lines read for open quoted fields.
func (c *Collector) AddJoinedLines(n int) {
	if c == nil {
		return
	}
	c.joinedLines.Add(float64(n))
}

// AddSkipped counts rows dropped for reason.
func (c *Collector) AddSkipped(reason string, n int) {
	if c == nil || n == 0 {
		return
	}
	c.skippedRows.WithLabelValues(reason).Add(float64(n))
}

// ObserveFile records the outcome and duration of one file.
func (c *Collector) ObserveFile(outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.files.WithLabelValues(outcome).Inc()
	c.duration.Observe(d.Seconds())
}

// WriteTextfile writes the current values to path in the Prometheus text
// format.
func (c *Collector) WriteTextfile(path string) error {
	if c == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, c.registry)
}
