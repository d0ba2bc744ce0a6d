package observability

import (
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds every importcycles metric. It is separate from the default
// registry so a run can be exported as a textfile without Go runtime noise.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

// Metrics definitions
var (
	ParsingDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "importcycles_parsing_seconds",
		Help:    "Time spent parsing a source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	FilesParsed = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "importcycles_files_parsed_total",
		Help: "Total number of source files parsed successfully.",
	}, []string{"language"})

	GraphNodes = factory.NewGauge(prometheus.GaugeOpts{
		Name: "importcycles_graph_nodes",
		Help: "Number of file nodes in the last built dependency graph.",
	})

	GraphEdges = factory.NewGauge(prometheus.GaugeOpts{
		Name: "importcycles_graph_edges",
		Help: "Number of deduplicated edges in the last built dependency graph.",
	})

	DuplicateEdgesDropped = factory.NewCounter(prometheus.CounterOpts{
		Name: "importcycles_duplicate_edges_dropped_total",
		Help: "Total number of edges discarded because the destination was already recorded.",
	})

	StronglyConnectedComponents = factory.NewGauge(prometheus.GaugeOpts{
		Name: "importcycles_scc_nontrivial",
		Help: "Number of strongly connected components that contain a cycle.",
	})

	CyclesReported = factory.NewGauge(prometheus.GaugeOpts{
		Name: "importcycles_cycles_reported",
		Help: "Number of minimal cycles reported by the last run.",
	})

	AnalysisDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "importcycles_analysis_seconds",
		Help:    "Time spent on high-level analysis stages.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	WatcherEventsTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "importcycles_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})
)

// WriteTextfile dumps the registry in the text exposition format, creating
// the parent directory if needed.
func WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return prometheus.WriteToTextfile(path, Registry)
}
