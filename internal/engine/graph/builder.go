package graph

import (
	"context"
	"log/slog"
	"time"

	"importcycles/internal/core/errors"
	"importcycles/internal/shared/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Builder owns the node table and worklist while a graph is assembled from
// a set of root files.
type Builder struct {
	source   EdgeSource
	logger   *slog.Logger
	graph    *Graph
	worklist []string
}

func NewBuilder(source EdgeSource, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{source: source, logger: logger}
}

// Build extracts edges from every file reachable from roots through relative
// imports. Each file is handed to the EdgeSource exactly once. The first
// failing file aborts the build and no graph is returned.
func (b *Builder) Build(ctx context.Context, roots []string) (*Graph, error) {
	_, span := observability.Tracer.Start(ctx, "graph.Build", trace.WithAttributes(attribute.Int("roots", len(roots))))
	defer span.End()
	start := time.Now()

	b.graph = NewGraph()
	b.worklist = b.worklist[:0]
	dropped := 0

	for _, root := range roots {
		b.ensureNode(root)
	}

	for len(b.worklist) > 0 {
		path := b.worklist[len(b.worklist)-1]
		b.worklist = b.worklist[:len(b.worklist)-1]

		if _, ok := b.graph.Node(path); !ok {
			err := errors.AddContext(errors.Invariant("queued file has no node"), errors.CtxPath, path)
			span.RecordError(err)
			return nil, err
		}

		edges, err := b.source.FileEdges(path)
		if err != nil {
			span.RecordError(err)
			return nil, errors.AddContext(err, errors.CtxImporter, path)
		}

		for _, edge := range edges {
			b.ensureNode(edge.To)
			added, err := b.graph.AddEdge(edge)
			if err != nil {
				return nil, err
			}
			if !added {
				dropped++
				continue
			}
			b.logger.Debug("edge", "from", edge.From, "to", edge.To, "specifier", edge.Specifier, "line", edge.Span.Start.Line)
		}
	}

	g := b.graph
	b.graph = nil

	observability.GraphNodes.Set(float64(g.Len()))
	observability.GraphEdges.Set(float64(g.EdgeCount()))
	observability.DuplicateEdgesDropped.Add(float64(dropped))
	observability.AnalysisDuration.WithLabelValues("build").Observe(time.Since(start).Seconds())
	span.SetAttributes(attribute.Int("files", g.Len()), attribute.Int("edges", g.EdgeCount()))

	return g, nil
}

// ensureNode creates a node for path and queues it when it is new.
func (b *Builder) ensureNode(path string) *Node {
	n, created := b.graph.AddNode(path)
	if created {
		b.logger.Debug("discovered file", "path", path)
		b.worklist = append(b.worklist, path)
	}
	return n
}
