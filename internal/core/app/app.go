package app

import (
	"context"
	"log/slog"
	"os"
	"time"

	"importcycles/internal/core/config"
	"importcycles/internal/core/errors"
	"importcycles/internal/data/history"
	"importcycles/internal/engine/graph"
	"importcycles/internal/engine/parser"
	"importcycles/internal/engine/resolver"
	"importcycles/internal/shared/observability"
	"importcycles/internal/shared/util"
	"importcycles/internal/ui/report"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Result is the outcome of one analysis run.
type Result struct {
	RunID      string
	Roots      []string
	Graph      *graph.Graph
	Components []graph.Component
	Cycles     []graph.Cycle
	Duration   time.Duration
}

func (r *Result) HasCycles() bool {
	return len(r.Cycles) > 0
}

func (r *Result) Files() int {
	return r.Graph.Len()
}

// App runs analyses for one configuration. Every run builds its graph from
// scratch; only the parser pools and the history store outlive a run.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	parser  *parser.Parser
	exclude *util.GlobSet
	history *history.Store
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	exclude, err := util.CompileGlobs(cfg.Exclude)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "compile exclude patterns")
	}

	a := &App{
		cfg:     cfg,
		logger:  logger,
		parser:  parser.NewParser(nil),
		exclude: exclude,
	}
	if cfg.History != "" {
		store, err := history.Open(cfg.History)
		if err != nil {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeIO, "open history"), errors.CtxPath, cfg.History)
		}
		a.history = store
	}
	return a, nil
}

func (a *App) Close() error {
	return a.history.Close()
}

// Analyze builds the import graph reachable from roots and reports its
// minimal cycles. Any file-level failure aborts the run without a result.
func (a *App) Analyze(ctx context.Context, roots []string) (*Result, error) {
	runID := uuid.NewString()
	ctx, span := observability.Tracer.Start(ctx, "app.Analyze", trace.WithAttributes(attribute.String("run_id", runID)))
	defer span.End()

	start := time.Now()
	logger := a.logger.With("run_id", runID)
	logger.Info("analysis started", "roots", len(roots))

	if len(roots) == 0 {
		return nil, errors.New(errors.CodeValidationError, "at least one root file is required")
	}

	res := a.newResolver()
	canonical, err := canonicalRoots(res, roots)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	extractor := graph.NewEdgeExtractor(a.parser, res, graph.ExtractorOptions{
		IncludeTypeImports: a.cfg.IncludeTypeImports,
		IncludeReexports:   a.cfg.IncludeReexports,
		Exclude:            a.exclude,
	})
	g, err := graph.NewBuilder(extractor, logger).Build(ctx, canonical)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	components, err := graph.StronglyConnectedComponents(ctx, g)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	cycles, err := graph.MinimalCycles(ctx, g, components)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if a.cfg.SortMembers {
		for i, c := range cycles {
			cycles[i] = c.Sorted()
		}
	}

	result := &Result{
		RunID:      runID,
		Roots:      canonical,
		Graph:      g,
		Components: components,
		Cycles:     cycles,
		Duration:   time.Since(start),
	}
	observability.AnalysisDuration.WithLabelValues("total").Observe(result.Duration.Seconds())
	span.SetAttributes(attribute.Int("files", g.Len()), attribute.Int("cycles", len(cycles)))

	if err := a.publish(result); err != nil {
		span.RecordError(err)
		return nil, err
	}

	logger.Info("analysis finished",
		"files", g.Len(),
		"edges", g.EdgeCount(),
		"components", len(components),
		"cycles", len(cycles),
		"duration", result.Duration,
		"heap_mb", util.GetHeapAllocMB(),
	)
	return result, nil
}

// Trace returns the shortest import chain from one file to another within the
// graph reachable from roots. Both files are added as roots.
func (a *App) Trace(ctx context.Context, roots []string, from, to string) ([]string, bool, error) {
	ends, err := canonicalRoots(a.newResolver(), []string{from, to})
	if err != nil {
		return nil, false, err
	}

	result, err := a.Analyze(ctx, append(append([]string(nil), roots...), ends...))
	if err != nil {
		return nil, false, err
	}
	chain, ok := result.Graph.FindImportChain(ends[0], ends[1])
	return chain, ok, nil
}

// newResolver returns a resolver with an empty stat cache.
func (a *App) newResolver() *resolver.PathResolver {
	return resolver.New(resolver.Options{
		Extensions:       a.cfg.Extensions,
		PreserveSymlinks: a.cfg.PreserveSymlinks,
	})
}

// publish writes the optional DOT file, history rows and metrics textfile.
func (a *App) publish(result *Result) error {
	if a.cfg.DOT != "" {
		base, _ := os.Getwd()
		dot := report.NewDOTGenerator(result.Graph, base).Generate(result.Cycles)
		if err := util.WriteFileWithDirs(a.cfg.DOT, []byte(dot), 0o644); err != nil {
			return errors.AddContext(errors.Wrap(err, errors.CodeIO, "write DOT output"), errors.CtxPath, a.cfg.DOT)
		}
	}

	if a.history != nil {
		run := history.Run{
			ID:        result.RunID,
			Timestamp: time.Now().UTC(),
			Roots:     result.Roots,
			FileCount: result.Graph.Len(),
			EdgeCount: result.Graph.EdgeCount(),
			Cycles:    make([][]string, 0, len(result.Cycles)),
		}
		for _, c := range result.Cycles {
			run.Cycles = append(run.Cycles, []string(c))
		}
		if err := a.history.SaveRun(run); err != nil {
			return errors.AddContext(errors.Wrap(err, errors.CodeIO, "record run history"), errors.CtxPath, a.history.Path())
		}
	}

	if a.cfg.MetricsFile != "" {
		if err := observability.WriteTextfile(a.cfg.MetricsFile); err != nil {
			return errors.AddContext(errors.Wrap(err, errors.CodeIO, "write metrics textfile"), errors.CtxPath, a.cfg.MetricsFile)
		}
	}
	return nil
}

// canonicalRoots maps roots to file identifiers, dropping duplicates while
// keeping the first occurrence's position.
func canonicalRoots(res *resolver.PathResolver, roots []string) ([]string, error) {
	seen := make(map[string]bool, len(roots))
	out := make([]string, 0, len(roots))
	for _, root := range roots {
		path, err := res.Canonical(root)
		if err != nil {
			return nil, errors.AddContext(err, errors.CtxOperation, "canonicalize root")
		}
		if seen[path] {
			continue
		}
		seen[path] = true
		out = append(out, path)
	}
	return out, nil
}

// watchDirs is the sorted set of directories holding the graph's files.
func watchDirs(result *Result) []string {
	return util.UniqueDirs(result.Graph.Paths())
}
