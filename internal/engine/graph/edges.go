package graph

import (
	"path/filepath"
	"strings"

	"importcycles/internal/core/errors"
	"importcycles/internal/engine/parser"
	"importcycles/internal/engine/resolver"
)

// EdgeSource yields the relative-import edges originating at one file.
type EdgeSource interface {
	FileEdges(path string) ([]Edge, error)
}

type TreeParser interface {
	ReadAndParse(path string) (*parser.SyntaxTree, error)
}

type PathResolver interface {
	Resolve(specifier, baseDir string) (string, error)
}

// PathMatcher reports resolved paths that must be treated as leaves.
type PathMatcher interface {
	Match(path string) bool
}

type ExtractorOptions struct {
	IncludeTypeImports bool
	IncludeReexports   bool
	Exclude            PathMatcher
}

// EdgeExtractor turns a file's syntax tree into resolved relative-import
// edges.
type EdgeExtractor struct {
	parser   TreeParser
	resolver PathResolver
	opts     ExtractorOptions
}

func NewEdgeExtractor(p TreeParser, r PathResolver, opts ExtractorOptions) *EdgeExtractor {
	return &EdgeExtractor{parser: p, resolver: r, opts: opts}
}

func (x *EdgeExtractor) FileEdges(path string) ([]Edge, error) {
	tree, err := x.parser.ReadAndParse(path)
	if err != nil {
		return nil, err
	}
	defer tree.Close()
	return x.Edges(tree)
}

// Edges returns one edge per relative specifier in tree, in document order.
// JSON modules are data leaves and never produce edges.
func (x *EdgeExtractor) Edges(tree *parser.SyntaxTree) ([]Edge, error) {
	requests := parser.FindModuleRequests(tree, parser.RequestOptions{
		IncludeTypeImports: x.opts.IncludeTypeImports,
		IncludeReexports:   x.opts.IncludeReexports,
	})

	baseDir := filepath.Dir(tree.Path)
	edges := make([]Edge, 0, len(requests))
	for _, req := range requests {
		if !IsRelativeModule(req.Specifier) {
			continue
		}
		to, err := x.resolver.Resolve(req.Specifier, baseDir)
		if err != nil {
			err = errors.AddContext(err, errors.CtxImporter, tree.Path)
			err = errors.AddContext(err, errors.CtxLine, req.Span.Start.Line)
			return nil, err
		}
		if isJSON(to) {
			continue
		}
		if x.opts.Exclude != nil && x.opts.Exclude.Match(to) {
			continue
		}
		edges = append(edges, Edge{
			From:      tree.Path,
			To:        to,
			Specifier: req.Specifier,
			Kind:      req.Kind,
			Span:      req.Span,
		})
	}
	return edges, nil
}

// IsRelativeModule reports whether specifier takes part in cycle detection:
// it must be relative and must not name a JSON file.
func IsRelativeModule(specifier string) bool {
	return resolver.IsRelative(specifier) && !isJSON(specifier)
}

func isJSON(path string) bool {
	return strings.HasSuffix(path, ".json")
}
