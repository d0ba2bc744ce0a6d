package graph

import (
	"os"
	"path/filepath"
	"testing"

	"importcycles/internal/core/errors"
	"importcycles/internal/engine/parser"
	"importcycles/internal/engine/resolver"
)

type suffixMatcher string

func (s suffixMatcher) Match(path string) bool {
	return filepath.Ext(path) == string(s)
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestEdgeExtractor_FileEdges(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/a.js": "import b from './b';\n" +
			"const c = require('../lib/c');\n" +
			"const data = require('./data.json');\n" +
			"const cfg = require('./config');\n" +
			"const fs = require('fs');\n" +
			"import type { T } from './types';\n",
		"src/b.js":        "",
		"lib/c.js":        "",
		"src/data.json":   "{}",
		"src/config.json": "{}",
		"src/types.js":    "",
	})

	x := NewEdgeExtractor(parser.NewParser(nil), resolver.New(resolver.Options{PreserveSymlinks: true}), ExtractorOptions{})
	from := filepath.Join(root, "src", "a.js")
	edges, err := x.FileEdges(from)
	if err != nil {
		t.Fatalf("FileEdges failed: %v", err)
	}

	want := []string{
		filepath.Join(root, "src", "b.js"),
		filepath.Join(root, "lib", "c.js"),
	}
	if len(edges) != len(want) {
		t.Fatalf("expected %d edges, got %v", len(want), edges)
	}
	for i, e := range edges {
		if e.From != from {
			t.Errorf("edge %d: unexpected source %s", i, e.From)
		}
		if e.To != want[i] {
			t.Errorf("edge %d: expected %s, got %s", i, want[i], e.To)
		}
	}
	if edges[0].Span.Start.Line != 1 || edges[1].Span.Start.Line != 2 {
		t.Errorf("unexpected spans: %+v, %+v", edges[0].Span, edges[1].Span)
	}
}

func TestEdgeExtractor_Options(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.ts":         "import type { T } from './types';\nimport s from './style.css.js';\n",
		"types.ts":     "",
		"style.css.js": "",
	})

	x := NewEdgeExtractor(parser.NewParser(nil), resolver.New(resolver.Options{PreserveSymlinks: true}), ExtractorOptions{
		IncludeTypeImports: true,
		Exclude:            suffixMatcher(".js"),
	})
	edges, err := x.FileEdges(filepath.Join(root, "a.ts"))
	if err != nil {
		t.Fatal(err)
	}
	if len(edges) != 1 || edges[0].To != filepath.Join(root, "types.ts") {
		t.Fatalf("expected only the type import edge, got %v", edges)
	}
	if edges[0].Kind != parser.KindTypeImport {
		t.Errorf("expected type import kind, got %s", edges[0].Kind)
	}
}

func TestEdgeExtractor_ResolutionFailure(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.js": "\nrequire('./missing');\n",
	})

	x := NewEdgeExtractor(parser.NewParser(nil), resolver.New(resolver.Options{PreserveSymlinks: true}), ExtractorOptions{})
	path := filepath.Join(root, "a.js")
	_, err := x.FileEdges(path)
	if !errors.IsCode(err, errors.CodeResolution) {
		t.Fatalf("expected resolution error, got %v", err)
	}
	var de *errors.DomainError
	if !asDomainError(err, &de) {
		t.Fatal("expected domain error")
	}
	if de.Context[errors.CtxImporter] != path || de.Context[errors.CtxLine] != 2 {
		t.Errorf("expected importing file and line in context, got %v", de.Context)
	}
	if de.Context[errors.CtxSpecifier] != "./missing" {
		t.Errorf("expected resolver context to survive, got %v", de.Context)
	}
}

func TestIsRelativeModule(t *testing.T) {
	for spec, want := range map[string]bool{
		"./a":         true,
		"../a/b":      true,
		"./data.json": false,
		"lodash":      false,
		"@scope/pkg":  false,
		"/abs/a":      false,
	} {
		if got := IsRelativeModule(spec); got != want {
			t.Errorf("IsRelativeModule(%q) = %v, want %v", spec, got, want)
		}
	}
}
