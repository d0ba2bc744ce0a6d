package parser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Position is a 1-based line/column pair.
type Position struct {
	Line   int
	Column int
}

// Span is the source range of an import-like construct. It is carried for
// diagnostics only.
type Span struct {
	Start Position
	End   Position
}

type RequestKind int

const (
	KindRequire RequestKind = iota
	KindImport
	KindTypeImport
	KindReexport
)

func (k RequestKind) String() string {
	switch k {
	case KindRequire:
		return "require"
	case KindImport:
		return "import"
	case KindTypeImport:
		return "import type"
	case KindReexport:
		return "export from"
	default:
		return "unknown"
	}
}

// ModuleRequest is one module reference found in a file, before any
// relative/package filtering or path resolution.
type ModuleRequest struct {
	Specifier string
	Kind      RequestKind
	Span      Span
}

// SyntaxTree owns a parsed tree-sitter tree together with the source it was
// built from. Callers must Close it.
type SyntaxTree struct {
	Path     string
	Language string
	Source   []byte
	tree     *sitter.Tree
}

func (t *SyntaxTree) Root() *sitter.Node {
	if t == nil || t.tree == nil {
		return nil
	}
	return t.tree.RootNode()
}

func (t *SyntaxTree) Close() {
	if t == nil || t.tree == nil {
		return
	}
	t.tree.Close()
	t.tree = nil
}
