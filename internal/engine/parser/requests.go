package parser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// RequestOptions selects which import-like constructs FindModuleRequests
// reports.
type RequestOptions struct {
	IncludeTypeImports bool
	IncludeReexports   bool
}

// FindModuleRequests walks tree and returns, in document order, every
// require("...") call with a single string literal argument and every import
// declaration. Type-only imports and re-exports are reported only when opts
// asks for them. Specifiers are the decoded string values.
func FindModuleRequests(tree *SyntaxTree, opts RequestOptions) []ModuleRequest {
	root := tree.Root()
	if root == nil {
		return nil
	}
	ctx := &ExtractionContext{Source: tree.Source}
	finder := &requestFinder{opts: opts}
	engine := NewExtractorEngine(map[string]NodeHandler{
		"call_expression":  finder.call,
		"import_statement": finder.importStatement,
		"export_statement": finder.exportStatement,
	})
	engine.Walk(ctx, root)
	return ctx.Requests
}

type requestFinder struct {
	opts RequestOptions
}

func (f *requestFinder) call(ctx *ExtractionContext, node *sitter.Node) bool {
	callee := node.ChildByFieldName("function")
	if callee == nil || callee.Kind() != "identifier" || ctx.Text(callee) != "require" {
		return false
	}
	args := node.ChildByFieldName("arguments")
	if args == nil || args.Kind() != "arguments" {
		return false
	}

	var only *sitter.Node
	count := 0
	for i := uint(0); i < args.NamedChildCount(); i++ {
		arg := args.NamedChild(i)
		if arg == nil || arg.Kind() == "comment" {
			continue
		}
		count++
		only = arg
	}
	if count != 1 {
		return false
	}
	if value, ok := stringLiteralValue(ctx, only); ok {
		ctx.add(KindRequire, value, node)
	}
	return false
}

func (f *requestFinder) importStatement(ctx *ExtractionContext, node *sitter.Node) bool {
	// TypeScript `import x = require("./y")`.
	if clause := childOfKind(node, "import_require_clause"); clause != nil {
		source := clause.ChildByFieldName("source")
		if source == nil {
			source = childOfKind(clause, "string")
		}
		if value, ok := stringLiteralValue(ctx, source); ok {
			ctx.add(KindRequire, value, node)
		}
		return true
	}

	value, ok := stringLiteralValue(ctx, node.ChildByFieldName("source"))
	if !ok {
		return false
	}
	if hasTypeModifier(node) {
		if f.opts.IncludeTypeImports {
			ctx.add(KindTypeImport, value, node)
		}
		return true
	}
	ctx.add(KindImport, value, node)
	return true
}

func (f *requestFinder) exportStatement(ctx *ExtractionContext, node *sitter.Node) bool {
	value, ok := stringLiteralValue(ctx, node.ChildByFieldName("source"))
	if !ok {
		// Plain exports may still contain require calls in their declaration.
		return false
	}
	if !f.opts.IncludeReexports {
		return true
	}
	if hasTypeModifier(node) && !f.opts.IncludeTypeImports {
		return true
	}
	ctx.add(KindReexport, value, node)
	return true
}

// stringLiteralValue returns the contents of a plain string literal. Template
// strings are not literals for this purpose. Escape sequences are decoded.
func stringLiteralValue(ctx *ExtractionContext, node *sitter.Node) (string, bool) {
	if node == nil || node.Kind() != "string" {
		return "", false
	}
	return unquoteString(ctx.Text(node)), true
}

// hasTypeModifier reports whether the statement carries an anonymous `type`
// keyword directly under it, as in `import type { T } from "./t"`.
func hasTypeModifier(node *sitter.Node) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || child.IsNamed() {
			continue
		}
		if child.Kind() == "type" {
			return true
		}
	}
	return false
}

func childOfKind(node *sitter.Node, kind string) *sitter.Node {
	if node == nil {
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == kind {
			return child
		}
	}
	return nil
}
