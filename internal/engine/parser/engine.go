package parser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// NodeHandler processes a node of one kind.
// Returns true if the walker should not descend into the node's children.
type NodeHandler func(ctx *ExtractionContext, node *sitter.Node) bool

// ExtractionContext carries the source and the collected requests of one walk.
type ExtractionContext struct {
	Source   []byte
	Requests []ModuleRequest
}

// ExtractorEngine walks the syntax tree depth-first and dispatches node
// handlers by kind.
type ExtractorEngine struct {
	handlers map[string]NodeHandler
}

func NewExtractorEngine(handlers map[string]NodeHandler) *ExtractorEngine {
	return &ExtractorEngine{handlers: handlers}
}

func (e *ExtractorEngine) Walk(ctx *ExtractionContext, node *sitter.Node) {
	if node == nil {
		return
	}

	if handler, ok := e.handlers[node.Kind()]; ok {
		if handler(ctx, node) {
			return
		}
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		e.Walk(ctx, node.Child(i))
	}
}

func (c *ExtractionContext) Text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(c.Source[node.StartByte():node.EndByte()])
}

func (c *ExtractionContext) Span(node *sitter.Node) Span {
	start := node.StartPosition()
	end := node.EndPosition()
	return Span{
		Start: Position{Line: int(start.Row) + 1, Column: int(start.Column) + 1},
		End:   Position{Line: int(end.Row) + 1, Column: int(end.Column) + 1},
	}
}

func (c *ExtractionContext) add(kind RequestKind, specifier string, node *sitter.Node) {
	c.Requests = append(c.Requests, ModuleRequest{
		Specifier: specifier,
		Kind:      kind,
		Span:      c.Span(node),
	})
}
