package parser

import (
	"fmt"
	"os"
	"time"

	"importcycles/internal/core/errors"
	"importcycles/internal/shared/observability"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

type Parser struct {
	loader *GrammarLoader
	pools  map[string]*ParserPool
}

func NewParser(loader *GrammarLoader) *Parser {
	if loader == nil {
		loader = NewGrammarLoader()
	}
	p := &Parser{
		loader: loader,
		pools:  make(map[string]*ParserPool, len(loader.languages)),
	}
	for lang, grammar := range loader.languages {
		p.pools[lang] = NewParserPool(grammar)
	}
	return p
}

// ReadAndParse reads path from disk and parses it. Read failures are
// CodeIO errors, syntax errors are CodeParse errors.
func (p *Parser) ReadAndParse(path string) (*SyntaxTree, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.AddContext(
			errors.Wrap(err, errors.CodeIO, "read failed"),
			errors.CtxPath, path,
		)
	}
	return p.Parse(path, content)
}

// Parse builds a syntax tree for content. The grammar is chosen from path's
// extension; path is otherwise only used for diagnostics. JavaScript the
// JavaScript grammar rejects is retried with the TSX grammar, which accepts
// Flow-style annotations and `import type`; the JavaScript error is reported
// when both fail.
func (p *Parser) Parse(path string, content []byte) (*SyntaxTree, error) {
	lang := p.loader.LanguageForPath(path)
	st, err := p.parseAs(lang, path, content)
	if err != nil && lang == LangJavaScript && errors.IsCode(err, errors.CodeParse) {
		if typed, terr := p.parseAs(LangTSX, path, content); terr == nil {
			return typed, nil
		}
	}
	return st, err
}

func (p *Parser) parseAs(lang, path string, content []byte) (*SyntaxTree, error) {
	pool, ok := p.pools[lang]
	if !ok {
		return nil, errors.AddContext(
			errors.New(errors.CodeNotSupported, fmt.Sprintf("no grammar for language %s", lang)),
			errors.CtxPath, path,
		)
	}

	start := time.Now()
	sp := pool.Get()
	tree := sp.Parse(content, nil)
	pool.Put(sp)
	observability.ParsingDuration.WithLabelValues(lang).Observe(time.Since(start).Seconds())

	if tree == nil {
		return nil, errors.AddContext(
			errors.New(errors.CodeParse, "parser returned no tree"),
			errors.CtxPath, path,
		)
	}

	st := &SyntaxTree{Path: path, Language: lang, Source: content, tree: tree}
	root := tree.RootNode()
	if root.HasError() {
		// Nodes borrow from the tree, so read them before closing it.
		bad := firstErrorNode(root)
		perr := &errors.DomainError{Code: errors.CodeParse, Message: describeErrorNode(bad, content)}
		perr.WithContext(errors.CtxPath, path)
		if bad != nil {
			pos := bad.StartPosition()
			perr.WithContext(errors.CtxLine, int(pos.Row)+1)
			perr.WithContext(errors.CtxColumn, int(pos.Column)+1)
		}
		st.Close()
		return nil, perr
	}

	observability.FilesParsed.WithLabelValues(lang).Inc()
	return st, nil
}

// firstErrorNode returns the first ERROR or MISSING node in document order.
func firstErrorNode(node *sitter.Node) *sitter.Node {
	if node == nil {
		return nil
	}
	if node.IsError() || node.IsMissing() {
		return node
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || !(child.HasError() || child.IsMissing()) {
			continue
		}
		if found := firstErrorNode(child); found != nil {
			return found
		}
	}
	return nil
}

func describeErrorNode(node *sitter.Node, source []byte) string {
	if node == nil {
		return "syntax error"
	}
	pos := node.StartPosition()
	if node.IsMissing() {
		return fmt.Sprintf("missing %q at %d:%d", node.Kind(), pos.Row+1, pos.Column+1)
	}
	text := node.Utf8Text(source)
	if len(text) > 40 {
		text = text[:40] + "..."
	}
	return fmt.Sprintf("unexpected %q at %d:%d", text, pos.Row+1, pos.Column+1)
}
