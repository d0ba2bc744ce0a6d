package parser

import (
	"path/filepath"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

const (
	LangJavaScript = "javascript"
	LangTypeScript = "typescript"
	LangTSX        = "tsx"
)

// Files whose extension is not listed here are parsed as JavaScript.
var defaultExtensions = map[string]string{
	".js":  LangJavaScript,
	".jsx": LangJavaScript,
	".mjs": LangJavaScript,
	".cjs": LangJavaScript,
	".ts":  LangTypeScript,
	".mts": LangTypeScript,
	".cts": LangTypeScript,
	".tsx": LangTSX,
}

type GrammarLoader struct {
	languages  map[string]*sitter.Language
	extensions map[string]string
}

func NewGrammarLoader() *GrammarLoader {
	gl := &GrammarLoader{
		languages: map[string]*sitter.Language{
			LangJavaScript: sitter.NewLanguage(tree_sitter_javascript.Language()),
			LangTypeScript: sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()),
			LangTSX:        sitter.NewLanguage(tree_sitter_typescript.LanguageTSX()),
		},
		extensions: make(map[string]string, len(defaultExtensions)),
	}
	for ext, lang := range defaultExtensions {
		gl.extensions[ext] = lang
	}
	return gl
}

// LanguageForPath picks the grammar id for a file by its extension.
func (gl *GrammarLoader) LanguageForPath(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := gl.extensions[ext]; ok {
		return lang
	}
	return LangJavaScript
}
