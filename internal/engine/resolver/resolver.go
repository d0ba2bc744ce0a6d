package resolver

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"importcycles/internal/core/errors"
)

var DefaultExtensions = []string{".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx", ".json"}

type Options struct {
	// Extensions are appended in order when the specifier does not name an
	// existing file.
	Extensions []string
	// PreserveSymlinks keeps symlinked paths as-is. When false every resolved
	// path is passed through filepath.EvalSymlinks.
	PreserveSymlinks bool
}

// PathResolver maps a relative specifier and a base directory to a canonical
// absolute file path the way Node's require.resolve does: exact file,
// extension-appended variants, package.json "main", then directory index.
// It caches file system lookups and is meant to live for a single run.
type PathResolver struct {
	extensions       []string
	preserveSymlinks bool
	stats            map[string]os.FileInfo
	mains            map[string]string
}

func New(opts Options) *PathResolver {
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	return &PathResolver{
		extensions:       append([]string(nil), exts...),
		preserveSymlinks: opts.PreserveSymlinks,
		stats:            make(map[string]os.FileInfo),
		mains:            make(map[string]string),
	}
}

// IsRelative reports whether specifier is resolved against the importing
// file's directory.
func IsRelative(specifier string) bool {
	return strings.HasPrefix(specifier, ".")
}

func (r *PathResolver) Resolve(specifier, baseDir string) (string, error) {
	if !IsRelative(specifier) && !filepath.IsAbs(specifier) {
		return "", resolutionError("package specifiers are not resolved", specifier, baseDir)
	}

	base, err := filepath.Abs(baseDir)
	if err != nil {
		return "", errors.AddContext(errors.Wrap(err, errors.CodeResolution, "invalid base directory"), errors.CtxBaseDir, baseDir)
	}
	target := specifier
	if !filepath.IsAbs(target) {
		target = filepath.Join(base, filepath.FromSlash(specifier))
	}

	dirOnly := strings.HasSuffix(specifier, "/") || specifier == "." || specifier == ".."
	if !dirOnly {
		if found, ok := r.loadAsFile(target); ok {
			return r.Canonical(found)
		}
	}
	if found, ok := r.loadAsDirectory(target); ok {
		return r.Canonical(found)
	}
	return "", resolutionError("cannot find module", specifier, baseDir)
}

// Canonical returns the absolute, cleaned form of path, following symlinks
// unless they are preserved.
func (r *PathResolver) Canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.AddContext(errors.Wrap(err, errors.CodeIO, "cannot make path absolute"), errors.CtxPath, path)
	}
	if r.preserveSymlinks {
		return abs, nil
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", errors.AddContext(errors.Wrap(err, errors.CodeIO, "cannot evaluate symlinks"), errors.CtxPath, abs)
	}
	return resolved, nil
}

func (r *PathResolver) loadAsFile(path string) (string, bool) {
	if r.isFile(path) {
		return path, true
	}
	for _, ext := range r.extensions {
		if candidate := path + ext; r.isFile(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func (r *PathResolver) loadAsDirectory(dir string) (string, bool) {
	if main := r.packageMain(dir); main != "" {
		mainPath := filepath.Join(dir, filepath.FromSlash(main))
		if found, ok := r.loadAsFile(mainPath); ok {
			return found, true
		}
		if found, ok := r.loadIndex(mainPath); ok {
			return found, true
		}
	}
	return r.loadIndex(dir)
}

func (r *PathResolver) loadIndex(dir string) (string, bool) {
	return r.loadAsFile(filepath.Join(dir, "index"))
}

// packageMain returns the "main" field of dir/package.json, or "".
func (r *PathResolver) packageMain(dir string) string {
	if main, ok := r.mains[dir]; ok {
		return main
	}
	main := ""
	pkgPath := filepath.Join(dir, "package.json")
	if r.isFile(pkgPath) {
		if data, err := os.ReadFile(pkgPath); err == nil {
			var pkg struct {
				Main string `json:"main"`
			}
			if json.Unmarshal(data, &pkg) == nil {
				main = strings.TrimSpace(pkg.Main)
			}
		}
	}
	r.mains[dir] = main
	return main
}

func (r *PathResolver) isFile(path string) bool {
	info, ok := r.stats[path]
	if !ok {
		var err error
		info, err = os.Stat(path)
		if err != nil {
			info = nil
		}
		r.stats[path] = info
	}
	return info != nil && info.Mode().IsRegular()
}

func resolutionError(msg, specifier, baseDir string) error {
	de := &errors.DomainError{
		Code:    errors.CodeResolution,
		Message: fmt.Sprintf("%s %q", msg, specifier),
	}
	de.WithContext(errors.CtxSpecifier, specifier)
	de.WithContext(errors.CtxBaseDir, baseDir)
	return de
}
