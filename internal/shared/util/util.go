package util

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// SortedStringKeys returns the map's keys in sorted order.
func SortedStringKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// WriteFileWithDirs creates parent directories (0755) and writes the file with perm.
func WriteFileWithDirs(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, perm)
}

// UniqueDirs returns the sorted set of parent directories of paths.
func UniqueDirs(paths []string) []string {
	set := make(map[string]bool, len(paths))
	for _, p := range paths {
		set[filepath.Dir(p)] = true
	}
	return SortedStringKeys(set)
}
