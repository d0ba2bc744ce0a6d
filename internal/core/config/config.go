package config

import (
	"io"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	EnvPrefix   = "IMPORTCYCLES_"
	DefaultFile = "importcycles.toml"
)

type Config struct {
	Verbose            bool          `koanf:"verbose" toml:"verbose"`
	IncludeTypeImports bool          `koanf:"include_type_imports" toml:"include_type_imports"`
	IncludeReexports   bool          `koanf:"include_reexports" toml:"include_reexports"`
	SortMembers        bool          `koanf:"sort_members" toml:"sort_members"`
	Extensions         []string      `koanf:"extensions" toml:"extensions"`
	PreserveSymlinks   bool          `koanf:"preserve_symlinks" toml:"preserve_symlinks"`
	Exclude            []string      `koanf:"exclude" toml:"exclude"`
	DOT                string        `koanf:"dot" toml:"dot"`
	History            string        `koanf:"history" toml:"history"`
	MetricsFile        string        `koanf:"metrics_file" toml:"metrics_file"`
	Watch              bool          `koanf:"watch" toml:"watch"`
	Debounce           time.Duration `koanf:"debounce" toml:"debounce"`
	WatchRate          float64       `koanf:"watch_rate" toml:"watch_rate"`
	Tracing            Tracing       `koanf:"tracing" toml:"tracing"`
}

type Tracing struct {
	Endpoint string `koanf:"endpoint" toml:"endpoint"`
}

// defaults is the lowest configuration layer.
func defaults() map[string]interface{} {
	return map[string]interface{}{
		"verbose":              false,
		"include_type_imports": false,
		"include_reexports":    false,
		"sort_members":         false,
		"extensions":           []string{".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx", ".json"},
		"preserve_symlinks":    true,
		"exclude":              []string{},
		"dot":                  "",
		"history":              "",
		"metrics_file":         "",
		"watch":                false,
		"debounce":             "500ms",
		"watch_rate":           1.0,
		"tracing.endpoint":     "",
	}
}

// WriteTOML encodes the effective configuration, as printed by --print-config.
func (c *Config) WriteTOML(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
