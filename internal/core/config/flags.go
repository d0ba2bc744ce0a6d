package config

import (
	"time"

	"github.com/spf13/pflag"
)

// RegisterFlags adds one flag per configuration key. Unset flags leave lower
// layers untouched.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.BoolP("verbose", "v", false, "log every discovered file and edge")
	fs.Bool("include-type-imports", false, "treat type-only imports as edges")
	fs.Bool("include-reexports", false, "treat `export ... from` as edges")
	fs.Bool("sort-members", false, "sort the files of each reported cycle")
	fs.StringSlice("extensions", nil, "extensions tried when resolving specifiers")
	fs.Bool("preserve-symlinks", true, "keep symlinked paths instead of their targets")
	fs.StringSlice("exclude", nil, "glob patterns of resolved files treated as leaves")
	fs.String("dot", "", "write the import graph as DOT to this path")
	fs.String("history", "", "record runs in this sqlite database")
	fs.String("metrics-file", "", "write prometheus metrics to this textfile")
	fs.Bool("watch", false, "re-run the analysis when files change")
	fs.Duration("debounce", 500*time.Millisecond, "quiet period before a watch re-run")
	fs.Float64("watch-rate", 1, "maximum watch re-runs per second")
	fs.String("tracing-endpoint", "", "OTLP gRPC endpoint for traces")
}
