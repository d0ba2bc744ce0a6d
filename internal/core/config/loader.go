package config

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"strings"

	domainErrors "importcycles/internal/core/errors"

	"github.com/knadh/koanf/maps"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Load layers defaults, the TOML file, IMPORTCYCLES_* environment variables and
// flags, in increasing priority. An empty path loads DefaultFile when it exists;
// an explicit path must exist.
func Load(fs *pflag.FlagSet, path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(makeMapProvider(defaults()), nil); err != nil {
		return nil, domainErrors.Wrap(err, domainErrors.CodeValidationError, "load defaults")
	}

	if err := loadFile(k, path); err != nil {
		return nil, err
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return nil, domainErrors.Wrap(err, domainErrors.CodeValidationError, "load environment")
	}

	if fs != nil {
		if err := k.Load(posflag.ProviderWithFlag(fs, ".", k, flagValue(fs)), nil); err != nil {
			return nil, domainErrors.Wrap(err, domainErrors.CodeValidationError, "load flags")
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, domainErrors.Wrap(err, domainErrors.CodeValidationError, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadFile(k *koanf.Koanf, path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
		if _, err := os.Stat(path); err != nil {
			return nil
		}
	}
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		code := domainErrors.CodeValidationError
		if errors.Is(err, iofs.ErrNotExist) {
			code = domainErrors.CodeIO
		}
		de := &domainErrors.DomainError{Code: code, Message: "load config file", Err: err}
		return de.WithContext(domainErrors.CtxPath, path)
	}
	return nil
}

// envValue maps IMPORTCYCLES_TRACING_ENDPOINT to tracing.endpoint and splits
// list-valued variables on commas and whitespace.
func envValue(key, value string) (string, interface{}) {
	name := strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	if rest, ok := strings.CutPrefix(name, "tracing_"); ok {
		name = "tracing." + rest
	}
	switch name {
	case "extensions", "exclude":
		return name, splitList(value)
	}
	return name, value
}

func splitList(value string) []string {
	return strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}

// flagValue skips flags that are not configuration keys and maps dashed flag
// names onto keys.
func flagValue(fs *pflag.FlagSet) func(f *pflag.Flag) (string, interface{}) {
	known := maps.Unflatten(defaults(), ".")
	return func(f *pflag.Flag) (string, interface{}) {
		key := FlagKey(f.Name)
		if !hasKey(known, key) {
			return "", nil
		}
		return key, posflag.FlagVal(fs, f)
	}
}

// FlagKey returns the configuration key a flag name maps to.
func FlagKey(name string) string {
	if rest, ok := strings.CutPrefix(name, "tracing-"); ok {
		return "tracing." + strings.ReplaceAll(rest, "-", "_")
	}
	return strings.ReplaceAll(name, "-", "_")
}

func hasKey(tree map[string]interface{}, key string) bool {
	parts := strings.Split(key, ".")
	node := tree
	for i, part := range parts {
		v, ok := node[part]
		if !ok {
			return false
		}
		if i == len(parts)-1 {
			return true
		}
		if node, ok = v.(map[string]interface{}); !ok {
			return false
		}
	}
	return false
}

// mapProvider feeds an in-memory map to koanf.
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return maps.Unflatten(p.m, "."), nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
