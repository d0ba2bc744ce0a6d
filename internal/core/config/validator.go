package config

import (
	"fmt"
	"strings"

	domainErrors "importcycles/internal/core/errors"
	"importcycles/internal/shared/util"
)

// Validate rejects configurations the analysis cannot run with.
func (c *Config) Validate() error {
	for _, check := range []func(*Config) error{validateExtensions, validateExclude, validateWatch} {
		if err := check(c); err != nil {
			return domainErrors.Wrap(err, domainErrors.CodeValidationError, "invalid config")
		}
	}
	return nil
}

func validateExtensions(cfg *Config) error {
	if len(cfg.Extensions) == 0 {
		return fmt.Errorf("extensions must not be empty")
	}
	for i, ext := range cfg.Extensions {
		ext = strings.TrimSpace(ext)
		if len(ext) < 2 || !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("extensions[%d] must start with a dot, got %q", i, cfg.Extensions[i])
		}
		cfg.Extensions[i] = ext
	}
	return nil
}

func validateExclude(cfg *Config) error {
	_, err := util.CompileGlobs(cfg.Exclude)
	return err
}

func validateWatch(cfg *Config) error {
	if cfg.Debounce <= 0 {
		return fmt.Errorf("debounce must be positive, got %s", cfg.Debounce)
	}
	if cfg.WatchRate <= 0 {
		return fmt.Errorf("watch_rate must be positive, got %v", cfg.WatchRate)
	}
	return nil
}
