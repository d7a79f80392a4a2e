package config

import (
	"fmt"

	"github.com/gobwas/glob"
)

// Validate checks a configuration for problems that would only surface
// later as confusing scan behavior.
func Validate(cfg *Config) error {
	if cfg.Database == "" {
		return fmt.Errorf("database location must not be empty")
	}
	for _, p := range cfg.Excludes {
		if _, err := glob.Compile(p, '/'); err != nil {
			return fmt.Errorf("exclude pattern %q: %w", p, err)
		}
	}
	return nil
}
