// Package config loads env-tagged configuration structs.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Load populates cfg from the process environment. cfg must be a pointer to
// a struct carrying `env` tags; `envDefault` supplies fallbacks and
// `envSeparator` splits list values, so callers only deal with typed fields.
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}
