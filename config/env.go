package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix prefixes every environment override, e.g. MEADOW_TEMPERATURE.
const EnvPrefix = "MEADOW_"

// applyEnv overwrites fields tagged with `env` when the variable is set.
// Unset variables leave the loaded values untouched.
func applyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
