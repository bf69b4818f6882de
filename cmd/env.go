package cmd

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// envFlagNames maps recognized .env keys to the run flags they default.
var envFlagNames = map[string]string{
	"ROUTESIM_SEED":     "seed",
	"ROUTESIM_TICKS":    "ticks",
	"ROUTESIM_LOG":      "log",
	"ROUTESIM_INTERVAL": "interval",
	"ROUTESIM_OUTPUT":   "output",
}

// applyEnvFile reads KEY=VALUE pairs from path and uses them as values for
// flags not listed in explicit. A missing file is not an error. It returns
// the keys that were applied.
func applyEnvFile(path string, flags *pflag.FlagSet, explicit map[string]bool) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	env, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading env file %s: %w", path, err)
	}

	var applied []string
	for key, flagName := range envFlagNames {
		value, ok := env[key]
		if !ok || explicit[flagName] {
			continue
		}
		if err := flags.Set(flagName, value); err != nil {
			return nil, fmt.Errorf("env %s=%q: %w", key, value, err)
		}
		applied = append(applied, key)
	}
	return applied, nil
}
