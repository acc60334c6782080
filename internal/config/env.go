package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TYPETRACE_"

// LoadDotEnv loads variables from the given .env files when they exist.
// Variables already present in the environment are not overridden.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to stat %s: %w", path, err)
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// ApplyEnv overlays TYPETRACE_* environment variables on top of the file config.
func ApplyEnv(cfg FileConfig) (FileConfig, error) {
	envString("TEXT", &cfg.Test.Text)
	envString("USER", &cfg.Test.User)
	envString("WORDLIST", &cfg.Test.WordList)
	envString("PUNCT_SET", &cfg.Test.PunctSet)
	envString("DB", &cfg.Test.DBPath)
	envString("LOG_LEVEL", &cfg.Log.Level)
	if err := envInt("DURATION", &cfg.Test.Duration); err != nil {
		return FileConfig{}, err
	}
	if err := envInt("WORDS", &cfg.Test.Words); err != nil {
		return FileConfig{}, err
	}
	if err := envFloat("CAPS", &cfg.Test.CapsPct); err != nil {
		return FileConfig{}, err
	}
	if err := envFloat("PUNCT", &cfg.Test.PunctPct); err != nil {
		return FileConfig{}, err
	}
	if err := envFloat("FOCUS_FACTOR", &cfg.Test.FocusFactor); err != nil {
		return FileConfig{}, err
	}
	if err := envBool("FOCUS_ERRORS", &cfg.Test.FocusErrors); err != nil {
		return FileConfig{}, err
	}
	return cfg, nil
}

func envString(key string, target **string) {
	if v, ok := os.LookupEnv(EnvPrefix + key); ok && v != "" {
		*target = &v
	}
}

func envInt(key string, target **int) error {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok || v == "" {
		return nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s%s=%q: %w", EnvPrefix, key, v, err)
	}
	*target = &i
	return nil
}

func envFloat(key string, target **float64) error {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok || v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("invalid %s%s=%q: %w", EnvPrefix, key, v, err)
	}
	*target = &f
	return nil
}

func envBool(key string, target **bool) error {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok || v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s%s=%q: %w", EnvPrefix, key, v, err)
	}
	*target = &b
	return nil
}
