package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const FileName = "unitsense.toml"

// Analyzer describes how to invoke the external checker container.
type Analyzer struct {
	Image          string `toml:"image"`
	Priors         string `toml:"priors"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxConcurrent  int    `toml:"max_concurrent"`
}

type Config struct {
	Analyzer Analyzer `toml:"analyzer"`
}

func Default() Config {
	return Config{
		Analyzer: Analyzer{
			Image:          "unitsense/analyzer:latest",
			Priors:         "priors.json",
			Model:          "model.json",
			TimeoutSeconds: 60,
			MaxConcurrent:  2,
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Discover walks up from startDir looking for unitsense.toml. When no file is
// found it returns the defaults and an empty path.
func Discover(startDir string) (Config, string, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return Config{}, "", fmt.Errorf("resolve %q: %w", startDir, err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			cfg, err := Load(candidate)
			if err != nil {
				return Config{}, "", err
			}
			return cfg, candidate, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return Config{}, "", fmt.Errorf("stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return Default(), "", nil
}
