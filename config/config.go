package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	envprovider "github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultFile is the YAML file Load looks for in the working directory.
const DefaultFile = "curling.yaml"

// envPrefix namespaces environment overrides, e.g.
// CURLING_CLIENT_TIMEOUT_REQUEST=5s.
const envPrefix = "CURLING_"

// Load reads configuration with priority: environment variables over the
// optional YAML file over built-in defaults.
func Load() (*Config, error) {
	return LoadFile(DefaultFile)
}

// LoadFile is Load with an explicit YAML file path. A missing file is not
// an error; the defaults and environment still apply.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	if err := k.Load(envprovider.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks a configuration against its struct constraints.
func Validate(cfg *Config) error {
	return validator.New().Struct(cfg)
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"client.useragent":       "",
		"client.cookiepath":      "",
		"client.followredirects": true,
		"client.timeout.request": "30s",
		"client.timeout.connect": "10s",

		"retry.basedelay": "1s",

		"log.level":  "info",
		"log.pretty": false,
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}
