// Package config loads the resilient client settings from defaults, a YAML
// file or inline YAML, and RESILIENT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	// DefaultFile is read by Load when present.
	DefaultFile = "config.yaml"

	// EnvPrefix marks the environment variables Load picks up,
	// e.g. RESILIENT_CLIENT_RETRY_MAX=3 sets client.retry.max.
	EnvPrefix = "RESILIENT_"
)

// listKeys are split on commas when they come from the environment.
var listKeys = map[string]bool{
	"client.retry.statuscodes": true,
}

// Load loads configuration from multiple sources with priority:
// 1. Environment variables (highest priority)
// 2. config.yaml in the working directory, when it exists
// 3. Default values (lowest priority)
func Load() (*Config, error) {
	return load(func(k *koanf.Koanf) error {
		if _, err := os.Stat(DefaultFile); errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return k.Load(file.Provider(DefaultFile), yaml.Parser())
	})
}

// LoadFile is like Load but reads the YAML file at path, which must exist.
func LoadFile(path string) (*Config, error) {
	return load(func(k *koanf.Koanf) error {
		if _, err := os.Stat(path); err != nil {
			return err
		}
		return k.Load(file.Provider(path), yaml.Parser())
	})
}

// LoadBytes is like Load but parses data as the YAML document.
func LoadBytes(data []byte) (*Config, error) {
	return load(func(k *koanf.Koanf) error {
		return k.Load(rawbytes.Provider(data), yaml.Parser())
	})
}

func load(loadYAML func(*koanf.Koanf) error) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := loadYAML(k); err != nil {
		return nil, fmt.Errorf("failed to load yaml config: %w", err)
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: transformEnv,
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.k = k

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// transformEnv converts RESILIENT_CLIENT_RETRY_MAX to client.retry.max.
func transformEnv(key, value string) (string, any) {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	key = strings.ReplaceAll(key, "_", ".")

	if listKeys[key] {
		if strings.TrimSpace(value) == "" {
			return key, []string{}
		}
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return key, parts
	}
	return key, value
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"client.timeout.connect":    "0s",
		"client.timeout.read":       "0s",
		"client.retry.max":          5,
		"client.retry.forever":      false,
		"client.retry.statuscodes":  []int{502, 503, 504},
		"client.retry.onexhaustion": OnExhaustionReturn,
		"client.backoff.strategy":   "linear",
		"client.backoff.base":       "10s",
		"client.backoff.max":        "0s",
		"client.rate.limit":         0,
		"client.rate.burst":         1,
		"client.requestidheader":    "X-Request-ID",

		"log.level":  "info",
		"log.pretty": false,

		"observability.enabled":         false,
		"observability.service.name":    "resilient-client",
		"observability.service.version": "unknown",
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}

// Exists reports whether key was set by any source.
func (c *Config) Exists(key string) bool {
	if c.k == nil {
		return false
	}
	return c.k.Exists(key)
}
