// Package config loads HTTP client defaults from layered sources:
// built-in defaults, an optional YAML file, and HTTPCLIENT_* environment
// variables, in increasing priority. The result feeds the client builder.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	env "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix recognized on environment variables, e.g.
// HTTPCLIENT_TIMEOUT=10s or HTTPCLIENT_LOG_LEVEL=debug.
const EnvPrefix = "HTTPCLIENT_"

// Config holds the client defaults resolvable from external sources.
type Config struct {
	// Timeout is the per-attempt deadline for requests.
	Timeout time.Duration `koanf:"timeout" validate:"min=0"`
	// Retries is the number of retry attempts after the first one.
	Retries int `koanf:"retries" validate:"min=0"`
	// RetryDelay is the fixed wait between attempts.
	RetryDelay time.Duration `koanf:"retrydelay" validate:"min=0"`
	Log        LogConfig     `koanf:"log"`
}

// LogConfig configures the client logger.
type LogConfig struct {
	Level  string `koanf:"level" validate:"omitempty,oneof=trace debug info warn error fatal panic disabled"`
	Pretty bool   `koanf:"pretty"`
}

func defaults(k *koanf.Koanf) error {
	return k.Load(confmap.Provider(map[string]any{
		"timeout":    "5s",
		"retries":    0,
		"retrydelay": "2s",
		"log.level":  "info",
		"log.pretty": false,
	}, "."), nil)
}

func envProvider() *env.Env {
	return env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(key, EnvPrefix)), "_", ".")
			return key, value
		},
	})
}

// Load resolves the configuration from defaults, the YAML file at path
// (skipped when path is empty), and environment variables, then validates
// it. A non-empty path naming a missing file is an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := defaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(envProvider(), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	return unmarshal(k)
}

// LoadBytes resolves the configuration from defaults, the given YAML
// document, and environment variables, then validates it.
func LoadBytes(doc []byte) (*Config, error) {
	k := koanf.New(".")

	if err := defaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := k.Load(rawbytes.Provider(doc), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to parse config document: %w", err)
	}

	if err := k.Load(envProvider(), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	return unmarshal(k)
}

func unmarshal(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
