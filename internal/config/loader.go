package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, an optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if REFBOX_CONFIG is set
//  3. env (prefix REFBOX_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("REFBOX_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: REFBOX_ADDR, REFBOX_TIME_LIMIT, ...
	// Underscores are preserved to match the koanf tags on the struct.
	envProvider := env.Provider("REFBOX_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "refbox_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate enforces basic sanity on the loaded configuration.
func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.TimeLimit <= 0:
		return fmt.Errorf("%w: time_limit must be positive", ErrInvalidConfig)
	case c.BufferTime < 0:
		return fmt.Errorf("%w: buffer_time must not be negative", ErrInvalidConfig)
	case c.PMax < c.PBase:
		return fmt.Errorf("%w: p_max must not be below p_base", ErrInvalidConfig)
	case c.PPenalty < 0:
		return fmt.Errorf("%w: p_penalty must not be negative", ErrInvalidConfig)
	case c.FakeTeamCount < 0:
		return fmt.Errorf("%w: fake_team_count must not be negative", ErrInvalidConfig)
	}
	return nil
}
