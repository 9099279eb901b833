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

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if ERPM_CONFIG is set
//  3. env (prefix ERPM_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("ERPM_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: ERPM_ADDR, ERPM_ERP_ACCOUNT_ID, ...
	// Map env keys like ERPM_ERP_ACCOUNT_ID -> erp.account_id: the first
	// underscore after the section name becomes the nesting separator.
	envProvider := env.Provider("ERPM_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "erpm_")
		if rest, ok := strings.CutPrefix(s, "erp_"); ok {
			return "erp." + rest
		}
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate rejects configurations the service cannot safely run with. A
// partially specified credential set is an error rather than a warning: the
// signer must never be constructed with missing fields.
func validate(cfg *Config) error {
	if cfg.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if cfg.SnapshotTTLSeconds < 0 {
		return fmt.Errorf("%w: snapshot_ttl_seconds must not be negative", ErrInvalidConfig)
	}
	if cfg.MaxQueryRows < 1 {
		return fmt.Errorf("%w: max_query_rows must be positive", ErrInvalidConfig)
	}
	if !cfg.ERP.Empty() && !cfg.ERP.Complete() {
		return fmt.Errorf("%w: erp credentials are partially specified", ErrIncompleteCredentials)
	}
	return nil
}
