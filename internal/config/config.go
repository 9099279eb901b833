// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

// ERPCredentials holds the two-legged signing credential set for the ERP
// platform. A single credential set is loaded once per process; a partially
// specified set is rejected at load time so signing can never start with a
// malformed identity.
type ERPCredentials struct {
	// AccountID is the ERP account identifier, used as the realm.
	AccountID string `koanf:"account_id"`

	// ConsumerKey and ConsumerSecret identify the integration.
	ConsumerKey    string `koanf:"consumer_key"`
	ConsumerSecret string `koanf:"consumer_secret"`

	// TokenID and TokenSecret identify the pre-authorized token.
	TokenID     string `koanf:"token_id"`
	TokenSecret string `koanf:"token_secret"`

	// BaseURL is the platform's REST base, e.g. "https://acme.erp.example.com".
	BaseURL string `koanf:"base_url"`
}

// Complete reports whether every credential field is set.
func (c ERPCredentials) Complete() bool {
	return c.AccountID != "" &&
		c.ConsumerKey != "" && c.ConsumerSecret != "" &&
		c.TokenID != "" && c.TokenSecret != "" &&
		c.BaseURL != ""
}

// Empty reports whether no credential field is set.
func (c ERPCredentials) Empty() bool {
	return c.AccountID == "" &&
		c.ConsumerKey == "" && c.ConsumerSecret == "" &&
		c.TokenID == "" && c.TokenSecret == "" &&
		c.BaseURL == ""
}

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ERP holds the signing credential set for the upstream platform.
	ERP ERPCredentials `koanf:"erp"`

	// SnapshotTTLSeconds controls how long a computed dashboard snapshot
	// is served before the next read recomputes it.
	SnapshotTTLSeconds int `koanf:"snapshot_ttl_seconds"`

	// MaxQueryRows caps the total rows pulled by any single bulk query.
	MaxQueryRows int `koanf:"max_query_rows"`

	// LookbackMonths sets the default open-order lookback window.
	LookbackMonths int `koanf:"lookback_months"`

	// LowStockRevenueThreshold is the blocked-revenue floor above which a
	// low-stock item produces a critical action item.
	LowStockRevenueThreshold float64 `koanf:"low_stock_revenue_threshold"`
}

// New creates a Config with compiled defaults. Credentials have no default;
// they must come from the file or environment layers.
func New() *Config {
	return &Config{
		LogLevel:                 "info",
		Addr:                     ":9080",
		SnapshotTTLSeconds:       300,
		MaxQueryRows:             50_000,
		LookbackMonths:           24,
		LowStockRevenueThreshold: 10_000,
	}
}
