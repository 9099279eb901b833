package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/harborline/erpmetrics/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.SnapshotTTLSeconds, convey.ShouldEqual, 300)
				convey.So(cfg.MaxQueryRows, convey.ShouldEqual, 50_000)
				convey.So(cfg.LookbackMonths, convey.ShouldEqual, 24)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("ERPM_ADDR", ":8080")
			_ = os.Setenv("ERPM_SNAPSHOT_TTL_SECONDS", "60")
			_ = os.Setenv("ERPM_ERP_ACCOUNT_ID", "123456")
			_ = os.Setenv("ERPM_ERP_CONSUMER_KEY", "ck")
			_ = os.Setenv("ERPM_ERP_CONSUMER_SECRET", "cs")
			_ = os.Setenv("ERPM_ERP_TOKEN_ID", "tid")
			_ = os.Setenv("ERPM_ERP_TOKEN_SECRET", "ts")
			_ = os.Setenv("ERPM_ERP_BASE_URL", "https://123456.erp.example.com")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.SnapshotTTLSeconds, convey.ShouldEqual, 60)
				convey.So(cfg.ERP.AccountID, convey.ShouldEqual, "123456")
				convey.So(cfg.ERP.Complete(), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			yamlContent := `
addr: ":9090"
snapshot_ttl_seconds: 120
lookback_months: 12
erp:
  account_id: "654321"
  consumer_key: "ck"
  consumer_secret: "cs"
  token_id: "tid"
  token_secret: "ts"
  base_url: "https://654321.erp.example.com"
`
			tmpFile := createTempConfigFile(t, yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("ERPM_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from the YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.SnapshotTTLSeconds, convey.ShouldEqual, 120)
				convey.So(cfg.LookbackMonths, convey.ShouldEqual, 12)
				convey.So(cfg.ERP.AccountID, convey.ShouldEqual, "654321")
				convey.So(cfg.ERP.Complete(), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
snapshot_ttl_seconds: 120
`
			tmpFile := createTempConfigFile(t, yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("ERPM_CONFIG", tmpFile)
			_ = os.Setenv("ERPM_ADDR", ":8080") // This should override the file
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")            // Overridden by env
				convey.So(cfg.SnapshotTTLSeconds, convey.ShouldEqual, 120) // From file
			})
		})

		convey.Convey("When credentials are only partially specified", func() {
			clearConfigEnvVars()
			_ = os.Setenv("ERPM_ERP_ACCOUNT_ID", "123456")
			_ = os.Setenv("ERPM_ERP_CONSUMER_KEY", "ck")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then loading should fail fast", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrIncompleteCredentials), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the config file does not exist", func() {
			clearConfigEnvVars()
			_ = os.Setenv("ERPM_CONFIG", "/nonexistent/erpm.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then loading should fail with a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func clearConfigEnvVars() {
	for _, key := range []string{
		"ERPM_CONFIG",
		"ERPM_ADDR",
		"ERPM_LOG_LEVEL",
		"ERPM_SNAPSHOT_TTL_SECONDS",
		"ERPM_MAX_QUERY_ROWS",
		"ERPM_LOOKBACK_MONTHS",
		"ERPM_LOW_STOCK_REVENUE_THRESHOLD",
		"ERPM_ERP_ACCOUNT_ID",
		"ERPM_ERP_CONSUMER_KEY",
		"ERPM_ERP_CONSUMER_SECRET",
		"ERPM_ERP_TOKEN_ID",
		"ERPM_ERP_TOKEN_SECRET",
		"ERPM_ERP_BASE_URL",
	} {
		_ = os.Unsetenv(key)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "erpm-*.yaml")
	if err != nil {
		t.Fatalf("failed to create temp config: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	_ = f.Close()
	return f.Name()
}
