package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/harborline/erpmetrics/internal/adapters/erp"
	"github.com/harborline/erpmetrics/internal/config"
	"github.com/harborline/erpmetrics/internal/preflight"
	"github.com/harborline/erpmetrics/pkg/logger"
)

// Default probe bounds.
const (
	defaultTimeout = 60 * time.Second
	defaultRows    = 5
)

func main() {
	var (
		timeout = flag.Duration("timeout", defaultTimeout, "Overall probe timeout")
		rows    = flag.Int("rows", defaultRows, "Row cap for the pagination probe")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		preflight.ShowHelp()
		return
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	runner := preflight.NewRunner(erp.Credentials{
		AccountID:      cfg.ERP.AccountID,
		ConsumerKey:    cfg.ERP.ConsumerKey,
		ConsumerSecret: cfg.ERP.ConsumerSecret,
		TokenID:        cfg.ERP.TokenID,
		TokenSecret:    cfg.ERP.TokenSecret,
		BaseURL:        cfg.ERP.BaseURL,
	}, preflight.WithProbeRows(*rows))

	report := runner.Run(ctx)
	preflight.PrintReport(report)

	if !report.Passed {
		os.Exit(1)
	}
}
