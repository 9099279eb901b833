package preflight

import (
	"fmt"
	"log"
	"os"
	"time"
)

// PrintReport writes the check outcomes in a human-readable form.
func PrintReport(report Report) {
	for _, c := range report.Checks {
		mark := "FAIL"
		if c.OK {
			mark = "ok"
		}
		log.Printf("%-12s %-4s %s (%s)", c.Name, mark, c.Detail, c.Elapsed.Round(time.Millisecond))
	}
	if report.Passed {
		log.Printf("preflight passed")
		return
	}
	log.Printf("preflight FAILED")
}

// ShowHelp prints usage information for the preflight tool.
func ShowHelp() {
	fmt.Fprint(os.Stdout, `ERP Preflight Checker
=====================

Probes the upstream platform with the configured credential set before
the metrics service goes live.

Usage:
  go run cmd/preflight/main.go [options]

Options:
  -timeout duration
        Overall probe timeout (default 60s)
  -rows int
        Row cap for the pagination probe (default 5)
  -help
        Show this help message

Configuration is read the same way the service reads it: the YAML file
named by ERPM_CONFIG layered under ERPM_* environment variables. The
ERP credential set (account, consumer key/secret, token id/secret and
base URL) must be complete.
`)
}
