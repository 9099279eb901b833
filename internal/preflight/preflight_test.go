package preflight_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/harborline/erpmetrics/internal/adapters/erp"
	"github.com/harborline/erpmetrics/internal/preflight"
	"github.com/harborline/erpmetrics/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func probeCredentials(baseURL string) erp.Credentials {
	return erp.Credentials{
		AccountID:      "1234567",
		ConsumerKey:    "ck",
		ConsumerSecret: "cs",
		TokenID:        "tid",
		TokenSecret:    "ts",
		BaseURL:        baseURL,
	}
}

func probeServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	if err := logger.Init(); err != nil {
		t.Fatalf("logger init: %v", err)
	}
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestRunner(t *testing.T) {
	Convey("Given a responsive upstream", t, func() {
		server := probeServer(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"items":[{"id":"1"}],"hasMore":false,"totalResults":1}`)
		})
		runner := preflight.NewRunner(probeCredentials(server.URL), preflight.WithProbeRows(5))

		Convey("When the probe sequence runs", func() {
			report := runner.Run(context.Background())

			Convey("Then every check should pass", func() {
				So(report.Passed, ShouldBeTrue)
				So(report.Checks, ShouldHaveLength, 3)
				for _, c := range report.Checks {
					So(c.OK, ShouldBeTrue)
				}
			})

			Convey("Then checks should run in dependency order", func() {
				So(report.Checks[0].Name, ShouldEqual, "credentials")
				So(report.Checks[1].Name, ShouldEqual, "round_trip")
				So(report.Checks[2].Name, ShouldEqual, "pagination")
			})
		})
	})

	Convey("Given an incomplete credential set", t, func() {
		creds := probeCredentials("https://example.com")
		creds.TokenSecret = ""
		runner := preflight.NewRunner(creds)

		Convey("When the probe sequence runs", func() {
			report := runner.Run(context.Background())

			Convey("Then it should stop at the first check", func() {
				So(report.Passed, ShouldBeFalse)
				So(report.Checks, ShouldHaveLength, 1)
				So(report.Checks[0].OK, ShouldBeFalse)
				So(report.Checks[0].Detail, ShouldContainSubstring, "token secret")
			})
		})
	})

	Convey("Given an upstream that rejects the signature", t, func() {
		server := probeServer(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"type":"INVALID_LOGIN"}`, http.StatusUnauthorized)
		})
		runner := preflight.NewRunner(probeCredentials(server.URL))

		Convey("When the probe sequence runs", func() {
			report := runner.Run(context.Background())

			Convey("Then the round trip should fail with the upstream status", func() {
				So(report.Passed, ShouldBeFalse)
				So(report.Checks[1].OK, ShouldBeFalse)
				So(report.Checks[1].Detail, ShouldContainSubstring, "401")
			})
		})
	})
}
