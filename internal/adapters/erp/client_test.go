package erp_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	erp "github.com/harborline/erpmetrics/internal/adapters/erp"
	"github.com/harborline/erpmetrics/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*erp.Client, *httptest.Server) {
	t.Helper()
	if err := logger.Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	server := httptest.NewServer(handler)
	creds := testCredentials()
	creds.BaseURL = server.URL

	client, err := erp.NewClient(creds)
	if err != nil {
		t.Fatalf("failed to build client: %v", err)
	}
	return client, server
}

func pageJSON(count, total int, hasMore bool) string {
	items := make([]string, count)
	for i := range items {
		items[i] = fmt.Sprintf(`{"id":"%d"}`, i)
	}
	return fmt.Sprintf(`{"items":[%s],"hasMore":%t,"totalResults":%d}`,
		strings.Join(items, ","), hasMore, total)
}

func TestClientRunQuery(t *testing.T) {
	Convey("Given a client against a recording server", t, func() {
		var gotAuth, gotPrefer, gotQuery, gotBody string
		client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotPrefer = r.Header.Get("Prefer")
			gotQuery = r.URL.RawQuery
			var body struct {
				Query string `json:"q"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			gotBody = body.Query
			_, _ = w.Write([]byte(pageJSON(2, 2, false)))
		})
		defer server.Close()

		Convey("When running one tabular query page", func() {
			var page erp.QueryResponse
			err := client.RunQuery(context.Background(), "SELECT id FROM transaction", 1000, 0, &page)

			Convey("Then the call should succeed with parsed rows", func() {
				So(err, ShouldBeNil)
				So(page.Items, ShouldHaveLength, 2)
				So(page.HasMore, ShouldBeFalse)
				So(page.TotalResults, ShouldEqual, 2)
			})

			Convey("Then the request should be signed and hinted", func() {
				So(gotAuth, ShouldStartWith, "OAuth realm=")
				So(gotAuth, ShouldContainSubstring, "oauth_signature=")
				So(gotPrefer, ShouldEqual, "transient")
				So(gotQuery, ShouldContainSubstring, "limit=1000")
				So(gotQuery, ShouldContainSubstring, "offset=0")
				So(gotBody, ShouldEqual, "SELECT id FROM transaction")
			})
		})

		Convey("When the limit exceeds the protocol maximum", func() {
			var page erp.QueryResponse
			err := client.RunQuery(context.Background(), "SELECT id FROM transaction", 5000, 0, &page)

			Convey("Then the limit should be clamped to the maximum", func() {
				So(err, ShouldBeNil)
				So(gotQuery, ShouldContainSubstring, "limit=1000")
			})
		})
	})
}

func TestClientErrorTranslation(t *testing.T) {
	Convey("Given a server that rejects requests", t, func() {
		client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"title":"Invalid login attempt"}`))
		})
		defer server.Close()

		Convey("When a query is run", func() {
			var page erp.QueryResponse
			err := client.RunQuery(context.Background(), "SELECT id FROM transaction", 1000, 0, &page)

			Convey("Then a typed protocol error should surface", func() {
				So(err, ShouldNotBeNil)
				var apiErr *erp.APIError
				So(errors.As(err, &apiErr), ShouldBeTrue)
				So(apiErr.Status, ShouldEqual, http.StatusForbidden)
				So(apiErr.Body, ShouldContainSubstring, "Invalid login attempt")
				So(erp.IsAPIError(err), ShouldBeTrue)
			})
		})
	})
}

func TestClientPagination(t *testing.T) {
	Convey("Given a server with 1500 rows", t, func() {
		var offsets []string
		client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			offset := r.URL.Query().Get("offset")
			offsets = append(offsets, offset)
			if offset == "0" {
				_, _ = w.Write([]byte(pageJSON(1000, 1500, true)))
				return
			}
			_, _ = w.Write([]byte(pageJSON(500, 1500, false)))
		})
		defer server.Close()

		Convey("When pulling everything", func() {
			rows, err := client.RunQueryAll(context.Background(), "SELECT id FROM transaction", 0)

			Convey("Then all pages should be fetched until the short page", func() {
				So(err, ShouldBeNil)
				So(rows, ShouldHaveLength, 1500)
				So(offsets, ShouldResemble, []string{"0", "1000"})
			})
		})

		Convey("When pulling with a result cap", func() {
			offsets = nil
			rows, err := client.RunQueryAll(context.Background(), "SELECT id FROM transaction", 700)

			Convey("Then the pull should stop at the cap", func() {
				So(err, ShouldBeNil)
				So(rows, ShouldHaveLength, 700)
				So(offsets, ShouldResemble, []string{"0"})
			})
		})
	})
}

func TestDecodeRows(t *testing.T) {
	Convey("Given raw result rows", t, func() {
		items := []json.RawMessage{
			json.RawMessage(`{"id":"1","companyname":"Acme"}`),
			json.RawMessage(`{"id":"2","companyname":"Globex"}`),
		}

		type row struct {
			ID          string `json:"id"`
			CompanyName string `json:"companyname"`
		}

		Convey("When decoding into a typed slice", func() {
			rows, err := erp.DecodeRows[row](items)

			Convey("Then every row should be typed", func() {
				So(err, ShouldBeNil)
				So(rows, ShouldHaveLength, 2)
				So(rows[0].CompanyName, ShouldEqual, "Acme")
				So(rows[1].ID, ShouldEqual, "2")
			})
		})

		Convey("When a row is malformed", func() {
			bad := append(items, json.RawMessage(`{`))
			_, err := erp.DecodeRows[row](bad)

			Convey("Then decoding should fail", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}
