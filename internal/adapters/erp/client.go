package erp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/harborline/erpmetrics/pkg/logger"
	"github.com/harborline/erpmetrics/pkg/metrics"
)

// Protocol limits and endpoint classes.
const (
	// MaxPageSize is the hard protocol maximum rows per call.
	MaxPageSize = 1000

	// defaultQueryPath addresses the tabular query endpoint.
	defaultQueryPath = "/services/query/v1/run"

	defaultTimeout = 60 * time.Second
)

// QueryResponse is the tabular query envelope.
type QueryResponse struct {
	Items        []json.RawMessage `json:"items"`
	HasMore      bool              `json:"hasMore"`
	TotalResults int               `json:"totalResults"`
}

// tabularQueryBody is the POST payload for tabular queries.
type tabularQueryBody struct {
	Query string `json:"q"`
}

// Client executes authenticated calls against the platform and provides
// page-by-page iteration for bulk pulls.
type Client struct {
	signer     *Signer
	httpClient *http.Client
	baseURL    string
	queryPath  string
	log        logger.Logger
}

// ClientOption applies a configuration option to the Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithQueryPath overrides the tabular query endpoint path.
func WithQueryPath(path string) ClientOption {
	return func(c *Client) {
		if path != "" {
			c.queryPath = path
		}
	}
}

// WithLogger sets a custom logger for the client.
func WithLogger(log logger.Logger) ClientOption {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// NewClient validates credentials and builds a query client. Construction
// fails fast on an incomplete credential set.
func NewClient(creds Credentials, opts ...ClientOption) (*Client, error) {
	signer, err := NewSigner(creds)
	if err != nil {
		return nil, err
	}

	c := &Client{
		signer:     signer,
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    creds.BaseURL,
		queryPath:  defaultQueryPath,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.log == nil {
		c.log = logger.Get()
	}

	return c, nil
}

// Do executes one authenticated call. Query parameters are included in the
// signature but travel on the URL, never in the Authorization header. The
// response body is decoded into out when out is non-nil.
func (c *Client) Do(ctx context.Context, method, path string, body any, query url.Values, out any) error {
	fullURL := c.baseURL + path

	auth, err := c.signer.AuthorizationHeader(method, fullURL, query)
	if err != nil {
		metrics.RecordERPSignFailure()
		return err
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if len(query) > 0 {
		req.URL.RawQuery = query.Encode()
	}

	req.Header.Set("Authorization", auth)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if path == c.queryPath {
		// The tabular query endpoint class requires this transport hint.
		req.Header.Set("Prefer", "transient")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	durationMs := float64(time.Since(start).Milliseconds())
	if err != nil {
		metrics.RecordERPRequest(path, method, "transport_error")
		return fmt.Errorf("erp request to %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	metrics.RecordERPRequest(path, method, strconv.Itoa(resp.StatusCode))
	metrics.RecordERPRequestDuration(path, method, durationMs)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response from %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Endpoint: path, Body: string(raw)}
	}

	c.log.Debug(ctx, "erp call completed",
		logger.String("path", path),
		logger.String("method", method),
		logger.Int("status", resp.StatusCode),
		logger.Float64("durationMs", durationMs),
	)

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response from %s: %w", path, err)
	}
	return nil
}

// RunQuery posts one tabular query page with explicit limit/offset.
func (c *Client) RunQuery(ctx context.Context, queryText string, limit, offset int, out *QueryResponse) error {
	if limit < 1 || limit > MaxPageSize {
		limit = MaxPageSize
	}
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))

	if err := c.Do(ctx, http.MethodPost, c.queryPath, tabularQueryBody{Query: queryText}, params, out); err != nil {
		return err
	}
	metrics.RecordERPPage(len(out.Items))
	return nil
}

// RunQueryAll pulls every row of a tabular query, advancing the offset by
// full pages until a short page arrives or maxRows is reached. maxRows <= 0
// means no cap.
func (c *Client) RunQueryAll(ctx context.Context, queryText string, maxRows int) ([]json.RawMessage, error) {
	var rows []json.RawMessage
	offset := 0

	for {
		var page QueryResponse
		if err := c.RunQuery(ctx, queryText, MaxPageSize, offset, &page); err != nil {
			return nil, err
		}
		rows = append(rows, page.Items...)

		if maxRows > 0 && len(rows) >= maxRows {
			return rows[:maxRows], nil
		}
		if len(page.Items) < MaxPageSize {
			return rows, nil
		}
		offset += MaxPageSize
	}
}

// DecodeRows unmarshals raw result rows into a typed slice.
func DecodeRows[T any](items []json.RawMessage) ([]T, error) {
	out := make([]T, 0, len(items))
	for _, item := range items {
		var row T
		if err := json.Unmarshal(item, &row); err != nil {
			return nil, fmt.Errorf("decode row: %w", err)
		}
		out = append(out, row)
	}
	return out, nil
}
