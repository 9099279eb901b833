// Package erp implements the signed-request client for the upstream ERP
// platform's tabular query protocol.
package erp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Protocol constants for the two-legged signing scheme.
const (
	signatureMethod = "HMAC-SHA256"
	protocolVersion = "1.0"
)

// Credentials is the immutable signing identity for the ERP account.
// It is loaded once at process start and passed by reference into the
// signer and client constructors; there is no package-level state.
type Credentials struct {
	AccountID      string
	ConsumerKey    string
	ConsumerSecret string
	TokenID        string
	TokenSecret    string
	BaseURL        string
}

// Validate reports the first missing credential field. Signing must fail
// before any network call is attempted, not at the HTTP layer.
func (c Credentials) Validate() error {
	switch {
	case c.AccountID == "":
		return fmt.Errorf("%w: account id", ErrMissingCredentials)
	case c.ConsumerKey == "":
		return fmt.Errorf("%w: consumer key", ErrMissingCredentials)
	case c.ConsumerSecret == "":
		return fmt.Errorf("%w: consumer secret", ErrMissingCredentials)
	case c.TokenID == "":
		return fmt.Errorf("%w: token id", ErrMissingCredentials)
	case c.TokenSecret == "":
		return fmt.Errorf("%w: token secret", ErrMissingCredentials)
	case c.BaseURL == "":
		return fmt.Errorf("%w: base url", ErrMissingCredentials)
	}
	return nil
}

// Signer produces the Authorization header for one outbound call.
type Signer struct {
	creds Credentials

	// nonce and now are swappable so the signature can be verified as a
	// pure function of its inputs.
	nonce func() string
	now   func() time.Time
}

// SignerOption applies a configuration option to the Signer.
type SignerOption func(*Signer)

// WithNonceSource overrides nonce generation. Production nonces are random
// per call; a fixed source is only meaningful under test.
func WithNonceSource(nonce func() string) SignerOption {
	return func(s *Signer) {
		if nonce != nil {
			s.nonce = nonce
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) SignerOption {
	return func(s *Signer) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSigner validates the credential set and builds a Signer.
func NewSigner(creds Credentials, opts ...SignerOption) (*Signer, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	s := &Signer{
		creds: creds,
		nonce: randomNonce,
		now:   time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// randomNonce returns 32 alphanumeric characters of fresh randomness.
// Nonces are random rather than counter-based so concurrent calls never
// collide without shared state.
func randomNonce() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// AuthorizationHeader signs one call and returns the header value.
// rawURL must not carry a query string; query parameters participate in
// the signature via the query argument but never appear in the header.
func (s *Signer) AuthorizationHeader(method, rawURL string, query url.Values) (string, error) {
	if err := s.creds.Validate(); err != nil {
		return "", err
	}

	nonce := s.nonce()
	timestamp := strconv.FormatInt(s.now().Unix(), 10)

	oauthParams := map[string]string{
		"oauth_consumer_key":     s.creds.ConsumerKey,
		"oauth_token":            s.creds.TokenID,
		"oauth_signature_method": signatureMethod,
		"oauth_timestamp":        timestamp,
		"oauth_nonce":            nonce,
		"oauth_version":          protocolVersion,
	}

	signature := s.signature(method, rawURL, oauthParams, query)

	// Header order mirrors the protocol examples; only oauth_* params are
	// emitted, with the computed signature appended last.
	var b strings.Builder
	b.WriteString(`OAuth realm="`)
	b.WriteString(percentEncode(s.creds.AccountID))
	b.WriteString(`"`)
	for _, key := range []string{
		"oauth_consumer_key",
		"oauth_token",
		"oauth_signature_method",
		"oauth_timestamp",
		"oauth_nonce",
		"oauth_version",
	} {
		b.WriteString(", ")
		b.WriteString(key)
		b.WriteString(`="`)
		b.WriteString(percentEncode(oauthParams[key]))
		b.WriteString(`"`)
	}
	b.WriteString(`, oauth_signature="`)
	b.WriteString(percentEncode(signature))
	b.WriteString(`"`)

	return b.String(), nil
}

// signature computes base64(HMAC-SHA256(base string)) over the merged,
// sorted, percent-encoded parameter set.
func (s *Signer) signature(method, rawURL string, oauthParams map[string]string, query url.Values) string {
	type pair struct {
		key   string
		value string
	}

	merged := make([]pair, 0, len(oauthParams)+len(query))
	for k, v := range oauthParams {
		merged = append(merged, pair{key: k, value: v})
	}
	for k, vs := range query {
		for _, v := range vs {
			merged = append(merged, pair{key: k, value: v})
		}
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].key != merged[j].key {
			return merged[i].key < merged[j].key
		}
		return merged[i].value < merged[j].value
	})

	encoded := make([]string, len(merged))
	for i, p := range merged {
		encoded[i] = percentEncode(p.key) + "=" + percentEncode(p.value)
	}
	paramString := strings.Join(encoded, "&")

	base := strings.ToUpper(method) + "&" + percentEncode(rawURL) + "&" + percentEncode(paramString)
	key := percentEncode(s.creds.ConsumerSecret) + "&" + percentEncode(s.creds.TokenSecret)

	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(base))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// percentEncode implements RFC 3986 encoding: unreserved characters pass
// through, everything else becomes uppercase %XX. The protocol requires
// this stricter form, not url.QueryEscape's "+" for spaces.
func percentEncode(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z',
			c >= 'a' && c <= 'z',
			c >= '0' && c <= '9',
			c == '-', c == '.', c == '_', c == '~':
			b.WriteByte(c)
		default:
			b.WriteString(fmt.Sprintf("%%%02X", c))
		}
	}
	return b.String()
}
