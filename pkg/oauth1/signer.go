// Package oauth1 signs HTTP requests with OAuth 1.0a (RFC 5849) using the
// HMAC-SHA1 signature method.
//
// The signer supports two-legged use, where only consumer credentials are
// known and the token is left empty. OAuth protocol parameters can be placed
// either in the request URL query or in an Authorization header.
package oauth1

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// SignatureMethod is the only signature method this package implements.
	SignatureMethod = "HMAC-SHA1"

	// Version is the OAuth protocol version sent with every request.
	Version = "1.0"
)

// Placement selects where the OAuth protocol parameters are transmitted.
type Placement int

const (
	// PlacementQuery appends the protocol parameters to the URL query.
	PlacementQuery Placement = iota

	// PlacementHeader sends the protocol parameters in the Authorization header.
	PlacementHeader
)

func (p Placement) String() string {
	switch p {
	case PlacementQuery:
		return "query"
	case PlacementHeader:
		return "header"
	default:
		return "unknown"
	}
}

// Config configures a Signer.
type Config struct {
	ConsumerKey    string
	ConsumerSecret string

	// Token and TokenSecret are empty for two-legged requests.
	Token       string
	TokenSecret string

	Placement Placement

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	// Nonce returns a fresh nonce per request. Defaults to a random UUID
	// without dashes.
	Nonce func() string
}

// Signer adds OAuth 1.0a signatures to outgoing requests.
type Signer struct {
	consumerKey    string
	consumerSecret string
	token          string
	tokenSecret    string
	placement      Placement
	now            func() time.Time
	nonce          func() string
}

// NewSigner creates a Signer from cfg.
func NewSigner(cfg Config) (*Signer, error) {
	if cfg.ConsumerKey == "" {
		return nil, fmt.Errorf("consumer key is required")
	}
	if cfg.ConsumerSecret == "" {
		return nil, fmt.Errorf("consumer secret is required")
	}
	if cfg.Placement != PlacementQuery && cfg.Placement != PlacementHeader {
		return nil, fmt.Errorf("unsupported placement: %d", cfg.Placement)
	}

	s := &Signer{
		consumerKey:    cfg.ConsumerKey,
		consumerSecret: cfg.ConsumerSecret,
		token:          cfg.Token,
		tokenSecret:    cfg.TokenSecret,
		placement:      cfg.Placement,
		now:            cfg.Now,
		nonce:          cfg.Nonce,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.nonce == nil {
		s.nonce = defaultNonce
	}

	return s, nil
}

func defaultNonce() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Sign computes the signature for req and attaches the protocol parameters
// according to the configured placement. form holds the parameters of an
// application/x-www-form-urlencoded body, which take part in the signature
// base; pass nil when the request has no such body.
func (s *Signer) Sign(req *http.Request, form url.Values) error {
	if req == nil || req.URL == nil {
		return fmt.Errorf("request has no URL")
	}

	oauthParams := s.protocolParams()

	params := url.Values{}
	for k, vs := range req.URL.Query() {
		params[k] = append(params[k], vs...)
	}
	for k, vs := range form {
		params[k] = append(params[k], vs...)
	}
	for k, v := range oauthParams {
		params.Set(k, v)
	}

	base := signatureBase(req.Method, req.URL, params)
	oauthParams["oauth_signature"] = s.sign(base)

	switch s.placement {
	case PlacementHeader:
		req.Header.Set("Authorization", authorizationHeader(oauthParams))
	default:
		encoded := encodeSorted(oauthParams)
		if req.URL.RawQuery == "" {
			req.URL.RawQuery = encoded
		} else {
			req.URL.RawQuery += "&" + encoded
		}
	}

	return nil
}

func (s *Signer) protocolParams() map[string]string {
	p := map[string]string{
		"oauth_consumer_key":     s.consumerKey,
		"oauth_nonce":            s.nonce(),
		"oauth_signature_method": SignatureMethod,
		"oauth_timestamp":        strconv.FormatInt(s.now().Unix(), 10),
		"oauth_version":          Version,
	}
	if s.token != "" {
		p["oauth_token"] = s.token
	}
	return p
}

func (s *Signer) sign(base string) string {
	key := PercentEncode(s.consumerSecret) + "&" + PercentEncode(s.tokenSecret)
	mac := hmac.New(sha1.New, []byte(key))
	mac.Write([]byte(base))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// signatureBase builds the signature base string of RFC 5849 section 3.4.1.
func signatureBase(method string, u *url.URL, params url.Values) string {
	return strings.ToUpper(method) + "&" +
		PercentEncode(baseStringURI(u)) + "&" +
		PercentEncode(normalizeParams(params))
}

// baseStringURI returns scheme, authority and path with default ports and
// the query removed.
func baseStringURI(u *url.URL) string {
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	if port := u.Port(); port != "" {
		if !(scheme == "http" && port == "80") && !(scheme == "https" && port == "443") {
			host += ":" + port
		}
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}

	return scheme + "://" + host + path
}

func normalizeParams(params url.Values) string {
	type pair struct{ k, v string }

	pairs := make([]pair, 0, len(params))
	for k, vs := range params {
		ek := PercentEncode(k)
		for _, v := range vs {
			pairs = append(pairs, pair{ek, PercentEncode(v)})
		}
	}
	// Sorted by encoded name, then by encoded value.
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].k != pairs[j].k {
			return pairs[i].k < pairs[j].k
		}
		return pairs[i].v < pairs[j].v
	})

	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = p.k + "=" + p.v
	}
	return strings.Join(parts, "&")
}

func encodeSorted(params map[string]string) string {
	keys := sortedKeys(params)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, PercentEncode(k)+"="+PercentEncode(params[k]))
	}
	return strings.Join(pairs, "&")
}

func authorizationHeader(params map[string]string) string {
	keys := sortedKeys(params)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf(`%s="%s"`, PercentEncode(k), PercentEncode(params[k])))
	}
	return "OAuth " + strings.Join(parts, ", ")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// PercentEncode encodes s as required by RFC 5849 section 3.6: every byte
// outside the unreserved set is written as %XX with uppercase hex digits.
func PercentEncode(s string) string {
	const hex = "0123456789ABCDEF"

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '.', c == '_', c == '~':
		return true
	}
	return false
}
