package contextio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/hashicorp-forge/contextio/pkg/oauth1"
)

// UserAgent is sent with every request.
const UserAgent = "contextio-go"

// Client calls the Context.IO API.
//
// A Client is safe for concurrent use. The setters affect requests built
// after they return.
type Client struct {
	mu sync.RWMutex

	key         string
	secret      string
	apiVersion  string
	secure      bool
	authHeaders bool
	saveHeaders bool
	endpoint    string
	maxRetries  int
	retryDelay  time.Duration

	httpClient *http.Client
	logger     hclog.Logger
}

// settings is a snapshot of the mutable client configuration taken at the
// start of a call.
type settings struct {
	key         string
	secret      string
	apiVersion  string
	secure      bool
	authHeaders bool
	saveHeaders bool
	endpoint    string
	maxRetries  int
	retryDelay  time.Duration
}

// New creates a client with default settings for the given consumer
// credentials.
func New(key, secret string) (*Client, error) {
	cfg := DefaultConfig()
	cfg.ConsumerKey = key
	cfg.ConsumerSecret = secret
	return NewClient(cfg)
}

// NewClient creates a client from cfg. Unset fields take their defaults.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	c := *cfg
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid client config: %w", err)
	}

	logger := c.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = c.newHTTPClient()
	}

	return &Client{
		key:         c.ConsumerKey,
		secret:      c.ConsumerSecret,
		apiVersion:  c.APIVersion,
		secure:      *c.Secure,
		authHeaders: c.AuthHeaders,
		saveHeaders: c.SaveHeaders,
		endpoint:    c.Endpoint,
		maxRetries:  c.MaxRetries,
		retryDelay:  c.RetryDelay,
		httpClient:  httpClient,
		logger:      logger.Named("contextio"),
	}, nil
}

func (c *Client) settings() settings {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return settings{
		key:         c.key,
		secret:      c.secret,
		apiVersion:  c.apiVersion,
		secure:      c.secure,
		authHeaders: c.authHeaders,
		saveHeaders: c.saveHeaders,
		endpoint:    c.endpoint,
		maxRetries:  c.maxRetries,
		retryDelay:  c.retryDelay,
	}
}

// Secure reports whether calls are made over HTTPS.
func (c *Client) Secure() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.secure
}

// SetSecure selects HTTPS (true, the default) or HTTP (false).
func (c *Client) SetSecure(secure bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.secure = secure
}

// APIVersion returns the API version used in request paths.
func (c *Client) APIVersion() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiVersion
}

// SetAPIVersion sets the API version used in request paths.
func (c *Client) SetAPIVersion(version string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apiVersion = version
}

// AuthHeaders reports whether OAuth parameters are sent as an Authorization
// header rather than query parameters.
func (c *Client) AuthHeaders() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.authHeaders
}

// SetAuthHeaders selects the Authorization header (true) or the query string
// (false, the default) for OAuth parameters.
func (c *Client) SetAuthHeaders(authHeaders bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authHeaders = authHeaders
}

// SaveHeaders reports whether request headers are recorded on responses.
func (c *Client) SaveHeaders() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.saveHeaders
}

// SetSaveHeaders controls whether request headers are recorded on responses.
func (c *Client) SetSaveHeaders(saveHeaders bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saveHeaders = saveHeaders
}

// BuildBaseURL returns the URL every action path is appended to, with a
// trailing slash.
func (c *Client) BuildBaseURL() string {
	return c.settings().baseURL()
}

// BuildURL returns the URL of action.
func (c *Client) BuildURL(action string) string {
	return c.settings().baseURL() + action
}

func (s settings) baseURL() string {
	scheme := "http"
	if s.secure {
		scheme = "https"
	}
	return scheme + "://" + s.endpoint + "/" + s.apiVersion + "/"
}

// BuildQuery appends params to baseURL as a URL-encoded query string, in
// sorted key order. The separator is "?" unless baseURL already has a query.
func BuildQuery(baseURL string, params Params) string {
	if len(params) == 0 {
		return baseURL
	}

	sep := "?"
	if strings.Contains(baseURL, "?") {
		sep = "&"
	}

	return baseURL + sep + params.Values().Encode()
}

// Get issues a GET call. See Call.
func (c *Client) Get(ctx context.Context, account, action string, params Params) (*Response, error) {
	return c.Call(ctx, http.MethodGet, account, action, params)
}

// Post issues a POST call. See Call.
func (c *Client) Post(ctx context.Context, account, action string, params Params) (*Response, error) {
	return c.Call(ctx, http.MethodPost, account, action, params)
}

// GetMany issues one GET call per account, in order. Responses of failed
// calls are nil; their errors are combined in the returned error.
func (c *Client) GetMany(ctx context.Context, accounts []string, action string, params Params) ([]*Response, error) {
	responses := make([]*Response, len(accounts))

	var result *multierror.Error
	for i, account := range accounts {
		resp, err := c.Get(ctx, account, action, params)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("account %s: %w", account, err))
			continue
		}
		responses[i] = resp
	}

	return responses, result.ErrorOrNil()
}

// Call sends a signed request for action and returns the response.
//
// A non-empty account is added to params as "account". GET calls carry params
// in the query string; POST calls send them as a form-encoded body. params is
// not modified.
//
// The response is returned whenever an HTTP exchange completed, including
// non-200 and non-JSON responses, which are flagged with Response.HasError.
// An error is returned only when no response was obtained.
func (c *Client) Call(ctx context.Context, method, account, action string, params Params) (*Response, error) {
	s := c.settings()

	p := params.Clone()
	if account != "" {
		p["account"] = account
	}

	endpoint := s.baseURL() + action

	var form url.Values
	switch method {
	case http.MethodGet:
		endpoint = BuildQuery(endpoint, p)
	case http.MethodPost:
		form = p.Values()
	default:
		return nil, fmt.Errorf("unsupported method %q", method)
	}

	placement := oauth1.PlacementQuery
	if s.authHeaders {
		placement = oauth1.PlacementHeader
	}

	signer, err := oauth1.NewSigner(oauth1.Config{
		ConsumerKey:    s.key,
		ConsumerSecret: s.secret,
		Placement:      placement,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create signer: %w", err)
	}

	c.logger.Debug("calling API",
		"method", method,
		"action", action,
		"params", len(p),
		"auth_placement", placement.String(),
	)

	start := time.Now()
	attempt := 0

	var resp *Response
	operation := func() error {
		attempt++
		r, err := c.roundTrip(ctx, signer, method, endpoint, form, s.saveHeaders)
		if err != nil {
			return err
		}
		resp = r
		return nil
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("request failed, retrying",
			"action", action,
			"attempt", attempt,
			"wait", wait,
			"error", err,
		)
	}

	if err := backoff.RetryNotify(operation, retryPolicy(ctx, s), notify); err != nil {
		c.logger.Error("request failed",
			"method", method,
			"action", action,
			"attempts", attempt,
			"error", err,
		)
		return nil, fmt.Errorf("%s %s: %w", method, action, err)
	}

	c.logger.Debug("API call completed",
		"action", action,
		"status", resp.StatusCode,
		"content_type", resp.ContentType,
		"has_error", resp.HasError,
		"duration", time.Since(start),
	)

	return resp, nil
}

// retryPolicy retries transport failures up to maxRetries times with
// exponential backoff.
func retryPolicy(ctx context.Context, s settings) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.retryDelay
	b.MaxElapsedTime = 0

	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(s.maxRetries)), ctx)
}

// roundTrip builds, signs and sends one request. Errors that retrying cannot
// fix are marked permanent.
func (c *Client) roundTrip(ctx context.Context, signer *oauth1.Signer, method, endpoint string, form url.Values, saveHeaders bool) (*Response, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("Accept", contentTypeJSON)
	req.Header.Set("User-Agent", UserAgent)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	if err := signer.Sign(req, form); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to sign request: %w", err))
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var requestHeaders http.Header
	if saveHeaders {
		requestHeaders = req.Header.Clone()
	}

	return newResponse(httpResp.StatusCode, requestHeaders, httpResp.Header, respBody), nil
}
