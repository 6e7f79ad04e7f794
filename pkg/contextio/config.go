package contextio

import (
	"fmt"
	"net/http"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/go-hclog"
)

const (
	// DefaultEndpoint is the API host.
	DefaultEndpoint = "api.context.io"

	// DefaultAPIVersion is the API version used when none is configured.
	DefaultAPIVersion = "1.1"

	// DefaultTimeout bounds a single HTTP exchange.
	DefaultTimeout = 30 * time.Second

	// DefaultRetryDelay is the initial delay between transport retries.
	DefaultRetryDelay = 1 * time.Second
)

var hostPattern = regexp.MustCompile(`^[A-Za-z0-9.-]+(:[0-9]+)?$`)

// Config contains configuration for a Client.
type Config struct {
	// ConsumerKey is the OAuth consumer key from the developer console.
	ConsumerKey string `json:"consumerKey"`

	// ConsumerSecret is the OAuth consumer secret.
	ConsumerSecret string `json:"-"` // Don't marshal secret to JSON

	// APIVersion is the path segment selecting the API version.
	// Default: "1.1"
	APIVersion string `json:"apiVersion,omitempty"`

	// Secure selects HTTPS (true) or HTTP (false).
	// Default: true
	Secure *bool `json:"secure,omitempty"`

	// AuthHeaders sends OAuth parameters in the Authorization header instead
	// of the query string.
	AuthHeaders bool `json:"authHeaders,omitempty"`

	// SaveHeaders records the request headers on every Response.
	SaveHeaders bool `json:"saveHeaders,omitempty"`

	// Endpoint is the API host, optionally with a port.
	// Default: "api.context.io"
	Endpoint string `json:"endpoint,omitempty"`

	// Timeout for a single HTTP exchange.
	// Default: 30 seconds
	Timeout time.Duration `json:"timeout,omitempty"`

	// MaxRetries for transport failures. Non-200 responses are never retried.
	// Default: 0
	MaxRetries int `json:"maxRetries,omitempty"`

	// RetryDelay is the initial delay between retries.
	// Default: 1 second
	RetryDelay time.Duration `json:"retryDelay,omitempty"`

	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client `json:"-"`

	// Logger (optional)
	Logger hclog.Logger `json:"-"`
}

// DefaultConfig returns a Config with defaults applied and no credentials.
func DefaultConfig() *Config {
	secure := true
	return &Config{
		APIVersion: DefaultAPIVersion,
		Secure:     &secure,
		Endpoint:   DefaultEndpoint,
		Timeout:    DefaultTimeout,
		RetryDelay: DefaultRetryDelay,
	}
}

// applyDefaults fills unset fields from DefaultConfig.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.APIVersion == "" {
		c.APIVersion = defaults.APIVersion
	}
	if c.Secure == nil {
		c.Secure = defaults.Secure
	}
	if c.Endpoint == "" {
		c.Endpoint = defaults.Endpoint
	}
	if c.Timeout == 0 {
		c.Timeout = defaults.Timeout
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = defaults.RetryDelay
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ConsumerKey, validation.Required),
		validation.Field(&c.ConsumerSecret, validation.Required),
		validation.Field(&c.APIVersion, validation.Required),
		validation.Field(&c.Endpoint,
			validation.Required,
			validation.Match(hostPattern).Error("must be a host name with an optional port"),
		),
		validation.Field(&c.Timeout, validation.Min(0)),
		validation.Field(&c.MaxRetries, validation.Min(0)),
		validation.Field(&c.RetryDelay, validation.Min(0)),
	)
}

// newHTTPClient creates the HTTP client used when none is configured.
func (c *Config) newHTTPClient() *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	return &http.Client{
		Timeout:   c.Timeout,
		Transport: transport,
	}
}

func (c *Config) String() string {
	secure := c.Secure == nil || *c.Secure
	return fmt.Sprintf("Config{endpoint=%s version=%s secure=%t authHeaders=%t}",
		c.Endpoint, c.APIVersion, secure, c.AuthHeaders)
}
