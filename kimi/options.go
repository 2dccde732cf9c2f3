// Package kimi implements an engine for the Kimi conversational-AI web API,
// authenticated with cookies exported from a browser session.
package kimi

import (
	"io"
	"net/http"
	"time"

	"github.com/muran-prog/kimi-go/core"
)

// DefaultBaseURL is the base URL of the Kimi web API.
const DefaultBaseURL = "https://www.kimi.com/api"

// DefaultTimeout bounds non-streaming requests. Streaming requests are not
// subject to it; they live until the stream ends or the context is canceled.
const DefaultTimeout = 45 * time.Second

// Config holds the configuration for an Engine. Use the functional options
// with New rather than constructing it directly.
type Config struct {
	// CookiesPath is the path of a Netscape-format cookie file.
	CookiesPath string

	// CookiesReader, if set, supplies cookie data instead of CookiesPath.
	CookiesReader io.Reader

	// Credentials, if set, bypasses cookie loading entirely.
	Credentials *Credentials

	// BaseURL is the API base URL. Defaults to DefaultBaseURL.
	BaseURL string

	// Proxy is an optional proxy URL for the owned transport.
	Proxy string

	// Timeout bounds non-streaming requests. Defaults to DefaultTimeout.
	Timeout time.Duration

	// Headers are extra headers merged into every request (caller wins).
	Headers http.Header

	// HTTPClient, if set, is used instead of the engine-owned client.
	// Inject a client here to supply a custom transport, e.g. one with
	// browser TLS fingerprinting. The engine never closes an injected
	// client's transport.
	HTTPClient *http.Client

	// Telemetry receives request lifecycle events.
	Telemetry core.TelemetryHook
}

// Option is a functional option for configuring an Engine.
type Option func(*Config)

// WithCookiesFile sets the path of the Netscape-format cookie file.
func WithCookiesFile(path string) Option {
	return func(c *Config) {
		c.CookiesPath = path
	}
}

// WithCookies reads cookie data from r instead of a file.
func WithCookies(r io.Reader) Option {
	return func(c *Config) {
		c.CookiesReader = r
	}
}

// WithCredentials supplies already-loaded credentials.
func WithCredentials(creds *Credentials) Option {
	return func(c *Config) {
		c.Credentials = creds
	}
}

// WithBaseURL sets the API base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithProxy routes requests through the given proxy URL.
func WithProxy(url string) Option {
	return func(c *Config) {
		c.Proxy = url
	}
}

// WithTimeout sets the timeout for non-streaming requests.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithHeaders sets extra headers merged into every request.
func WithHeaders(h http.Header) Option {
	return func(c *Config) {
		c.Headers = h
	}
}

// WithHTTPClient injects a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) {
		c.HTTPClient = client
	}
}

// WithTelemetry sets the telemetry hook.
func WithTelemetry(h core.TelemetryHook) Option {
	return func(c *Config) {
		if h != nil {
			c.Telemetry = h
		}
	}
}
