package driver

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds each call when no timeout option is given.
const DefaultTimeout = 30 * time.Second

// Option configures a Driver.
type Option func(*Driver)

// WithBasicAuth sets the HTTP BASIC credentials sent to both endpoints.
func WithBasicAuth(username, password string) Option {
	return func(d *Driver) {
		d.username = username
		d.password = password
	}
}

// WithTimeout sets the per-call timeout. Zero disables it, leaving only the
// caller's context to bound the call.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Driver) {
		d.timeout = timeout
	}
}

// WithHTTPClient replaces the HTTP client. The client's own Timeout still
// applies in addition to the per-call timeout.
func WithHTTPClient(client *http.Client) Option {
	return func(d *Driver) {
		if client != nil {
			d.client = client
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Driver) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithMetrics records request counts and latencies in m.
func WithMetrics(m *Metrics) Option {
	return func(d *Driver) {
		d.metrics = m
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(d *Driver) {
		d.userAgent = ua
	}
}
