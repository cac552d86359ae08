package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	opQuery  = "query"
	opUpdate = "update"

	contentTypeForm   = "application/x-www-form-urlencoded"
	contentTypeUpdate = "application/sparql-update; charset=UTF-8"
	acceptResults     = "application/sparql-results+json"

	defaultUserAgent = "go-ecosparql"

	// maxResponseSize caps how much of a response body is read.
	maxResponseSize = 64 << 20
)

// Driver talks to a SPARQL 1.1 store over HTTP. It holds one endpoint for
// queries and one for updates. A Driver is safe for concurrent use.
type Driver struct {
	queryURL  string
	updateURL string
	username  string
	password  string
	timeout   time.Duration
	userAgent string
	client    *http.Client
	logger    *zap.Logger
	metrics   *Metrics

	mu     sync.RWMutex
	closed bool
}

// Open creates a driver for the given query and update endpoint URLs. No
// request is made until the first call.
func Open(queryURL, updateURL string, opts ...Option) (*Driver, error) {
	for _, u := range []string{queryURL, updateURL} {
		if err := validateEndpoint(u); err != nil {
			return nil, err
		}
	}
	d := &Driver{
		queryURL:  queryURL,
		updateURL: updateURL,
		timeout:   DefaultTimeout,
		userAgent: defaultUserAgent,
		client:    &http.Client{},
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

func validateEndpoint(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("driver: invalid endpoint %q: %w", raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("driver: endpoint %q must be an absolute http(s) URL", raw)
	}
	return nil
}

// QueryURL returns the query endpoint.
func (d *Driver) QueryURL() string { return d.queryURL }

// UpdateURL returns the update endpoint.
func (d *Driver) UpdateURL() string { return d.updateURL }

// IsOpen reports whether the driver accepts calls.
func (d *Driver) IsOpen() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return !d.closed
}

// Close releases idle connections. Later calls return ErrClosed.
func (d *Driver) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.closed {
		d.closed = true
		d.client.CloseIdleConnections()
	}
}

// Query sends a SELECT or ASK query to the query endpoint and decodes the
// JSON result set. A query with no solutions returns empty Bindings and a
// nil error. Any 2xx status is accepted.
func (d *Driver) Query(ctx context.Context, query string) (res *Results, err error) {
	start := time.Now()
	var size int
	defer func() { d.record(opQuery, d.queryURL, start, size, err) }()

	form := url.Values{"query": {query}}
	data, err := d.send(ctx, opQuery, d.queryURL, query, form.Encode(), contentTypeForm, isQuerySuccess)
	size = len(data)
	if err != nil {
		return nil, err
	}
	res, err = decodeResults(data)
	if err != nil {
		return nil, &Error{Kind: KindDecode, Op: opQuery, Endpoint: d.queryURL, Err: err}
	}
	return res, nil
}

// Update posts a raw SPARQL update to the update endpoint. Only 200, 201
// and 204 count as success. Updates are never retried.
func (d *Driver) Update(ctx context.Context, update string) (err error) {
	start := time.Now()
	var size int
	defer func() { d.record(opUpdate, d.updateURL, start, size, err) }()

	data, err := d.send(ctx, opUpdate, d.updateURL, update, update, contentTypeUpdate, isUpdateSuccess)
	size = len(data)
	return err
}

func isQuerySuccess(code int) bool {
	return code >= 200 && code < 300
}

func isUpdateSuccess(code int) bool {
	return code == http.StatusOK || code == http.StatusCreated || code == http.StatusNoContent
}

func (d *Driver) send(ctx context.Context, op, endpoint, text, body, contentType string, success func(int) bool) ([]byte, error) {
	if !d.IsOpen() {
		return nil, ErrClosed
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyRequest
	}
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(body))
	if err != nil {
		return nil, &Error{Kind: KindTransport, Op: op, Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", d.userAgent)
	if op == opQuery {
		req.Header.Set("Accept", acceptResults)
	}
	if d.username != "" || d.password != "" {
		req.SetBasicAuth(d.username, d.password)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, &Error{Kind: transportKind(ctx, err), Op: op, Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &Error{Kind: transportKind(ctx, err), Op: op, Endpoint: endpoint, StatusCode: resp.StatusCode, Err: err}
	}
	if !success(resp.StatusCode) {
		return data, &Error{
			Kind:       statusKind(resp.StatusCode),
			Op:         op,
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(data)),
		}
	}
	return data, nil
}

func (d *Driver) record(op, endpoint string, start time.Time, size int, err error) {
	elapsed := time.Since(start)
	if err == nil {
		d.metrics.observe(op, "ok", elapsed, size)
		d.logger.Debug("sparql request",
			zap.String("op", op),
			zap.String("endpoint", endpoint),
			zap.Int("bytes", size),
			zap.Duration("duration", elapsed))
		return
	}

	kind := KindOf(err)
	d.metrics.observe(op, kind.String(), elapsed, size)
	fields := []zap.Field{
		zap.String("op", op),
		zap.String("endpoint", endpoint),
		zap.Stringer("kind", kind),
		zap.Duration("duration", elapsed),
		zap.Error(err),
	}
	var de *Error
	if errors.As(err, &de) && de.StatusCode != 0 {
		fields = append(fields, zap.Int("status", de.StatusCode))
	}
	d.logger.Warn("sparql request failed", fields...)
}
