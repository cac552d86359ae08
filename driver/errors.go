package driver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind classifies a failure returned by the driver.
type Kind int

const (
	// KindTransport covers network failures: DNS, refused connections,
	// resets, TLS errors.
	KindTransport Kind = iota + 1
	// KindTimeout is reported when the per-call timeout or the caller's
	// context deadline expires.
	KindTimeout
	// KindAuth is reported when the endpoint rejects the credentials
	// (HTTP 401 or 403).
	KindAuth
	// KindQuerySyntax is reported when the store rejects the SPARQL text
	// (HTTP 400).
	KindQuerySyntax
	// KindStore covers every other non-success status.
	KindStore
	// KindDecode is reported when a query response is not a valid
	// SPARQL JSON result set.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindTimeout:
		return "timeout"
	case KindAuth:
		return "auth"
	case KindQuerySyntax:
		return "query_syntax"
	case KindStore:
		return "store"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is returned by every failing driver call.
type Error struct {
	// Kind classifies the failure.
	Kind Kind
	// Op is "query" or "update".
	Op string
	// Endpoint is the URL that was called.
	Endpoint string
	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int
	// Body is the response body, verbatim, for non-success statuses.
	Body string
	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0 && e.Body != "":
		return fmt.Sprintf("sparql %s: %s error: HTTP %d: %s", e.Op, e.Kind, e.StatusCode, e.Body)
	case e.StatusCode != 0:
		return fmt.Sprintf("sparql %s: %s error: HTTP %d", e.Op, e.Kind, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("sparql %s: %s error: %v", e.Op, e.Kind, e.Err)
	default:
		return fmt.Sprintf("sparql %s: %s error", e.Op, e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of the first *Error in err's chain, or 0 when err
// did not originate in the driver.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}

// IsKind reports whether err carries the given Kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

var (
	// ErrClosed is returned when a call is made on a closed driver.
	ErrClosed = errors.New("driver: closed")
	// ErrEmptyRequest is returned for blank query or update text.
	ErrEmptyRequest = errors.New("driver: empty request")
)

// statusKind maps a non-success HTTP status to its Kind.
func statusKind(code int) Kind {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuth
	case http.StatusBadRequest:
		return KindQuerySyntax
	default:
		return KindStore
	}
}

// transportKind classifies an error returned by http.Client.Do.
func transportKind(ctx context.Context, err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return KindTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return KindTimeout
	}
	return KindTransport
}
