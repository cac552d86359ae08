package sparqltest

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ecotourisme/go-ecosparql/ast"
)

const (
	// QueryPath and UpdatePath are the endpoint paths served.
	QueryPath  = "/query"
	UpdatePath = "/update"
)

// Request records one call received by a Server.
type Request struct {
	// Endpoint is QueryPath or UpdatePath.
	Endpoint string
	// Text is the SPARQL text received.
	Text string
	// Status is the HTTP status returned.
	Status int
}

type fault struct {
	status int
	body   string
}

// Server is an httptest SPARQL endpoint over a Store.
type Server struct {
	// Store holds the data and may be inspected or seeded directly.
	Store *Store

	srv      *httptest.Server
	username string
	password string

	mu       sync.Mutex
	faults   []fault
	requests []Request
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithCredentials requires HTTP BASIC authentication on both endpoints.
func WithCredentials(username, password string) ServerOption {
	return func(s *Server) {
		s.username = username
		s.password = password
	}
}

// NewServer starts a server with an empty store. It is shut down when the
// test finishes.
func NewServer(t testing.TB, opts ...ServerOption) *Server {
	t.Helper()
	store, err := NewStore()
	if err != nil {
		t.Fatalf("sparqltest: %v", err)
	}
	s := &Server{Store: store}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc(QueryPath, s.handleQuery)
	mux.HandleFunc(UpdatePath, s.handleUpdate)
	s.srv = httptest.NewServer(mux)

	t.Cleanup(func() {
		s.srv.Close()
		_ = store.Close()
	})
	return s
}

// URL returns the server base URL.
func (s *Server) URL() string { return s.srv.URL }

// QueryURL returns the query endpoint URL.
func (s *Server) QueryURL() string { return s.srv.URL + QueryPath }

// UpdateURL returns the update endpoint URL.
func (s *Server) UpdateURL() string { return s.srv.URL + UpdatePath }

// InjectFault makes the next request fail with the given status and body.
// Faults queue up and are consumed one per request.
func (s *Server) InjectFault(status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = append(s.faults, fault{status: status, body: body})
}

// Requests returns the requests received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Updates returns the text of every update received so far.
func (s *Server) Updates() []string {
	var out []string
	for _, r := range s.Requests() {
		if r.Endpoint == UpdatePath {
			out = append(out, r.Text)
		}
	}
	return out
}

// ResetRequests forgets the recorded requests.
func (s *Server) ResetRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

func (s *Server) record(endpoint, text string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, Request{Endpoint: endpoint, Text: text, Status: status})
}

func (s *Server) nextFault() (fault, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.faults) == 0 {
		return fault{}, false
	}
	f := s.faults[0]
	s.faults = s.faults[1:]
	return f, true
}

// intercept handles authentication and injected faults. It reports whether
// the response has already been written.
func (s *Server) intercept(w http.ResponseWriter, r *http.Request, endpoint, text string) bool {
	if s.username != "" || s.password != "" {
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.username || pass != s.password {
			w.Header().Set("WWW-Authenticate", `Basic realm="sparqltest"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			s.record(endpoint, text, http.StatusUnauthorized)
			return true
		}
	}
	if f, ok := s.nextFault(); ok {
		w.WriteHeader(f.status)
		_, _ = io.WriteString(w, f.body)
		s.record(endpoint, text, f.status)
		return true
	}
	return false
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	text, err := requestText(r, "query", "application/sparql-query")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if s.intercept(w, r, QueryPath, text) {
		return
	}

	res, err := s.Store.Query(r.Context(), text)
	if err != nil {
		status := errorStatus(err)
		http.Error(w, err.Error(), status)
		s.record(QueryPath, text, status)
		return
	}
	w.Header().Set("Content-Type", "application/sparql-results+json")
	_ = json.NewEncoder(w).Encode(encodeResult(res))
	s.record(QueryPath, text, http.StatusOK)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "updates require POST", http.StatusMethodNotAllowed)
		return
	}
	text, err := requestText(r, "update", "application/sparql-update")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if s.intercept(w, r, UpdatePath, text) {
		return
	}

	if err := s.Store.Update(r.Context(), text); err != nil {
		status := errorStatus(err)
		http.Error(w, err.Error(), status)
		s.record(UpdatePath, text, status)
		return
	}
	w.WriteHeader(http.StatusNoContent)
	s.record(UpdatePath, text, http.StatusNoContent)
}

// requestText extracts the SPARQL text per the SPARQL 1.1 protocol: a GET
// parameter, a form field, or a raw body of the given media type.
func requestText(r *http.Request, field, rawType string) (string, error) {
	if r.Method == http.MethodGet {
		return r.URL.Query().Get(field), nil
	}
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mt {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return "", err
		}
		return r.PostForm.Get(field), nil
	case rawType:
		b, err := io.ReadAll(r.Body)
		return string(b), err
	default:
		return "", errors.New("unsupported content type " + mt)
	}
}

func errorStatus(err error) int {
	var se *SyntaxError
	var ee *EvalError
	if errors.As(err, &se) || errors.As(err, &ee) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

type jsonTerm struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Lang     string `json:"xml:lang,omitempty"`
	Datatype string `json:"datatype,omitempty"`
}

type jsonResults struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []map[string]jsonTerm `json:"bindings"`
	} `json:"results"`
}

func encodeResult(res *Result) jsonResults {
	var out jsonResults
	out.Head.Vars = append([]string{}, res.Vars...)
	out.Results.Bindings = make([]map[string]jsonTerm, 0, len(res.Rows))
	for _, row := range res.Rows {
		b := make(map[string]jsonTerm, len(row))
		for name, t := range row {
			b[name] = encodeTerm(t)
		}
		out.Results.Bindings = append(out.Results.Bindings, b)
	}
	return out
}

func encodeTerm(t Term) jsonTerm {
	if t.Kind == KindIRI {
		return jsonTerm{Type: "uri", Value: t.Value}
	}
	jt := jsonTerm{Type: "literal", Value: t.Value, Lang: t.Lang}
	if t.Datatype != ast.XSDString {
		jt.Datatype = t.Datatype
	}
	return jt
}
