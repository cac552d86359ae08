package triplestore

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ecotourisme/go-ecosparql/driver"
	"github.com/ecotourisme/go-ecosparql/model"
	"github.com/ecotourisme/go-ecosparql/rdfmap"
	"github.com/ecotourisme/go-ecosparql/sparqltest"
)

const ns = model.DefaultNamespace

// mockEndpoint records the SPARQL text it receives and replays canned
// results.
type mockEndpoint struct {
	mu      sync.Mutex
	queries []string
	updates []string

	results *driver.Results
	err     error
	delay   time.Duration
	// updateErrs are returned by successive updates before falling back to err.
	updateErrs []error

	inflight    atomic.Int32
	maxInflight atomic.Int32
}

func (e *mockEndpoint) Query(_ context.Context, q string) (*driver.Results, error) {
	e.mu.Lock()
	e.queries = append(e.queries, q)
	e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	if e.results == nil {
		return &driver.Results{}, nil
	}
	return e.results, nil
}

func (e *mockEndpoint) Update(_ context.Context, u string) error {
	n := e.inflight.Add(1)
	defer e.inflight.Add(-1)
	for {
		max := e.maxInflight.Load()
		if n <= max || e.maxInflight.CompareAndSwap(max, n) {
			break
		}
	}
	time.Sleep(e.delay)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.updates = append(e.updates, u)
	if len(e.updateErrs) > 0 {
		err := e.updateErrs[0]
		e.updateErrs = e.updateErrs[1:]
		return err
	}
	return e.err
}

func (e *mockEndpoint) lastQuery() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queries) == 0 {
		return ""
	}
	return e.queries[len(e.queries)-1]
}

func (e *mockEndpoint) lastUpdate() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.updates) == 0 {
		return ""
	}
	return e.updates[len(e.updates)-1]
}

func newMockManager(t *testing.T, opts ...Option) (*Manager, *mockEndpoint) {
	t.Helper()
	ep := &mockEndpoint{}
	m, err := New(ep, model.NewFactory(), opts...)
	if err != nil {
		t.Fatal(err)
	}
	return m, ep
}

// newTestManager returns a Manager wired through the HTTP driver to an
// in-memory endpoint.
func newTestManager(t *testing.T, opts ...Option) (*Manager, *sparqltest.Server) {
	t.Helper()
	srv := sparqltest.NewServer(t, sparqltest.WithCredentials("eco", "secret"))
	d, err := driver.Open(srv.QueryURL(), srv.UpdateURL(), driver.WithBasicAuth("eco", "secret"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(d.Close)
	m, err := New(d, model.NewFactory(), opts...)
	if err != nil {
		t.Fatal(err)
	}
	return m, srv
}

func mustCreate(t *testing.T, m *Manager, entities ...rdfmap.Entity) {
	t.Helper()
	for _, e := range entities {
		if err := m.Create(context.Background(), e); err != nil {
			t.Fatalf("Create %T: %v", e, err)
		}
	}
}

// byPredicate indexes property values by predicate IRI.
func byPredicate(values []PropertyValue) map[string][]driver.Value {
	out := make(map[string][]driver.Value)
	for _, pv := range values {
		out[pv.Predicate] = append(out[pv.Predicate], pv.Object)
	}
	return out
}

func lit(value, datatype string) driver.Value {
	return driver.Value{Type: "literal", Value: value, Datatype: datatype}
}

func iri(value string) driver.Value {
	return driver.Value{Type: "uri", Value: value}
}
