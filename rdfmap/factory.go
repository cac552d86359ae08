package rdfmap

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/ecotourisme/go-ecosparql/ast"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IDProperty is the property local name carrying the numeric identifier.
const IDProperty = "id"

// IDAllocator hands out numeric identifiers for new instances of a class.
type IDAllocator interface {
	Next(class string) int64
}

// URIMinter builds the IRI of a new instance.
type URIMinter interface {
	MintURI(namespace, class string, id int64) string
}

// Sequence is an in-memory IDAllocator with one monotonic counter per class.
// The zero value is ready to use and safe for concurrent use.
type Sequence struct {
	mu   sync.Mutex
	last map[string]int64
}

// Next returns the next identifier for class, starting at 1.
func (s *Sequence) Next(class string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		s.last = make(map[string]int64)
	}
	s.last[class]++
	return s.last[class]
}

// Seed makes the next identifier for class at least n+1. It never moves a
// counter backwards.
func (s *Sequence) Seed(class string, n int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		s.last = make(map[string]int64)
	}
	if n > s.last[class] {
		s.last[class] = n
	}
}

// Reset forgets every counter.
func (s *Sequence) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = nil
}

// SequentialMinter mints <namespace><Class>_<id>.
type SequentialMinter struct{}

// MintURI implements URIMinter.
func (SequentialMinter) MintURI(namespace, class string, id int64) string {
	return namespace + class + "_" + strconv.FormatInt(id, 10)
}

// UUIDMinter mints <namespace><Class>_<uuid>, which stays unique across
// processes sharing a store.
type UUIDMinter struct{}

// MintURI implements URIMinter.
func (UUIDMinter) MintURI(namespace, class string, _ int64) string {
	return namespace + class + "_" + uuid.NewString()
}

// URIFromName derives an instance IRI from a human-readable name: whitespace
// becomes underscores and characters that are not letters, digits, '_' or '-'
// are dropped.
func URIFromName(namespace, name string) string {
	var b strings.Builder
	b.WriteString(namespace)
	for _, r := range strings.TrimSpace(name) {
		switch {
		case unicode.IsSpace(r):
			b.WriteByte('_')
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Factory allocates identities for entities in one namespace and renders them
// as triples. A Factory is safe for concurrent use if its allocator is.
type Factory struct {
	namespace string
	ids       IDAllocator
	minter    URIMinter
	logger    *zap.Logger
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithIDAllocator replaces the default in-memory Sequence.
func WithIDAllocator(a IDAllocator) FactoryOption {
	return func(f *Factory) { f.ids = a }
}

// WithURIMinter replaces the default SequentialMinter.
func WithURIMinter(m URIMinter) FactoryOption {
	return func(f *Factory) { f.minter = m }
}

// WithLogger sets the logger used to report skipped values.
func WithLogger(l *zap.Logger) FactoryOption {
	return func(f *Factory) { f.logger = l }
}

// NewFactory creates a Factory for namespace, which must be an absolute IRI
// ending in '#' or '/'.
func NewFactory(namespace string, opts ...FactoryOption) (*Factory, error) {
	if err := ast.ValidateIRI(namespace); err != nil {
		return nil, fmt.Errorf("namespace: %w", err)
	}
	if !strings.HasSuffix(namespace, "#") && !strings.HasSuffix(namespace, "/") {
		return nil, fmt.Errorf("namespace %q must end with '#' or '/'", namespace)
	}
	f := &Factory{
		namespace: namespace,
		ids:       &Sequence{},
		minter:    SequentialMinter{},
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// MustNewFactory is like NewFactory but panics on error.
func MustNewFactory(namespace string, opts ...FactoryOption) *Factory {
	f, err := NewFactory(namespace, opts...)
	if err != nil {
		panic(err)
	}
	return f
}

// Namespace returns the namespace IRI.
func (f *Factory) Namespace() string { return f.namespace }

// ClassIRI returns the IRI of a class local name.
func (f *Factory) ClassIRI(name string) string { return f.namespace + name }

// PropertyIRI returns the IRI of a property local name.
func (f *Factory) PropertyIRI(name string) string { return f.namespace + name }

// LocalName strips the namespace from iri. ok is false for IRIs outside it.
func (f *Factory) LocalName(iri string) (name string, ok bool) {
	if !strings.HasPrefix(iri, f.namespace) || len(iri) == len(f.namespace) {
		return "", false
	}
	return iri[len(f.namespace):], true
}

// Assign gives e an identifier and a URI if it has none. Existing values are
// kept, so a pre-assigned URI survives.
func (f *Factory) Assign(e Entity) error {
	info, err := ClassOf(e)
	if err != nil {
		return err
	}
	if e.GetID() == 0 {
		e.SetID(f.ids.Next(info.Name))
	}
	if e.GetURI() == "" {
		if err := e.SetURI(f.minter.MintURI(f.namespace, info.Name, e.GetID())); err != nil {
			return err
		}
	}
	if err := ast.ValidateIRI(e.GetURI()); err != nil {
		return fmt.Errorf("%s: %w", info.Name, err)
	}
	return nil
}

// AssignNamed is like Assign but derives the URI from a human-readable name.
func (f *Factory) AssignNamed(e Entity, name string) error {
	uri := URIFromName(f.namespace, name)
	if uri == f.namespace {
		return fmt.Errorf("assign: name %q has no usable characters", name)
	}
	if e.GetURI() == "" {
		if err := e.SetURI(uri); err != nil {
			return err
		}
	}
	return f.Assign(e)
}
