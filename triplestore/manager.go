package triplestore

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"

	"github.com/ecotourisme/go-ecosparql/ast"
	"github.com/ecotourisme/go-ecosparql/driver"
	"github.com/ecotourisme/go-ecosparql/rdfmap"
	"go.uber.org/zap"
)

// Endpoint is the pair of SPARQL endpoints the manager talks to.
// *driver.Driver implements it.
type Endpoint interface {
	Query(ctx context.Context, query string) (*driver.Results, error)
	Update(ctx context.Context, update string) error
}

var _ Endpoint = (*driver.Driver)(nil)

var (
	varS = ast.V("s")
	varP = ast.V("p")
	varO = ast.V("o")
)

// Manager renders store operations as SPARQL, runs them against an Endpoint
// and normalizes the results. Failures are returned as errors; driver errors
// keep their driver.Kind.
type Manager struct {
	ep       Endpoint
	factory  *rdfmap.Factory
	logger   *zap.Logger
	locks    *keyedLocks
	compiler ast.Compiler
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger for operation tracing.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithWriteLocks enables or disables per-URI write serialization. It is
// enabled by default.
func WithWriteLocks(enabled bool) Option {
	return func(m *Manager) {
		if enabled {
			m.locks = newKeyedLocks()
		} else {
			m.locks = nil
		}
	}
}

// New creates a Manager over ep. The factory provides the namespace and
// serializes entities.
func New(ep Endpoint, factory *rdfmap.Factory, opts ...Option) (*Manager, error) {
	if ep == nil {
		return nil, errors.New("triplestore: endpoint must not be nil")
	}
	if factory == nil {
		return nil, errors.New("triplestore: factory must not be nil")
	}
	m := &Manager{
		ep:      ep,
		factory: factory,
		logger:  zap.NewNop(),
		locks:   newKeyedLocks(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Factory returns the entity factory.
func (m *Manager) Factory() *rdfmap.Factory { return m.factory }

// ExecuteQuery runs a complete SELECT or ASK query and returns its bindings
// verbatim. No matches is an empty slice, never an error.
func (m *Manager) ExecuteQuery(ctx context.Context, query string) ([]driver.Binding, error) {
	res, err := m.ep.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	if res.Bindings == nil {
		return []driver.Binding{}, nil
	}
	return res.Bindings, nil
}

// ExecuteUpdate runs a complete SPARQL update.
func (m *Manager) ExecuteUpdate(ctx context.Context, update string) error {
	return m.ep.Update(ctx, update)
}

func (m *Manager) query(ctx context.Context, op string, node ast.QueryNode) ([]driver.Binding, error) {
	text, err := m.compiler.Compile(node)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	bindings, err := m.ExecuteQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return bindings, nil
}

func (m *Manager) update(ctx context.Context, op string, node ast.QueryNode) error {
	text, err := m.compiler.Compile(node)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := m.ExecuteUpdate(ctx, text); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// lock serializes writers of the given subjects. It is a no-op when write
// locks are disabled.
func (m *Manager) lock(ctx context.Context, uris ...string) (func(), error) {
	if m.locks == nil {
		return func() {}, nil
	}
	return m.locks.lock(ctx, uris...)
}

func (m *Manager) classIRI(name string) (ast.IRI, error) {
	return resolveIRI(m.factory.ClassIRI, name)
}

func (m *Manager) propertyIRI(name string) (ast.IRI, error) {
	return resolveIRI(m.factory.PropertyIRI, name)
}

// Create inserts e, and any companion entity it spawns, in one INSERT DATA.
// Identity is assigned first if missing.
func (m *Manager) Create(ctx context.Context, e rdfmap.Entity) error {
	if e == nil {
		return errors.New("create: entity must not be nil")
	}
	triples, err := m.factory.Triples(e)
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}

	subjects := make([]string, 0, 2)
	for _, t := range triples {
		if iri, ok := t.Subject.(ast.IRI); ok {
			subjects = append(subjects, iri.Value)
		}
	}
	unlock, err := m.lock(ctx, subjects...)
	if err != nil {
		return fmt.Errorf("create %s: %w", e.GetURI(), err)
	}
	defer unlock()

	if err := m.update(ctx, "create "+e.GetURI(), ast.InsertData(triples...)); err != nil {
		return err
	}
	m.logger.Debug("created", zap.String("uri", e.GetURI()), zap.Int("triples", len(triples)))
	return nil
}

// GetByURI returns every predicate/object pair whose subject is uri.
func (m *Manager) GetByURI(ctx context.Context, uri string) ([]PropertyValue, error) {
	if err := ast.ValidateIRI(uri); err != nil {
		return nil, fmt.Errorf("get: %w", err)
	}
	q := ast.Select(varP, varO).WithWhere(ast.Triple(ast.I(uri), varP, varO))
	bindings, err := m.query(ctx, "get "+uri, q)
	if err != nil {
		return nil, err
	}
	out := make([]PropertyValue, 0, len(bindings))
	for _, b := range bindings {
		out = append(out, PropertyValue{Predicate: b["p"].Value, Object: b["o"]})
	}
	return out, nil
}

// GetAll returns every triple of every instance of class, subclasses
// included. Group the result with GroupBySubject for one record per entity.
func (m *Manager) GetAll(ctx context.Context, class string) ([]Statement, error) {
	classIRI, err := m.classIRI(class)
	if err != nil {
		return nil, fmt.Errorf("get all: %w", err)
	}
	q := ast.Select(varS, varP, varO).WithWhere(
		ast.IsA(varS, classIRI),
		ast.Triple(varS, varP, varO),
	)
	bindings, err := m.query(ctx, "get all "+class, q)
	if err != nil {
		return nil, err
	}
	return statements(bindings), nil
}

// Search returns the triples of subjects of class whose properties equal the
// given filter values. An empty class matches any typed subject. Filter keys
// are property local names or absolute IRIs; values are typed as by
// ast.TermFromGo.
func (m *Manager) Search(ctx context.Context, class string, filters map[string]any) ([]Statement, error) {
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fs := make([]Filter, 0, len(keys))
	for _, k := range keys {
		fs = append(fs, Eq(k, filters[k]))
	}

	where, err := m.subjectPatterns(class, fs, newScope(m.factory))
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	q := ast.SelectDistinct(varS, varP, varO).WithWhere(where...).WithWhere(ast.Triple(varS, varP, varO))
	bindings, err := m.query(ctx, "search", q)
	if err != nil {
		return nil, err
	}
	return statements(bindings), nil
}

// subjectPatterns renders the class constraint and filters on ?s.
func (m *Manager) subjectPatterns(class string, filters []Filter, scope *Scope) ([]ast.Pattern, error) {
	var where []ast.Pattern
	if class == "" {
		where = append(where, ast.IsA(varS, ast.V("type")))
	} else {
		classIRI, err := m.classIRI(class)
		if err != nil {
			return nil, err
		}
		where = append(where, ast.IsA(varS, classIRI))
	}
	for _, f := range filters {
		patterns, err := f.Patterns(varS, scope)
		if err != nil {
			return nil, err
		}
		where = append(where, patterns...)
	}
	return where, nil
}

// Update replaces oldValue with newValue on property of uri, only if the
// subject currently holds oldValue. Otherwise nothing is written and a
// *NoMatchError is returned.
func (m *Manager) Update(ctx context.Context, uri, property string, oldValue, newValue any) error {
	if err := ast.ValidateIRI(uri); err != nil {
		return fmt.Errorf("update: %w", err)
	}
	pred, err := m.propertyIRI(property)
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}
	oldTerm, err := ast.TermFromGo(oldValue)
	if err != nil {
		return fmt.Errorf("update %s: old value: %w", uri, err)
	}
	newTerm, err := ast.TermFromGo(newValue)
	if err != nil {
		return fmt.Errorf("update %s: new value: %w", uri, err)
	}

	unlock, err := m.lock(ctx, uri)
	if err != nil {
		return fmt.Errorf("update %s: %w", uri, err)
	}
	defer unlock()

	current := ast.Triple(ast.I(uri), pred, oldTerm)
	n, err := m.count(ctx, "update "+uri, ast.SelectCount(nil, ast.V("n")).WithWhere(current))
	if err != nil {
		return err
	}
	if n == 0 {
		return &NoMatchError{URI: uri, Property: pred.Value}
	}

	replaced := ast.Triple(ast.I(uri), pred, newTerm)
	mod := ast.Modify([]ast.TriplePattern{current}, []ast.TriplePattern{replaced}, current)
	if err := m.update(ctx, "update "+uri, mod); err != nil {
		return err
	}
	m.logger.Debug("updated", zap.String("uri", uri), zap.String("property", pred.Value))
	return nil
}

// UpdateProperty sets property of uri to value, removing every previous
// value, in a single request. With isString the value is written as an
// xsd:string of its default format; otherwise it is typed as by
// ast.TermFromGo.
func (m *Manager) UpdateProperty(ctx context.Context, uri, property string, value any, isString bool) error {
	if err := ast.ValidateIRI(uri); err != nil {
		return fmt.Errorf("update property: %w", err)
	}
	pred, err := m.propertyIRI(property)
	if err != nil {
		return fmt.Errorf("update property: %w", err)
	}
	rv := reflect.ValueOf(value)
	if value == nil || (rv.Kind() == reflect.Ptr && rv.IsNil()) {
		return fmt.Errorf("update property %s: value must not be nil", uri)
	}
	var term ast.Term
	if isString {
		term = ast.TypedString(fmt.Sprint(reflect.Indirect(rv).Interface()))
	} else if term, err = ast.TermFromGo(value); err != nil {
		return fmt.Errorf("update property %s: %w", uri, err)
	}

	unlock, err := m.lock(ctx, uri)
	if err != nil {
		return fmt.Errorf("update property %s: %w", uri, err)
	}
	defer unlock()

	subject := ast.I(uri)
	req := ast.Updates(
		ast.DeleteWhere(ast.Triple(subject, pred, varO)),
		ast.InsertData(ast.Triple(subject, pred, term)),
	)
	if err := m.update(ctx, "update property "+uri, req); err != nil {
		return err
	}
	m.logger.Debug("property set", zap.String("uri", uri), zap.String("property", pred.Value))
	return nil
}

// Delete removes every triple whose subject is uri. Triples of other
// subjects pointing at uri are kept and become dangling references.
func (m *Manager) Delete(ctx context.Context, uri string) error {
	if err := ast.ValidateIRI(uri); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	unlock, err := m.lock(ctx, uri)
	if err != nil {
		return fmt.Errorf("delete %s: %w", uri, err)
	}
	defer unlock()

	if err := m.update(ctx, "delete "+uri, ast.DeleteWhere(ast.Triple(ast.I(uri), varP, varO))); err != nil {
		return err
	}
	m.logger.Debug("deleted", zap.String("uri", uri))
	return nil
}

// DeleteCascade removes uri like Delete and also every triple referring to
// it.
func (m *Manager) DeleteCascade(ctx context.Context, uri string) error {
	if err := ast.ValidateIRI(uri); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	unlock, err := m.lock(ctx, uri)
	if err != nil {
		return fmt.Errorf("delete %s: %w", uri, err)
	}
	defer unlock()

	subject := ast.I(uri)
	req := ast.Updates(
		ast.DeleteWhere(ast.Triple(subject, varP, varO)),
		ast.DeleteWhere(ast.Triple(varS, varP, subject)),
	)
	if err := m.update(ctx, "delete cascade "+uri, req); err != nil {
		return err
	}
	m.logger.Debug("deleted with references", zap.String("uri", uri))
	return nil
}

// DeleteProperty removes every value of property from uri.
func (m *Manager) DeleteProperty(ctx context.Context, uri, property string) error {
	if err := ast.ValidateIRI(uri); err != nil {
		return fmt.Errorf("delete property: %w", err)
	}
	pred, err := m.propertyIRI(property)
	if err != nil {
		return fmt.Errorf("delete property: %w", err)
	}
	unlock, err := m.lock(ctx, uri)
	if err != nil {
		return fmt.Errorf("delete property %s: %w", uri, err)
	}
	defer unlock()

	return m.update(ctx, "delete property "+uri, ast.DeleteWhere(ast.Triple(ast.I(uri), pred, varO)))
}

// Load reads uri and hydrates target with its properties.
func (m *Manager) Load(ctx context.Context, uri string, target rdfmap.Entity) error {
	values, err := m.GetByURI(ctx, uri)
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return &NotFoundError{URI: uri}
	}
	return m.factory.Hydrate(target, uri, toProperties(values))
}

// LoadAny reads uri and hydrates an instance of its most specific
// registered class.
func (m *Manager) LoadAny(ctx context.Context, uri string) (rdfmap.Entity, error) {
	values, err := m.GetByURI(ctx, uri)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, &NotFoundError{URI: uri}
	}
	return m.factory.HydrateAny(uri, toProperties(values))
}

// count runs a single-row COUNT query and returns the ?n value.
func (m *Manager) count(ctx context.Context, op string, q ast.SelectQuery) (int, error) {
	bindings, err := m.query(ctx, op, q)
	if err != nil {
		return 0, err
	}
	if len(bindings) == 0 {
		return 0, nil
	}
	n, err := strconv.Atoi(bindings[0]["n"].Value)
	if err != nil {
		return 0, fmt.Errorf("%s: count: %w", op, err)
	}
	return n, nil
}

func statements(bindings []driver.Binding) []Statement {
	out := make([]Statement, 0, len(bindings))
	for _, b := range bindings {
		out = append(out, Statement{Subject: b["s"].Value, Predicate: b["p"].Value, Object: b["o"]})
	}
	return out
}
