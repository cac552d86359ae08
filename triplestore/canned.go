package triplestore

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/ecotourisme/go-ecosparql/ast"
	"github.com/ecotourisme/go-ecosparql/driver"
	"github.com/knakk/sparql"
)

//go:embed queries.rq
var cannedQueries string

var queryBank = sparql.LoadBank(strings.NewReader(cannedQueries))

// cannedParams feeds the query templates. Every field except Namespace holds
// compiled SPARQL term text, never raw caller input.
type cannedParams struct {
	Namespace string
	Value     string
	From      string
	To        string
}

// canned renders the named template and runs it.
func (m *Manager) canned(ctx context.Context, name string, p cannedParams) ([]driver.Binding, error) {
	p.Namespace = m.factory.Namespace()
	text, err := queryBank.Prepare(name, p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	bindings, err := m.ExecuteQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return bindings, nil
}

func termText(value any) (string, error) {
	return ast.FormatGoValue(value)
}

// GetEcoHebergements lists lodgings holding at least one eco certification.
// Bindings: s, nom, certification.
func (m *Manager) GetEcoHebergements(ctx context.Context) ([]driver.Binding, error) {
	return m.canned(ctx, "eco-hebergements", cannedParams{})
}

// GetBioProducts lists local products whose bio flag is the boolean true.
// Bindings: s, nom.
func (m *Manager) GetBioProducts(ctx context.Context) ([]driver.Binding, error) {
	return m.canned(ctx, "bio-products", cannedParams{})
}

// GetZeroEmissionTransport lists transports emitting exactly 0.0 g CO2/km.
// Bindings: s, nom, emission.
func (m *Manager) GetZeroEmissionTransport(ctx context.Context) ([]driver.Binding, error) {
	return m.canned(ctx, "zero-emission-transport", cannedParams{})
}

// GetActivitiesByDifficulty lists activities of the given difficulty level.
// Bindings: s, nom, niveau.
func (m *Manager) GetActivitiesByDifficulty(ctx context.Context, level int) ([]driver.Binding, error) {
	v, err := termText(level)
	if err != nil {
		return nil, err
	}
	return m.canned(ctx, "activities-by-difficulty", cannedParams{Value: v})
}

// GetEventsByDateRange lists events starting between from and to, both days
// included. Bindings: s, nom, date.
func (m *Manager) GetEventsByDateRange(ctx context.Context, from, to time.Time) ([]driver.Binding, error) {
	f, err := termText(ast.Date(from))
	if err != nil {
		return nil, err
	}
	t, err := termText(ast.Date(to))
	if err != nil {
		return nil, err
	}
	return m.canned(ctx, "events-by-date-range", cannedParams{From: f, To: t})
}

// SearchByName lists subjects whose nom contains term, ignoring case.
// Bindings: s, nom.
func (m *Manager) SearchByName(ctx context.Context, term string) ([]driver.Binding, error) {
	v, err := termText(term)
	if err != nil {
		return nil, err
	}
	return m.canned(ctx, "search-by-name", cannedParams{Value: v})
}

// GetTouristesByDestination lists tourists who visit destination.
// Bindings: s, nom.
func (m *Manager) GetTouristesByDestination(ctx context.Context, destination string) ([]driver.Binding, error) {
	v, err := termText(ast.I(destination))
	if err != nil {
		return nil, err
	}
	return m.canned(ctx, "touristes-by-destination", cannedParams{Value: v})
}

// GetCertifiedEntities lists every subject linked to a named certification.
// Bindings: s, certification, certificationNom.
func (m *Manager) GetCertifiedEntities(ctx context.Context) ([]driver.Binding, error) {
	return m.canned(ctx, "certified-entities", cannedParams{})
}
