package rdfmap

import (
	"testing"
	"time"
)

const testNS = "http://example.org/eco#"

type Lieu struct {
	Base
	Nom       string   `rdf:"nom"`
	Altitude  *int     `rdf:"altitude"`
	Surface   *float64 `rdf:"surface"`
	Protege   *bool    `rdf:"protege"`
	Voisins   []string `rdf:"voisin,ref"`
	Region    string   `rdf:"region,ref"`
	Ignored   string   `rdf:"-"`
	untracked string
}

type Gite struct {
	Lieu
	Chambres  *int       `rdf:"chambres"`
	Ouverture *time.Time `rdf:"ouverture"`
	MiseAJour *time.Time `rdf:"miseAJour,datetime"`
}

type Mesure struct {
	Base
	Valeur *float64 `rdf:"valeur"`
}

func (m *Mesure) DerivedTypes() []string {
	if m.Valeur != nil && *m.Valeur <= 1 {
		return []string{"MesureFaible"}
	}
	return nil
}

type Trajet struct {
	Base
	Nom     string   `rdf:"nom"`
	Grammes *float64 `rdf:"grammes"`
	AMesure string   `rdf:"aMesure,ref"`
}

func (t *Trajet) Companions(f *Factory) ([]Entity, error) {
	if t.Grammes == nil || t.AMesure != "" {
		return nil, nil
	}
	kg := *t.Grammes / 1000
	m := &Mesure{Valeur: &kg}
	if err := f.Assign(m); err != nil {
		return nil, err
	}
	t.AMesure = m.GetURI()
	return []Entity{m}, nil
}

func registerFixtures(t *testing.T) {
	t.Helper()
	ClearRegistry()
	MustRegister[Lieu]()
	MustRegister[Gite]()
	MustRegister[Mesure]()
	MustRegister[Trajet]()
}

func newTestFactory(t *testing.T, opts ...FactoryOption) *Factory {
	t.Helper()
	f, err := NewFactory(testNS, opts...)
	if err != nil {
		t.Fatalf("NewFactory: %v", err)
	}
	return f
}

func ptr[T any](v T) *T { return &v }
