package rdfmap

import (
	"errors"
	"testing"
	"time"

	"github.com/ecotourisme/go-ecosparql/ast"
	"github.com/google/go-cmp/cmp"
)

func lit(prop, value, datatype string) Property {
	return Property{Predicate: testNS + prop, Value: value, Datatype: datatype}
}

func ref(prop, iri string) Property {
	return Property{Predicate: testNS + prop, Value: iri, IsIRI: true}
}

func typ(class string) Property {
	return Property{Predicate: ast.RDFType, Value: testNS + class, IsIRI: true}
}

func TestFactory_Hydrate(t *testing.T) {
	registerFixtures(t)
	f := newTestFactory(t)

	uri := testNS + "Gite_3"
	props := []Property{
		typ("Gite"), typ("Lieu"),
		lit("id", "3", ast.XSDInteger),
		lit("nom", "Refuge", ast.XSDString),
		lit("altitude", "1800", ast.XSDInteger),
		lit("surface", "30", ast.XSDDecimal),
		lit("protege", "true", ast.XSDBoolean),
		ref("voisin", testNS+"Lieu_1"),
		ref("voisin", testNS+"Lieu_2"),
		ref("voisin", testNS+"Lieu_1"),
		ref("region", testNS+"Alpes"),
		lit("chambres", "4.0", ast.XSDDecimal),
		lit("ouverture", "2025-05-01", ast.XSDDate),
		lit("miseAJour", "2025-05-01T10:00:00Z", ast.XSDDateTime),
		lit("inconnu", "ignored", ""),
		{Predicate: "http://other.org/nom", Value: "foreign"},
	}

	g, err := HydrateNew[Gite](f, uri, props)
	if err != nil {
		t.Fatalf("HydrateNew: %v", err)
	}

	want := &Gite{
		Lieu: Lieu{
			Nom:      "Refuge",
			Altitude: ptr(1800),
			Surface:  ptr(30.0),
			Protege:  ptr(true),
			Voisins:  []string{testNS + "Lieu_1", testNS + "Lieu_2"},
			Region:   testNS + "Alpes",
		},
		Chambres:  ptr(4),
		Ouverture: ptr(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)),
		MiseAJour: ptr(time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)),
	}
	_ = want.SetURI(uri)
	want.SetID(3)

	opts := cmp.Options{cmp.AllowUnexported(Base{}, Lieu{})}
	if diff := cmp.Diff(want, g, opts); diff != "" {
		t.Errorf("hydrated mismatch (-want +got):\n%s", diff)
	}
}

func TestFactory_HydrateRoundTrip(t *testing.T) {
	registerFixtures(t)
	f := newTestFactory(t)

	orig := &Lieu{Nom: "Lac \"Bleu\"", Altitude: ptr(900), Voisins: []string{testNS + "Lieu_7"}}
	triples, err := f.Triples(orig)
	if err != nil {
		t.Fatal(err)
	}

	var props []Property
	for _, tr := range triples {
		p := Property{}
		switch pred := tr.Predicate.(type) {
		case ast.TypeKeyword:
			p.Predicate = ast.RDFType
		case ast.IRI:
			p.Predicate = pred.Value
		}
		switch o := tr.Object.(type) {
		case ast.IRI:
			p.Value, p.IsIRI = o.Value, true
		case ast.Literal:
			p.Value, p.Datatype = o.Lexical, o.Datatype
		}
		props = append(props, p)
	}

	got, err := f.HydrateAny(orig.GetURI(), props)
	if err != nil {
		t.Fatalf("HydrateAny: %v", err)
	}
	l, ok := got.(*Lieu)
	if !ok {
		t.Fatalf("expected *Lieu, got %T", got)
	}
	if diff := cmp.Diff(orig, l, cmp.AllowUnexported(Base{}, Lieu{})); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestFactory_HydrateAnyPicksMostSpecific(t *testing.T) {
	registerFixtures(t)
	f := newTestFactory(t)

	got, err := f.HydrateAny(testNS+"x", []Property{typ("Lieu"), typ("Gite"), lit("chambres", "2", ast.XSDInteger)})
	if err != nil {
		t.Fatal(err)
	}
	g, ok := got.(*Gite)
	if !ok {
		t.Fatalf("expected *Gite, got %T", got)
	}
	if g.Chambres == nil || *g.Chambres != 2 {
		t.Errorf("Chambres = %v", g.Chambres)
	}
}

func TestFactory_HydrateAnyUnknownType(t *testing.T) {
	registerFixtures(t)
	f := newTestFactory(t)

	_, err := f.HydrateAny(testNS+"x", []Property{typ("Inconnu")})
	var nre *NotRegisteredError
	if !errors.As(err, &nre) {
		t.Fatalf("expected NotRegisteredError, got %v", err)
	}
}

func TestFactory_HydrateErrors(t *testing.T) {
	registerFixtures(t)
	f := newTestFactory(t)

	tests := []struct {
		name  string
		prop  Property
		field string
	}{
		{"bad integer", lit("altitude", "haut", ast.XSDInteger), "Altitude"},
		{"fractional integer", lit("altitude", "1.5", ast.XSDDecimal), "Altitude"},
		{"bad boolean", lit("protege", "oui", ast.XSDBoolean), "Protege"},
		{"bad decimal", lit("surface", "grand", ast.XSDDecimal), "Surface"},
		{"bad id", lit("id", "x", ast.XSDInteger), "id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := HydrateNew[Lieu](f, testNS+"l", []Property{tt.prop})
			var he *HydrationError
			if !errors.As(err, &he) {
				t.Fatalf("expected HydrationError, got %v", err)
			}
			if he.Field != tt.field {
				t.Errorf("Field = %q, want %q", he.Field, tt.field)
			}
		})
	}

	gite := &Gite{}
	err := f.Hydrate(gite, testNS+"g", []Property{lit("ouverture", "demain", ast.XSDDate)})
	var he *HydrationError
	if !errors.As(err, &he) || he.Field != "Ouverture" {
		t.Fatalf("expected HydrationError on Ouverture, got %v", err)
	}
}

func TestFactory_HydrateKeepsURI(t *testing.T) {
	registerFixtures(t)
	f := newTestFactory(t)

	l := &Lieu{}
	_ = l.SetURI(testNS + "a")
	if err := f.Hydrate(l, testNS+"b", nil); !errors.Is(err, ErrURIAssigned) {
		t.Fatalf("expected ErrURIAssigned, got %v", err)
	}
}
