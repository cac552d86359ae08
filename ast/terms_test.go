package ast

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestValidateIRI(t *testing.T) {
	tests := []struct {
		iri   string
		valid bool
	}{
		{"http://www.semanticweb.org/ecotourisme#Hotel_1", true},
		{"https://example.org/a/b?c=d", true},
		{"urn:uuid:8f14e45f-ceea-467f-a0e6-5b2d7f0c1a11", true},
		{"", false},
		{"Hotel_1", false},
		{"/relative/path", false},
		{"http://x.org/a b", false},
		{"http://x.org/a>", false},
		{"http://x.org/{a}", false},
		{"http://x.org/a\nb", false},
		{`http://x.org/a"b`, false},
	}
	for _, tt := range tests {
		t.Run(tt.iri, func(t *testing.T) {
			err := ValidateIRI(tt.iri)
			if (err == nil) != tt.valid {
				t.Errorf("ValidateIRI(%q) error = %v, want valid=%v", tt.iri, err, tt.valid)
			}
			if err != nil {
				var iriErr *InvalidIRIError
				if !errors.As(err, &iriErr) {
					t.Errorf("expected *InvalidIRIError, got %T", err)
				}
			}
			if IsIRI(tt.iri) != tt.valid {
				t.Errorf("IsIRI(%q) = %v", tt.iri, !tt.valid)
			}
		})
	}
}

func TestValidateLocalName(t *testing.T) {
	valid := []string{"Hotel", "emissionCO2PerKm", "_x", "niveau-difficulte"}
	invalid := []string{"", "1abc", "a b", "a#b", "a>b", "é"}
	for _, n := range valid {
		if err := ValidateLocalName(n); err != nil {
			t.Errorf("ValidateLocalName(%q) = %v", n, err)
		}
	}
	for _, n := range invalid {
		err := ValidateLocalName(n)
		var nameErr *InvalidNameError
		if !errors.As(err, &nameErr) {
			t.Errorf("ValidateLocalName(%q) = %v, want *InvalidNameError", n, err)
		}
	}
}

func TestTermFromGo(t *testing.T) {
	name := "Lodge"
	var nilPtr *string
	tests := []struct {
		name    string
		in      any
		want    Term
		wantErr bool
	}{
		{"string", "Train", String("Train"), false},
		{"string pointer", &name, String("Lodge"), false},
		{"int", 3, Integer(3), false},
		{"int64", int64(-7), Integer(-7), false},
		{"uint", uint8(9), Literal{Lexical: "9", Datatype: XSDInteger}, false},
		{"float", 30.0, Decimal(30), false},
		{"float32", float32(0.5), Decimal(0.5), false},
		{"bool", false, Boolean(false), false},
		{"date", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), Date(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)), false},
		{"datetime", time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC), Literal{Lexical: "2025-06-01T10:30:00Z", Datatype: XSDDateTime}, false},
		{"iri passthrough", I(ns + "Paris"), I(ns + "Paris"), false},
		{"literal passthrough", Literal{Lexical: "x", Lang: "fr"}, Literal{Lexical: "x", Lang: "fr"}, false},
		{"nil", nil, nil, true},
		{"nil pointer", nilPtr, nil, true},
		{"nan", math.NaN(), nil, true},
		{"inf", math.Inf(1), nil, true},
		{"unsupported", []int{1}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TermFromGo(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestFormatGoValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"Eco \"Lodge\"", `"Eco \"Lodge\""`},
		{true, "true"},
		{5, `"5"^^xsd:integer`},
		{1.5, `"1.5"^^xsd:decimal`},
		{time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), `"2024-12-31"^^xsd:date`},
		{I(ns + "Paris"), "<" + ns + "Paris>"},
	}
	for _, tt := range tests {
		got, err := FormatGoValue(tt.in)
		if err != nil {
			t.Fatalf("FormatGoValue(%v): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("FormatGoValue(%v) = %s, want %s", tt.in, got, tt.want)
		}
	}
	if _, err := FormatGoValue(I("relative")); err == nil {
		t.Error("expected error for relative IRI")
	}
}

func TestEscapeRoundTrip(t *testing.T) {
	inputs := []string{"plain", `a"b`, `back\slash`, "multi\nline\ttab\r"}
	for _, in := range inputs {
		if got := UnescapeString(EscapeString(in)); got != in {
			t.Errorf("round trip of %q gave %q", in, got)
		}
	}
}
