package rdfmap

import (
	"errors"
	"reflect"
	"testing"

	"github.com/ecotourisme/go-ecosparql/ast"
	"github.com/google/go-cmp/cmp"
)

func TestParseTag(t *testing.T) {
	tests := []struct {
		tag     string
		want    FieldTag
		wantErr bool
	}{
		{tag: "nom", want: FieldTag{Name: "nom"}},
		{tag: "voisin,ref", want: FieldTag{Name: "voisin", Ref: true}},
		{tag: "maj, datetime", want: FieldTag{Name: "maj", DateTime: true}},
		{tag: "-", want: FieldTag{Skip: true}},
		{tag: "", want: FieldTag{}},
		{tag: ",ref", wantErr: true},
		{tag: "x,unknown", wantErr: true},
		{tag: "x,ref,datetime", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			got, err := ParseTag(tt.tag)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestExtractClassInfo_Root(t *testing.T) {
	info, err := ExtractClassInfo(reflect.TypeOf(Lieu{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Name != "Lieu" || info.Parent != "" || len(info.Ancestors) != 0 {
		t.Errorf("unexpected class %+v", info)
	}

	var props []string
	for _, f := range info.Fields {
		props = append(props, f.Property())
	}
	want := []string{"nom", "altitude", "surface", "protege", "voisin", "region"}
	if diff := cmp.Diff(want, props); diff != "" {
		t.Errorf("properties mismatch (-want +got):\n%s", diff)
	}

	nom, _ := info.FieldByProperty("nom")
	if nom.Datatype != ast.XSDString || nom.IsPointer {
		t.Errorf("nom: %+v", nom)
	}
	alt, _ := info.FieldByProperty("altitude")
	if alt.Datatype != ast.XSDInteger || !alt.IsPointer || alt.ElemType.Kind() != reflect.Int {
		t.Errorf("altitude: %+v", alt)
	}
	surf, _ := info.FieldByName("Surface")
	if surf.Datatype != ast.XSDDecimal {
		t.Errorf("surface datatype = %s", surf.Datatype)
	}
	voisin, _ := info.FieldByProperty("voisin")
	if !voisin.IsRef() || !voisin.IsSlice || voisin.Datatype != "" {
		t.Errorf("voisin: %+v", voisin)
	}
}

func TestExtractClassInfo_Subclass(t *testing.T) {
	info, err := ExtractClassInfo(reflect.TypeOf(&Gite{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Parent != "Lieu" {
		t.Errorf("Parent = %q, want Lieu", info.Parent)
	}
	if diff := cmp.Diff([]string{"Gite", "Lieu"}, info.Types()); diff != "" {
		t.Errorf("types mismatch (-want +got):\n%s", diff)
	}
	if !info.IsA("Lieu") || info.IsA("Mesure") {
		t.Error("IsA mismatch")
	}

	nom, ok := info.FieldByProperty("nom")
	if !ok {
		t.Fatal("inherited field nom missing")
	}
	if diff := cmp.Diff([]int{0, 1}, nom.Index); diff != "" {
		t.Errorf("inherited index mismatch (-want +got):\n%s", diff)
	}
	if info.Fields[0].Property() != "nom" {
		t.Errorf("parent fields should come first, got %s", info.Fields[0].Property())
	}

	ouv, _ := info.FieldByProperty("ouverture")
	if ouv.Datatype != ast.XSDDate {
		t.Errorf("ouverture datatype = %s", ouv.Datatype)
	}
	maj, _ := info.FieldByProperty("miseAJour")
	if maj.Datatype != ast.XSDDateTime {
		t.Errorf("miseAJour datatype = %s", maj.Datatype)
	}
}

type noBase struct {
	Nom string `rdf:"nom"`
}

type badRef struct {
	Base
	Ref *string `rdf:"ref,ref"`
}

type badType struct {
	Base
	Data map[string]int `rdf:"data"`
}

type badName struct {
	Base
	Nom string `rdf:"n o m"`
}

type dupProp struct {
	Base
	A string `rdf:"nom"`
	B string `rdf:"nom"`
}

type reservedID struct {
	Base
	ID int `rdf:"id"`
}

type badDateTime struct {
	Base
	N *int `rdf:"n,datetime"`
}

func TestExtractClassInfo_Errors(t *testing.T) {
	tests := []struct {
		name string
		typ  reflect.Type
	}{
		{"no base", reflect.TypeOf(noBase{})},
		{"pointer ref", reflect.TypeOf(badRef{})},
		{"unsupported type", reflect.TypeOf(badType{})},
		{"invalid property name", reflect.TypeOf(badName{})},
		{"duplicate property", reflect.TypeOf(dupProp{})},
		{"reserved id", reflect.TypeOf(reservedID{})},
		{"datetime on int", reflect.TypeOf(badDateTime{})},
		{"not a struct", reflect.TypeOf(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractClassInfo(tt.typ)
			var tagErr *TagError
			if !errors.As(err, &tagErr) {
				t.Fatalf("expected *TagError, got %T: %v", err, err)
			}
		})
	}
}

func TestRegister(t *testing.T) {
	registerFixtures(t)

	info, ok := Lookup("Gite")
	if !ok {
		t.Fatal("expected to find Gite")
	}
	info2, ok := LookupType(reflect.TypeOf(&Gite{}))
	if !ok {
		t.Fatal("expected to find Gite by type")
	}
	if info != info2 {
		t.Error("expected same ClassInfo from both lookups")
	}

	// Re-registering same type should succeed (idempotent)
	if err := Register[Gite](); err != nil {
		t.Fatalf("duplicate register: %v", err)
	}
}

func TestRegister_Invalid(t *testing.T) {
	ClearRegistry()
	if err := Register[noBase](); err == nil {
		t.Fatal("expected error")
	}
	if _, ok := Lookup("noBase"); ok {
		t.Error("invalid type should not be registered")
	}
}

func TestClassOf(t *testing.T) {
	registerFixtures(t)
	info, err := ClassOf(&Gite{})
	if err != nil || info.Name != "Gite" {
		t.Fatalf("ClassOf = %v, %v", info, err)
	}

	ClearRegistry()
	_, err = ClassOf(&Gite{})
	var nre *NotRegisteredError
	if !errors.As(err, &nre) || nre.TypeName != "Gite" {
		t.Fatalf("expected NotRegisteredError for Gite, got %v", err)
	}
}

func TestRegisteredClassesAndSubclasses(t *testing.T) {
	registerFixtures(t)

	var names []string
	for _, c := range RegisteredClasses() {
		names = append(names, c.Name)
	}
	if diff := cmp.Diff([]string{"Gite", "Lieu", "Mesure", "Trajet"}, names); diff != "" {
		t.Errorf("classes mismatch (-want +got):\n%s", diff)
	}

	subs := SubclassesOf("Lieu")
	if len(subs) != 1 || subs[0].Name != "Gite" {
		t.Errorf("SubclassesOf(Lieu) = %v", subs)
	}
}

func TestMostSpecific(t *testing.T) {
	registerFixtures(t)
	tests := []struct {
		names []string
		want  string
		ok    bool
	}{
		{[]string{"Lieu", "Gite"}, "Gite", true},
		{[]string{"Gite", "Lieu", "Unknown"}, "Gite", true},
		{[]string{"Mesure", "MesureFaible"}, "Mesure", true},
		{[]string{"Lieu", "Mesure"}, "Lieu", true},
		{[]string{"Unknown"}, "", false},
		{nil, "", false},
	}
	for _, tt := range tests {
		got, ok := MostSpecific(tt.names)
		if ok != tt.ok {
			t.Errorf("MostSpecific(%v) ok = %v", tt.names, ok)
			continue
		}
		if ok && got.Name != tt.want {
			t.Errorf("MostSpecific(%v) = %s, want %s", tt.names, got.Name, tt.want)
		}
	}
}

func TestBaseSetURI(t *testing.T) {
	var b Base
	if err := b.SetURI(testNS + "a"); err != nil {
		t.Fatal(err)
	}
	if err := b.SetURI(testNS + "a"); err != nil {
		t.Errorf("same URI should be accepted: %v", err)
	}
	if err := b.SetURI(testNS + "b"); !errors.Is(err, ErrURIAssigned) {
		t.Errorf("expected ErrURIAssigned, got %v", err)
	}
	if b.GetURI() != testNS+"a" {
		t.Errorf("URI changed to %s", b.GetURI())
	}
}
