package model

import (
	"fmt"

	"github.com/ecotourisme/go-ecosparql/rdfmap"
)

// Transport is a means of transport serving one or more destinations.
//
// When EmissionCO2PerKm is set and Empreinte is empty, serializing a
// Transport also creates an EmpreinteCarbone companion and points Empreinte
// at it. The generated footprint is kept and emitted again on every later
// serialization, so a preview or a failed insert never leaves Empreinte
// pointing at a footprint that was not written.
type Transport struct {
	rdfmap.Base
	Nom           string `rdf:"nom"`
	TypeTransport string `rdf:"typeTransport"`
	// EmissionCO2PerKm is expressed in grams of CO2 per kilometre.
	EmissionCO2PerKm *float64 `rdf:"emissionCO2PerKm"`
	Capacite         *int     `rdf:"capacite"`
	PrixParKm        *float64 `rdf:"prixParKm"`
	Dessert          []string `rdf:"dessert,ref"`
	Empreinte        string   `rdf:"aEmpreinte,ref"`

	footprint *EmpreinteCarbone
}

// Companions implements rdfmap.CompanionBuilder.
func (t *Transport) Companions(f *rdfmap.Factory) ([]rdfmap.Entity, error) {
	if t.EmissionCO2PerKm == nil {
		return nil, nil
	}
	if fp := t.footprint; fp != nil && t.Empreinte == fp.GetURI() {
		fp.ValeurCO2kg = Ptr(GramsToKilograms(*t.EmissionCO2PerKm))
		fp.Source = t.Nom
		return []rdfmap.Entity{fp}, nil
	}
	if t.Empreinte != "" {
		return nil, nil
	}
	fp := &EmpreinteCarbone{
		ValeurCO2kg: Ptr(GramsToKilograms(*t.EmissionCO2PerKm)),
		Source:      t.Nom,
		Methode:     MethodePerKm,
	}
	if err := f.Assign(fp); err != nil {
		return nil, fmt.Errorf("footprint: %w", err)
	}
	t.footprint = fp
	t.Empreinte = fp.GetURI()
	return []rdfmap.Entity{fp}, nil
}

// Footprint returns the footprint generated by the last serialization, or
// nil when Empreinte was supplied by the caller or loaded from the store.
func (t *Transport) Footprint() *EmpreinteCarbone {
	if t.footprint == nil || t.Empreinte != t.footprint.GetURI() {
		return nil
	}
	return t.footprint
}

// TransportEcologique is a low-emission transport.
type TransportEcologique struct {
	Transport
	Electrique  *bool    `rdf:"electrique"`
	AutonomieKm *float64 `rdf:"autonomieKm"`
}
