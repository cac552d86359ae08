package model

import (
	"fmt"
	"time"

	"github.com/ecotourisme/go-ecosparql/rdfmap"
)

// Calculation methods recorded on footprints.
const (
	MethodePerKm    = "emission-par-km"
	MethodeDeclaree = "declaree"
)

// CertificationEco is an environmental label.
type CertificationEco struct {
	rdfmap.Base
	Nom            string     `rdf:"nom"`
	Organisme      string     `rdf:"organisme"`
	Niveau         string     `rdf:"niveau"`
	Criteres       string     `rdf:"criteres"`
	DateObtention  *time.Time `rdf:"dateObtention"`
	DateExpiration *time.Time `rdf:"dateExpiration"`
}

// EmpreinteCarbone is a CO2-equivalent quantity attached to another entity.
// Footprints at or under LowThresholdKg also carry the EmpreinteFaible type.
type EmpreinteCarbone struct {
	rdfmap.Base
	ValeurCO2kg *float64   `rdf:"valeurCO2kg"`
	Source      string     `rdf:"source"`
	Methode     string     `rdf:"methodeCalcul"`
	DateCalcul  *time.Time `rdf:"dateCalcul"`
}

// Category classifies the footprint value. ok is false when it is unset.
func (e *EmpreinteCarbone) Category() (c Category, ok bool) {
	if e.ValeurCO2kg == nil {
		return 0, false
	}
	return Classify(*e.ValeurCO2kg), true
}

// DerivedTypes implements rdfmap.TypeDeriver.
func (e *EmpreinteCarbone) DerivedTypes() []string {
	if c, ok := e.Category(); ok && c <= CategoryLow {
		return []string{"EmpreinteFaible"}
	}
	return nil
}

// EmpreinteFaible is a low footprint. Instances are normally produced by the
// derived type of EmpreinteCarbone; the struct exists so they can be loaded
// and listed as their own class.
type EmpreinteFaible struct {
	EmpreinteCarbone
}

// Validate implements rdfmap.Validator. A value above LowThresholdKg does
// not belong to the low class.
func (e *EmpreinteFaible) Validate() error {
	if c, ok := e.Category(); ok && c > CategoryLow {
		return fmt.Errorf("%v kg is above the low footprint threshold of %v kg (%s)",
			*e.ValeurCO2kg, LowThresholdKg, c.Label())
	}
	return nil
}

// EnergieRenouvelable is a renewable energy installation.
type EnergieRenouvelable struct {
	rdfmap.Base
	Nom           string   `rdf:"nom"`
	TypeEnergie   string   `rdf:"typeEnergie"`
	ProductionKWh *float64 `rdf:"productionKWh"`
	Couverture    *float64 `rdf:"pourcentageCouverture"`
}
