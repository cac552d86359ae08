package model

import (
	"time"

	"github.com/ecotourisme/go-ecosparql/rdfmap"
)

// Activity difficulty levels.
const (
	DifficulteFacile    = 1
	DifficulteModeree   = 2
	DifficulteDifficile = 3
	DifficulteExpert    = 4
)

// Activite is a guided or self-guided outdoor activity.
type Activite struct {
	rdfmap.Base
	Nom          string   `rdf:"nom"`
	Description  string   `rdf:"description"`
	TypeActivite string   `rdf:"typeActivite"`
	// NiveauDifficulte ranges from DifficulteFacile to DifficulteExpert.
	NiveauDifficulte *int     `rdf:"niveauDifficulte"`
	DureeHeures      *float64 `rdf:"duree"`
	Prix             *float64 `rdf:"prix"`
	SeDerouleDans    string   `rdf:"seDerouleDans,ref"`
	EstGuidePar      string   `rdf:"estGuidePar,ref"`
	Empreinte        string   `rdf:"aEmpreinte,ref"`
}

// Evenement is a dated event at a destination.
type Evenement struct {
	rdfmap.Base
	Nom          string     `rdf:"nom"`
	Description  string     `rdf:"description"`
	DateDebut    *time.Time `rdf:"dateDebut"`
	DateFin      *time.Time `rdf:"dateFin"`
	Prix         *float64   `rdf:"prix"`
	Capacite     *int       `rdf:"capacite"`
	SeDerouleA   string     `rdf:"seDerouleA,ref"`
	Organisateur string     `rdf:"organisePar,ref"`
}
