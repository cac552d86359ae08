package model

import "github.com/ecotourisme/go-ecosparql/rdfmap"

// Destination is a travel destination: a town, region or site.
type Destination struct {
	rdfmap.Base
	Nom         string   `rdf:"nom"`
	Pays        string   `rdf:"pays"`
	Region      string   `rdf:"region"`
	Description string   `rdf:"description"`
	Climat      string   `rdf:"climat"`
	Latitude    *float64 `rdf:"latitude"`
	Longitude   *float64 `rdf:"longitude"`
	// Zones lists the natural areas the destination contains.
	Zones []string `rdf:"contientZone,ref"`
}

// ZoneNaturelle is a natural area such as a forest, wetland or reserve.
type ZoneNaturelle struct {
	rdfmap.Base
	Nom          string   `rdf:"nom"`
	TypeZone     string   `rdf:"typeZone"`
	Superficie   *float64 `rdf:"superficie"`
	Protegee     *bool    `rdf:"protegee"`
	Biodiversite string   `rdf:"biodiversite"`
	SitueDans    string   `rdf:"situeDans,ref"`
}

// ParcNational is a protected zone with national park status.
type ParcNational struct {
	ZoneNaturelle
	AnneeCreation *int   `rdf:"anneeCreation"`
	Gestionnaire  string `rdf:"gestionnaire"`
}
