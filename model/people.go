package model

import "github.com/ecotourisme/go-ecosparql/rdfmap"

// User is a registered person.
type User struct {
	rdfmap.Base
	Nom       string `rdf:"nom"`
	Prenom    string `rdf:"prenom"`
	Email     string `rdf:"email"`
	Telephone string `rdf:"telephone"`
}

// Touriste is a traveller.
type Touriste struct {
	User
	Nationalite string   `rdf:"nationalite"`
	Budget      *float64 `rdf:"budget"`
	Preferences string   `rdf:"preferences"`
	// Visite references visited Destination instances.
	Visite   []string `rdf:"visite,ref"`
	Reserve  []string `rdf:"reserve,ref"`
	Pratique []string `rdf:"pratique,ref"`
}

// Guide is a local guide.
type Guide struct {
	User
	Langues          string `rdf:"langues"`
	Specialite       string `rdf:"specialite"`
	AnneesExperience *int   `rdf:"anneesExperience"`
	Certifie         *bool  `rdf:"certifie"`
	TravailleA       string `rdf:"travailleA,ref"`
}
