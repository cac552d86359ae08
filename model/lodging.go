package model

import "github.com/ecotourisme/go-ecosparql/rdfmap"

// Hebergement is any kind of accommodation.
type Hebergement struct {
	rdfmap.Base
	Nom         string   `rdf:"nom"`
	Adresse     string   `rdf:"adresse"`
	PrixNuit    *float64 `rdf:"prixParNuit"`
	Capacite    *int     `rdf:"capacite"`
	NoteMoyenne *float64 `rdf:"noteMoyenne"`
	SitueDans   string   `rdf:"situeDans,ref"`
	// Certifications references CertificationEco instances.
	Certifications []string `rdf:"aCertification,ref"`
	// Energies references EnergieRenouvelable instances.
	Energies  []string `rdf:"utiliseEnergie,ref"`
	Empreinte string   `rdf:"aEmpreinte,ref"`
}

// Hotel is a classic hotel.
type Hotel struct {
	Hebergement
	NombreEtoiles *int  `rdf:"nombreEtoiles"`
	Piscine       *bool `rdf:"aPiscine"`
}

// MaisonHote is a guest house run by its owner.
type MaisonHote struct {
	Hebergement
	Proprietaire        string `rdf:"proprietaire"`
	PetitDejeunerInclus *bool  `rdf:"petitDejeunerInclus"`
}

// Ecolodge is a low-impact lodge built from natural materials.
type Ecolodge struct {
	Hebergement
	AutonomieEnergetique *bool  `rdf:"autonomieEnergetique"`
	MateriauxNaturels    *bool  `rdf:"materiauxNaturels"`
	GestionDechets       string `rdf:"gestionDechets"`
}
