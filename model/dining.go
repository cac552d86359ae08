package model

import "github.com/ecotourisme/go-ecosparql/rdfmap"

// Restaurant is a place to eat.
type Restaurant struct {
	rdfmap.Base
	Nom            string   `rdf:"nom"`
	TypeCuisine    string   `rdf:"typeCuisine"`
	Adresse        string   `rdf:"adresse"`
	PrixMoyen      *float64 `rdf:"prixMoyen"`
	SitueDans      string   `rdf:"situeDans,ref"`
	Sert           []string `rdf:"sert,ref"`
	Certifications []string `rdf:"aCertification,ref"`
}

// RestaurantEco is a restaurant committed to local and organic sourcing.
type RestaurantEco struct {
	Restaurant
	PourcentageBio *float64 `rdf:"pourcentageBio"`
	ZeroDechet     *bool    `rdf:"zeroDechet"`
}

// ProduitLocal is a locally made product.
type ProduitLocal struct {
	rdfmap.Base
	Nom       string   `rdf:"nom"`
	Categorie string   `rdf:"categorie"`
	Prix      *float64 `rdf:"prix"`
	// Bio is kept as a pointer so false is stored rather than dropped.
	Bio            *bool    `rdf:"bio"`
	Origine        string   `rdf:"origine"`
	Saison         string   `rdf:"saison"`
	ProduitA       string   `rdf:"produitA,ref"`
	Certifications []string `rdf:"aCertification,ref"`
}
