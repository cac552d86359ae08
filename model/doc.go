// Package model defines the eco-tourism ontology classes as Go structs mapped
// with rdfmap. Subclasses embed their parent struct, so a Hotel serializes
// every Hebergement property and carries both rdf:type assertions.
package model

import "github.com/ecotourisme/go-ecosparql/rdfmap"

// DefaultNamespace is the ontology namespace every class and property IRI
// is built from.
const DefaultNamespace = "http://www.semanticweb.org/ecotourisme#"

// Ptr returns a pointer to v, for filling optional properties.
func Ptr[T any](v T) *T {
	return &v
}

// NewFactory returns an rdfmap.Factory over DefaultNamespace.
func NewFactory(opts ...rdfmap.FactoryOption) *rdfmap.Factory {
	return rdfmap.MustNewFactory(DefaultNamespace, opts...)
}

func init() {
	rdfmap.MustRegister[Destination]()
	rdfmap.MustRegister[ZoneNaturelle]()
	rdfmap.MustRegister[ParcNational]()

	rdfmap.MustRegister[Hebergement]()
	rdfmap.MustRegister[Hotel]()
	rdfmap.MustRegister[MaisonHote]()
	rdfmap.MustRegister[Ecolodge]()

	rdfmap.MustRegister[Transport]()
	rdfmap.MustRegister[TransportEcologique]()

	rdfmap.MustRegister[Restaurant]()
	rdfmap.MustRegister[RestaurantEco]()
	rdfmap.MustRegister[ProduitLocal]()

	rdfmap.MustRegister[Activite]()
	rdfmap.MustRegister[Evenement]()

	rdfmap.MustRegister[User]()
	rdfmap.MustRegister[Touriste]()
	rdfmap.MustRegister[Guide]()

	rdfmap.MustRegister[CertificationEco]()
	rdfmap.MustRegister[EmpreinteCarbone]()
	rdfmap.MustRegister[EmpreinteFaible]()
	rdfmap.MustRegister[EnergieRenouvelable]()
}
