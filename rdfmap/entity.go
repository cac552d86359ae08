// Package rdfmap provides reflection-based mapping between Go structs and RDF
// resources: class metadata, identity allocation, triple serialization and
// hydration from query results.
package rdfmap

import (
	"errors"
	"fmt"
)

// ErrURIAssigned is returned when an entity that already has a URI is given
// a different one.
var ErrURIAssigned = errors.New("rdfmap: URI already assigned")

// Entity is the marker interface for mapped RDF resources.
// Structs that represent ontology classes satisfy it by embedding Base,
// directly or through a parent class struct.
type Entity interface {
	entity()
	// GetID returns the numeric identifier of the instance, 0 if unassigned.
	GetID() int64
	// SetID assigns the numeric identifier.
	SetID(id int64)
	// GetURI returns the absolute IRI of the instance, empty if unassigned.
	GetURI() string
	// SetURI assigns the IRI. Once set it cannot be changed.
	SetURI(uri string) error
}

// Base is the embeddable identity of every mapped class.
//
// Example usage:
//
//	type Destination struct {
//	    rdfmap.Base
//	    Nom  string `rdf:"nom"`
//	}
//
//	type Ville struct {
//	    Destination
//	    Population *int `rdf:"population"`
//	}
type Base struct {
	id  int64
	uri string
}

func (*Base) entity() {}

// GetID returns the numeric identifier.
func (b *Base) GetID() int64 { return b.id }

// SetID sets the numeric identifier.
func (b *Base) SetID(id int64) { b.id = id }

// GetURI returns the resource IRI.
func (b *Base) GetURI() string { return b.uri }

// SetURI sets the resource IRI. Setting the same value again is a no-op.
func (b *Base) SetURI(uri string) error {
	if b.uri != "" && b.uri != uri {
		return fmt.Errorf("%w: %s", ErrURIAssigned, b.uri)
	}
	b.uri = uri
	return nil
}
