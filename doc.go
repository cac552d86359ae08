// Package ecosparql provides typed CRUD and search over an eco-tourism
// ontology stored in a SPARQL 1.1 triplestore.
//
// Declare ontology classes as Go structs with rdf struct tags, and get
// instance serialization, class-hierarchy aware reads, typed filters, a
// chainable query builder and canned domain reports, with every value
// escaped and every URI validated before it reaches query text.
//
// The module is organized into these packages:
//
//   - [github.com/ecotourisme/go-ecosparql/ast]: SPARQL AST nodes, builders and compiler
//   - [github.com/ecotourisme/go-ecosparql/rdfmap]: struct mapping, class registry, URI minting, hydration
//   - [github.com/ecotourisme/go-ecosparql/model]: the eco-tourism classes and carbon footprint bands
//   - [github.com/ecotourisme/go-ecosparql/driver]: HTTP client for the query and update endpoints
//   - [github.com/ecotourisme/go-ecosparql/triplestore]: the manager, filters, queries, snapshots
//   - [github.com/ecotourisme/go-ecosparql/config]: YAML and environment configuration
//   - [github.com/ecotourisme/go-ecosparql/sparqltest]: an in-memory SPARQL endpoint for tests
//
// The ecosparql command in cmd/ecosparql exposes the manager to operators.
package ecosparql
