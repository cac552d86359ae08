// Package sparqltest provides an in-memory SPARQL endpoint for tests.
//
// It understands the subset of SPARQL 1.1 that the ast compiler emits:
// SELECT with basic graph patterns, FILTER, DISTINCT, COUNT, ORDER BY,
// LIMIT and OFFSET, plus the INSERT DATA, DELETE WHERE, DELETE/INSERT/WHERE
// and CLEAR updates. Triples live in an in-memory SQLite table with set
// semantics. Plain literals are stored as xsd:string.
//
// NewServer exposes a Store over HTTP following the SPARQL 1.1 protocol,
// with optional BASIC authentication and injectable faults:
//
//	srv := sparqltest.NewServer(t, sparqltest.WithCredentials("admin", "pw"))
//	d, _ := driver.Open(srv.QueryURL(), srv.UpdateURL(), driver.WithBasicAuth("admin", "pw"))
package sparqltest
