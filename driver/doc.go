// Package driver provides SPARQL 1.1 protocol connectivity over HTTP.
//
// A Driver holds two endpoints, one for SELECT/ASK queries and one for
// updates, and authenticates to both with HTTP BASIC credentials. Query
// responses are decoded from application/sparql-results+json. Every failure
// is returned as an *Error whose Kind separates network, timeout,
// authentication, syntax and store faults.
//
// WithMetrics records request counts, latencies and response sizes in a
// Prometheus registry supplied by the embedding program.
package driver
