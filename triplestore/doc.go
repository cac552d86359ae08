// Package triplestore is the SPARQL access layer of the eco-tourism store.
//
// A Manager turns entity and record operations into SPARQL built with the
// ast package, sends them through an Endpoint (normally a *driver.Driver)
// and flattens the JSON bindings into Statement, PropertyValue and Resource
// records. Every URI, property name and value is validated or escaped before
// it reaches the query text.
//
// Basic usage:
//
//	d, _ := driver.Open(queryURL, updateURL, driver.WithBasicAuth(user, pass))
//	m, _ := triplestore.New(d, model.NewFactory())
//
//	train := &model.Transport{Nom: "Train", EmissionCO2PerKm: model.Ptr(30.0)}
//	err := m.Create(ctx, train)
//
//	hotels, err := m.Query("Hebergement").
//		Filter(triplestore.Gte("noteMoyenne", 4.0)).
//		OrderAsc("prixParNuit").
//		Limit(10).
//		Execute(ctx)
//
// Writes to the same subject are serialized inside one process unless
// WithWriteLocks(false) is given. Writers in other processes are not
// coordinated; the store's own update atomicity applies per request.
package triplestore
