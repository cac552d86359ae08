package sparqltest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/ecotourisme/go-ecosparql/driver"
)

func TestServer_RoundTripThroughDriver(t *testing.T) {
	srv := NewServer(t, WithCredentials("admin", "pw"))
	d, err := driver.Open(srv.QueryURL(), srv.UpdateURL(), driver.WithBasicAuth("admin", "pw"))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if err := d.Update(ctx, seed); err != nil {
		t.Fatalf("Update: %v", err)
	}
	res, err := d.Query(ctx, `SELECT ?p ?o WHERE { <`+ex+`Hotel_1> ?p ?o } ORDER BY ?p`)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if res.Len() != 5 {
		t.Fatalf("bindings = %d, want 5", res.Len())
	}

	got := map[string]driver.Value{}
	for _, b := range res.Bindings {
		got[b["p"].Value] = b["o"]
	}
	if v := got[ex+"nom"]; v.Type != "literal" || v.Datatype != "" || v.Value != "Les Cimes" {
		t.Errorf("nom = %+v", v)
	}
	if v := got[ex+"prixParNuit"]; v.Datatype != "http://www.w3.org/2001/XMLSchema#decimal" {
		t.Errorf("prixParNuit = %+v", v)
	}
	if v := got[ex+"situeDans"]; v.Type != "uri" || v.Value != ex+"Destination_1" {
		t.Errorf("situeDans = %+v", v)
	}

	reqs := srv.Requests()
	if len(reqs) != 2 || reqs[0].Endpoint != UpdatePath || reqs[0].Status != http.StatusNoContent {
		t.Errorf("requests = %+v", reqs)
	}
	if diff := srv.Updates(); len(diff) != 1 || diff[0] != seed {
		t.Errorf("Updates() = %q", diff)
	}
}

func TestServer_ErrorStatuses(t *testing.T) {
	srv := NewServer(t, WithCredentials("admin", "pw"))
	ctx := context.Background()

	wrong, _ := driver.Open(srv.QueryURL(), srv.UpdateURL(), driver.WithBasicAuth("admin", "nope"))
	if _, err := wrong.Query(ctx, "SELECT * WHERE { ?s ?p ?o }"); !driver.IsKind(err, driver.KindAuth) {
		t.Errorf("expected auth error, got %v", err)
	}

	d, _ := driver.Open(srv.QueryURL(), srv.UpdateURL(), driver.WithBasicAuth("admin", "pw"))
	if err := d.Update(ctx, "INSERT DATA { <"+ex+"a> <"+ex+"p> "); !driver.IsKind(err, driver.KindQuerySyntax) {
		t.Errorf("expected syntax error, got %v", err)
	}

	srv.InjectFault(http.StatusServiceUnavailable, "maintenance")
	err := d.Update(ctx, "CLEAR ALL")
	if !driver.IsKind(err, driver.KindStore) || !strings.Contains(err.Error(), "maintenance") {
		t.Errorf("expected store error carrying body, got %v", err)
	}
	// Faults are one-shot.
	if err := d.Update(ctx, "CLEAR ALL"); err != nil {
		t.Errorf("second update: %v", err)
	}
}

func TestServer_GetQueryAndRawBody(t *testing.T) {
	srv := NewServer(t)
	if err := srv.Store.Update(context.Background(), seed); err != nil {
		t.Fatal(err)
	}
	q := `SELECT ?s WHERE { ?s <` + ex + `bio> true }`

	resp, err := http.Get(srv.QueryURL() + "?query=" + url.QueryEscape(q))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("status %d: %s", resp.StatusCode, b)
	}
	var out jsonResults
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Results.Bindings) != 1 || out.Results.Bindings[0]["s"].Value != ex+"ProduitLocal_1" {
		t.Errorf("bindings = %+v", out.Results.Bindings)
	}

	raw, err := http.Post(srv.QueryURL(), "application/sparql-query", strings.NewReader(q))
	if err != nil {
		t.Fatal(err)
	}
	raw.Body.Close()
	if raw.StatusCode != http.StatusOK {
		t.Errorf("raw body status = %d", raw.StatusCode)
	}

	bad, err := http.Post(srv.UpdateURL(), "text/plain", strings.NewReader("CLEAR ALL"))
	if err != nil {
		t.Fatal(err)
	}
	bad.Body.Close()
	if bad.StatusCode != http.StatusBadRequest {
		t.Errorf("unsupported content type status = %d", bad.StatusCode)
	}
}
