package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ecotourisme/go-ecosparql/ast"
	"github.com/ecotourisme/go-ecosparql/driver"
	"github.com/ecotourisme/go-ecosparql/model"
	"github.com/ecotourisme/go-ecosparql/rdfmap"
	"github.com/ecotourisme/go-ecosparql/sparqltest"
	"github.com/ecotourisme/go-ecosparql/triplestore"
	"github.com/google/go-cmp/cmp"
)

const ns = model.DefaultNamespace

type harness struct {
	t   *testing.T
	srv *sparqltest.Server
	m   *triplestore.Manager
	env map[string]string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv := sparqltest.NewServer(t, sparqltest.WithCredentials("eco", "secret"))
	d, err := driver.Open(srv.QueryURL(), srv.UpdateURL(), driver.WithBasicAuth("eco", "secret"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(d.Close)
	m, err := triplestore.New(d, model.NewFactory())
	if err != nil {
		t.Fatal(err)
	}
	return &harness{
		t:   t,
		srv: srv,
		m:   m,
		env: map[string]string{
			"ECOSPARQL_QUERY_ENDPOINT":  srv.QueryURL(),
			"ECOSPARQL_UPDATE_ENDPOINT": srv.UpdateURL(),
			"ECOSPARQL_USERNAME":        "eco",
			"ECOSPARQL_PASSWORD":        "secret",
			"ECOSPARQL_LOG_LEVEL":       "error",
		},
	}
}

func (h *harness) seed(entities ...rdfmap.Entity) {
	h.t.Helper()
	for _, e := range entities {
		if err := h.m.Create(context.Background(), e); err != nil {
			h.t.Fatal(err)
		}
	}
}

// run executes one CLI invocation and returns its stdout.
func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	var out, errOut bytes.Buffer
	a := &app{
		out:    &out,
		errOut: &errOut,
		lookup: func(k string) (string, bool) {
			v, ok := h.env[k]
			return v, ok
		},
	}
	root := a.rootCmd()
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	if err != nil {
		h.t.Fatalf("ecosparql %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func TestCLI_GetSetUnset(t *testing.T) {
	h := newHarness(t)
	hotel := &model.Hotel{Hebergement: model.Hebergement{Nom: "Les Cimes"}, NombreEtoiles: model.Ptr(3)}
	h.seed(hotel)
	uri := hotel.GetURI()

	out := h.mustRun("get", uri)
	for _, want := range []string{uri, "nom", `"Les Cimes"`, "nombreEtoiles", "<" + ns + "Hotel>"} {
		if !strings.Contains(out, want) {
			t.Errorf("get output lacks %q:\n%s", want, out)
		}
	}

	h.mustRun("set", uri, "nombreEtoiles", "4")
	h.mustRun("set", "--string", uri, "adresse", "12")
	h.mustRun("unset", uri, "nom")

	var got model.Hotel
	if err := h.m.Load(context.Background(), uri, &got); err != nil {
		t.Fatal(err)
	}
	if got.NombreEtoiles == nil || *got.NombreEtoiles != 4 {
		t.Errorf("nombreEtoiles = %v", got.NombreEtoiles)
	}
	if got.Adresse != "12" || got.Nom != "" {
		t.Errorf("adresse = %q, nom = %q", got.Adresse, got.Nom)
	}

	out = h.mustRun("get", "--entity", uri)
	var typed struct {
		URI    string         `json:"uri"`
		Entity map[string]any `json:"entity"`
	}
	if err := json.Unmarshal([]byte(out), &typed); err != nil {
		t.Fatalf("decode %s: %v", out, err)
	}
	if typed.URI != uri || typed.Entity["NombreEtoiles"] != float64(4) {
		t.Errorf("typed get = %+v", typed)
	}

	if _, err := h.run("get", ns+"Hotel_99"); !errors.As(err, new(*triplestore.NotFoundError)) {
		t.Errorf("get missing: err = %v", err)
	}
}

func TestCLI_CompareAndSwap(t *testing.T) {
	h := newHarness(t)
	a := &model.Activite{Nom: "Escalade", NiveauDifficulte: model.Ptr(3)}
	h.seed(a)

	_, err := h.run("update", a.GetURI(), "niveauDifficulte", "2", "4")
	if !errors.As(err, new(*triplestore.NoMatchError)) {
		t.Fatalf("err = %v, want NoMatchError", err)
	}
	h.mustRun("update", a.GetURI(), "niveauDifficulte", "3", "4")

	out := h.mustRun("--json", "find", "Activite", "--where", "niveauDifficulte=4", "--count")
	if strings.TrimSpace(out) != "1" {
		t.Errorf("count = %q", out)
	}
}

func TestCLI_ListFindSearch(t *testing.T) {
	h := newHarness(t)
	dest := &model.Destination{Nom: "Vercors"}
	h.seed(dest)
	h.seed(
		&model.Hebergement{Nom: "Gîte du Lac", PrixNuit: model.Ptr(80.0), SitueDans: dest.GetURI()},
		&model.Ecolodge{Hebergement: model.Hebergement{Nom: "Lodge des Bois", PrixNuit: model.Ptr(140.0)}},
		&model.Hotel{Hebergement: model.Hebergement{Nom: "Hôtel du Parc", PrixNuit: model.Ptr(210.5), SitueDans: dest.GetURI()}},
	)

	out := h.mustRun("list", "Hebergement", "--limit", "10")
	if n := len(strings.Fields(out)); n != 3 {
		t.Errorf("list printed %d URIs:\n%s", n, out)
	}

	out = h.mustRun("--json", "find", "Hebergement", "-w", "prixParNuit>=100", "--order", "prixParNuit", "--desc")
	var res []triplestore.Resource
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode %s: %v", out, err)
	}
	var names []string
	for _, r := range res {
		v, _ := r.Get(ns + "nom")
		names = append(names, v.Value)
	}
	if diff := cmp.Diff([]string{"Hôtel du Parc", "Lodge des Bois"}, names); diff != "" {
		t.Errorf("find order (-want +got):\n%s", diff)
	}

	out = h.mustRun("find", "*", "-w", "nom~VERCORS", "--count")
	if strings.TrimSpace(out) != "1" {
		t.Errorf("wildcard count = %q", out)
	}

	out = h.mustRun("--json", "search", "Hebergement", "situeDans="+dest.GetURI(), "prixParNuit=210.5")
	res = nil
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode %s: %v", out, err)
	}
	if len(res) != 1 || res[0].URI != ns+"Hotel_1" {
		t.Errorf("search = %+v", res)
	}

	if _, err := h.run("find", "Hebergement", "-w", "prix?100"); err == nil {
		t.Error("expected error for a malformed condition")
	}
}

func TestCLI_ReportAndRawSPARQL(t *testing.T) {
	h := newHarness(t)
	h.seed(
		&model.ProduitLocal{Nom: "Miel", Bio: model.Ptr(true)},
		&model.ProduitLocal{Nom: "Fromage", Bio: model.Ptr(false)},
		&model.Evenement{Nom: "Fête de la nature", DateDebut: model.Ptr(time.Date(2024, 5, 22, 0, 0, 0, 0, time.UTC))},
	)

	out := h.mustRun("--json", "report", "bio-products")
	var rows []map[string]string
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode %s: %v", out, err)
	}
	if len(rows) != 1 || rows[0]["nom"] != "Miel" {
		t.Errorf("bio products = %v", rows)
	}

	out = h.mustRun("report", "events", "2024-05-01", "2024-05-31")
	if !strings.Contains(out, "?date") || !strings.Contains(out, "Fête de la nature") {
		t.Errorf("events report:\n%s", out)
	}
	if _, err := h.run("report", "events", "2024-05-01"); err == nil {
		t.Error("expected error for a missing argument")
	}
	if _, err := h.run("report", "unknown"); err == nil {
		t.Error("expected error for an unknown report")
	}

	h.mustRun("exec", "-e", "INSERT DATA { <"+ns+"ProduitLocal_9> <"+ns+"nom> \"Confiture\" . }")
	out = h.mustRun("--json", "query", "-e", "SELECT ?n WHERE { <"+ns+"ProduitLocal_9> <"+ns+"nom> ?n . }")
	rows = nil
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode %s: %v", out, err)
	}
	if diff := cmp.Diff([]map[string]string{{"n": "Confiture"}}, rows); diff != "" {
		t.Errorf("query rows (-want +got):\n%s", diff)
	}

	_, err := h.run("query", "-e", "SELECT ?n WHERE {")
	if !driver.IsKind(err, driver.KindQuerySyntax) {
		t.Errorf("malformed query: err = %v", err)
	}
}

func TestCLI_DeleteCascade(t *testing.T) {
	h := newHarness(t)
	dest := &model.Destination{Nom: "Vercors"}
	h.seed(dest)
	gite := &model.Hebergement{Nom: "Gîte", SitueDans: dest.GetURI()}
	h.seed(gite)

	h.mustRun("delete", "--cascade", dest.GetURI())

	values, err := h.m.GetByURI(context.Background(), gite.GetURI())
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range values {
		if v.Predicate == ns+"situeDans" {
			t.Errorf("reference to the deleted destination remains: %+v", v)
		}
	}
	if _, err := h.run("delete", "not a uri"); !errors.As(err, new(*ast.InvalidIRIError)) {
		t.Errorf("err = %v, want InvalidIRIError", err)
	}
}

func TestCLI_ExportImport(t *testing.T) {
	src := newHarness(t)
	src.seed(&model.Transport{Nom: "Train", EmissionCO2PerKm: model.Ptr(30.0)})
	file := filepath.Join(t.TempDir(), "eco.snapshot")
	src.mustRun("export", "--out", file)

	dst := newHarness(t)
	out := dst.mustRun("import", file)
	if strings.TrimSpace(out) == "0" {
		t.Fatalf("nothing imported")
	}
	n, err := dst.m.Query("Transport").Count(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("transports after import = %d", n)
	}
}

func TestCLI_SyncOntologyAndClassify(t *testing.T) {
	h := newHarness(t)
	if out := h.mustRun("sync-ontology"); strings.TrimSpace(out) == "0" {
		t.Errorf("sync-ontology output %q", out)
	}

	out := h.mustRun("classify", "--grams", "30")
	if !strings.Contains(out, "Low") || !strings.Contains(out, "0.03 kg") {
		t.Errorf("classify output %q", out)
	}
	out = h.mustRun("--json", "classify", "0")
	var got map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatal(err)
	}
	if got["category"] != "Zero emission" || got["color"] != "green" {
		t.Errorf("classify json = %v", got)
	}
	if _, err := h.run("classify", "lots"); err == nil {
		t.Error("expected error for a non-numeric quantity")
	}
}

func TestCLI_ConfigErrors(t *testing.T) {
	h := newHarness(t)
	h.env["ECOSPARQL_TIMEOUT"] = "soon"
	if _, err := h.run("list", "Hotel"); err == nil {
		t.Error("expected error for a bad timeout")
	}
	delete(h.env, "ECOSPARQL_TIMEOUT")

	h.env["ECOSPARQL_PASSWORD"] = "wrong"
	if _, err := h.run("list", "Hotel"); !driver.IsKind(err, driver.KindAuth) {
		t.Errorf("err = %v, want auth failure", err)
	}

	if _, err := h.run("--config", filepath.Join(t.TempDir(), "missing.yaml"), "list", "Hotel"); err == nil {
		t.Error("expected error for a missing config file")
	}
}

func TestCLI_MetricsFile(t *testing.T) {
	h := newHarness(t)
	h.seed(&model.Hotel{Hebergement: model.Hebergement{Nom: "Les Cimes"}})
	path := filepath.Join(t.TempDir(), "ecosparql.prom")
	h.env["ECOSPARQL_METRICS_FILE"] = path

	h.mustRun("list", "Hotel")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("metrics file: %v", err)
	}
	for _, want := range []string{"ecosparql_driver_requests_total{", `outcome="ok"`, "ecosparql_driver_request_duration_seconds"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("metrics lack %q:\n%s", want, data)
		}
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"4", 4},
		{"-12", -12},
		{"4.5", 4.5},
		{"true", true},
		{"false", false},
		{"2024-05-22", time.Date(2024, 5, 22, 0, 0, 0, 0, time.UTC)},
		{ns + "Destination_1", ast.I(ns + "Destination_1")},
		{"Les Cimes", "Les Cimes"},
		{"NaN", "NaN"},
		{"True", "True"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, parseValue(tt.in)); diff != "" {
				t.Errorf("parseValue(%q) (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func TestParseCondition(t *testing.T) {
	tests := []struct {
		in      string
		want    triplestore.Filter
		wantErr bool
	}{
		{"prix>=100", &triplestore.ComparisonFilter{Property: "prix", Op: ">=", Value: ast.Decimal(100)}, false},
		{"prix<=9.5", &triplestore.ComparisonFilter{Property: "prix", Op: "<=", Value: ast.Decimal(9.5)}, false},
		{"nom!=A", &triplestore.ComparisonFilter{Property: "nom", Op: "!=", Value: "A"}, false},
		{"nom=42", &triplestore.ComparisonFilter{Property: "nom", Op: "=", Value: "42"}, false},
		{"bio=true", &triplestore.ComparisonFilter{Property: "bio", Op: "=", Value: ast.Boolean(true)}, false},
		{"nom~lodge", triplestore.Contains("nom", "lodge"), false},
		{"a=b=c", &triplestore.ComparisonFilter{Property: "a", Op: "=", Value: "b=c"}, false},
		{"quantite>4", &triplestore.ComparisonFilter{Property: "quantite", Op: ">", Value: 4}, false},
		{"=4", nil, true},
		{"bad name>4", nil, true},
		{"bio=oui", nil, true},
		{"prix>cher", nil, true},
	}
	typed := classTyper("ProduitLocal")
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseCondition(tt.in, typed)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("parseCondition(%q) (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func TestClassTyper(t *testing.T) {
	tests := []struct {
		class    string
		property string
		raw      string
		want     any
		wantErr  bool
	}{
		{"Hebergement", "prixParNuit", "80", ast.Decimal(80), false},
		{"Hebergement", "capacite", "4", ast.Integer(4), false},
		{"Hebergement", "nombreEtoiles", "3", ast.Integer(3), false},
		{"Hebergement", "situeDans", ns + "Destination_1", ast.I(ns + "Destination_1"), false},
		{"Hebergement", "situeDans", "Vercors", nil, true},
		{"Hebergement", "capacite", "4.5", nil, true},
		{"Evenement", "dateDebut", "2024-05-22", ast.Date(time.Date(2024, 5, 22, 0, 0, 0, 0, time.UTC)), false},
		{"Evenement", "dateDebut", "22/05/2024", nil, true},
		{"", "emissionCO2PerKm", "0", ast.Decimal(0), false},
		{"Hotel", "inconnu", "12", 12, false},
	}
	for _, tt := range tests {
		t.Run(tt.class+"."+tt.property+"="+tt.raw, func(t *testing.T) {
			got, err := classTyper(tt.class)(tt.property, tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("typed value (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCLI_WholeNumberDecimals(t *testing.T) {
	h := newHarness(t)
	gite := &model.Hebergement{Nom: "Gîte du Lac", PrixNuit: model.Ptr(80.0)}
	h.seed(gite, &model.Hotel{Hebergement: model.Hebergement{Nom: "Hôtel du Parc", PrixNuit: model.Ptr(150.0)}})
	ctx := context.Background()

	out := h.mustRun("--json", "search", "Hebergement", "prixParNuit=80")
	var res []triplestore.Resource
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode %s: %v", out, err)
	}
	if len(res) != 1 || res[0].URI != gite.GetURI() {
		t.Errorf("search = %+v", res)
	}

	out = h.mustRun("find", "Hebergement", "-w", "prixParNuit=150", "--count")
	if strings.TrimSpace(out) != "1" {
		t.Errorf("count = %q", out)
	}

	h.mustRun("update", gite.GetURI(), "prixParNuit", "80", "95")
	h.mustRun("set", gite.GetURI(), "capacite", "6")
	h.mustRun("set", gite.GetURI(), "prixParNuit", "100")

	values, err := h.m.GetByURI(ctx, gite.GetURI())
	if err != nil {
		t.Fatal(err)
	}
	got := map[string][]driver.Value{}
	for _, pv := range values {
		got[pv.Predicate] = append(got[pv.Predicate], pv.Object)
	}
	price := []driver.Value{{Type: "literal", Value: "100", Datatype: ast.XSDDecimal}}
	if diff := cmp.Diff(price, got[ns+"prixParNuit"]); diff != "" {
		t.Errorf("prixParNuit (-want +got):\n%s", diff)
	}
	capacity := []driver.Value{{Type: "literal", Value: "6", Datatype: ast.XSDInteger}}
	if diff := cmp.Diff(capacity, got[ns+"capacite"]); diff != "" {
		t.Errorf("capacite (-want +got):\n%s", diff)
	}

	if _, err := h.run("set", gite.GetURI(), "capacite", "beaucoup"); err == nil {
		t.Error("expected error for a non-integer capacity")
	}
}
