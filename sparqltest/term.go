package sparqltest

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ecotourisme/go-ecosparql/ast"
)

// Kind distinguishes resources from literals.
type Kind int

const (
	KindIRI Kind = iota
	KindLiteral
)

// Term is a concrete RDF term held in the store.
type Term struct {
	Kind     Kind
	Value    string
	Datatype string
	Lang     string
}

// NewIRI returns an IRI term.
func NewIRI(iri string) Term {
	return Term{Kind: KindIRI, Value: iri}
}

// NewLiteral returns a literal term. An empty datatype without a language
// tag means xsd:string.
func NewLiteral(lexical, datatype, lang string) Term {
	if datatype == "" && lang == "" {
		datatype = ast.XSDString
	}
	return Term{Kind: KindLiteral, Value: lexical, Datatype: datatype, Lang: lang}
}

func (t Term) String() string {
	switch {
	case t.Kind == KindIRI:
		return "<" + t.Value + ">"
	case t.Lang != "":
		return strconv.Quote(t.Value) + "@" + t.Lang
	case t.Datatype == ast.XSDString:
		return strconv.Quote(t.Value)
	default:
		return strconv.Quote(t.Value) + "^^<" + t.Datatype + ">"
	}
}

// Triple is one stored statement.
type Triple struct {
	Subject   string
	Predicate string
	Object    Term
}

var builtinPrefixes = map[string]string{
	"xsd":  ast.XSDNamespace,
	"rdf":  "http://www.w3.org/1999/02/22-rdf-syntax-ns#",
	"rdfs": ast.RDFSNamespace,
}

// prologue resolves prefixed names for one request.
type prologue map[string]string

func newPrologue(decls []*prefixDecl) prologue {
	p := make(prologue, len(builtinPrefixes)+len(decls))
	for k, v := range builtinPrefixes {
		p[k] = v
	}
	for _, d := range decls {
		p[strings.TrimSuffix(d.Name, ":")] = trimIRI(d.IRI)
	}
	return p
}

func (p prologue) expand(pname string) (string, error) {
	prefix, local, _ := strings.Cut(pname, ":")
	ns, ok := p[prefix]
	if !ok {
		return "", fmt.Errorf("undeclared prefix %q", prefix)
	}
	return ns + local, nil
}

func trimIRI(s string) string {
	return strings.TrimSuffix(strings.TrimPrefix(s, "<"), ">")
}

// pterm is a pattern position: either a variable or a concrete term.
type pterm struct {
	Var  string
	Term Term
}

func (p pterm) isVar() bool { return p.Var != "" }

func (p prologue) patternTerm(n *termNode) (pterm, error) {
	switch {
	case n.Var != "":
		return pterm{Var: strings.TrimPrefix(n.Var, "?")}, nil
	case n.IRI != "":
		return pterm{Term: NewIRI(trimIRI(n.IRI))}, nil
	case n.PName != "":
		iri, err := p.expand(n.PName)
		if err != nil {
			return pterm{}, err
		}
		return pterm{Term: NewIRI(iri)}, nil
	case n.A:
		return pterm{Term: NewIRI(ast.RDFType)}, nil
	case n.Literal != nil:
		t, err := p.literal(n.Literal)
		return pterm{Term: t}, err
	case n.Number != "":
		if strings.Contains(n.Number, ".") {
			return pterm{Term: NewLiteral(n.Number, ast.XSDDecimal, "")}, nil
		}
		return pterm{Term: NewLiteral(n.Number, ast.XSDInteger, "")}, nil
	case n.Bool != "":
		return pterm{Term: NewLiteral(n.Bool, ast.XSDBoolean, "")}, nil
	default:
		return pterm{}, fmt.Errorf("empty term")
	}
}

func (p prologue) literal(n *literalNode) (Term, error) {
	lexical := ast.UnescapeString(n.Value[1 : len(n.Value)-1])
	if n.Suffix == nil {
		return NewLiteral(lexical, "", ""), nil
	}
	if n.Suffix.Lang != "" {
		return NewLiteral(lexical, "", strings.ToLower(strings.TrimPrefix(n.Suffix.Lang, "@"))), nil
	}
	dt := n.Suffix.Datatype
	if dt.IRI != "" {
		return NewLiteral(lexical, trimIRI(dt.IRI), ""), nil
	}
	iri, err := p.expand(dt.PName)
	if err != nil {
		return Term{}, err
	}
	return NewLiteral(lexical, iri, ""), nil
}

// --- Value semantics used by FILTER and ORDER BY ---

func isNumericType(dt string) bool {
	switch dt {
	case ast.XSDInteger, ast.XSDDecimal, ast.XSDDouble, ast.XSDNamespace + "float",
		ast.XSDNamespace + "int", ast.XSDNamespace + "long", ast.XSDNamespace + "short",
		ast.XSDNamespace + "nonNegativeInteger", ast.XSDNamespace + "positiveInteger":
		return true
	}
	return false
}

func (t Term) numeric() (float64, bool) {
	if t.Kind != KindLiteral || !isNumericType(t.Datatype) {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(t.Value), 64)
	return f, err == nil
}

func (t Term) temporal() (time.Time, bool) {
	if t.Kind != KindLiteral || (t.Datatype != ast.XSDDate && t.Datatype != ast.XSDDateTime) {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", ast.DateLayout} {
		if v, err := time.Parse(layout, t.Value); err == nil {
			return v, true
		}
	}
	return time.Time{}, false
}

func (t Term) isStringLike() bool {
	return t.Kind == KindLiteral && (t.Datatype == ast.XSDString || t.Lang != "")
}

func (t Term) boolean() (bool, bool) {
	if t.Kind != KindLiteral || t.Datatype != ast.XSDBoolean {
		return false, false
	}
	switch t.Value {
	case "true", "1":
		return true, true
	case "false", "0":
		return false, true
	}
	return false, false
}

var (
	trueTerm  = NewLiteral("true", ast.XSDBoolean, "")
	falseTerm = NewLiteral("false", ast.XSDBoolean, "")
)

func boolTerm(b bool) Term {
	if b {
		return trueTerm
	}
	return falseTerm
}

// ebv computes the effective boolean value of a FILTER result.
func ebv(t Term) (bool, error) {
	if b, ok := t.boolean(); ok {
		return b, nil
	}
	if f, ok := t.numeric(); ok {
		return f != 0, nil
	}
	if t.isStringLike() {
		return t.Value != "", nil
	}
	return false, fmt.Errorf("no effective boolean value for %s", t)
}

// compareTerms orders two terms by value. ok is false when the terms are not
// comparable.
func compareTerms(a, b Term) (cmp int, ok bool) {
	if x, okA := a.numeric(); okA {
		if y, okB := b.numeric(); okB {
			return compareFloat(x, y), true
		}
		return 0, false
	}
	if x, okA := a.temporal(); okA {
		if y, okB := b.temporal(); okB {
			return x.Compare(y), true
		}
		return 0, false
	}
	if a.isStringLike() && b.isStringLike() {
		return strings.Compare(a.Value, b.Value), true
	}
	if x, okA := a.boolean(); okA {
		if y, okB := b.boolean(); okB {
			return compareBool(x, y), true
		}
	}
	return 0, false
}

func compareFloat(x, y float64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

func compareBool(x, y bool) int {
	switch {
	case x == y:
		return 0
	case !x:
		return -1
	default:
		return 1
	}
}

// equalTerms implements "=": value equality for comparable literals, term
// identity otherwise.
func equalTerms(a, b Term) bool {
	if a.Kind == KindLiteral && b.Kind == KindLiteral && a.Lang == b.Lang {
		if c, ok := compareTerms(a, b); ok {
			return c == 0
		}
	}
	return a == b
}

// orderLess sorts unbound < IRI < literal, then by value.
func orderLess(a, b *Term) bool {
	switch {
	case a == nil || b == nil:
		return a == nil && b != nil
	case a.Kind != b.Kind:
		return a.Kind < b.Kind
	}
	if c, ok := compareTerms(*a, *b); ok {
		return c < 0
	}
	return a.Value < b.Value
}
