package sparqltest

import (
	"fmt"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// --- Participle grammar structs ---
// These cover the SPARQL 1.1 subset produced by the ast compiler and the
// canned query bank: SELECT with FILTER/ORDER BY/LIMIT/OFFSET/COUNT, and the
// INSERT DATA, DELETE WHERE, DELETE/INSERT/WHERE and CLEAR update forms.

// document is the top-level grammar: a prologue followed by one query or a
// sequence of update operations.
type document struct {
	Prefixes []*prefixDecl `parser:"@@*"`
	Body     *body         `parser:"@@"`
}

// prefixDecl parses: PREFIX name: <iri>
type prefixDecl struct {
	Name string `parser:"'PREFIX' @PNameNS"`
	IRI  string `parser:"@IRIRef"`
}

type body struct {
	Select  *selectQuery `parser:"  @@"`
	Updates *updateSeq   `parser:"| @@"`
}

// selectQuery parses: SELECT [DISTINCT] projection [WHERE] { ... } modifiers
type selectQuery struct {
	Distinct   bool         `parser:"'SELECT' @'DISTINCT'?"`
	Projection *projection  `parser:"@@"`
	Where      *group       `parser:"'WHERE'? @@"`
	OrderBy    []*orderCond `parser:"( 'ORDER' 'BY' @@+ )?"`
	Limit      string       `parser:"( 'LIMIT' @Number )?"`
	Offset     string       `parser:"( 'OFFSET' @Number )?"`
}

type projection struct {
	All   bool              `parser:"  @'*'"`
	Items []*projectionItem `parser:"| @@+"`
}

type projectionItem struct {
	Var   string     `parser:"  @Var"`
	Count *countProj `parser:"| @@"`
}

// countProj parses: (COUNT([DISTINCT] ?v|*) AS ?n)
type countProj struct {
	Distinct bool   `parser:"'(' 'COUNT' '(' @'DISTINCT'?"`
	Target   string `parser:"( @Var | @'*' ) ')'"`
	As       string `parser:"'AS' @Var ')'"`
}

// orderCond parses: ASC(?v) | DESC(?v) | ?v
type orderCond struct {
	Dir *orderDir `parser:"  @@"`
	Var string    `parser:"| @Var"`
}

type orderDir struct {
	Dir string `parser:"@('ASC' | 'DESC')"`
	Var string `parser:"'(' @Var ')'"`
}

// group parses a basic graph pattern with filters: { ... }
type group struct {
	Patterns []*groupPattern `parser:"'{' @@* '}'"`
}

type groupPattern struct {
	Filter *filterPattern `parser:"  @@"`
	Triple *triple        `parser:"| @@"`
}

type filterPattern struct {
	Expr *orExpr `parser:"'FILTER' @@ '.'?"`
}

type triple struct {
	Subject   *termNode `parser:"@@"`
	Predicate *termNode `parser:"@@"`
	Object    *termNode `parser:"@@ '.'?"`
}

// termNode is one RDF term or variable.
type termNode struct {
	IRI     string       `parser:"  @IRIRef"`
	PName   string       `parser:"| @PName"`
	Var     string       `parser:"| @Var"`
	A       bool         `parser:"| @'a'"`
	Literal *literalNode `parser:"| @@"`
	Number  string       `parser:"| @Number"`
	Bool    string       `parser:"| @('true' | 'false')"`
}

type literalNode struct {
	Value  string         `parser:"@String"`
	Suffix *literalSuffix `parser:"@@?"`
}

type literalSuffix struct {
	Lang     string   `parser:"  @LangTag"`
	Datatype *iriNode `parser:"| '^^' @@"`
}

type iriNode struct {
	IRI   string `parser:"  @IRIRef"`
	PName string `parser:"| @PName"`
}

// --- Expressions ---

type orExpr struct {
	Left  *andExpr   `parser:"@@"`
	Right []*andExpr `parser:"( '||' @@ )*"`
}

type andExpr struct {
	Left  *unaryExpr   `parser:"@@"`
	Right []*unaryExpr `parser:"( '&&' @@ )*"`
}

type unaryExpr struct {
	Not *unaryExpr `parser:"  '!' @@"`
	Rel *relExpr   `parser:"| @@"`
}

type relExpr struct {
	Left *primary `parser:"@@"`
	Tail *relTail `parser:"@@?"`
}

type relTail struct {
	Compare *compareTail `parser:"  @@"`
	In      *inTail      `parser:"| @@"`
}

type compareTail struct {
	Op    string   `parser:"@('=' | '!=' | '<=' | '>=' | '<' | '>')"`
	Right *primary `parser:"@@"`
}

type inTail struct {
	Values []*orExpr `parser:"'IN' '(' ( @@ ( ',' @@ )* )? ')'"`
}

type primary struct {
	Paren *orExpr   `parser:"  '(' @@ ')'"`
	Call  *call     `parser:"| @@"`
	Term  *termNode `parser:"| @@"`
}

type call struct {
	Func string    `parser:"@('CONTAINS' | 'STRSTARTS' | 'LCASE' | 'UCASE' | 'STR' | 'BOUND')"`
	Args []*orExpr `parser:"'(' ( @@ ( ',' @@ )* )? ')'"`
}

// --- Updates ---

type updateSeq struct {
	Ops []*updateOp `parser:"@@ ( ';' @@ )* ';'?"`
}

type updateOp struct {
	InsertData  *quadData `parser:"  'INSERT' 'DATA' @@"`
	DeleteWhere *quadData `parser:"| 'DELETE' 'WHERE' @@"`
	Modify      *modify   `parser:"| @@"`
	Clear       *clearOp  `parser:"| @@"`
}

type quadData struct {
	Triples []*triple `parser:"'{' @@* '}'"`
}

// modify parses: [DELETE { ... }] [INSERT { ... }] WHERE { ... }
type modify struct {
	Delete *quadData `parser:"( 'DELETE' @@ )?"`
	Insert *quadData `parser:"( 'INSERT' @@ )?"`
	Where  *group    `parser:"'WHERE' @@"`
}

type clearOp struct {
	Target string `parser:"'CLEAR' @('DEFAULT' | 'ALL')"`
}

var sparqlLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "Whitespace", Pattern: `[\s]+`},
	{Name: "IRIRef", Pattern: "<[^<>\"{}|^`\\\\\\s]*>"},
	{Name: "String", Pattern: `"(?:[^"\\]|\\.)*"`},
	{Name: "LangTag", Pattern: `@[a-zA-Z]+(?:-[a-zA-Z0-9]+)*`},
	{Name: "DTMark", Pattern: `\^\^`},
	{Name: "Var", Pattern: `\?[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "PName", Pattern: `[A-Za-z][A-Za-z0-9_-]*:[A-Za-z_][A-Za-z0-9_-]*`},
	{Name: "PNameNS", Pattern: `[A-Za-z][A-Za-z0-9_-]*:`},
	{Name: "Number", Pattern: `[+-]?[0-9]+(?:\.[0-9]+)?`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Operator", Pattern: `!=|<=|>=|&&|\|\||[=<>!*]`},
	{Name: "Punct", Pattern: `[{}().,;]`},
})

var sparqlParser = participle.MustBuild[document](
	participle.Lexer(sparqlLexer),
	participle.Elide("Comment", "Whitespace"),
	participle.UseLookahead(3),
)

// SyntaxError is returned for text outside the supported SPARQL subset.
type SyntaxError struct {
	Err error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("sparql syntax: %v", e.Err)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

func parse(text string) (*document, error) {
	doc, err := sparqlParser.ParseString("request.rq", text)
	if err != nil {
		return nil, &SyntaxError{Err: err}
	}
	return doc, nil
}

// Validate reports whether text parses as a supported query or update.
func Validate(text string) error {
	_, err := parse(text)
	return err
}
