// Package ast defines the Abstract Syntax Tree (AST) for SPARQL queries and updates.
//
// It decouples query construction from string formatting, providing a
// structured way to build SPARQL text programmatically. Every literal and IRI
// that reaches the output goes through the compiler's escaping and validation,
// so values supplied by callers can never change the shape of a query.
package ast

// QueryNode is the marker interface for all AST nodes.
type QueryNode interface {
	queryNode()
}

// --- Terms ---

// Term is the marker interface for RDF terms usable in triple patterns.
type Term interface {
	QueryNode
	term()
}

// Expr is the marker interface for nodes usable inside FILTER expressions.
// Variables, IRIs and literals are both terms and expressions.
type Expr interface {
	QueryNode
	expr()
}

// IRI is an absolute IRI, rendered as <value>.
type IRI struct {
	// Value is the full IRI string without angle brackets.
	Value string
}

func (IRI) queryNode() {}
func (IRI) term()      {}
func (IRI) expr()      {}

// PrefixedName is a prefixed IRI such as xsd:date.
type PrefixedName struct {
	Prefix string
	Local  string
}

func (PrefixedName) queryNode() {}
func (PrefixedName) term()      {}
func (PrefixedName) expr()      {}

// Var is a query variable, rendered as ?name.
type Var struct {
	// Name is the variable name without the leading question mark.
	Name string
}

func (Var) queryNode() {}
func (Var) term()      {}
func (Var) expr()      {}

// Literal is an RDF literal with an optional datatype or language tag.
type Literal struct {
	// Lexical is the lexical form of the literal, unescaped.
	Lexical string
	// Datatype is the full datatype IRI. Empty means a plain string.
	Datatype string
	// Lang is an optional language tag; it excludes Datatype.
	Lang string
}

func (Literal) queryNode() {}
func (Literal) term()      {}
func (Literal) expr()      {}

// TypeKeyword is the "a" shorthand for rdf:type in predicate position.
type TypeKeyword struct{}

func (TypeKeyword) queryNode() {}
func (TypeKeyword) term()      {}

// --- Expressions ---

// CompareExpr is a binary comparison such as ?d >= "2025-01-01"^^xsd:date.
type CompareExpr struct {
	Left Expr
	// Operator is one of =, !=, <, <=, >, >=.
	Operator string
	Right    Expr
}

func (CompareExpr) queryNode() {}
func (CompareExpr) expr()      {}

// ContainsExpr tests substring containment, optionally ignoring case.
type ContainsExpr struct {
	Haystack Expr
	Needle   Expr
	// IgnoreCase wraps both operands in LCASE().
	IgnoreCase bool
}

func (ContainsExpr) queryNode() {}
func (ContainsExpr) expr()      {}

// InExpr tests membership of an expression in a list of values.
type InExpr struct {
	Expr   Expr
	Values []Expr
}

func (InExpr) queryNode() {}
func (InExpr) expr()      {}

// AndExpr is the conjunction of its operands.
type AndExpr struct {
	Operands []Expr
}

func (AndExpr) queryNode() {}
func (AndExpr) expr()      {}

// OrExpr is the disjunction of its operands.
type OrExpr struct {
	Operands []Expr
}

func (OrExpr) queryNode() {}
func (OrExpr) expr()      {}

// NotExpr negates its operand.
type NotExpr struct {
	Operand Expr
}

func (NotExpr) queryNode() {}
func (NotExpr) expr()      {}

// BoundExpr tests whether a variable is bound.
type BoundExpr struct {
	Var Var
}

func (BoundExpr) queryNode() {}
func (BoundExpr) expr()      {}

// --- Patterns ---

// Pattern is the marker interface for elements of a WHERE group.
type Pattern interface {
	QueryNode
	pattern()
}

// TriplePattern is a subject/predicate/object pattern. With only concrete
// terms it doubles as a ground triple for INSERT DATA.
type TriplePattern struct {
	Subject   Term
	Predicate Term
	Object    Term
}

func (TriplePattern) queryNode() {}
func (TriplePattern) pattern()   {}

// FilterPattern restricts solutions with a boolean expression.
type FilterPattern struct {
	Expr Expr
}

func (FilterPattern) queryNode() {}
func (FilterPattern) pattern()   {}

// RawPattern is a pre-rendered pattern string. It bypasses escaping and must
// only carry compiler output.
type RawPattern struct {
	Content string
}

func (RawPattern) queryNode() {}
func (RawPattern) pattern()   {}

// --- Clauses ---

// Clause is the marker interface for top-level queries and update operations.
type Clause interface {
	QueryNode
	clause()
}

// Prefix declares a namespace prefix in the query prologue.
type Prefix struct {
	Name string
	IRI  string
}

func (Prefix) queryNode() {}

// CountProjection renders (COUNT([DISTINCT] ?var|*) AS ?as).
type CountProjection struct {
	// Var is the counted variable; nil counts solutions (*).
	Var      *Var
	Distinct bool
	As       Var
}

func (CountProjection) queryNode() {}

// OrderCondition sorts solutions by a variable.
type OrderCondition struct {
	Var  Var
	Desc bool
}

func (OrderCondition) queryNode() {}

// SelectQuery is a SPARQL SELECT query.
type SelectQuery struct {
	Prefixes []Prefix
	Distinct bool
	// Vars lists projected variables. Empty with a nil Count projects *.
	Vars    []Var
	Count   *CountProjection
	Where   []Pattern
	OrderBy []OrderCondition
	// Limit and Offset are omitted when zero.
	Limit  int
	Offset int
}

func (SelectQuery) queryNode() {}
func (SelectQuery) clause()    {}

// InsertDataClause inserts ground triples.
type InsertDataClause struct {
	Prefixes []Prefix
	Triples  []TriplePattern
}

func (InsertDataClause) queryNode() {}
func (InsertDataClause) clause()    {}

// DeleteWhereClause deletes every triple matching its patterns.
type DeleteWhereClause struct {
	Prefixes []Prefix
	Patterns []TriplePattern
}

func (DeleteWhereClause) queryNode() {}
func (DeleteWhereClause) clause()    {}

// ModifyClause is DELETE { ... } INSERT { ... } WHERE { ... }. Either
// template may be empty but not both.
type ModifyClause struct {
	Prefixes []Prefix
	Delete   []TriplePattern
	Insert   []TriplePattern
	Where    []Pattern
}

func (ModifyClause) queryNode() {}
func (ModifyClause) clause()    {}

// UpdateRequest is a sequence of update operations executed as one request.
// Prefixes of the nested operations are ignored; the request prologue applies.
type UpdateRequest struct {
	Prefixes   []Prefix
	Operations []Clause
}

func (UpdateRequest) queryNode() {}
func (UpdateRequest) clause()    {}
