// Package ast provides builder helpers for ergonomic AST construction.
package ast

// Select creates a SelectQuery projecting the given variables. The xsd prefix
// is always declared so typed literals resolve.
func Select(vars ...Var) SelectQuery {
	return SelectQuery{Prefixes: []Prefix{XSDPrefix}, Vars: vars}
}

// SelectDistinct creates a SELECT DISTINCT query.
func SelectDistinct(vars ...Var) SelectQuery {
	q := Select(vars...)
	q.Distinct = true
	return q
}

// SelectCount creates a query projecting (COUNT(DISTINCT ?v) AS ?as).
// A nil v counts solutions.
func SelectCount(v *Var, as Var) SelectQuery {
	return SelectQuery{
		Prefixes: []Prefix{XSDPrefix},
		Count:    &CountProjection{Var: v, Distinct: v != nil, As: as},
	}
}

// WithWhere returns a copy of q with the given WHERE patterns appended.
func (q SelectQuery) WithWhere(patterns ...Pattern) SelectQuery {
	q.Where = append(append([]Pattern(nil), q.Where...), patterns...)
	return q
}

// InsertData creates an INSERT DATA operation.
func InsertData(triples ...TriplePattern) InsertDataClause {
	return InsertDataClause{Prefixes: []Prefix{XSDPrefix}, Triples: triples}
}

// DeleteWhere creates a DELETE WHERE operation.
func DeleteWhere(patterns ...TriplePattern) DeleteWhereClause {
	return DeleteWhereClause{Prefixes: []Prefix{XSDPrefix}, Patterns: patterns}
}

// Modify creates a DELETE/INSERT/WHERE operation.
func Modify(del, ins []TriplePattern, where ...Pattern) ModifyClause {
	return ModifyClause{Prefixes: []Prefix{XSDPrefix}, Delete: del, Insert: ins, Where: where}
}

// Updates groups operations into a single request separated by semicolons.
func Updates(ops ...Clause) UpdateRequest {
	return UpdateRequest{Prefixes: []Prefix{XSDPrefix}, Operations: ops}
}

// V creates a variable.
func V(name string) Var {
	return Var{Name: name}
}

// I creates an IRI term.
func I(iri string) IRI {
	return IRI{Value: iri}
}

// A is the rdf:type shorthand.
var A = TypeKeyword{}

// Triple creates a triple pattern.
func Triple(s, p, o Term) TriplePattern {
	return TriplePattern{Subject: s, Predicate: p, Object: o}
}

// IsA creates the pattern "s a <class>".
func IsA(s Term, class Term) TriplePattern {
	return TriplePattern{Subject: s, Predicate: A, Object: class}
}

// Filter wraps an expression in a FILTER pattern.
func Filter(e Expr) FilterPattern {
	return FilterPattern{Expr: e}
}

// Cmp creates a comparison expression.
func Cmp(left Expr, op string, right Expr) CompareExpr {
	return CompareExpr{Left: left, Operator: op, Right: right}
}

// Eq creates left = right.
func Eq(left, right Expr) CompareExpr {
	return Cmp(left, "=", right)
}

// Contains creates a case-insensitive containment test.
func Contains(haystack, needle Expr) ContainsExpr {
	return ContainsExpr{Haystack: haystack, Needle: needle, IgnoreCase: true}
}

// In creates a membership test.
func In(e Expr, values ...Expr) InExpr {
	return InExpr{Expr: e, Values: values}
}

// And creates a conjunction.
func And(operands ...Expr) AndExpr {
	return AndExpr{Operands: operands}
}

// Or creates a disjunction.
func Or(operands ...Expr) OrExpr {
	return OrExpr{Operands: operands}
}

// Not negates an expression.
func Not(e Expr) NotExpr {
	return NotExpr{Operand: e}
}

// Asc creates an ascending order condition.
func Asc(v Var) OrderCondition {
	return OrderCondition{Var: v}
}

// Desc creates a descending order condition.
func Desc(v Var) OrderCondition {
	return OrderCondition{Var: v, Desc: true}
}
