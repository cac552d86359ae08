package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Compiler compiles AST nodes into SPARQL query and update strings.
// It traverses the AST and generates the corresponding SPARQL syntax.
type Compiler struct{}

// Compile compiles a single AST node into its SPARQL string representation.
// It returns an error if the node type is unknown or if a term is invalid.
func (c *Compiler) Compile(node QueryNode) (string, error) {
	switch n := node.(type) {
	case Clause:
		return c.compileClause(n)
	case Pattern:
		return c.compilePattern(n)
	case Term:
		return c.compileTerm(n)
	case Expr:
		return c.compileExpr(n)
	default:
		return "", fmt.Errorf("unknown node type: %T", node)
	}
}

// CompileTriples renders triples one per line, each terminated by " .".
// It is the body format shared by INSERT DATA and the entity serializer.
func (c *Compiler) CompileTriples(triples []TriplePattern) (string, error) {
	var b strings.Builder
	for _, t := range triples {
		s, err := c.compileTriple(t)
		if err != nil {
			return "", err
		}
		b.WriteString(s)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// --- Clauses ---

func (c *Compiler) compileClause(clause Clause) (string, error) {
	switch cl := clause.(type) {
	case SelectQuery:
		return c.compileSelect(cl)

	case InsertDataClause:
		body, err := c.compileTemplate(cl.Triples)
		if err != nil {
			return "", err
		}
		return c.prologue(cl.Prefixes) + "INSERT DATA {\n" + body + "}", nil

	case DeleteWhereClause:
		body, err := c.compileTemplate(cl.Patterns)
		if err != nil {
			return "", err
		}
		return c.prologue(cl.Prefixes) + "DELETE WHERE {\n" + body + "}", nil

	case ModifyClause:
		if len(cl.Delete) == 0 && len(cl.Insert) == 0 {
			return "", fmt.Errorf("modify: both DELETE and INSERT templates are empty")
		}
		var b strings.Builder
		b.WriteString(c.prologue(cl.Prefixes))
		if len(cl.Delete) > 0 {
			body, err := c.compileTemplate(cl.Delete)
			if err != nil {
				return "", err
			}
			b.WriteString("DELETE {\n" + body + "}\n")
		}
		if len(cl.Insert) > 0 {
			body, err := c.compileTemplate(cl.Insert)
			if err != nil {
				return "", err
			}
			b.WriteString("INSERT {\n" + body + "}\n")
		}
		where, err := c.compileGroup(cl.Where)
		if err != nil {
			return "", err
		}
		b.WriteString("WHERE " + where)
		return b.String(), nil

	case UpdateRequest:
		if len(cl.Operations) == 0 {
			return "", fmt.Errorf("update request has no operations")
		}
		ops := make([]string, 0, len(cl.Operations))
		for _, op := range cl.Operations {
			if _, ok := op.(SelectQuery); ok {
				return "", fmt.Errorf("update request cannot contain a SELECT query")
			}
			s, err := c.compileClause(stripPrefixes(op))
			if err != nil {
				return "", err
			}
			ops = append(ops, s)
		}
		return c.prologue(cl.Prefixes) + strings.Join(ops, " ;\n"), nil

	default:
		return "", fmt.Errorf("unknown clause type: %T", clause)
	}
}

func (c *Compiler) compileSelect(q SelectQuery) (string, error) {
	var b strings.Builder
	b.WriteString(c.prologue(q.Prefixes))
	b.WriteString("SELECT ")
	if q.Distinct {
		b.WriteString("DISTINCT ")
	}

	projection := make([]string, 0, len(q.Vars)+1)
	for _, v := range q.Vars {
		s, err := c.compileVar(v)
		if err != nil {
			return "", err
		}
		projection = append(projection, s)
	}
	if q.Count != nil {
		s, err := c.compileCount(*q.Count)
		if err != nil {
			return "", err
		}
		projection = append(projection, s)
	}
	if len(projection) == 0 {
		projection = append(projection, "*")
	}
	b.WriteString(strings.Join(projection, " "))

	where, err := c.compileGroup(q.Where)
	if err != nil {
		return "", err
	}
	b.WriteString(" WHERE " + where)

	if len(q.OrderBy) > 0 {
		conds := make([]string, 0, len(q.OrderBy))
		for _, o := range q.OrderBy {
			v, err := c.compileVar(o.Var)
			if err != nil {
				return "", err
			}
			if o.Desc {
				conds = append(conds, "DESC("+v+")")
			} else {
				conds = append(conds, "ASC("+v+")")
			}
		}
		b.WriteString("\nORDER BY " + strings.Join(conds, " "))
	}
	if q.Limit < 0 || q.Offset < 0 {
		return "", fmt.Errorf("limit and offset must be non-negative, got %d and %d", q.Limit, q.Offset)
	}
	if q.Limit > 0 {
		b.WriteString("\nLIMIT " + strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		b.WriteString("\nOFFSET " + strconv.Itoa(q.Offset))
	}
	return b.String(), nil
}

func (c *Compiler) compileCount(p CountProjection) (string, error) {
	target := "*"
	if p.Var != nil {
		v, err := c.compileVar(*p.Var)
		if err != nil {
			return "", err
		}
		target = v
	}
	if p.Distinct {
		target = "DISTINCT " + target
	}
	as, err := c.compileVar(p.As)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("(COUNT(%s) AS %s)", target, as), nil
}

func (c *Compiler) prologue(prefixes []Prefix) string {
	var b strings.Builder
	for _, p := range prefixes {
		fmt.Fprintf(&b, "PREFIX %s: <%s>\n", p.Name, p.IRI)
	}
	return b.String()
}

func stripPrefixes(cl Clause) Clause {
	switch op := cl.(type) {
	case InsertDataClause:
		op.Prefixes = nil
		return op
	case DeleteWhereClause:
		op.Prefixes = nil
		return op
	case ModifyClause:
		op.Prefixes = nil
		return op
	default:
		return cl
	}
}

// --- Patterns ---

func (c *Compiler) compileTemplate(triples []TriplePattern) (string, error) {
	var b strings.Builder
	for _, t := range triples {
		s, err := c.compileTriple(t)
		if err != nil {
			return "", err
		}
		b.WriteString("  " + s + "\n")
	}
	return b.String(), nil
}

func (c *Compiler) compileGroup(patterns []Pattern) (string, error) {
	var b strings.Builder
	b.WriteString("{\n")
	for _, p := range patterns {
		s, err := c.compilePattern(p)
		if err != nil {
			return "", err
		}
		b.WriteString("  " + s + "\n")
	}
	b.WriteString("}")
	return b.String(), nil
}

func (c *Compiler) compilePattern(pattern Pattern) (string, error) {
	switch p := pattern.(type) {
	case TriplePattern:
		return c.compileTriple(p)
	case FilterPattern:
		s, err := c.compileExpr(p.Expr)
		if err != nil {
			return "", err
		}
		return "FILTER(" + s + ")", nil
	case RawPattern:
		return p.Content, nil
	default:
		return "", fmt.Errorf("unknown pattern type: %T", pattern)
	}
}

func (c *Compiler) compileTriple(t TriplePattern) (string, error) {
	if t.Subject == nil || t.Predicate == nil || t.Object == nil {
		return "", fmt.Errorf("triple pattern has a missing term")
	}
	if _, ok := t.Subject.(Literal); ok {
		return "", fmt.Errorf("literal cannot be used as a subject")
	}
	s, err := c.compileTerm(t.Subject)
	if err != nil {
		return "", err
	}
	p, err := c.compileTerm(t.Predicate)
	if err != nil {
		return "", err
	}
	o, err := c.compileTerm(t.Object)
	if err != nil {
		return "", err
	}
	return s + " " + p + " " + o + " .", nil
}

// --- Terms ---

func (c *Compiler) compileTerm(t Term) (string, error) {
	switch v := t.(type) {
	case IRI:
		if err := ValidateIRI(v.Value); err != nil {
			return "", err
		}
		return "<" + v.Value + ">", nil
	case PrefixedName:
		if err := ValidateLocalName(v.Prefix); err != nil {
			return "", err
		}
		if err := ValidateLocalName(v.Local); err != nil {
			return "", err
		}
		return v.Prefix + ":" + v.Local, nil
	case Var:
		return c.compileVar(v)
	case Literal:
		return c.compileLiteral(v)
	case TypeKeyword:
		return "a", nil
	default:
		return "", fmt.Errorf("unknown term type: %T", t)
	}
}

func (c *Compiler) compileVar(v Var) (string, error) {
	if v.Name == "" || strings.ContainsAny(v.Name, "-") || ValidateLocalName(v.Name) != nil {
		return "", fmt.Errorf("invalid variable name %q", v.Name)
	}
	return "?" + v.Name, nil
}

func (c *Compiler) compileLiteral(l Literal) (string, error) {
	quoted := `"` + EscapeString(l.Lexical) + `"`
	switch {
	case l.Lang != "":
		if l.Datatype != "" {
			return "", fmt.Errorf("literal %q has both a language tag and a datatype", l.Lexical)
		}
		if !isLangTag(l.Lang) {
			return "", fmt.Errorf("invalid language tag %q", l.Lang)
		}
		return quoted + "@" + l.Lang, nil
	case l.Datatype == "":
		return quoted, nil
	case l.Datatype == XSDBoolean:
		if l.Lexical != "true" && l.Lexical != "false" {
			return "", fmt.Errorf("invalid xsd:boolean lexical form %q", l.Lexical)
		}
		return l.Lexical, nil
	case strings.HasPrefix(l.Datatype, XSDNamespace) && ValidateLocalName(strings.TrimPrefix(l.Datatype, XSDNamespace)) == nil:
		return quoted + "^^xsd:" + strings.TrimPrefix(l.Datatype, XSDNamespace), nil
	default:
		if err := ValidateIRI(l.Datatype); err != nil {
			return "", err
		}
		return quoted + "^^<" + l.Datatype + ">", nil
	}
}

func isLangTag(s string) bool {
	for i, part := range strings.Split(s, "-") {
		if part == "" {
			return false
		}
		for _, r := range part {
			isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
			isDigit := r >= '0' && r <= '9'
			if !isAlpha && !(isDigit && i > 0) {
				return false
			}
		}
	}
	return true
}

// --- Expressions ---

var compareOperators = map[string]bool{
	"=": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true,
}

func (c *Compiler) compileExpr(e Expr) (string, error) {
	switch x := e.(type) {
	case IRI, PrefixedName, Var, Literal:
		return c.compileTerm(x.(Term))

	case CompareExpr:
		if !compareOperators[x.Operator] {
			return "", fmt.Errorf("unknown comparison operator %q", x.Operator)
		}
		l, err := c.compileExpr(x.Left)
		if err != nil {
			return "", err
		}
		r, err := c.compileExpr(x.Right)
		if err != nil {
			return "", err
		}
		return l + " " + x.Operator + " " + r, nil

	case ContainsExpr:
		h, err := c.compileExpr(x.Haystack)
		if err != nil {
			return "", err
		}
		n, err := c.compileExpr(x.Needle)
		if err != nil {
			return "", err
		}
		if x.IgnoreCase {
			return fmt.Sprintf("CONTAINS(LCASE(STR(%s)), LCASE(%s))", h, n), nil
		}
		return fmt.Sprintf("CONTAINS(STR(%s), %s)", h, n), nil

	case InExpr:
		target, err := c.compileExpr(x.Expr)
		if err != nil {
			return "", err
		}
		values := make([]string, 0, len(x.Values))
		for _, v := range x.Values {
			s, err := c.compileExpr(v)
			if err != nil {
				return "", err
			}
			values = append(values, s)
		}
		return target + " IN (" + strings.Join(values, ", ") + ")", nil

	case AndExpr:
		return c.compileJunction(x.Operands, " && ")

	case OrExpr:
		return c.compileJunction(x.Operands, " || ")

	case NotExpr:
		s, err := c.compileExpr(x.Operand)
		if err != nil {
			return "", err
		}
		return "!(" + s + ")", nil

	case BoundExpr:
		v, err := c.compileVar(x.Var)
		if err != nil {
			return "", err
		}
		return "BOUND(" + v + ")", nil

	default:
		return "", fmt.Errorf("unknown expression type: %T", e)
	}
}

func (c *Compiler) compileJunction(operands []Expr, sep string) (string, error) {
	if len(operands) == 0 {
		return "", fmt.Errorf("empty logical expression")
	}
	if len(operands) == 1 {
		return c.compileExpr(operands[0])
	}
	parts := make([]string, 0, len(operands))
	for _, o := range operands {
		s, err := c.compileExpr(o)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return "(" + strings.Join(parts, sep) + ")", nil
}
