package sparqltest

import (
	"errors"
	"fmt"
	"strings"
)

var errUnbound = errors.New("unbound variable")

// evaluator computes FILTER expressions against one solution. Evaluation
// errors make a FILTER reject the solution.
type evaluator struct {
	pro prologue
}

func (ev evaluator) accept(filters []*orExpr, sol solution) bool {
	for _, f := range filters {
		v, err := ev.or(f, sol)
		if err != nil {
			return false
		}
		ok, err := ebv(v)
		if err != nil || !ok {
			return false
		}
	}
	return true
}

func (ev evaluator) or(e *orExpr, sol solution) (Term, error) {
	if len(e.Right) == 0 {
		return ev.and(e.Left, sol)
	}
	var firstErr error
	for _, operand := range append([]*andExpr{e.Left}, e.Right...) {
		v, err := ev.and(operand, sol)
		if err == nil {
			var b bool
			b, err = ebv(v)
			if err == nil && b {
				return trueTerm, nil
			}
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return Term{}, firstErr
	}
	return falseTerm, nil
}

func (ev evaluator) and(e *andExpr, sol solution) (Term, error) {
	if len(e.Right) == 0 {
		return ev.unary(e.Left, sol)
	}
	var firstErr error
	for _, operand := range append([]*unaryExpr{e.Left}, e.Right...) {
		v, err := ev.unary(operand, sol)
		if err == nil {
			var b bool
			b, err = ebv(v)
			if err == nil && !b {
				return falseTerm, nil
			}
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return Term{}, firstErr
	}
	return trueTerm, nil
}

func (ev evaluator) unary(e *unaryExpr, sol solution) (Term, error) {
	if e.Not == nil {
		return ev.rel(e.Rel, sol)
	}
	v, err := ev.unary(e.Not, sol)
	if err != nil {
		return Term{}, err
	}
	b, err := ebv(v)
	if err != nil {
		return Term{}, err
	}
	return boolTerm(!b), nil
}

func (ev evaluator) rel(e *relExpr, sol solution) (Term, error) {
	left, err := ev.primary(e.Left, sol)
	if err != nil || e.Tail == nil {
		return left, err
	}

	if in := e.Tail.In; in != nil {
		for _, candidate := range in.Values {
			v, err := ev.or(candidate, sol)
			if err == nil && equalTerms(left, v) {
				return trueTerm, nil
			}
		}
		return falseTerm, nil
	}

	c := e.Tail.Compare
	right, err := ev.primary(c.Right, sol)
	if err != nil {
		return Term{}, err
	}
	switch c.Op {
	case "=":
		return boolTerm(equalTerms(left, right)), nil
	case "!=":
		return boolTerm(!equalTerms(left, right)), nil
	}
	order, ok := compareTerms(left, right)
	if !ok {
		return Term{}, fmt.Errorf("cannot compare %s and %s", left, right)
	}
	switch c.Op {
	case "<":
		return boolTerm(order < 0), nil
	case "<=":
		return boolTerm(order <= 0), nil
	case ">":
		return boolTerm(order > 0), nil
	case ">=":
		return boolTerm(order >= 0), nil
	default:
		return Term{}, fmt.Errorf("unknown operator %q", c.Op)
	}
}

func (ev evaluator) primary(p *primary, sol solution) (Term, error) {
	switch {
	case p.Paren != nil:
		return ev.or(p.Paren, sol)
	case p.Call != nil:
		return ev.call(p.Call, sol)
	default:
		pt, err := ev.pro.patternTerm(p.Term)
		if err != nil {
			return Term{}, err
		}
		if !pt.isVar() {
			return pt.Term, nil
		}
		v, ok := sol[pt.Var]
		if !ok {
			return Term{}, errUnbound
		}
		return v, nil
	}
}

func (ev evaluator) call(c *call, sol solution) (Term, error) {
	if c.Func == "BOUND" {
		if len(c.Args) != 1 {
			return Term{}, fmt.Errorf("BOUND takes one argument")
		}
		name, ok := varOf(c.Args[0])
		if !ok {
			return Term{}, fmt.Errorf("BOUND requires a variable")
		}
		_, bound := sol[name]
		return boolTerm(bound), nil
	}

	args := make([]Term, len(c.Args))
	for i, a := range c.Args {
		v, err := ev.or(a, sol)
		if err != nil {
			return Term{}, err
		}
		args[i] = v
	}

	switch c.Func {
	case "STR":
		if len(args) != 1 {
			return Term{}, fmt.Errorf("STR takes one argument")
		}
		return NewLiteral(args[0].Value, "", ""), nil
	case "LCASE", "UCASE":
		if len(args) != 1 || !args[0].isStringLike() {
			return Term{}, fmt.Errorf("%s requires a string literal", c.Func)
		}
		out := args[0]
		if c.Func == "LCASE" {
			out.Value = strings.ToLower(out.Value)
		} else {
			out.Value = strings.ToUpper(out.Value)
		}
		return out, nil
	case "CONTAINS", "STRSTARTS":
		if len(args) != 2 || !args[0].isStringLike() || !args[1].isStringLike() {
			return Term{}, fmt.Errorf("%s requires two string literals", c.Func)
		}
		if c.Func == "CONTAINS" {
			return boolTerm(strings.Contains(args[0].Value, args[1].Value)), nil
		}
		return boolTerm(strings.HasPrefix(args[0].Value, args[1].Value)), nil
	default:
		return Term{}, fmt.Errorf("unsupported function %s", c.Func)
	}
}

// varOf returns the variable name when e is a bare variable.
func varOf(e *orExpr) (string, bool) {
	if len(e.Right) > 0 || len(e.Left.Right) > 0 {
		return "", false
	}
	u := e.Left.Left
	if u.Rel == nil || u.Rel.Tail != nil {
		return "", false
	}
	p := u.Rel.Left
	if p.Term == nil || p.Term.Var == "" {
		return "", false
	}
	return strings.TrimPrefix(p.Term.Var, "?"), true
}
