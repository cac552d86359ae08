package sparqltest

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/ecotourisme/go-ecosparql/ast"
)

// Result is the outcome of a SELECT query.
type Result struct {
	// Vars lists the projected variables.
	Vars []string
	// Rows holds one map per solution; unbound variables are absent.
	Rows []map[string]Term
}

type solution map[string]Term

type triplePattern struct {
	s, p, o pterm
}

// compiledGroup is a basic graph pattern plus its filters.
type compiledGroup struct {
	patterns []triplePattern
	filters  []*orExpr
	vars     []string
}

func (pro prologue) compileTriples(ts []*triple) ([]triplePattern, []string, error) {
	var (
		out  []triplePattern
		vars []string
		seen = map[string]bool{}
	)
	for _, t := range ts {
		var tp triplePattern
		for i, n := range []*termNode{t.Subject, t.Predicate, t.Object} {
			pt, err := pro.patternTerm(n)
			if err != nil {
				return nil, nil, &EvalError{Err: err}
			}
			if pt.isVar() && !seen[pt.Var] {
				seen[pt.Var] = true
				vars = append(vars, pt.Var)
			}
			switch i {
			case 0:
				tp.s = pt
			case 1:
				tp.p = pt
			default:
				tp.o = pt
			}
		}
		out = append(out, tp)
	}
	return out, vars, nil
}

func (pro prologue) compileGroup(g *group) (*compiledGroup, error) {
	cg := &compiledGroup{}
	var ts []*triple
	for _, p := range g.Patterns {
		if p.Filter != nil {
			cg.filters = append(cg.filters, p.Filter.Expr)
			continue
		}
		ts = append(ts, p.Triple)
	}
	patterns, vars, err := pro.compileTriples(ts)
	if err != nil {
		return nil, err
	}
	cg.patterns, cg.vars = patterns, vars
	return cg, nil
}

func resolve(p pterm, sol solution) *Term {
	if !p.isVar() {
		t := p.Term
		return &t
	}
	if t, ok := sol[p.Var]; ok {
		return &t
	}
	return nil
}

func bind(sol solution, p pterm, value Term) bool {
	if !p.isVar() {
		return true
	}
	if prev, ok := sol[p.Var]; ok {
		return prev == value
	}
	sol[p.Var] = value
	return true
}

// evalBGP joins the patterns left to right, one store lookup per partial
// solution.
func evalBGP(ctx context.Context, q querier, patterns []triplePattern) ([]solution, error) {
	sols := []solution{{}}
	for _, tp := range patterns {
		var next []solution
		for _, sol := range sols {
			matches, err := match(ctx, q, resolve(tp.s, sol), resolve(tp.p, sol), resolve(tp.o, sol))
			if err != nil {
				return nil, err
			}
			for _, m := range matches {
				ext := make(solution, len(sol)+3)
				for k, v := range sol {
					ext[k] = v
				}
				if bind(ext, tp.s, NewIRI(m.Subject)) &&
					bind(ext, tp.p, NewIRI(m.Predicate)) &&
					bind(ext, tp.o, m.Object) {
					next = append(next, ext)
				}
			}
		}
		sols = next
		if len(sols) == 0 {
			break
		}
	}
	return sols, nil
}

func (pro prologue) evalGroup(ctx context.Context, q querier, cg *compiledGroup) ([]solution, error) {
	sols, err := evalBGP(ctx, q, cg.patterns)
	if err != nil {
		return nil, err
	}
	if len(cg.filters) == 0 {
		return sols, nil
	}
	ev := evaluator{pro: pro}
	kept := sols[:0]
	for _, sol := range sols {
		if ev.accept(cg.filters, sol) {
			kept = append(kept, sol)
		}
	}
	return kept, nil
}

func evalSelect(ctx context.Context, q querier, pro prologue, sq *selectQuery) (*Result, error) {
	cg, err := pro.compileGroup(sq.Where)
	if err != nil {
		return nil, err
	}
	sols, err := pro.evalGroup(ctx, q, cg)
	if err != nil {
		return nil, err
	}

	var (
		vars  []string
		count *countProj
	)
	if sq.Projection.All {
		vars = cg.vars
	}
	for _, item := range sq.Projection.Items {
		if item.Count != nil {
			if count != nil {
				return nil, evalErrorf("only one aggregate is supported")
			}
			count = item.Count
			continue
		}
		vars = append(vars, strings.TrimPrefix(item.Var, "?"))
	}
	if count != nil {
		if len(vars) > 0 {
			return nil, evalErrorf("mixing aggregates and variables requires GROUP BY")
		}
		return countResult(sols, count), nil
	}

	if len(sq.OrderBy) > 0 {
		sortSolutions(sols, sq.OrderBy)
	}

	rows := make([]map[string]Term, 0, len(sols))
	seen := map[string]bool{}
	for _, sol := range sols {
		row := make(map[string]Term, len(vars))
		for _, v := range vars {
			if t, ok := sol[v]; ok {
				row[v] = t
			}
		}
		if sq.Distinct {
			key := rowKey(vars, row)
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		rows = append(rows, row)
	}

	offset, _ := strconv.Atoi(sq.Offset)
	if offset > len(rows) {
		offset = len(rows)
	}
	rows = rows[offset:]
	if limit, err := strconv.Atoi(sq.Limit); err == nil && limit < len(rows) {
		rows = rows[:limit]
	}
	return &Result{Vars: vars, Rows: rows}, nil
}

func countResult(sols []solution, c *countProj) *Result {
	target := strings.TrimPrefix(c.Target, "?")
	n := 0
	seen := map[string]bool{}
	for _, sol := range sols {
		var key string
		if c.Target == "*" {
			key = solutionKey(sol)
		} else {
			t, ok := sol[target]
			if !ok {
				continue
			}
			key = t.String()
		}
		if c.Distinct {
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		n++
	}
	as := strings.TrimPrefix(c.As, "?")
	return &Result{
		Vars: []string{as},
		Rows: []map[string]Term{{as: NewLiteral(strconv.Itoa(n), ast.XSDInteger, "")}},
	}
}

func rowKey(vars []string, row map[string]Term) string {
	var b strings.Builder
	for _, v := range vars {
		if t, ok := row[v]; ok {
			b.WriteString(t.String())
		}
		b.WriteByte(0)
	}
	return b.String()
}

func solutionKey(sol solution) string {
	keys := make([]string, 0, len(sol))
	for k := range sol {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return rowKey(keys, map[string]Term(sol))
}

func sortSolutions(sols []solution, conds []*orderCond) {
	sort.SliceStable(sols, func(i, j int) bool {
		for _, c := range conds {
			name, desc := c.Var, false
			if c.Dir != nil {
				name, desc = c.Dir.Var, c.Dir.Dir == "DESC"
			}
			name = strings.TrimPrefix(name, "?")
			a, b := lookup(sols[i], name), lookup(sols[j], name)
			if desc {
				a, b = b, a
			}
			if orderLess(a, b) {
				return true
			}
			if orderLess(b, a) {
				return false
			}
		}
		return false
	})
}

func lookup(sol solution, name string) *Term {
	if t, ok := sol[name]; ok {
		return &t
	}
	return nil
}

// --- Updates ---

func applyUpdate(ctx context.Context, q querier, pro prologue, op *updateOp) error {
	switch {
	case op.InsertData != nil:
		patterns, vars, err := pro.compileTriples(op.InsertData.Triples)
		if err != nil {
			return err
		}
		if len(vars) > 0 {
			return evalErrorf("INSERT DATA cannot contain variables (found ?%s)", vars[0])
		}
		for _, tp := range patterns {
			t, ok := instantiate(tp, solution{})
			if !ok {
				return evalErrorf("invalid triple in INSERT DATA")
			}
			if err := insertTriple(ctx, q, t); err != nil {
				return err
			}
		}
		return nil

	case op.DeleteWhere != nil:
		patterns, _, err := pro.compileTriples(op.DeleteWhere.Triples)
		if err != nil {
			return err
		}
		sols, err := evalBGP(ctx, q, patterns)
		if err != nil {
			return err
		}
		return applyTemplates(ctx, q, sols, patterns, nil)

	case op.Modify != nil:
		cg, err := pro.compileGroup(op.Modify.Where)
		if err != nil {
			return err
		}
		var del, ins []triplePattern
		if op.Modify.Delete != nil {
			if del, _, err = pro.compileTriples(op.Modify.Delete.Triples); err != nil {
				return err
			}
		}
		if op.Modify.Insert != nil {
			if ins, _, err = pro.compileTriples(op.Modify.Insert.Triples); err != nil {
				return err
			}
		}
		sols, err := pro.evalGroup(ctx, q, cg)
		if err != nil {
			return err
		}
		return applyTemplates(ctx, q, sols, del, ins)

	case op.Clear != nil:
		_, err := q.ExecContext(ctx, "DELETE FROM triples")
		return err

	default:
		return evalErrorf("empty update operation")
	}
}

// applyTemplates instantiates the delete and insert templates for every
// solution, then removes all deletions before adding any insertion.
func applyTemplates(ctx context.Context, q querier, sols []solution, del, ins []triplePattern) error {
	var toDelete, toInsert []Triple
	for _, sol := range sols {
		for _, tp := range del {
			if t, ok := instantiate(tp, sol); ok {
				toDelete = append(toDelete, t)
			}
		}
		for _, tp := range ins {
			if t, ok := instantiate(tp, sol); ok {
				toInsert = append(toInsert, t)
			}
		}
	}
	for _, t := range toDelete {
		if err := deleteTriple(ctx, q, t); err != nil {
			return err
		}
	}
	for _, t := range toInsert {
		if err := insertTriple(ctx, q, t); err != nil {
			return err
		}
	}
	return nil
}

func instantiate(tp triplePattern, sol solution) (Triple, bool) {
	s, p, o := resolve(tp.s, sol), resolve(tp.p, sol), resolve(tp.o, sol)
	if s == nil || p == nil || o == nil || s.Kind != KindIRI || p.Kind != KindIRI {
		return Triple{}, false
	}
	return Triple{Subject: s.Value, Predicate: p.Value, Object: *o}, true
}
