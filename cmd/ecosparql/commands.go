package main

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ecotourisme/go-ecosparql/ast"
	"github.com/ecotourisme/go-ecosparql/driver"
	"github.com/ecotourisme/go-ecosparql/model"
	"github.com/ecotourisme/go-ecosparql/triplestore"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (a *app) getCmd() *cobra.Command {
	var typed bool
	cmd := &cobra.Command{
		Use:   "get <uri>",
		Short: "Show every property of a resource",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.store()
			if err != nil {
				return err
			}
			if typed {
				e, err := m.LoadAny(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return a.printJSON(map[string]any{"uri": e.GetURI(), "entity": e})
			}
			values, err := m.GetByURI(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(values) == 0 {
				return &triplestore.NotFoundError{URI: args[0]}
			}
			return a.printResources([]triplestore.Resource{{URI: args[0], Properties: values}})
		},
	}
	cmd.Flags().BoolVar(&typed, "entity", false, "decode into the most specific registered class")
	return cmd
}

func (a *app) listCmd() *cobra.Command {
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "list <class>",
		Short: "List the instances of a class, subclasses included",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.store()
			if err != nil {
				return err
			}
			uris, err := m.Query(args[0]).Limit(limit).Offset(offset).Subjects(cmd.Context())
			if err != nil {
				return err
			}
			return a.printList(uris)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of instances")
	cmd.Flags().IntVar(&offset, "offset", 0, "instances to skip")
	return cmd
}

func (a *app) searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <class|*> [property=value...]",
		Short: "Find resources whose properties equal the given values",
		Long: `Find resources of a class whose properties equal the given values.
Use * as the class to search every typed resource.

Values take the datatype the class maps the property to, so prixParNuit=80
matches a stored 80.0. Properties no registered class maps are typed from
their text: integers, decimals, true/false, YYYY-MM-DD dates and absolute
IRIs; anything else is a string.

Example:
  ecosparql search Hotel nombreEtoiles=4 aPiscine=true`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			class := classArg(args[0])
			typed := classTyper(class)
			filters := make(map[string]any, len(args)-1)
			for _, arg := range args[1:] {
				name, raw, ok := strings.Cut(arg, "=")
				if !ok || name == "" {
					return fmt.Errorf("invalid filter %q, want property=value", arg)
				}
				v, err := typed(name, raw)
				if err != nil {
					return err
				}
				filters[name] = v
			}
			m, err := a.store()
			if err != nil {
				return err
			}
			stmts, err := m.Search(cmd.Context(), class, filters)
			if err != nil {
				return err
			}
			return a.printResources(triplestore.GroupBySubject(stmts))
		},
	}
}

var conditionPattern = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_-]*)(>=|<=|!=|=|>|<|~)(.*)$`)

// parseCondition turns "prop<op>value" into a filter, typing the value with
// typed. The ~ operator is a case-insensitive substring match.
func parseCondition(s string, typed valueTyper) (triplestore.Filter, error) {
	m := conditionPattern.FindStringSubmatch(s)
	if m == nil {
		return nil, fmt.Errorf("invalid condition %q, want property<op>value with op one of = != > >= < <= ~", s)
	}
	prop, op, raw := m[1], m[2], m[3]
	if op == "~" {
		return triplestore.Contains(prop, raw), nil
	}
	v, err := typed(prop, raw)
	if err != nil {
		return nil, err
	}
	return &triplestore.ComparisonFilter{Property: prop, Op: op, Value: v}, nil
}

func (a *app) findCmd() *cobra.Command {
	var (
		where   []string
		has     []string
		orderBy string
		desc    bool
		limit   int
		offset  int
		count   bool
	)
	cmd := &cobra.Command{
		Use:   "find <class|*>",
		Short: "Run a filtered, ordered query over a class",
		Long: `Run a filtered, ordered query over a class and print the matching resources.

Example:
  ecosparql find Hebergement --where 'prixParNuit<=120' --where 'nom~lodge' --order noteMoyenne --desc --limit 5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.store()
			if err != nil {
				return err
			}
			class := classArg(args[0])
			q := m.Query(class)
			typed := classTyper(class)
			for _, w := range where {
				f, err := parseCondition(w, typed)
				if err != nil {
					return err
				}
				q.Filter(f)
			}
			for _, h := range has {
				q.Filter(triplestore.Has(h))
			}
			if count {
				n, err := q.Count(cmd.Context())
				if err != nil {
					return err
				}
				return a.printValue(n)
			}
			if orderBy != "" {
				if desc {
					q.OrderDesc(orderBy)
				} else {
					q.OrderAsc(orderBy)
				}
			}
			res, err := q.Limit(limit).Offset(offset).Execute(cmd.Context())
			if err != nil {
				return err
			}
			return a.printResources(res)
		},
	}
	f := cmd.Flags()
	f.StringArrayVarP(&where, "where", "w", nil, "condition property<op>value, repeatable")
	f.StringArrayVar(&has, "has", nil, "require a value for property, repeatable")
	f.StringVar(&orderBy, "order", "", "property to sort on")
	f.BoolVar(&desc, "desc", false, "sort descending")
	f.IntVar(&limit, "limit", 0, "maximum number of resources")
	f.IntVar(&offset, "offset", 0, "resources to skip")
	f.BoolVar(&count, "count", false, "print only the number of matches")
	return cmd
}

func (a *app) reportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report <name> [args...]",
		Short: "Run one of the predefined domain queries",
		Long: `Run one of the predefined domain queries:

  eco-hebergements            lodgings holding an eco certification
  bio-products                organic local products
  zero-emission               transports emitting 0 g CO2/km
  difficulty <level>          activities of a difficulty level
  events <from> <to>          events starting between two YYYY-MM-DD dates
  name <term>                 resources whose name contains term
  touristes <destination-uri> tourists visiting a destination
  certified                   every certified resource`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.store()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			want := func(n int) error {
				if len(args)-1 != n {
					return fmt.Errorf("report %s takes %d argument(s)", args[0], n)
				}
				return nil
			}

			var bindings []driver.Binding
			switch args[0] {
			case "eco-hebergements":
				bindings, err = m.GetEcoHebergements(ctx)
			case "bio-products":
				bindings, err = m.GetBioProducts(ctx)
			case "zero-emission":
				bindings, err = m.GetZeroEmissionTransport(ctx)
			case "certified":
				bindings, err = m.GetCertifiedEntities(ctx)
			case "difficulty":
				if err := want(1); err != nil {
					return err
				}
				level, perr := strconv.Atoi(args[1])
				if perr != nil {
					return fmt.Errorf("difficulty level: %w", perr)
				}
				bindings, err = m.GetActivitiesByDifficulty(ctx, level)
			case "events":
				if err := want(2); err != nil {
					return err
				}
				from, perr := time.Parse(ast.DateLayout, args[1])
				if perr != nil {
					return fmt.Errorf("from: %w", perr)
				}
				to, perr := time.Parse(ast.DateLayout, args[2])
				if perr != nil {
					return fmt.Errorf("to: %w", perr)
				}
				bindings, err = m.GetEventsByDateRange(ctx, from, to)
			case "name":
				if err := want(1); err != nil {
					return err
				}
				bindings, err = m.SearchByName(ctx, args[1])
			case "touristes":
				if err := want(1); err != nil {
					return err
				}
				bindings, err = m.GetTouristesByDestination(ctx, args[1])
			default:
				return fmt.Errorf("unknown report %q", args[0])
			}
			if err != nil {
				return err
			}
			return a.printBindings(bindings)
		},
	}
}

// readText returns the inline expression, or the content of file, or stdin
// when file is "-".
func readText(expr string, args []string, stdin io.Reader) (string, error) {
	if expr != "" {
		return expr, nil
	}
	if len(args) == 0 {
		return "", errors.New("give SPARQL with -e or a file argument (- for stdin)")
	}
	var (
		data []byte
		err  error
	)
	if args[0] == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (a *app) queryCmd() *cobra.Command {
	var expr string
	cmd := &cobra.Command{
		Use:   "query [file|-]",
		Short: "Run a raw SPARQL SELECT query",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(expr, args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			m, err := a.store()
			if err != nil {
				return err
			}
			bindings, err := m.ExecuteQuery(cmd.Context(), text)
			if err != nil {
				return err
			}
			return a.printBindings(bindings)
		},
	}
	cmd.Flags().StringVarP(&expr, "expr", "e", "", "query text")
	return cmd
}

func (a *app) updateCmd() *cobra.Command {
	var expr string
	cmd := &cobra.Command{
		Use:   "exec [file|-]",
		Short: "Run a raw SPARQL update",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(expr, args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			m, err := a.store()
			if err != nil {
				return err
			}
			if err := m.ExecuteUpdate(cmd.Context(), text); err != nil {
				return err
			}
			a.logger.Info("update applied")
			return nil
		},
	}
	cmd.Flags().StringVarP(&expr, "expr", "e", "", "update text")
	return cmd
}

func (a *app) setCmd() *cobra.Command {
	var asString bool
	cmd := &cobra.Command{
		Use:   "set <uri> <property> <value>",
		Short: "Replace every value of a property",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.store()
			if err != nil {
				return err
			}
			var value any = args[2]
			if !asString {
				typed, err := subjectTyper(cmd.Context(), m, args[0])
				if err != nil {
					return err
				}
				if value, err = typed(args[1], args[2]); err != nil {
					return err
				}
			}
			return m.UpdateProperty(cmd.Context(), args[0], args[1], value, asString)
		},
	}
	cmd.Flags().BoolVar(&asString, "string", false, "store the value as xsd:string without type detection")
	return cmd
}

func (a *app) casCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update <uri> <property> <old> <new>",
		Short: "Replace a value only if the resource still holds the old one",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.store()
			if err != nil {
				return err
			}
			typed, err := subjectTyper(cmd.Context(), m, args[0])
			if err != nil {
				return err
			}
			oldValue, err := typed(args[1], args[2])
			if err != nil {
				return err
			}
			newValue, err := typed(args[1], args[3])
			if err != nil {
				return err
			}
			err = m.Update(cmd.Context(), args[0], args[1], oldValue, newValue)
			var noMatch *triplestore.NoMatchError
			if errors.As(err, &noMatch) {
				a.logger.Warn("value changed concurrently, nothing written", zap.String("uri", noMatch.URI))
			}
			return err
		},
	}
}

func (a *app) unsetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unset <uri> <property>",
		Short: "Remove every value of a property",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.store()
			if err != nil {
				return err
			}
			return m.DeleteProperty(cmd.Context(), args[0], args[1])
		},
	}
}

func (a *app) deleteCmd() *cobra.Command {
	var cascade bool
	cmd := &cobra.Command{
		Use:   "delete <uri>...",
		Short: "Delete resources",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.store()
			if err != nil {
				return err
			}
			for _, uri := range args {
				if cascade {
					err = m.DeleteCascade(cmd.Context(), uri)
				} else {
					err = m.Delete(cmd.Context(), uri)
				}
				if err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&cascade, "cascade", false, "also remove triples pointing at the resource")
	return cmd
}

func (a *app) exportCmd() *cobra.Command {
	var (
		out     string
		classes []string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a snapshot of the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.store()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer func() { _ = f.Close() }()
				w = f
			}
			n, err := m.Export(cmd.Context(), w, classes...)
			if err != nil {
				return err
			}
			a.logger.Info("snapshot written", zap.Int("triples", n), zap.String("out", out))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	cmd.Flags().StringSliceVar(&classes, "class", nil, "export only these classes")
	return cmd
}

func (a *app) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Load a snapshot written by export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.store()
			if err != nil {
				return err
			}
			r := cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer func() { _ = f.Close() }()
				r = f
			}
			n, err := m.Import(cmd.Context(), r)
			if err != nil {
				return fmt.Errorf("import stopped after %d triples: %w", n, err)
			}
			return a.printValue(n)
		},
	}
}

func (a *app) syncOntologyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync-ontology",
		Short: "Declare the registered classes and their hierarchy in the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.store()
			if err != nil {
				return err
			}
			n, err := m.SyncOntology(cmd.Context())
			if err != nil {
				return err
			}
			return a.printValue(n)
		},
	}
}

func (a *app) classifyCmd() *cobra.Command {
	var grams bool
	cmd := &cobra.Command{
		Use:   "classify <kg-co2>",
		Short: "Show the footprint band of a CO2 quantity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid quantity: %w", err)
			}
			if grams {
				v = model.GramsToKilograms(v)
			}
			c := model.Classify(v)
			if a.jsonOut {
				return a.printJSON(map[string]any{
					"kg": v, "category": c.Label(), "color": c.Color(), "emoji": c.Emoji(),
				})
			}
			_, err = fmt.Fprintf(a.out, "%s %s (%s, %g kg)\n", c.Emoji(), c.Label(), c.Color(), v)
			return err
		},
	}
	cmd.Flags().BoolVar(&grams, "grams", false, "the quantity is in grams")
	return cmd
}

// classArg maps the "*" wildcard to the any-class query.
func classArg(s string) string {
	if s == "*" {
		return ""
	}
	return s
}

// parseValue types command-line text: integers, decimals, booleans,
// YYYY-MM-DD dates and absolute IRIs; anything else stays a string.
func parseValue(s string) any {
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	if d, err := time.Parse(ast.DateLayout, s); err == nil {
		return d
	}
	if strings.Contains(s, "://") && ast.IsIRI(s) {
		return ast.I(s)
	}
	return s
}
