package ast

import (
	"fmt"
	"math"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/knakk/rdf"
)

// XSD datatype IRIs used by the entity layer and typed filters.
const (
	XSDNamespace = "http://www.w3.org/2001/XMLSchema#"
	XSDString    = XSDNamespace + "string"
	XSDInteger   = XSDNamespace + "integer"
	XSDDecimal   = XSDNamespace + "decimal"
	XSDDouble    = XSDNamespace + "double"
	XSDBoolean   = XSDNamespace + "boolean"
	XSDDate      = XSDNamespace + "date"
	XSDDateTime  = XSDNamespace + "dateTime"

	RDFType = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"

	RDFSNamespace  = "http://www.w3.org/2000/01/rdf-schema#"
	RDFSClass      = RDFSNamespace + "Class"
	RDFSSubClassOf = RDFSNamespace + "subClassOf"
)

// XSDPrefix is the prologue declaration every generated query carries.
var XSDPrefix = Prefix{Name: "xsd", IRI: XSDNamespace}

// DateLayout is the lexical layout of xsd:date values.
const DateLayout = "2006-01-02"

var localNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// InvalidIRIError is returned when a string cannot be used as an absolute IRI.
type InvalidIRIError struct {
	IRI    string
	Reason string
}

func (e *InvalidIRIError) Error() string {
	return fmt.Sprintf("invalid IRI %q: %s", e.IRI, e.Reason)
}

// InvalidNameError is returned when a class or property local name is not
// a safe IRI suffix.
type InvalidNameError struct {
	Name string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid local name %q: must match %s", e.Name, localNamePattern.String())
}

// ValidateIRI checks that s is an absolute IRI that can be rendered between
// angle brackets without breaking out of them.
func ValidateIRI(s string) error {
	if s == "" {
		return &InvalidIRIError{IRI: s, Reason: "empty"}
	}
	if strings.ContainsAny(s, "<>\"{}|^`\\") {
		return &InvalidIRIError{IRI: s, Reason: "contains a forbidden character"}
	}
	for _, r := range s {
		if r <= 0x20 || r == 0x7f {
			return &InvalidIRIError{IRI: s, Reason: "contains whitespace or a control character"}
		}
	}
	if _, err := rdf.NewIRI(s); err != nil {
		return &InvalidIRIError{IRI: s, Reason: err.Error()}
	}
	u, err := url.Parse(s)
	if err != nil {
		return &InvalidIRIError{IRI: s, Reason: err.Error()}
	}
	if u.Scheme == "" {
		return &InvalidIRIError{IRI: s, Reason: "not absolute"}
	}
	return nil
}

// IsIRI reports whether s is a valid absolute IRI.
func IsIRI(s string) bool {
	return ValidateIRI(s) == nil
}

// ValidateLocalName checks that name can be appended to a namespace IRI.
func ValidateLocalName(name string) error {
	if !localNamePattern.MatchString(name) {
		return &InvalidNameError{Name: name}
	}
	return nil
}

// EscapeString escapes special characters in a string for use in a quoted
// SPARQL literal.
func EscapeString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	s = strings.ReplaceAll(s, "\r", `\r`)
	s = strings.ReplaceAll(s, "\t", `\t`)
	return s
}

// UnescapeString reverses EscapeString and the other ECHAR escapes.
func UnescapeString(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// String returns a plain string literal.
func String(s string) Literal {
	return Literal{Lexical: s}
}

// TypedString returns an explicitly typed xsd:string literal.
func TypedString(s string) Literal {
	return Literal{Lexical: s, Datatype: XSDString}
}

// Integer returns an xsd:integer literal.
func Integer(n int64) Literal {
	return Literal{Lexical: strconv.FormatInt(n, 10), Datatype: XSDInteger}
}

// Decimal returns an xsd:decimal literal. xsd:decimal has no exponent form,
// so the value is always written in plain positional notation.
func Decimal(f float64) Literal {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	return Literal{Lexical: s, Datatype: XSDDecimal}
}

// Boolean returns an xsd:boolean literal, rendered as a bare token.
func Boolean(b bool) Literal {
	return Literal{Lexical: strconv.FormatBool(b), Datatype: XSDBoolean}
}

// Date returns an xsd:date literal for the calendar day of t.
func Date(t time.Time) Literal {
	return Literal{Lexical: t.Format(DateLayout), Datatype: XSDDate}
}

// DateTime returns an xsd:dateTime literal.
func DateTime(t time.Time) Literal {
	return Literal{Lexical: t.Format(time.RFC3339Nano), Datatype: XSDDateTime}
}

// TermFromGo converts a Go value into the RDF term used for it in generated
// queries. Strings become plain literals, integers xsd:integer, floats
// xsd:decimal, booleans bare tokens and times xsd:date (or xsd:dateTime when
// they carry a clock component). Terms pass through unchanged.
func TermFromGo(value any) (Term, error) {
	if value == nil {
		return nil, fmt.Errorf("cannot convert nil to an RDF term")
	}

	v := reflect.ValueOf(value)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, fmt.Errorf("cannot convert nil %s to an RDF term", v.Type())
		}
		v = v.Elem()
		value = v.Interface()
	}

	switch val := value.(type) {
	case Term:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Boolean(val), nil
	case int, int8, int16, int32, int64:
		return Integer(v.Int()), nil
	case uint, uint8, uint16, uint32, uint64:
		return Literal{Lexical: strconv.FormatUint(v.Uint(), 10), Datatype: XSDInteger}, nil
	case float32, float64:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("cannot convert %v to xsd:decimal", f)
		}
		return Decimal(f), nil
	case time.Time:
		if isMidnight(val) {
			return Date(val), nil
		}
		return DateTime(val), nil
	case fmt.Stringer:
		return String(val.String()), nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", value)
	}
}

// FormatGoValue converts a Go value into its SPARQL term text.
// This is the canonical formatting function for Go values; other packages
// should use it instead of implementing their own literal formatting.
func FormatGoValue(value any) (string, error) {
	t, err := TermFromGo(value)
	if err != nil {
		return "", err
	}
	c := Compiler{}
	return c.compileTerm(t)
}

func isMidnight(t time.Time) bool {
	h, m, s := t.Clock()
	return h == 0 && m == 0 && s == 0 && t.Nanosecond() == 0
}
