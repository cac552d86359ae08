package rdfmap

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/ecotourisme/go-ecosparql/ast"
)

// Property is one predicate/object pair read back for a subject.
type Property struct {
	// Predicate is the full predicate IRI.
	Predicate string
	// Value is the IRI or the literal lexical form.
	Value string
	// IsIRI is true when Value is a resource rather than a literal.
	IsIRI bool
	// Datatype is the literal datatype IRI, if any.
	Datatype string
}

// Types returns the local names of the classes asserted with rdf:type in
// props, in order, skipping IRIs outside the namespace.
func (f *Factory) Types(props []Property) []string {
	var types []string
	for _, p := range props {
		if p.Predicate != ast.RDFType || !p.IsIRI {
			continue
		}
		if name, ok := f.LocalName(p.Value); ok {
			types = append(types, name)
		}
	}
	return types
}

// Hydrate populates target from the properties of uri. Properties without a
// mapped field are ignored. Multi-valued fields accumulate; single-valued
// fields keep the last value seen.
func (f *Factory) Hydrate(target Entity, uri string, props []Property) error {
	info, err := ClassOf(target)
	if err != nil {
		return err
	}
	if err := target.SetURI(uri); err != nil {
		return err
	}

	v := reflect.ValueOf(target).Elem()
	for _, p := range props {
		name, ok := f.LocalName(p.Predicate)
		if !ok {
			continue
		}
		if name == IDProperty {
			id, err := parseInt(p.Value)
			if err != nil {
				return &HydrationError{TypeName: info.Name, Field: IDProperty, Cause: err}
			}
			target.SetID(id)
			continue
		}
		fi, ok := info.FieldByProperty(name)
		if !ok {
			continue
		}
		if err := setFieldValue(v.FieldByIndex(fi.Index), fi, p); err != nil {
			return &HydrationError{TypeName: info.Name, Field: fi.FieldName, Cause: err}
		}
	}
	return nil
}

// HydrateNew creates a new instance of T and hydrates it.
func HydrateNew[T any, PT interface {
	*T
	Entity
}](f *Factory, uri string, props []Property) (PT, error) {
	result := PT(new(T))
	if err := f.Hydrate(result, uri, props); err != nil {
		return nil, err
	}
	return result, nil
}

// HydrateAny creates and hydrates an instance of the most specific registered
// class asserted in props. The returned value is a pointer to the concrete
// struct.
func (f *Factory) HydrateAny(uri string, props []Property) (Entity, error) {
	types := f.Types(props)
	info, ok := MostSpecific(types)
	if !ok {
		return nil, &NotRegisteredError{TypeName: strings.Join(types, "|")}
	}
	e, ok := reflect.New(info.GoType).Interface().(Entity)
	if !ok {
		return nil, fmt.Errorf("hydrate_any: %s does not implement Entity", info.Name)
	}
	if err := f.Hydrate(e, uri, props); err != nil {
		return nil, err
	}
	return e, nil
}

func setFieldValue(field reflect.Value, fi FieldInfo, p Property) error {
	var converted reflect.Value
	if fi.IsRef() {
		converted = reflect.ValueOf(p.Value).Convert(fi.ElemType)
	} else {
		val, err := coerceLexical(p.Value, fi)
		if err != nil {
			return err
		}
		converted = reflect.ValueOf(val).Convert(fi.ElemType)
	}

	switch {
	case fi.IsSlice:
		for i := 0; i < field.Len(); i++ {
			if field.Index(i).Interface() == converted.Interface() {
				return nil
			}
		}
		field.Set(reflect.Append(field, converted))
	case fi.IsPointer:
		ptr := reflect.New(fi.ElemType)
		ptr.Elem().Set(converted)
		field.Set(ptr)
	default:
		field.Set(converted)
	}
	return nil
}

func coerceLexical(lexical string, fi FieldInfo) (any, error) {
	switch fi.Datatype {
	case ast.XSDString:
		return lexical, nil
	case ast.XSDBoolean:
		return coerceToBool(lexical)
	case ast.XSDInteger:
		return coerceToInt64(lexical, fi.ElemType)
	case ast.XSDDecimal:
		return strconv.ParseFloat(strings.TrimSpace(lexical), 64)
	case ast.XSDDate, ast.XSDDateTime:
		return coerceToTime(lexical)
	default:
		return nil, fmt.Errorf("unsupported datatype %s", fi.Datatype)
	}
}

func coerceToBool(s string) (bool, error) {
	switch strings.TrimSpace(s) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("cannot coerce %q to boolean", s)
	}
}

func coerceToInt64(s string, targetType reflect.Type) (any, error) {
	i64, err := parseInt(s)
	if err != nil {
		return nil, err
	}
	switch targetType.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if i64 < 0 {
			return nil, fmt.Errorf("cannot store %d in %s", i64, targetType)
		}
		return uint64(i64), nil
	default:
		return i64, nil
	}
}

// parseInt accepts integer lexical forms and decimals with no fractional
// part, which some stores return for numeric aggregates.
func parseInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int64(f)) {
		return 0, fmt.Errorf("cannot coerce %q to integer", s)
	}
	return int64(f), nil
}

func coerceToTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		ast.DateLayout,
		"2006-01-02Z07:00",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse time string: %q", s)
}
