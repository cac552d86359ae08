package rdfmap

import (
	"fmt"
	"reflect"
	"time"

	"github.com/ecotourisme/go-ecosparql/ast"
)

var (
	baseType = reflect.TypeOf(Base{})
	timeType = reflect.TypeOf(time.Time{})
)

// FieldInfo contains metadata about a single mapped field, including fields
// inherited from parent class structs.
type FieldInfo struct {
	// Tag is the parsed 'rdf' struct tag.
	Tag FieldTag
	// FieldName is the name of the field in the Go struct.
	FieldName string
	// Index is the field path for reflect.Value.FieldByIndex; inherited fields
	// are reached through the embedded parent struct.
	Index []int
	// FieldType is the reflection type of the field.
	FieldType reflect.Type
	// IsPointer is true for optional scalar properties.
	IsPointer bool
	// IsSlice is true for multi-valued properties.
	IsSlice bool
	// ElemType is the scalar type behind pointers and slices.
	ElemType reflect.Type
	// Datatype is the XSD datatype IRI of literal values. It is empty for
	// reference fields.
	Datatype string
}

// Property returns the property local name.
func (fi FieldInfo) Property() string { return fi.Tag.Name }

// IsRef reports whether the field holds IRIs of other resources.
func (fi FieldInfo) IsRef() bool { return fi.Tag.Ref }

// ClassInfo contains metadata about a registered ontology class and its
// mapping to a Go struct.
type ClassInfo struct {
	// GoType is the reflection type of the Go struct.
	GoType reflect.Type
	// Name is the class local name, the Go type name.
	Name string
	// Parent is the direct superclass name, empty for root classes.
	Parent string
	// Ancestors lists every superclass from the direct parent to the root.
	Ancestors []string
	// Fields lists own and inherited properties in declaration order,
	// parents first.
	Fields []FieldInfo
}

// FieldByProperty retrieves FieldInfo by property local name.
func (c *ClassInfo) FieldByProperty(name string) (FieldInfo, bool) {
	for _, f := range c.Fields {
		if f.Tag.Name == name {
			return f, true
		}
	}
	return FieldInfo{}, false
}

// FieldByName retrieves FieldInfo by Go struct field name.
func (c *ClassInfo) FieldByName(name string) (FieldInfo, bool) {
	for _, f := range c.Fields {
		if f.FieldName == name {
			return f, true
		}
	}
	return FieldInfo{}, false
}

// Types returns the class followed by its ancestors, most specific first.
func (c *ClassInfo) Types() []string {
	return append([]string{c.Name}, c.Ancestors...)
}

// IsA reports whether the class is name or one of its subclasses.
func (c *ClassInfo) IsA(name string) bool {
	for _, t := range c.Types() {
		if t == name {
			return true
		}
	}
	return false
}

// ExtractClassInfo analyzes a Go struct type and extracts its class metadata.
// The struct must embed Base or another mapped class struct; the latter makes
// it a subclass inheriting the parent's properties.
func ExtractClassInfo(t reflect.Type) (*ClassInfo, error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, &TagError{TypeName: t.String(), Cause: fmt.Errorf("expected struct, got %s", t.Kind())}
	}

	info := &ClassInfo{GoType: t, Name: t.Name()}
	if err := ast.ValidateLocalName(info.Name); err != nil {
		return nil, &TagError{TypeName: t.String(), Cause: err}
	}

	rooted := false
	seen := make(map[string]string)
	add := func(fi FieldInfo) error {
		if prev, ok := seen[fi.Tag.Name]; ok {
			return &TagError{TypeName: info.Name, Field: fi.FieldName,
				Cause: fmt.Errorf("property %q already mapped by %s", fi.Tag.Name, prev)}
		}
		seen[fi.Tag.Name] = fi.FieldName
		info.Fields = append(info.Fields, fi)
		return nil
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Anonymous {
			if field.Type == baseType {
				rooted = true
				continue
			}
			if field.Type.Kind() == reflect.Struct && embedsBase(field.Type) {
				if info.Parent != "" {
					return nil, &TagError{TypeName: info.Name, Field: field.Name,
						Cause: fmt.Errorf("multiple parent classes %s and %s", info.Parent, field.Type.Name())}
				}
				parent, err := ExtractClassInfo(field.Type)
				if err != nil {
					return nil, err
				}
				info.Parent = parent.Name
				info.Ancestors = parent.Types()
				for _, pf := range parent.Fields {
					pf.Index = append([]int{i}, pf.Index...)
					if err := add(pf); err != nil {
						return nil, err
					}
				}
				rooted = true
				continue
			}
		}

		if !field.IsExported() {
			continue
		}

		tagStr := field.Tag.Get("rdf")
		if tagStr == "" || tagStr == "-" {
			continue
		}

		tag, err := ParseTag(tagStr)
		if err != nil {
			return nil, &TagError{TypeName: info.Name, Field: field.Name, Cause: err}
		}
		if tag.Skip {
			continue
		}
		if err := ast.ValidateLocalName(tag.Name); err != nil {
			return nil, &TagError{TypeName: info.Name, Field: field.Name, Cause: err}
		}
		if tag.Name == IDProperty {
			return nil, &TagError{TypeName: info.Name, Field: field.Name,
				Cause: fmt.Errorf("property %q is reserved for the identifier", IDProperty)}
		}

		fi, err := buildFieldInfo(field, i, tag)
		if err != nil {
			return nil, &TagError{TypeName: info.Name, Field: field.Name, Cause: err}
		}
		if err := add(fi); err != nil {
			return nil, err
		}
	}

	if !rooted {
		return nil, &TagError{TypeName: info.Name, Cause: fmt.Errorf("must embed rdfmap.Base or a mapped class")}
	}
	return info, nil
}

func embedsBase(t reflect.Type) bool {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.Anonymous {
			continue
		}
		if f.Type == baseType {
			return true
		}
		if f.Type.Kind() == reflect.Struct && embedsBase(f.Type) {
			return true
		}
	}
	return false
}

func buildFieldInfo(field reflect.StructField, index int, tag FieldTag) (FieldInfo, error) {
	fi := FieldInfo{
		Tag:       tag,
		FieldName: field.Name,
		Index:     []int{index},
		FieldType: field.Type,
		ElemType:  field.Type,
	}

	ft := field.Type
	switch ft.Kind() {
	case reflect.Ptr:
		fi.IsPointer = true
		ft = ft.Elem()
	case reflect.Slice:
		fi.IsSlice = true
		ft = ft.Elem()
	}
	fi.ElemType = ft

	if tag.Ref {
		if ft.Kind() != reflect.String || fi.IsPointer {
			return FieldInfo{}, fmt.Errorf("reference field must be string or []string, got %s", field.Type)
		}
		return fi, nil
	}

	dt, err := datatypeFor(ft, tag)
	if err != nil {
		return FieldInfo{}, err
	}
	fi.Datatype = dt
	return fi, nil
}

// datatypeFor maps Go types to XSD datatype IRIs.
func datatypeFor(t reflect.Type, tag FieldTag) (string, error) {
	if t == timeType {
		if tag.DateTime {
			return ast.XSDDateTime, nil
		}
		return ast.XSDDate, nil
	}
	if tag.DateTime {
		return "", fmt.Errorf("datetime option requires time.Time, got %s", t)
	}
	switch t.Kind() {
	case reflect.String:
		return ast.XSDString, nil
	case reflect.Bool:
		return ast.XSDBoolean, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return ast.XSDInteger, nil
	case reflect.Float32, reflect.Float64:
		return ast.XSDDecimal, nil
	default:
		return "", fmt.Errorf("unsupported field type %s", t)
	}
}
