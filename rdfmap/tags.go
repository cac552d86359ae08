package rdfmap

import (
	"fmt"
	"strings"
)

// FieldTag contains the structured representation of a parsed `rdf` struct tag.
type FieldTag struct {
	// Name is the property local name, appended to the namespace.
	Name string
	// Ref marks the field as holding IRIs of other resources.
	Ref bool
	// DateTime stores a time.Time field as xsd:dateTime instead of xsd:date.
	DateTime bool
	// Skip indicates the field should be ignored by the mapper.
	Skip bool
}

// ParseTag parses the content of an `rdf` struct tag into a FieldTag.
// The first element is the property name; the options "ref" and "datetime"
// may follow.
func ParseTag(tag string) (FieldTag, error) {
	if tag == "" || tag == "-" {
		return FieldTag{Skip: tag == "-"}, nil
	}

	parts := strings.Split(tag, ",")
	ft := FieldTag{Name: strings.TrimSpace(parts[0])}
	if ft.Name == "" {
		return FieldTag{}, fmt.Errorf("missing property name in tag %q", tag)
	}

	for _, part := range parts[1:] {
		switch strings.TrimSpace(part) {
		case "":
		case "ref":
			ft.Ref = true
		case "datetime":
			ft.DateTime = true
		default:
			return FieldTag{}, fmt.Errorf("unknown tag option: %q", part)
		}
	}
	if ft.Ref && ft.DateTime {
		return FieldTag{}, fmt.Errorf("tag %q: ref and datetime are exclusive", tag)
	}
	return ft, nil
}
