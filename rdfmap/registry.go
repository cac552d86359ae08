package rdfmap

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

var (
	globalRegistry = &Registry{
		byName: make(map[string]*ClassInfo),
		byType: make(map[reflect.Type]*ClassInfo),
	}
)

// Registry maintains a mapping between Go struct types and class metadata.
// It is used to look up mapping information during serialization, queries and
// hydration.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*ClassInfo
	byType map[reflect.Type]*ClassInfo
}

// Register adds a Go struct type to the global registry as an ontology class.
// The type T must embed Base or a mapped parent class.
func Register[T any]() error {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil {
		return fmt.Errorf("registering: type parameter must be a struct type")
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	info, err := ExtractClassInfo(t)
	if err != nil {
		return fmt.Errorf("registering %s: %w", t.Name(), err)
	}

	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()

	if existing, ok := globalRegistry.byName[info.Name]; ok {
		if existing.GoType != t {
			return fmt.Errorf("class name %q already registered to %s", info.Name, existing.GoType.String())
		}
	}

	globalRegistry.byName[info.Name] = info
	globalRegistry.byType[t] = info
	return nil
}

// MustRegister is a helper that calls Register and panics if an error occurs.
// It is intended for use during application initialization.
func MustRegister[T any]() {
	if err := Register[T](); err != nil {
		panic(err)
	}
}

// Lookup retrieves ClassInfo for a class name.
func Lookup(name string) (*ClassInfo, bool) {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()
	info, ok := globalRegistry.byName[name]
	return info, ok
}

// LookupType retrieves ClassInfo for a given Go reflect.Type.
func LookupType(t reflect.Type) (*ClassInfo, bool) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()
	info, ok := globalRegistry.byType[t]
	return info, ok
}

// ClassOf returns the registered class of an entity instance.
func ClassOf(e Entity) (*ClassInfo, error) {
	t := reflect.TypeOf(e)
	info, ok := LookupType(t)
	if !ok {
		if t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		return nil, &NotRegisteredError{TypeName: t.Name()}
	}
	return info, nil
}

// RegisteredClasses returns every registered class sorted by name.
func RegisteredClasses() []*ClassInfo {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()
	result := make([]*ClassInfo, 0, len(globalRegistry.byName))
	for _, info := range globalRegistry.byName {
		result = append(result, info)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// SubclassesOf returns the registered direct subclasses of name, sorted.
func SubclassesOf(name string) []*ClassInfo {
	var result []*ClassInfo
	for _, info := range RegisteredClasses() {
		if info.Parent == name {
			result = append(result, info)
		}
	}
	return result
}

// MostSpecific picks the registered class with the deepest hierarchy among
// the given class names. Unregistered names are ignored. Ties resolve to the
// lexically smallest name.
func MostSpecific(names []string) (*ClassInfo, bool) {
	var best *ClassInfo
	for _, n := range names {
		info, ok := Lookup(n)
		if !ok {
			continue
		}
		if best == nil ||
			len(info.Ancestors) > len(best.Ancestors) ||
			(len(info.Ancestors) == len(best.Ancestors) && info.Name < best.Name) {
			best = info
		}
	}
	return best, best != nil
}

// ClearRegistry resets the global registry, removing all registered classes.
// This is primarily used for testing purposes.
func ClearRegistry() {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	globalRegistry.byName = make(map[string]*ClassInfo)
	globalRegistry.byType = make(map[reflect.Type]*ClassInfo)
}
