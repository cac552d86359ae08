package rdfmap

import "fmt"

// NotRegisteredError is returned when an operation is attempted on a Go type
// or class name that has not been registered.
type NotRegisteredError struct {
	TypeName string
}

// Error returns the error message for NotRegisteredError.
func (e *NotRegisteredError) Error() string {
	return fmt.Sprintf("type %q is not registered", e.TypeName)
}

// TagError is returned when a struct cannot be mapped because of an invalid
// tag, field type or name.
type TagError struct {
	TypeName string
	Field    string
	Cause    error
}

// Error returns the error message for TagError.
func (e *TagError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("mapping %s: %v", e.TypeName, e.Cause)
	}
	return fmt.Sprintf("mapping %s.%s: %v", e.TypeName, e.Field, e.Cause)
}

// Unwrap returns the underlying cause of the TagError.
func (e *TagError) Unwrap() error {
	return e.Cause
}

// HydrationError is returned when an error occurs while populating a Go struct
// with values read back from the store.
type HydrationError struct {
	TypeName string
	Field    string
	Cause    error
}

// Error returns the error message for HydrationError.
func (e *HydrationError) Error() string {
	return fmt.Sprintf("hydrating %s.%s: %v", e.TypeName, e.Field, e.Cause)
}

// Unwrap returns the underlying cause of the HydrationError.
func (e *HydrationError) Unwrap() error {
	return e.Cause
}
