package triplestore

import "fmt"

// NoMatchError is returned by Manager.Update when the subject does not carry
// the expected old value, so no change was applied.
type NoMatchError struct {
	URI      string
	Property string
}

// Error returns the error message for NoMatchError.
func (e *NoMatchError) Error() string {
	return fmt.Sprintf("update %s: no %s triple holds the expected value", e.URI, e.Property)
}

// NotFoundError is returned when a subject has no triples in the store.
type NotFoundError struct {
	URI string
}

// Error returns the error message for NotFoundError.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("resource %s not found", e.URI)
}

// SnapshotError is returned when a snapshot stream cannot be decoded.
type SnapshotError struct {
	Message string
	Cause   error
}

// Error returns the error message for SnapshotError.
func (e *SnapshotError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("snapshot: %s: %v", e.Message, e.Cause)
	}
	return "snapshot: " + e.Message
}

// Unwrap returns the underlying cause of the SnapshotError.
func (e *SnapshotError) Unwrap() error {
	return e.Cause
}
