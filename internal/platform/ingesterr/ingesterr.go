package ingesterr

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedEntry matches any *MalformedEntryError.
	ErrMalformedEntry = errors.New("malformed entry")
	// ErrSchemaAssumption matches any *SchemaAssumptionError.
	ErrSchemaAssumption = errors.New("schema assumption violated")
	// ErrStoreUnavailable matches any *StoreUnavailableError.
	ErrStoreUnavailable = errors.New("graph store unavailable")
)

// MalformedEntryError reports a source field whose shape the normalizer
// cannot map. Field is the source key ("" for the entry itself).
type MalformedEntryError struct {
	Field  string
	Reason string
}

func (e *MalformedEntryError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field == "" {
		return fmt.Sprintf("malformed entry: %s", e.Reason)
	}
	return fmt.Sprintf("malformed entry field %q: %s", e.Field, e.Reason)
}

func (e *MalformedEntryError) Is(target error) bool { return target == ErrMalformedEntry }

func Malformed(field, format string, args ...any) *MalformedEntryError {
	return &MalformedEntryError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// SchemaAssumptionError reports a structural assumption a projection makes
// about its sub-record that does not hold.
type SchemaAssumptionError struct {
	Projection string
	Reason     string
}

func (e *SchemaAssumptionError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s projection: %s", e.Projection, e.Reason)
}

func (e *SchemaAssumptionError) Is(target error) bool { return target == ErrSchemaAssumption }

func SchemaAssumption(projection, format string, args ...any) *SchemaAssumptionError {
	return &SchemaAssumptionError{Projection: projection, Reason: fmt.Sprintf(format, args...)}
}

// StoreUnavailableError carries the statement that the graph store rejected
// or could not execute.
type StoreUnavailableError struct {
	Statement string
	Params    map[string]any
	Err       error
}

func (e *StoreUnavailableError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return ErrStoreUnavailable.Error()
	}
	return fmt.Sprintf("%s: %v", ErrStoreUnavailable.Error(), e.Err)
}

func (e *StoreUnavailableError) Unwrap() error { return e.Err }

func (e *StoreUnavailableError) Is(target error) bool { return target == ErrStoreUnavailable }
