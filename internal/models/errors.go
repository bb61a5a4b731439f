package models

import "fmt"

// ValidationError represents a rejected request parameter
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsTransient returns false as validation errors are permanent
func (e *ValidationError) IsTransient() bool {
	return false
}

// NotFoundError represents a lookup miss on a closed set of keys
// (station codes, display names, variables, model runs, products).
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) IsTransient() bool {
	return false
}

// EmptyRangeError signals that a chart request produced no displayable
// points. The payload returned alongside it is still valid.
type EmptyRangeError struct {
	StationCode string
	Years       YearRange
}

func (e *EmptyRangeError) Error() string {
	return fmt.Sprintf("no data for station %s in %d-%d", e.StationCode, e.Years.Begin, e.Years.End)
}

func (e *EmptyRangeError) IsTransient() bool {
	return false
}

// InitializationError wraps any fetch or parse failure while building the
// dataset store. It is fatal to the process.
type InitializationError struct {
	Resource string
	Err      error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("failed to load %s: %v", e.Resource, e.Err)
}

func (e *InitializationError) Unwrap() error {
	return e.Err
}

// IsTransient reports true: a remote fetch may succeed on a later start.
func (e *InitializationError) IsTransient() bool {
	return true
}
