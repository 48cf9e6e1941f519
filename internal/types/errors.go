package types

import "fmt"

// StructuralError reports a malformed document container or an unexpected curriculum shape.
type StructuralError struct {
	Source  string
	Message string
	Cause   error
}

func (e *StructuralError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("structural error in %s: %s: %v", e.Source, e.Message, e.Cause)
	}
	return fmt.Sprintf("structural error in %s: %s", e.Source, e.Message)
}

func (e *StructuralError) Unwrap() error {
	return e.Cause
}

// FormatError reports a value that could not be parsed in its expected format.
type FormatError struct {
	Field string
	Value string
	Cause error
}

func (e *FormatError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("format error in %s: %q: %v", e.Field, e.Value, e.Cause)
	}
	return fmt.Sprintf("format error in %s: %q", e.Field, e.Value)
}

func (e *FormatError) Unwrap() error {
	return e.Cause
}

// NotFoundError reports a required item missing from its source.
type NotFoundError struct {
	What    string
	Key     string
	Message string
}

func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %q not found: %s", e.What, e.Key, e.Message)
	}
	return fmt.Sprintf("%s %q not found", e.What, e.Key)
}

// ServiceStateError reports session state the curriculum service failed to hand out.
type ServiceStateError struct {
	Step   string
	Cookie string
}

func (e *ServiceStateError) Error() string {
	return fmt.Sprintf("curriculum service did not set cookie %s during %s", e.Cookie, e.Step)
}

// NetworkError reports a failed or timed-out round trip to the curriculum service.
type NetworkError struct {
	Step       string
	URL        string
	Message    string
	StatusCode int
	Cause      error
}

func (e *NetworkError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("network error during %s (%s): %s: %v", e.Step, e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("network error during %s (%s): %s", e.Step, e.URL, e.Message)
}

func (e *NetworkError) Unwrap() error {
	return e.Cause
}
