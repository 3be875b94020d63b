package layout

import "fmt"

// ErrorType represents the category of a catalog loading failure
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeCatalogMissing
	ErrorTypeMalformedEntry
	ErrorTypeInvalidForm
)

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeCatalogMissing:
		return "CATALOG_MISSING"
	case ErrorTypeMalformedEntry:
		return "MALFORMED_ENTRY"
	case ErrorTypeInvalidForm:
		return "INVALID_FORM"
	default:
		return "UNKNOWN"
	}
}

// CatalogError describes why a catalog, or one entry of it, could not be used.
// None of these errors are fatal to a validation run.
type CatalogError struct {
	Type    ErrorType `json:"type"`
	Source  string    `json:"source,omitempty"`
	Field   string    `json:"field,omitempty"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

// ErrCatalogMissing matches any CatalogError of type ErrorTypeCatalogMissing via errors.Is
var ErrCatalogMissing = &CatalogError{Type: ErrorTypeCatalogMissing}

// Error implements the error interface
func (e *CatalogError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Type.String(), e.Message)
	if e.Field != "" {
		msg = fmt.Sprintf("[%s] field %q: %s", e.Type.String(), e.Field, e.Message)
	}
	if e.Source != "" {
		msg += fmt.Sprintf(" (source: %s)", e.Source)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *CatalogError) Unwrap() error {
	return e.Err
}

// Is matches on error type so callers can test against the sentinel values
func (e *CatalogError) Is(target error) bool {
	t, ok := target.(*CatalogError)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

func newCatalogMissing(source, message string, cause error) *CatalogError {
	return &CatalogError{
		Type:    ErrorTypeCatalogMissing,
		Source:  source,
		Message: message,
		Err:     cause,
	}
}
