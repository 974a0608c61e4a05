package types

import "errors"

// Filter narrows Table.Fetch. Keys are column names (board_id, user_id, ...)
// and the recognised keys depend on the table. An empty filter matches all.
type Filter map[string]any

// Table provides uniform CRUD operations for a single entity type.
// Get and Fetch return any; callers type-assert to the concrete entity struct.
type Table interface {
	// Get retrieves the entity with the given ID.
	// Returns ErrNotFound if no entity exists with that ID.
	Get(id string) (any, error)

	// Set creates or updates an entity. When id is empty a new UUID v7 is
	// generated. Returns the actual ID used (generated or provided).
	Set(id string, data any) (string, error)

	// Delete removes the entity with the given ID.
	// Returns ErrNotFound if no entity exists with that ID.
	Delete(id string) error

	// Fetch returns all entities matching the filter.
	Fetch(filter Filter) ([]any, error)
}

// Table operation errors.
var (
	ErrNotFound      = errors.New("entity not found")
	ErrInvalidID     = errors.New("invalid entity ID")
	ErrInvalidData   = errors.New("invalid entity data")
	ErrInvalidFilter = errors.New("invalid filter value type")
)

// Validation errors. Every one of them is reported before any write happens.
var (
	ErrInvalidName         = errors.New("invalid name")
	ErrInvalidPropertyType = errors.New("invalid property type")
	ErrInvalidValue        = errors.New("invalid property value")
	ErrRequiredValue       = errors.New("required property has no value")
	ErrInvalidOperator     = errors.New("operator not supported for property type")
	ErrNotSortable         = errors.New("property type is not sortable")
	ErrNotGroupable        = errors.New("property type is not groupable")
	ErrInvalidAggregation  = errors.New("aggregation not supported for property type")
	ErrInvalidView         = errors.New("invalid view")
	ErrInvalidIndex        = errors.New("index out of range")
	ErrDuplicateID         = errors.New("duplicate ID")
	ErrInvalidRole         = errors.New("invalid role")
	ErrInvalidVisibility   = errors.New("invalid board visibility")
	ErrInvalidInvitation   = errors.New("invitation is not pending")
	ErrOwnerImmutable      = errors.New("board owner membership cannot be changed directly")
)

// Lookup errors more specific than ErrNotFound. Each wraps ErrNotFound.
var (
	ErrPropertyNotFound = notFound("property not found")
	ErrOptionNotFound   = notFound("option not found")
	ErrMemberNotFound   = notFound("member not found")
)

// ErrForbidden is returned when the access resolver denies an operation,
// including edits outside an assigned-only edit scope.
var ErrForbidden = errors.New("forbidden")

var validationErrors = []error{
	ErrInvalidID, ErrInvalidData, ErrInvalidFilter,
	ErrInvalidName, ErrInvalidPropertyType, ErrInvalidValue, ErrRequiredValue,
	ErrInvalidOperator, ErrNotSortable, ErrNotGroupable, ErrInvalidAggregation,
	ErrInvalidView, ErrInvalidIndex, ErrDuplicateID, ErrInvalidRole,
	ErrInvalidVisibility, ErrInvalidInvitation, ErrOwnerImmutable,
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsNotFound reports whether err means an entity is absent.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsForbidden reports whether err is an access denial.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

type notFoundError struct{ msg string }

func notFound(msg string) error { return &notFoundError{msg: msg} }

func (e *notFoundError) Error() string { return e.msg }

func (e *notFoundError) Unwrap() error { return ErrNotFound }
