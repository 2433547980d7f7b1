package runtime

import (
	"errors"
	"fmt"
)

// RuntimeError reports a rejected instance lifecycle operation.
type RuntimeError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// ID is the string form of the affected instance or type.
	ID string
}

// ErrorCode categorizes runtime errors.
type ErrorCode string

const (
	// ErrCodeUnknownType indicates the catalog has no declaration for a type.
	ErrCodeUnknownType ErrorCode = "UNKNOWN_TYPE"

	// ErrCodeEntityExists indicates an entity with the same id is registered.
	ErrCodeEntityExists ErrorCode = "ENTITY_EXISTS"

	// ErrCodeEntityNotFound indicates no entity with the id is registered.
	ErrCodeEntityNotFound ErrorCode = "ENTITY_NOT_FOUND"

	// ErrCodeRelationExists indicates a relation with the same id is registered.
	ErrCodeRelationExists ErrorCode = "RELATION_EXISTS"

	// ErrCodeRelationNotFound indicates no relation with the id is registered.
	ErrCodeRelationNotFound ErrorCode = "RELATION_NOT_FOUND"

	// ErrCodeInvalidEndpoint indicates an endpoint does not match the
	// relation type's declared outbound or inbound entity type.
	ErrCodeInvalidEndpoint ErrorCode = "INVALID_ENDPOINT"
)

func (e *RuntimeError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s: %s (id=%s)", e.Code, e.Message, e.ID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code ErrorCode, id any, format string, args ...any) *RuntimeError {
	return &RuntimeError{Code: code, Message: fmt.Sprintf(format, args...), ID: fmt.Sprint(id)}
}

// ErrorCodeOf returns the code of a RuntimeError in err's chain, or "".
func ErrorCodeOf(err error) ErrorCode {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsNotFound reports whether err is an entity or relation lookup failure.
// Uses errors.As to handle wrapped errors.
func IsNotFound(err error) bool {
	code := ErrorCodeOf(err)
	return code == ErrCodeEntityNotFound || code == ErrCodeRelationNotFound
}

// IsExists reports whether err is a duplicate registration.
func IsExists(err error) bool {
	code := ErrorCodeOf(err)
	return code == ErrCodeEntityExists || code == ErrCodeRelationExists
}

// IsUnknownType reports whether err is a missing catalog declaration.
func IsUnknownType(err error) bool {
	return ErrorCodeOf(err) == ErrCodeUnknownType
}
