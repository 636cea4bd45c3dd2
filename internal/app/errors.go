package app

import "errors"

// Kind classifies application errors for transport mapping.
type Kind string

const (
	KindUnauthorized     Kind = "unauthorized"
	KindValidationFailed Kind = "validation_failed"
	KindNotFound         Kind = "not_found"
	KindDuplicateName    Kind = "duplicate_name"
	KindInvalidUser      Kind = "invalid_user"
	KindCategoryNotFound Kind = "category_not_found"
	KindMissingImage     Kind = "missing_image"
	KindStorageError     Kind = "storage_error"
	KindWriteFailed      Kind = "write_failed"
)

// Error is an application-level failure with a stable kind. Fields carries
// per-field messages for validation failures.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// NewError builds an error of the given kind.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError builds an error of the given kind around a cause.
func WrapError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// ValidationError builds a validation failure carrying per-field messages.
func ValidationError(message string, fields map[string]string) *Error {
	return &Error{Kind: KindValidationFailed, Message: message, Fields: fields}
}

// KindOf extracts the kind of an error, defaulting to write_failed for
// anything the taxonomy does not recognize.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindWriteFailed
}
