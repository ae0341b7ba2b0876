package service

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	ErrorValidation  ErrorKind = "validation"
	ErrorConflict    ErrorKind = "conflict"
	ErrorAuth        ErrorKind = "auth"
	ErrorNotFound    ErrorKind = "not_found"
	ErrorPersistence ErrorKind = "persistence"
)

// ServiceError is the classified failure every operation returns. Message is
// safe to show to clients; Cause holds the underlying store or library error.
type ServiceError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error { return e.Cause }

func NewValidationError(msg string) error { return &ServiceError{Kind: ErrorValidation, Message: msg} }
func NewConflictError(msg string) error   { return &ServiceError{Kind: ErrorConflict, Message: msg} }
func NewAuthError(msg string) error       { return &ServiceError{Kind: ErrorAuth, Message: msg} }
func NewNotFoundError(msg string) error   { return &ServiceError{Kind: ErrorNotFound, Message: msg} }

func NewPersistenceError(msg string, cause error) error {
	return &ServiceError{Kind: ErrorPersistence, Message: msg, Cause: cause}
}

func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsKind reports whether err is a ServiceError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	se, ok := AsServiceError(err)
	return ok && se.Kind == kind
}
