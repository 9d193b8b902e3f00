// Package apperrors defines the error taxonomy shared by services and entry
// points. Services return *Error values; entry points map the Kind to a
// status code or a chat message without further business logic.
package apperrors

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Kind classifies an error for the caller
type Kind string

const (
	KindValidation     Kind = "validation"
	KindNotFound       Kind = "not_found"
	KindConflict       Kind = "conflict"
	KindForbidden      Kind = "forbidden"
	KindAuthentication Kind = "authentication"
	KindInfrastructure Kind = "infrastructure"
)

// Error is a classified domain error
type Error struct {
	Kind    Kind
	Message string
	// Fields holds per-field messages for validation errors.
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Kind == KindInfrastructure {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+e.Fields[k])
		}
		return fmt.Sprintf("%s (%s)", e.Message, strings.Join(parts, "; "))
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether the caller may retry the operation unchanged
func (e *Error) Retryable() bool {
	return e.Kind == KindInfrastructure
}

// PublicMessage is the message safe to show to end users. Infrastructure
// details never leave the process.
func (e *Error) PublicMessage() string {
	if e.Kind == KindInfrastructure {
		return "temporary failure, please try again"
	}
	return e.Message
}

// NotFound creates a not-found error for the named entity
func NotFound(entity string) *Error {
	return &Error{Kind: KindNotFound, Message: entity + " not found"}
}

// Conflict creates a state-machine violation error
func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Forbidden creates an authorization error
func Forbidden(format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

// Unauthenticated creates an authentication error
func Unauthenticated(message string) *Error {
	return &Error{Kind: KindAuthentication, Message: message}
}

// Infrastructure wraps a store or network failure
func Infrastructure(message string, err error) *Error {
	return &Error{Kind: KindInfrastructure, Message: message, Err: err}
}

// Invalid creates a validation error with a single field message
func Invalid(field, message string) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: "invalid input",
		Fields:  map[string]string{field: message},
	}
}

// FieldError is one failed field check
type FieldError struct {
	Field   string
	Message string
}

func (f *FieldError) Error() string {
	return f.Field + ": " + f.Message
}

// FromFieldErrors converts an aggregated set of *FieldError into a
// validation error. It returns nil when merr holds nothing.
func FromFieldErrors(merr *multierror.Error) error {
	if merr.ErrorOrNil() == nil {
		return nil
	}
	out := &Error{Kind: KindValidation, Message: "invalid input", Fields: map[string]string{}}
	for _, err := range merr.Errors {
		var fe *FieldError
		if errors.As(err, &fe) {
			if _, exists := out.Fields[fe.Field]; !exists {
				out.Fields[fe.Field] = fe.Message
			}
			continue
		}
		out.Fields["_"] = err.Error()
	}
	return out
}

// KindOf returns the kind of err, or KindInfrastructure for unclassified errors
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInfrastructure
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}
