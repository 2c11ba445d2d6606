// Package apperrors contains the error taxonomy shared by services and handlers.
// Services return these; handlers translate them to HTTP status codes.
package apperrors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for use with errors.Is().
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("permission denied")
	ErrUnauthorized = errors.New("login required")
	ErrAmbiguous    = errors.New("ambiguous match")
	ErrMailDelivery = errors.New("mail delivery failed")
)

// NotFoundError reports a lookup by id that missed.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s with ID %s not found", e.Entity, e.ID)
	}
	return e.Entity + " not found"
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFoundError creates a not found error for the given entity.
func NewNotFoundError(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// ValidationError is a set of field-level validation failures.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Add records a failure for field. The first message for a field wins.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = message
	}
}

// Empty reports whether no failures were recorded.
func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

// OrNil returns e as an error, or nil when nothing was recorded.
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

// NewValidationError creates a validation error for a single field.
func NewValidationError(field, message string) error {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// ForbiddenError reports an attempt to act on something the actor does not own.
type ForbiddenError struct {
	Operation string
	Reason    string
}

func (e *ForbiddenError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s forbidden: %s", e.Operation, e.Reason)
	}
	return e.Operation + " forbidden"
}

func (e *ForbiddenError) Unwrap() error { return ErrForbidden }

// NewForbiddenError creates a permission denied error.
func NewForbiddenError(operation, reason string) error {
	return &ForbiddenError{Operation: operation, Reason: reason}
}

// Candidate is a possible match offered when a name is ambiguous.
type Candidate struct {
	ID       string `json:"id"`
	Fullname string `json:"fullname"`
	Username string `json:"username,omitempty"`
}

// AmbiguousMatchError reports that a free-text name did not resolve to exactly one
// user. It is not a hard failure: the caller re-prompts with Candidates.
type AmbiguousMatchError struct {
	Field      string
	Query      string
	Candidates []Candidate
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("%s %q matched %d candidates", e.Field, e.Query, len(e.Candidates))
}

func (e *AmbiguousMatchError) Unwrap() error { return ErrAmbiguous }

// MailDeliveryError reports a notification that could not be sent. The operation that
// triggered it has already committed.
type MailDeliveryError struct {
	Recipient string
	Err       error
}

func (e *MailDeliveryError) Error() string {
	return fmt.Sprintf("mail to %s: %v", e.Recipient, e.Err)
}

// Is matches both the sentinel and the underlying transport error chain.
func (e *MailDeliveryError) Is(target error) bool {
	return target == ErrMailDelivery
}

func (e *MailDeliveryError) Unwrap() error { return e.Err }

// IsNotFound checks if err is a not found error.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsValidation checks if err is a validation error.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsUnauthorized reports whether err is an authentication failure.
func IsUnauthorized(err error) bool { return errors.Is(err, ErrUnauthorized) }

// IsForbidden checks if err is a permission error.
func IsForbidden(err error) bool { return errors.Is(err, ErrForbidden) }

// IsAmbiguous checks if err is an ambiguous match.
func IsAmbiguous(err error) bool { return errors.Is(err, ErrAmbiguous) }

// IsMailDelivery checks if err contains a mail delivery failure.
func IsMailDelivery(err error) bool { return errors.Is(err, ErrMailDelivery) }

// MailDeliveries returns every MailDeliveryError in err's tree, including errors joined
// with errors.Join.
func MailDeliveries(err error) []*MailDeliveryError {
	var out []*MailDeliveryError
	var walk func(error)
	walk = func(e error) {
		switch e := e.(type) {
		case nil:
		case *MailDeliveryError:
			out = append(out, e)
		case interface{ Unwrap() []error }:
			for _, inner := range e.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			walk(e.Unwrap())
		}
	}
	walk(err)
	return out
}
