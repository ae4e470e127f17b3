package core

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is; every *DomainError unwraps to exactly one of these.
var (
	// ErrNotFound is returned when a referenced order, bill, contact, product,
	// tax or account does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState is returned when a document's status forbids the operation.
	ErrInvalidState = errors.New("invalid state")

	// ErrInvalidInput is returned for malformed requests (payment mode/amount,
	// missing counterparty, conflicting tax fields, ...).
	ErrInvalidInput = errors.New("invalid input")

	// ErrCalculationInconsistency is returned when a tax calculation fails its
	// reconciliation checks.
	ErrCalculationInconsistency = errors.New("calculation inconsistency")

	// ErrDependencyFailure is returned when a lookup needed to enrich a line
	// (product, tax, account) fails for reasons other than absence.
	ErrDependencyFailure = errors.New("dependency failure")
)

// DomainError carries the kind plus enough context to build a useful message.
type DomainError struct {
	// Kind is one of the Err* sentinels above.
	Kind error

	// Op is the operation that failed (e.g. "confirm purchase order").
	Op string

	// Entity and ID identify the document the error is about, when there is one.
	Entity string
	ID     int

	// Field names the offending input field for ErrInvalidInput.
	Field string

	// Msg is the human readable detail.
	Msg string

	// Err is an underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.Error()
	}
	subject := ""
	if e.Entity != "" && e.ID != 0 {
		subject = fmt.Sprintf("%s %d: ", e.Entity, e.ID)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s%s: %v", e.Op, subject, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s%s", e.Op, subject, msg)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *DomainError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func notFound(op, entity string, id int) error {
	return &DomainError{Kind: ErrNotFound, Op: op, Entity: entity, ID: id, Msg: entity + " not found"}
}

func invalidState(op, entity string, id int, format string, args ...any) error {
	return &DomainError{Kind: ErrInvalidState, Op: op, Entity: entity, ID: id, Msg: fmt.Sprintf(format, args...)}
}

func invalidInput(op, field, format string, args ...any) error {
	return &DomainError{Kind: ErrInvalidInput, Op: op, Field: field, Msg: fmt.Sprintf(format, args...)}
}

func dependencyFailure(op, what string, err error) error {
	return &DomainError{Kind: ErrDependencyFailure, Op: op, Msg: what, Err: err}
}

// FieldOf returns the offending field of an ErrInvalidInput error, or "".
func FieldOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Field
	}
	return ""
}
