// Package apperr defines the error kinds shared by the storage backends,
// the order workflow and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
)

// Kind tags an Error with the class of failure it represents.
type Kind uint8

const (
	// KindStorage is an unexpected backend failure. Untagged errors are
	// treated as this kind.
	KindStorage Kind = iota
	KindNotFound
	KindInsufficientStock
	KindValidation
	KindConflict
	KindConfiguration
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindInsufficientStock:
		return "insufficient stock"
	case KindValidation:
		return "validation error"
	case KindConflict:
		return "conflict"
	case KindConfiguration:
		return "configuration error"
	default:
		return "storage error"
	}
}

// Error is a tagged failure carrying enough context to build a user-facing
// message.
type Error struct {
	Kind   Kind
	Entity string
	ID     string
	Msg    string
	Err    error
}

// Sentinels for errors.Is. They match any Error of the same kind.
var (
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrInsufficientStock = &Error{Kind: KindInsufficientStock}
	ErrValidation        = &Error{Kind: KindValidation}
	ErrConflict          = &Error{Kind: KindConflict}
	ErrConfiguration     = &Error{Kind: KindConfiguration}
	ErrStorage           = &Error{Kind: KindStorage}
)

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a bare sentinel of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Entity != "" || t.Msg != "" || t.Err != nil {
		return false
	}
	return t.Kind == e.Kind
}

// NotFound reports a missing entity by id or name.
func NotFound(entity string, id any) *Error {
	sid := fmt.Sprint(id)
	return &Error{
		Kind:   KindNotFound,
		Entity: entity,
		ID:     sid,
		Msg:    fmt.Sprintf("%s %s not found", entity, sid),
	}
}

// InsufficientStock reports a requested quantity above the available stock.
func InsufficientStock(product string, available int) *Error {
	return &Error{
		Kind:   KindInsufficientStock,
		Entity: "product",
		ID:     product,
		Msg:    fmt.Sprintf("insufficient stock for product %s: available %d", product, available),
	}
}

// Validation reports bad input.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// Conflict reports a write refused because other rows depend on the target.
func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

// Configuration reports missing reference data such as an unseeded status.
func Configuration(format string, args ...any) *Error {
	return &Error{Kind: KindConfiguration, Msg: fmt.Sprintf(format, args...)}
}

// Storage wraps an unexpected backend failure raised during op.
func Storage(op string, err error) *Error {
	return &Error{Kind: KindStorage, Msg: op, Err: err}
}

// From returns err as an *Error, wrapping untagged errors as storage
// failures of op. It returns nil for a nil err.
func From(op string, err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Storage(op, err)
}

// KindOf returns the kind of err, KindStorage when it carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}
