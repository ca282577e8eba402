// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package reverts defines the error returned when a governance operation is rejected.
// A rejected operation leaves no state changes behind.
package reverts

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies why an operation was rejected.
type Kind uint8

const (
	KindValidation Kind = iota + 1
	KindState
	KindAuthorization
	KindArithmetic
	KindExternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindState:
		return "state"
	case KindAuthorization:
		return "authorization"
	case KindArithmetic:
		return "arithmetic"
	case KindExternal:
		return "external"
	default:
		return "unknown"
	}
}

// ErrRevert is the error of a rejected operation.
type ErrRevert struct {
	kind    Kind
	message string
	cause   error
}

func (e *ErrRevert) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

func (e *ErrRevert) Kind() Kind      { return e.kind }
func (e *ErrRevert) Message() string { return e.message }

// Unwrap returns the collaborator error of an external failure.
func (e *ErrRevert) Unwrap() error { return e.cause }

func New(kind Kind, format string, args ...any) error {
	return &ErrRevert{kind: kind, message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) error {
	return New(KindValidation, format, args...)
}

func State(format string, args ...any) error {
	return New(KindState, format, args...)
}

func Unauthorized(format string, args ...any) error {
	return New(KindAuthorization, format, args...)
}

func Arithmetic(format string, args ...any) error {
	return New(KindArithmetic, format, args...)
}

// External wraps an error returned by a collaborator.
func External(cause error, format string, args ...any) error {
	// keep the first rejection when a collaborator re-enters and fails
	var revert *ErrRevert
	if errors.As(cause, &revert) && revert.kind != KindExternal {
		return revert
	}
	return &ErrRevert{kind: KindExternal, message: fmt.Sprintf(format, args...), cause: cause}
}

// IsRevertErr reports whether err is, or wraps, an *ErrRevert.
func IsRevertErr(err error) bool {
	var revert *ErrRevert
	return errors.As(err, &revert)
}

// KindOf returns the kind of the outermost revert in err, or 0 if there is none.
func KindOf(err error) Kind {
	var revert *ErrRevert
	if errors.As(err, &revert) {
		return revert.kind
	}
	return 0
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
