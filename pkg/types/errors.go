package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a formula error code.
type ErrorCode string

// Error codes. The first letter groups the code by stage:
// S for syntax, T for type, D for numeric domain, U for undefined names.
const (
	// S01xx: Lexical errors
	ErrUnrecognizedChar ErrorCode = "S0101"
	ErrNumberOutOfRange ErrorCode = "S0102"

	// S02xx: Parser errors
	ErrSyntaxError    ErrorCode = "S0201"
	ErrExpectedToken  ErrorCode = "S0202"
	ErrUnexpectedEnd  ErrorCode = "S0203"
	ErrEmptyArgument  ErrorCode = "S0204"
	ErrNestingTooDeep ErrorCode = "S0205"

	// T0xxx: Type errors
	ErrArgumentCountMismatch ErrorCode = "T0410"
	ErrTypeMismatch          ErrorCode = "T1003"

	// D0xxx: Evaluation errors
	ErrNumberTooLarge ErrorCode = "D1001"
	ErrDivisionByZero ErrorCode = "D1002"
	ErrOutOfDomain    ErrorCode = "D3060"

	// U0xxx: Undefined names
	ErrUndefinedVariable ErrorCode = "U1001"
	ErrUndefinedFunction ErrorCode = "U1002"

	// X0xxx: Internal faults
	ErrInternal ErrorCode = "X0001"
)

// Kind names the error class a code belongs to.
type Kind string

// Error kinds.
const (
	KindLex             Kind = "LexError"
	KindParse           Kind = "ParseError"
	KindUnknownVariable Kind = "UnknownVariable"
	KindUnknownFunction Kind = "UnknownFunction"
	KindArityMismatch   Kind = "ArityMismatch"
	KindTypeMismatch    Kind = "TypeMismatch"
	KindDivisionByZero  Kind = "DivisionByZero"
	KindDomain          Kind = "DomainError"
	KindInternal        Kind = "InternalError"
)

// Kind returns the error class of the code.
func (c ErrorCode) Kind() Kind {
	switch c {
	case ErrUnrecognizedChar, ErrNumberOutOfRange:
		return KindLex
	case ErrSyntaxError, ErrExpectedToken, ErrUnexpectedEnd, ErrEmptyArgument, ErrNestingTooDeep:
		return KindParse
	case ErrUndefinedVariable:
		return KindUnknownVariable
	case ErrUndefinedFunction:
		return KindUnknownFunction
	case ErrArgumentCountMismatch:
		return KindArityMismatch
	case ErrTypeMismatch:
		return KindTypeMismatch
	case ErrDivisionByZero:
		return KindDivisionByZero
	case ErrOutOfDomain, ErrNumberTooLarge:
		return KindDomain
	default:
		return KindInternal
	}
}

// Error represents a structured formula error.
//
// Position is the byte offset in the formula the error refers to, or -1 when
// the error has no source location.
type Error struct {
	Code     ErrorCode
	Message  string
	Position int
	Token    string // Offending source text, if any
	Name     string // Variable or function name (U1001, U1002, T0410)
	Expected int    // Expected argument count (T0410)
	Got      int    // Actual argument count (T0410)
	Err      error
}

// NewError creates a new formula error.
func NewError(code ErrorCode, message string, position int) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Position: position,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Position >= 0 {
		return fmt.Sprintf("%s at position %d: %s", e.Code, e.Position, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Kind returns the error class.
func (e *Error) Kind() Kind {
	return e.Code.Kind()
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithToken adds token information to the error.
func (e *Error) WithToken(token string) *Error {
	e.Token = token
	return e
}

// WithName records the variable or function name the error refers to.
func (e *Error) WithName(name string) *Error {
	e.Name = name
	return e
}

// WithCause wraps another error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

// AsError extracts the *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	fe, ok := AsError(err)
	return ok && fe.Code == code
}
