package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindIllegalParam               Kind = "IllegalParamException"
	KindInvalidSecret              Kind = "InvalidSecretException"
	KindMaxPlayerCountExceeded     Kind = "MaxPlayerCountExceededException"
	KindIllegalAct                 Kind = "IllegalActException"
	KindIllegalTurnChange          Kind = "IllegalTurnChangeException"
	KindIllegalAuthenticationToken Kind = "IllegalAuthenticationTokenException"
	KindIllegalContext             Kind = "IllegalContextException"
	KindNotFound                   Kind = "NotFoundException"
	KindRepository                 Kind = "RepositoryError"
	KindInternal                   Kind = "InternalError"
)

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrIllegalParam               = &Error{Kind: KindIllegalParam}
	ErrInvalidSecret              = &Error{Kind: KindInvalidSecret}
	ErrMaxPlayerCountExceeded     = &Error{Kind: KindMaxPlayerCountExceeded}
	ErrIllegalAct                 = &Error{Kind: KindIllegalAct}
	ErrIllegalTurnChange          = &Error{Kind: KindIllegalTurnChange}
	ErrIllegalAuthenticationToken = &Error{Kind: KindIllegalAuthenticationToken}
	ErrIllegalContext             = &Error{Kind: KindIllegalContext}
	ErrNotFound                   = &Error{Kind: KindNotFound}
	ErrRepository                 = &Error{Kind: KindRepository}
)

// Error is the failure value returned by every fallible domain and
// interactor operation.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf reports the kind of err, or KindInternal for errors that did not
// originate here.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Forbidden is the single message used for every authentication failure so
// callers cannot learn which part of a credential mismatched.
func Forbidden() *Error {
	return New(KindIllegalAuthenticationToken, "forbidden")
}
