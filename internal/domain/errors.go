package domain

import "errors"

// Kind 机器可读的错误类别，HTTP 层据此映射状态码
type Kind string

const (
	KindAuthRequired Kind = "AUTHENTICATION_REQUIRED"
	KindAuthFailed   Kind = "AUTHENTICATION_FAILED"
	KindForbidden    Kind = "FORBIDDEN"
	KindNotFound     Kind = "NOT_FOUND"
	KindConflict     Kind = "CONFLICT"
	KindBadRequest   Kind = "BAD_REQUEST"
	KindIntegrity    Kind = "INTEGRITY_VIOLATION"
	KindInternal     Kind = "INTERNAL"
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is 同 Kind 即视为相等，配合下面的哨兵错误使用 errors.Is
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

var (
	ErrAuthRequired = &Error{Kind: KindAuthRequired}
	ErrAuthFailed   = &Error{Kind: KindAuthFailed}
	ErrForbidden    = &Error{Kind: KindForbidden}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrConflict     = &Error{Kind: KindConflict}
	ErrBadRequest   = &Error{Kind: KindBadRequest}
)

func NotFound(msg string) error   { return &Error{Kind: KindNotFound, Msg: msg} }
func Conflict(msg string) error   { return &Error{Kind: KindConflict, Msg: msg} }
func Forbidden(msg string) error  { return &Error{Kind: KindForbidden, Msg: msg} }
func BadRequest(msg string) error { return &Error{Kind: KindBadRequest, Msg: msg} }
func AuthFailed(msg string) error { return &Error{Kind: KindAuthFailed, Msg: msg} }
func Internal(msg string, err error) error {
	return &Error{Kind: KindInternal, Msg: msg, Err: err}
}

// KindOf 非 *Error 一律按内部错误处理
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
