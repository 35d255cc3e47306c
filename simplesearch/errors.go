package simplesearch

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	ErrIO            ErrorKind = "io"
	ErrSQL           ErrorKind = "sql"
	ErrSchema        ErrorKind = "schema"
	ErrQueryParse    ErrorKind = "query_parse"
	ErrQueryRejected ErrorKind = "query_rejected"
	ErrConfig        ErrorKind = "config"
	ErrNotFound      ErrorKind = "not_found"
)

type Error struct {
	Kind    ErrorKind
	Message string
	Field   string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	base := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Field != "" {
		base = fmt.Sprintf("%s (field=%s)", base, e.Field)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", base, e.Cause)
	}
	return base
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func Wrap(kind ErrorKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

func New(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func SchemaError(msg string) *Error {
	return &Error{Kind: ErrSchema, Message: msg}
}

func QueryParseError(msg string, cause error) *Error {
	return &Error{Kind: ErrQueryParse, Message: msg, Cause: cause}
}

func QueryRejectedError(msg string) *Error {
	return &Error{Kind: ErrQueryRejected, Message: msg}
}

// RejectedField reports a property name refused by strict identifier checks.
func RejectedField(field, msg string) *Error {
	return &Error{Kind: ErrQueryRejected, Field: field, Message: msg}
}

func NotFoundError(identifier string) *Error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf("document not found: %s", identifier)}
}

func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
