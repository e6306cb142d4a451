// Package fault defines the structured error taxonomy shared by the loading,
// registry, and dispatch layers. Every failure that can reach a caller is a
// *fault.Error with a stable Kind, so boundaries can serialize errors as
// {type, message} pairs without string matching.
package fault

import "fmt"

// Kind categorizes errors for handling and for the caller-facing failure type.
type Kind string

const (
	Configuration     Kind = "ConfigurationError"
	UnknownAction     Kind = "UnknownActionError"
	Validation        Kind = "ValidationError"
	Reference         Kind = "ReferenceError"
	OperationNotFound Kind = "OperationNotFoundError"
	Auth              Kind = "AuthError"
	Attachment        Kind = "AttachmentError"
	Transport         Kind = "TransportError"
	HTTPStatus        Kind = "HttpStatusError"
)

// Error is a structured error with a taxonomy kind and optional cause.
// HTTP status failures additionally carry the response status and body.
type Error struct {
	Kind    Kind
	Message string
	Cause   error

	// Status and Body are set only for HTTPStatus errors.
	Status int
	Body   string
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error of the same Kind, so callers can use
// errors.Is with a bare kind sentinel like &Error{Kind: fault.Validation}.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// New builds an Error with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error that records cause and keeps its text in the message.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// HTTPError builds an HTTPStatus Error carrying the response status and body.
func HTTPError(status int, body string) *Error {
	return &Error{
		Kind:    HTTPStatus,
		Message: fmt.Sprintf("http status %d: %s", status, body),
		Status:  status,
		Body:    body,
	}
}
