package coverjob

import "covergen/internal/domain"

// ErrorKind classifies orchestration failures; handlers map each kind to a
// response status.
type ErrorKind string

const (
	KindValidation     ErrorKind = "validation"
	KindAuthentication ErrorKind = "authentication"
	KindAuthorization  ErrorKind = "authorization"
	KindNotFound       ErrorKind = "not_found"
	KindExternalAPI    ErrorKind = "external_api"
	KindPersistence    ErrorKind = "persistence"
	KindConfiguration  ErrorKind = "configuration"
	KindUnknown        ErrorKind = "unknown"
)

// Error is the structured failure returned by Service operations.
type Error struct {
	Kind    ErrorKind
	Message string
	Details string
	// Role is the caller's resolved role for authorization failures.
	Role domain.UserRole
	// Missing names unset settings for configuration failures.
	Missing []string
	Err     error
}

func (e *Error) Error() string {
	if e.Details != "" {
		return string(e.Kind) + ": " + e.Message + ": " + e.Details
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind ErrorKind, msg string, err error) *Error {
	e := &Error{Kind: kind, Message: msg, Err: err}
	if err != nil && kind != KindAuthentication {
		e.Details = err.Error()
	}
	return e
}
