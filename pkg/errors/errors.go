package errors

import "fmt"

// Type classifies the failures that can occur during a crawl
type Type string

const (
	TypeFetch       Type = "fetch"
	TypeParse       Type = "parse"
	TypeNotFound    Type = "not_found"
	TypeMissingTool Type = "missing_tool"
)

// Error represents a classified crawl error
type Error struct {
	Type    Type
	Message string
	Code    int // HTTP status code for fetch errors, 0 otherwise
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// Fetchf creates a fetch error. code is the HTTP status, or 0 for a
// transport-level failure.
func Fetchf(code int, format string, args ...interface{}) *Error {
	return &Error{Type: TypeFetch, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Parsef creates a parse error naming the field or element that could not
// be extracted.
func Parsef(format string, args ...interface{}) *Error {
	return &Error{Type: TypeParse, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf creates a not-found error for an unknown stick ID.
func NotFoundf(format string, args ...interface{}) *Error {
	return &Error{Type: TypeNotFound, Message: fmt.Sprintf(format, args...)}
}

// MissingToolf creates a missing-tool error for an absent external executable.
func MissingToolf(format string, args ...interface{}) *Error {
	return &Error{Type: TypeMissingTool, Message: fmt.Sprintf(format, args...)}
}

// isType reports whether err is an *Error of the given type
func isType(err error, t Type) bool {
	e, ok := err.(*Error)
	return ok && e.Type == t
}

// IsFetch reports whether err is a fetch error
func IsFetch(err error) bool { return isType(err, TypeFetch) }

// IsParse reports whether err is a parse error
func IsParse(err error) bool { return isType(err, TypeParse) }

// IsNotFound reports whether err is a not-found error
func IsNotFound(err error) bool { return isType(err, TypeNotFound) }

// IsMissingTool reports whether err is a missing-tool error
func IsMissingTool(err error) bool { return isType(err, TypeMissingTool) }
