// Package errs defines the error shapes returned to API clients.
//
// Every failure that reaches the global error handler is rendered as an
// HTTPError, optionally carrying per-field validation errors and a client
// action hint.
package errs

import (
	"errors"
	"strings"

	"github.com/deppfellow/contentfilter/internal/filter"
)

// FieldError is a validation failure on a single request field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// ActionType tells the client what to do next.
type ActionType string

const (
	ActionTypeRedirect ActionType = "redirect"
)

// Action is an optional instruction for the client UI.
type Action struct {
	Type    ActionType `json:"type"`
	Message string     `json:"message"`
	Value   string     `json:"value"`
}

// HTTPError is the JSON error body of every failed request.
//
// Override marks messages that are safe to show to end users as-is.
type HTTPError struct {
	Code     string       `json:"code"`
	Message  string       `json:"message"`
	Status   int          `json:"status"`
	Override bool         `json:"override"`
	Errors   []FieldError `json:"errors"`
	Action   *Action      `json:"action"`
}

func (e *HTTPError) Error() string {
	return e.Message
}

// Is matches any *HTTPError regardless of code.
func (e *HTTPError) Is(target error) bool {
	_, ok := target.(*HTTPError)
	return ok
}

// WithMessage returns a copy of e with a different message.
func (e *HTTPError) WithMessage(message string) *HTTPError {
	cp := *e
	cp.Message = message
	return &cp
}

// MakeUpperCaseWithUnderscores turns "Bad Request" into "BAD_REQUEST".
func MakeUpperCaseWithUnderscores(str string) string {
	return strings.ToUpper(strings.ReplaceAll(str, " ", "_"))
}

// FromFilterError maps the filter package's sentinel errors onto API errors.
// It returns nil for errors it does not recognize.
func FromFilterError(err error) *HTTPError {
	switch {
	case errors.Is(err, filter.ErrEmptyInput):
		code := "EMPTY_INPUT"
		return NewBadRequestError("Input must not be empty", true, &code, nil, nil)
	case errors.Is(err, filter.ErrUnknownKind):
		code := "UNKNOWN_KIND"
		return NewBadRequestError("Unknown check kind", true, &code, nil, nil)
	case errors.Is(err, filter.ErrUnknownExtension):
		code := "UNKNOWN_EXTENSION"
		return NewBadRequestError("Unknown extension", true, &code, nil, nil)
	case errors.Is(err, filter.ErrRejected):
		return NewUnprocessableEntityError("Value was rejected by the filter", true)
	}
	return nil
}
