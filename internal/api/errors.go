package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors matched by *Error through errors.Is.
var (
	ErrValidation   = errors.New("api: validation failed")
	ErrUnauthorized = errors.New("api: unauthorized")
	ErrForbidden    = errors.New("api: forbidden")
	ErrNotFound     = errors.New("api: not found")
	ErrConflict     = errors.New("api: conflict")
)

// Error is returned for every non-2xx response.
type Error struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *Error) Error() string {
	return e.Message
}

// Is maps the status code onto the package sentinels.
func (e *Error) Is(target error) bool {
	switch e.StatusCode {
	case http.StatusBadRequest:
		return target == ErrValidation
	case http.StatusUnauthorized:
		return target == ErrUnauthorized
	case http.StatusForbidden:
		return target == ErrForbidden
	case http.StatusNotFound:
		return target == ErrNotFound
	case http.StatusConflict:
		return target == ErrConflict
	}
	return false
}

func newError(status int, body []byte) *Error {
	msg := fmt.Sprintf("%d %s", status, http.StatusText(status))
	if isJSON(body) {
		msg = Normalize(body)
	}
	return &Error{StatusCode: status, Message: msg, Body: body}
}

// Message returns the text a user should see for err. API errors carry
// their normalised message; wrapped errors are unwrapped first.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
