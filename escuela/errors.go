package escuela

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNoSession is returned by authenticated calls when no bearer token is available.
	ErrNoSession = errors.New("escuela: no session token")

	// ErrLoginFailed is wrapped by Login when the backend rejects the credentials.
	ErrLoginFailed = errors.New("escuela: login failed")
)

// APIError represents a non-success HTTP response from the API.
type APIError struct {
	StatusCode int
	Body       string
	Message    string
	Code       string // Optional server-provided code.
	Details    any    // Optional server-provided details.
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Body
	}
	if e.Code != "" {
		return fmt.Sprintf("escuela API %d (%s): %s", e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("escuela API %d: %s", e.StatusCode, msg)
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsUnauthorized reports whether err is an APIError with status 401 or 403.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) &&
		(apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden)
}
