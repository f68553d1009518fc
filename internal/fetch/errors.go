package fetch

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNavigationTimeout   = errors.New("navigation timed out")
	ErrRateLimited         = errors.New("rate limited")
	ErrForbidden           = errors.New("forbidden")
	ErrChallengeUnresolved = errors.New("challenge not resolved")
)

// StatusError carries a non-success HTTP status returned by a navigation.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrRateLimited:
		return e.Code == http.StatusTooManyRequests
	case ErrForbidden:
		return e.Code == http.StatusForbidden
	}
	return false
}

// CheckStatus maps an HTTP status to an error. Zero means the driver did not
// report one and is treated as success.
func CheckStatus(url string, code int) error {
	if code == 0 || code < 400 {
		return nil
	}
	return &StatusError{Code: code, URL: url}
}

// Retryable reports whether a navigation error is worth another attempt.
// Hard blocks are not; timeouts, rate limits and server errors are.
func Retryable(err error) bool {
	if errors.Is(err, ErrForbidden) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	return true
}

// IsRateLimited selects errors that call for the extended backoff.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
