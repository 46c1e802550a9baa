package usecase

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrEmptyResult           = errors.New("empty result")
	ErrUpstream              = errors.New("upstream request failed")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

// UpstreamError describes a failed call to the stats API. StatusCode is zero
// when the API could not be reached at all.
type UpstreamError struct {
	Path       string
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		if e.Err != nil {
			return fmt.Sprintf("upstream %s unreachable: %v", e.Path, e.Err)
		}
		return fmt.Sprintf("upstream %s unreachable", e.Path)
	}
	msg := fmt.Sprintf("upstream %s status=%d", e.Path, e.StatusCode)
	if e.Body != "" {
		msg += " body=" + e.Body
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UpstreamError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrUpstream}
	}
	return []error{ErrUpstream, e.Err}
}
