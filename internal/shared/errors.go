package shared

import (
	"errors"
	"fmt"
)

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")

	// API and service errors
	ErrAPIRequest = fmt.Errorf("API request failed")
	ErrDecode     = fmt.Errorf("invalid JSON response")
	ErrShape      = fmt.Errorf("unexpected response shape")

	// Artifact errors
	ErrIO = fmt.Errorf("artifact write failed")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// AuthError reports a failed token exchange.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return ErrAuthFailed.Error()
	}
	return fmt.Sprintf("%v: %v", ErrAuthFailed, e.Err)
}

func (e *AuthError) Unwrap() error        { return e.Err }
func (e *AuthError) Is(target error) bool { return target == ErrAuthFailed }

// HTTPError reports a non-2xx response from the catalog API.
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%v: status %d from %s", ErrAPIRequest, e.StatusCode, e.URL)
}

func (e *HTTPError) Is(target error) bool { return target == ErrAPIRequest }

// DecodeError reports a response body that is not valid JSON.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%v from %s", ErrDecode, e.URL)
	}
	return fmt.Sprintf("%v from %s: %v", ErrDecode, e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error        { return e.Err }
func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// ShapeError reports valid JSON that lacks a field the collector needs.
//
// Path names the missing or malformed field, e.g. "tracks.items[2].album.total_tracks".
type ShapeError struct {
	Category string
	Path     string
	Err      error
}

func (e *ShapeError) Error() string {
	msg := fmt.Sprintf("%v: %s", ErrShape, e.Path)
	if e.Category != "" {
		msg = fmt.Sprintf("%s (category %q)", msg, e.Category)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ShapeError) Unwrap() error        { return e.Err }
func (e *ShapeError) Is(target error) bool { return target == ErrShape }

// IOError reports a failure to persist an artifact.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%v: %s %s: %v", ErrIO, e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error        { return e.Err }
func (e *IOError) Is(target error) bool { return target == ErrIO }

// StageError names the pipeline stage, and category when known, where a run aborted.
type StageError struct {
	Stage    string
	Category string
	Err      error
}

func (e *StageError) Error() string {
	if e.Category != "" {
		return fmt.Sprintf("%s [%s]: %v", e.Stage, e.Category, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Stage returns the stage name of the first [StageError] in err's chain, or "".
func Stage(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
