// Package apperr defines the error taxonomy shared across Mannaz packages.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")

	// ErrMissingCredential is returned before any network call when no
	// vision API key is configured.
	ErrMissingCredential = errors.New("vision api key not configured")

	// ErrNoJSONFound is returned when no non-empty JSON candidate could be
	// recovered from a model reply.
	ErrNoJSONFound = errors.New("no json found in model reply")
)

// TransportError reports a failed inference API call: either the request
// could not complete or the server answered with a non-2xx status.
type TransportError struct {
	Status int    // 0 when the request never completed
	Body   string // response body, truncated by the caller
	Err    error  // underlying transport error, if any
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("vision: request failed: %v", e.Err)
	}
	return fmt.Sprintf("vision: api returned status %d: %s", e.Status, e.Body)
}

func (e *TransportError) Unwrap() error { return e.Err }

// JSONParseError carries the candidate string that failed to decode together
// with the full model reply, so a failed extraction can be diagnosed later.
type JSONParseError struct {
	Candidate string
	Raw       string
	Err       error
}

func (e *JSONParseError) Error() string {
	return fmt.Sprintf("extract: parse json candidate: %v", e.Err)
}

func (e *JSONParseError) Unwrap() error { return e.Err }

// RenderError reports a card image that could not be decoded into a raster.
type RenderError struct {
	MIMEType string
	Err      error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("imaging: decode %s: %v", e.MIMEType, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// EncodeError reports a rotated raster that could not be serialized back
// to bytes.
type EncodeError struct {
	MIMEType string
	Err      error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("imaging: encode %s: %v", e.MIMEType, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }
