package core

import (
	"errors"
	"fmt"
)

// UploadPhase identifies the step of the upload pipeline that failed.
type UploadPhase string

const (
	PhaseLocalRead UploadPhase = "local_read"
	PhaseNegotiate UploadPhase = "negotiate"
	PhaseTransfer  UploadPhase = "transfer"
	PhaseRegister  UploadPhase = "register"
	PhaseProcess   UploadPhase = "process"
)

// Error is the error type returned by every engine operation. It carries the
// failing operation, the HTTP status and response fragment when available,
// and wraps one of the classification sentinels so callers can dispatch with
// errors.Is.
type Error struct {
	// Op is the operation that failed, e.g. "create_chat".
	Op string

	// Status is the HTTP status code, or 0 when no response was received.
	Status int

	// Phase is set for upload failures.
	Phase UploadPhase

	// RawBody holds a fragment of the offending response, if any.
	RawBody string

	Message string

	// Err is the classification sentinel (or an underlying cause wrapping one).
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Phase != "":
		return fmt.Sprintf("kimi: %s: %s (phase=%s)", e.Op, e.Message, e.Phase)
	case e.Status != 0:
		return fmt.Sprintf("kimi: %s: %s (status=%d)", e.Op, e.Message, e.Status)
	default:
		return fmt.Sprintf("kimi: %s: %s", e.Op, e.Message)
	}
}

// Unwrap returns the underlying error for error chaining.
func (e *Error) Unwrap() error {
	return e.Err
}

// Sentinel errors for classification.
var (
	// ErrAuthentication marks missing, invalid, or expired credentials,
	// detected either locally (required cookie absent) or from the API.
	ErrAuthentication = errors.New("authentication failed")

	// ErrAPI marks any unsuccessful API interaction not classified as
	// authentication: bad request, server error, malformed response,
	// or a transport failure.
	ErrAPI = errors.New("api request failed")

	// ErrFileUpload marks a failure in any phase of the upload pipeline.
	ErrFileUpload = errors.New("file upload failed")

	// ErrConfiguration marks invalid caller-supplied configuration, such as
	// an unreadable or unparseable cookie file.
	ErrConfiguration = errors.New("invalid configuration")
)

// Finer-grained causes. Each wraps ErrAPI, so errors.Is(err, ErrAPI) holds
// for all of them (transport and decode failures are API failures unless
// clearly an auth symptom).
var (
	ErrNetwork   = fmt.Errorf("%w: network error", ErrAPI)
	ErrDecode    = fmt.Errorf("%w: decode error", ErrAPI)
	ErrTruncated = fmt.Errorf("%w: truncated stream", ErrAPI)
)
