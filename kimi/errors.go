package kimi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/muran-prog/kimi-go/core"
)

// maxErrorBodyBytes limits how much of a failing response is kept on the error.
const maxErrorBodyBytes = 4 << 10

// normalizeError converts a non-2xx API response into a classified error.
// 401/403 and payloads with an auth.* error_type indicate an invalid or
// expired session; everything else is an API failure.
func normalizeError(op string, status int, body []byte) error {
	var parsed apiErrorBody
	_ = json.Unmarshal(body, &parsed)

	message := parsed.Message
	if message == "" {
		message = http.StatusText(status)
	}

	sentinel := core.ErrAPI
	if status == http.StatusUnauthorized || status == http.StatusForbidden ||
		strings.HasPrefix(parsed.ErrorType, "auth.") {
		sentinel = core.ErrAuthentication
	}

	return &core.Error{
		Op:      op,
		Status:  status,
		RawBody: truncateBody(body),
		Message: message,
		Err:     sentinel,
	}
}

// newNetworkError wraps a transport-level failure (timeout, reset, DNS).
func newNetworkError(op string, err error) error {
	return &core.Error{
		Op:      op,
		Message: err.Error(),
		Err:     core.ErrNetwork,
	}
}

// newDecodeError wraps a malformed or unexpected response shape.
func newDecodeError(op string, err error, body []byte) error {
	return &core.Error{
		Op:      op,
		RawBody: truncateBody(body),
		Message: err.Error(),
		Err:     core.ErrDecode,
	}
}

// uploadError maps any phase failure to the upload classification, recording
// the failing phase and preserving the underlying cause (so an expired
// session still satisfies errors.Is(err, core.ErrAuthentication)).
func uploadError(phase core.UploadPhase, err error) error {
	var ce *core.Error
	if errors.As(err, &ce) {
		return &core.Error{
			Op:      ce.Op,
			Status:  ce.Status,
			Phase:   phase,
			RawBody: ce.RawBody,
			Message: ce.Message,
			Err:     fmt.Errorf("%w: %w", core.ErrFileUpload, ce.Err),
		}
	}
	return &core.Error{
		Op:      "upload_file",
		Phase:   phase,
		Message: err.Error(),
		Err:     core.ErrFileUpload,
	}
}

func truncateBody(body []byte) string {
	if len(body) > maxErrorBodyBytes {
		body = body[:maxErrorBodyBytes]
	}
	return string(body)
}
