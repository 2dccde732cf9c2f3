package core

import "time"

// TelemetryHook receives notifications about request lifecycle events.
// Implementations can use this for logging, metrics, or tracing.
//
// Event types intentionally exclude sensitive data: credentials, prompt
// content, and response content are never included, only operational
// metadata (operation name, timing, status). Telemetry output is therefore
// safe to log or ship to monitoring systems as-is.
type TelemetryHook interface {
	// OnRequestStart is called when a request to the API begins.
	OnRequestStart(e RequestStartEvent)

	// OnRequestEnd is called when a request to the API completes.
	// For streaming operations it fires after the stream finishes.
	OnRequestEnd(e RequestEndEvent)
}

// RequestStartEvent contains metadata about a starting request.
type RequestStartEvent struct {
	// RequestID correlates the start and end events of one request.
	RequestID string

	// Op is the operation name, e.g. "create_chat" or "send_message".
	Op string

	Start time.Time
}

// RequestEndEvent contains metadata about a completed request.
type RequestEndEvent struct {
	RequestID string
	Op        string
	Start     time.Time
	End       time.Time

	// Status is the HTTP status code, or 0 when the request never
	// reached the server.
	Status int

	// Err is non-nil when the operation failed.
	Err error
}

// NoopTelemetryHook is a TelemetryHook that does nothing.
type NoopTelemetryHook struct{}

func (NoopTelemetryHook) OnRequestStart(RequestStartEvent) {}
func (NoopTelemetryHook) OnRequestEnd(RequestEndEvent)     {}
