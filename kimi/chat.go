package kimi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/muran-prog/kimi-go/core"
)

// DefaultModel is the model the web client requests.
const DefaultModel = "k2"

// ChatSession represents one conversation. Sessions are created by
// Engine.CreateChat and hold only the chat identity plus a reference to the
// engine's transport; they never own or close it.
type ChatSession struct {
	chat   core.Chat
	engine *Engine
}

// Chat returns the chat identity.
func (c *ChatSession) Chat() core.Chat {
	return c.chat
}

// ID returns the server-assigned chat identifier.
func (c *ChatSession) ID() string {
	return c.chat.ID
}

type sendOptions struct {
	history   []core.Message
	fileIDs   []string
	useSearch bool
	model     string
}

// SendOption configures a single send.
type SendOption func(*sendOptions)

// WithFileRefs attaches uploaded files (by ID) as context for the message.
func WithFileRefs(ids ...string) SendOption {
	return func(o *sendOptions) {
		o.fileIDs = ids
	}
}

// WithHistory supplies prior conversation turns for context.
func WithHistory(msgs ...core.Message) SendOption {
	return func(o *sendOptions) {
		o.history = msgs
	}
}

// WithSearch enables or disables web search. Enabled by default.
func WithSearch(enabled bool) SendOption {
	return func(o *sendOptions) {
		o.useSearch = enabled
	}
}

// WithModel overrides the model for this send.
func WithModel(model string) SendOption {
	return func(o *sendOptions) {
		o.model = model
	}
}

// SendMessage sends a message and blocks until the full response has
// streamed in, returning the aggregated result.
func (c *ChatSession) SendMessage(ctx context.Context, text string, opts ...SendOption) (*core.MessageResult, error) {
	stream, err := c.SendMessageStream(ctx, text, opts...)
	if err != nil {
		return nil, err
	}
	return core.DrainStream(ctx, stream)
}

// SendMessageStream sends a message and returns the response as a lazy
// stream of typed events. The stream is single-pass: it reflects one network
// response and cannot be restarted.
//
// Cancel ctx to abandon the stream early; the engine closes the underlying
// connection and all channels, mid-chunk included.
func (c *ChatSession) SendMessageStream(ctx context.Context, text string, opts ...SendOption) (*core.MessageStream, error) {
	const op = "send_message"

	so := sendOptions{useSearch: true, model: DefaultModel}
	for _, opt := range opts {
		opt(&so)
	}

	payload := sendMessageRequest{
		Messages:    []core.Message{{Role: core.RoleUser, Content: text}},
		History:     emptyIfNil(so.history),
		KimiplusID:  "kimi",
		Model:       so.model,
		UseSearch:   so.useSearch,
		Refs:        emptyIfNil(so.fileIDs),
		Extend:      extendOptions{Sidebar: true},
		SceneLabels: []string{},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, newDecodeError(op, err, nil)
	}

	start := time.Now()
	requestID := uuid.NewString()
	e := c.engine
	e.config.Telemetry.OnRequestStart(core.RequestStartEvent{
		RequestID: requestID,
		Op:        op,
		Start:     start,
	})

	req, err := e.newRequest(ctx, http.MethodPost, "/chat/"+c.chat.ID+"/completion/stream", bytes.NewReader(body))
	if err != nil {
		err = newNetworkError(op, err)
		e.endTelemetry(requestID, op, start, 0, err)
		return nil, err
	}

	resp, err := e.streamClient.Do(req)
	if err != nil {
		err = newNetworkError(op, err)
		e.endTelemetry(requestID, op, start, 0, err)
		return nil, err
	}

	// An HTTP-level failure before any stream bytes maps like any unary call.
	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		resp.Body.Close()
		err = normalizeError(op, resp.StatusCode, respBody)
		e.endTelemetry(requestID, op, start, resp.StatusCode, err)
		return nil, err
	}

	events := make(chan core.StreamEvent, 16)
	errCh := make(chan error, 1)
	final := make(chan *core.MessageResult, 1)

	go func() {
		err := produceEvents(ctx, resp.Body, events, errCh, final)
		e.endTelemetry(requestID, op, start, resp.StatusCode, err)
	}()

	return &core.MessageStream{
		Events: events,
		Err:    errCh,
		Final:  final,
	}, nil
}

func (e *Engine) endTelemetry(requestID, op string, start time.Time, status int, err error) {
	e.config.Telemetry.OnRequestEnd(core.RequestEndEvent{
		RequestID: requestID,
		Op:        op,
		Start:     start,
		End:       time.Now(),
		Status:    status,
		Err:       err,
	})
}

// emptyIfNil keeps nil slices marshaling as [] rather than null, which the
// API requires.
func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
