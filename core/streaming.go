package core

import (
	"context"
	"strings"
)

// MessageStream represents one streaming completion response.
//
// Channel rules:
//   - The producer MUST close Events, Err, and Final when finished.
//   - On context cancellation the producer MUST close the network connection,
//     terminate promptly, and close all channels.
//   - Err emits at most one error.
//   - Final emits exactly once on success (zero times on failure).
//   - Events are delivered strictly in network-arrival order.
//
// A stream reflects one network response: it is single-pass and cannot be
// restarted.
type MessageStream struct {
	// Events emits typed protocol events in arrival order.
	// Closed when the stream ends.
	Events <-chan StreamEvent

	// Err emits at most one error. Closed when the stream ends.
	Err <-chan error

	// Final emits the aggregated result exactly once on success.
	Final <-chan *MessageResult
}

// DrainStream consumes the whole stream and returns the aggregated result.
// It blocks until the stream completes, fails, or ctx is canceled.
func DrainStream(ctx context.Context, s *MessageStream) (*MessageResult, error) {
	if s == nil {
		return nil, &Error{Op: "drain_stream", Message: "nil stream", Err: ErrAPI}
	}

	var text strings.Builder
	var searches []SearchInfo
	var streamErr error
	var final *MessageResult

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case ev, ok := <-s.Events:
			if !ok {
				goto done
			}
			switch ev := ev.(type) {
			case CompletionChunk:
				text.WriteString(ev.Text)
			case SearchInfo:
				searches = append(searches, ev)
			}

		case err, ok := <-s.Err:
			if ok && err != nil {
				streamErr = err
			}
			// Keep draining Events so the producer can finish.

		case res, ok := <-s.Final:
			if ok {
				final = res
			}
		}
	}

done:
	// Pick up an error delivered just before the channels closed.
	select {
	case err, ok := <-s.Err:
		if ok && err != nil {
			streamErr = err
		}
	default:
	}
	if streamErr != nil {
		return nil, streamErr
	}

	if final == nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res, ok := <-s.Final:
			if ok {
				final = res
			}
		}
	}

	if final == nil {
		final = &MessageResult{}
	}
	if final.Text == "" {
		final.Text = text.String()
	}
	if final.SearchInfo == nil {
		final.SearchInfo = searches
	}
	return final, nil
}
