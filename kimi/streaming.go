package kimi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/muran-prog/kimi-go/core"
)

// produceEvents reads logical units from the response body, decodes them into
// typed events, and emits them in arrival order. It owns the body: every exit
// path closes it, so abandoning a stream (context cancellation) releases the
// connection deterministically. The returned error mirrors what was sent on
// errCh, for telemetry.
func produceEvents(
	ctx context.Context,
	body io.ReadCloser,
	events chan<- core.StreamEvent,
	errCh chan<- error,
	final chan<- *core.MessageResult,
) error {
	defer body.Close()
	defer close(events)
	defer close(errCh)
	defer close(final)

	fail := func(err error) error {
		errCh <- err
		return err
	}

	const op = "send_message"
	dec := newSSEDecoder(body)

	var text strings.Builder
	var searches []core.SearchInfo

	for {
		unit, err := dec.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A read interrupted by cancellation is cancellation, not a
			// protocol failure.
			if ctx.Err() != nil {
				return fail(ctx.Err())
			}
			if errors.Is(err, core.ErrTruncated) {
				return fail(&core.Error{
					Op:      op,
					Message: "stream ended mid-unit",
					Err:     core.ErrTruncated,
				})
			}
			return fail(newNetworkError(op, err))
		}

		if len(unit) == 0 {
			continue
		}

		ev, err := decodeEvent(unit)
		if err != nil {
			return fail(err)
		}

		switch ev := ev.(type) {
		case core.CompletionChunk:
			text.WriteString(ev.Text)
		case core.SearchInfo:
			searches = append(searches, ev)
		}

		select {
		case events <- ev:
		case <-ctx.Done():
			return fail(ctx.Err())
		}
	}

	final <- &core.MessageResult{Text: text.String(), SearchInfo: searches}
	return nil
}

// decodeEvent maps one logical unit to its event variant by discriminant.
// Unknown discriminants become Unclassified (new server-side event types must
// not break consumers); a unit that is not valid JSON is fatal.
func decodeEvent(unit []byte) (core.StreamEvent, error) {
	var env streamEnvelope
	if err := json.Unmarshal(unit, &env); err != nil {
		return nil, &core.Error{
			Op:      "send_message",
			RawBody: truncateBody(unit),
			Message: fmt.Sprintf("malformed stream unit: %v", err),
			Err:     core.ErrDecode,
		}
	}

	switch env.Event {
	case "cmpl":
		return core.CompletionChunk{Text: env.Text}, nil
	case "search_info":
		return core.SearchInfo{SearchType: env.SearchType, Metadata: env.Hallucination}, nil
	case "status":
		return core.StatusUpdate{Phase: env.Phase}, nil
	default:
		return core.Unclassified{
			Event: env.Event,
			Raw:   json.RawMessage(append([]byte(nil), unit...)),
		}, nil
	}
}
