package core

import "encoding/json"

// EventKind discriminates the stream event variants.
type EventKind string

const (
	EventCompletion   EventKind = "cmpl"
	EventSearchInfo   EventKind = "search_info"
	EventStatus       EventKind = "status"
	EventUnclassified EventKind = "unclassified"
)

// StreamEvent is one typed protocol event produced by a message stream.
// The closed set of variants is [CompletionChunk], [SearchInfo],
// [StatusUpdate], and [Unclassified]; dispatch with a type switch:
//
//	switch ev := ev.(type) {
//	case core.CompletionChunk:
//	    fmt.Print(ev.Text)
//	case core.SearchInfo:
//	    // ...
//	}
type StreamEvent interface {
	// Kind returns the event discriminant.
	Kind() EventKind
}

// CompletionChunk is a delta of the generated text.
type CompletionChunk struct {
	Text string
}

func (CompletionChunk) Kind() EventKind { return EventCompletion }

// SearchInfo is a notice about a web search the model performed.
type SearchInfo struct {
	SearchType string
	Metadata   map[string]any
}

func (SearchInfo) Kind() EventKind { return EventSearchInfo }

// StatusUpdate reports a change of the generation phase.
type StatusUpdate struct {
	Phase string
}

func (StatusUpdate) Kind() EventKind { return EventStatus }

// Unclassified carries an event whose discriminant this library does not
// know. Unknown discriminants are forwarded rather than treated as errors so
// that new server-side event types do not break existing consumers.
type Unclassified struct {
	// Event is the unrecognized discriminant value.
	Event string

	// Raw is the complete logical unit as received.
	Raw json.RawMessage
}

func (Unclassified) Kind() EventKind { return EventUnclassified }
