package core

// Role represents a message participant role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single message in a conversation history.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Chat identifies a conversation created on the Kimi backend.
// The server is the source of truth; a Chat is never mutated locally.
type Chat struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UploadedFile describes a file that completed all upload phases.
// Its ID is passed as a reference when sending messages; the value itself
// is immutable.
type UploadedFile struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

// MessageResult is the aggregated outcome of one completed stream.
type MessageResult struct {
	// Text is the concatenation of all completion deltas, in arrival order.
	Text string

	// SearchInfo collects any search notices observed during the stream.
	SearchInfo []SearchInfo
}
