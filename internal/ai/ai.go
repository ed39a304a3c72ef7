// Package ai abstracts the text-generation backend used for assisted chat,
// the automated opponent and debate judging.
package ai

import "context"

// Role values for conversation messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation sent to the backend.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Stream yields text deltas of one in-flight completion. Recv returns io.EOF
// after the final delta.
type Stream interface {
	Recv() (string, error)
	Close() error
}

// Generator produces text completions. Implementations must be safe for
// concurrent use.
type Generator interface {
	// Stream starts a completion and returns its delta stream.
	Stream(ctx context.Context, system string, messages []Message) (Stream, error)

	// Complete runs a completion to the end and returns the full text.
	Complete(ctx context.Context, system string, messages []Message) (string, error)
}
