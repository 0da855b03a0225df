// Package llm provides the chat-completion client used by the agent.
package llm

import "context"

// Message is a prior conversation turn supplied as context.
type Message struct {
	Role    string
	Content string
}

// ToolDefinition declares one callable tool to the model.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string // raw JSON object
}

// ToolResult carries a tool's textual output back to the model.
type ToolResult struct {
	CallID  string
	Content string
}

// Turn is one model reply: either a final text answer (no tool calls)
// or a batch of tool invocation requests.
type Turn struct {
	Content   string
	ToolCalls []ToolCall
}

// Session is a single inference run bound to a system prompt, a context
// window and a tool set. Implementations keep the growing message list
// so tool results can be fed back into the same reasoning turn.
type Session interface {
	// Send delivers the new user message and returns the first turn.
	Send(ctx context.Context, content string) (*Turn, error)
	// Resume feeds tool results back and returns the next turn.
	Resume(ctx context.Context, results []ToolResult) (*Turn, error)
}

// Client creates inference sessions.
type Client interface {
	NewSession(system string, history []Message, tools []ToolDefinition) Session
}
