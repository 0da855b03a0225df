// Package agent runs the conversational task assistant: it sends the
// user's message to the model together with recent history and the
// tool declarations, executes requested tool calls, and loops until
// the model produces a final text reply.
package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tvural/taskchat/internal/llm"
	"github.com/tvural/taskchat/internal/models"
	"github.com/tvural/taskchat/internal/store"
)

// maxToolRounds bounds the tool-call loop so a model that keeps
// requesting tools cannot spin forever.
const maxToolRounds = 8

// fallbackReply is returned whenever an agent run fails for any
// reason. The caller gets a normal reply, never the underlying error.
const fallbackReply = "I encountered an error processing your request. Please try again."

// Result is the outcome of one agent run.
type Result struct {
	Content   string
	ToolCalls []models.ToolCall
}

// Agent wires the inference client to the tool registry.
type Agent struct {
	llm   llm.Client
	tools *Registry
	log   *slog.Logger
}

// New creates an agent.
func New(client llm.Client, tools *Registry, log *slog.Logger) *Agent {
	return &Agent{llm: client, tools: tools, log: log}
}

// ProcessMessage runs one agent turn for the authenticated user. The
// history is the conversation context window in chronological order;
// it must not include the new message. Failures degrade to a fallback
// reply with an empty tool trace.
func (a *Agent) ProcessMessage(ctx context.Context, userID, message string, history []store.InferenceMessage) Result {
	hist := make([]llm.Message, 0, len(history))
	for _, m := range history {
		hist = append(hist, llm.Message{Role: m.Role, Content: m.Content})
	}

	session := a.llm.NewSession(systemPrompt(userID), hist, a.tools.Definitions())

	var trace []models.ToolCall
	turn, err := session.Send(ctx, message)
	for rounds := 0; err == nil && len(turn.ToolCalls) > 0; rounds++ {
		if rounds >= maxToolRounds {
			err = fmt.Errorf("tool loop exceeded %d rounds", maxToolRounds)
			break
		}

		results := make([]llm.ToolResult, 0, len(turn.ToolCalls))
		for _, tc := range turn.ToolCalls {
			out, input := a.tools.Execute(ctx, userID, tc.Name, tc.Arguments)
			trace = append(trace, models.ToolCall{Tool: tc.Name, Input: input})
			results = append(results, llm.ToolResult{CallID: tc.ID, Content: out})
		}
		turn, err = session.Resume(ctx, results)
	}

	if err != nil {
		a.log.Error("agent run failed", "user", userID, "error", err)
		return Result{Content: fallbackReply}
	}

	a.log.Info("agent reply generated", "user", userID, "tool_calls", len(trace))
	return Result{Content: turn.Content, ToolCalls: trace}
}
