package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

// DefaultBaseURL points at OpenRouter's OpenAI-compatible endpoint.
const DefaultBaseURL = "https://openrouter.ai/api/v1"

// OpenAIClient talks to any OpenAI-compatible chat-completion API.
type OpenAIClient struct {
	client openai.Client
	model  string
}

// NewOpenAIClient creates a client for the given endpoint and model.
// An empty baseURL selects OpenRouter.
func NewOpenAIClient(apiKey, baseURL, model string) *OpenAIClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &OpenAIClient{
		client: openai.NewClient(
			option.WithAPIKey(apiKey),
			option.WithBaseURL(baseURL),
		),
		model: model,
	}
}

// NewSession implements Client.
func (c *OpenAIClient) NewSession(system string, history []Message, tools []ToolDefinition) Session {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+2),
	}
	params.Messages = append(params.Messages, openai.SystemMessage(system))
	for _, m := range history {
		if m.Role == "assistant" {
			params.Messages = append(params.Messages, openai.AssistantMessage(m.Content))
		} else {
			params.Messages = append(params.Messages, openai.UserMessage(m.Content))
		}
	}
	for _, t := range tools {
		params.Tools = append(params.Tools, openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        t.Name,
			Description: openai.String(t.Description),
			Parameters:  openai.FunctionParameters(t.Parameters),
		}))
	}
	return &openAISession{client: c.client, params: params}
}

type openAISession struct {
	client openai.Client
	params openai.ChatCompletionNewParams
}

func (s *openAISession) Send(ctx context.Context, content string) (*Turn, error) {
	s.params.Messages = append(s.params.Messages, openai.UserMessage(content))
	return s.run(ctx)
}

func (s *openAISession) Resume(ctx context.Context, results []ToolResult) (*Turn, error) {
	for _, r := range results {
		s.params.Messages = append(s.params.Messages, openai.ToolMessage(r.Content, r.CallID))
	}
	return s.run(ctx)
}

func (s *openAISession) run(ctx context.Context) (*Turn, error) {
	completion, err := s.client.Chat.Completions.New(ctx, s.params)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	msg := completion.Choices[0].Message
	s.params.Messages = append(s.params.Messages, msg.ToParam())

	turn := &Turn{Content: msg.Content}
	for _, tc := range msg.ToolCalls {
		turn.ToolCalls = append(turn.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return turn, nil
}
