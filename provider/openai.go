package provider

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/alpic-ai/grizzly/chat"
)

// OpenAIProvider streams chat completions through the official OpenAI
// Go SDK.
type OpenAIProvider struct {
	client  openai.Client
	model   string
	baseURL string
}

// NewOpenAIProvider creates an OpenAI provider. An API key is
// required; baseURL and model fall back to sensible defaults.
func NewOpenAIProvider(baseURL, apiKey, model string) (*OpenAIProvider, error) {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}

	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)

	return &OpenAIProvider{
		client:  client,
		model:   model,
		baseURL: baseURL,
	}, nil
}

// StreamChat implements Provider.StreamChat over the chat completions
// streaming API.
//
// OpenAI fragments tool calls differently from Anthropic: the first
// delta for a call carries its ID and function name, later deltas
// carry argument fragments, and nothing marks the call's end except
// the next call starting or the choice finishing. The normalization
// below rebuilds the start/delta/end shape the accumulator expects.
func (p *OpenAIProvider) StreamChat(ctx context.Context, turns []chat.Turn, tools []mcptypes.Tool, emit func(chat.Event)) error {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(p.model),
		Messages: convertTurnsToOpenAI(turns),
	}

	if len(tools) > 0 {
		params.Tools = ConvertToolsToOpenAI(tools)
	}

	stream := p.client.Chat.Completions.NewStreaming(ctx, params)

	var norm openaiNormalizer
	for stream.Next() {
		norm.normalize(stream.Current(), emit)
	}

	if err := stream.Err(); err != nil {
		return fmt.Errorf("OpenAI streaming error: %w", err)
	}

	return nil
}

// openaiNormalizer maps raw chat completion chunks to the abstract
// event set, synthesizing the call boundaries OpenAI leaves implicit.
// One normalizer serves one stream; callOpen tracks whether a tool
// call is between its synthesized start and end.
type openaiNormalizer struct {
	callOpen bool
}

func (n *openaiNormalizer) normalize(chunk openai.ChatCompletionChunk, emit func(chat.Event)) {
	if len(chunk.Choices) == 0 {
		return
	}
	choice := chunk.Choices[0]

	if choice.Delta.Content != "" {
		emit(chat.TextDelta{Text: choice.Delta.Content})
	}

	for _, tc := range choice.Delta.ToolCalls {
		if tc.Function.Name != "" {
			if n.callOpen {
				emit(chat.ToolCallEnd{})
			}
			id := tc.ID
			if id == "" {
				id = uuid.New().String()
			}
			emit(chat.ToolCallStart{Name: tc.Function.Name, ID: id})
			n.callOpen = true
		}
		if tc.Function.Arguments != "" && n.callOpen {
			emit(chat.ToolCallArgDelta{Fragment: tc.Function.Arguments})
		}
	}

	if choice.FinishReason != "" && n.callOpen {
		emit(chat.ToolCallEnd{})
		n.callOpen = false
	}
}

// GetModel implements Provider.GetModel.
func (p *OpenAIProvider) GetModel() string {
	return p.model
}

// SetModel implements Provider.SetModel.
func (p *OpenAIProvider) SetModel(model string) {
	p.model = model
}

// Ping implements Provider.Ping by listing models.
func (p *OpenAIProvider) Ping(ctx context.Context) error {
	_, err := p.client.Models.List(ctx)
	if err != nil {
		return fmt.Errorf("OpenAI ping failed: %w", err)
	}
	return nil
}

// convertTurnsToOpenAI converts ledger turns to OpenAI messages. Tool
// results replay as user messages.
func convertTurnsToOpenAI(turns []chat.Turn) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns))

	for _, turn := range turns {
		if turn.Content == "" {
			continue
		}

		switch {
		case turn.Role == chat.RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(turn.Content))
		default:
			msgs = append(msgs, openai.UserMessage(turn.Content))
		}
	}

	return msgs
}
