package provider

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"github.com/alpic-ai/grizzly/chat"
)

// AnthropicProvider streams Claude responses through the official
// Anthropic Go SDK.
type AnthropicProvider struct {
	client  *anthropic.Client
	model   anthropic.Model
	baseURL string
}

// NewAnthropicProvider creates an Anthropic provider. An API key is
// required; baseURL and model fall back to sensible defaults.
func NewAnthropicProvider(baseURL, apiKey, model string) (*AnthropicProvider, error) {
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}
	if apiKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}

	anthropicModel := anthropic.ModelClaudeSonnet4_5_20250929
	if model != "" {
		anthropicModel = anthropic.Model(model)
	}

	client := anthropic.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)

	return &AnthropicProvider{
		client:  &client,
		model:   anthropicModel,
		baseURL: baseURL,
	}, nil
}

// StreamChat implements Provider.StreamChat over the Messages
// streaming API.
func (p *AnthropicProvider) StreamChat(ctx context.Context, turns []chat.Turn, tools []mcptypes.Tool, emit func(chat.Event)) error {
	params := anthropic.MessageNewParams{
		Model:     p.model,
		Messages:  convertTurnsToAnthropic(turns),
		MaxTokens: 4096, // required by the Anthropic API
	}

	if len(tools) > 0 {
		params.Tools = ConvertToolsToAnthropic(tools)
	}

	stream := p.client.Messages.NewStreaming(ctx, params)

	for stream.Next() {
		if ev, ok := normalizeAnthropicEvent(stream.Current()); ok {
			emit(ev)
		}
	}

	if err := stream.Err(); err != nil {
		return fmt.Errorf("Anthropic streaming error: %w", err)
	}

	return nil
}

// normalizeAnthropicEvent maps one raw stream chunk to zero or one
// abstract event. Auxiliary chunk shapes (message_start, ping, usage
// deltas) produce no event.
func normalizeAnthropicEvent(event anthropic.MessageStreamEventUnion) (chat.Event, bool) {
	switch eventVariant := event.AsAny().(type) {
	case anthropic.ContentBlockStartEvent:
		switch block := eventVariant.ContentBlock.AsAny().(type) {
		case anthropic.ToolUseBlock:
			return chat.ToolCallStart{Name: block.Name, ID: block.ID}, true
		}

	case anthropic.ContentBlockDeltaEvent:
		switch deltaVariant := eventVariant.Delta.AsAny().(type) {
		case anthropic.TextDelta:
			return chat.TextDelta{Text: deltaVariant.Text}, true
		case anthropic.InputJSONDelta:
			return chat.ToolCallArgDelta{Fragment: deltaVariant.PartialJSON}, true
		}

	case anthropic.ContentBlockStopEvent:
		return chat.ToolCallEnd{}, true
	}

	return nil, false
}

// GetModel implements Provider.GetModel.
func (p *AnthropicProvider) GetModel() string {
	return string(p.model)
}

// SetModel implements Provider.SetModel.
func (p *AnthropicProvider) SetModel(model string) {
	p.model = anthropic.Model(model)
}

// Ping implements Provider.Ping. Anthropic has no health endpoint, so
// this makes a minimal one-token request.
func (p *AnthropicProvider) Ping(ctx context.Context) error {
	_, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     p.model,
		MaxTokens: 1,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("ping")),
		},
	})
	if err != nil {
		return fmt.Errorf("Anthropic ping failed: %w", err)
	}
	return nil
}

// convertTurnsToAnthropic converts ledger turns to Anthropic messages.
// Tool results replay as user messages; empty turns are dropped (the
// API rejects empty text blocks).
func convertTurnsToAnthropic(turns []chat.Turn) []anthropic.MessageParam {
	msgs := make([]anthropic.MessageParam, 0, len(turns))

	for _, turn := range turns {
		if turn.Content == "" {
			continue
		}

		switch {
		case turn.Role == chat.RoleAssistant:
			msgs = append(msgs, anthropic.NewAssistantMessage(anthropic.NewTextBlock(turn.Content)))
		default:
			msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(turn.Content)))
		}
	}

	return msgs
}
