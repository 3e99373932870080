// Package provider implements the model-provider side of the chat
// pane. Each provider consumes its SDK's incremental response stream
// and normalizes the chunks into the abstract event set in package
// chat; everything downstream (accumulator, approval gate, UI) is
// provider-agnostic.
package provider

import (
	"context"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"github.com/alpic-ai/grizzly/chat"
)

// ProviderType identifies the provider implementation.
type ProviderType string

const (
	ProviderTypeAnthropic ProviderType = "anthropic"
	ProviderTypeOpenAI    ProviderType = "openai"
)

// Config holds provider-specific configuration.
type Config struct {
	Type    ProviderType
	BaseURL string
	Model   string
	APIKey  string
}

// Provider streams one model turn at a time. StreamChat sends the
// transcript plus the tool catalog and delivers normalized events
// through emit, in arrival order, until the stream ends. Chunk shapes
// the normalizer does not recognize produce no event.
type Provider interface {
	// StreamChat runs one outbound request to completion. emit is
	// called from the streaming goroutine; callers serialize event
	// application themselves.
	StreamChat(ctx context.Context, turns []chat.Turn, tools []mcptypes.Tool, emit func(chat.Event)) error

	// GetModel returns the active model name.
	GetModel() string

	// SetModel changes the active model.
	SetModel(model string)

	// Ping checks that the provider is reachable with the configured
	// credentials.
	Ping(ctx context.Context) error
}
