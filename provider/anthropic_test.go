package provider

import (
	"encoding/json"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/alpic-ai/grizzly/chat"
)

// decodeStreamEvent builds a stream event from raw SSE payload JSON,
// the same shape the SDK decodes off the wire.
func decodeStreamEvent(t *testing.T, raw string) anthropic.MessageStreamEventUnion {
	t.Helper()
	var event anthropic.MessageStreamEventUnion
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		t.Fatalf("failed to decode event %s: %v", raw, err)
	}
	return event
}

func TestNormalizeAnthropicEvent(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		want     chat.Event
		wantNone bool
	}{
		{
			name: "tool_use block start",
			raw:  `{"type":"content_block_start","index":1,"content_block":{"type":"tool_use","id":"toolu_01","name":"get_weather","input":{}}}`,
			want: chat.ToolCallStart{Name: "get_weather", ID: "toolu_01"},
		},
		{
			name:     "text block start produces nothing",
			raw:      `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`,
			wantNone: true,
		},
		{
			name: "text delta",
			raw:  `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hello"}}`,
			want: chat.TextDelta{Text: "Hello"},
		},
		{
			name: "input json delta",
			raw:  `{"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":"{\"ci"}}`,
			want: chat.ToolCallArgDelta{Fragment: `{"ci`},
		},
		{
			name: "block stop",
			raw:  `{"type":"content_block_stop","index":1}`,
			want: chat.ToolCallEnd{},
		},
		{
			name:     "ping produces nothing",
			raw:      `{"type":"ping"}`,
			wantNone: true,
		},
		{
			name:     "message delta produces nothing",
			raw:      `{"type":"message_delta","delta":{"stop_reason":"end_turn"},"usage":{"output_tokens":12}}`,
			wantNone: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := normalizeAnthropicEvent(decodeStreamEvent(t, tt.raw))

			if tt.wantNone {
				if ok {
					t.Fatalf("expected no event, got %#v", got)
				}
				return
			}
			if !ok {
				t.Fatal("expected an event")
			}
			if got != tt.want {
				t.Errorf("expected %#v, got %#v", tt.want, got)
			}
		})
	}
}

func TestConvertTurnsToAnthropic(t *testing.T) {
	turns := []chat.Turn{
		{Role: chat.RoleUser, Content: "What is the weather?"},
		{Role: chat.RoleAssistant, Content: ""},
		{Role: chat.RoleAssistant, Content: "Let me check."},
		{Role: chat.RoleUser, Content: "Tool get_weather returned:\nsunny", IsToolResult: true},
	}

	msgs := convertTurnsToAnthropic(turns)

	if len(msgs) != 3 {
		t.Fatalf("expected empty turn dropped, got %d messages", len(msgs))
	}
	if msgs[0].Role != anthropic.MessageParamRoleUser {
		t.Errorf("expected user role first, got %q", msgs[0].Role)
	}
	if msgs[1].Role != anthropic.MessageParamRoleAssistant {
		t.Errorf("expected assistant role, got %q", msgs[1].Role)
	}
	if msgs[2].Role != anthropic.MessageParamRoleUser {
		t.Errorf("tool results must replay as user messages, got %q", msgs[2].Role)
	}
}
