package chat

import (
	"encoding/json"
	"strings"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"github.com/alpic-ai/grizzly/config"
)

// State names the accumulator's position in the stream.
type State int

const (
	StateIdle State = iota
	StateStreamingText
	StateStreamingToolArgs
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreamingText:
		return "streaming_text"
	case StateStreamingToolArgs:
		return "streaming_tool_args"
	default:
		return "unknown"
	}
}

// PendingToolCall is a tool invocation rebuilt from stream fragments,
// waiting on a human decision. ResolvedTool is nil when the model named
// a tool absent from the catalog; that is surfaced, not treated as an
// error. ParseErr records a malformed argument buffer - the call is
// still submitted with empty arguments so the operator can inspect,
// edit, or reject it.
type PendingToolCall struct {
	ToolName     string
	ToolCallID   string
	Arguments    map[string]any
	RawArguments string
	ResolvedTool *mcptypes.Tool
	TurnIndex    int
	ParseErr     error
}

// Submitter receives rebuilt tool calls. *Gate is the production
// implementation.
type Submitter interface {
	Submit(*PendingToolCall)
}

// Accumulator applies stream events to the ledger and reassembles tool
// calls from fragmented argument JSON. One accumulator serves exactly
// one outbound request; its transient state never leaks into the next
// stream. It is not safe for concurrent use - the stream consumer must
// apply events in arrival order from a single goroutine.
type Accumulator struct {
	ledger  *Ledger
	catalog []mcptypes.Tool
	gate    Submitter

	state    State
	pending  *PendingToolCall
	args     strings.Builder
	turnOpen bool
}

// NewAccumulator prepares an accumulator for one provider stream.
// catalog is the tool list used to resolve calls by name; it is read,
// never refreshed, for the life of the stream.
func NewAccumulator(ledger *Ledger, catalog []mcptypes.Tool, gate Submitter) *Accumulator {
	return &Accumulator{
		ledger:  ledger,
		catalog: catalog,
		gate:    gate,
		state:   StateIdle,
	}
}

// State reports the current machine state.
func (a *Accumulator) State() State {
	return a.state
}

// Apply folds one event into the conversation state. Processing is
// synchronous and never fails the stream: malformed data degrades to a
// reviewable pending call and the machine returns to a consistent
// state.
func (a *Accumulator) Apply(ev Event) {
	switch ev := ev.(type) {
	case TextDelta:
		a.applyText(ev.Text)

	case ToolCallStart:
		// A start while a call is already open means the terminating
		// event was lost; finalize what we have before opening the next.
		if a.pending != nil {
			a.finalizeCall()
		}
		a.openCall(ev.Name, ev.ID)

	case ToolCallArgDelta:
		if a.pending == nil {
			// Fragment with no open call: the provider protocol does not
			// produce this, drop it rather than corrupt the text turn.
			return
		}
		a.args.WriteString(ev.Fragment)

	case ToolCallEnd:
		// Also fired when a plain text block closes.
		if a.pending == nil {
			if a.state == StateStreamingText {
				a.state = StateIdle
			}
			return
		}
		a.finalizeCall()
	}
}

// Finish handles end of stream. An open tool call without a terminating
// event is treated as if ToolCallEnd fired on the fragments collected
// so far; partial assistant text already applied is kept.
func (a *Accumulator) Finish() {
	if a.pending != nil {
		a.finalizeCall()
	}
	a.state = StateIdle
	a.turnOpen = false
}

func (a *Accumulator) applyText(text string) {
	if text == "" {
		return
	}
	if !a.turnOpen {
		a.ledger.Append(Turn{Role: RoleAssistant})
		a.turnOpen = true
	}
	last, _ := a.ledger.Last()
	last.Content += text
	a.ledger.ReplaceLast(last)
	if a.state == StateIdle {
		a.state = StateStreamingText
	}
}

func (a *Accumulator) openCall(name, id string) {
	turnIndex := a.ledger.Len()
	if a.turnOpen {
		turnIndex--
	}
	a.pending = &PendingToolCall{
		ToolName:     name,
		ToolCallID:   id,
		ResolvedTool: resolveTool(a.catalog, name),
		TurnIndex:    turnIndex,
	}
	a.args.Reset()
	a.state = StateStreamingToolArgs
	if a.pending.ResolvedTool == nil && config.DebugLog != nil {
		config.DebugLog.Printf("[chat] model requested unknown tool %q", name)
	}
}

// finalizeCall parses the buffered fragments, hands the call to the
// gate, and returns the machine to idle. A parse failure is never
// fatal and never drops the call.
func (a *Accumulator) finalizeCall() {
	call := a.pending
	call.RawArguments = a.args.String()
	call.Arguments = map[string]any{}

	if raw := strings.TrimSpace(call.RawArguments); raw != "" {
		if err := json.Unmarshal([]byte(raw), &call.Arguments); err != nil {
			call.Arguments = map[string]any{}
			call.ParseErr = err
			if config.DebugLog != nil {
				config.DebugLog.Printf("[chat] tool %q argument buffer unparseable (%d bytes): %v",
					call.ToolName, len(raw), err)
			}
		}
	}

	a.pending = nil
	a.args.Reset()
	a.state = StateIdle
	a.gate.Submit(call)
}

func resolveTool(catalog []mcptypes.Tool, name string) *mcptypes.Tool {
	for i := range catalog {
		if catalog[i].Name == name {
			return &catalog[i]
		}
	}
	return nil
}
