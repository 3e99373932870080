// Package chat owns the conversation state for a model-driven session:
// the ordered transcript of turns, the state machine that rebuilds tool
// calls from a provider's incremental stream, and the approval gate that
// holds every rebuilt call until a human accepts or rejects it.
//
// Providers translate their SDK-specific stream chunks into the small
// event set defined here; everything downstream of that translation is
// provider-agnostic and testable without a network or a UI.
package chat

// Event is one abstract occurrence on a provider stream. The set is
// closed: providers map unrecognized chunk shapes to no event at all.
type Event interface {
	chatEvent()
}

// TextDelta carries a fragment of assistant prose.
type TextDelta struct {
	Text string
}

// ToolCallStart opens a tool call. Name may reference a tool that does
// not exist in the catalog; resolution happens in the accumulator.
type ToolCallStart struct {
	Name string
	ID   string
}

// ToolCallArgDelta carries a fragment of the call's argument JSON.
// Fragments arrive in emission order and are not parseable until the
// call ends.
type ToolCallArgDelta struct {
	Fragment string
}

// ToolCallEnd closes the currently open content block. Providers emit
// it for text blocks too; the accumulator ignores it when no tool call
// is open.
type ToolCallEnd struct{}

func (TextDelta) chatEvent()        {}
func (ToolCallStart) chatEvent()    {}
func (ToolCallArgDelta) chatEvent() {}
func (ToolCallEnd) chatEvent()      {}
