package chat

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/alpic-ai/grizzly/config"
)

// Executor forwards an approved call to the tool server. The result is
// opaque beyond being representable as ledger text.
type Executor interface {
	CallTool(ctx context.Context, name string, args map[string]any) (string, error)
}

// GateStatus describes what the gate is doing with its pending slot.
type GateStatus int

const (
	// GateIdle means no call is pending.
	GateIdle GateStatus = iota
	// GateWaiting means a call is pending a human decision.
	GateWaiting
	// GateRunning means an approved call is executing.
	GateRunning
	// GateFailed means execution failed; the call is back in the slot
	// so the operator can edit the arguments and retry.
	GateFailed
)

// ErrNoPendingCall is returned by Approve when the slot is empty, for
// example when a concurrent Reject already consumed the call.
var ErrNoPendingCall = errors.New("no pending tool call")

// Gate is the human-in-the-loop checkpoint between a rebuilt tool call
// and its execution. It holds at most one call: a submit while one is
// outstanding overwrites it, since the observed stream protocol never
// produces overlapping calls and an orphaned pending call would strand
// the approval prompt.
//
// Approval is decoupled from stream lifetime: a call stays approvable
// after its stream is abandoned, and there is no timeout.
type Gate struct {
	mu       sync.Mutex
	executor Executor
	pending  *PendingToolCall
	status   GateStatus
	execErr  string
}

// NewGate wires a gate to the executor that will receive approved
// calls.
func NewGate(executor Executor) *Gate {
	return &Gate{executor: executor}
}

// Submit places a call in the pending slot, replacing any call already
// there.
func (g *Gate) Submit(call *PendingToolCall) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending != nil && config.DebugLog != nil {
		config.DebugLog.Printf("[chat] pending call %q overwritten by %q", g.pending.ToolName, call.ToolName)
	}
	g.pending = call
	g.status = GateWaiting
	g.execErr = ""
}

// Pending returns the outstanding call, or nil.
func (g *Gate) Pending() *PendingToolCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending
}

// Status reports the gate's current status.
func (g *Gate) Status() GateStatus {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status
}

// ExecError returns the message of the last execution failure, empty
// once a new call is submitted or execution succeeds.
func (g *Gate) ExecError() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.execErr
}

// ParamNames lists the declared parameter names of the pending call's
// resolved tool, sorted, so a caller can pre-populate an editable
// argument set before approval. Nil when no call is pending or the
// tool is unknown.
func (g *Gate) ParamNames() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending == nil || g.pending.ResolvedTool == nil {
		return nil
	}
	names := make([]string, 0, len(g.pending.ResolvedTool.InputSchema.Properties))
	for name := range g.pending.ResolvedTool.InputSchema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Approve consumes the pending slot and forwards the call to the
// executor. A non-nil args replaces the parsed arguments, which is how
// operator edits reach the tool. On failure the call is restored to
// the slot for retry, unless a newer call was submitted while the
// execution was in flight.
func (g *Gate) Approve(ctx context.Context, args map[string]any) (string, error) {
	g.mu.Lock()
	call := g.pending
	if call == nil {
		g.mu.Unlock()
		return "", ErrNoPendingCall
	}
	if args != nil {
		call.Arguments = args
	}
	g.pending = nil
	g.status = GateRunning
	g.execErr = ""
	g.mu.Unlock()

	result, err := g.executor.CallTool(ctx, call.ToolName, call.Arguments)

	g.mu.Lock()
	defer g.mu.Unlock()
	if err != nil {
		if g.pending == nil {
			g.pending = call
			g.status = GateFailed
			g.execErr = err.Error()
		}
		return "", err
	}
	if g.pending == nil {
		g.status = GateIdle
	}
	return result, nil
}

// Reject clears the pending slot. It has no side effects: no executor
// call, no ledger mutation. Rejecting an empty slot is a no-op,
// including while an approved call is executing (the slot was already
// consumed; the running call completes and reports its own status).
func (g *Gate) Reject() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending == nil && g.status == GateRunning {
		return
	}
	g.pending = nil
	g.status = GateIdle
	g.execErr = ""
}
