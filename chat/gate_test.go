package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// funcExecutor backs a gate with a test closure.
type funcExecutor func(ctx context.Context, name string, args map[string]any) (string, error)

func (f funcExecutor) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	return f(ctx, name, args)
}

func pendingCall(name string) *PendingToolCall {
	return &PendingToolCall{
		ToolName:  name,
		Arguments: map[string]any{"city": "Paris"},
	}
}

func TestGateSubmitOverwrites(t *testing.T) {
	gate := NewGate(funcExecutor(func(context.Context, string, map[string]any) (string, error) {
		return "", nil
	}))

	gate.Submit(pendingCall("first"))
	gate.Submit(pendingCall("second"))

	pending := gate.Pending()
	if pending == nil || pending.ToolName != "second" {
		t.Fatalf("expected last submitted call to win, got %+v", pending)
	}
	if gate.Status() != GateWaiting {
		t.Errorf("expected waiting status, got %d", gate.Status())
	}
}

func TestGateApprove(t *testing.T) {
	tests := []struct {
		name     string
		executor funcExecutor
		args     map[string]any
		validate func(t *testing.T, gate *Gate, result string, err error)
	}{
		{
			name: "success clears the slot",
			executor: func(_ context.Context, name string, args map[string]any) (string, error) {
				if name != "get_weather" {
					return "", errors.New("wrong tool")
				}
				return "sunny", nil
			},
			validate: func(t *testing.T, gate *Gate, result string, err error) {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if result != "sunny" {
					t.Errorf("expected result passthrough, got %q", result)
				}
				if gate.Pending() != nil {
					t.Errorf("slot must be empty after success")
				}
				if gate.Status() != GateIdle {
					t.Errorf("expected idle, got %d", gate.Status())
				}
			},
		},
		{
			name: "edited arguments reach the executor",
			executor: func(_ context.Context, _ string, args map[string]any) (string, error) {
				if args["city"] != "Berlin" {
					return "", errors.New("edit lost")
				}
				return "ok", nil
			},
			args: map[string]any{"city": "Berlin"},
			validate: func(t *testing.T, gate *Gate, result string, err error) {
				if err != nil {
					t.Fatalf("edited arguments were not forwarded: %v", err)
				}
			},
		},
		{
			name: "failure restores the call for retry",
			executor: func(context.Context, string, map[string]any) (string, error) {
				return "", errors.New("backend exploded")
			},
			validate: func(t *testing.T, gate *Gate, result string, err error) {
				if err == nil {
					t.Fatal("expected error")
				}
				if gate.Pending() == nil {
					t.Fatalf("failed call must return to the slot")
				}
				if gate.Status() != GateFailed {
					t.Errorf("expected failed status, got %d", gate.Status())
				}
				if gate.ExecError() != "backend exploded" {
					t.Errorf("expected recorded error, got %q", gate.ExecError())
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := NewGate(tt.executor)
			gate.Submit(pendingCall("get_weather"))

			result, err := gate.Approve(context.Background(), tt.args)
			tt.validate(t, gate, result, err)
		})
	}
}

func TestGateApproveEmptySlot(t *testing.T) {
	gate := NewGate(funcExecutor(func(context.Context, string, map[string]any) (string, error) {
		t.Fatal("executor must not run")
		return "", nil
	}))

	if _, err := gate.Approve(context.Background(), nil); !errors.Is(err, ErrNoPendingCall) {
		t.Fatalf("expected ErrNoPendingCall, got %v", err)
	}
}

func TestGateRejectDuringExecution(t *testing.T) {
	// Approve consumes the slot before calling the executor, so a
	// reject that lands mid-execution finds an empty slot and changes
	// nothing: the running call completes normally.
	started := make(chan struct{})
	release := make(chan struct{})

	gate := NewGate(funcExecutor(func(context.Context, string, map[string]any) (string, error) {
		close(started)
		<-release
		return "done", nil
	}))
	gate.Submit(pendingCall("slow_tool"))

	type outcome struct {
		result string
		err    error
	}
	results := make(chan outcome, 1)
	go func() {
		r, err := gate.Approve(context.Background(), nil)
		results <- outcome{r, err}
	}()

	<-started
	gate.Reject() // concurrent reject, slot already empty
	if gate.Status() != GateRunning {
		t.Errorf("reject must not disturb the running status, got %d", gate.Status())
	}
	close(release)

	select {
	case out := <-results:
		if out.err != nil {
			t.Fatalf("execution must complete despite the reject: %v", out.err)
		}
		if out.result != "done" {
			t.Errorf("expected result %q, got %q", "done", out.result)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("approve did not return")
	}

	if gate.Pending() != nil {
		t.Errorf("slot must stay empty")
	}
	if gate.Status() != GateIdle {
		t.Errorf("expected idle, got %d", gate.Status())
	}
}

func TestGateFailureDoesNotClobberNewerCall(t *testing.T) {
	// If a newer call is submitted while a failing execution is in
	// flight, the failure must not overwrite it.
	started := make(chan struct{})
	release := make(chan struct{})

	gate := NewGate(funcExecutor(func(context.Context, string, map[string]any) (string, error) {
		close(started)
		<-release
		return "", errors.New("too late")
	}))
	gate.Submit(pendingCall("old_call"))

	errs := make(chan error, 1)
	go func() {
		_, err := gate.Approve(context.Background(), nil)
		errs <- err
	}()

	<-started
	gate.Submit(pendingCall("new_call"))
	close(release)

	if err := <-errs; err == nil {
		t.Fatal("expected execution error")
	}

	pending := gate.Pending()
	if pending == nil || pending.ToolName != "new_call" {
		t.Fatalf("newer call must survive the stale failure, got %+v", pending)
	}
	if gate.Status() != GateWaiting {
		t.Errorf("expected waiting for the newer call, got %d", gate.Status())
	}
}

func TestGateRetryAfterFailure(t *testing.T) {
	attempts := 0
	gate := NewGate(funcExecutor(func(context.Context, string, map[string]any) (string, error) {
		attempts++
		if attempts == 1 {
			return "", errors.New("transient")
		}
		return "recovered", nil
	}))
	gate.Submit(pendingCall("flaky"))

	if _, err := gate.Approve(context.Background(), nil); err == nil {
		t.Fatal("first attempt should fail")
	}

	result, err := gate.Approve(context.Background(), nil)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if result != "recovered" {
		t.Errorf("expected retry result, got %q", result)
	}
	if gate.Pending() != nil || gate.Status() != GateIdle {
		t.Errorf("expected empty idle gate after successful retry")
	}
}

func TestGateParamNames(t *testing.T) {
	gate := NewGate(funcExecutor(func(context.Context, string, map[string]any) (string, error) {
		return "", nil
	}))

	if names := gate.ParamNames(); names != nil {
		t.Errorf("expected nil with empty slot, got %v", names)
	}

	call := pendingCall("get_weather")
	call.ResolvedTool = &mcptypes.Tool{
		Name: "get_weather",
		InputSchema: mcptypes.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"units": map[string]any{"type": "string"},
				"city":  map[string]any{"type": "string"},
			},
		},
	}
	gate.Submit(call)

	names := gate.ParamNames()
	if len(names) != 2 || names[0] != "city" || names[1] != "units" {
		t.Errorf("expected sorted [city units], got %v", names)
	}

	unknown := pendingCall("mystery")
	gate.Submit(unknown)
	if names := gate.ParamNames(); names != nil {
		t.Errorf("expected nil for unknown tool, got %v", names)
	}
}

func TestGateRejectEmptySlot(t *testing.T) {
	gate := NewGate(funcExecutor(func(context.Context, string, map[string]any) (string, error) {
		return "", nil
	}))
	gate.Reject() // no-op
	if gate.Pending() != nil || gate.Status() != GateIdle {
		t.Errorf("reject on empty slot must change nothing")
	}
}
