package chat

import (
	"testing"
	"time"
)

func TestLedgerAppend(t *testing.T) {
	ledger := NewLedger()

	ledger.Append(Turn{Role: RoleUser, Content: "hello"})
	ledger.Append(Turn{Role: RoleAssistant, Content: "hi"})

	if ledger.Len() != 2 {
		t.Fatalf("expected 2 turns, got %d", ledger.Len())
	}
	turns := ledger.Snapshot()
	if turns[0].Role != RoleUser || turns[1].Role != RoleAssistant {
		t.Errorf("insertion order lost: %+v", turns)
	}
	for i, turn := range turns {
		if turn.Timestamp.IsZero() {
			t.Errorf("turn %d missing auto timestamp", i)
		}
	}
}

func TestLedgerAppendKeepsExplicitTimestamp(t *testing.T) {
	ledger := NewLedger()
	ts := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)

	ledger.Append(Turn{Role: RoleUser, Content: "hello", Timestamp: ts})

	last, ok := ledger.Last()
	if !ok {
		t.Fatal("expected a turn")
	}
	if !last.Timestamp.Equal(ts) {
		t.Errorf("explicit timestamp overwritten: %v", last.Timestamp)
	}
}

func TestLedgerReplaceLast(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(l *Ledger)
		replace  Turn
		validate func(t *testing.T, l *Ledger)
	}{
		{
			name:    "empty ledger appends instead",
			setup:   func(l *Ledger) {},
			replace: Turn{Role: RoleAssistant, Content: "first"},
			validate: func(t *testing.T, l *Ledger) {
				if l.Len() != 1 {
					t.Fatalf("expected 1 turn, got %d", l.Len())
				}
				last, _ := l.Last()
				if last.Content != "first" {
					t.Errorf("unexpected content %q", last.Content)
				}
			},
		},
		{
			name: "replaces only the final turn",
			setup: func(l *Ledger) {
				l.Append(Turn{Role: RoleUser, Content: "question"})
				l.Append(Turn{Role: RoleAssistant, Content: "partial"})
			},
			replace: Turn{Role: RoleAssistant, Content: "partial and more"},
			validate: func(t *testing.T, l *Ledger) {
				turns := l.Snapshot()
				if len(turns) != 2 {
					t.Fatalf("expected 2 turns, got %d", len(turns))
				}
				if turns[0].Content != "question" {
					t.Errorf("earlier turn touched: %q", turns[0].Content)
				}
				if turns[1].Content != "partial and more" {
					t.Errorf("replacement lost: %q", turns[1].Content)
				}
			},
		},
		{
			name: "zero timestamp inherits the replaced turn's",
			setup: func(l *Ledger) {
				l.Append(Turn{
					Role:      RoleAssistant,
					Content:   "v1",
					Timestamp: time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC),
				})
			},
			replace: Turn{Role: RoleAssistant, Content: "v2"},
			validate: func(t *testing.T, l *Ledger) {
				last, _ := l.Last()
				want := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
				if !last.Timestamp.Equal(want) {
					t.Errorf("expected inherited timestamp, got %v", last.Timestamp)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := NewLedger()
			tt.setup(ledger)
			ledger.ReplaceLast(tt.replace)
			tt.validate(t, ledger)
		})
	}
}

func TestLedgerSnapshotIsIndependent(t *testing.T) {
	ledger := NewLedger()
	ledger.Append(Turn{Role: RoleUser, Content: "original"})

	snap := ledger.Snapshot()
	snap[0].Content = "mutated"

	last, _ := ledger.Last()
	if last.Content != "original" {
		t.Errorf("snapshot mutation leaked into the ledger: %q", last.Content)
	}
}

func TestLedgerLastEmpty(t *testing.T) {
	ledger := NewLedger()
	if _, ok := ledger.Last(); ok {
		t.Error("expected no turn from an empty ledger")
	}
}
