package chat

import "time"

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message unit in a conversation. Tool results are carried
// as user turns with IsToolResult set, matching how they are replayed
// to the provider on the next request.
type Turn struct {
	Role         Role
	Content      string
	IsToolResult bool
	Timestamp    time.Time
}

// Ledger is the append-only transcript of a conversation. Insertion
// order is the conversation order and is replayed verbatim on every
// outbound request, so only the accumulator mutates it while a stream
// is open.
type Ledger struct {
	turns []Turn
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Append adds a completed turn.
func (l *Ledger) Append(t Turn) {
	if t.Timestamp.IsZero() {
		t.Timestamp = time.Now()
	}
	l.turns = append(l.turns, t)
}

// ReplaceLast swaps out the final turn. It exists solely so the
// in-progress assistant turn can be filled incrementally while its
// stream is open; turns with a later turn after them are never touched.
func (l *Ledger) ReplaceLast(t Turn) {
	if len(l.turns) == 0 {
		l.Append(t)
		return
	}
	if t.Timestamp.IsZero() {
		t.Timestamp = l.turns[len(l.turns)-1].Timestamp
	}
	l.turns[len(l.turns)-1] = t
}

// Snapshot returns a copy of the transcript in order, used to build the
// next outbound request. Callers may not mutate ledger state through it.
func (l *Ledger) Snapshot() []Turn {
	out := make([]Turn, len(l.turns))
	copy(out, l.turns)
	return out
}

// Len reports the number of turns.
func (l *Ledger) Len() int {
	return len(l.turns)
}

// Last returns the final turn, if any.
func (l *Ledger) Last() (Turn, bool) {
	if len(l.turns) == 0 {
		return Turn{}, false
	}
	return l.turns[len(l.turns)-1], true
}
