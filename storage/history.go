// Package storage persists the tool invocation history. Each executed
// call - whether the operator invoked it directly from the tools panel
// or approved it out of a model stream - is recorded so a testing
// session leaves an auditable trail. Conversation transcripts are
// deliberately not persisted.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// InvocationSource records how a call was initiated.
type InvocationSource string

const (
	SourceDirect InvocationSource = "direct"
	SourceModel  InvocationSource = "model"
)

// Invocation is one executed tool call.
type Invocation struct {
	ID        string
	ToolName  string
	Arguments map[string]any
	Result    string
	Errored   bool
	Source    InvocationSource
	Duration  time.Duration
	CalledAt  time.Time
}

// HistoryStore is a sqlite-backed invocation log.
type HistoryStore struct {
	db *sql.DB
}

// NewHistoryStore opens (or creates) history.db in the data directory.
func NewHistoryStore(dataDir string) (*HistoryStore, error) {
	dbPath := filepath.Join(dataDir, "history.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &HistoryStore{db: db}

	if err := store.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

func (hs *HistoryStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS invocations (
		id TEXT PRIMARY KEY,
		tool_name TEXT NOT NULL,
		arguments TEXT NOT NULL,
		result TEXT NOT NULL,
		errored INTEGER NOT NULL,
		source TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		called_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_invocations_tool_name ON invocations(tool_name);
	CREATE INDEX IF NOT EXISTS idx_invocations_called_at ON invocations(called_at);
	`

	_, err := hs.db.Exec(schema)
	return err
}

// Record appends an invocation. A missing ID is generated; a zero
// CalledAt is stamped now.
func (hs *HistoryStore) Record(inv Invocation) error {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	if inv.CalledAt.IsZero() {
		inv.CalledAt = time.Now()
	}

	argsJSON, err := json.Marshal(inv.Arguments)
	if err != nil {
		return fmt.Errorf("failed to marshal arguments: %w", err)
	}

	query := `
	INSERT INTO invocations (id, tool_name, arguments, result, errored, source, duration_ms, called_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = hs.db.Exec(query,
		inv.ID,
		inv.ToolName,
		string(argsJSON),
		inv.Result,
		inv.Errored,
		string(inv.Source),
		inv.Duration.Milliseconds(),
		inv.CalledAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record invocation: %w", err)
	}

	return nil
}

// Recent returns the latest invocations, newest first.
func (hs *HistoryStore) Recent(limit int) ([]Invocation, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
	SELECT id, tool_name, arguments, result, errored, source, duration_ms, called_at
	FROM invocations
	ORDER BY called_at DESC
	LIMIT ?
	`

	rows, err := hs.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query invocations: %w", err)
	}
	defer rows.Close()

	return scanInvocations(rows)
}

// ForTool returns the latest invocations of one tool, newest first.
func (hs *HistoryStore) ForTool(toolName string, limit int) ([]Invocation, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
	SELECT id, tool_name, arguments, result, errored, source, duration_ms, called_at
	FROM invocations
	WHERE tool_name = ?
	ORDER BY called_at DESC
	LIMIT ?
	`

	rows, err := hs.db.Query(query, toolName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query invocations: %w", err)
	}
	defer rows.Close()

	return scanInvocations(rows)
}

// Close closes the underlying database.
func (hs *HistoryStore) Close() error {
	return hs.db.Close()
}

func scanInvocations(rows *sql.Rows) ([]Invocation, error) {
	var invocations []Invocation

	for rows.Next() {
		var inv Invocation
		var argsJSON, source string
		var durationMs int64

		err := rows.Scan(&inv.ID, &inv.ToolName, &argsJSON, &inv.Result,
			&inv.Errored, &source, &durationMs, &inv.CalledAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invocation: %w", err)
		}

		if err := json.Unmarshal([]byte(argsJSON), &inv.Arguments); err != nil {
			inv.Arguments = map[string]any{}
		}
		inv.Source = InvocationSource(source)
		inv.Duration = time.Duration(durationMs) * time.Millisecond

		invocations = append(invocations, inv)
	}

	return invocations, rows.Err()
}
