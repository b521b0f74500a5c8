package calllog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"adcp/internal/mcp"
	"adcp/pkg/db"
)

// Store persists call records to sqlite. It doubles as an mcp.Recorder
// so the client can write history as a side effect of every call.
type Store struct {
	db     *db.DB
	logger *slog.Logger
}

func NewStore(database *db.DB) *Store {
	return &Store{db: database, logger: slog.Default()}
}

// Record implements mcp.Recorder. Insert failures are logged, not
// surfaced; the history store is a sink.
func (s *Store) Record(rec mcp.CallRecord) {
	if err := s.Insert(context.Background(), rec); err != nil {
		s.logger.Error("persist call record", "tool", rec.ToolName, "error", err)
	}
}

// Insert writes one call record.
func (s *Store) Insert(ctx context.Context, rec mcp.CallRecord) error {
	_, err := s.db.Write().ExecContext(ctx, `
		INSERT INTO call_records (tool_name, context_id, request_body, status, error, elapsed_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ToolName,
		rec.ContextID,
		string(rec.RequestBody),
		string(rec.Status),
		rec.Error,
		rec.Elapsed.Milliseconds(),
		rec.Time.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert call record: %w", err)
	}
	return nil
}

// HistoryEntry is one persisted call record.
type HistoryEntry struct {
	ID          int64
	ToolName    string
	ContextID   string
	RequestBody string
	Status      string
	Error       string
	ElapsedMS   int64
	CreatedAt   time.Time
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Read().QueryContext(ctx, `
		SELECT id, tool_name, context_id, request_body, status, error, elapsed_ms, created_at
		FROM call_records
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query call records: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var entry HistoryEntry
		var createdAt string
		if err := rows.Scan(
			&entry.ID,
			&entry.ToolName,
			&entry.ContextID,
			&entry.RequestBody,
			&entry.Status,
			&entry.Error,
			&entry.ElapsedMS,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan call record: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			entry.CreatedAt = ts
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// ByContext returns every record sharing one context id, oldest first,
// reconstructing the request/poll sequence of a logical call.
func (s *Store) ByContext(ctx context.Context, contextID string) ([]HistoryEntry, error) {
	rows, err := s.db.Read().QueryContext(ctx, `
		SELECT id, tool_name, context_id, request_body, status, error, elapsed_ms, created_at
		FROM call_records
		WHERE context_id = ?
		ORDER BY id ASC
	`, contextID)
	if err != nil {
		return nil, fmt.Errorf("query call records: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var entry HistoryEntry
		var createdAt string
		if err := rows.Scan(
			&entry.ID,
			&entry.ToolName,
			&entry.ContextID,
			&entry.RequestBody,
			&entry.Status,
			&entry.Error,
			&entry.ElapsedMS,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan call record: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			entry.CreatedAt = ts
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
