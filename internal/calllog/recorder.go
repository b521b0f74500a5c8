// Package calllog implements the structured call log: one record per
// request/response pair the mcp client issues, appended to a JSON-line
// file and optionally persisted to sqlite for the history command.
package calllog

import (
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"time"

	"adcp/internal/mcp"
)

// fileEntry is the on-disk shape of one call record line.
type fileEntry struct {
	Timestamp   string          `json:"timestamp"`
	ToolName    string          `json:"tool_name"`
	ContextID   string          `json:"context_id"`
	RequestBody json.RawMessage `json:"request_body"`
	Status      string          `json:"status"`
	Error       string          `json:"error,omitempty"`
	ElapsedMS   int64           `json:"elapsed_ms"`
}

// FileRecorder appends one JSON line per call record and mirrors a
// summary through slog. Failed calls are mirrored at error level.
type FileRecorder struct {
	mu     sync.Mutex
	file   *os.File
	logger *slog.Logger
}

// NewFileRecorder opens (or creates) the call log file in append mode.
func NewFileRecorder(path string) (*FileRecorder, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return &FileRecorder{file: f, logger: slog.Default()}, nil
}

// Record implements mcp.Recorder. Write failures are reported through
// slog; a log sink must not disturb the call it observes.
func (r *FileRecorder) Record(rec mcp.CallRecord) {
	entry := fileEntry{
		Timestamp:   rec.Time.Format(time.RFC3339Nano),
		ToolName:    rec.ToolName,
		ContextID:   rec.ContextID,
		RequestBody: rec.RequestBody,
		Status:      string(rec.Status),
		Error:       rec.Error,
		ElapsedMS:   rec.Elapsed.Milliseconds(),
	}

	line, err := json.Marshal(entry)
	if err != nil {
		r.logger.Error("marshal call record", "tool", rec.ToolName, "error", err)
		return
	}

	r.mu.Lock()
	_, writeErr := r.file.Write(append(line, '\n'))
	r.mu.Unlock()

	if writeErr != nil {
		r.logger.Error("append call record", "tool", rec.ToolName, "error", writeErr)
		return
	}

	if rec.Error != "" {
		r.logger.Error("mcp call", "tool", rec.ToolName, "context_id", rec.ContextID, "status", rec.Status, "error", rec.Error)
	} else {
		r.logger.Info("mcp call", "tool", rec.ToolName, "context_id", rec.ContextID, "status", rec.Status, "elapsed", rec.Elapsed)
	}
}

// Close flushes and closes the underlying file.
func (r *FileRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.file.Close()
}

type multiRecorder struct {
	recorders []mcp.Recorder
}

// Multi fans a call record out to several recorders. Nil entries are
// skipped.
func Multi(recorders ...mcp.Recorder) mcp.Recorder {
	kept := make([]mcp.Recorder, 0, len(recorders))
	for _, r := range recorders {
		if r != nil {
			kept = append(kept, r)
		}
	}
	return &multiRecorder{recorders: kept}
}

func (m *multiRecorder) Record(rec mcp.CallRecord) {
	for _, r := range m.recorders {
		r.Record(rec)
	}
}
