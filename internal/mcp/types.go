package mcp

import (
	"encoding/json"
	"time"
)

// Status is the agent-reported state of an operation. The wire value is
// kept verbatim; anything outside the four known states is treated as
// unknown and retried by the poll loop.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusUnknown    Status = "unknown"
)

// Normalize maps any unrecognized wire value to StatusUnknown.
func (s Status) Normalize() Status {
	switch s {
	case StatusQueued, StatusInProgress, StatusCompleted, StatusFailed:
		return s
	}
	return StatusUnknown
}

// Terminal reports whether the operation has reached a final state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Pending reports whether the agent has accepted the operation but not
// finished it.
func (s Status) Pending() bool {
	return s == StatusQueued || s == StatusInProgress
}

// ToolRequest is the envelope POSTed to the agent's tool endpoint.
// Immutable once constructed.
type ToolRequest struct {
	ToolName  string         `json:"tool_name"`
	ContextID string         `json:"context_id"`
	Input     map[string]any `json:"input"`
}

// ToolResponse is the agent's reply. Result is present iff the status is
// completed, Error iff failed. OperationURL, when present, points at the
// agent's operation resource for out-of-band polling.
type ToolResponse struct {
	Status       Status          `json:"status"`
	Result       json.RawMessage `json:"result,omitempty"`
	Error        string          `json:"error,omitempty"`
	OperationURL string          `json:"operation_url,omitempty"`
	ContextID    string          `json:"context_id,omitempty"`
}

// DecodeResult unmarshals the completed result payload into out.
func (r *ToolResponse) DecodeResult(out any) error {
	if len(r.Result) == 0 {
		return nil
	}
	return json.Unmarshal(r.Result, out)
}

// CallRecord describes one request/response pair, successful or not. One
// record is handed to the Recorder per HTTP exchange, including failed
// transports and individual polls.
type CallRecord struct {
	Time        time.Time       `json:"time"`
	ToolName    string          `json:"tool_name"`
	ContextID   string          `json:"context_id"`
	RequestBody json.RawMessage `json:"request_body"`
	Status      Status          `json:"status"`
	Error       string          `json:"error,omitempty"`
	Elapsed     time.Duration   `json:"elapsed"`
}

// Recorder receives a CallRecord for every request/response pair the
// client issues. Implementations must not block for long; the client
// calls Record synchronously.
type Recorder interface {
	Record(rec CallRecord)
}
