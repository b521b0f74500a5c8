package mcp

import (
	"fmt"
	"time"
)

// TransportError wraps a network or HTTP-level failure. A transport
// failure on the initial request fails the call immediately; transport
// failures on individual polls are retried and only logged.
type TransportError struct {
	ToolName string
	URL      string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("mcp request %s to %s failed: %v", e.ToolName, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// OperationError is returned when the agent reports a failed status.
type OperationError struct {
	ToolName string
	Message  string
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("operation %s failed: %s", e.ToolName, e.Message)
}

// TimeoutError is returned when the wall-clock budget is exceeded while
// the operation is still non-terminal.
type TimeoutError struct {
	ToolName string
	Budget   time.Duration
	Elapsed  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("operation %s timed out after %s (budget %s)", e.ToolName, e.Elapsed.Round(time.Millisecond), e.Budget)
}

// RetriesExhaustedError is returned when the iteration budget runs out
// while the agent still reports the operation as queued or in progress.
type RetriesExhaustedError struct {
	ToolName string
	Attempts int
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("operation %s did not complete after %d polls", e.ToolName, e.Attempts)
}
