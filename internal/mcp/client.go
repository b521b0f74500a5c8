// Package mcp implements the async request/poll client for creative
// agents. A tool call POSTs a request envelope, reads the status field,
// and polls a synthesized "<tool>_status" tool until the operation is
// terminal or a budget runs out.
package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	defaultEndpointPath = "/mcp/tools"
	statusToolSuffix    = "_status"

	// Documented defaults for the three polling knobs. The iteration cap
	// and the wall-clock timeout are independent; whichever triggers
	// first ends the loop.
	DefaultMaxRetries = 30
	DefaultRetryDelay = 2 * time.Second
	DefaultTimeout    = 300 * time.Second
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient supplies a custom HTTP client. The underlying transport
// may be reused across calls; it carries no semantic state.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithEndpointPath overrides the tool endpoint path (default /mcp/tools).
func WithEndpointPath(path string) Option {
	return func(c *Client) {
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		c.endpointPath = path
	}
}

// WithMaxRetries caps the number of poll iterations.
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithRetryDelay sets the fixed sleep between polls. No backoff, no
// jitter.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.retryDelay = d }
}

// WithTimeout sets the overall wall-clock budget for one call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithRecorder attaches a call recorder. Every request/response pair is
// reported to it, transport failures included.
func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// WithLogger overrides the default slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// Client drives async tool calls against one creative agent. It holds no
// state between calls; concurrent logical operations should each run
// through their own CallTool invocation.
type Client struct {
	baseURL      string
	endpointPath string
	maxRetries   int
	retryDelay   time.Duration
	timeout      time.Duration
	httpClient   *http.Client
	recorder     Recorder
	logger       *slog.Logger
}

// New creates a client for the agent at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		endpointPath: defaultEndpointPath,
		maxRetries:   DefaultMaxRetries,
		retryDelay:   DefaultRetryDelay,
		timeout:      DefaultTimeout,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		logger:       slog.Default(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return c
}

// BaseURL returns the agent base address the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

// CallTool invokes a tool on the agent. A fresh context id is minted per
// call and reused for all polls belonging to it.
//
// With wait=false the immediate response is returned regardless of
// status and the caller takes over polling. With wait=true a queued or
// in-progress response enters the poll loop; a failed response becomes
// an *OperationError, a completed one is returned unchanged, and any
// unrecognized status is returned as-is.
func (c *Client) CallTool(ctx context.Context, toolName string, input map[string]any, wait bool) (*ToolResponse, error) {
	if toolName == "" {
		return nil, fmt.Errorf("tool name must not be empty")
	}

	contextID := uuid.NewString()

	resp, err := c.request(ctx, toolName, contextID, input)
	if err != nil {
		return nil, err
	}

	if !wait {
		return resp, nil
	}

	return c.pollUntilComplete(ctx, toolName, contextID, resp)
}

// pollUntilComplete drives an accepted operation to a terminal state.
// Only called from CallTool.
func (c *Client) pollUntilComplete(ctx context.Context, toolName, contextID string, initial *ToolResponse) (*ToolResponse, error) {
	switch {
	case initial.Status == StatusCompleted:
		return initial, nil
	case initial.Status == StatusFailed:
		return nil, &OperationError{ToolName: toolName, Message: failureMessage(initial)}
	case !initial.Status.Pending():
		// Unrecognized initial status: hand it back rather than guess.
		return initial, nil
	}

	start := time.Now()
	last := initial

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		// Checked before every cycle so the loop cannot overrun the
		// budget by more than one sleep-and-request.
		if elapsed := time.Since(start); elapsed > c.timeout {
			return nil, &TimeoutError{ToolName: toolName, Budget: c.timeout, Elapsed: elapsed}
		}

		time.Sleep(c.retryDelay)

		resp, err := c.request(ctx, toolName+statusToolSuffix, contextID, map[string]any{"context_id": contextID})
		if err != nil {
			// A single failed poll is tolerated; it still consumes an
			// iteration.
			c.logger.Warn("status poll failed", "tool", toolName, "context_id", contextID, "attempt", attempt+1, "error", err)
			continue
		}

		last = resp
		c.logger.Debug("poll status", "tool", toolName, "context_id", contextID, "attempt", attempt+1, "status", resp.Status)

		switch resp.Status {
		case StatusCompleted:
			return resp, nil
		case StatusFailed:
			return nil, &OperationError{ToolName: toolName, Message: failureMessage(resp)}
		}
	}

	if last.Status.Pending() {
		return nil, &RetriesExhaustedError{ToolName: toolName, Attempts: c.maxRetries}
	}

	// Unexpected non-terminal status at exhaustion: surface the last
	// response instead of masking what the agent said.
	return last, nil
}

// request performs one HTTP exchange and reports it to the recorder.
func (c *Client) request(ctx context.Context, toolName, contextID string, input map[string]any) (*ToolResponse, error) {
	if input == nil {
		input = map[string]any{}
	}

	body := ToolRequest{ToolName: toolName, ContextID: contextID, Input: input}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := c.baseURL + c.endpointPath

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	started := time.Now()

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		terr := &TransportError{ToolName: toolName, URL: endpoint, Err: err}
		c.record(CallRecord{
			Time:        started,
			ToolName:    toolName,
			ContextID:   contextID,
			RequestBody: payload,
			Status:      StatusFailed,
			Error:       terr.Error(),
			Elapsed:     time.Since(started),
		})
		return nil, terr
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(httpResp.Body, 512))
		terr := &TransportError{
			ToolName: toolName,
			URL:      endpoint,
			Err:      fmt.Errorf("unexpected status %s: %s", httpResp.Status, strings.TrimSpace(string(snippet))),
		}
		c.record(CallRecord{
			Time:        started,
			ToolName:    toolName,
			ContextID:   contextID,
			RequestBody: payload,
			Status:      StatusFailed,
			Error:       terr.Error(),
			Elapsed:     time.Since(started),
		})
		return nil, terr
	}

	var resp ToolResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		terr := &TransportError{ToolName: toolName, URL: endpoint, Err: fmt.Errorf("decode response: %w", err)}
		c.record(CallRecord{
			Time:        started,
			ToolName:    toolName,
			ContextID:   contextID,
			RequestBody: payload,
			Status:      StatusFailed,
			Error:       terr.Error(),
			Elapsed:     time.Since(started),
		})
		return nil, terr
	}

	c.record(CallRecord{
		Time:        started,
		ToolName:    toolName,
		ContextID:   contextID,
		RequestBody: payload,
		Status:      resp.Status.Normalize(),
		Error:       resp.Error,
		Elapsed:     time.Since(started),
	})

	return &resp, nil
}

func (c *Client) record(rec CallRecord) {
	if c.recorder != nil {
		c.recorder.Record(rec)
	}
}

func failureMessage(resp *ToolResponse) string {
	if resp.Error != "" {
		return resp.Error
	}
	return "operation failed"
}
