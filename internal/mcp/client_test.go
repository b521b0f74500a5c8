package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// scriptedAgent serves a canned ToolResponse per request, in order. The
// last entry repeats once the script runs out.
type scriptedAgent struct {
	mu       sync.Mutex
	script   []func(w http.ResponseWriter, req ToolRequest)
	requests []ToolRequest
}

func (a *scriptedAgent) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ToolRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		a.mu.Lock()
		a.requests = append(a.requests, req)
		idx := len(a.requests) - 1
		if idx >= len(a.script) {
			idx = len(a.script) - 1
		}
		step := a.script[idx]
		a.mu.Unlock()

		step(w, req)
	}
}

func (a *scriptedAgent) seen() []ToolRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]ToolRequest(nil), a.requests...)
}

func respond(status Status) func(w http.ResponseWriter, req ToolRequest) {
	return func(w http.ResponseWriter, _ ToolRequest) {
		json.NewEncoder(w).Encode(ToolResponse{Status: status})
	}
}

func respondCompleted(result string) func(w http.ResponseWriter, req ToolRequest) {
	return func(w http.ResponseWriter, _ ToolRequest) {
		json.NewEncoder(w).Encode(ToolResponse{Status: StatusCompleted, Result: json.RawMessage(result)})
	}
}

func respondFailed(msg string) func(w http.ResponseWriter, req ToolRequest) {
	return func(w http.ResponseWriter, _ ToolRequest) {
		json.NewEncoder(w).Encode(ToolResponse{Status: StatusFailed, Error: msg})
	}
}

func respondBroken() func(w http.ResponseWriter, req ToolRequest) {
	return func(w http.ResponseWriter, _ ToolRequest) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}
}

func newTestClient(t *testing.T, agent *scriptedAgent, opts ...Option) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(agent.handler())
	t.Cleanup(srv.Close)

	base := []Option{WithRetryDelay(0), WithTimeout(5 * time.Second)}
	return New(srv.URL, append(base, opts...)...), srv
}

func TestCallToolCompletedImmediately(t *testing.T) {
	agent := &scriptedAgent{script: []func(http.ResponseWriter, ToolRequest){
		respondCompleted(`{"ok":true}`),
	}}
	client, _ := newTestClient(t, agent)

	resp, err := client.CallTool(context.Background(), "list_creative_formats", nil, true)
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if resp.Status != StatusCompleted {
		t.Errorf("status = %q, want completed", resp.Status)
	}
	if got := len(agent.seen()); got != 1 {
		t.Errorf("requests = %d, want 1 (no polls for completed)", got)
	}
}

func TestCallToolInitialFailure(t *testing.T) {
	agent := &scriptedAgent{script: []func(http.ResponseWriter, ToolRequest){
		respondFailed("bad format id"),
	}}
	client, _ := newTestClient(t, agent)

	_, err := client.CallTool(context.Background(), "preview_creative", map[string]any{"format_id": "x"}, true)

	var opErr *OperationError
	if !errors.As(err, &opErr) {
		t.Fatalf("err = %v, want *OperationError", err)
	}
	if opErr.Message != "bad format id" {
		t.Errorf("message = %q, want agent error string", opErr.Message)
	}
	if got := len(agent.seen()); got != 1 {
		t.Errorf("requests = %d, want 1 (no polls for failed)", got)
	}
}

func TestCallToolFailureWithoutMessage(t *testing.T) {
	agent := &scriptedAgent{script: []func(http.ResponseWriter, ToolRequest){
		respond(StatusFailed),
	}}
	client, _ := newTestClient(t, agent)

	_, err := client.CallTool(context.Background(), "preview_creative", nil, true)

	var opErr *OperationError
	if !errors.As(err, &opErr) {
		t.Fatalf("err = %v, want *OperationError", err)
	}
	if opErr.Message != "operation failed" {
		t.Errorf("message = %q, want generic fallback", opErr.Message)
	}
}

func TestCallToolPollsUntilCompleted(t *testing.T) {
	agent := &scriptedAgent{script: []func(http.ResponseWriter, ToolRequest){
		respond(StatusQueued),
		respond(StatusInProgress),
		respondCompleted(`{"formats":[]}`),
	}}
	client, _ := newTestClient(t, agent)

	resp, err := client.CallTool(context.Background(), "list_creative_formats", nil, true)
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if resp.Status != StatusCompleted {
		t.Errorf("status = %q, want completed", resp.Status)
	}

	reqs := agent.seen()
	if len(reqs) != 3 {
		t.Fatalf("requests = %d, want 3 (initial + exactly 2 polls)", len(reqs))
	}

	contextID := reqs[0].ContextID
	if contextID == "" {
		t.Fatal("initial request has empty context id")
	}
	for i, req := range reqs[1:] {
		if req.ToolName != "list_creative_formats_status" {
			t.Errorf("poll %d tool = %q, want list_creative_formats_status", i+1, req.ToolName)
		}
		if req.ContextID != contextID {
			t.Errorf("poll %d context id = %q, want %q", i+1, req.ContextID, contextID)
		}
		if got, ok := req.Input["context_id"].(string); !ok || got != contextID {
			t.Errorf("poll %d input context_id = %v, want %q", i+1, req.Input["context_id"], contextID)
		}
	}
}

func TestCallToolRetriesExhausted(t *testing.T) {
	agent := &scriptedAgent{script: []func(http.ResponseWriter, ToolRequest){
		respond(StatusInProgress),
	}}
	client, _ := newTestClient(t, agent, WithMaxRetries(3))

	_, err := client.CallTool(context.Background(), "preview_creative", nil, true)

	var exhausted *RetriesExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("err = %v, want *RetriesExhaustedError", err)
	}
	if exhausted.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", exhausted.Attempts)
	}
	if got := len(agent.seen()); got != 4 {
		t.Errorf("requests = %d, want 4 (initial + 3 polls)", got)
	}
}

func TestCallToolTimeoutBeforeRetriesExhausted(t *testing.T) {
	agent := &scriptedAgent{script: []func(http.ResponseWriter, ToolRequest){
		respond(StatusInProgress),
	}}
	client, _ := newTestClient(t, agent,
		WithMaxRetries(30),
		WithRetryDelay(10*time.Millisecond),
		WithTimeout(35*time.Millisecond),
	)

	_, err := client.CallTool(context.Background(), "preview_creative", nil, true)

	var timeout *TimeoutError
	if !errors.As(err, &timeout) {
		t.Fatalf("err = %v, want *TimeoutError", err)
	}
	if got := len(agent.seen()); got >= 31 {
		t.Errorf("requests = %d, iteration budget should not have been reached", got)
	}
}

func TestCallToolToleratesTransientPollFailure(t *testing.T) {
	agent := &scriptedAgent{script: []func(http.ResponseWriter, ToolRequest){
		respond(StatusQueued),
		respondBroken(),
		respondCompleted(`{"ok":true}`),
	}}
	// Two iterations is exactly enough: the broken poll consumes one.
	client, _ := newTestClient(t, agent, WithMaxRetries(2))

	resp, err := client.CallTool(context.Background(), "list_creative_formats", nil, true)
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if resp.Status != StatusCompleted {
		t.Errorf("status = %q, want completed", resp.Status)
	}
	if got := len(agent.seen()); got != 3 {
		t.Errorf("requests = %d, want 3 (initial + failed poll + completed poll)", got)
	}
}

func TestCallToolNoWaitReturnsImmediateResponse(t *testing.T) {
	agent := &scriptedAgent{script: []func(http.ResponseWriter, ToolRequest){
		respond(StatusQueued),
	}}
	client, _ := newTestClient(t, agent)

	resp, err := client.CallTool(context.Background(), "list_creative_formats", nil, false)
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if resp.Status != StatusQueued {
		t.Errorf("status = %q, want queued passed through", resp.Status)
	}
	if got := len(agent.seen()); got != 1 {
		t.Errorf("requests = %d, want 1", got)
	}
}

func TestCallToolUnknownInitialStatusReturnedAsIs(t *testing.T) {
	agent := &scriptedAgent{script: []func(http.ResponseWriter, ToolRequest){
		respond(Status("paused")),
	}}
	client, _ := newTestClient(t, agent)

	resp, err := client.CallTool(context.Background(), "list_creative_formats", nil, true)
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if resp.Status != Status("paused") {
		t.Errorf("status = %q, want raw agent status preserved", resp.Status)
	}
	if got := len(agent.seen()); got != 1 {
		t.Errorf("requests = %d, want 1 (unknown initial status is not polled)", got)
	}
}

func TestCallToolUnknownPollStatusSoftSuccess(t *testing.T) {
	agent := &scriptedAgent{script: []func(http.ResponseWriter, ToolRequest){
		respond(StatusQueued),
		respond(Status("draining")),
	}}
	client, _ := newTestClient(t, agent, WithMaxRetries(2))

	resp, err := client.CallTool(context.Background(), "list_creative_formats", nil, true)
	if err != nil {
		t.Fatalf("CallTool: %v, want soft success on unexpected status", err)
	}
	if resp.Status != Status("draining") {
		t.Errorf("status = %q, want last known agent status", resp.Status)
	}
}

func TestCallToolInitialTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // connection refused from here on

	client := New(srv.URL, WithRetryDelay(0))

	_, err := client.CallTool(context.Background(), "list_creative_formats", nil, true)

	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("err = %v, want *TransportError", err)
	}
	if terr.ToolName != "list_creative_formats" {
		t.Errorf("tool = %q, want list_creative_formats", terr.ToolName)
	}
}

func TestCallToolRejectsEmptyToolName(t *testing.T) {
	client := New("http://127.0.0.1:0")
	if _, err := client.CallTool(context.Background(), "", nil, true); err == nil {
		t.Fatal("expected error for empty tool name")
	}
}

type captureRecorder struct {
	mu   sync.Mutex
	recs []CallRecord
}

func (r *captureRecorder) Record(rec CallRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recs = append(r.recs, rec)
}

func (r *captureRecorder) all() []CallRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]CallRecord(nil), r.recs...)
}

func TestCallToolRecordsEveryExchange(t *testing.T) {
	agent := &scriptedAgent{script: []func(http.ResponseWriter, ToolRequest){
		respond(StatusQueued),
		respondBroken(),
		respondCompleted(`{}`),
	}}
	rec := &captureRecorder{}
	client, _ := newTestClient(t, agent, WithRecorder(rec))

	if _, err := client.CallTool(context.Background(), "preview_creative", map[string]any{"format_id": "a"}, true); err != nil {
		t.Fatalf("CallTool: %v", err)
	}

	recs := rec.all()
	if len(recs) != 3 {
		t.Fatalf("records = %d, want one per request/response pair", len(recs))
	}

	if recs[0].ToolName != "preview_creative" || recs[0].Status != StatusQueued {
		t.Errorf("first record = %+v, want queued preview_creative", recs[0])
	}
	if recs[1].Status != StatusFailed || recs[1].Error == "" {
		t.Errorf("transport failure record = %+v, want failed with error", recs[1])
	}
	if recs[2].ToolName != "preview_creative_status" || recs[2].Status != StatusCompleted {
		t.Errorf("final record = %+v, want completed poll", recs[2])
	}

	if !strings.Contains(string(recs[0].RequestBody), `"format_id":"a"`) {
		t.Errorf("request body not captured: %s", recs[0].RequestBody)
	}
	if recs[0].ContextID == "" || recs[0].ContextID != recs[2].ContextID {
		t.Errorf("context id not stable across records: %q vs %q", recs[0].ContextID, recs[2].ContextID)
	}
}

func TestStatusNormalize(t *testing.T) {
	cases := map[Status]Status{
		StatusQueued:      StatusQueued,
		StatusInProgress:  StatusInProgress,
		StatusCompleted:   StatusCompleted,
		StatusFailed:      StatusFailed,
		Status("paused"):  StatusUnknown,
		Status(""):        StatusUnknown,
		Status("UNKNOWN"): StatusUnknown,
	}
	for in, want := range cases {
		if got := in.Normalize(); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}
