// Package mockagent is a local creative agent simulator for development
// and tests. Every operation walks the same fixed steps: queued on
// first contact, in_progress on the next, completed with a canned
// result after that.
package mockagent

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const statusToolSuffix = "_status"

type operation struct {
	step  int
	tool  string
	input map[string]any
}

// Server holds the per-context operation state. State lives in memory
// only; restarting the simulator forgets every operation.
type Server struct {
	mu       sync.Mutex
	contexts map[string]*operation
	logger   *slog.Logger
}

func NewServer() *Server {
	return &Server{
		contexts: make(map[string]*operation),
		logger:   slog.Default(),
	}
}

// Handler returns the HTTP surface: the tool endpoint and the operation
// resource mirror.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/mcp/tools", s.handleTools)
	mux.HandleFunc("/ops/", s.handleOps)
	return mux
}

// ListenAndServe runs the simulator on addr until the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("mock agent listening", "addr", addr)
	return http.ListenAndServe(addr, s.Handler())
}

type toolRequest struct {
	ToolName  string         `json:"tool_name"`
	ContextID string         `json:"context_id"`
	Input     map[string]any `json:"input"`
}

func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req toolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	contextID := req.ContextID
	if contextID == "" {
		contextID = uuid.NewString()
	}

	// Status polls share the context of the original call; the stored
	// tool name decides the canned result either way.
	tool := strings.TrimSuffix(req.ToolName, statusToolSuffix)

	s.mu.Lock()
	defer s.mu.Unlock()

	op, ok := s.contexts[contextID]
	if !ok {
		s.contexts[contextID] = &operation{step: 0, tool: tool, input: req.Input}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":        "queued",
			"context_id":    contextID,
			"operation_url": operationURL(r, contextID),
		})
		return
	}

	switch op.step {
	case 0:
		op.step = 1
		writeJSON(w, http.StatusOK, map[string]any{
			"status":        "in_progress",
			"operation_url": operationURL(r, contextID),
		})
	case 1:
		op.step = 2
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "completed",
			"result": cannedResult(op),
		})
	default:
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "completed",
			"result": cannedResult(op),
		})
	}
}

func (s *Server) handleOps(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	contextID := strings.TrimPrefix(r.URL.Path, "/ops/")

	s.mu.Lock()
	defer s.mu.Unlock()

	op, ok := s.contexts[contextID]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"status": "failed",
			"error":  "no such context",
		})
		return
	}

	switch op.step {
	case 0:
		op.step = 1
		writeJSON(w, http.StatusOK, map[string]any{
			"status":        "queued",
			"operation_url": operationURL(r, contextID),
		})
	case 1:
		op.step = 2
		writeJSON(w, http.StatusOK, map[string]any{
			"status":        "in_progress",
			"operation_url": operationURL(r, contextID),
		})
	default:
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "completed",
			"result": cannedResult(op),
		})
	}
}

func cannedResult(op *operation) map[string]any {
	switch op.tool {
	case "list_creative_formats":
		return map[string]any{
			"formats": []map[string]any{
				{"id": "banner_300x250", "name": "300x250 Banner", "type": "image"},
				{"id": "story_vertical", "name": "Vertical Story Ad", "type": "video"},
			},
		}
	case "preview_creative":
		formatID := "unknown"
		if v, ok := op.input["format_id"].(string); ok && v != "" {
			formatID = v
		}
		return map[string]any{
			"type":        "image",
			"preview_url": "mock://preview/" + formatID + ".png",
			"format_id":   formatID,
		}
	default:
		return map[string]any{}
	}
}

func operationURL(r *http.Request, contextID string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + "/ops/" + contextID
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
