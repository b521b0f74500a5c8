// Package creative exposes the two domain operations of a creative
// agent, listing ad formats and previewing a creative, on top of the
// async mcp client.
package creative

import (
	"context"
	"fmt"
	"strings"

	"adcp/internal/mcp"
)

// ToolCaller is the slice of the mcp client the façade needs.
type ToolCaller interface {
	CallTool(ctx context.Context, toolName string, input map[string]any, wait bool) (*mcp.ToolResponse, error)
}

// FormatRecord is one creative format as reported by an agent. FormatID
// is derived, never sent by the agent: agent base address + "/" + id. It
// disambiguates formats across agents and is not persisted.
type FormatRecord struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	FormatID string `json:"format_id,omitempty"`
}

// RawID recovers the agent-local id from a derived FormatID by splitting
// on the last slash. A bare id passes through unchanged.
func RawID(formatID string) string {
	if idx := strings.LastIndexByte(formatID, '/'); idx >= 0 {
		return formatID[idx+1:]
	}
	return formatID
}

// DeriveFormatID joins an agent base address and a raw format id.
func DeriveFormatID(agentBase, id string) string {
	return strings.TrimRight(agentBase, "/") + "/" + id
}

// PreviewRecord is the preview payload for one creative. Type is one of
// image, video or html when the agent sets it; Fields carries the
// verbatim result payload including any passthrough keys, so callers can
// pick a rendering strategy when Type is absent.
type PreviewRecord struct {
	Type   string
	URL    string
	HTML   string
	Fields map[string]any
}

// Tasks is the high-level interface to one creative agent.
type Tasks struct {
	agentBase string
	client    ToolCaller
}

// NewTasks builds the façade over an existing tool caller. agentBase
// must be the same base address the caller targets; it seeds FormatID
// derivation.
func NewTasks(client ToolCaller, agentBase string) *Tasks {
	return &Tasks{
		agentBase: strings.TrimRight(agentBase, "/"),
		client:    client,
	}
}

// ListFormats fetches every creative format the agent offers, in agent
// order, with FormatID derived per record. Failures propagate; an empty
// list is never synthesized on error.
func (t *Tasks) ListFormats(ctx context.Context) ([]FormatRecord, error) {
	resp, err := t.client.CallTool(ctx, "list_creative_formats", map[string]any{}, true)
	if err != nil {
		return nil, err
	}
	if resp.Status != mcp.StatusCompleted {
		return nil, fmt.Errorf("list formats: agent returned status %q", resp.Status)
	}

	var result struct {
		Formats []FormatRecord `json:"formats"`
	}
	if err := resp.DecodeResult(&result); err != nil {
		return nil, fmt.Errorf("list formats: decode result: %w", err)
	}

	for i := range result.Formats {
		result.Formats[i].FormatID = DeriveFormatID(t.agentBase, result.Formats[i].ID)
	}

	return result.Formats, nil
}

// PreviewFormat fetches the preview payload for one format id. The
// result is returned verbatim in Fields alongside the extracted
// well-known keys.
func (t *Tasks) PreviewFormat(ctx context.Context, formatID string) (*PreviewRecord, error) {
	if formatID == "" {
		return nil, fmt.Errorf("preview: format id must not be empty")
	}

	resp, err := t.client.CallTool(ctx, "preview_creative", map[string]any{"format_id": formatID}, true)
	if err != nil {
		return nil, err
	}
	if resp.Status != mcp.StatusCompleted {
		return nil, fmt.Errorf("preview %s: agent returned status %q", formatID, resp.Status)
	}

	fields := map[string]any{}
	if err := resp.DecodeResult(&fields); err != nil {
		return nil, fmt.Errorf("preview %s: decode result: %w", formatID, err)
	}

	preview := &PreviewRecord{Fields: fields}
	if v, ok := fields["type"].(string); ok {
		preview.Type = strings.ToLower(v)
	}
	if v, ok := fields["url"].(string); ok {
		preview.URL = v
	}
	if v, ok := fields["html"].(string); ok {
		preview.HTML = v
	}

	return preview, nil
}
