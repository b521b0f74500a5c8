package calllog

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"adcp/internal/mcp"
	"adcp/pkg/db"
	"adcp/pkg/migration"
)

func sampleRecord(tool string, status mcp.Status) mcp.CallRecord {
	return mcp.CallRecord{
		Time:        time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC),
		ToolName:    tool,
		ContextID:   "ctx-1",
		RequestBody: json.RawMessage(`{"tool_name":"` + tool + `"}`),
		Status:      status,
		Elapsed:     120 * time.Millisecond,
	}
}

func TestFileRecorderAppendsJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calls.log")

	rec, err := NewFileRecorder(path)
	if err != nil {
		t.Fatalf("NewFileRecorder: %v", err)
	}
	defer rec.Close()

	rec.Record(sampleRecord("list_creative_formats", mcp.StatusQueued))
	failed := sampleRecord("preview_creative", mcp.StatusFailed)
	failed.Error = "boom"
	rec.Record(failed)

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var lines []fileEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry fileEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("line is not valid JSON: %v", err)
		}
		lines = append(lines, entry)
	}

	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	if lines[0].ToolName != "list_creative_formats" || lines[0].Status != "queued" {
		t.Errorf("first line = %+v", lines[0])
	}
	if lines[0].ElapsedMS != 120 {
		t.Errorf("elapsed_ms = %d, want 120", lines[0].ElapsedMS)
	}
	if lines[1].Error != "boom" {
		t.Errorf("second line error = %q, want boom", lines[1].Error)
	}
}

func openTestStore(t *testing.T) *Store {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("db.Open: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := migration.NewRunner(database.Write()).Run(); err != nil {
		t.Fatalf("migrations: %v", err)
	}

	return NewStore(database)
}

func TestStoreRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first := sampleRecord("list_creative_formats", mcp.StatusQueued)
	second := sampleRecord("list_creative_formats_status", mcp.StatusCompleted)

	if err := store.Insert(ctx, first); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := store.Insert(ctx, second); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	entries, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].ToolName != "list_creative_formats_status" {
		t.Errorf("newest entry = %q, want the status poll first", entries[0].ToolName)
	}
	if entries[0].Status != "completed" || entries[0].ElapsedMS != 120 {
		t.Errorf("entry = %+v", entries[0])
	}

	byContext, err := store.ByContext(ctx, "ctx-1")
	if err != nil {
		t.Fatalf("ByContext: %v", err)
	}
	if len(byContext) != 2 || byContext[0].ToolName != "list_creative_formats" {
		t.Errorf("byContext = %+v, want call sequence oldest first", byContext)
	}
}

func TestStoreRecordSwallowsAfterClose(t *testing.T) {
	store := openTestStore(t)
	store.db.Close()

	// Must not panic; the sink logs and moves on.
	store.Record(sampleRecord("list_creative_formats", mcp.StatusQueued))
}

func TestMultiFansOut(t *testing.T) {
	var a, b countingRecorder
	multi := Multi(&a, nil, &b)

	multi.Record(sampleRecord("x", mcp.StatusCompleted))

	if a.n != 1 || b.n != 1 {
		t.Errorf("counts = %d, %d; want 1, 1", a.n, b.n)
	}
}

type countingRecorder struct{ n int }

func (c *countingRecorder) Record(mcp.CallRecord) { c.n++ }
