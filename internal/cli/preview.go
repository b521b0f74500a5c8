package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/charmbracelet/huh/spinner"

	"adcp/internal/creative"
)

// PreviewFormat fetches and prints the preview payload for a format id.
// Accepts either a full FormatID or a bare agent-local id. When the
// agent path fails it probes the static preview location before giving
// up.
func PreviewFormat(opts Options, formatID string) error {
	sess, err := newSession(opts)
	if err != nil {
		return err
	}
	defer sess.close()

	ctx := context.Background()

	var preview *creative.PreviewRecord
	var previewErr error

	fetch := func() {
		preview, previewErr = sess.tasks.PreviewFormat(ctx, formatID)
	}

	if opts.JSON {
		fetch()
	} else {
		if err := spinner.New().Title("Loading preview...").Action(fetch).Run(); err != nil {
			return err
		}
	}

	if previewErr != nil {
		printError("agent preview failed: %v", previewErr)

		if fallback := staticPreview(ctx, sess.base, formatID); fallback != nil {
			printInfo("using static preview location")
			preview = fallback
		} else {
			return previewErr
		}
	}

	if opts.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(preview.Fields)
	}

	printSuccess("preview loaded for %s", formatID)
	fmt.Println()
	printPreview(preview)
	return nil
}

// staticPreview probes {base}/previews/{rawID}. Lenient like the static
// format manifest path: nil means no fallback available.
func staticPreview(ctx context.Context, base, formatID string) *creative.PreviewRecord {
	url := base + "/previews/" + creative.RawID(formatID)

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return nil
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	return &creative.PreviewRecord{
		Type: "image",
		URL:  url,
		Fields: map[string]any{
			"type": "image",
			"url":  url,
		},
	}
}

func printPreview(preview *creative.PreviewRecord) {
	fmt.Printf("Type:  %s\n", orDash(preview.Type))
	fmt.Printf("URL:   %s\n", orDash(preview.URL))
	if preview.HTML != "" {
		fmt.Printf("HTML:  %d bytes\n", len(preview.HTML))
	}

	extras := make([]string, 0, len(preview.Fields))
	for key := range preview.Fields {
		switch key {
		case "type", "url", "html":
			continue
		}
		extras = append(extras, key)
	}
	sort.Strings(extras)

	if len(extras) > 0 {
		fmt.Println("Fields:")
		for _, key := range extras {
			fmt.Printf("  %-16s %v\n", key+":", preview.Fields[key])
		}
	}
}
