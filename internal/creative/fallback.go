package creative

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// DefaultStaticManifestURL is the public static copy of the format
// manifest, used when no agent is reachable.
const DefaultStaticManifestURL = "https://adzymic-exercise.s3.ap-southeast-1.amazonaws.com/adcp/specs/formats.json"

var staticHTTPClient = &http.Client{Timeout: 10 * time.Second}

// FetchStaticFormats retrieves the format manifest from a static host.
// This is the lenient fallback path: any failure is logged and yields an
// empty slice, never an error. FormatID is left unset because the
// fetcher does not know which agent base address the caller is using.
func FetchStaticFormats(ctx context.Context, manifestURL string) []FormatRecord {
	if manifestURL == "" {
		manifestURL = DefaultStaticManifestURL
	}

	formats, err := fetchStaticFormats(ctx, manifestURL)
	if err != nil {
		slog.Error("static format fetch failed", "url", manifestURL, "error", err)
		return []FormatRecord{}
	}
	return formats
}

func fetchStaticFormats(ctx context.Context, manifestURL string) ([]FormatRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, manifestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := staticHTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var manifest struct {
		Formats []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"formats"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&manifest); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}

	formats := make([]FormatRecord, 0, len(manifest.Formats))
	for _, item := range manifest.Formats {
		formats = append(formats, FormatRecord{
			ID:   item.ID,
			Name: item.Name,
			Type: item.Type,
		})
	}

	return formats, nil
}
