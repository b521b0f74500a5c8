package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh/spinner"

	"adcp/internal/creative"
)

// ListFormats fetches the creative formats from the configured agent
// and prints them. When the agent path fails it falls back to the
// static manifest and derives FormatID from the agent base itself.
func ListFormats(opts Options) error {
	sess, err := newSession(opts)
	if err != nil {
		return err
	}
	defer sess.close()

	ctx := context.Background()

	var formats []creative.FormatRecord
	var listErr error

	fetch := func() {
		formats, listErr = sess.tasks.ListFormats(ctx)
	}

	if opts.JSON {
		fetch()
	} else {
		if err := spinner.New().Title("Fetching creative formats...").Action(fetch).Run(); err != nil {
			return err
		}
	}

	if listErr != nil {
		printError("agent fetch failed: %v", listErr)
		printInfo("falling back to static manifest")

		formats = creative.FetchStaticFormats(ctx, creative.DefaultStaticManifestURL)
		for i := range formats {
			formats[i].FormatID = creative.DeriveFormatID(sess.base, formats[i].ID)
		}
		if len(formats) == 0 {
			return listErr
		}
	}

	if opts.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(formats)
	}

	if len(formats) == 0 {
		fmt.Println("No creative formats available")
		return nil
	}

	printSuccess("retrieved %d creative formats from %s", len(formats), sess.base)
	fmt.Println()
	printFormatsTable(formats)
	return nil
}

func printFormatsTable(formats []creative.FormatRecord) {
	fmt.Printf("%-20s %-24s %-8s %s\n", "ID", "NAME", "TYPE", "FORMAT ID")
	fmt.Printf("%-20s %-24s %-8s %s\n", strings.Repeat("-", 20), strings.Repeat("-", 24), strings.Repeat("-", 8), strings.Repeat("-", 40))

	for _, f := range formats {
		fmt.Printf("%-20s %-24s %-8s %s\n", orDash(f.ID), orDash(f.Name), orDash(f.Type), orDash(f.FormatID))
	}
}

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return strings.TrimSpace(value)
}
