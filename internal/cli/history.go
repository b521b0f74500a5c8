package cli

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ShowHistory lists persisted call records, newest first. With a
// context id it reconstructs one logical call's request/poll sequence
// instead.
func ShowHistory(limit int, contextID string) error {
	store, closeStore, err := openHistoryStore()
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := context.Background()

	if contextID != "" {
		entries, err := store.ByContext(ctx, contextID)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No call records for that context id")
			return nil
		}

		fmt.Printf("Call sequence for context %s\n\n", contextID)
		for _, entry := range entries {
			marker := "  "
			if entry.Error != "" {
				marker = "! "
			}
			fmt.Printf("%s%-28s %-12s %5dms  %s\n",
				marker,
				entry.ToolName,
				entry.Status,
				entry.ElapsedMS,
				entry.CreatedAt.Format(time.RFC3339),
			)
			if entry.Error != "" {
				fmt.Printf("    error: %s\n", entry.Error)
			}
		}
		return nil
	}

	entries, err := store.Recent(ctx, limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No call records yet")
		return nil
	}

	fmt.Printf("%-20s %-28s %-36s %-12s %8s\n", "TIME", "TOOL", "CONTEXT ID", "STATUS", "ELAPSED")
	fmt.Printf("%-20s %-28s %-36s %-12s %8s\n",
		strings.Repeat("-", 20), strings.Repeat("-", 28), strings.Repeat("-", 36), strings.Repeat("-", 12), strings.Repeat("-", 8))

	for _, entry := range entries {
		fmt.Printf("%-20s %-28s %-36s %-12s %7dms\n",
			entry.CreatedAt.Format("2006-01-02 15:04:05"),
			orDash(entry.ToolName),
			orDash(entry.ContextID),
			orDash(entry.Status),
			entry.ElapsedMS,
		)
	}

	return nil
}
