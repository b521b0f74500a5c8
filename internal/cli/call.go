package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// CallTool exposes the raw async client: one tool invocation with an
// arbitrary JSON input, optionally without waiting for completion.
func CallTool(opts Options, toolName, inputJSON string, noWait bool) error {
	sess, err := newSession(opts)
	if err != nil {
		return err
	}
	defer sess.close()

	input := map[string]any{}
	if inputJSON != "" {
		if err := json.Unmarshal([]byte(inputJSON), &input); err != nil {
			return fmt.Errorf("parse --input: %w", err)
		}
	}

	resp, err := sess.client.CallTool(context.Background(), toolName, input, !noWait)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
