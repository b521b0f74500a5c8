package cli

import (
	"log/slog"

	"adcp/config"
	"adcp/internal/creative"
	"adcp/internal/mcp"
	"adcp/internal/tui"
)

// RunTUI opens the interactive format browser. The recorder stack is
// shared by every client the browser builds, so history survives agent
// switches.
func RunTUI(opts Options) error {
	if err := config.EnsureAgentsConfigExists(); err != nil {
		slog.Warn("could not write default agents config", "error", err)
	}

	recorder, _, closeRec := buildRecorder(opts)
	defer closeRec()

	return tui.Start(tui.Options{
		AgentName: opts.AgentName,
		NewTasks: func(baseURL string) *creative.Tasks {
			client := mcp.New(baseURL, clientOptions(opts, recorder)...)
			return creative.NewTasks(client, baseURL)
		},
	})
}
