package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"adcp/internal/creative"
)

type formatsLoadedMsg struct {
	formats    []creative.FormatRecord
	fromStatic bool
	err        error
}

type previewLoadedMsg struct {
	formatID string
	preview  *creative.PreviewRecord
	err      error
}

type registryChangedMsg struct{}

// loadFormats fetches from the agent, falling back to the static
// manifest when the agent path fails.
func loadFormats(tasks *creative.Tasks, agentBase string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()

		formats, err := tasks.ListFormats(ctx)
		if err == nil {
			return formatsLoadedMsg{formats: formats}
		}

		fallback := creative.FetchStaticFormats(ctx, creative.DefaultStaticManifestURL)
		if len(fallback) == 0 {
			return formatsLoadedMsg{err: err}
		}
		for i := range fallback {
			fallback[i].FormatID = creative.DeriveFormatID(agentBase, fallback[i].ID)
		}
		return formatsLoadedMsg{formats: fallback, fromStatic: true}
	}
}

func loadPreview(tasks *creative.Tasks, formatID string) tea.Cmd {
	return func() tea.Msg {
		preview, err := tasks.PreviewFormat(context.Background(), formatID)
		return previewLoadedMsg{formatID: formatID, preview: preview, err: err}
	}
}

func waitForRegistryChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return registryChangedMsg{}
	}
}
