package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"adcp/internal/creative"
)

// formatItem adapts a FormatRecord for the bubbles list.
type formatItem struct {
	record creative.FormatRecord
}

func (i formatItem) Title() string {
	if i.record.Name != "" {
		return i.record.Name
	}
	return i.record.ID
}

func (i formatItem) Description() string { return i.record.FormatID }

func (i formatItem) FilterValue() string { return i.record.Name + " " + i.record.ID }

type keyMap struct {
	Refresh key.Binding
	Preview key.Binding
	Quit    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Preview: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "preview"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
