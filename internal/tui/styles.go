package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

var (
	accentColor = lipgloss.Color("#3ccad7")
	errorColor  = lipgloss.Color("#f97066")
	mutedColor  = lipgloss.Color("240")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236")).
			Padding(0, 1)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(dimmed(string(accentColor), 0.55)).
			Padding(0, 1)

	focusedPaneStyle = paneStyle.
				BorderForeground(accentColor)

	statusStyle = lipgloss.NewStyle().Foreground(mutedColor)

	errorStyle = lipgloss.NewStyle().Foreground(errorColor)

	hintStyle = lipgloss.NewStyle().Foreground(mutedColor)
)

// dimmed blends a hex color toward black, for inactive borders.
func dimmed(hex string, factor float64) lipgloss.Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		return lipgloss.Color(hex)
	}
	dark := colorful.Color{R: 0, G: 0, B: 0}
	return lipgloss.Color(c.BlendLab(dark, 1-factor).Hex())
}
