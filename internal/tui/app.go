// Package tui is the interactive format browser: a formats list on the
// left, the selected creative's preview detail on the right.
package tui

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"adcp/config"
	"adcp/internal/creative"
)

// Options wires the app. NewTasks builds a façade for a base address so
// the app can rebuild its client when the registry changes.
type Options struct {
	AgentName string
	NewTasks  func(baseURL string) *creative.Tasks
}

// Start runs the TUI until the user quits.
func Start(opts Options) error {
	registry, err := config.LoadAgentRegistry()
	if err != nil {
		return err
	}
	agent, err := registry.Resolve(opts.AgentName)
	if err != nil {
		return err
	}

	reload := make(chan struct{}, 1)
	stop := make(chan struct{})
	defer close(stop)

	if err := config.WatchAgentsFile(func() {
		select {
		case reload <- struct{}{}:
		default:
		}
	}, stop); err != nil {
		// The browser works without hot reload; don't refuse to start.
		reload = nil
	}

	app := newApp(opts, agent.Name, agent.BaseURL, reload)

	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

type app struct {
	opts      Options
	agentName string
	agentBase string
	tasks     *creative.Tasks
	reload    <-chan struct{}

	list       list.Model
	preview    viewport.Model
	spin       spinner.Model
	keys       keyMap
	help       string
	loading    bool
	previewing string
	status     string
	errText    string
	width      int
	height     int
	ready      bool
}

func newApp(opts Options, agentName, agentBase string, reload <-chan struct{}) *app {
	delegate := list.NewDefaultDelegate()
	formatList := list.New(nil, delegate, 0, 0)
	formatList.Title = "Creative Formats"
	formatList.SetShowStatusBar(false)
	formatList.SetStatusBarItemName("format", "formats")

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return &app{
		opts:      opts,
		agentName: agentName,
		agentBase: agentBase,
		tasks:     opts.NewTasks(agentBase),
		reload:    reload,
		list:      formatList,
		spin:      spin,
		keys:      defaultKeyMap(),
		help:      "r refresh · enter preview · q quit",
		loading:   true,
		status:    "fetching formats",
	}
}

func (a *app) Init() tea.Cmd {
	cmds := []tea.Cmd{
		a.spin.Tick,
		loadFormats(a.tasks, a.agentBase),
	}
	if a.reload != nil {
		cmds = append(cmds, waitForRegistryChange(a.reload))
	}
	return tea.Batch(cmds...)
}

func (a *app) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.layout()
		a.ready = true

	case tea.KeyMsg:
		if a.list.FilterState() != list.Filtering {
			switch {
			case key.Matches(msg, a.keys.Quit):
				return a, tea.Quit
			case key.Matches(msg, a.keys.Refresh):
				a.loading = true
				a.errText = ""
				a.status = "fetching formats"
				cmds = append(cmds, a.spin.Tick, loadFormats(a.tasks, a.agentBase))
			case key.Matches(msg, a.keys.Preview):
				if item, ok := a.list.SelectedItem().(formatItem); ok {
					a.previewing = item.record.FormatID
					a.status = "loading preview"
					cmds = append(cmds, a.spin.Tick, loadPreview(a.tasks, item.record.FormatID))
				}
			}
		}

	case formatsLoadedMsg:
		a.loading = false
		if msg.err != nil {
			a.errText = msg.err.Error()
			a.status = "agent unreachable"
			break
		}
		items := make([]list.Item, len(msg.formats))
		for i, f := range msg.formats {
			items[i] = formatItem{record: f}
		}
		a.list.SetItems(items)
		if msg.fromStatic {
			a.status = fmt.Sprintf("%d formats (static manifest fallback)", len(msg.formats))
		} else {
			a.status = fmt.Sprintf("%d formats from agent", len(msg.formats))
		}

	case previewLoadedMsg:
		a.previewing = ""
		if msg.err != nil {
			a.errText = msg.err.Error()
			a.status = "preview failed"
			break
		}
		a.errText = ""
		a.status = "preview: " + msg.formatID
		a.preview.SetContent(renderPreview(msg.formatID, msg.preview))
		a.preview.GotoTop()

	case registryChangedMsg:
		cmds = append(cmds, a.applyRegistryChange())
		if a.reload != nil {
			cmds = append(cmds, waitForRegistryChange(a.reload))
		}

	case spinner.TickMsg:
		if a.loading || a.previewing != "" {
			var cmd tea.Cmd
			a.spin, cmd = a.spin.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	var cmd tea.Cmd
	a.list, cmd = a.list.Update(msg)
	cmds = append(cmds, cmd)

	a.preview, cmd = a.preview.Update(msg)
	cmds = append(cmds, cmd)

	return a, tea.Batch(cmds...)
}

// applyRegistryChange re-resolves the active agent and refreshes when
// its base address moved.
func (a *app) applyRegistryChange() tea.Cmd {
	registry, err := config.LoadAgentRegistry()
	if err != nil {
		a.errText = err.Error()
		return nil
	}
	agent, err := registry.Resolve(a.opts.AgentName)
	if err != nil {
		a.errText = err.Error()
		return nil
	}
	if agent.BaseURL == a.agentBase {
		return nil
	}

	a.agentName = agent.Name
	a.agentBase = agent.BaseURL
	a.tasks = a.opts.NewTasks(agent.BaseURL)
	a.loading = true
	a.status = "agent changed, refetching"
	return tea.Batch(a.spin.Tick, loadFormats(a.tasks, a.agentBase))
}

func (a *app) layout() {
	headerHeight := 1
	footerHeight := 1
	paneHeight := a.height - headerHeight - footerHeight - 2

	listWidth := a.width/2 - 4
	previewWidth := a.width - listWidth - 8

	a.list.SetSize(listWidth, paneHeight)
	a.preview.Width = previewWidth
	a.preview.Height = paneHeight
}

func (a *app) View() string {
	if !a.ready {
		return "loading..."
	}

	header := headerStyle.Width(a.width).Render(
		titleStyle.Render("adcp") + "  " +
			statusStyle.Render(fmt.Sprintf("agent %s (%s)", a.agentName, a.agentBase)),
	)

	left := focusedPaneStyle.Render(a.list.View())

	right := paneStyle.Render(a.preview.View())

	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	var statusLine string
	switch {
	case a.errText != "":
		statusLine = errorStyle.Render("error: " + a.errText)
	case a.loading || a.previewing != "":
		statusLine = a.spin.View() + " " + statusStyle.Render(a.status)
	default:
		statusLine = statusStyle.Render(a.status)
	}

	footer := lipgloss.JoinHorizontal(lipgloss.Top,
		statusLine,
		hintStyle.Render("  ·  "+a.help),
	)

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

// renderPreview formats the preview payload for the viewport.
func renderPreview(formatID string, preview *creative.PreviewRecord) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(formatID) + "\n\n")
	b.WriteString(fmt.Sprintf("type: %s\n", valueOrDash(preview.Type)))
	b.WriteString(fmt.Sprintf("url:  %s\n", valueOrDash(preview.URL)))

	if preview.HTML != "" {
		b.WriteString(fmt.Sprintf("html: %d bytes\n", len(preview.HTML)))
	}

	keys := make([]string, 0, len(preview.Fields))
	for k := range preview.Fields {
		switch k {
		case "type", "url", "html":
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if len(keys) > 0 {
		b.WriteString("\n")
		for _, k := range keys {
			b.WriteString(fmt.Sprintf("%s: %s\n", k, renderValue(preview.Fields[k])))
		}
	}

	return b.String()
}

func renderValue(v any) string {
	switch v := v.(type) {
	case string:
		return v
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(raw)
	}
}

func valueOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
