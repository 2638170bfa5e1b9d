// Package tui provides the interactive registry browser.
package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fentz26/jobreg/internal/classad"
	"github.com/fentz26/jobreg/internal/config"
	"github.com/fentz26/jobreg/internal/format"
	"github.com/fentz26/jobreg/internal/models"
	"github.com/fentz26/jobreg/internal/scan"
	"github.com/fentz26/jobreg/internal/store"
)

var (
	// Colors
	primaryColor = lipgloss.Color("#7C3AED")
	errorColor   = lipgloss.Color("#EF4444")
	mutedColor   = lipgloss.Color("#6B7280")
	fgColor      = lipgloss.Color("#F9FAFB")
	cyanColor    = lipgloss.Color("#06B6D4")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(fgColor).
			Background(primaryColor).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#374151")).
			Foreground(fgColor).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)

	attrNameStyle = lipgloss.NewStyle().
			Foreground(cyanColor)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(0, 1)
)

// Options configures the browser.
type Options struct {
	Hash      string
	Status    int
	Templates []string
	Config    *config.Config
}

// entryItem is a match shown in the list.
type entryItem struct {
	match    scan.Match
	status   string
	rendered string
}

func (i entryItem) Title() string {
	return fmt.Sprintf("%d. %s", i.match.Ordinal, i.match.Entry.BatchID)
}

func (i entryItem) Description() string {
	parts := []string{i.status, i.match.Entry.BlahID}
	if i.match.Entry.WorkerNode != "" {
		parts = append(parts, i.match.Entry.WorkerNode)
	}
	return strings.Join(parts, " · ")
}

func (i entryItem) FilterValue() string {
	return i.match.Entry.BatchID + " " + i.match.Entry.BlahID
}

// loadedMsg carries a fresh set of matches.
type loadedMsg struct {
	items []list.Item
	err   error
}

// App is the browser model.
type App struct {
	reg      *store.Store
	opts     Options
	prog     *format.Program
	list     list.Model
	viewport viewport.Model
	mode     string // "list" or "detail"
	width    int
	height   int
	message  string
	changes  <-chan struct{}
}

// New creates a browser over the entries of opts.Hash.
func New(reg *store.Store, opts Options) *App {
	if opts.Config == nil {
		opts.Config = config.DefaultConfig()
	}

	l := list.New(nil, list.NewDefaultDelegate(), 80, 20)
	l.Title = "jobreg " + opts.Hash
	l.Styles.Title = titleStyle

	return &App{
		reg:      reg,
		opts:     opts,
		prog:     format.Compile(opts.Templates),
		list:     l,
		viewport: viewport.New(80, 20),
		mode:     "list",
	}
}

// WithChanges makes the browser reload whenever a value arrives on ch.
func (a *App) WithChanges(ch <-chan struct{}) *App {
	a.changes = ch
	return a
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.load(), a.waitForChange())
}

func (a *App) load() tea.Cmd {
	return func() tea.Msg {
		var items []list.Item
		err := scan.Walk(context.Background(), a.reg, a.opts.Hash, a.opts.Status, func(m scan.Match) error {
			items = append(items, a.newItem(m))
			return nil
		})
		return loadedMsg{items: items, err: err}
	}
}

type changedMsg struct{}

func (a *App) waitForChange() tea.Cmd {
	if a.changes == nil {
		return nil
	}
	ch := a.changes
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return changedMsg{}
	}
}

func (a *App) newItem(m scan.Match) entryItem {
	item := entryItem{match: m, status: a.statusLabel(m.Entry.Status)}
	if !a.prog.Empty() {
		if ad, err := classad.Parse(m.ClassAd); err == nil {
			item.rendered = a.prog.RenderString(ad, m.Ordinal)
		}
	}
	return item
}

func (a *App) statusLabel(s models.JobStatus) string {
	if name, ok := a.opts.Config.StatusName(int(s)); ok {
		return name
	}
	return s.String()
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.list.SetSize(msg.Width, msg.Height-2)
		a.viewport.Width = msg.Width - 4
		a.viewport.Height = msg.Height - 6
		return a, nil

	case loadedMsg:
		if msg.err != nil {
			a.message = msg.err.Error()
			return a, nil
		}
		a.message = fmt.Sprintf("%d matching entries", len(msg.items))
		return a, a.list.SetItems(msg.items)

	case changedMsg:
		return a, tea.Batch(a.load(), a.waitForChange())

	case tea.KeyMsg:
		if a.mode == "detail" {
			switch msg.String() {
			case "esc", "backspace", "q":
				a.mode = "list"
				return a, nil
			case "ctrl+c":
				return a, tea.Quit
			}
			var cmd tea.Cmd
			a.viewport, cmd = a.viewport.Update(msg)
			return a, cmd
		}

		if a.list.FilterState() != list.Filtering {
			switch msg.String() {
			case "q", "ctrl+c":
				return a, tea.Quit
			case "enter":
				if item, ok := a.list.SelectedItem().(entryItem); ok {
					a.viewport.SetContent(a.detail(item))
					a.viewport.GotoTop()
					a.mode = "detail"
				}
				return a, nil
			case "r":
				a.message = "reloading..."
				return a, a.load()
			}
		}
	}

	var cmd tea.Cmd
	a.list, cmd = a.list.Update(msg)
	return a, cmd
}

// detail renders one entry: its attributes one per line, then the template
// output when templates were given.
func (a *App) detail(item entryItem) string {
	var b strings.Builder
	ad, err := classad.Parse(item.match.ClassAd)
	if err != nil {
		b.WriteString(errorStyle.Render("Cannot parse classad: " + err.Error()))
		b.WriteString("\n\n")
		b.WriteString(item.match.ClassAd)
		return b.String()
	}

	names := ad.Names()
	sort.Strings(names)
	width := 0
	for _, n := range names {
		if len(n) > width {
			width = len(n)
		}
	}
	for _, n := range names {
		v, _ := ad.Lookup(n)
		b.WriteString(attrNameStyle.Render(fmt.Sprintf("%-*s", width, n)))
		b.WriteString(" = ")
		b.WriteString(v.String())
		b.WriteString("\n")
	}

	if item.rendered != "" {
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("template output:"))
		b.WriteString("\n")
		b.WriteString(item.rendered)
	}
	return b.String()
}

// View implements tea.Model.
func (a *App) View() string {
	if a.mode == "detail" {
		help := helpStyle.Render("esc: back • ↑/↓: scroll • ctrl+c: quit")
		return panelStyle.Render(a.viewport.View()) + "\n" + help
	}
	status := statusBarStyle.Render(a.message)
	help := helpStyle.Render("enter: details • /: filter • r: reload • q: quit")
	return a.list.View() + "\n" + status + " " + help
}
