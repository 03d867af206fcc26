package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/noelzubin/quick_nav/app"
	"github.com/noelzubin/quick_nav/links"
	"github.com/noelzubin/quick_nav/logging"
	"github.com/noelzubin/quick_nav/navigation"
	"github.com/noelzubin/quick_nav/opener"
	"github.com/noelzubin/quick_nav/utils"
	"github.com/samber/lo"
)

var uiLog = logging.ForComponent(logging.CompUI)

var (
	OverlayStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	HintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginLeft(2)
	StatusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).MarginLeft(2)
)

// searchFieldTarget is the target of keys typed while the overlay is open.
var searchFieldTarget = navigation.Target{Tag: "input", ID: "qni-search-field"}

// overlay is the part of the screen the controller shows and hides.
// It implements navigation.Surface.
type overlay struct {
	visible        bool
	resultsVisible bool
	input          textinput.Model
}

func (o *overlay) ShowOverlay() {
	o.visible = true
	o.input.SetValue("")
	o.input.Focus()
}

func (o *overlay) HideOverlay() {
	o.visible = false
	o.input.SetValue("")
	o.input.Blur()
}

func (o *overlay) ShowResults(visible bool) {
	o.resultsVisible = visible
}

// browser opens links for the controller. The commands are picked up by
// the next Update. It implements navigation.Activator.
type browser struct {
	opener  *opener.Opener
	pending []tea.Cmd
}

func (b *browser) Activate(url string) error {
	cmd, err := b.opener.Open(url)
	if err != nil {
		return err
	}
	b.pending = append(b.pending, cmd)
	return nil
}

func (b *browser) drain() []tea.Cmd {
	cmds := b.pending
	b.pending = nil
	return cmds
}

// Main app model for bubbletea
type Model struct {
	width   int        // width of terminal
	height  int        // height of terminal
	app     *app.App   // session state, controller and event bus
	overlay *overlay   // the search overlay
	browser *browser   // for opening links in the browser
	list    list.Model // the result list widget model
	status  string     // last thing worth telling the user
}

// Create a new model for the app
func New(config *utils.Config) (*Model, error) {
	o := &overlay{input: create_text_input()}
	b := &browser{opener: opener.New(config.Browser)}

	a, err := app.New(config, o, b)
	if err != nil {
		return nil, err
	}

	return &Model{
		app:     a,
		overlay: o,
		browser: b,
		list:    create_list_model(),
		status:  "loading content index…",
	}, nil
}

// This is emitted when the content index has been fetched.
type ContentMsg struct {
	Items []*links.Link
	Err   error
}

func (m Model) Init() tea.Cmd {
	return func() tea.Msg {
		items, err := m.app.FetchContent(context.Background())
		return ContentMsg{items, err}
	}
}

// The update fn for the bubbletea model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case ContentMsg:
		if msg.Err != nil {
			// Page links keep working without the content index.
			uiLog.Warn("content_index_failed", "error", msg.Err)
			m.status = "content index unavailable, searching page links only"
		} else {
			m.app.AddContent(msg.Items)
			m.status = fmt.Sprintf("%d links, %d content items",
				m.app.Store.Count(links.TypeLink), m.app.Store.Count(links.TypeContent))
		}

	case tea.KeyMsg:
		// Keybindings come from the config:
		// open-interface - show the overlay
		// close-interface - hide the overlay
		// next-link / previous-link - move the active result
		// open-link - open the active result in the browser
		// Ctrl+C quits, so does q while the overlay is closed.
		code := msg.String()
		if code == "ctrl+c" || (code == "q" && !m.overlay.visible) {
			return m, tea.Quit
		}
		cmds = append(cmds, m.dispatchKey(msg))

	case tea.MouseMsg:
		if msg.Type == tea.MouseLeft && m.overlay.visible {
			m.app.Bus.Dispatch(navigation.Event{Kind: navigation.Click, Target: m.clickTarget(msg.X, msg.Y)})
		}

	case opener.OpenFinished:
		var cmd tea.Cmd
		*m.browser.opener, cmd = m.browser.opener.Update(msg)
		cmds = append(cmds, cmd)
		if msg.Err != nil {
			m.status = "could not open " + msg.URL
		} else {
			m.status = "opened " + msg.URL
		}

	case tea.WindowSizeMsg:
		m.updateSize(msg.Width, msg.Height)
	}

	m.syncList()
	cmds = append(cmds, m.browser.drain()...)

	return m, tea.Batch(cmds...)
}

// dispatchKey sends a key to the query input first, when it is shown, and
// then to the window, the same order a browser delivers them.
func (m *Model) dispatchKey(msg tea.KeyMsg) tea.Cmd {
	code := msg.String()
	target := navigation.Target{Tag: "body"}

	var cmd tea.Cmd
	if m.overlay.visible {
		target = searchFieldTarget
		m.overlay.input, cmd = m.overlay.input.Update(msg)
		m.app.Bus.Dispatch(navigation.Event{
			Kind:   navigation.QueryKeyUp,
			Code:   code,
			Query:  m.overlay.input.Value(),
			Target: target,
		})
	}

	m.app.Bus.Dispatch(navigation.Event{Kind: navigation.KeyUp, Code: code, Target: target})
	return cmd
}

// clickTarget maps a click position to what was clicked: the overlay box
// sits in the top left corner, anything outside of it is backdrop.
func (m Model) clickTarget(x, y int) navigation.Target {
	box := m.renderOverlay()
	if x >= lipgloss.Width(box) || y >= lipgloss.Height(box) {
		return navigation.Target{Tag: "div", Class: navigation.BackdropClass}
	}
	return navigation.Target{Tag: "ul", ID: "qni-search-results"}
}

// syncList mirrors the controller results into the list widget.
func (m *Model) syncList() {
	results := m.app.Controller.Results()
	m.list.SetItems(lo.Map(results.Links(), func(l *links.Link, _ int) list.Item {
		return Result{l}
	}))
	if _, idx := results.Active(); idx >= 0 {
		m.list.Select(idx)
	}
}

func (m *Model) updateSize(width, height int) {
	m.width = width
	m.height = height

	w := m.overlayWidth()
	m.overlay.input.Width = w - 12

	// every result takes a title and a description line plus a gap
	h := m.app.Config.ResultsLimit * 3
	if max := height - 8; h > max {
		h = max
	}
	m.list.SetSize(w-2, h)
}

func (m Model) overlayWidth() int {
	w := 80
	if m.width > 0 && m.width-4 < w {
		w = m.width - 4
	}
	if w < 30 {
		w = 30
	}
	return w
}

func (m Model) renderOverlay() string {
	content := m.overlay.input.View()

	if m.overlay.resultsVisible {
		content = lipgloss.JoinVertical(lipgloss.Left,
			content,
			m.list.View(),
			HintStyle.Render(m.instructions()), // render the instructions
		)
	}

	return OverlayStyle.Width(m.overlayWidth()).Render(content)
}

func (m Model) instructions() string {
	code := func(name string) string {
		c, err := m.app.Config.Shortcuts.Code(name)
		if err != nil {
			return "?"
		}
		return c
	}
	return fmt.Sprintf("[%s] open  [%s/%s] move  [%s] close",
		code(navigation.OpenLink), code(navigation.NextLink), code(navigation.PreviousLink), code(navigation.CloseInterface))
}

// View fn for bubbletea model
func (m Model) View() string {
	if m.overlay.visible {
		return lipgloss.JoinVertical(lipgloss.Left,
			m.renderOverlay(),
			StatusStyle.Render(m.status),
		)
	}

	open, err := m.app.Config.Shortcuts.Code(navigation.OpenInterface)
	if err != nil {
		open = "?"
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		"",
		HintStyle.Render(fmt.Sprintf("Press %s to search %d links, q to quit.", open, m.app.Store.Len())),
		StatusStyle.Render(m.status),
	)
}

// Result implements list.Item interface
type Result struct {
	link *links.Link
}

func (r Result) Title() string {
	return r.link.Label()
}

func (r Result) Description() string {
	if r.link.Type == links.TypeContent && r.link.Kind != "" {
		return "[" + r.link.Kind + "] " + r.link.URL
	}
	if r.link.URL == "" {
		return "[" + string(r.link.Type) + "]"
	}
	return "[" + string(r.link.Type) + "] " + r.link.URL
}

func (r Result) FilterValue() string { return "" }

// Create the list model
func create_list_model() list.Model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 78, 30)
	l.SetShowFilter(false)
	l.SetShowHelp(false)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowPagination(false)
	l.SetFilteringEnabled(false)
	l.Styles.NoItems = l.Styles.NoItems.Copy().PaddingLeft(2)
	return l
}

// Create the text input model
func create_text_input() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "Where do you want to go?"
	ti.Prompt = "Go to:"
	ti.PromptStyle = lipgloss.NewStyle().
		Background(lipgloss.Color("62")).
		Foreground(lipgloss.Color("230")).
		MarginRight(1).
		Padding(0, 1)
	ti.CharLimit = 100
	return ti
}
