// Package app implements the Bubble Tea application that tracks a captured
// chat page and draws the token overlay on top of a status screen.
package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/j-veylop/token-overlay-tui/internal/config"
	"github.com/j-veylop/token-overlay-tui/internal/logger"
	"github.com/j-veylop/token-overlay-tui/internal/models"
	"github.com/j-veylop/token-overlay-tui/internal/observe"
	"github.com/j-veylop/token-overlay-tui/internal/page"
	"github.com/j-veylop/token-overlay-tui/internal/send"
	"github.com/j-veylop/token-overlay-tui/internal/services"
	"github.com/j-veylop/token-overlay-tui/internal/services/projection"
	"github.com/j-veylop/token-overlay-tui/internal/session"
	"github.com/j-veylop/token-overlay-tui/internal/tokenizer"
	"github.com/j-veylop/token-overlay-tui/internal/tracker"
	"github.com/j-veylop/token-overlay-tui/internal/ui/overlay"
	"github.com/j-veylop/token-overlay-tui/internal/ui/styles"
)

// KeyMap defines the keybindings for the application.
type KeyMap struct {
	Collapse key.Binding
	Trend    key.Binding
	Refresh  key.Binding
	Reset    key.Binding
	Help     key.Binding
	Escape   key.Binding
	Quit     key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Collapse: key.NewBinding(key.WithKeys("c", " "), key.WithHelp("c", "collapse")),
		Trend:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "trend")),
		Refresh:  key.NewBinding(key.WithKeys("r", "ctrl+r"), key.WithHelp("r", "refresh")),
		Reset:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "reset session")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Escape:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp returns key bindings for the status bar.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Collapse, k.Trend, k.Refresh, k.Reset, k.Help, k.Quit}
}

// Styles defines the application styles.
type Styles struct {
	NotificationSuccess lipgloss.Style
	NotificationError   lipgloss.Style
	NotificationWarning lipgloss.Style
	NotificationInfo    lipgloss.Style

	Content   lipgloss.Style
	Toast     lipgloss.Style
	Title     lipgloss.Style
	Subtle    lipgloss.Style
	Highlight lipgloss.Style
}

// DefaultStyles returns the default application styles.
func DefaultStyles() Styles {
	subtle := lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"}
	highlight := lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}

	s := Styles{}
	s.NotificationSuccess = lipgloss.NewStyle().Foreground(styles.Success).Padding(0, 1)
	s.NotificationError = lipgloss.NewStyle().Foreground(styles.Error).Bold(true).Padding(0, 1)
	s.NotificationWarning = lipgloss.NewStyle().Foreground(styles.Warning).Padding(0, 1)
	s.NotificationInfo = lipgloss.NewStyle().Foreground(styles.Info).Padding(0, 1)

	s.Content = lipgloss.NewStyle().Padding(1, 2)
	s.Toast = styles.ToastStyle
	s.Title = lipgloss.NewStyle().Bold(true).Foreground(highlight)
	s.Subtle = lipgloss.NewStyle().Foreground(subtle)
	s.Highlight = lipgloss.NewStyle().Foreground(highlight)
	return s
}

// Model is the main application model. Every page snapshot, input event
// and refresh is handled on the Bubble Tea event loop, so the tracker and
// detector need no locking of their own.
type Model struct {
	cfg      *config.Config
	encoding string

	state    *State
	session  *session.State
	services *services.Manager
	tracker  *tracker.Tracker
	observer *observe.Observer
	sends    *send.Detector
	pace     *projection.Service
	budget   int

	scheduler *Scheduler
	panel     *overlay.Panel
	doc       *page.Document

	keymap KeyMap
	styles Styles

	width  int
	height int

	showHelp bool
	ready    bool

	eventChannel <-chan services.ServiceEvent
}

// NewModel initializes a new application model. mgr may be nil, in which
// case the model only reacts to messages delivered to Update.
func NewModel(cfg *config.Config, mgr *services.Manager, counter tokenizer.Counter) *Model {
	sess := session.New()

	threshold := cfg.AlertThreshold
	if mgr != nil {
		threshold = mgr.AlertThreshold()
	}

	encoding := cfg.TokenizerEncoding
	if tok, ok := counter.(*tokenizer.Tokenizer); ok {
		encoding = tok.Encoding()
	}

	return &Model{
		cfg:       cfg,
		encoding:  encoding,
		state:     NewState(),
		session:   sess,
		services:  mgr,
		tracker:   tracker.New(counter, cfg.Selectors, sess),
		observer:  observe.New(cfg.Selectors.MainRegion),
		sends:     send.New(cfg.Selectors),
		pace:      projection.New(),
		budget:    threshold,
		scheduler: NewScheduler(cfg.FrameInterval),
		panel:     overlay.New(sess, threshold),
		doc:       page.Empty(),
		keymap:    DefaultKeyMap(),
		styles:    DefaultStyles(),
	}
}

// State returns the application state.
func (m *Model) State() *State {
	return m.state
}

// Session returns the session state.
func (m *Model) Session() *session.State {
	return m.session
}

// Panel returns the overlay panel.
func (m *Model) Panel() *overlay.Panel {
	return m.panel
}

// Document returns the page snapshot the model currently tracks.
func (m *Model) Document() *page.Document {
	return m.doc
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.panel.Init(),
		tickCmd(m.cfg.RefreshInterval),
		m.scheduler.Request(),
	}
	if m.services != nil {
		cmds = append(cmds, subscribeToServicesCmd(m.services))
	}
	return tea.Batch(cmds...)
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.panel.SetSize(msg.Width, msg.Height)

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKeyMsg(msg))

	case tea.MouseMsg:
		if !m.showHelp {
			m.panel.HandleMouse(msg)
		}

	case spinner.TickMsg:
		cmds = append(cmds, m.panel.Update(msg))

	default:
		cmds = append(cmds, m.handleAppMsg(msg)...)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleAppMsg(msg tea.Msg) []tea.Cmd {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case TickMsg:
		m.state.ClearExpiredNotifications()
		cmds = append(cmds, m.scheduler.Request(), tickCmd(m.cfg.RefreshInterval))
	case FrameMsg:
		m.scheduler.Frame()
		cmds = append(cmds, m.refresh())
	case SubscriptionEventMsg:
		m.eventChannel = msg.Channel
		cmds = append(cmds, waitForServiceEventCmd(m.eventChannel))
	case ServiceEventMsg:
		cmds = append(cmds, m.handleServiceEvent(msg.Event))
		if m.eventChannel != nil {
			cmds = append(cmds, waitForServiceEventCmd(m.eventChannel))
		}
	case AddNotificationMsg:
		id := m.state.AddNotification(msg.Type, msg.Message, msg.Duration)
		if msg.Duration > 0 {
			cmds = append(cmds, clearNotificationCmd(id, msg.Duration))
		}
	case RemoveNotificationMsg:
		m.state.RemoveNotification(msg.ID)
	case ErrorMsg:
		cmds = append(cmds, notifyErrorCmd(formatError(msg)))
	}
	return cmds
}

func formatError(msg ErrorMsg) string {
	if msg.Context == "" {
		return msg.Error.Error()
	}
	return fmt.Sprintf("%s: %v", msg.Context, msg.Error)
}

func (m *Model) handleServiceEvent(event services.ServiceEvent) tea.Cmd {
	switch e := event.(type) {
	case services.SnapshotEvent:
		return m.handleSnapshot(e.Document)
	case services.InputEvent:
		return m.handleInput(e.Event)
	case services.ErrorEvent:
		return errorCmd(e.Service, e.Error)
	}
	return nil
}

// handleSnapshot swaps in a new page snapshot and asks for a refresh when
// anything changed. Each snapshot is a fresh parse, so the send listeners
// are re-attached every time; Attach drops the previous snapshot's elements.
func (m *Model) handleSnapshot(doc *page.Document) tea.Cmd {
	if doc == nil {
		return nil
	}
	m.doc = doc

	change := m.observer.Observe(doc)
	added := m.sends.Attach(doc)
	if change.Has(observe.ChangeStructure) {
		logger.Debug("page structure changed", "added", added, "registered", m.sends.Len())
	}
	m.state.RecordSnapshot(time.Now(), change.String(), m.sends.Len())

	if change.None() {
		return nil
	}
	return m.scheduler.Request()
}

// handleInput delivers an input event to the current snapshot and commits
// the prompt when it is a send.
func (m *Model) handleInput(ev models.InputEvent) tea.Cmd {
	trigger, ok := m.sends.Dispatch(m.doc, ev)
	m.state.RecordInput(ok)
	if !ok {
		return nil
	}

	tokens, committed, err := m.tracker.Send(m.doc)
	if err != nil {
		logger.Warn("failed to commit prompt", "trigger", trigger.Kind.String(), "error", err)
		return tea.Batch(errorCmd("send", err), m.scheduler.Request())
	}
	logger.Debug("prompt sent",
		"trigger", trigger.Kind.String(),
		"tokens", tokens,
		"committed", committed,
		"total", m.session.Committed())
	if !committed {
		return m.scheduler.Request()
	}
	return tea.Batch(
		notifyInfoCmd(fmt.Sprintf("Sent %s tokens", humanize.Comma(int64(tokens)))),
		m.scheduler.Request(),
	)
}

// refresh recomputes the reading from the current snapshot. A failed refresh
// leaves the previous reading on screen.
func (m *Model) refresh() tea.Cmd {
	r, err := m.tracker.Refresh(m.doc)
	if err != nil {
		logger.Warn("refresh failed", "error", err)
		m.state.RecordRefreshFailure()
		return nil
	}

	m.panel.SetReading(r)
	m.state.AddSample(models.SampleFromReading(r))
	samples := m.state.Samples()
	m.panel.SetSamples(samples)
	if m.budget > 0 {
		m.panel.SetProjection(m.pace.Calculate(samples, m.budget, r.RefreshedAt))
	}
	m.state.RecordRefresh(r.RefreshedAt, m.tracker.MessageCount(m.doc))

	if m.services != nil && m.services.CheckBudget(r) {
		return notifyWarningCmd(fmt.Sprintf("Token budget reached: %s tokens", humanize.Comma(int64(r.Total()))))
	}
	return nil
}

func (m *Model) reset() tea.Cmd {
	m.session.Reset()
	m.state.ClearSamples()
	m.pace.Reset()
	m.panel.SetProjection(nil)
	m.state.ClearAllNotifications()
	return tea.Batch(notifySuccessCmd("Session reset"), m.scheduler.Request())
}

// handleKeyMsg handles keyboard input.
func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		return tea.Quit

	case key.Matches(msg, m.keymap.Help):
		m.showHelp = !m.showHelp

	case key.Matches(msg, m.keymap.Escape):
		m.showHelp = false

	case key.Matches(msg, m.keymap.Collapse):
		m.session.ToggleCollapsed()

	case key.Matches(msg, m.keymap.Trend):
		m.panel.ToggleTrend()

	case key.Matches(msg, m.keymap.Refresh):
		return m.scheduler.Request()

	case key.Matches(msg, m.keymap.Reset):
		return m.reset()
	}
	return nil
}

// View renders the application UI.
func (m *Model) View() string {
	if !m.ready {
		return m.styles.Content.Render("Starting…")
	}

	view := m.panel.View(m.renderStatus())

	if m.showHelp {
		view = overlay.Centered(view, m.renderHelp(), m.width, m.height)
	}

	if toasts := m.renderNotifications(); len(toasts) > 0 {
		stack := lipgloss.JoinVertical(lipgloss.Right, toasts...)
		x := max(m.width-lipgloss.Width(stack)-2, 0)
		view = overlay.Composite(view, stack, x, 1)
	}

	return view
}

// renderStatus draws the full-screen background the overlay floats over.
func (m *Model) renderStatus() string {
	stats := m.state.PageStats()

	snapshot := "waiting for capture"
	if !stats.SnapshotAt.IsZero() {
		snapshot = humanize.Time(stats.SnapshotAt)
	}

	lines := []string{
		m.styles.Title.Render("Token Overlay"),
		"",
		statusRow("Capture", m.cfg.CaptureDir),
		statusRow("Snapshot", fmt.Sprintf("%s (%s, %s change)",
			snapshot, humanize.Comma(int64(stats.Snapshots)), stats.LastChange)),
		statusRow("Messages", humanize.Comma(int64(stats.Messages))),
		statusRow("Listeners", fmt.Sprintf("%d registered", stats.Registered)),
		statusRow("Input", fmt.Sprintf("%s events, %s sends",
			humanize.Comma(int64(stats.InputEvents)), humanize.Comma(int64(stats.Sends)))),
		statusRow("Encoding", m.encoding),
		statusRow("Frames", fmt.Sprintf("%s requests coalesced", humanize.Comma(int64(m.scheduler.Coalesced())))),
	}
	if p := m.pace.Latest(); p != nil {
		lines = append(lines, statusRow("Pace", fmt.Sprintf("%s (%s confidence, %d samples)",
			projection.Describe(p), p.Confidence, p.DataPoints)))
	}
	if stats.RefreshFails > 0 {
		lines = append(lines, statusRow("Failures", humanize.Comma(int64(stats.RefreshFails))))
	}

	body := m.styles.Content.Render(strings.Join(lines, "\n"))
	bodyLines := strings.Split(body, "\n")

	height := max(m.height-1, len(bodyLines))
	for len(bodyLines) < height {
		bodyLines = append(bodyLines, "")
	}
	bodyLines = append(bodyLines, m.renderKeyHints())

	return strings.Join(bodyLines, "\n")
}

func statusRow(label, value string) string {
	return styles.LabelStyle.Render(fmt.Sprintf("%-10s", label)) + " " + value
}

func (m *Model) renderKeyHints() string {
	var parts []string
	for _, b := range m.keymap.ShortHelp() {
		parts = append(parts,
			styles.HelpKeyStyle.Render(b.Help().Key)+" "+styles.HelpDescStyle.Render(b.Help().Desc))
	}
	return styles.StatusBarStyle.Width(m.width).Render(strings.Join(parts, "  "))
}

func (m *Model) renderNotifications() []string {
	notifications := m.state.GetNotifications()
	if len(notifications) == 0 {
		return nil
	}

	toasts := make([]string, 0, len(notifications))
	for _, n := range notifications {
		var style lipgloss.Style
		var prefix string

		switch n.Type {
		case NotificationSuccess:
			style = m.styles.NotificationSuccess
			prefix = "[OK]"
		case NotificationError:
			style = m.styles.NotificationError
			prefix = "[ERR]"
		case NotificationWarning:
			style = m.styles.NotificationWarning
			prefix = "[WARN]"
		default:
			style = m.styles.NotificationInfo
			prefix = "[INFO]"
		}

		content := style.Render(fmt.Sprintf("%s %s", prefix, n.Message))
		toasts = append(toasts, m.styles.Toast.Render(content))
	}
	return toasts
}

func (m *Model) renderHelp() string {
	var lines []string

	lines = append(lines, m.styles.Title.Render("Keyboard Shortcuts"))
	lines = append(lines, "")

	lines = append(lines, m.styles.Highlight.Render("Overlay"))
	lines = append(lines, "  c/Space    Collapse or expand")
	lines = append(lines, "  t          Toggle trend chart")
	lines = append(lines, "  drag       Move by the header")
	lines = append(lines, "  click −/+  Collapse or expand")
	lines = append(lines, "")

	lines = append(lines, m.styles.Highlight.Render("Session"))
	lines = append(lines, "  r          Refresh now")
	lines = append(lines, "  x          Reset committed tokens")
	lines = append(lines, "  ?          Toggle help")
	lines = append(lines, "  q/Ctrl+C   Quit")
	lines = append(lines, "")

	lines = append(lines, m.styles.Subtle.Render("Press ? or Esc to close"))

	return styles.HelpPanelStyle.Render(strings.Join(lines, "\n"))
}
