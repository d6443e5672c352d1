package app

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/token-overlay-tui/internal/config"
	"github.com/j-veylop/token-overlay-tui/internal/models"
	"github.com/j-veylop/token-overlay-tui/internal/page"
	"github.com/j-veylop/token-overlay-tui/internal/services"
)

type wordCounter struct {
	fail bool
}

func (w *wordCounter) Count(text string) (int, error) {
	if w.fail {
		return 0, errors.New("codec unavailable")
	}
	return len(strings.Fields(text)), nil
}

func testConfig() *config.Config {
	return &config.Config{
		CaptureDir:        "/tmp/capture",
		TokenizerEncoding: "o200k_base",
		RefreshInterval:   time.Second,
		FrameInterval:     time.Millisecond,
		Selectors:         config.DefaultSelectors(),
	}
}

func chatPage(prompt string, replies ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><main>`)
	b.WriteString(`<div class="model-selector"><span>ChatGPT 4o</span></div>`)
	for _, r := range replies {
		b.WriteString(`<div class="markdown prose"><p>` + r + `</p></div>`)
	}
	b.WriteString(`<form><div id="prompt-textarea" contenteditable="true" class="ProseMirror"><p>`)
	b.WriteString(prompt)
	b.WriteString(`</p></div><button data-testid="send-button">send</button></form>`)
	b.WriteString(`</main></body></html>`)
	return b.String()
}

func newTestModel(t *testing.T, counter *wordCounter) *Model {
	t.Helper()
	m := NewModel(testConfig(), nil, counter)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

func snapshot(t *testing.T, m *Model, html string) tea.Cmd {
	t.Helper()
	doc, err := page.ParseString(html)
	if err != nil {
		t.Fatalf("ParseString() failed: %v", err)
	}
	_, cmd := m.Update(ServiceEventMsg{Event: services.SnapshotEvent{Document: doc}})
	return cmd
}

func input(m *Model, ev models.InputEvent) {
	m.Update(ServiceEventMsg{Event: services.InputEvent{Event: ev}})
}

func frame(m *Model) {
	m.Update(FrameMsg{Time: time.Now()})
}

func keyPress(m *Model, r rune) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	return cmd
}

func TestNewModel(t *testing.T) {
	m := NewModel(testConfig(), nil, &wordCounter{})
	if m == nil {
		t.Fatal("NewModel returned nil")
	}
	if m.State() == nil || m.Session() == nil || m.Panel() == nil {
		t.Error("state, session and panel should be initialized")
	}
	if m.Document() == nil {
		t.Error("model should start with an empty document")
	}
	if m.encoding != "o200k_base" {
		t.Errorf("encoding = %q, want o200k_base", m.encoding)
	}
}

func TestModel_Init(t *testing.T) {
	m := NewModel(testConfig(), nil, &wordCounter{})
	if cmd := m.Init(); cmd == nil {
		t.Error("Init returned nil command")
	}
	if !m.scheduler.Pending() {
		t.Error("Init should schedule the first refresh")
	}
}

func TestModel_Update_WindowSize(t *testing.T) {
	m := NewModel(testConfig(), nil, &wordCounter{})
	newModel, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 50})

	got, ok := newModel.(*Model)
	if !ok {
		t.Fatal("Update returned wrong model type")
	}
	if got.width != 100 || got.height != 50 {
		t.Errorf("size = %dx%d, want 100x50", got.width, got.height)
	}
	if !got.ready {
		t.Error("Model should be ready after WindowSizeMsg")
	}
}

func TestModel_SnapshotThenFrame(t *testing.T) {
	m := newTestModel(t, &wordCounter{})

	if cmd := snapshot(t, m, chatPage("Hello world", "one two three")); cmd == nil {
		t.Fatal("first snapshot should request a frame")
	}
	if m.sends.Len() != 2 {
		t.Errorf("registered = %d, want editor and button", m.sends.Len())
	}

	frame(m)

	r, ok := m.Panel().Reading()
	if !ok {
		t.Fatal("frame should produce a reading")
	}
	if r.CurrentInputTokens != 2 || r.OutputTokens != 3 || r.CommittedInputTokens != 0 {
		t.Errorf("reading = %+v", r)
	}
	if r.Model != "gpt-4o" {
		t.Errorf("Model = %q, want gpt-4o", r.Model)
	}

	stats := m.State().PageStats()
	if stats.Snapshots != 1 || stats.Messages != 1 || stats.LastChange != "structure" {
		t.Errorf("PageStats() = %+v", stats)
	}
	if len(m.State().Samples()) != 1 {
		t.Errorf("samples = %d, want 1", len(m.State().Samples()))
	}
}

func TestModel_SnapshotRequestsCoalesce(t *testing.T) {
	m := newTestModel(t, &wordCounter{})

	snapshot(t, m, chatPage("a"))
	snapshot(t, m, chatPage("a b"))
	snapshot(t, m, chatPage("a b c"))

	if !m.scheduler.Pending() {
		t.Fatal("a frame should be pending")
	}
	if m.scheduler.Coalesced() != 2 {
		t.Errorf("Coalesced() = %d, want 2", m.scheduler.Coalesced())
	}

	frame(m)
	if r, _ := m.Panel().Reading(); r.CurrentInputTokens != 3 {
		t.Errorf("frame should read the latest snapshot, got %d", r.CurrentInputTokens)
	}
}

func TestModel_UnchangedSnapshotIsIgnored(t *testing.T) {
	m := newTestModel(t, &wordCounter{})

	snapshot(t, m, chatPage("same"))
	frame(m)

	snapshot(t, m, chatPage("same"))
	if m.scheduler.Pending() {
		t.Error("identical snapshot should not request a frame")
	}
	if got := m.State().PageStats().LastChange; got != "none" {
		t.Errorf("LastChange = %q, want none", got)
	}
}

func TestModel_SendCommitsPrompt(t *testing.T) {
	tests := []struct {
		name          string
		event         models.InputEvent
		wantCommitted int
	}{
		{"Enter", models.InputEvent{Type: models.InputKeyDown, Key: "Enter", Target: "#prompt-textarea"}, 2},
		{"ShiftEnter", models.InputEvent{Type: models.InputKeyDown, Key: "Enter", ShiftKey: true, Target: "#prompt-textarea"}, 0},
		{"ButtonClick", models.InputEvent{Type: models.InputClick, Target: "button[data-testid='send-button']"}, 2},
		{"ClickElsewhere", models.InputEvent{Type: models.InputClick, Target: "main"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel(t, &wordCounter{})
			snapshot(t, m, chatPage("Hello world"))
			frame(m)

			input(m, tt.event)

			if got := m.Session().Committed(); got != tt.wantCommitted {
				t.Errorf("Committed() = %d, want %d", got, tt.wantCommitted)
			}
			stats := m.State().PageStats()
			if stats.InputEvents != 1 {
				t.Errorf("InputEvents = %d, want 1", stats.InputEvents)
			}
			if (stats.Sends == 1) != (tt.wantCommitted > 0) {
				t.Errorf("Sends = %d", stats.Sends)
			}
		})
	}
}

func TestModel_SendThenClearedEditor(t *testing.T) {
	m := newTestModel(t, &wordCounter{})
	snapshot(t, m, chatPage("Hello world"))
	input(m, models.InputEvent{Type: models.InputKeyDown, Key: "Enter", Target: "#prompt-textarea"})

	snapshot(t, m, chatPage("", "reply text"))
	frame(m)

	r, _ := m.Panel().Reading()
	if r.CommittedInputTokens != 2 || r.CurrentInputTokens != 0 || r.InputSum() != 2 {
		t.Errorf("reading after send = %+v", r)
	}
	if r.OutputTokens != 2 {
		t.Errorf("OutputTokens = %d, want 2", r.OutputTokens)
	}
}

func TestModel_RefreshFailureKeepsReading(t *testing.T) {
	counter := &wordCounter{}
	m := newTestModel(t, counter)
	snapshot(t, m, chatPage("one two"))
	frame(m)
	before, _ := m.Panel().Reading()

	counter.fail = true
	snapshot(t, m, chatPage("one two three"))
	frame(m)

	after, _ := m.Panel().Reading()
	if after != before {
		t.Errorf("reading changed after failed refresh: %+v -> %+v", before, after)
	}
	if m.State().PageStats().RefreshFails != 1 {
		t.Errorf("RefreshFails = %d, want 1", m.State().PageStats().RefreshFails)
	}
}

func TestModel_Keys(t *testing.T) {
	m := newTestModel(t, &wordCounter{})

	keyPress(m, 'c')
	if !m.Session().Collapsed() {
		t.Error("c should collapse the overlay")
	}
	keyPress(m, 'c')
	if m.Session().Collapsed() {
		t.Error("second c should expand the overlay")
	}

	keyPress(m, 't')
	if !m.Panel().ShowTrend() {
		t.Error("t should toggle the trend chart")
	}

	keyPress(m, '?')
	if !m.showHelp {
		t.Error("? should show help")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.showHelp {
		t.Error("esc should close help")
	}

	if cmd := keyPress(m, 'r'); cmd == nil || !m.scheduler.Pending() {
		t.Error("r should request a refresh")
	}

	cmd := keyPress(m, 'q')
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestModel_ResetKey(t *testing.T) {
	m := newTestModel(t, &wordCounter{})
	snapshot(t, m, chatPage("Hello world"))
	input(m, models.InputEvent{Type: models.InputKeyDown, Key: "Enter", Target: "#prompt-textarea"})
	frame(m)

	keyPress(m, 'x')

	if m.Session().Committed() != 0 {
		t.Errorf("Committed() = %d after reset, want 0", m.Session().Committed())
	}
	if len(m.State().Samples()) != 0 {
		t.Error("reset should clear the trend samples")
	}
}

func TestModel_MouseTogglesCollapse(t *testing.T) {
	m := newTestModel(t, &wordCounter{})
	snapshot(t, m, chatPage("x"))
	frame(m)

	b := m.Panel().Bounds()
	gx, gy := b.X+b.Width-3, b.Y+1

	m.Update(tea.MouseMsg{X: gx, Y: gy, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	if !m.Session().Collapsed() {
		t.Error("clicking the glyph should collapse the overlay")
	}
}

func TestModel_ErrorEventNotifies(t *testing.T) {
	m := newTestModel(t, &wordCounter{})
	cmd := m.handleServiceEvent(services.ErrorEvent{Service: "capture", Error: errors.New("boom")})
	if cmd == nil {
		t.Fatal("error event should produce a command")
	}

	errMsg, ok := cmd().(ErrorMsg)
	if !ok {
		t.Fatalf("expected ErrorMsg, got %T", cmd())
	}
	_, cmd = m.Update(errMsg)
	if cmd == nil {
		t.Fatal("ErrorMsg should produce a notification command")
	}

	msg, ok := cmd().(AddNotificationMsg)
	if !ok {
		t.Fatalf("expected AddNotificationMsg, got %T", cmd())
	}
	if msg.Type != NotificationError || msg.Message != "capture: boom" {
		t.Errorf("notification = %+v", msg)
	}

	m.Update(msg)
	if len(m.State().GetNotifications()) != 1 {
		t.Error("notification should be stored")
	}
}

// collect runs cmd, expanding batches, and returns the messages produced.
// Timer commands that do not fire promptly are skipped.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()

	var msg tea.Msg
	select {
	case msg = <-done:
	case <-time.After(100 * time.Millisecond):
		return nil
	}

	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		return []tea.Msg{msg}
	}
	var out []tea.Msg
	for _, c := range batch {
		out = append(out, collect(c)...)
	}
	return out
}

func notifications(cmd tea.Cmd) []AddNotificationMsg {
	var out []AddNotificationMsg
	for _, msg := range collect(cmd) {
		if n, ok := msg.(AddNotificationMsg); ok {
			out = append(out, n)
		}
	}
	return out
}

func TestModel_SendNotifies(t *testing.T) {
	m := newTestModel(t, &wordCounter{})
	snapshot(t, m, chatPage("Hello world"))

	_, cmd := m.Update(ServiceEventMsg{Event: services.InputEvent{
		Event: models.InputEvent{Type: models.InputKeyDown, Key: "Enter", Target: "#prompt-textarea"},
	}})

	got := notifications(cmd)
	if len(got) != 1 || got[0].Type != NotificationInfo || got[0].Message != "Sent 2 tokens" {
		t.Errorf("notifications = %+v, want one info \"Sent 2 tokens\"", got)
	}
}

func TestModel_SendFailureNotifies(t *testing.T) {
	counter := &wordCounter{}
	m := newTestModel(t, counter)
	snapshot(t, m, chatPage("Hello world"))
	counter.fail = true

	_, cmd := m.Update(ServiceEventMsg{Event: services.InputEvent{
		Event: models.InputEvent{Type: models.InputClick, Target: "button[data-testid='send-button']"},
	}})
	if m.Session().Committed() != 0 {
		t.Errorf("Committed() = %d, want 0", m.Session().Committed())
	}
	if cmd == nil {
		t.Fatal("failed send should report an error")
	}

	found := false
	for _, msg := range collect(cmd) {
		if e, ok := msg.(ErrorMsg); ok && e.Context == "send" {
			found = true
		}
	}
	if !found {
		t.Error("expected an ErrorMsg from the send")
	}
}

func TestModel_ResetNotifies(t *testing.T) {
	m := newTestModel(t, &wordCounter{})
	got := notifications(keyPress(m, 'x'))
	if len(got) != 1 || got[0].Type != NotificationSuccess || got[0].Message != "Session reset" {
		t.Errorf("notifications = %+v, want one success \"Session reset\"", got)
	}
}

func TestModel_SendAgainstLiveCapture(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig()
	cfg.CaptureDir = dir

	mgr, err := services.NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager() failed: %v", err)
	}
	t.Cleanup(func() { _ = mgr.Close() })

	m := NewModel(cfg, mgr, &wordCounter{})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	ch := mgr.Subscribe()

	if err := os.WriteFile(filepath.Join(dir, config.PageFileName), []byte(chatPage("Hello world")), 0600); err != nil {
		t.Fatal(err)
	}
	// Enter lands before the page reload would have settled.
	f, err := os.OpenFile(filepath.Join(dir, config.EventsFileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString(`{"type":"keydown","key":"Enter","target":"#prompt-textarea"}` + "\n"); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	timeout := time.After(2 * time.Second)
	for {
		select {
		case e := <-ch:
			m.Update(ServiceEventMsg{Event: e})
			if _, ok := e.(services.InputEvent); !ok {
				continue
			}
			if got := m.Session().Committed(); got != 2 {
				t.Errorf("Committed() = %d, want 2", got)
			}
			return
		case <-timeout:
			t.Fatal("timed out waiting for the input event")
		}
	}
}

func TestModel_View(t *testing.T) {
	m := NewModel(testConfig(), nil, &wordCounter{})
	if !strings.Contains(m.View(), "Starting") {
		t.Error("view before the first resize should show the starting message")
	}

	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	snapshot(t, m, chatPage("Hello world"))
	frame(m)

	view := m.View()
	for _, want := range []string{"Token Overlay", "Token Tracker", "/tmp/capture", "o200k_base"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}

	keyPress(m, '?')
	if !strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Error("help should be drawn over the view")
	}
}

func TestModel_BudgetProjection(t *testing.T) {
	cfg := testConfig()
	cfg.AlertThreshold = 1000
	m := NewModel(cfg, nil, &wordCounter{})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	snapshot(t, m, chatPage("one two"))
	frame(m)

	p := m.pace.Latest()
	if p == nil {
		t.Fatal("refresh should compute a projection when a budget is set")
	}
	if p.Total != 2 || p.Threshold != 1000 {
		t.Errorf("projection = %+v", p)
	}
	if !strings.Contains(m.View(), "Pace") {
		t.Error("View() should show the pace row")
	}

	keyPress(m, 'x')
	if m.pace.Latest() != nil {
		t.Error("reset should drop the projection")
	}
}

func TestModel_NoBudgetNoProjection(t *testing.T) {
	m := newTestModel(t, &wordCounter{})
	snapshot(t, m, chatPage("one two"))
	frame(m)
	if m.pace.Latest() != nil {
		t.Error("no projection without a budget")
	}
}
