// Package overlay renders the floating token panel and handles its mouse
// interaction. It is a rendering sink: it never reads the page.
package overlay

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/j-veylop/token-overlay-tui/internal/models"
	"github.com/j-veylop/token-overlay-tui/internal/services/projection"
	"github.com/j-veylop/token-overlay-tui/internal/session"
	"github.com/j-veylop/token-overlay-tui/internal/ui/components"
	"github.com/j-veylop/token-overlay-tui/internal/ui/styles"
)

const (
	// Title is the panel header text.
	Title = "Token Tracker"
	// GlyphExpanded is shown while the body is visible.
	GlyphExpanded = "−"
	// GlyphCollapsed is shown while the body is hidden.
	GlyphCollapsed = "+"
	// DetectingLabel stands in for the model before the first refresh.
	DetectingLabel = "Detecting…"

	minInnerWidth = 26
	sparkWidth    = 16
	trendHeight   = 4

	// borderSize and paddingX match styles.PanelStyle.
	borderSize = 1
	paddingX   = 1
)

// Rect is a screen rectangle in cells.
type Rect struct {
	X, Y, Width, Height int
}

// Contains reports whether the cell (x, y) lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Panel is the floating token panel. Collapse, anchor and drag state live in
// the shared session state; the panel only holds what it displays.
type Panel struct {
	state          *session.State
	spinner        components.LoadingSpinner
	reading        models.Reading
	hasReading     bool
	samples        []models.Sample
	showTrend      bool
	alertThreshold int
	projection     *models.Projection

	termWidth  int
	termHeight int
}

// New creates a panel bound to the session state.
func New(state *session.State, alertThreshold int) *Panel {
	return &Panel{
		state:          state,
		spinner:        components.NewSpinner(DetectingLabel),
		alertThreshold: alertThreshold,
	}
}

// Init starts the detecting spinner.
func (p *Panel) Init() tea.Cmd {
	return p.spinner.Init()
}

// Update advances the spinner until the first reading arrives.
func (p *Panel) Update(msg tea.Msg) tea.Cmd {
	if _, ok := msg.(spinner.TickMsg); !ok || p.hasReading {
		return nil
	}
	var cmd tea.Cmd
	p.spinner, cmd = p.spinner.Update(msg)
	return cmd
}

// SetReading replaces the displayed values.
func (p *Panel) SetReading(r models.Reading) {
	p.reading = r
	p.hasReading = true
}

// Reading returns the displayed reading and whether one has been set.
func (p *Panel) Reading() (models.Reading, bool) {
	return p.reading, p.hasReading
}

// SetSamples sets the history shown by the trend chart and sparkline.
func (p *Panel) SetSamples(samples []models.Sample) {
	p.samples = samples
}

// SetProjection sets the budget projection shown next to the budget row.
func (p *Panel) SetProjection(proj *models.Projection) {
	p.projection = proj
}

// ToggleTrend shows or hides the trend chart and returns the new setting.
func (p *Panel) ToggleTrend() bool {
	p.showTrend = !p.showTrend
	return p.showTrend
}

// ShowTrend reports whether the trend chart is visible.
func (p *Panel) ShowTrend() bool {
	return p.showTrend
}

// SetSize records the terminal size used for anchoring and clamping.
func (p *Panel) SetSize(width, height int) {
	p.termWidth = width
	p.termHeight = height
}

// Render returns the panel box without positioning it.
func (p *Panel) Render() string {
	body := p.renderBody()
	inner := minInnerWidth
	if body != "" {
		inner = max(inner, lipgloss.Width(body))
	}

	lines := []string{p.renderHeader(inner)}
	if body != "" {
		lines = append(lines, body)
	}

	style := styles.PanelStyle
	if p.state.Dragging() {
		style = styles.PanelDraggingStyle
	}
	return style.Render(strings.Join(lines, "\n"))
}

func (p *Panel) renderHeader(inner int) string {
	glyph := GlyphExpanded
	if p.state.Collapsed() {
		glyph = GlyphCollapsed
	}
	title := styles.PanelTitleStyle.Render(Title)
	gap := max(1, inner-lipgloss.Width(Title)-lipgloss.Width(glyph))
	return title + strings.Repeat(" ", gap) + styles.ToggleStyle.Render(glyph)
}

func (p *Panel) renderBody() string {
	if p.state.Collapsed() {
		return ""
	}

	model := p.spinner.ViewWithLabel()
	if p.hasReading {
		model = styles.ModelStyle.Render(p.reading.Model)
	}

	r := p.reading
	rows := []string{
		row("Model", model),
		styles.SeparatorStyle.Render(strings.Repeat("─", minInnerWidth)),
		row("Committed input", styles.ValueStyle.Render(humanize.Comma(int64(r.CommittedInputTokens)))),
		row("Current input", styles.ValueStyle.Render(humanize.Comma(int64(r.CurrentInputTokens)))),
		row("Input sum", styles.SumStyle.Render(humanize.Comma(int64(r.InputSum())))),
		row("Output", styles.OutputStyle.Render(humanize.Comma(int64(r.OutputTokens)))),
	}

	if p.alertThreshold > 0 {
		total := humanize.Comma(int64(r.Total())) + " / " + humanize.Comma(int64(p.alertThreshold))
		rows = append(rows, row("Budget", styles.GetBudgetStyle(r.Total(), p.alertThreshold).Render(total)))
		if p.projection != nil {
			rows = append(rows, row("Pace", styles.GetProjectionStyle(p.projection.Status).Render(projection.Describe(p.projection))))
		}
	}

	if p.showTrend {
		rows = append(rows, "", components.RenderTrendChart(p.samples, minInnerWidth, trendHeight))
	} else if len(p.samples) > 1 {
		totals := make([]float64, len(p.samples))
		for i, s := range p.samples {
			totals[i] = float64(s.Total())
		}
		rows = append(rows, row("Trend", styles.HelpStyle.Render(components.RenderSparkline(totals, sparkWidth))))
	}

	return strings.Join(rows, "\n")
}

// row lays out a label on the left and a value on the right.
func row(label, value string) string {
	l := styles.LabelStyle.Render(label)
	gap := max(1, minInnerWidth-lipgloss.Width(l)-lipgloss.Width(value))
	return l + strings.Repeat(" ", gap) + value
}

// Bounds returns the panel's rectangle on screen. A bottom-right anchor is
// resolved against the terminal size; the result is clamped so the panel
// stays on screen.
func (p *Panel) Bounds() Rect {
	box := p.Render()
	r := Rect{Width: lipgloss.Width(box), Height: lipgloss.Height(box)}

	switch p.state.Anchor() {
	case session.AnchorTopLeft:
		pos := p.state.Position()
		r.X, r.Y = pos.X, pos.Y
	default:
		margin := p.state.Margin()
		r.X = p.termWidth - r.Width - margin.X
		r.Y = p.termHeight - r.Height - margin.Y
	}

	r.X, r.Y = p.clamp(r.X, r.Y, r.Width, r.Height)
	return r
}

func (p *Panel) clamp(x, y, w, h int) (int, int) {
	if p.termWidth > 0 {
		x = min(x, p.termWidth-w)
	}
	if p.termHeight > 0 {
		y = min(y, p.termHeight-h)
	}
	return max(x, 0), max(y, 0)
}

// headerRect is the header line inside the border.
func (p *Panel) headerRect(b Rect) Rect {
	return Rect{X: b.X + borderSize, Y: b.Y + borderSize, Width: b.Width - 2*borderSize, Height: 1}
}

// glyphRect is the collapse toggle inside the header line.
func (p *Panel) glyphRect(b Rect) Rect {
	return Rect{X: b.X + b.Width - borderSize - paddingX - 1, Y: b.Y + borderSize, Width: 1, Height: 1}
}

// HandleMouse applies a mouse event and reports whether the panel consumed
// it. A left press on the glyph toggles collapse; a left press elsewhere on
// the header starts a drag that follows motion until release.
func (p *Panel) HandleMouse(msg tea.MouseMsg) bool {
	pointer := session.Point{X: msg.X, Y: msg.Y}

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return false
		}
		b := p.Bounds()
		if p.glyphRect(b).Contains(msg.X, msg.Y) {
			p.state.ToggleCollapsed()
			return true
		}
		if p.headerRect(b).Contains(msg.X, msg.Y) {
			p.state.BeginDrag(session.Point{X: b.X, Y: b.Y}, pointer)
			return true
		}
		return b.Contains(msg.X, msg.Y)

	case tea.MouseActionMotion:
		if !p.state.DragTo(pointer) {
			return false
		}
		b := p.Bounds()
		p.state.SetPosition(session.Point{X: b.X, Y: b.Y})
		return true

	case tea.MouseActionRelease:
		if !p.state.Dragging() {
			return false
		}
		p.state.EndDrag()
		return true
	}
	return false
}

// View composites the panel over background at its current position.
func (p *Panel) View(background string) string {
	b := p.Bounds()
	return Composite(background, p.Render(), b.X, b.Y)
}
