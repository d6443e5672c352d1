// Package tracker reads prompt and output text from the page and turns it
// into token counts.
package tracker

import (
	"fmt"
	"strings"
	"time"

	"github.com/j-veylop/token-overlay-tui/internal/config"
	"github.com/j-veylop/token-overlay-tui/internal/detect"
	"github.com/j-veylop/token-overlay-tui/internal/models"
	"github.com/j-veylop/token-overlay-tui/internal/page"
	"github.com/j-veylop/token-overlay-tui/internal/session"
	"github.com/j-veylop/token-overlay-tui/internal/tokenizer"
)

// Tracker extracts text from a page snapshot and counts its tokens.
// Every call re-queries the document it is given.
type Tracker struct {
	counter   tokenizer.Counter
	selectors config.Selectors
	detector  *detect.Detector
	state     *session.State
	now       func() time.Time
}

// New creates a Tracker.
func New(counter tokenizer.Counter, selectors config.Selectors, state *session.State) *Tracker {
	return &Tracker{
		counter:   counter,
		selectors: selectors,
		detector:  detect.New(selectors),
		state:     state,
		now:       time.Now,
	}
}

// State returns the session state the tracker commits to.
func (t *Tracker) State() *session.State {
	return t.state
}

// PromptText returns the trimmed text of the compose editor, falling back
// to a plain textarea's value, or "" when neither exists.
func (t *Tracker) PromptText(doc *page.Document) string {
	if editor, ok := doc.QueryFirst(t.selectors.Editor); ok {
		return strings.TrimSpace(editor.InnerText())
	}
	if ta, ok := doc.QueryFirst(t.selectors.EditorFallback); ok {
		return strings.TrimSpace(ta.Value())
	}
	return ""
}

// CurrentInputTokens counts the tokens of the text not yet sent.
func (t *Tracker) CurrentInputTokens(doc *page.Document) (int, error) {
	text := t.PromptText(doc)
	if text == "" {
		return 0, nil
	}
	return t.counter.Count(text)
}

// OutputTokens counts the tokens across every rendered assistant message.
// The whole transcript is re-read and re-counted on each call.
func (t *Tracker) OutputTokens(doc *page.Document) (int, error) {
	messages := doc.QueryAll(t.selectors.Messages)
	if len(messages) == 0 {
		return 0, nil
	}

	var b strings.Builder
	for _, m := range messages {
		b.WriteString(m.InnerText())
		b.WriteByte('\n')
	}
	return t.counter.Count(b.String())
}

// MessageCount returns the number of rendered assistant messages.
func (t *Tracker) MessageCount(doc *page.Document) int {
	return len(doc.QueryAll(t.selectors.Messages))
}

// DetectModel returns the active model name.
func (t *Tracker) DetectModel(doc *page.Document) string {
	return t.detector.Detect(doc)
}

// Send commits the current input tokens to the session if there are any.
// It returns the tokens counted and whether the committed total changed.
func (t *Tracker) Send(doc *page.Document) (int, bool, error) {
	tokens, err := t.CurrentInputTokens(doc)
	if err != nil {
		return 0, false, fmt.Errorf("failed to count prompt tokens: %w", err)
	}
	return tokens, t.state.Commit(tokens), nil
}

// Refresh recomputes every transient field from doc.
func (t *Tracker) Refresh(doc *page.Document) (models.Reading, error) {
	current, err := t.CurrentInputTokens(doc)
	if err != nil {
		return models.Reading{}, fmt.Errorf("failed to count prompt tokens: %w", err)
	}

	output, err := t.OutputTokens(doc)
	if err != nil {
		return models.Reading{}, fmt.Errorf("failed to count output tokens: %w", err)
	}

	return models.Reading{
		RefreshedAt:          t.now(),
		Model:                t.DetectModel(doc),
		CommittedInputTokens: t.state.Committed(),
		CurrentInputTokens:   current,
		OutputTokens:         output,
	}, nil
}
