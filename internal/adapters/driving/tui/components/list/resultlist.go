// Package list renders the slides retrieved for a query.
package list

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/canvasrag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/canvasrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/canvasrag/internal/core/domain"
)

// linesPerSlide is the height of one rendered entry, separator included.
const linesPerSlide = 3

var (
	firstKey = key.NewBinding(key.WithKeys("home", "g"))
	lastKey  = key.NewBinding(key.WithKeys("end", "G"))
)

// ResultList is a scrolling list of retrieved slides ranked by similarity.
type ResultList struct {
	styles  *styles.Styles
	keys    *keymap.KeyMap
	results []domain.RetrievalResult
	cursor  int
	width   int
	height  int
}

// NewResultList creates an empty list.
func NewResultList(s *styles.Styles) *ResultList {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &ResultList{
		styles: s,
		keys:   keymap.DefaultKeyMap(),
		width:  80,
		height: 10,
	}
}

// Init implements tea.Model.
func (r *ResultList) Init() tea.Cmd { return nil }

// Update moves the cursor. It never produces a command.
func (r *ResultList) Update(msg tea.Msg) (*ResultList, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return r, nil
	}
	switch {
	case key.Matches(km, r.keys.Up):
		r.MoveUp()
	case key.Matches(km, r.keys.Down):
		r.MoveDown()
	case key.Matches(km, firstKey):
		r.SetSelected(0)
	case key.Matches(km, lastKey):
		r.SetSelected(len(r.results) - 1)
	}
	return r, nil
}

// View renders the visible window of slides around the cursor.
func (r *ResultList) View() string {
	if len(r.results) == 0 {
		return r.styles.Muted.Render("No slides")
	}

	var b strings.Builder
	b.WriteString(r.styles.Subtitle.Render(fmt.Sprintf("Slides (%d)", len(r.results))))
	b.WriteString("\n\n")

	from, to := r.window()
	for i := from; i < to; i++ {
		if i > from {
			b.WriteString("\n")
		}
		b.WriteString(r.renderSlide(i))
	}
	if to < len(r.results) {
		b.WriteString("\n" + r.styles.Muted.Render(fmt.Sprintf("  %d more", len(r.results)-to)))
	}
	return b.String()
}

// window returns the half-open range of entries that fit the height and
// keep the cursor visible.
func (r *ResultList) window() (int, int) {
	visible := max((r.height-2)/linesPerSlide, 1)
	from := 0
	if r.cursor >= visible {
		from = r.cursor - visible + 1
	}
	return from, min(from+visible, len(r.results))
}

func (r *ResultList) renderSlide(i int) string {
	res := r.results[i]
	meta := res.Metadata

	name := meta.Name
	if name == "" {
		name = "(Untitled)"
	}
	nameWidth := max(r.width-20, 10)
	name = truncate(name, nameWidth)
	score := fmt.Sprintf("%.2f", res.Similarity)

	var head string
	if i == r.cursor {
		head = r.styles.Selected.Render(fmt.Sprintf("> %-*s  %s", nameWidth, name, score))
	} else {
		head = r.styles.Normal.Render(fmt.Sprintf("  %-*s  ", nameWidth, name)) + r.styles.Score(res.Similarity).Render(score)
	}

	var tags []string
	if meta.ParentCollection != "" {
		tags = append(tags, "project "+meta.ParentCollection)
	}
	if meta.AssetURL != "" {
		tags = append(tags, "screenshot")
	}

	body := truncate(strings.Join(strings.Fields(res.Text), " "), max(r.width-6, 20))
	out := head + "\n" + r.styles.Muted.Render("    "+body)
	if len(tags) > 0 || !meta.HasDescription {
		out += "\n    " + r.styles.Subtitle.Render(strings.Join(tags, " · "))
		if !meta.HasDescription {
			out += " " + r.styles.Warning.Render("no description")
		}
	}
	return out
}

// truncate shortens s to at most n runes, ending in "...".
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

// SetResults replaces the slides and resets the cursor.
func (r *ResultList) SetResults(results []domain.RetrievalResult) {
	r.results = results
	r.cursor = 0
}

func (r *ResultList) Results() []domain.RetrievalResult { return r.results }
func (r *ResultList) Selected() int                      { return r.cursor }
func (r *ResultList) Count() int                         { return len(r.results) }
func (r *ResultList) IsEmpty() bool                      { return len(r.results) == 0 }
func (r *ResultList) Width() int                         { return r.width }
func (r *ResultList) Height() int                        { return r.height }

// SetSelected moves the cursor. Out of range indexes are ignored.
func (r *ResultList) SetSelected(index int) {
	if index >= 0 && index < len(r.results) {
		r.cursor = index
	}
}

// SelectedResult returns the slide under the cursor, or nil when empty.
func (r *ResultList) SelectedResult() *domain.RetrievalResult {
	if r.cursor < 0 || r.cursor >= len(r.results) {
		return nil
	}
	return &r.results[r.cursor]
}

func (r *ResultList) MoveUp() { r.SetSelected(r.cursor - 1) }

func (r *ResultList) MoveDown() { r.SetSelected(r.cursor + 1) }

// SetDimensions sets the area the list may draw in.
func (r *ResultList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
}
