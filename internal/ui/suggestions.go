package ui

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/bborn/wakeup/internal/api"
	"github.com/charmbracelet/lipgloss"
)

const (
	msgSearching = "Searching..."
	msgNoResults = "No results found"
)

type listState int

const (
	listEmpty listState = iota
	listLoading
	listResults
)

// SuggestionList is the dropdown under a location input. It is in exactly
// one state at a time; each Show* call replaces the previous content.
type SuggestionList struct {
	state      listState
	items      []api.Suggestion
	active     int // -1 when nothing is highlighted
	visible    bool
	maxVisible int
	width      int
}

// NewSuggestionList creates a hidden, empty list.
func NewSuggestionList(width int) *SuggestionList {
	return &SuggestionList{active: -1, maxVisible: 5, width: width}
}

// SetWidth sets the dropdown width.
func (l *SuggestionList) SetWidth(width int) {
	l.width = width
}

// ShowLoading replaces the content with the searching placeholder.
func (l *SuggestionList) ShowLoading() {
	l.state = listLoading
	l.items = nil
	l.active = -1
	l.visible = true
}

// SetItems replaces the content with results. No items shows the
// no-results placeholder.
func (l *SuggestionList) SetItems(items []api.Suggestion) {
	l.state = listResults
	l.items = items
	l.active = -1
	l.visible = true
}

// Hide hides the list. The highlight is kept.
func (l *SuggestionList) Hide() {
	l.visible = false
}

// Visible reports whether the list is shown.
func (l *SuggestionList) Visible() bool {
	return l.visible
}

// Loading reports whether the searching placeholder is shown.
func (l *SuggestionList) Loading() bool {
	return l.visible && l.state == listLoading
}

// HasItems reports whether the list is shown with at least one item.
func (l *SuggestionList) HasItems() bool {
	return l.visible && l.state == listResults && len(l.items) > 0
}

// Items returns the current results.
func (l *SuggestionList) Items() []api.Suggestion {
	return l.items
}

// Active returns the highlighted index, or -1.
func (l *SuggestionList) Active() int {
	return l.active
}

// SetActive makes i the only highlighted item.
func (l *SuggestionList) SetActive(i int) {
	if i >= 0 && i < len(l.items) {
		l.active = i
	}
}

// MoveUp moves the highlight up, wrapping to the last item. From no
// highlight it picks the last item.
func (l *SuggestionList) MoveUp() {
	if len(l.items) == 0 {
		return
	}
	if l.active > 0 {
		l.active--
	} else {
		l.active = len(l.items) - 1
	}
}

// MoveDown moves the highlight down, wrapping to the first item. From no
// highlight it picks the first item.
func (l *SuggestionList) MoveDown() {
	if len(l.items) == 0 {
		return
	}
	if l.active < len(l.items)-1 {
		l.active++
	} else {
		l.active = 0
	}
}

// Item returns the suggestion at i.
func (l *SuggestionList) Item(i int) (api.Suggestion, bool) {
	if i < 0 || i >= len(l.items) {
		return api.Suggestion{}, false
	}
	return l.items[i], true
}

// visibleRange keeps the highlighted item inside the window.
func (l *SuggestionList) visibleRange() (start, end int) {
	end = len(l.items)
	if end <= l.maxVisible {
		return 0, end
	}
	start = l.active - l.maxVisible/2
	if start < 0 {
		start = 0
	}
	end = start + l.maxVisible
	if end > len(l.items) {
		end = len(l.items)
		start = end - l.maxVisible
	}
	return start, end
}

// ItemAt maps a line of View's output to an item index, or -1.
func (l *SuggestionList) ItemAt(line int) int {
	if !l.HasItems() {
		return -1
	}
	start, end := l.visibleRange()
	// Line 0 is the top border.
	first := 1
	if start > 0 {
		first++
	}
	i := start + line - first
	if line < first || i >= end {
		return -1
	}
	return i
}

// View renders the dropdown, or "" when hidden.
func (l *SuggestionList) View() string {
	if !l.visible {
		return ""
	}

	var lines []string
	muted := lipgloss.NewStyle().Foreground(ColorMuted).Italic(true)

	switch {
	case l.state == listLoading:
		lines = append(lines, muted.Render("  "+msgSearching))
	case len(l.items) == 0:
		lines = append(lines, muted.Render("  "+msgNoResults))
	default:
		start, end := l.visibleRange()
		if start > 0 {
			lines = append(lines, muted.Render(fmt.Sprintf("  ... %d more", start)))
		}
		for i := start; i < end; i++ {
			lines = append(lines, l.renderItem(l.items[i], i == l.active))
		}
		if remaining := len(l.items) - end; remaining > 0 {
			lines = append(lines, muted.Render(fmt.Sprintf("  ... %d more", remaining)))
		}
	}

	width := l.width
	if width > 60 {
		width = 60
	}
	if width < 30 {
		width = 30
	}

	dropdown := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorPrimary).
		Background(ColorDropdown).
		Padding(0, 1).
		Width(width)

	return dropdown.Render(strings.Join(lines, "\n"))
}

func (l *SuggestionList) renderItem(s api.Suggestion, active bool) string {
	var line strings.Builder
	if active {
		line.WriteString(lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true).Render("> "))
	} else {
		line.WriteString("  ")
	}

	name := truncate(sanitize(s.DisplayName), 50)
	style := lipgloss.NewStyle().Foreground(ColorText)
	if active {
		style = style.Bold(true).Foreground(ColorPrimary)
	}
	line.WriteString(style.Render(name))
	return line.String()
}

// sanitize makes untrusted text safe to print: control characters,
// escape sequences and bidi overrides are shown as visible escapes instead
// of being interpreted by the terminal. Printable text, including markup
// such as <script>, is kept as-is.
func sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '\n' || r == '\t' || r == '\r':
			b.WriteByte(' ')
		case r == unicode.ReplacementChar:
			b.WriteRune(r)
		case unicode.IsControl(r) || unicode.Is(unicode.Bidi_Control, r):
			if r < 0x100 {
				fmt.Fprintf(&b, "\\x%02x", r)
			} else {
				fmt.Fprintf(&b, "\\u%04x", r)
			}
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
