package ui

import (
	"strings"
	"testing"

	"github.com/bborn/wakeup/internal/api"
)

func items(n int) []api.Suggestion {
	out := make([]api.Suggestion, n)
	for i := range out {
		out[i] = api.Suggestion{DisplayName: string(rune('A' + i)), FullName: string(rune('A' + i))}
	}
	return out
}

func TestSuggestionListNavigation(t *testing.T) {
	tests := []struct {
		name   string
		n      int
		start  int
		moves  string // d = down, u = up
		active int
	}{
		{"down from none picks first", 3, -1, "d", 0},
		{"up from none picks last", 3, -1, "u", 2},
		{"down wraps", 3, 2, "d", 0},
		{"up wraps", 3, 0, "u", 2},
		{"down then up", 3, -1, "ddu", 0},
		{"single item", 1, -1, "dddd", 0},
		{"empty list stays", 0, -1, "du", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewSuggestionList(60)
			l.SetItems(items(tt.n))
			l.SetActive(tt.start)
			for _, mv := range tt.moves {
				if mv == 'd' {
					l.MoveDown()
				} else {
					l.MoveUp()
				}
			}
			if l.Active() != tt.active {
				t.Errorf("Active() = %d, want %d", l.Active(), tt.active)
			}
		})
	}
}

func TestSuggestionListStates(t *testing.T) {
	l := NewSuggestionList(60)
	if l.Visible() || l.View() != "" {
		t.Fatal("new list should be hidden")
	}

	l.ShowLoading()
	if !l.Loading() || l.HasItems() {
		t.Error("loading list should have no items")
	}
	if !strings.Contains(l.View(), msgSearching) {
		t.Errorf("view = %q, want %q", l.View(), msgSearching)
	}

	l.SetItems(items(2))
	l.SetActive(1)
	if l.Loading() || !l.HasItems() {
		t.Error("results should replace the loading state")
	}

	l.Hide()
	if l.HasItems() {
		t.Error("hidden list should not report items")
	}
	if l.Active() != 1 {
		t.Errorf("Hide() reset active to %d", l.Active())
	}

	l.ShowLoading()
	if l.Active() != -1 {
		t.Error("new content should clear the highlight")
	}
}

func TestSuggestionListItemAt(t *testing.T) {
	l := NewSuggestionList(60)
	l.SetItems(items(3))

	tests := []struct {
		line int
		want int
	}{
		{0, -1}, // border
		{1, 0},
		{3, 2},
		{4, -1},
	}
	for _, tt := range tests {
		if got := l.ItemAt(tt.line); got != tt.want {
			t.Errorf("ItemAt(%d) = %d, want %d", tt.line, got, tt.want)
		}
	}
}

func TestSuggestionListScrolling(t *testing.T) {
	l := NewSuggestionList(60)
	l.SetItems(items(10))
	l.SetActive(9)

	start, end := l.visibleRange()
	if start != 5 || end != 10 {
		t.Fatalf("visibleRange() = %d, %d, want 5, 10", start, end)
	}
	// Border, then the "more" indicator, then item 5.
	if got := l.ItemAt(2); got != 5 {
		t.Errorf("ItemAt(2) = %d, want 5", got)
	}
	if got := l.ItemAt(1); got != -1 {
		t.Errorf("ItemAt(1) = %d, want -1 for the indicator", got)
	}
	if !strings.Contains(l.View(), "... 5 more") {
		t.Error("view should show the hidden count")
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Paris, France", "Paris, France"},
		{"markup stays literal", `<script>alert("x")</script> & 'y'`, `<script>alert("x")</script> & 'y'`},
		{"escape sequence", "a\x1b[31mb", `a\x1b[31mb`},
		{"newlines become spaces", "a\nb\tc", "a b c"},
		{"bidi override", "abc\u202edef", `abc\u202edef`},
		{"unicode kept", "Île-de-France", "Île-de-France"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitize(tt.in); got != tt.want {
				t.Errorf("sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("Île-de-France", 20); got != "Île-de-France" {
		t.Errorf("truncate() = %q", got)
	}
	if got := truncate("abcdefghij", 8); got != "abcde..." {
		t.Errorf("truncate() = %q, want abcde...", got)
	}
}
