// Package ui provides the terminal user interface.
package ui

import (
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// unicodeSupported caches whether the terminal supports Unicode.
// Initialized once on first call to SupportsUnicode().
var (
	unicodeSupported     bool
	unicodeSupportedOnce sync.Once
)

// SupportsUnicode returns true if the terminal likely supports Unicode characters.
// It checks LANG, LC_ALL, and LC_CTYPE environment variables for UTF-8 indicators.
func SupportsUnicode() bool {
	unicodeSupportedOnce.Do(func() {
		for _, envVar := range []string{"LC_ALL", "LC_CTYPE", "LANG"} {
			val := strings.ToLower(os.Getenv(envVar))
			if strings.Contains(val, "utf-8") || strings.Contains(val, "utf8") {
				unicodeSupported = true
				return
			}
		}
		unicodeSupported = false
	})
	return unicodeSupported
}

// Icon returns the appropriate icon based on terminal Unicode support.
func Icon(unicodeIcon, asciiIcon string) string {
	if SupportsUnicode() {
		return unicodeIcon
	}
	return asciiIcon
}

// IconAlarm is shown in the title and the wake-up dialog.
func IconAlarm() string { return Icon("⏰", "(!)") }

// IconCursor marks the focused field.
func IconCursor() string { return Icon("▸", ">") }

// IconArrow separates the previous and new alarm times.
func IconArrow() string { return Icon("→", "->") }

// Colors
var (
	ColorPrimary   = lipgloss.Color("#61AFEF") // Soft blue (OneDark default)
	ColorSecondary = lipgloss.Color("#56B6C2") // Cyan
	ColorSuccess   = lipgloss.Color("#98C379") // Green
	ColorWarning   = lipgloss.Color("#E5C07B") // Yellow
	ColorError     = lipgloss.Color("#E06C75") // Red
	ColorMuted     = lipgloss.Color("#5C6370") // Gray
	ColorText      = lipgloss.Color("252")
	ColorDropdown  = lipgloss.Color("236")
)

// Base styles
var (
	Bold     = lipgloss.NewStyle().Bold(true)
	Dim      = lipgloss.NewStyle().Foreground(ColorMuted)
	Title    = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	Subtitle = lipgloss.NewStyle().Foreground(ColorSecondary)
	Success  = lipgloss.NewStyle().Foreground(ColorSuccess)
	Warning  = lipgloss.NewStyle().Foreground(ColorWarning)
	Error    = lipgloss.NewStyle().Foreground(ColorError)

	// Form box
	FormBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorPrimary).
		Padding(1, 2)

	// Modal dialogs
	DialogBox = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(ColorWarning).
			Padding(1, 3)

	Label = lipgloss.NewStyle().
		Width(16).
		Foreground(ColorSecondary)

	// Submit button
	Button = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#282C34")).
		Background(ColorPrimary).
		Bold(true).
		Padding(0, 2)

	ButtonFocused = Button.
			Background(ColorSuccess)

	ButtonDisabled = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Background(lipgloss.Color("238")).
			Padding(0, 2)

	// Results panel
	ResultBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorSuccess).
			Padding(0, 1)

	AlarmTime = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSuccess)

	// Help bar
	HelpKey = lipgloss.NewStyle().
		Foreground(ColorSecondary).
		Bold(true)

	HelpDesc = lipgloss.NewStyle().
			Foreground(ColorMuted)
)
