package ui

import (
	"github.com/bborn/wakeup/internal/config"
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines key bindings.
type KeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Select  key.Binding
	Dismiss key.Binding
	Next    key.Binding
	Prev    key.Binding
	Submit  key.Binding
	Quit    key.Binding
}

// ShortHelp returns key bindings to show in the mini help.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Down, k.Up, k.Select, k.Dismiss, k.Next, k.Submit, k.Quit}
}

// FullHelp returns keybindings for the expanded help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Dismiss},
		{k.Next, k.Prev, k.Submit, k.Quit},
	}
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "prev suggestion"),
		),
		Down: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "next suggestion"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "pick"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "hide list"),
		),
		Next: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next field"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "prev field"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter", "ctrl+s"),
			key.WithHelp("enter", "calculate"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

// ApplyKeybindingsConfig adds the configured keys to the defaults. Built-in
// keys are kept so the arrows, enter and esc always work.
func ApplyKeybindingsConfig(km KeyMap, cfg *config.KeybindingsConfig) KeyMap {
	if cfg == nil {
		return km
	}
	apply := func(b *key.Binding, c *config.KeybindingConfig) {
		if c == nil || len(c.Keys) == 0 {
			return
		}
		keys := append(append([]string{}, b.Keys()...), c.Keys...)
		b.SetKeys(keys...)
		if c.Help != "" {
			b.SetHelp(b.Help().Key, c.Help)
		}
	}
	apply(&km.Up, cfg.Up)
	apply(&km.Down, cfg.Down)
	apply(&km.Select, cfg.Select)
	apply(&km.Dismiss, cfg.Dismiss)
	apply(&km.Next, cfg.Next)
	apply(&km.Prev, cfg.Prev)
	apply(&km.Submit, cfg.Submit)
	apply(&km.Quit, cfg.Quit)
	return km
}
