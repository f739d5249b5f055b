package ui

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

var errPromptBusy = errors.New("permission prompt already open")

// openPermissionPrompt shows the notification permission confirm. The
// answer is sent on reply once the form completes or is dismissed.
func (m *FormModel) openPermissionPrompt(reply chan permissionAnswer) tea.Cmd {
	if m.permForm != nil {
		reply <- permissionAnswer{err: errPromptBusy}
		return nil
	}
	m.permReply = reply
	m.permValue = true
	m.permForm = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Key("notify").
				Title("Allow desktop notifications?").
				Description("Used to wake you when the alarm goes off.").
				Affirmative("Allow").
				Negative("Block").
				Value(&m.permValue),
		),
	).WithTheme(huh.ThemeDracula()).
		WithWidth(m.modalWidth() - 6).
		WithShowHelp(true)
	return m.permForm.Init()
}

func (m *FormModel) updatePermission(msg tea.Msg) tea.Cmd {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.String() == "esc" {
			m.answerPermission(permissionAnswer{err: errors.New("permission prompt dismissed")})
			return nil
		}
	}

	form, cmd := m.permForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.permForm = f
	}

	switch m.permForm.State {
	case huh.StateCompleted:
		m.answerPermission(permissionAnswer{ok: m.permValue})
		return nil
	case huh.StateAborted:
		m.answerPermission(permissionAnswer{err: errors.New("permission prompt aborted")})
		return nil
	}
	return cmd
}

// answerPermission closes the prompt. Dismissing leaves the decision open.
func (m *FormModel) answerPermission(a permissionAnswer) {
	if m.permReply != nil {
		m.permReply <- a
	}
	m.permReply = nil
	m.permForm = nil
}

func (m *FormModel) modalWidth() int {
	return min(56, m.width-8)
}

func (m *FormModel) viewPermission() string {
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorPrimary).
		MarginBottom(1).
		Render(fmt.Sprintf("%s Notifications", IconAlarm()))

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorPrimary).
		Padding(1, 2).
		Width(m.modalWidth()).
		Render(lipgloss.JoinVertical(lipgloss.Center, header, m.permForm.View()))

	return m.center(modal)
}

func (m *FormModel) viewWakeDialog() string {
	body := lipgloss.JoinVertical(lipgloss.Center,
		Bold.Foreground(ColorWarning).Render(sanitize(m.wakeDialog)),
		"",
		Dim.Render("press enter to dismiss"),
	)
	return m.center(DialogBox.Render(body))
}

func (m *FormModel) center(s string) string {
	if m.height == 0 {
		return s
	}
	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(s)
}
