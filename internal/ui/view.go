package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/bborn/wakeup/internal/api"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Lines above the form box: title and banner.
const headerLines = 2

// Offset of box content from the box's top-left corner (border + padding).
const (
	boxContentY = 2
	boxContentX = 3
)

type blockKind int

const (
	blockInput blockKind = iota
	blockList
	blockGap
	blockSubmit
)

// block is one row group inside the form box. View renders blocks in order
// and the mouse handler walks the same sequence to find what was hit.
type block struct {
	kind   blockKind
	field  FormField
	height int
}

func (m *FormModel) blocks() []block {
	var bs []block
	for _, f := range []FormField{FieldStart, FieldEnd} {
		bs = append(bs, block{kind: blockInput, field: f, height: 1})
		if v := m.loc[f].list.View(); v != "" {
			bs = append(bs, block{kind: blockList, field: f, height: lipgloss.Height(v)})
		}
		bs = append(bs, block{kind: blockGap, height: 1})
	}
	bs = append(bs,
		block{kind: blockInput, field: FieldArrival, height: 1},
		block{kind: blockGap, height: 1},
		block{kind: blockInput, field: FieldPrep, height: 1},
		block{kind: blockGap, height: 1},
		block{kind: blockSubmit, field: FieldSubmit, height: 1},
	)
	return bs
}

// View renders the form.
func (m *FormModel) View() string {
	if m.permForm != nil {
		return m.viewPermission()
	}
	if m.wakeDialog != "" {
		return m.viewWakeDialog()
	}

	var b strings.Builder
	b.WriteString(Title.Render(fmt.Sprintf("%s Smart Alarm", IconAlarm())))
	b.WriteString("\n")
	b.WriteString(m.bannerText())
	b.WriteString("\n")

	var rows []string
	for _, bl := range m.blocks() {
		switch bl.kind {
		case blockInput:
			rows = append(rows, m.renderInput(bl.field))
		case blockList:
			rows = append(rows, lipgloss.NewStyle().MarginLeft(Label.GetWidth()).Render(m.loc[bl.field].list.View()))
		case blockGap:
			rows = append(rows, "")
		case blockSubmit:
			rows = append(rows, m.renderSubmit())
		}
	}
	b.WriteString(FormBox.Render(strings.Join(rows, "\n")))
	b.WriteString("\n")

	if m.result != nil {
		b.WriteString(m.renderResult(m.result))
		b.WriteString("\n")
	}

	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *FormModel) renderInput(field FormField) string {
	var label, value string
	switch field {
	case FieldStart:
		label, value = "Start", m.loc[FieldStart].input.View()
	case FieldEnd:
		label, value = "Destination", m.loc[FieldEnd].input.View()
	case FieldArrival:
		label, value = "Arrive by", m.arrival.View()
	case FieldPrep:
		label, value = "Getting ready", m.prep.View()
	}

	marker := "  "
	style := Label
	if m.focused == field {
		marker = IconCursor() + " "
		style = style.Bold(true).Foreground(ColorPrimary)
	}
	if field == FieldPrep {
		value += Dim.Render(" min")
	}
	return style.Render(marker+label) + value
}

func (m *FormModel) renderSubmit() string {
	label := m.submitLabel()
	pad := strings.Repeat(" ", Label.GetWidth())
	switch {
	case m.calculating:
		return pad + ButtonDisabled.Render(label) + " " + m.spinner.View()
	case m.focused == FieldSubmit:
		return pad + ButtonFocused.Render(label)
	default:
		return pad + Button.Render(label)
	}
}

func (m *FormModel) renderResult(r *api.CalcResult) string {
	row := func(label, value string) string {
		return Label.Render(label) + value
	}

	margin := fmt.Sprintf("%d min", r.Margin)
	if r.Weather != "" {
		margin += Dim.Render(fmt.Sprintf(" (%s)", r.Weather))
	}

	lines := []string{
		row("Arrival", r.ArrivalTime),
		row("Getting ready", fmt.Sprintf("%d min", r.GettingReady)),
		row("Travel", fmt.Sprintf("%d min", r.ETA)),
		row("Safety margin", margin),
	}
	if r.CurrentAlarm != "" {
		lines = append(lines, row("Previous alarm", fmt.Sprintf("%s %s %s", r.CurrentAlarm, IconArrow(), r.AlarmTime)))
	}
	lines = append(lines, "", row("Wake up at", AlarmTime.Render(r.AlarmTime)))

	if sc, ok := m.Scheduled(); ok {
		now := m.now()
		lines = append(lines, Success.Render(fmt.Sprintf("Alarm set for %s %s (%s)",
			formatAlarmDay(sc.At, now), sc.At.Format("15:04"), formatCountdownWithNow(sc.At, now))))
	}
	return ResultBox.Render(strings.Join(lines, "\n"))
}

// handleMouse maps pointer events onto the form. Motion over an item
// highlights it, a release on an item selects it, a click on an input
// focuses it and a click outside both location containers hides both
// lists.
func (m *FormModel) handleMouse(msg tea.MouseMsg) tea.Cmd {
	bl, line, ok := m.hitTest(msg.X, msg.Y)

	if msg.Action == tea.MouseActionMotion {
		if ok && bl.kind == blockList {
			list := m.loc[bl.field].list
			if i := list.ItemAt(line); i >= 0 {
				list.SetActive(i)
			}
		}
		return nil
	}
	// X10 terminals report releases without a button.
	release := msg.Action == tea.MouseActionRelease && msg.Button == tea.MouseButtonNone
	if msg.Button != tea.MouseButtonLeft && !release {
		return nil
	}

	switch msg.Action {
	case tea.MouseActionPress:
		if !ok || !bl.field.isLocation() {
			m.hideLists()
		}
		if !ok {
			return nil
		}
		switch bl.kind {
		case blockInput:
			return m.focus(bl.field)
		case blockSubmit:
			m.focus(FieldSubmit)
			return m.submit()
		}
	case tea.MouseActionRelease:
		if ok && bl.kind == blockList {
			if i := m.loc[bl.field].list.ItemAt(line); i >= 0 {
				return m.selectSuggestion(bl.field, i)
			}
		}
	}
	return nil
}

// hitTest finds the block under (x, y) and the line within it.
func (m *FormModel) hitTest(x, y int) (block, int, bool) {
	if x < boxContentX {
		return block{}, 0, false
	}
	row := y - headerLines - boxContentY
	if row < 0 {
		return block{}, 0, false
	}
	for _, bl := range m.blocks() {
		if row < bl.height {
			if bl.kind == blockGap {
				return block{}, 0, false
			}
			return bl, row, true
		}
		row -= bl.height
	}
	return block{}, 0, false
}

// AlarmStatus summarizes the armed alarm in one line.
func (m *FormModel) AlarmStatus(now time.Time) string {
	sc, ok := m.Scheduled()
	if !ok {
		return "no alarm"
	}
	return fmt.Sprintf("alarm %s %s", formatAlarmDay(sc.At, now), sc.At.Format("15:04"))
}
