package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/bborn/wakeup/internal/alarm"
	"github.com/bborn/wakeup/internal/api"
	"github.com/bborn/wakeup/internal/config"
	"github.com/bborn/wakeup/internal/debounce"
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/log"
)

// FormField represents the currently focused field.
type FormField int

const (
	FieldStart FormField = iota
	FieldEnd
	FieldArrival
	FieldPrep
	FieldSubmit
	fieldCount
)

func (f FormField) isLocation() bool {
	return f == FieldStart || f == FieldEnd
}

func (f FormField) String() string {
	switch f {
	case FieldStart:
		return "start"
	case FieldEnd:
		return "end"
	case FieldArrival:
		return "arrival"
	case FieldPrep:
		return "prep"
	case FieldSubmit:
		return "submit"
	}
	return "unknown"
}

// Backend is the server the form talks to. *api.Client implements it.
type Backend interface {
	Autocomplete(ctx context.Context, query string) ([]api.Suggestion, error)
	Calculate(ctx context.Context, r api.CalcRequest) (*api.CalcResult, error)
}

// inflight is the outstanding suggestion request of one field.
type inflight struct {
	seq    int // 0 when nothing is outstanding
	cancel context.CancelFunc
}

// locationField bundles everything one location input owns.
type locationField struct {
	input    textinput.Model
	list     *SuggestionList
	debounce *debounce.Debouncer
	inflight inflight
}

// dropInflight cancels the outstanding request, if any, and frees the slot
// so a late settlement is ignored.
func (f *locationField) dropInflight() {
	if f.inflight.cancel != nil {
		f.inflight.cancel()
	}
	f.inflight = inflight{}
}

type bannerKind int

const (
	bannerInfo bannerKind = iota
	bannerError
)

const bannerTTL = 6 * time.Second

// Messages
type suggestionsMsg struct {
	field FormField
	seq   int
	items []api.Suggestion
	err   error
}

type calculatedMsg struct {
	result *api.CalcResult
	err    error
}

type alarmFiredMsg struct{}

type permissionAnswer struct {
	ok  bool
	err error
}

type permissionRequestMsg struct {
	reply chan permissionAnswer
}

type wakeDialogMsg struct {
	text string
}

type bannerExpiredMsg struct {
	seq int
}

// Options configures a FormModel.
type Options struct {
	Backend     Backend
	Scheduler   *alarm.Scheduler
	Alarm       []alarm.TriggerOption
	DefaultPrep int
	Keys        *KeyMap
	Logger      *log.Logger
	Now         func() time.Time
	Tick        debounce.TickFunc
	Width       int
	Height      int
}

// FormModel is the smart alarm form.
type FormModel struct {
	backend Backend
	logger  *log.Logger
	keys    KeyMap
	help    help.Model
	now     func() time.Time
	tick    debounce.TickFunc
	ctx     context.Context
	cancel  context.CancelFunc

	width   int
	height  int
	focused FormField

	loc     [2]locationField
	arrival textinput.Model
	prep    textinput.Model
	spinner spinner.Model
	nextSeq int

	calculating bool
	calcCancel  context.CancelFunc
	result      *api.CalcResult

	banner     string
	bannerKind bannerKind
	bannerSeq  int

	scheduler *alarm.Scheduler
	trigger   *alarm.Trigger
	events    chan tea.Msg

	// Notification permission prompt
	permForm  *huh.Form
	permValue bool
	permReply chan permissionAnswer

	wakeDialog string
}

// NewFormModel creates the form. The arrival field defaults to the top of
// the next hour.
func NewFormModel(opts Options) *FormModel {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	keys := DefaultKeyMap()
	if opts.Keys != nil {
		keys = *opts.Keys
	}
	sched := opts.Scheduler
	if sched == nil {
		sched = alarm.NewScheduler()
	}
	width := opts.Width
	if width == 0 {
		width = 80
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &FormModel{
		backend:   opts.Backend,
		logger:    logger,
		keys:      keys,
		help:      help.New(),
		now:       now,
		ctx:       ctx,
		cancel:    cancel,
		width:     width,
		height:    opts.Height,
		scheduler: sched,
		events:    make(chan tea.Msg, 16),
	}

	m.tick = tea.Tick
	if opts.Tick != nil {
		m.tick = opts.Tick
	}
	debounceOpts := []debounce.Option{debounce.WithTick(m.tick)}
	placeholders := [2]string{"Where are you starting from?", "Where are you going?"}
	for i := range m.loc {
		m.loc[i] = locationField{
			input:    newInput(placeholders[i], 0, width),
			list:     NewSuggestionList(width - 24),
			debounce: debounce.New(i, config.AutocompleteDebounce, debounceOpts...),
		}
	}

	m.arrival = newInput("HH:MM", 5, width)
	m.arrival.SetValue(nextHour(now()))
	m.prep = newInput("minutes", 4, width)
	if opts.DefaultPrep > 0 {
		m.prep.SetValue(strconv.Itoa(opts.DefaultPrep))
	}

	m.spinner = spinner.New()
	m.spinner.Spinner = spinner.Dot
	m.spinner.Style = Subtitle

	triggerOpts := append([]alarm.TriggerOption{alarm.WithLogger(logger)}, opts.Alarm...)
	triggerOpts = append(triggerOpts,
		alarm.WithPrompter(m.promptPermission),
		alarm.WithDialog(m.showWakeDialog),
	)
	m.trigger = alarm.NewTrigger(triggerOpts...)

	m.focus(FieldStart)
	return m
}

func newInput(placeholder string, limit, width int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = ""
	ti.CharLimit = limit
	ti.Cursor.SetMode(cursor.CursorStatic)
	ti.Width = width - 24
	return ti
}

// Init initializes the form and asks for notification permission if it
// has not been decided yet.
func (m *FormModel) Init() tea.Cmd {
	trigger, ctx, logger := m.trigger, m.ctx, m.logger
	return tea.Batch(
		m.listen(),
		func() tea.Msg {
			if _, err := trigger.Init(ctx); err != nil {
				logger.Warn("notification permission not decided", "err", err)
			}
			return nil
		},
	)
}

// listen delivers the next message posted from outside the event loop.
func (m *FormModel) listen() tea.Cmd {
	events, ctx := m.events, m.ctx
	return func() tea.Msg {
		select {
		case msg := <-events:
			return msg
		case <-ctx.Done():
			return nil
		}
	}
}

// post hands msg to the event loop from another goroutine.
func (m *FormModel) post(msg tea.Msg) bool {
	select {
	case m.events <- msg:
		return true
	case <-m.ctx.Done():
		return false
	}
}

// Close cancels outstanding requests and disarms the alarm.
func (m *FormModel) Close() {
	m.scheduler.Cancel()
	m.cancel()
}

// Update handles messages.
func (m *FormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.setSize(msg.Width, msg.Height)
		return m, nil

	case debounce.Msg:
		return m, m.handleDebounce(msg)

	case suggestionsMsg:
		return m, m.handleSuggestions(msg)

	case calculatedMsg:
		return m, m.handleCalculated(msg)

	case alarmFiredMsg:
		return m, tea.Batch(m.fireAlarm(), m.listen())

	case permissionRequestMsg:
		return m, tea.Batch(m.openPermissionPrompt(msg.reply), m.listen())

	case wakeDialogMsg:
		m.wakeDialog = msg.text
		return m, m.listen()

	case bannerExpiredMsg:
		if msg.seq == m.bannerSeq {
			m.banner = ""
		}
		return m, nil

	case spinner.TickMsg:
		if !m.calculating {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.permForm != nil {
		return m, m.updatePermission(msg)
	}
	if m.wakeDialog != "" {
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			if key.Matches(keyMsg, m.keys.Quit) {
				m.Close()
				return m, tea.Quit
			}
			switch keyMsg.String() {
			case "enter", "esc", " ":
				m.wakeDialog = ""
			}
		}
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		return m, m.handleMouse(msg)
	}
	return m, m.updateFocusedInput(msg)
}

func (m *FormModel) setSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width
	for i := range m.loc {
		m.loc[i].input.Width = width - 24
		m.loc[i].list.SetWidth(width - 24)
	}
	m.arrival.Width = width - 24
	m.prep.Width = width - 24
}

func (m *FormModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.Close()
		return m, tea.Quit
	}

	if m.focused.isLocation() {
		if handled, cmd := m.handleListKey(msg); handled {
			return m, cmd
		}
	}

	switch {
	case key.Matches(msg, m.keys.Next):
		return m, m.focus((m.focused + 1) % fieldCount)
	case key.Matches(msg, m.keys.Prev):
		return m, m.focus((m.focused + fieldCount - 1) % fieldCount)
	case key.Matches(msg, m.keys.Submit):
		return m, m.submit()
	}

	return m, m.updateFocusedInput(msg)
}

// handleListKey drives the focused field's suggestion list. Keys it does
// not consume fall through to the form.
func (m *FormModel) handleListKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	field := m.focused
	list := m.loc[field].list

	switch {
	case key.Matches(msg, m.keys.Down):
		if !list.HasItems() {
			return false, nil
		}
		list.MoveDown()
		return true, nil
	case key.Matches(msg, m.keys.Up):
		if !list.HasItems() {
			return false, nil
		}
		list.MoveUp()
		return true, nil
	case key.Matches(msg, m.keys.Select):
		if !list.HasItems() || list.Active() < 0 {
			return false, nil
		}
		return true, m.selectSuggestion(field, list.Active())
	case key.Matches(msg, m.keys.Dismiss):
		if !list.Visible() {
			return false, nil
		}
		list.Hide()
		return true, nil
	}
	return false, nil
}

// updateFocusedInput forwards msg to the focused text input and arms the
// debouncer when a location value changed.
func (m *FormModel) updateFocusedInput(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.focused {
	case FieldStart, FieldEnd:
		loc := &m.loc[m.focused]
		before := loc.input.Value()
		loc.input, cmd = loc.input.Update(msg)
		if after := loc.input.Value(); after != before {
			return tea.Batch(cmd, loc.debounce.Trigger(after))
		}
	case FieldArrival:
		m.arrival, cmd = m.arrival.Update(msg)
	case FieldPrep:
		m.prep, cmd = m.prep.Update(msg)
	}
	return cmd
}

func (m *FormModel) focus(field FormField) tea.Cmd {
	m.focused = field
	for i := range m.loc {
		m.loc[i].input.Blur()
	}
	m.arrival.Blur()
	m.prep.Blur()

	switch field {
	case FieldStart, FieldEnd:
		return m.loc[field].input.Focus()
	case FieldArrival:
		return m.arrival.Focus()
	case FieldPrep:
		return m.prep.Focus()
	}
	return nil
}

// handleDebounce runs the suggestion fetch once a field's input settles.
func (m *FormModel) handleDebounce(msg debounce.Msg) tea.Cmd {
	if msg.ID < 0 || msg.ID >= len(m.loc) {
		return nil
	}
	if !m.loc[msg.ID].debounce.Fire(msg) {
		return nil
	}
	query, _ := msg.Payload.(string)
	return m.fetchSuggestions(FormField(msg.ID), query)
}

// fetchSuggestions cancels the field's outstanding request and issues a new
// one. Queries shorter than two bytes drop the outstanding request and hide
// the list.
func (m *FormModel) fetchSuggestions(field FormField, query string) tea.Cmd {
	loc := &m.loc[field]
	loc.dropInflight()
	if len(query) < 2 {
		loc.list.Hide()
		return nil
	}

	ctx, cancel := context.WithCancel(m.ctx)
	m.nextSeq++
	seq := m.nextSeq
	loc.inflight = inflight{seq: seq, cancel: cancel}
	loc.list.ShowLoading()

	m.logger.Debug("fetching suggestions", "field", field, "query", query, "seq", seq)
	backend := m.backend
	return func() tea.Msg {
		items, err := backend.Autocomplete(ctx, query)
		return suggestionsMsg{field: field, seq: seq, items: items, err: err}
	}
}

// handleSuggestions applies a settled request. Only the field's current
// request may touch the UI or clear the slot.
func (m *FormModel) handleSuggestions(msg suggestionsMsg) tea.Cmd {
	loc := &m.loc[msg.field]
	if loc.inflight.cancel == nil || msg.seq != loc.inflight.seq {
		return nil
	}
	loc.dropInflight()

	switch {
	case errors.Is(msg.err, api.ErrCanceled) || errors.Is(msg.err, context.Canceled):
		return nil
	case msg.err != nil:
		m.logger.Error("autocomplete failed", "field", msg.field, "err", msg.err)
		loc.list.Hide()
		return m.showBanner(msgSuggestionFailed, bannerError)
	}
	loc.list.SetItems(msg.items)
	return nil
}

// selectSuggestion writes the item's full name into the input, hides the
// list and focuses that input.
func (m *FormModel) selectSuggestion(field FormField, i int) tea.Cmd {
	loc := &m.loc[field]
	item, ok := loc.list.Item(i)
	if !ok {
		return nil
	}
	loc.input.SetValue(item.FullName)
	loc.input.CursorEnd()
	loc.debounce.Cancel()
	loc.dropInflight()
	loc.list.Hide()
	return m.focus(field)
}

func (m *FormModel) hideLists() {
	for i := range m.loc {
		m.loc[i].list.Hide()
	}
}

// Form returns the current field values.
func (m *FormModel) Form() Form {
	return Form{
		Start:        m.loc[FieldStart].input.Value(),
		End:          m.loc[FieldEnd].input.Value(),
		ArrivalTime:  m.arrival.Value(),
		GettingReady: m.prep.Value(),
	}
}

// submit validates the form and starts the calculation.
func (m *FormModel) submit() tea.Cmd {
	if m.calculating {
		return nil
	}
	f := m.Form()
	if err := Validate(f); err != nil {
		return m.showBanner(err.Error(), bannerError)
	}

	m.calculating = true
	m.result = nil
	m.banner = ""
	m.hideLists()

	ctx, cancel := context.WithCancel(m.ctx)
	m.calcCancel = cancel
	req := api.CalcRequest{
		Start:        f.Start,
		End:          f.End,
		ArrivalTime:  f.ArrivalTime,
		GettingReady: f.GettingReady,
	}
	m.logger.Info("calculating alarm", "start", req.Start, "end", req.End, "arrival", req.ArrivalTime)

	backend := m.backend
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		res, err := backend.Calculate(ctx, req)
		return calculatedMsg{result: res, err: err}
	})
}

func (m *FormModel) handleCalculated(msg calculatedMsg) tea.Cmd {
	m.calculating = false
	if m.calcCancel != nil {
		m.calcCancel()
		m.calcCancel = nil
	}

	var business *api.BusinessError
	switch {
	case msg.err == nil:
		m.result = msg.result
		return m.scheduleAlarm(msg.result.AlarmTime)
	case errors.As(msg.err, &business):
		m.logger.Info("calculation rejected", "reason", business.Message)
		return m.showBanner(business.Message, bannerError)
	case errors.Is(msg.err, api.ErrTimeout):
		m.logger.Warn("calculation timed out", "err", msg.err)
		return m.showBanner(msgTimeout, bannerError)
	case errors.Is(msg.err, api.ErrCanceled):
		return nil
	default:
		m.logger.Error("calculation failed", "err", msg.err)
		return m.showBanner(msgCalculateFailed, bannerError)
	}
}

// scheduleAlarm arms the wake-up for hhmm, replacing any earlier alarm.
func (m *FormModel) scheduleAlarm(hhmm string) tea.Cmd {
	sc, ok, err := m.scheduler.Schedule(hhmm, func() {
		m.post(alarmFiredMsg{})
	})
	if err != nil {
		m.logger.Error("cannot schedule alarm", "alarm_time", hhmm, "err", err)
		return m.showBanner(fmt.Sprintf(msgAlarmNotSet, hhmm), bannerError)
	}
	if !ok {
		m.logger.Warn("alarm not armed", "alarm_time", hhmm)
		return m.showBanner(fmt.Sprintf(msgAlarmNotSet, hhmm), bannerError)
	}
	m.logger.Info("alarm armed", "id", sc.ID, "at", sc.At, "delay", sc.Delay)
	return nil
}

func (m *FormModel) fireAlarm() tea.Cmd {
	trigger, ctx := m.trigger, m.ctx
	return func() tea.Msg {
		trigger.Fire(ctx)
		return nil
	}
}

func (m *FormModel) showBanner(text string, kind bannerKind) tea.Cmd {
	m.banner = text
	m.bannerKind = kind
	m.bannerSeq++
	seq := m.bannerSeq
	return m.tick(bannerTTL, func(time.Time) tea.Msg {
		return bannerExpiredMsg{seq: seq}
	})
}

// promptPermission asks the user through the event loop. It blocks the
// calling goroutine until answered.
func (m *FormModel) promptPermission(ctx context.Context) (bool, error) {
	reply := make(chan permissionAnswer, 1)
	select {
	case m.events <- permissionRequestMsg{reply: reply}:
	case <-ctx.Done():
		return false, ctx.Err()
	}
	select {
	case a := <-reply:
		return a.ok, a.err
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (m *FormModel) showWakeDialog(text string) {
	m.post(wakeDialogMsg{text: text})
}

// Scheduled returns the armed alarm, if any.
func (m *FormModel) Scheduled() (alarm.Scheduled, bool) {
	return m.scheduler.Pending()
}

// Result returns the last successful calculation.
func (m *FormModel) Result() *api.CalcResult {
	return m.result
}

// Banner returns the message currently shown above the form.
func (m *FormModel) Banner() string {
	return m.banner
}

func (m *FormModel) bannerText() string {
	if m.banner == "" {
		return ""
	}
	if m.bannerKind == bannerError {
		return Error.Render(fmt.Sprintf("%s %s", Icon("✗", "x"), m.banner))
	}
	return Warning.Render(m.banner)
}

// submitLabel is the text of the submit control.
func (m *FormModel) submitLabel() string {
	if m.calculating {
		return "Calculating..."
	}
	return "Calculate alarm"
}
