// Package debounce collapses bursts of events into a single firing after a
// quiet period, in the shape a Bubble Tea model can own.
package debounce

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Msg is delivered when a debounce timer elapses. Pass it to Fire to learn
// whether it is still the live timer.
type Msg struct {
	ID      int
	Seq     int
	Payload any
}

// TickFunc schedules fn after d. tea.Tick is the default.
type TickFunc func(d time.Duration, fn func(time.Time) tea.Msg) tea.Cmd

// Debouncer owns at most one live timer. Arming it again replaces the
// pending timer; a replaced timer still delivers its Msg but Fire rejects it.
type Debouncer struct {
	id      int
	delay   time.Duration
	seq     int
	pending bool
	tick    TickFunc
}

// Option configures a Debouncer.
type Option func(*Debouncer)

// WithTick overrides the timer source.
func WithTick(tick TickFunc) Option {
	return func(d *Debouncer) { d.tick = tick }
}

// New creates a debouncer. id tells debouncers apart when several share a model.
func New(id int, delay time.Duration, opts ...Option) *Debouncer {
	d := &Debouncer{id: id, delay: delay, tick: tea.Tick}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Trigger arms the timer with payload, replacing any pending one.
func (d *Debouncer) Trigger(payload any) tea.Cmd {
	d.seq++
	d.pending = true
	id, seq := d.id, d.seq
	return d.tick(d.delay, func(time.Time) tea.Msg {
		return Msg{ID: id, Seq: seq, Payload: payload}
	})
}

// Cancel drops the pending timer, if any.
func (d *Debouncer) Cancel() {
	if d.pending {
		d.seq++
		d.pending = false
	}
}

// Fire reports whether msg belongs to this debouncer's live timer and, if so,
// consumes it. Each armed timer fires at most once.
func (d *Debouncer) Fire(msg Msg) bool {
	if msg.ID != d.id || msg.Seq != d.seq || !d.pending {
		return false
	}
	d.pending = false
	return true
}
