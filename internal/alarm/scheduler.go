package alarm

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Scheduled describes an armed alarm.
type Scheduled struct {
	ID    string
	At    time.Time
	Delay time.Duration
}

// Stopper is the part of *time.Timer the scheduler needs.
type Stopper interface {
	Stop() bool
}

// Scheduler holds at most one pending alarm. Arming a new alarm replaces
// the previous one.
type Scheduler struct {
	mu        sync.Mutex
	timer     Stopper
	pending   *Scheduled
	now       func() time.Time
	afterFunc func(time.Duration, func()) Stopper
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithClock overrides the time source.
func WithClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) { s.now = now }
}

// WithAfterFunc overrides the timer factory.
func WithAfterFunc(fn func(time.Duration, func()) Stopper) SchedulerOption {
	return func(s *Scheduler) { s.afterFunc = fn }
}

// NewScheduler creates a scheduler backed by time.AfterFunc.
func NewScheduler(opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		now: time.Now,
		afterFunc: func(d time.Duration, f func()) Stopper {
			return time.AfterFunc(d, f)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule arms fire for the next occurrence of hhmm. It reports false,
// leaving any current alarm in place, when the delay is not strictly
// between zero and 24 hours. A malformed hhmm returns an error.
func (s *Scheduler) Schedule(hhmm string, fire func()) (Scheduled, bool, error) {
	tod, err := ParseTimeOfDay(hhmm)
	if err != nil {
		return Scheduled{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	at := Next(now, tod)
	delay := at.Sub(now)
	if delay <= 0 || delay >= 24*time.Hour {
		return Scheduled{}, false, nil
	}

	s.stopLocked()
	sc := &Scheduled{ID: uuid.New().String(), At: at, Delay: delay}
	s.pending = sc
	id := sc.ID
	s.timer = s.afterFunc(delay, func() {
		s.mu.Lock()
		live := s.pending != nil && s.pending.ID == id
		if live {
			s.pending = nil
			s.timer = nil
		}
		s.mu.Unlock()
		if live {
			fire()
		}
	})
	return *sc, true, nil
}

// Pending returns the armed alarm, if any.
func (s *Scheduler) Pending() (Scheduled, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return Scheduled{}, false
	}
	return *s.pending, true
}

// Cancel disarms the pending alarm.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Scheduler) stopLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pending = nil
}
