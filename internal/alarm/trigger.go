package alarm

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
)

// Fixed alarm texts.
const (
	NotificationTitle = "Smart Alarm"
	NotificationBody  = "Time to wake up! Your journey awaits."
	WakeMessage       = "⏰ Wake up! It's time to get ready!"
)

// Sound plays the audible cue.
type Sound interface {
	Play(ctx context.Context) error
}

// Notifier raises a desktop notification.
type Notifier interface {
	Notify(ctx context.Context, title, body string) error
}

// Prompter asks the user whether notifications are allowed.
type Prompter func(ctx context.Context) (bool, error)

// Dialog shows message in a way the user has to acknowledge.
type Dialog func(message string)

// Trigger performs the wake-up: sound, notification and, when either
// backend fails, the dialog fallback.
type Trigger struct {
	sound    Sound
	notifier Notifier
	perms    PermissionStore
	prompt   Prompter
	dialog   Dialog
	logger   *log.Logger
}

// TriggerOption configures a Trigger.
type TriggerOption func(*Trigger)

// WithSound sets the audible cue.
func WithSound(s Sound) TriggerOption {
	return func(t *Trigger) { t.sound = s }
}

// WithNotifier sets the notification backend.
func WithNotifier(n Notifier) TriggerOption {
	return func(t *Trigger) { t.notifier = n }
}

// WithPermissions sets where the notification permission is kept.
func WithPermissions(p PermissionStore) TriggerOption {
	return func(t *Trigger) { t.perms = p }
}

// WithPrompter sets how an undecided permission is requested.
func WithPrompter(p Prompter) TriggerOption {
	return func(t *Trigger) { t.prompt = p }
}

// WithDialog sets the fallback dialog.
func WithDialog(d Dialog) TriggerOption {
	return func(t *Trigger) { t.dialog = d }
}

// WithLogger sets the trigger's logger.
func WithLogger(l *log.Logger) TriggerOption {
	return func(t *Trigger) { t.logger = l }
}

// NewTrigger builds a trigger. Unset backends are silent no-ops and the
// permission defaults to an in-memory store.
func NewTrigger(opts ...TriggerOption) *Trigger {
	t := &Trigger{
		sound:    Silent{},
		notifier: nopNotifier{},
		perms:    &MemoryPermissions{},
		dialog:   func(string) {},
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Init resolves an undecided permission by asking the user once. It is a
// no-op when the answer is already stored or no prompter is set.
func (t *Trigger) Init(ctx context.Context) (Permission, error) {
	perm, err := t.perms.Permission()
	if err != nil {
		return PermissionDefault, err
	}
	if perm != PermissionDefault || t.prompt == nil {
		return perm, nil
	}
	return t.request(ctx)
}

func (t *Trigger) request(ctx context.Context) (Permission, error) {
	ok, err := t.prompt(ctx)
	if err != nil {
		return PermissionDefault, err
	}
	perm := PermissionDenied
	if ok {
		perm = PermissionGranted
	}
	if err := t.perms.SetPermission(perm); err != nil {
		t.logger.Warn("could not store notification permission", "err", err)
	}
	return perm, nil
}

// Fire plays the sound and raises the notification. Failures are logged
// and shown through the dialog; nothing is returned.
func (t *Trigger) Fire(ctx context.Context) {
	t.logger.Info("alarm firing")
	failed := false

	if err := t.sound.Play(ctx); err != nil {
		t.logger.Error("sound failed", "err", err)
		failed = true
	}

	perm, err := t.perms.Permission()
	if err != nil {
		t.logger.Warn("permission lookup failed", "err", err)
	}
	if perm == PermissionDefault && t.prompt != nil {
		perm, err = t.request(ctx)
		if err != nil {
			t.logger.Warn("permission request failed", "err", err)
		}
	}
	if perm == PermissionGranted {
		if err := t.notifier.Notify(ctx, NotificationTitle, NotificationBody); err != nil {
			t.logger.Error("notification failed", "err", err)
			failed = true
		}
	}

	if failed {
		t.dialog(WakeMessage)
	}
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, string, string) error { return nil }
