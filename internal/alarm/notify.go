package alarm

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	notifyDest  = "org.freedesktop.Notifications"
	notifyPath  = dbus.ObjectPath("/org/freedesktop/Notifications")
	notifyCall  = notifyDest + ".Notify"
	urgencyCrit = byte(2)
)

// DBusNotifier raises freedesktop desktop notifications over the session bus.
type DBusNotifier struct {
	AppName string
}

// Notify sends one critical-urgency notification. It fails when there is no
// session bus or no notification daemon.
func (n DBusNotifier) Notify(ctx context.Context, title, body string) error {
	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("connect session bus: %w", err)
	}

	app := n.AppName
	if app == "" {
		app = "wakeup"
	}
	hints := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(urgencyCrit),
	}

	obj := conn.Object(notifyDest, notifyPath)
	call := obj.CallWithContext(ctx, notifyCall, 0,
		app,        // app_name
		uint32(0),  // replaces_id
		"",         // app_icon
		title,      // summary
		body,       // body
		[]string{}, // actions
		hints,
		int32(-1), // expire_timeout
	)
	if call.Err != nil {
		return fmt.Errorf("notify: %w", call.Err)
	}
	var id uint32
	if err := call.Store(&id); err != nil {
		return fmt.Errorf("notify reply: %w", err)
	}
	return nil
}
