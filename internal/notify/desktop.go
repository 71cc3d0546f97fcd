package notify

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/SoarinFerret/TabWarden/internal/ledger"
)

// Desktop raises nudges as freedesktop notifications on the session bus.
type Desktop struct {
	conn *dbus.Conn
}

func NewDesktop() (*Desktop, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &Desktop{conn: conn}, nil
}

func (d *Desktop) Close() error {
	return d.conn.Close()
}

func (d *Desktop) Notify(ctx context.Context, n Nudge) error {
	obj := d.conn.Object("org.freedesktop.Notifications", "/org/freedesktop/Notifications")
	call := obj.CallWithContext(ctx, "org.freedesktop.Notifications.Notify", 0,
		"TabWarden",          // app_name
		uint32(0),            // replaces_id
		"dialog-information", // app_icon
		"Time limit reached", // summary
		nudgeBody(n),         // body
		[]string{},           // actions
		map[string]dbus.Variant{
			"urgency": dbus.MakeVariant(byte(1)),
		},
		int32(10000), // expire_timeout
	)
	if call.Err != nil {
		return fmt.Errorf("failed to send notification: %w", call.Err)
	}
	return nil
}

func nudgeBody(n Nudge) string {
	spent := ledger.FormatSeconds(n.TimeSpent)
	limit := ledger.FormatSeconds(n.Limit)
	if n.Global {
		return fmt.Sprintf("You have browsed for %s today, over your daily limit of %s", spent, limit)
	}
	return fmt.Sprintf("You have spent %s on %s today, over your limit of %s", spent, n.Domain, limit)
}
