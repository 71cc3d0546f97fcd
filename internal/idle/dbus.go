package idle

import (
	"context"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"
)

// DBus reads the session idle time from the desktop's idle monitor on the
// session bus: GNOME's Mutter IdleMonitor first, then the freedesktop
// ScreenSaver interface implemented by KDE and others.
type DBus struct {
	conn *dbus.Conn
}

func NewDBus() (*DBus, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &DBus{conn: conn}, nil
}

func (d *DBus) Close() error {
	return d.conn.Close()
}

func (d *DBus) QueryState(ctx context.Context, threshold time.Duration) (State, error) {
	locked, err := d.screenLocked(ctx)
	if err == nil && locked {
		return Locked, nil
	}

	idleFor, err := d.idleTime(ctx)
	if err != nil {
		return Active, err
	}
	return FromIdleTime(idleFor, threshold), nil
}

func (d *DBus) idleTime(ctx context.Context) (time.Duration, error) {
	var ms uint64
	mutter := d.conn.Object("org.gnome.Mutter.IdleMonitor", "/org/gnome/Mutter/IdleMonitor/Core")
	err := mutter.CallWithContext(ctx, "org.gnome.Mutter.IdleMonitor.GetIdletime", 0).Store(&ms)
	if err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}

	var ms32 uint32
	saver := d.conn.Object("org.freedesktop.ScreenSaver", "/org/freedesktop/ScreenSaver")
	if err2 := saver.CallWithContext(ctx, "org.freedesktop.ScreenSaver.GetSessionIdleTime", 0).Store(&ms32); err2 != nil {
		return 0, fmt.Errorf("no idle monitor available: mutter: %v, screensaver: %w", err, err2)
	}
	return time.Duration(ms32) * time.Millisecond, nil
}

func (d *DBus) screenLocked(ctx context.Context) (bool, error) {
	var active bool
	saver := d.conn.Object("org.freedesktop.ScreenSaver", "/org/freedesktop/ScreenSaver")
	if err := saver.CallWithContext(ctx, "org.freedesktop.ScreenSaver.GetActive", 0).Store(&active); err != nil {
		return false, err
	}
	return active, nil
}
