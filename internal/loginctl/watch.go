package loginctl

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/godbus/dbus/v5"
)

// Listener is told when the user can no longer be at the browser and when
// they may be back.
type Listener interface {
	OnIdle()
	OnFocusChanged(ctx context.Context)
}

// Watch follows logind on the system bus. Suspend and a locked session stop
// accounting at once; resume and unlock make the listener re-read focus.
func Watch(ctx context.Context, l Listener) error {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return fmt.Errorf("failed to connect to system bus: %w", err)
	}
	defer conn.Close()

	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath("/org/freedesktop/login1"),
		dbus.WithMatchInterface("org.freedesktop.login1.Manager"),
		dbus.WithMatchMember("PrepareForSleep"),
	); err != nil {
		return fmt.Errorf("add match failed: %w", err)
	}

	// watch for property changes (session locked)
	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface("org.freedesktop.DBus.Properties"),
		dbus.WithMatchMember("PropertiesChanged"),
	); err != nil {
		return fmt.Errorf("add match for PropertiesChanged failed: %w", err)
	}

	uid := uint32(os.Getuid())
	owned := func(sessionPath dbus.ObjectPath) bool {
		owner, err := getSessionUID(conn, sessionPath)
		if err != nil {
			log.Println("LockedHint: failed to get session owner:", err)
			return false
		}
		return owner == uid
	}

	c := make(chan *dbus.Signal, 10)
	conn.Signal(c)

	for {
		select {
		case sig := <-c:
			handleSignal(ctx, sig, l, owned)
		case <-ctx.Done():
			return nil
		}
	}
}

func handleSignal(ctx context.Context, sig *dbus.Signal, l Listener, owned func(dbus.ObjectPath) bool) {
	if sig == nil {
		return
	}
	switch sig.Name {
	case "org.freedesktop.login1.Manager.PrepareForSleep":
		if len(sig.Body) > 0 {
			sleeping, _ := sig.Body[0].(bool)
			if sleeping {
				log.Println("System is going to sleep")
				l.OnIdle()
			} else {
				log.Println("System has woken up")
				l.OnFocusChanged(ctx)
			}
		}

	case "org.freedesktop.DBus.Properties.PropertiesChanged":
		if len(sig.Body) < 3 {
			return
		}
		iface, ok := sig.Body[0].(string)
		if !ok || iface != "org.freedesktop.login1.Session" {
			return
		}
		changedProps, ok := sig.Body[1].(map[string]dbus.Variant)
		if !ok {
			return
		}
		val, exists := changedProps["LockedHint"]
		if !exists || !owned(sig.Path) {
			return
		}
		if locked, _ := val.Value().(bool); locked {
			log.Println("Session locked", sig.Path)
			l.OnIdle()
		} else {
			log.Println("Session unlocked", sig.Path)
			l.OnFocusChanged(ctx)
		}
	}
}

func getSessionUID(conn *dbus.Conn, sessionPath dbus.ObjectPath) (uint32, error) {
	sessionObj := conn.Object("org.freedesktop.login1", sessionPath)

	var userInfo []interface{}
	err := sessionObj.Call("org.freedesktop.DBus.Properties.Get", 0,
		"org.freedesktop.login1.Session", "User").Store(&userInfo)
	if err != nil || len(userInfo) < 2 {
		return 0, fmt.Errorf("failed to get user info: %w", err)
	}
	uid, ok := userInfo[0].(uint32)
	if !ok {
		return 0, fmt.Errorf("unexpected type for session user id")
	}
	return uid, nil
}
