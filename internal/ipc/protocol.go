package ipc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/godbus/dbus/v5"

	"github.com/SoarinFerret/TabWarden/internal/control"
	"github.com/SoarinFerret/TabWarden/internal/export"
	"github.com/SoarinFerret/TabWarden/internal/ledger"
)

const (
	ObjectPath    = "/io/github/soarinferret/tabwarden"
	InterfaceName = "io.github.soarinferret.tabwarden.Control"
	ServiceName   = "io.github.soarinferret.tabwarden"
)

// StatusFunc reports live daemon state for GetStatus.
type StatusFunc func() any

// ControlService is exported on D-Bus for twctl. Structured replies are JSON
// strings.
type ControlService struct {
	Service *control.Service
	Status  StatusFunc
}

func toJSON(v any) (string, *dbus.Error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", dbus.MakeFailedError(err)
	}
	return string(data), nil
}

func (c *ControlService) GetStatus() (string, *dbus.Error) {
	if c.Status == nil {
		return toJSON(map[string]string{"status": "running"})
	}
	return toJSON(c.Status())
}

func (c *ControlService) GetToday() (string, *dbus.Error) {
	stats, err := c.Service.Today(context.Background())
	if err != nil {
		return "", dbus.MakeFailedError(err)
	}
	return toJSON(stats)
}

func (c *ControlService) GetDay(day string) (string, *dbus.Error) {
	key, err := ledger.ParseDayKey(day)
	if err != nil {
		return "", dbus.MakeFailedError(err)
	}
	stats, err := c.Service.Day(context.Background(), key)
	if err != nil {
		return "", dbus.MakeFailedError(err)
	}
	return toJSON(stats)
}

func (c *ControlService) GetWeek() (string, *dbus.Error) {
	week, err := c.Service.Week(context.Background())
	if err != nil {
		return "", dbus.MakeFailedError(err)
	}
	return toJSON(week)
}

func (c *ControlService) GetSettings() (string, *dbus.Error) {
	st, err := c.Service.Settings(context.Background())
	if err != nil {
		return "", dbus.MakeFailedError(err)
	}
	return toJSON(st)
}

func (c *ControlService) SetNudgeEnabled(enabled bool) *dbus.Error {
	if _, err := c.Service.SetNudgeEnabled(context.Background(), enabled); err != nil {
		return dbus.MakeFailedError(err)
	}
	return nil
}

func (c *ControlService) SetGlobalLimit(hours, minutes int32) *dbus.Error {
	if _, err := c.Service.SetGlobalLimit(context.Background(), int(hours), int(minutes)); err != nil {
		return dbus.MakeFailedError(err)
	}
	return nil
}

// AddLimit returns the normalized domain the limit was stored under.
func (c *ControlService) AddLimit(site string, minutes int32) (string, *dbus.Error) {
	d, err := c.Service.AddLimit(context.Background(), site, int(minutes))
	if err != nil {
		return "", dbus.MakeFailedError(err)
	}
	return string(d), nil
}

func (c *ControlService) RemoveLimit(site string) (string, *dbus.Error) {
	d, err := c.Service.RemoveLimit(context.Background(), site)
	if err != nil {
		return "", dbus.MakeFailedError(err)
	}
	return string(d), nil
}

func (c *ControlService) ResetToday() *dbus.Error {
	if err := c.Service.ResetToday(context.Background()); err != nil {
		return dbus.MakeFailedError(err)
	}
	return nil
}

func (c *ControlService) ClearAll() *dbus.Error {
	if err := c.Service.ClearAll(context.Background()); err != nil {
		return dbus.MakeFailedError(err)
	}
	return nil
}

// Export returns a parquet file with the usage of the last days days.
func (c *ControlService) Export(days int32) ([]byte, *dbus.Error) {
	buckets, err := c.Service.LastDays(context.Background(), int(days))
	if err != nil {
		return nil, dbus.MakeFailedError(err)
	}
	var buf bytes.Buffer
	if err := export.WriteParquet(&buf, buckets); err != nil {
		return nil, dbus.MakeFailedError(err)
	}
	return buf.Bytes(), nil
}

// Serve exports c on the session bus, or the system bus when system is set,
// until ctx is done.
func Serve(ctx context.Context, c *ControlService, system bool) error {
	var conn *dbus.Conn
	var err error
	if system {
		conn, err = dbus.ConnectSystemBus()
	} else {
		conn, err = dbus.ConnectSessionBus()
	}
	if err != nil {
		return fmt.Errorf("failed to connect to bus: %w", err)
	}
	defer conn.Close()

	reply, err := conn.RequestName(ServiceName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("name %s already taken", ServiceName)
	}

	if err := conn.Export(c, dbus.ObjectPath(ObjectPath), InterfaceName); err != nil {
		return fmt.Errorf("failed to export interface: %w", err)
	}
	log.Printf("D-Bus control service exported as %s", ServiceName)

	<-ctx.Done()
	return nil
}

// Connect returns a handle on the daemon's control object for clients.
func Connect(system bool) (*dbus.Conn, dbus.BusObject, error) {
	var conn *dbus.Conn
	var err error
	if system {
		conn, err = dbus.ConnectSystemBus()
	} else {
		conn, err = dbus.ConnectSessionBus()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to bus: %w", err)
	}
	return conn, conn.Object(ServiceName, dbus.ObjectPath(ObjectPath)), nil
}
