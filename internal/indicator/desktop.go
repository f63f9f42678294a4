package indicator

import (
	"context"
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	notifyService = "org.freedesktop.Notifications"
	notifyPath    = dbus.ObjectPath("/org/freedesktop/Notifications")
)

// urgency hint values: 0 low, 1 normal.
var desktopUrgency = map[kind]byte{
	kindListening:   0,
	kindMicError:    1,
	kindCelebration: 1,
}

// busCall invokes one org.freedesktop.Notifications method and returns the
// reply body.
type busCall func(ctx context.Context, method string, args ...any) ([]any, error)

// desktop shows notices through the freedesktop notification service. Each
// notice replaces the previous one.
type desktop struct {
	appName string
	call    busCall

	mu sync.Mutex
	id uint32
}

func newDesktop(appName string) *desktop {
	return &desktop{appName: appName, call: sessionCall}
}

func (d *desktop) show(ctx context.Context, n notice) error {
	d.mu.Lock()
	replaces := d.id
	d.mu.Unlock()

	body, err := d.call(ctx, "Notify",
		d.appName,
		replaces,
		"", // icon
		n.text,
		"", // body
		[]string{},
		map[string]dbus.Variant{"urgency": dbus.MakeVariant(desktopUrgency[n.kind])},
		int32(n.timeout.Milliseconds()),
	)
	if err != nil {
		return err
	}
	if len(body) != 1 {
		return fmt.Errorf("unexpected Notify reply %v", body)
	}
	id, ok := body[0].(uint32)
	if !ok {
		return fmt.Errorf("unexpected Notify reply %v", body)
	}

	d.mu.Lock()
	d.id = id
	d.mu.Unlock()
	return nil
}

func (d *desktop) clear(ctx context.Context) error {
	d.mu.Lock()
	id := d.id
	d.id = 0
	d.mu.Unlock()

	if id == 0 {
		return nil
	}
	_, err := d.call(ctx, "CloseNotification", id)
	return err
}

func sessionCall(ctx context.Context, method string, args ...any) ([]any, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}
	return callNotifications(ctx, conn, method, args...)
}

func callNotifications(ctx context.Context, conn *dbus.Conn, method string, args ...any) ([]any, error) {
	call := conn.Object(notifyService, notifyPath).CallWithContext(ctx, notifyService+"."+method, 0, args...)
	if call.Err != nil {
		return nil, fmt.Errorf("%s.%s: %w", notifyService, method, call.Err)
	}
	return call.Body, nil
}

// DesktopServer names the notification daemon on the session bus.
func DesktopServer(ctx context.Context) (string, error) {
	conn, err := dbus.ConnectSessionBus(dbus.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("connect session bus: %w", err)
	}
	defer conn.Close()

	body, err := callNotifications(ctx, conn, "GetServerInformation")
	if err != nil {
		return "", err
	}
	if len(body) < 3 {
		return "", fmt.Errorf("unexpected GetServerInformation reply %v", body)
	}
	name, _ := body[0].(string)
	vendor, _ := body[1].(string)
	version, _ := body[2].(string)
	return fmt.Sprintf("%s %s (%s)", name, version, vendor), nil
}
