package indicator

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/rbright/cakemic/internal/config"
	"github.com/stretchr/testify/require"
)

func recordCalls(t *testing.T, bin, reply string) string {
	t.Helper()

	log := filepath.Join(t.TempDir(), bin+".log")
	t.Setenv("CALL_LOG", log)
	dir := t.TempDir()
	script := "#!/usr/bin/env bash\nset -euo pipefail\nprintf '%s\\n' \"$*\" >> \"${CALL_LOG}\"\n" + reply + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, bin), []byte(script), 0o755))
	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))
	return log
}

func calls(t *testing.T, log string) []string {
	t.Helper()
	data, err := os.ReadFile(log)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestHyprlandNotices(t *testing.T) {
	log := recordCalls(t, "hyprctl", "")

	cfg := config.Default().Indicator
	cfg.TextListening = "Listening"
	cfg.TextMicError = "Mic error"
	cfg.TextCelebration = "Party!"

	n := New(cfg, nil)
	n.ShowListening(context.Background())
	n.ShowMicError(context.Background(), "")
	n.ShowCelebration(context.Background(), " Happy Birthday! ")
	n.Hide(context.Background())

	require.Equal(t, []string{
		"--quiet dispatch notify 2 300000 rgb(a6e3a1) Listening",
		"--quiet dispatch notify 3 1600 rgb(f38ba8) Mic error",
		"--quiet dispatch notify 5 6000 rgb(f9e2af) Party! Happy Birthday!",
		"--quiet dispatch dismissnotify",
	}, calls(t, log))
}

func TestMicErrorTextAndDefaultTimeout(t *testing.T) {
	log := recordCalls(t, "hyprctl", "")

	cfg := config.Default().Indicator
	cfg.ErrorTimeoutMS = 0

	New(cfg, nil).ShowMicError(context.Background(), "permission denied")
	require.Equal(t, []string{"--quiet dispatch notify 3 1200 rgb(f38ba8) permission denied"}, calls(t, log))
}

func TestDisabledNotifierStaysQuiet(t *testing.T) {
	log := recordCalls(t, "hyprctl", "")

	cfg := config.Default().Indicator
	cfg.Enable = false

	n := New(cfg, nil)
	n.ShowListening(context.Background())
	n.ShowMicError(context.Background(), "ignored")
	n.ShowCelebration(context.Background(), "ignored")
	n.Hide(context.Background())

	require.Empty(t, calls(t, log))
}

func TestDispatchFailureIsContained(t *testing.T) {
	recordCalls(t, "hyprctl", "echo 'no instance' >&2\nexit 1")

	n := New(config.Default().Indicator, nil)
	n.ShowCelebration(context.Background(), "")
	n.Hide(context.Background())
}

type busRecord struct {
	method string
	args   []any
}

func fakeBus(records *[]busRecord, reply uint32) busCall {
	return func(_ context.Context, method string, args ...any) ([]any, error) {
		*records = append(*records, busRecord{method: method, args: args})
		if method == "Notify" {
			return []any{reply}, nil
		}
		return nil, nil
	}
}

func TestDesktopReplacesAndClosesNotification(t *testing.T) {
	var records []busRecord
	d := newDesktop("cakemic")
	d.call = fakeBus(&records, 42)

	cfg := config.Default().Indicator
	n := New(cfg, nil)
	n.backend = d

	n.ShowListening(context.Background())
	n.ShowCelebration(context.Background(), "")
	n.Hide(context.Background())
	n.Hide(context.Background())

	require.Len(t, records, 3)
	require.Equal(t, "Notify", records[0].method)
	require.Equal(t, "cakemic", records[0].args[0])
	require.Equal(t, uint32(0), records[0].args[1])
	require.Equal(t, map[string]dbus.Variant{"urgency": dbus.MakeVariant(byte(0))}, records[0].args[6])
	require.Equal(t, int32(300000), records[0].args[7])

	require.Equal(t, uint32(42), records[1].args[1])
	require.Equal(t, map[string]dbus.Variant{"urgency": dbus.MakeVariant(byte(1))}, records[1].args[6])

	require.Equal(t, "CloseNotification", records[2].method)
	require.Equal(t, []any{uint32(42)}, records[2].args)
}

func TestDesktopRejectsOddReply(t *testing.T) {
	d := newDesktop("cakemic")
	d.call = func(context.Context, string, ...any) ([]any, error) { return []any{"nope"}, nil }

	err := d.show(context.Background(), notice{kind: kindListening, text: "hi"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unexpected Notify reply")
	require.NoError(t, d.clear(context.Background()))
}

func TestNewPicksDesktopBackend(t *testing.T) {
	cfg := config.Default().Indicator
	cfg.Backend = " Desktop "
	cfg.DesktopAppName = ""

	d, ok := New(cfg, nil).backend.(*desktop)
	require.True(t, ok)
	require.Equal(t, "cakemic", d.appName)
}

func TestDesktopServerWithoutBus(t *testing.T) {
	t.Setenv("DBUS_SESSION_BUS_ADDRESS", "unix:path="+filepath.Join(t.TempDir(), "missing-bus"))
	_, err := DesktopServer(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "connect session bus")
}

func TestNopController(t *testing.T) {
	var c Controller = Nop{}
	c.ShowListening(context.Background())
	c.ShowMicError(context.Background(), "x")
	c.ShowCelebration(context.Background(), "x")
	c.Hide(context.Background())
}
