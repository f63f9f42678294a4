// Package hypr drives Hyprland notifications and queries through hyprctl.
package hypr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Icon is a hyprctl notify icon.
type Icon int

const (
	IconNone Icon = iota - 1
	IconWarning
	IconInfo
	IconHint
	IconError
	IconConfused
	IconOK
)

const defaultColor = "rgb(89b4fa)"

// Notification is one `hyprctl dispatch notify` toast.
type Notification struct {
	Icon    Icon
	Timeout time.Duration
	Color   string
	Text    string
}

func (n Notification) args() []string {
	color := strings.TrimSpace(n.Color)
	if color == "" {
		color = defaultColor
	}
	return []string{
		"--quiet", "dispatch", "notify",
		strconv.Itoa(int(n.Icon)),
		strconv.FormatInt(n.Timeout.Milliseconds(), 10),
		color,
		n.Text,
	}
}

// Notify shows a toast on the focused monitor.
func Notify(ctx context.Context, n Notification) error {
	_, err := ctl(ctx, n.args()...)
	return err
}

// Dismiss clears every toast.
func Dismiss(ctx context.Context) error {
	_, err := ctl(ctx, "--quiet", "dispatch", "dismissnotify")
	return err
}

// FocusedMonitor names the focused output, or the first one when none
// reports focus.
func FocusedMonitor(ctx context.Context) (string, error) {
	out, err := ctl(ctx, "-j", "monitors")
	if err != nil {
		return "", err
	}

	var monitors []monitor
	if err := json.Unmarshal(out, &monitors); err != nil {
		return "", fmt.Errorf("decode hyprctl monitors: %w", err)
	}
	if len(monitors) == 0 {
		return "", errors.New("hyprctl reported no monitors")
	}

	i := slices.IndexFunc(monitors, func(m monitor) bool { return m.Focused })
	return strings.TrimSpace(monitors[max(i, 0)].Name), nil
}

type monitor struct {
	Name    string `json:"name"`
	Focused bool   `json:"focused"`
}

func ctl(ctx context.Context, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, "hyprctl", args...).CombinedOutput()
	if err == nil {
		return out, nil
	}
	if detail := strings.TrimSpace(string(out)); detail != "" {
		return nil, fmt.Errorf("hyprctl %s: %w (%s)", strings.Join(args, " "), err, detail)
	}
	return nil, fmt.Errorf("hyprctl %s: %w", strings.Join(args, " "), err)
}
