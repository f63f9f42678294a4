// Package audio discovers Pulse input sources, captures PCM, and turns it into
// loudness samples for blow detection.
package audio

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
	"github.com/sahilm/fuzzy"
)

const appName = "cakemic"

var errNoSources = errors.New("no microphones found")

// Device describes one Pulse input source.
type Device struct {
	ID          string
	Description string
	State       string
	Available   bool
	Muted       bool
	Default     bool
}

func (d Device) usable() bool {
	return d.Available && !d.Muted
}

func (d Device) problem() string {
	if d.Muted {
		return "muted"
	}
	return "unavailable"
}

// matches reports a case-insensitive substring hit on the id or description.
func (d Device) matches(term string) bool {
	return term != "" &&
		(strings.Contains(strings.ToLower(d.ID), term) || strings.Contains(strings.ToLower(d.Description), term))
}

// Selection is the microphone a capture will open.
type Selection struct {
	Device   Device
	Warning  string
	Fallback bool
}

// ListDevices returns every Pulse input source.
func ListDevices(_ context.Context) ([]Device, error) {
	client, err := connect()
	if err != nil {
		return nil, err
	}
	defer client.Close()

	def, err := client.DefaultSource()
	if err != nil {
		return nil, fmt.Errorf("read default source: %w", err)
	}

	var infos pulseproto.GetSourceInfoListReply
	if err := client.RawRequest(&pulseproto.GetSourceInfoList{}, &infos); err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}

	devices := make([]Device, 0, len(infos))
	for _, info := range infos {
		if info == nil {
			continue
		}
		devices = append(devices, Device{
			ID:          info.SourceName,
			Description: info.Device,
			State:       stateName(info.State),
			Available:   activePortAvailable(info),
			Muted:       info.Mute,
			Default:     info.SourceName == def.ID(),
		})
	}
	return devices, nil
}

// SelectDevice picks the configured microphone, falling back when it is
// muted or unplugged.
func SelectDevice(ctx context.Context, input, fallback string) (Selection, error) {
	devices, err := ListDevices(ctx)
	if err != nil {
		return Selection{}, err
	}
	return pickSource(devices, input, fallback)
}

func connect() (*pulse.Client, error) {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName(appName),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return nil, fmt.Errorf("connect pulse server: %w", err)
	}
	return client, nil
}

// preference is a normalized audio.input or audio.fallback value.
type preference string

func newPreference(raw string) preference {
	return preference(strings.ToLower(strings.TrimSpace(raw)))
}

func (p preference) resolve(devices []Device) (*Device, error) {
	if p == "" || p == "default" {
		for i := range devices {
			if devices[i].Default {
				return &devices[i], nil
			}
		}
		return nil, errors.New("default microphone is unavailable")
	}
	for i := range devices {
		if devices[i].matches(string(p)) {
			return &devices[i], nil
		}
	}
	if hint := closestDevice(string(p), devices); hint != "" {
		return nil, fmt.Errorf("%q did not match any microphone (closest: %q)", string(p), hint)
	}
	return nil, fmt.Errorf("%q did not match any microphone", string(p))
}

func pickSource(devices []Device, input, fallback string) (Selection, error) {
	if len(devices) == 0 {
		return Selection{}, errNoSources
	}

	primary, err := newPreference(input).resolve(devices)
	if err != nil {
		return Selection{}, fmt.Errorf("audio.input: %w", err)
	}
	if primary.usable() {
		return Selection{Device: *primary}, nil
	}

	alt, err := newPreference(fallback).resolve(devices)
	if err != nil {
		return Selection{}, fmt.Errorf("microphone %q is %s and audio.fallback failed: %w", primary.ID, primary.problem(), err)
	}
	if !alt.usable() {
		return Selection{}, fmt.Errorf("fallback microphone %q is %s", alt.ID, alt.problem())
	}
	return Selection{
		Device:   *alt,
		Warning:  fmt.Sprintf("microphone %q is %s; using %q", primary.ID, primary.problem(), alt.ID),
		Fallback: alt.ID != primary.ID,
	}, nil
}

var sourceStates = map[uint32]string{0: "running", 1: "idle", 2: "suspended"}

func stateName(state uint32) string {
	if name, ok := sourceStates[state]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", state)
}

// activePortAvailable treats port availability "unknown" (0) and "yes" (2)
// as plugged in. Sources without ports are always available.
func activePortAvailable(info *pulseproto.GetSourceInfoReply) bool {
	if info == nil {
		return false
	}
	for _, port := range info.Ports {
		if port.Name == info.ActivePortName {
			return port.Available != 1
		}
	}
	return true
}

// closestDevice names the source whose description best fuzzy-matches term.
func closestDevice(term string, devices []Device) string {
	names := make([]string, len(devices))
	for i, d := range devices {
		names[i] = strings.ToLower(d.Description)
	}
	matches := fuzzy.Find(term, names)
	if len(matches) == 0 {
		return ""
	}
	return devices[matches[0].Index].Description
}
