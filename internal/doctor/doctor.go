// Package doctor runs runtime readiness diagnostics for config, audio, and
// the notification and playback tools a party relies on.
package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rbright/cakemic/internal/audio"
	"github.com/rbright/cakemic/internal/config"
	"github.com/rbright/cakemic/internal/hypr"
	"github.com/rbright/cakemic/internal/indicator"
	"github.com/rbright/cakemic/internal/melody"
)

const (
	hyprQueryTimeout = 500 * time.Millisecond
	busQueryTimeout  = time.Second
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(cfg config.Loaded) Report {
	checks := []Check{configCheck(cfg)}

	checks = append(checks, checkEnv("XDG_RUNTIME_DIR", func(v string) bool {
		return strings.TrimSpace(v) != ""
	}, "control socket directory available", "XDG_RUNTIME_DIR is empty; party commands cannot reach a running party"))

	checks = append(checks, checkAnalyzer(cfg.Config.Analyzer))
	checks = append(checks, checkAudioSelection(cfg.Config))

	if cfg.Config.Indicator.Enable {
		checks = append(checks, checkIndicator(cfg.Config.Indicator)...)
	}

	if cfg.Config.Melody.Enable && strings.TrimSpace(cfg.Config.Melody.File) != "" {
		path := expandHome(cfg.Config.Melody.File)
		if !melody.Decodable(path) {
			checks = append(checks, checkBinary("pw-play", "melody file playback"))
		}
		checks = append(checks, checkMelody(path))
	}

	return Report{Checks: checks}
}

func configCheck(cfg config.Loaded) Check {
	if !cfg.Exists {
		return Check{Name: "config", Pass: true, Message: fmt.Sprintf("no file at %q; using defaults", cfg.Path)}
	}
	return Check{Name: "config", Pass: true, Message: fmt.Sprintf("loaded %q", cfg.Path)}
}

// checkEnv validates an environment variable through a caller-supplied predicate.
func checkEnv(name string, predicate func(string) bool, okMsg, failMsg string) Check {
	value := os.Getenv(name)
	if predicate(value) {
		return Check{Name: name, Pass: true, Message: okMsg}
	}
	return Check{Name: name, Pass: false, Message: failMsg}
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkMelody decodes the tune when it can; other formats only need to exist.
func checkMelody(path string) Check {
	const name = "melody.file"
	if !melody.Decodable(path) {
		if _, err := os.Stat(path); err != nil {
			return Check{Name: name, Pass: false, Message: err.Error()}
		}
		return Check{Name: name, Pass: true, Message: fmt.Sprintf("found %q", path)}
	}
	clip, err := melody.DecodeFile(path)
	if err != nil {
		return Check{Name: name, Pass: false, Message: err.Error()}
	}
	return Check{
		Name:    name,
		Pass:    true,
		Message: fmt.Sprintf("%q decodes to %s at %d Hz", path, clip.Duration().Round(time.Millisecond), clip.Rate),
	}
}

func expandHome(path string) string {
	path = strings.TrimSpace(path)
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = home + path[1:]
		}
	}
	return path
}

// checkAnalyzer validates the loudness analyser settings.
func checkAnalyzer(cfg config.AnalyzerConfig) Check {
	frames := audio.FramesFromConfig(cfg)
	if err := frames.Analyser.Validate(); err != nil {
		return Check{Name: "analyzer", Pass: false, Message: err.Error()}
	}
	return Check{
		Name:    "analyzer",
		Pass:    true,
		Message: fmt.Sprintf("fft %d, %d Hz frames", frames.Analyser.FFTSize, frames.FrameRate),
	}
}

// checkAudioSelection runs live device selection to surface selection/fallback issues.
func checkAudioSelection(cfg config.Config) Check {
	selection, err := audio.SelectDevice(context.Background(), cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

func checkNotificationServer() Check {
	ctx, cancel := context.WithTimeout(context.Background(), busQueryTimeout)
	defer cancel()
	server, err := indicator.DesktopServer(ctx)
	if err != nil {
		return Check{Name: "dbus.notifications", Pass: false, Message: err.Error()}
	}
	return Check{Name: "dbus.notifications", Pass: true, Message: "served by " + server}
}

// checkIndicator verifies the notification backend's tooling.
func checkIndicator(cfg config.IndicatorConfig) []Check {
	if strings.EqualFold(strings.TrimSpace(cfg.Backend), "desktop") {
		return []Check{checkNotificationServer()}
	}

	checks := []Check{
		checkEnv("HYPRLAND_INSTANCE_SIGNATURE", func(v string) bool {
			return strings.TrimSpace(v) != ""
		}, "Hyprland session detected", "HYPRLAND_INSTANCE_SIGNATURE is empty"),
		checkBinary("hyprctl", "Hyprland notifications"),
	}
	if !checks[1].Pass {
		return checks
	}

	ctx, cancel := context.WithTimeout(context.Background(), hyprQueryTimeout)
	defer cancel()
	monitor, err := hypr.FocusedMonitor(ctx)
	if err != nil {
		return append(checks, Check{Name: "hypr.monitor", Pass: false, Message: err.Error()})
	}
	return append(checks, Check{Name: "hypr.monitor", Pass: true, Message: fmt.Sprintf("notifications land on %q", monitor)})
}
