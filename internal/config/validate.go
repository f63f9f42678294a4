package config

import (
	"fmt"
	"strings"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if cfg.Party.Candles < MinCandles || cfg.Party.Candles > MaxCandles {
		return nil, fmt.Errorf("party.candles must be in [%d, %d]", MinCandles, MaxCandles)
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Party.Variant)) {
	case "indexed", "counter":
	default:
		return nil, fmt.Errorf("party.variant must be one of: indexed, counter")
	}

	if cfg.Detector.Threshold < 0 || cfg.Detector.Threshold >= 255 {
		return nil, fmt.Errorf("detector.threshold must be in [0, 255)")
	}
	if cfg.Detector.CooldownMS < 0 {
		return nil, fmt.Errorf("detector.cooldown_ms must be >= 0")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Detector.Mode)) {
	case BlowModeAll, BlowModeOne:
	default:
		return nil, fmt.Errorf("detector.mode must be one of: all, one")
	}
	if cfg.Detector.Threshold < 40 {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("detector.threshold %.0f is low; background noise may blow out candles", cfg.Detector.Threshold)})
	}
	if cfg.Detector.CooldownMS == 0 {
		warnings = append(warnings, Warning{Message: "detector.cooldown_ms is 0; one breath may count many times"})
	}

	fft := cfg.Analyzer.FFTSize
	if fft < 32 || fft > 32768 || fft&(fft-1) != 0 {
		return nil, fmt.Errorf("analyzer.fft_size must be a power of two in [32, 32768]")
	}
	if cfg.Analyzer.Smoothing < 0 || cfg.Analyzer.Smoothing >= 1 {
		return nil, fmt.Errorf("analyzer.smoothing must be in [0, 1)")
	}
	if cfg.Analyzer.MinDB >= cfg.Analyzer.MaxDB {
		return nil, fmt.Errorf("analyzer.min_db must be below analyzer.max_db")
	}
	if cfg.Analyzer.FrameRate < 1 || cfg.Analyzer.FrameRate > 1000 {
		return nil, fmt.Errorf("analyzer.frame_rate must be in [1, 1000]")
	}

	backend := strings.ToLower(strings.TrimSpace(cfg.Indicator.Backend))
	if backend == "" {
		return nil, fmt.Errorf("indicator.backend must not be empty")
	}
	if backend != "hypr" && backend != "desktop" {
		return nil, fmt.Errorf("indicator.backend must be one of: hypr, desktop")
	}
	if backend == "desktop" && strings.TrimSpace(cfg.Indicator.DesktopAppName) == "" {
		return nil, fmt.Errorf("indicator.desktop_app_name must not be empty when indicator.backend=desktop")
	}
	if cfg.Indicator.ErrorTimeoutMS < 0 {
		return nil, fmt.Errorf("indicator.error_timeout_ms must be >= 0")
	}
	if cfg.Indicator.CelebrationTimeoutMS < 0 {
		return nil, fmt.Errorf("indicator.celebration_timeout_ms must be >= 0")
	}

	if !cfg.Melody.Enable && strings.TrimSpace(cfg.Melody.File) != "" {
		warnings = append(warnings, Warning{Message: "melody.file is set but melody.enable=false; the file will not play"})
	}

	return warnings, nil
}
