// Package config resolves, parses, validates, and defaults cakemic configuration.
package config

import "time"

// Candle count bounds.
const (
	MinCandles = 1
	MaxCandles = 20
)

// Blow modes select how a detected blow affects the cake.
const (
	BlowModeAll = "all"
	BlowModeOne = "one"
)

// Config is the fully materialized runtime configuration.
type Config struct {
	Party     PartyConfig
	Detector  DetectorConfig
	Analyzer  AnalyzerConfig
	Audio     AudioConfig
	Melody    MelodyConfig
	Indicator IndicatorConfig
	Debug     DebugConfig
}

// PartyConfig seeds the session a party starts with.
type PartyConfig struct {
	Candles int
	Variant string
	Message string
	Mic     bool
}

// DetectorConfig tunes blow detection.
type DetectorConfig struct {
	Threshold  float64
	CooldownMS int
	Mode       string
}

// Cooldown returns the cooldown as a duration.
func (d DetectorConfig) Cooldown() time.Duration {
	return time.Duration(d.CooldownMS) * time.Millisecond
}

// AnalyzerConfig shapes the loudness spectrum.
type AnalyzerConfig struct {
	FFTSize   int
	Smoothing float64
	MinDB     float64
	MaxDB     float64
	FrameRate int
}

// AudioConfig controls preferred and fallback input-source selection.
type AudioConfig struct {
	Input    string
	Fallback string
}

// MelodyConfig controls the celebration tune.
type MelodyConfig struct {
	Enable bool
	File   string
}

// IndicatorConfig controls desktop notifications.
type IndicatorConfig struct {
	Enable               bool
	Backend              string
	DesktopAppName       string
	TextListening        string
	TextMicError         string
	TextCelebration      string
	ErrorTimeoutMS       int
	CelebrationTimeoutMS int
}

// DebugConfig controls optional debug artifact output.
type DebugConfig struct {
	EnableAudioDump bool
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}
