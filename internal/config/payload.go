package config

import (
	"fmt"
	"strings"
)

// filePayload mirrors Config with optional fields, so a file overrides only
// the keys it names. Both file syntaxes decode into it.
type filePayload struct {
	Party     *partyFields     `json:"party" yaml:"party"`
	Detector  *detectorFields  `json:"detector" yaml:"detector"`
	Analyzer  *analyzerFields  `json:"analyzer" yaml:"analyzer"`
	Audio     *audioFields     `json:"audio" yaml:"audio"`
	Melody    *melodyFields    `json:"melody" yaml:"melody"`
	Indicator *indicatorFields `json:"indicator" yaml:"indicator"`
	Debug     *debugFields     `json:"debug" yaml:"debug"`
}

type partyFields struct {
	Candles *int    `json:"candles" yaml:"candles"`
	Variant *string `json:"variant" yaml:"variant"`
	Message *string `json:"message" yaml:"message"`
	Mic     *bool   `json:"mic" yaml:"mic"`
}

type detectorFields struct {
	Threshold  *float64 `json:"threshold" yaml:"threshold"`
	CooldownMS *int     `json:"cooldown_ms" yaml:"cooldown_ms"`
	Mode       *string  `json:"mode" yaml:"mode"`
}

type analyzerFields struct {
	FFTSize   *int     `json:"fft_size" yaml:"fft_size"`
	Smoothing *float64 `json:"smoothing" yaml:"smoothing"`
	MinDB     *float64 `json:"min_db" yaml:"min_db"`
	MaxDB     *float64 `json:"max_db" yaml:"max_db"`
	FrameRate *int     `json:"frame_rate" yaml:"frame_rate"`
}

type audioFields struct {
	Input    *string `json:"input" yaml:"input"`
	Fallback *string `json:"fallback" yaml:"fallback"`
}

type melodyFields struct {
	Enable *bool   `json:"enable" yaml:"enable"`
	File   *string `json:"file" yaml:"file"`
}

type indicatorFields struct {
	Enable               *bool   `json:"enable" yaml:"enable"`
	Backend              *string `json:"backend" yaml:"backend"`
	DesktopAppName       *string `json:"desktop_app_name" yaml:"desktop_app_name"`
	TextListening        *string `json:"text_listening" yaml:"text_listening"`
	TextMicError         *string `json:"text_mic_error" yaml:"text_mic_error"`
	TextCelebration      *string `json:"text_celebration" yaml:"text_celebration"`
	ErrorTimeoutMS       *int    `json:"error_timeout_ms" yaml:"error_timeout_ms"`
	CelebrationTimeoutMS *int    `json:"celebration_timeout_ms" yaml:"celebration_timeout_ms"`
}

type debugFields struct {
	AudioDump *bool `json:"audio_dump" yaml:"audio_dump"`
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func setTrimmed(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func setKeyword(dst *string, src *string) {
	if src != nil {
		*dst = strings.ToLower(strings.TrimSpace(*src))
	}
}

// applyTo overlays the payload on cfg and returns advisory warnings.
func (p filePayload) applyTo(cfg *Config) []Warning {
	var warnings []Warning

	if f := p.Party; f != nil {
		set(&cfg.Party.Candles, f.Candles)
		setKeyword(&cfg.Party.Variant, f.Variant)
		setTrimmed(&cfg.Party.Message, f.Message)
		set(&cfg.Party.Mic, f.Mic)
	}
	if f := p.Detector; f != nil {
		set(&cfg.Detector.Threshold, f.Threshold)
		set(&cfg.Detector.CooldownMS, f.CooldownMS)
		setKeyword(&cfg.Detector.Mode, f.Mode)
	}
	if f := p.Analyzer; f != nil {
		set(&cfg.Analyzer.FFTSize, f.FFTSize)
		set(&cfg.Analyzer.Smoothing, f.Smoothing)
		set(&cfg.Analyzer.MinDB, f.MinDB)
		set(&cfg.Analyzer.MaxDB, f.MaxDB)
		set(&cfg.Analyzer.FrameRate, f.FrameRate)
		if f.FrameRate != nil && *f.FrameRate > 120 {
			warnings = append(warnings, Warning{Message: fmt.Sprintf("analyzer.frame_rate %d is above display rates; expect extra CPU use", *f.FrameRate)})
		}
	}
	if f := p.Audio; f != nil {
		set(&cfg.Audio.Input, f.Input)
		set(&cfg.Audio.Fallback, f.Fallback)
	}
	if f := p.Melody; f != nil {
		set(&cfg.Melody.Enable, f.Enable)
		setTrimmed(&cfg.Melody.File, f.File)
	}
	if f := p.Indicator; f != nil {
		set(&cfg.Indicator.Enable, f.Enable)
		setTrimmed(&cfg.Indicator.Backend, f.Backend)
		setTrimmed(&cfg.Indicator.DesktopAppName, f.DesktopAppName)
		set(&cfg.Indicator.TextListening, f.TextListening)
		set(&cfg.Indicator.TextMicError, f.TextMicError)
		set(&cfg.Indicator.TextCelebration, f.TextCelebration)
		set(&cfg.Indicator.ErrorTimeoutMS, f.ErrorTimeoutMS)
		set(&cfg.Indicator.CelebrationTimeoutMS, f.CelebrationTimeoutMS)
	}
	if f := p.Debug; f != nil {
		set(&cfg.Debug.EnableAudioDump, f.AudioDump)
	}
	return warnings
}
