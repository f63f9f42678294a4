package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// envOverrides lists the variables that win over the config file. Unset
// variables leave the pointer nil.
type envOverrides struct {
	Candles    *int     `env:"CAKEMIC_CANDLES"`
	Variant    *string  `env:"CAKEMIC_VARIANT"`
	Message    *string  `env:"CAKEMIC_MESSAGE"`
	Mic        *bool    `env:"CAKEMIC_MIC"`
	Threshold  *float64 `env:"CAKEMIC_THRESHOLD"`
	CooldownMS *int     `env:"CAKEMIC_COOLDOWN_MS"`
	BlowMode   *string  `env:"CAKEMIC_BLOW_MODE"`
	Input      *string  `env:"CAKEMIC_AUDIO_INPUT"`
	Melody     *bool    `env:"CAKEMIC_MELODY"`
	AudioDump  *bool    `env:"CAKEMIC_AUDIO_DUMP"`
}

// applyEnv overlays CAKEMIC_* variables onto cfg and reports which keys
// were overridden.
func applyEnv(cfg *Config) ([]Warning, error) {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	var applied []string
	set := func(name string) { applied = append(applied, name) }

	if o.Candles != nil {
		cfg.Party.Candles = *o.Candles
		set("CAKEMIC_CANDLES")
	}
	if o.Variant != nil {
		cfg.Party.Variant = strings.ToLower(strings.TrimSpace(*o.Variant))
		set("CAKEMIC_VARIANT")
	}
	if o.Message != nil {
		cfg.Party.Message = strings.TrimSpace(*o.Message)
		set("CAKEMIC_MESSAGE")
	}
	if o.Mic != nil {
		cfg.Party.Mic = *o.Mic
		set("CAKEMIC_MIC")
	}
	if o.Threshold != nil {
		cfg.Detector.Threshold = *o.Threshold
		set("CAKEMIC_THRESHOLD")
	}
	if o.CooldownMS != nil {
		cfg.Detector.CooldownMS = *o.CooldownMS
		set("CAKEMIC_COOLDOWN_MS")
	}
	if o.BlowMode != nil {
		cfg.Detector.Mode = strings.ToLower(strings.TrimSpace(*o.BlowMode))
		set("CAKEMIC_BLOW_MODE")
	}
	if o.Input != nil {
		cfg.Audio.Input = *o.Input
		set("CAKEMIC_AUDIO_INPUT")
	}
	if o.Melody != nil {
		cfg.Melody.Enable = *o.Melody
		set("CAKEMIC_MELODY")
	}
	if o.AudioDump != nil {
		cfg.Debug.EnableAudioDump = *o.AudioDump
		set("CAKEMIC_AUDIO_DUMP")
	}

	if len(applied) == 0 {
		return nil, nil
	}
	return []Warning{{Message: "environment overrides applied: " + strings.Join(applied, ", ")}}, nil
}
