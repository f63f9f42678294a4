package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	return Config{
		Party: PartyConfig{
			Candles: 5,
			Variant: "indexed",
			Message: "Happy Birthday!",
		},
		Detector: DetectorConfig{
			Threshold:  120,
			CooldownMS: 1000,
			Mode:       BlowModeAll,
		},
		Analyzer: AnalyzerConfig{
			FFTSize:   256,
			Smoothing: 0.8,
			MinDB:     -100,
			MaxDB:     -30,
			FrameRate: 60,
		},
		Audio: AudioConfig{
			Input:    "default",
			Fallback: "default",
		},
		Melody: MelodyConfig{Enable: true},
		Indicator: IndicatorConfig{
			Enable:               true,
			Backend:              "hypr",
			DesktopAppName:       "cakemic",
			ErrorTimeoutMS:       1600,
			CelebrationTimeoutMS: 6000,
		},
		Debug: DebugConfig{},
	}
}
