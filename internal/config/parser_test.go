package config

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestStripJSONC(t *testing.T) {
	input := `{
  // line comment
  "items": [
    "one", /* block
    comment */ "two",
  ],
  "nested": {"enabled": true, /* trailing */ },
}`

	plain, err := stripJSONC(input)
	require.NoError(t, err)
	require.Len(t, plain, len(input))
	require.Equal(t, strings.Count(input, "\n"), strings.Count(plain, "\n"))
	require.NotContains(t, plain, "comment")
	require.NotRegexp(t, `,\s*[\]}]`, plain)
	require.Contains(t, plain, `"one",`)
}

func TestStripJSONCLeavesStringsAlone(t *testing.T) {
	input := `{"value":"a // b /* c */ d, }", "escaped": "quote \" // still string",}`
	plain, err := stripJSONC(input)
	require.NoError(t, err)
	require.Contains(t, plain, `"a // b /* c */ d, }"`)
	require.Contains(t, plain, `"quote \" // still string"`)
	require.NotContains(t, plain, `",}`)
}

func TestStripJSONCUnterminatedBlockComment(t *testing.T) {
	_, err := stripJSONC("{ /* unterminated ")
	require.ErrorContains(t, err, "unterminated block comment")
}

func TestLineCol(t *testing.T) {
	content := "line1\nline2\nline3"
	tests := []struct {
		offset    int64
		line, col int
	}{
		{offset: 0, line: 1, col: 1},
		{offset: 1, line: 1, col: 1},
		{offset: 8, line: 2, col: 2},
		{offset: 999, line: 3, col: 5},
	}
	for _, tc := range tests {
		line, col := lineCol(content, tc.offset)
		require.Equal(t, [2]int{tc.line, tc.col}, [2]int{line, col}, "offset %d", tc.offset)
	}
}

func fullConfig() Config {
	want := Default()
	want.Party = PartyConfig{Candles: 12, Variant: "counter", Message: "Happy 30th!", Mic: true}
	want.Detector = DetectorConfig{Threshold: 140, CooldownMS: 750, Mode: BlowModeOne}
	want.Analyzer = AnalyzerConfig{FFTSize: 512, Smoothing: 0.5, MinDB: -90, MaxDB: -20, FrameRate: 30}
	want.Audio = AudioConfig{Input: "elgato", Fallback: "sony"}
	want.Melody = MelodyConfig{Enable: true, File: "~/tunes/hb.ogg"}
	want.Indicator.Backend = "desktop"
	want.Indicator.DesktopAppName = "cake"
	want.Indicator.TextCelebration = "Cake!"
	want.Debug.EnableAudioDump = true
	return want
}

func TestParseFormatsAgree(t *testing.T) {
	sources := map[Format]string{
		FormatJSONC: `{
  // party seed
  "party": {"candles": 12, "variant": " Counter ", "message": "  Happy 30th!  ", "mic": true},
  "detector": {"threshold": 140, "cooldown_ms": 750, "mode": "ONE"},
  "analyzer": {"fft_size": 512, "smoothing": 0.5, "min_db": -90, "max_db": -20, "frame_rate": 30},
  "audio": {"input": "elgato", "fallback": "sony"},
  "melody": {"enable": true, "file": " ~/tunes/hb.ogg "},
  "indicator": {"backend": " desktop ", "desktop_app_name": "  cake  ", "text_celebration": "Cake!"},
  "debug": {"audio_dump": true},
}`,
		FormatYAML: `# party seed
party:
  candles: 12
  variant: " Counter "
  message: "  Happy 30th!  "
  mic: true
detector: {threshold: 140, cooldown_ms: 750, mode: ONE}
analyzer:
  fft_size: 512
  smoothing: 0.5
  min_db: -90
  max_db: -20
  frame_rate: 30
audio: {input: elgato, fallback: sony}
melody:
  enable: true
  file: " ~/tunes/hb.ogg "
indicator:
  backend: " desktop "
  desktop_app_name: "  cake  "
  text_celebration: "Cake!"
debug:
  audio_dump: true
`,
	}

	for format, source := range sources {
		t.Run(string(format), func(t *testing.T) {
			cfg, warnings, err := ParseFormat(format, source, Default())
			require.NoError(t, err)
			require.Empty(t, warnings)
			if diff := cmp.Diff(fullConfig(), cfg); diff != "" {
				t.Fatalf("config mismatch (-want +got):\n%s", diff)
			}
			require.Equal(t, 750*time.Millisecond, cfg.Detector.Cooldown())
		})
	}
}

func TestParseFormatErrors(t *testing.T) {
	tests := []struct {
		name    string
		format  Format
		content string
		want    []string
	}{
		{name: "jsonc unknown field", format: FormatJSONC, content: `{"party": {"candle_count": 3}}`, want: []string{"unknown field"}},
		{name: "jsonc second object", format: FormatJSONC, content: `{"melody":{"enable":false}}{"melody":{"enable":true}}`, want: []string{"unexpected content"}},
		{name: "jsonc stray brace", format: FormatJSONC, content: `{"melody":{"enable":false}} }`, want: []string{"unexpected content"}},
		{name: "jsonc type error", format: FormatJSONC, content: "{\n  \"party\": {\"candles\": \"five\"}\n}", want: []string{"line 2", "column"}},
		{name: "yaml unknown field", format: FormatYAML, content: "party:\n  candle_count: 3\n", want: []string{"line 2", "candle_count"}},
		{name: "yaml second document", format: FormatYAML, content: "party: {candles: 3}\n---\nparty: {candles: 4}\n", want: []string{"multiple YAML documents"}},
		{name: "yaml type error", format: FormatYAML, content: "party:\n  candles: five\n", want: []string{"line 2"}},
		{name: "validation", format: FormatJSONC, content: `{"party": {"candles": 21}}`, want: []string{"party.candles"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := ParseFormat(tc.format, tc.content, Default())
			require.Error(t, err)
			for _, part := range tc.want {
				require.Contains(t, err.Error(), part)
			}
		})
	}
}

func TestParseBlankContentKeepsBase(t *testing.T) {
	for _, format := range []Format{FormatJSONC, FormatYAML} {
		cfg, warnings, err := ParseFormat(format, "  \n", Default())
		require.NoError(t, err)
		require.Empty(t, warnings)
		require.Equal(t, Default(), cfg)
	}

	cfg, _, err := ParseFormat(FormatYAML, "# only a comment\n", Default())
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestParseWarnsOnHighFrameRate(t *testing.T) {
	_, warnings, err := Parse(`{"analyzer": {"frame_rate": 240}}`, Default())
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].Message, "frame_rate")
}

func TestFormatFor(t *testing.T) {
	require.Equal(t, FormatYAML, FormatFor("/etc/cakemic/config.YML"))
	require.Equal(t, FormatYAML, FormatFor("config.yaml"))
	require.Equal(t, FormatJSONC, FormatFor("config.jsonc"))
	require.Equal(t, FormatJSONC, FormatFor("config"))
}
