package doctor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/rbright/cakemic/internal/config"
	"github.com/stretchr/testify/require"
)

func TestReportOKAndString(t *testing.T) {
	report := Report{Checks: []Check{
		{Name: "one", Pass: true, Message: "good"},
		{Name: "two", Pass: false, Message: "bad"},
	}}

	require.False(t, report.OK())
	text := report.String()
	require.Contains(t, text, "[OK] one: good")
	require.Contains(t, text, "[FAIL] two: bad")
}

func TestReportOKAllPassing(t *testing.T) {
	report := Report{Checks: []Check{{Name: "one", Pass: true}, {Name: "two", Pass: true}}}
	require.True(t, report.OK())
}

func TestCheckEnv(t *testing.T) {
	t.Setenv("TEST_DOCTOR_ENV", "/run/user/1000")

	check := checkEnv(
		"TEST_DOCTOR_ENV",
		func(v string) bool { return strings.HasPrefix(v, "/run") },
		"looks good",
		"unexpected",
	)

	require.True(t, check.Pass)
	require.Equal(t, "looks good", check.Message)
}

func TestCheckBinaryFound(t *testing.T) {
	check := checkBinary("sh", "shell available")
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "shell available")
}

func TestCheckBinaryMissing(t *testing.T) {
	check := checkBinary("definitely-not-a-real-binary", "unused")
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "binary not found")
}

func writeTuneWAV(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, 8000, 16, 1, 1)
	require.NoError(t, enc.Write(&goaudio.IntBuffer{
		Data:           make([]int, 4000),
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: 8000},
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
}

func TestCheckMelody(t *testing.T) {
	dir := t.TempDir()

	other := filepath.Join(dir, "tune.flac")
	require.False(t, checkMelody(other).Pass)
	require.NoError(t, os.WriteFile(other, []byte("fLaC"), 0o600))
	check := checkMelody(other)
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "tune.flac")

	broken := filepath.Join(dir, "broken.wav")
	require.NoError(t, os.WriteFile(broken, []byte("RIFF"), 0o600))
	require.False(t, checkMelody(broken).Pass)

	tune := filepath.Join(dir, "tune.wav")
	writeTuneWAV(t, tune)
	check = checkMelody(tune)
	require.True(t, check.Pass, check.Message)
	require.Contains(t, check.Message, "500ms at 8000 Hz")
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, "tune.ogg"), expandHome(" ~/tune.ogg "))
	require.Equal(t, "/abs/tune.ogg", expandHome("/abs/tune.ogg"))
}

func TestCheckAnalyzer(t *testing.T) {
	cfg := config.Default().Analyzer
	require.True(t, checkAnalyzer(cfg).Pass)

	cfg.FFTSize = 100
	check := checkAnalyzer(cfg)
	require.False(t, check.Pass)
	require.Equal(t, "analyzer", check.Name)
}

func TestCheckAudioSelectionFailureWithInvalidPulseServer(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")

	check := checkAudioSelection(config.Default())
	require.False(t, check.Pass)
	require.Contains(t, check.Name, "audio.device")
}

func TestCheckIndicatorQueriesFocusedMonitor(t *testing.T) {
	binDir := t.TempDir()
	script := "#!/usr/bin/env sh\necho '[{\"name\":\"DP-1\",\"focused\":false},{\"name\":\"HDMI-A-1\",\"focused\":true}]'\n"
	require.NoError(t, os.WriteFile(filepath.Join(binDir, "hyprctl"), []byte(script), 0o755))
	t.Setenv("PATH", binDir+":"+os.Getenv("PATH"))
	t.Setenv("HYPRLAND_INSTANCE_SIGNATURE", "abc123")

	checks := checkIndicator(config.Default().Indicator)
	require.Len(t, checks, 3)
	for _, check := range checks {
		require.True(t, check.Pass, check.Name)
	}
	require.Contains(t, checks[2].Message, "HDMI-A-1")
}

func TestCheckIndicatorDesktopQueriesSessionBus(t *testing.T) {
	t.Setenv("DBUS_SESSION_BUS_ADDRESS", "unix:path="+filepath.Join(t.TempDir(), "missing-bus"))
	cfg := config.Default().Indicator
	cfg.Backend = "desktop"

	checks := checkIndicator(cfg)
	require.Len(t, checks, 1)
	require.Equal(t, "dbus.notifications", checks[0].Name)
	require.False(t, checks[0].Pass)
	require.Contains(t, checks[0].Message, "connect session bus")
}

func TestRunSkipsIndicatorAndMelodyChecksWhenDisabled(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	cfg := config.Default()
	cfg.Indicator.Enable = false
	cfg.Melody.File = "/tmp/tune.wav"
	cfg.Melody.Enable = false

	report := Run(config.Loaded{Path: "/tmp/config.jsonc", Config: cfg})
	names := make([]string, 0, len(report.Checks))
	for _, check := range report.Checks {
		names = append(names, check.Name)
	}
	require.Equal(t, []string{"config", "XDG_RUNTIME_DIR", "analyzer", "audio.device"}, names)
	require.Contains(t, report.Checks[0].Message, "using defaults")
}

func TestRunChecksPWPlayForMelodyFile(t *testing.T) {
	binDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(binDir, "pw-play"), []byte("#!/usr/bin/env sh\nexit 0\n"), 0o755))
	t.Setenv("PATH", binDir+":"+os.Getenv("PATH"))
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")

	tune := filepath.Join(t.TempDir(), "tune.flac")
	require.NoError(t, os.WriteFile(tune, []byte("fLaC"), 0o600))

	cfg := config.Default()
	cfg.Indicator.Enable = false
	cfg.Melody.File = tune

	report := Run(config.Loaded{Path: "/tmp/config.jsonc", Config: cfg, Exists: true})
	var sawPWPlay, sawFile bool
	for _, check := range report.Checks {
		switch check.Name {
		case "pw-play":
			sawPWPlay = check.Pass
		case "melody.file":
			sawFile = check.Pass
		}
	}
	require.True(t, sawPWPlay)
	require.True(t, sawFile)
	require.False(t, report.OK())
}

func TestRunDecodesSupportedMelodyWithoutPWPlay(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")
	tune := filepath.Join(t.TempDir(), "tune.wav")
	writeTuneWAV(t, tune)

	cfg := config.Default()
	cfg.Indicator.Enable = false
	cfg.Melody.File = tune

	report := Run(config.Loaded{Path: "/tmp/config.jsonc", Config: cfg, Exists: true})
	last := report.Checks[len(report.Checks)-1]
	require.Equal(t, "melody.file", last.Name)
	require.True(t, last.Pass, last.Message)
	for _, check := range report.Checks {
		require.NotEqual(t, "pw-play", check.Name)
	}
}
