package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolvePathPrecedence(t *testing.T) {
	explicit := "/tmp/custom.jsonc"
	resolved, err := ResolvePath(explicit)
	require.NoError(t, err)
	require.Equal(t, explicit, resolved)

	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	resolved, err = ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(xdg, "cakemic", "config.jsonc"), resolved)

	t.Setenv("XDG_CONFIG_HOME", "")
	home := t.TempDir()
	t.Setenv("HOME", home)
	resolved, err = ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".config", "cakemic", "config.jsonc"), resolved)
}

func TestResolvePathFindsExistingFile(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	dir := filepath.Join(xdg, "cakemic")
	require.NoError(t, os.MkdirAll(dir, 0o700))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte("party: {candles: 4}\n"), 0o600))
	resolved, err := ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "config.yml"), resolved)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.jsonc"), []byte("{}"), 0o600))
	resolved, err = ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "config.jsonc"), resolved)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := `party:
  candles: 6
  message: Happy Birthday, Sam!
detector:
  threshold: 125 # noisy room
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.True(t, loaded.Exists)
	require.Equal(t, FormatYAML, loaded.Format)
	require.Equal(t, 6, loaded.Config.Party.Candles)
	require.Equal(t, "Happy Birthday, Sam!", loaded.Config.Party.Message)
	require.Equal(t, 125.0, loaded.Config.Detector.Threshold)
}

func TestLoadMissingConfigUsesDefaultsWithWarning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.jsonc")

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, path, loaded.Path)
	require.False(t, loaded.Exists)
	require.Equal(t, Default(), loaded.Config)
	require.NotEmpty(t, loaded.Warnings)
	require.Contains(t, loaded.Warnings[0].Message, "not found")
}

func TestLoadExistingJSONCParsesAndValidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.jsonc")
	contents := `
{
  "party": {
    "candles": 8,
    "message": "Happy Birthday, Sam!"
  },
  "detector": {
    "threshold": 130, // noisy room
  },
  "melody": {
    "enable": false
  }
}
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.True(t, loaded.Exists)
	require.Equal(t, path, loaded.Path)
	require.Equal(t, FormatJSONC, loaded.Format)
	require.Equal(t, 8, loaded.Config.Party.Candles)
	require.Equal(t, "Happy Birthday, Sam!", loaded.Config.Party.Message)
	require.Equal(t, 130.0, loaded.Config.Detector.Threshold)
	require.False(t, loaded.Config.Melody.Enable)
}

func TestLoadParseErrorIncludesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.jsonc")
	require.NoError(t, os.WriteFile(path, []byte("{ not-json }"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "parse config")
	require.Contains(t, err.Error(), path)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(`{"detector": {"mode": "some"}}`), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "detector.mode")
}
