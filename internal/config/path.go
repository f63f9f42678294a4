package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// fileNames are tried in order inside the config directory.
var fileNames = []string{"config.jsonc", "config.yaml", "config.yml"}

// ResolvePath returns explicit when set. Otherwise it looks in
// $XDG_CONFIG_HOME/cakemic (or ~/.config/cakemic) for the first existing
// config file, defaulting to config.jsonc there.
func ResolvePath(explicit string) (string, error) {
	if strings.TrimSpace(explicit) != "" {
		return explicit, nil
	}

	dir, err := configDir()
	if err != nil {
		return "", err
	}
	for _, name := range fileNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return filepath.Join(dir, fileNames[0]), nil
}

func configDir() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, "cakemic"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("unable to resolve user home for config fallback")
	}
	return filepath.Join(home, ".config", "cakemic"), nil
}
