package config

import (
	"errors"
	"fmt"
	"os"
)

// Loaded is a resolved config path with its parsed values and any non-fatal
// warnings. Exists is false when defaults stood in for a missing file.
type Loaded struct {
	Path     string
	Format   Format
	Config   Config
	Warnings []Warning
	Exists   bool
}

func (l *Loaded) warn(warnings ...Warning) {
	l.Warnings = append(l.Warnings, warnings...)
}

// Load reads the config file in the syntax its extension names, overlays
// CAKEMIC_* environment overrides, and validates the result.
func Load(explicitPath string) (Loaded, error) {
	path, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}
	loaded := Loaded{Path: path, Format: FormatFor(path), Config: Default()}

	content, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Loaded{}, fmt.Errorf("read config %q: %w", path, err)
	}
	if err != nil {
		loaded.warn(Warning{Message: fmt.Sprintf("config file %q not found; using defaults", path)})
	} else {
		cfg, warnings, err := decode(loaded.Format, string(content), loaded.Config)
		if err != nil {
			return Loaded{}, fmt.Errorf("parse config %q: %w", path, err)
		}
		loaded.Config = cfg
		loaded.Exists = true
		loaded.warn(warnings...)
	}

	envWarnings, err := applyEnv(&loaded.Config)
	if err != nil {
		return Loaded{}, err
	}
	loaded.warn(envWarnings...)

	validated, err := Validate(loaded.Config)
	if err != nil {
		return Loaded{}, fmt.Errorf("invalid config %q: %w", path, err)
	}
	loaded.warn(validated...)
	return loaded, nil
}
