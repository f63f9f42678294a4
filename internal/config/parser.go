package config

import (
	"path/filepath"
	"strings"
)

// Format is a config file syntax.
type Format string

const (
	FormatJSONC Format = "jsonc"
	FormatYAML  Format = "yaml"
)

// FormatFor picks the syntax from path's extension. Anything other than
// .yaml or .yml is read as JSONC.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSONC
}

// Parse reads JSONC content over base and validates the result.
func Parse(content string, base Config) (Config, []Warning, error) {
	return ParseFormat(FormatJSONC, content, base)
}

// ParseFormat reads content in the given syntax over base and validates the
// result.
func ParseFormat(format Format, content string, base Config) (Config, []Warning, error) {
	cfg, warnings, err := decode(format, content, base)
	if err != nil {
		return Config{}, nil, err
	}
	validated, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, append(warnings, validated...), nil
}

// decode applies content over base without validating.
func decode(format Format, content string, base Config) (Config, []Warning, error) {
	if strings.TrimSpace(content) == "" {
		return base, nil, nil
	}

	var (
		payload filePayload
		err     error
	)
	switch format {
	case FormatYAML:
		err = decodeYAML(content, &payload)
	default:
		err = decodeJSONC(content, &payload)
	}
	if err != nil {
		return Config{}, nil, err
	}

	cfg := base
	return cfg, payload.applyTo(&cfg), nil
}
