package config

import (
	"errors"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

func decodeYAML(content string, payload *filePayload) error {
	dec := yaml.NewDecoder(strings.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(payload); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}

	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return errors.New("multiple YAML documents are not allowed")
	}
	return nil
}
