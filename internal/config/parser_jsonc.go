package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

func decodeJSONC(content string, payload *filePayload) error {
	plain, err := stripJSONC(content)
	if err != nil {
		return err
	}

	dec := json.NewDecoder(strings.NewReader(plain))
	dec.DisallowUnknownFields()
	if err := dec.Decode(payload); err != nil {
		return locate(plain, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected content after the config object")
	}
	return nil
}

// stripJSONC blanks comments and trailing commas so encoding/json accepts the
// text. Every byte keeps its offset and line breaks survive, so decode errors
// still point into the original file.
func stripJSONC(src string) (string, error) {
	out := []byte(src)
	comma := -1

	for i := 0; i < len(out); i++ {
		c := out[i]
		switch {
		case c == '"':
			i = stringEnd(out, i)
			comma = -1
		case c == '/' && i+1 < len(out) && out[i+1] == '/':
			end := i
			for end < len(out) && out[end] != '\n' && out[end] != '\r' {
				end++
			}
			blank(out[i:end])
			i = end - 1
		case c == '/' && i+1 < len(out) && out[i+1] == '*':
			n := strings.Index(src[i+2:], "*/")
			if n < 0 {
				return "", errors.New("unterminated block comment in JSONC")
			}
			end := i + 2 + n + 2
			blank(out[i:end])
			i = end - 1
		case c == ',':
			comma = i
		case c == '}' || c == ']':
			if comma >= 0 {
				out[comma] = ' '
			}
			comma = -1
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
		default:
			comma = -1
		}
	}
	return string(out), nil
}

// stringEnd returns the index of the quote closing the string opened at i.
func stringEnd(b []byte, i int) int {
	for j := i + 1; j < len(b); j++ {
		switch b[j] {
		case '\\':
			j++
		case '"':
			return j
		}
	}
	return len(b) - 1
}

func blank(b []byte) {
	for i, c := range b {
		if c != '\n' && c != '\r' && c != '\t' {
			b[i] = ' '
		}
	}
}

// locate prefixes syntax and type errors with their line and column.
func locate(content string, err error) error {
	var offset int64
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		offset = syntaxErr.Offset
	case errors.As(err, &typeErr):
		offset = typeErr.Offset
	default:
		return err
	}
	line, col := lineCol(content, offset)
	return fmt.Errorf("line %d column %d: %w", line, col, err)
}

func lineCol(content string, offset int64) (int, int) {
	n := max(min(int(offset), len(content))-1, 0)
	prefix := content[:n]
	return strings.Count(prefix, "\n") + 1, n - strings.LastIndexByte(prefix, '\n')
}
