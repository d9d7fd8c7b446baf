// Package jsonutil holds the JSON helpers shared by the LLM pipeline.
package jsonutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var ErrEmptyPayload = errors.New("jsonutil: empty payload")

var (
	fencedJSONRe = regexp.MustCompile("(?is)```json\\s*(.*?)\\s*```")
	fencedAnyRe  = regexp.MustCompile("(?is)```\\s*(.*?)\\s*```")
)

// ExtractJSON isolates the JSON payload from raw model output. Selection
// order: a fenced block labeled json, any fenced block, the whole text.
// The selected payload must be syntactically valid JSON. Already-clean JSON
// passes through unchanged.
func ExtractJSON(text string) (json.RawMessage, error) {
	payload := strings.TrimSpace(text)
	if payload == "" {
		return nil, ErrEmptyPayload
	}
	if m := fencedJSONRe.FindStringSubmatch(payload); m != nil {
		payload = m[1]
	} else if m := fencedAnyRe.FindStringSubmatch(payload); m != nil {
		payload = m[1]
	}
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, ErrEmptyPayload
	}
	if !json.Valid([]byte(payload)) {
		return nil, fmt.Errorf("jsonutil: payload is not valid JSON: %s", Preview(payload))
	}
	return json.RawMessage(payload), nil
}

// MarshalNoEscape encodes v into JSON without escaping <, >, & to their
// \u00XX forms, keeping archived payloads byte-identical to API responses.
func MarshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	// Remove trailing newline from json.Encoder.Encode
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Preview collapses whitespace and truncates s for use in logs and error
// messages.
func Preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	const max = 120
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
