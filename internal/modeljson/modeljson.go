// Package modeljson extracts JSON documents from raw model output. Models
// routinely wrap JSON in markdown fences or prose; callers get back the
// bare document or an error they can wrap as a parse failure.
package modeljson

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoDocument is returned when no JSON object can be located in the text.
var ErrNoDocument = errors.New("no JSON object found in model output")

// Extract returns the first JSON object found in raw model output,
// tolerating markdown code fences and surrounding prose.
func Extract(raw string) (json.RawMessage, error) {
	text := strings.TrimSpace(raw)

	// Strip a fenced block if present.
	if idx := strings.Index(text, "```"); idx >= 0 {
		rest := text[idx+3:]
		rest = strings.TrimPrefix(rest, "json")
		if end := strings.Index(rest, "```"); end >= 0 {
			text = strings.TrimSpace(rest[:end])
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, ErrNoDocument
	}
	doc := json.RawMessage(text[start : end+1])

	if !json.Valid(doc) {
		return nil, errors.New("located JSON object does not parse")
	}
	return doc, nil
}
