// Package extract recovers a ContactRecord from free-form model output.
// Vision models rarely return bare JSON: replies arrive wrapped in fenced
// code blocks, surrounded by prose, or salted with invisible characters, so
// recovery runs an ordered chain of candidate extractors before parsing.
package extract

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/starford/mannaz/internal/apperr"
	"github.com/starford/mannaz/internal/models"
)

var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// invisibleReplacer strips the characters models sneak into otherwise valid
// JSON: zero-width spaces and joiners and the BOM vanish, non-breaking
// spaces become plain spaces.
var invisibleReplacer = strings.NewReplacer(
	"​", "",
	"‌", "",
	"‍", "",
	"\uFEFF", "",
	" ", " ",
)

// Contact runs the recovery chain over a raw model reply and decodes the
// first candidate into a ContactRecord. It returns apperr.ErrNoJSONFound
// when no non-empty candidate exists, and an *apperr.JSONParseError carrying
// both candidate and raw reply when decoding fails.
func Contact(raw string) (*models.ContactRecord, error) {
	candidate, ok := Candidate(raw)
	if !ok {
		return nil, apperr.ErrNoJSONFound
	}

	candidate = invisibleReplacer.Replace(candidate)

	var rec models.ContactRecord
	if err := json.Unmarshal([]byte(candidate), &rec); err != nil {
		return nil, &apperr.JSONParseError{Candidate: candidate, Raw: raw, Err: err}
	}
	return &rec, nil
}

// Candidate extracts the most plausible JSON substring from raw, trying each
// stage in priority order. The stages are pure and individually testable:
// fenced block first, then brace slice, then the trimmed text itself.
func Candidate(raw string) (string, bool) {
	text := strings.TrimSpace(strings.TrimPrefix(raw, "\uFEFF"))

	for _, stage := range []func(string) (string, bool){
		fromFence,
		fromBraces,
		fromRaw,
	} {
		if c, ok := stage(text); ok {
			return c, true
		}
	}
	return "", false
}

// fromFence extracts the content of the first ``` fenced block, optionally
// tagged "json".
func fromFence(text string) (string, bool) {
	m := fenceRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	c := strings.TrimSpace(m[1])
	return c, c != ""
}

// fromBraces slices from the first "{" to the last "}" inclusive.
func fromBraces(text string) (string, bool) {
	open := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if open < 0 || end <= open {
		return "", false
	}
	return text[open : end+1], true
}

// fromRaw uses the trimmed text itself as a last resort, so a later parse
// failure reports what the model actually said.
func fromRaw(text string) (string, bool) {
	return text, text != ""
}
