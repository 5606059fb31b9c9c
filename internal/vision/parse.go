// Package vision asks a multimodal model which furniture items a photo contains
// and turns its free-text answer into detection records.
package vision

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hyperjump/mitsumori/internal/models"
)

// ErrNoArray is returned when the model text contains no complete JSON array.
var ErrNoArray = errors.New("no JSON array found")

// ParseError is a model answer that could not be turned into detections. Raw holds
// the full model text for diagnostics.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse detections: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ExtractJSONArray returns the first balanced [...] in text. Brackets inside JSON
// strings are ignored, so prose before or after the array and markdown fences are skipped.
func ExtractJSONArray(text string) (string, error) {
	start := -1
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if start < 0 {
			if c == '[' {
				start = i
				depth = 1
			}
			continue
		}
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", ErrNoArray
}

// ParseDetections extracts and decodes the detection array from model text. It does
// not validate the records; see models.ValidateDetections.
func ParseDetections(text string) ([]models.RawDetection, error) {
	arr, err := ExtractJSONArray(text)
	if err != nil {
		return nil, &ParseError{Raw: text, Err: err}
	}
	var raw []models.RawDetection
	if err := json.Unmarshal([]byte(arr), &raw); err != nil {
		return nil, &ParseError{Raw: text, Err: err}
	}
	return raw, nil
}
