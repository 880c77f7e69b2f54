package agent

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoJSON is returned when a completion contains no JSON object.
var ErrNoJSON = errors.New("no valid JSON object found")

// ExtractFinalJSON returns the last complete JSON object embedded in s. Models often
// wrap their answer in prose or code fences, or restate a draft before the final one.
func ExtractFinalJSON(s string) (json.RawMessage, error) {
	var last json.RawMessage
	i := 0
	for i < len(s) {
		start := strings.IndexByte(s[i:], '{')
		if start < 0 {
			break
		}
		i += start

		dec := json.NewDecoder(strings.NewReader(s[i:]))
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			i++
			continue
		}
		last = raw
		i += int(dec.InputOffset())
	}
	if last == nil {
		return nil, ErrNoJSON
	}
	return bytes.TrimSpace(last), nil
}

// decodeFinalJSON extracts the last object in s into v.
func decodeFinalJSON(s string, v any) error {
	raw, err := ExtractFinalJSON(s)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}
