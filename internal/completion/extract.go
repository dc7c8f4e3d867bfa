// SPDX-License-Identifier: AGPL-3.0-or-later

package completion

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/bartekus/vetgate/internal/finding"
)

var fenceRe = regexp.MustCompile("(?s)```[ \\t]*([A-Za-z0-9_+.-]*)[ \\t]*\\r?\\n(.*?)```")

// ExtractCode pulls source code out of a model response. Fenced blocks are
// preferred; several blocks are concatenated in order with a warning. A
// response without fences is used whole.
func ExtractCode(resp string) (string, []string) {
	matches := fenceRe.FindAllStringSubmatch(resp, -1)
	if len(matches) == 0 {
		return strings.TrimSpace(resp), nil
	}
	var warnings []string
	blocks := make([]string, 0, len(matches))
	for _, m := range matches {
		body := strings.TrimRight(m[2], " \t\r\n")
		if strings.TrimSpace(body) == "" {
			continue
		}
		blocks = append(blocks, body)
	}
	if len(blocks) > 1 {
		warnings = append(warnings, fmt.Sprintf("response contained %d code blocks; concatenated in order", len(blocks)))
	}
	return strings.Join(blocks, "\n\n") + "\n", warnings
}

// ParseFindings reads a JSON array of {severity, description, location}
// objects from a model response. The array may be wrapped in prose or a
// fenced block. Elements missing a field or carrying an unknown severity are
// dropped and reported as warnings.
func ParseFindings(resp string) ([]finding.Finding, []string, error) {
	text := resp
	if m := fenceRe.FindStringSubmatch(resp); m != nil {
		text = m[2]
	}
	items, err := findArray(text)
	if err != nil {
		return nil, nil, err
	}

	findings := []finding.Finding{}
	var warnings []string
	for i, raw := range items {
		f, err := parseFinding(raw)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("dropped finding %d: %v", i, err))
			continue
		}
		findings = append(findings, f)
	}
	return findings, warnings, nil
}

// findArray decodes the first JSON array in text that holds objects. Prose
// such as "found [2] issues" before the array is skipped. An array with no
// objects is used only when nothing better follows it.
func findArray(text string) ([]json.RawMessage, error) {
	var fallback []json.RawMessage
	var firstErr error
	for offset := 0; ; {
		i := strings.IndexByte(text[offset:], '[')
		if i < 0 {
			break
		}
		start := offset + i
		offset = start + 1

		var items []json.RawMessage
		if err := json.NewDecoder(strings.NewReader(text[start:])).Decode(&items); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if len(items) == 0 || hasObject(items) {
			return items, nil
		}
		if fallback == nil {
			fallback = items
		}
	}
	if fallback != nil {
		return fallback, nil
	}
	if firstErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, firstErr)
	}
	return nil, fmt.Errorf("%w: no JSON array in response", ErrMalformedOutput)
}

func hasObject(items []json.RawMessage) bool {
	for _, raw := range items {
		if t := bytes.TrimSpace(raw); len(t) > 0 && t[0] == '{' {
			return true
		}
	}
	return false
}

func parseFinding(raw json.RawMessage) (finding.Finding, error) {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return finding.Finding{}, fmt.Errorf("not an object")
	}
	sevText, ok := obj["severity"].(string)
	if !ok {
		return finding.Finding{}, fmt.Errorf("missing severity")
	}
	sev, err := finding.ParseSeverity(sevText)
	if err != nil {
		return finding.Finding{}, err
	}
	desc, _ := obj["description"].(string)
	if strings.TrimSpace(desc) == "" {
		return finding.Finding{}, fmt.Errorf("missing description")
	}
	loc, ok := obj["location"]
	if !ok || loc == nil {
		return finding.Finding{}, fmt.Errorf("missing location")
	}
	var location string
	switch v := loc.(type) {
	case string:
		location = v
	case float64:
		location = fmt.Sprintf("line %d", int(v))
	default:
		b, _ := json.Marshal(v)
		location = string(b)
	}
	return finding.New(sev, strings.TrimSpace(desc), location), nil
}
