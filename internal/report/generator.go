// SPDX-License-Identifier: AGPL-3.0-or-later

// Package report renders a run record into the final output document.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bartekus/vetgate/internal/runner"
)

// Formats understood by Render.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// DefaultMaxFieldLength bounds string fields when no limit is configured.
const DefaultMaxFieldLength = 10000

// Generator renders run records.
type Generator struct {
	// MaxFieldLength is the longest string, in bytes, kept verbatim.
	MaxFieldLength int
}

// NewGenerator returns a generator with the given field limit.
func NewGenerator(maxFieldLength int) *Generator {
	if maxFieldLength <= 0 {
		maxFieldLength = DefaultMaxFieldLength
	}
	return &Generator{MaxFieldLength: maxFieldLength}
}

// Render produces the document in the requested format.
func (g *Generator) Render(rec *runner.RunRecord, format string) ([]byte, error) {
	switch format {
	case FormatJSON, "":
		return g.JSON(rec)
	case FormatText:
		return g.Text(rec)
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}

// JSON deep-serializes rec into a generic tree, truncates long strings
// anywhere in it and returns the indented document.
func (g *Generator) JSON(rec *runner.RunRecord) ([]byte, error) {
	tree, err := g.tree(rec)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tree); err != nil {
		return nil, fmt.Errorf("encoding report: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *Generator) tree(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("serializing run record: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, fmt.Errorf("decoding run record: %w", err)
	}
	return g.truncate(tree), nil
}

func (g *Generator) truncate(v any) any {
	switch t := v.(type) {
	case string:
		return Truncate(t, g.MaxFieldLength)
	case map[string]any:
		for k, child := range t {
			t[k] = g.truncate(child)
		}
		return t
	case []any:
		for i, child := range t {
			t[i] = g.truncate(child)
		}
		return t
	default:
		return v
	}
}

// Truncate shortens s to at most limit bytes, cutting on a rune boundary and
// appending a marker with the number of bytes dropped.
func Truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + fmt.Sprintf("...[truncated %d bytes]", len(s)-cut)
}

// detailsNote picks a short human note out of a step's details.
func detailsNote(res runner.StepResult) string {
	if res.Error != "" {
		return oneLine(res.Error)
	}
	m, ok := asMap(res.Details)
	if !ok {
		return ""
	}
	for _, key := range []string{"reason", "error", "message"} {
		if s, ok := m[key].(string); ok && s != "" {
			return oneLine(s)
		}
	}
	return ""
}

func asMap(v any) (map[string]any, bool) {
	if v == nil {
		return nil, false
	}
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false
	}
	return m, true
}

func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return Truncate(s, 100)
}
