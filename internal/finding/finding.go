// SPDX-License-Identifier: AGPL-3.0-or-later

package finding

import (
	"fmt"
	"sort"
	"strings"
)

// Severity is the ordered impact level of a finding.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityInfo:     0,
	SeverityLow:      1,
	SeverityModerate: 2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// Severities returns every severity from lowest to highest.
func Severities() []Severity {
	return []Severity{SeverityInfo, SeverityLow, SeverityModerate, SeverityHigh, SeverityCritical}
}

// ParseSeverity normalizes s into a Severity. "medium" is accepted as an
// alias for moderate since several scanners emit it.
func ParseSeverity(s string) (Severity, error) {
	v := Severity(strings.ToLower(strings.TrimSpace(s)))
	if v == "medium" {
		v = SeverityModerate
	}
	if _, ok := severityRank[v]; !ok {
		return "", fmt.Errorf("unknown severity %q (must be one of info, low, moderate, high, critical)", s)
	}
	return v, nil
}

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	_, ok := severityRank[s]
	return ok
}

// AtLeast reports whether s is at or above threshold.
func (s Severity) AtLeast(threshold Severity) bool {
	return severityRank[s] >= severityRank[threshold]
}

// Finding is a single severity-tagged observation from an audit or a review.
type Finding struct {
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
}

// New builds a finding. Findings are values; callers never mutate them after creation.
func New(sev Severity, description, location string) Finding {
	return Finding{Severity: sev, Description: description, Location: location}
}

// Highest returns the most severe level in fs, and false when fs is empty.
func Highest(fs []Finding) (Severity, bool) {
	if len(fs) == 0 {
		return "", false
	}
	best := fs[0].Severity
	for _, f := range fs[1:] {
		if severityRank[f.Severity] > severityRank[best] {
			best = f.Severity
		}
	}
	return best, true
}

// CountBySeverity tallies findings per severity. Every known severity is present in the result.
func CountBySeverity(fs []Finding) map[Severity]int {
	counts := make(map[Severity]int, len(severityRank))
	for _, s := range Severities() {
		counts[s] = 0
	}
	for _, f := range fs {
		counts[f.Severity]++
	}
	return counts
}

// SortBySeverity returns a copy of fs ordered from most to least severe,
// keeping the original order among equal severities.
func SortBySeverity(fs []Finding) []Finding {
	out := make([]Finding, len(fs))
	copy(out, fs)
	sort.SliceStable(out, func(i, j int) bool {
		return severityRank[out[i].Severity] > severityRank[out[j].Severity]
	})
	return out
}
