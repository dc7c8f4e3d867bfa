// SPDX-License-Identifier: AGPL-3.0-or-later

package report

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bartekus/vetgate/internal/runner"
)

type emergencyStep struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

type emergencyDoc struct {
	RunID         string          `json:"run_id"`
	StartTime     string          `json:"start_time"`
	TargetRoot    string          `json:"target_root"`
	TargetFile    string          `json:"target_file"`
	Steps         []emergencyStep `json:"steps"`
	OverallStatus string          `json:"overall_status"`
	Error         string          `json:"error"`
	Emergency     bool            `json:"emergency"`
}

// Emergency builds a minimal JSON document from rec. It only serializes
// plain strings, so it cannot fail; the document always reports FAILURE.
func Emergency(rec *runner.RunRecord, cause error) []byte {
	doc := emergencyDoc{
		OverallStatus: string(runner.StatusFailure),
		Error:         "report generation failed",
		Emergency:     true,
		Steps:         []emergencyStep{},
	}
	if cause != nil {
		doc.Error = Truncate(fmt.Sprintf("report generation failed: %v", cause), DefaultMaxFieldLength)
	}
	if rec != nil {
		doc.RunID = rec.RunID
		doc.StartTime = rec.StartTime.UTC().Format(time.RFC3339)
		doc.TargetRoot = rec.TargetRoot
		doc.TargetFile = rec.TargetFile
		for _, s := range rec.Steps {
			doc.Steps = append(doc.Steps, emergencyStep{Name: s.Name, Status: string(s.Status)})
		}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return []byte("{\"overall_status\": \"FAILURE\", \"emergency\": true}\n")
	}
	return append(data, '\n')
}
