// SPDX-License-Identifier: AGPL-3.0-or-later

package report

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bartekus/vetgate/internal/runner"
)

// Parse reads a JSON report back into a run record. Step details come back
// as generic JSON values.
func Parse(data []byte) (*runner.RunRecord, error) {
	var rec runner.RunRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parsing report: %w", err)
	}
	if rec.RunID == "" {
		return nil, errors.New("parsing report: missing run_id")
	}
	if !rec.OverallStatus.Valid() {
		return nil, fmt.Errorf("parsing report: invalid overall_status %q", rec.OverallStatus)
	}
	for i, s := range rec.Steps {
		if !s.Status.Valid() {
			return nil, fmt.Errorf("parsing report: step %d (%s) has invalid status %q", i, s.Name, s.Status)
		}
	}
	return &rec, nil
}
