package runner

import (
	"github.com/bartekus/vetgate/internal/config"
	"github.com/bartekus/vetgate/internal/finding"
)

// Promote applies the policy gates to a step status. Only WARNING is ever
// promoted, and only when the step's gate flag is set.
func Promote(s Status, gate Gate, gates config.Gates) Status {
	if s != StatusWarning {
		return s
	}
	var fail bool
	switch gate {
	case GateLint:
		fail = gates.FailOnLintCritical
	case GateTypecheck:
		fail = gates.FailOnTypeErrors
	case GateTest:
		fail = gates.FailOnTestFailure
	}
	if fail {
		return StatusFailure
	}
	return s
}

// AuditStatus classifies audit findings against the failure threshold:
// none is SUCCESS, any finding at or above threshold is FAILURE, anything
// else is WARNING.
func AuditStatus(findings []finding.Finding, threshold finding.Severity) Status {
	highest, ok := finding.Highest(findings)
	if !ok {
		return StatusSuccess
	}
	if highest.AtLeast(threshold) {
		return StatusFailure
	}
	return StatusWarning
}
