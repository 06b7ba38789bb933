// SPDX-License-Identifier: AGPL-3.0-or-later

// Package verdict aggregates integrity, coverage and quality outcomes into a
// single enforcement decision. The integrity decision table is evaluated top
// to bottom, first match wins; coverage and quality are layered on top as
// independent gates.
package verdict

import (
	"fmt"

	"github.com/stepguard/stepguard/internal/coverage"
	"github.com/stepguard/stepguard/internal/integrity"
	"github.com/stepguard/stepguard/internal/quality"
)

// Policy is the externally supplied enforcement level.
type Policy string

const (
	PolicyMandatory Policy = "mandatory"
	PolicyOptional  Policy = "optional"
	PolicyForbidden Policy = "forbidden"
)

// ParsePolicy validates a policy token.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyMandatory, PolicyOptional, PolicyForbidden:
		return Policy(s), nil
	}
	return "", fmt.Errorf("unknown policy %q (want mandatory, optional or forbidden)", s)
}

// Status is the overall enforcement outcome.
type Status string

const (
	StatusPass    Status = "PASS"
	StatusWarn    Status = "WARN"
	StatusBlocked Status = "BLOCKED"
)

// rank orders statuses by severity for worst-of aggregation.
func rank(s Status) int {
	switch s {
	case StatusBlocked:
		return 2
	case StatusWarn:
		return 1
	}
	return 0
}

// Worse returns the more severe of two statuses.
func Worse(a, b Status) Status {
	if rank(b) > rank(a) {
		return b
	}
	return a
}

// IntegrityInputs are the tamper-evidence signals feeding the decision table.
type IntegrityInputs struct {
	Record integrity.VerifyStatus
	Anchor integrity.VerifyStatus
	Drift  integrity.DriftStatus
	Policy Policy
}

// Decide evaluates the integrity decision table. Only step-line drift is
// tamper evidence; an untracked corpus cannot have drifted yet, so it falls
// through to the digest/anchor rows and is judged on verifiability alone.
func Decide(in IntegrityInputs) (Status, string) {
	if in.Record == integrity.StatusInvalid || in.Anchor == integrity.StatusInvalid {
		return StatusBlocked, "assertions modified since verification"
	}
	if in.Drift == integrity.DriftModified {
		return StatusBlocked, "uncommitted changes to assertions"
	}
	if in.Record != integrity.StatusValid && in.Anchor != integrity.StatusValid {
		if in.Policy == PolicyMandatory {
			return StatusBlocked, "verification mandatory but unverifiable"
		}
		return StatusWarn, "unverifiable, verification optional"
	}
	return StatusPass, ""
}

// Checks carries the per-gate statuses reported alongside the overall verdict.
type Checks struct {
	Integrity Status `json:"integrity"`
	Coverage  Status `json:"coverage"`
	Quality   Status `json:"quality"`
}

// Verdict is the aggregated enforcement outcome. Computed fresh on every
// invocation; persisting it is the caller's business.
type Verdict struct {
	Overall Status `json:"overall_status"`
	Reason  string `json:"reason,omitempty"`
	Checks  Checks `json:"checks"`
}

// Aggregate layers the coverage and quality gates over the integrity
// decision. A BLOCKED gate blocks the verdict; degraded coverage softens to
// WARN so an uninstalled tool never blocks enforcement.
func Aggregate(in IntegrityInputs, cov coverage.Result, qual quality.Result) Verdict {
	integStatus, reason := Decide(in)

	v := Verdict{
		Overall: integStatus,
		Reason:  reason,
		Checks: Checks{
			Integrity: integStatus,
			Coverage:  FromCoverage(cov.Status),
			Quality:   FromQuality(qual.Status),
		},
	}

	if v.Checks.Coverage == StatusBlocked && v.Overall != StatusBlocked {
		v.Overall = StatusBlocked
		v.Reason = "undefined or pending steps"
	}
	if v.Checks.Quality == StatusBlocked && v.Overall != StatusBlocked {
		v.Overall = StatusBlocked
		v.Reason = "step bindings fail quality checks"
	}
	v.Overall = Worse(v.Overall, Worse(v.Checks.Coverage, v.Checks.Quality))

	// A gate that raised the outcome must explain it; degraded coverage is
	// the only gate that warns without a Decide reason.
	if v.Overall == StatusWarn && v.Reason == "" && v.Checks.Coverage == StatusWarn {
		v.Reason = cov.Details
		if v.Reason == "" {
			v.Reason = "step coverage unverifiable"
		}
	}
	return v
}

// FromCoverage maps a coverage status into the verdict domain. Degraded
// coverage is a warning: an uninstalled tool never blocks enforcement.
func FromCoverage(s coverage.Status) Status {
	switch s {
	case coverage.StatusBlocked:
		return StatusBlocked
	case coverage.StatusDegraded:
		return StatusWarn
	}
	return StatusPass
}

// FromQuality maps a quality status into the verdict domain.
func FromQuality(s quality.Status) Status {
	if s == quality.StatusBlocked {
		return StatusBlocked
	}
	return StatusPass
}
