// SPDX-License-Identifier: AGPL-3.0-or-later

// Package quality statically classifies step-binding bodies against a closed
// defect taxonomy. A structural parser is used where one is available for the
// target language; elsewhere a language-aware heuristic scanner runs instead,
// disclosing its degraded confidence. The heuristic tier always returns
// results, never refuses.
package quality

// DefectKind is the closed taxonomy of binding defects.
type DefectKind string

const (
	// KindEmptyBody marks a binding whose body holds no executable statement
	// beyond an ignorable placeholder.
	KindEmptyBody DefectKind = "EMPTY_BODY"
	// KindTautology marks a binding whose only assertions test literal truth.
	KindTautology DefectKind = "TAUTOLOGY"
	// KindNoAssertion marks a then-classified binding that neither asserts
	// nor raises.
	KindNoAssertion DefectKind = "NO_ASSERTION"
	// KindParseError marks a file the structural parser could not parse.
	// Analysis continues for the rest of the corpus.
	KindParseError DefectKind = "PARSE_ERROR"
)

// Severity of a finding. ParseError warns; everything else fails.
type Severity string

const (
	SeverityFail Severity = "FAIL"
	SeverityWarn Severity = "WARN"
)

// SeverityOf returns the fixed severity for a defect kind.
func SeverityOf(kind DefectKind) Severity {
	if kind == KindParseError {
		return SeverityWarn
	}
	return SeverityFail
}

// StepKind classifies which step keyword a binding implements.
type StepKind string

const (
	StepGiven StepKind = "given"
	StepWhen  StepKind = "when"
	StepThen  StepKind = "then"
	// StepAny covers registrations that bind any keyword (godog ctx.Step,
	// python @step). Never subject to the NO_ASSERTION check.
	StepAny StepKind = "step"
)

// Binding is a discovered step implementation. Ephemeral: recomputed on every
// analysis pass, never persisted.
type Binding struct {
	Kind  StepKind
	Label string // literal or patterned step text, may be empty
	File  string
	Line  int
	Body  string
	// StmtCount is the number of executable statements in the body after
	// placeholders, comments and documentation-only expressions are removed.
	StmtCount int
}

// Finding is one classified defect. A binding yields at most one finding.
type Finding struct {
	Step     string     `json:"step_label"`
	File     string     `json:"file"`
	Line     int        `json:"line"`
	Kind     DefectKind `json:"defect_kind"`
	Severity Severity   `json:"severity"`
}

// Status is the quality verdict for one analysis pass.
type Status string

const (
	StatusPass    Status = "PASS"
	StatusBlocked Status = "BLOCKED"
)

// Result is the structured quality outcome.
type Result struct {
	Status      Status    `json:"status"`
	TotalSteps  int       `json:"total_steps"`
	QualityPass int       `json:"quality_pass"`
	QualityFail int       `json:"quality_fail"`
	// ParserNote discloses degraded confidence when the heuristic tier ran.
	ParserNote string    `json:"parser_note,omitempty"`
	Details    []Finding `json:"details"`
}
