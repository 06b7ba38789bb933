// SPDX-License-Identifier: AGPL-3.0-or-later

// Package coverage reconciles the declared step corpus against discovered
// implementation bindings by invoking the target ecosystem's test tool in
// dry-run mode and parsing its output.
package coverage

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/stepguard/stepguard/internal/framework"
)

// Status is the coverage verdict for one run.
type Status string

const (
	// StatusPass means every declared step resolved to a binding.
	StatusPass Status = "PASS"
	// StatusBlocked means undefined or pending steps remain.
	StatusBlocked Status = "BLOCKED"
	// StatusDegraded means coverage could not be verified at all (no profile
	// or no installed tool). Unverifiable is not broken; exit code stays 0.
	StatusDegraded Status = "DEGRADED"
)

// Result is the structured coverage outcome.
type Result struct {
	Status    Status `json:"status"`
	Matched   int    `json:"matched"`
	Undefined int    `json:"undefined"`
	Pending   int    `json:"pending"`
	Details   string `json:"details,omitempty"`
}

// Verifier runs framework dry-runs. One subprocess at a time, bounded by the
// caller's context; a hung tool is the context's problem, never retried.
type Verifier struct {
	log *zap.Logger
}

// New creates a Verifier.
func New(log *zap.Logger) *Verifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Verifier{log: log}
}

// Run verifies coverage of totalSteps declared steps using the profile's
// dry-run, invoked from workDir (the directory holding features and step
// bindings). A nil profile or a missing tool degrades rather than fails.
func (v *Verifier) Run(ctx context.Context, totalSteps int, workDir string, p *framework.Profile) Result {
	if p == nil {
		return Result{
			Status:  StatusDegraded,
			Details: "no framework profile resolved; step coverage is unverifiable",
		}
	}

	tool := p.DryRun[0]
	if err := lookupTool(tool, workDir); err != nil {
		return Result{
			Status:  StatusDegraded,
			Details: fmt.Sprintf("%s not found; step coverage is unverifiable", tool),
		}
	}

	v.log.Debug("invoking dry-run",
		zap.String("profile", p.Name),
		zap.Strings("argv", p.DryRun),
		zap.String("dir", workDir))

	cmd := exec.CommandContext(ctx, tool, p.DryRun[1:]...) //nolint:gosec // argv is static registry data
	cmd.Dir = workDir
	out, runErr := cmd.CombinedOutput()
	if runErr != nil {
		// Dry-runs exit non-zero when steps are undefined; the output is
		// still the source of truth. Parse what can be parsed.
		v.log.Debug("dry-run exited non-zero", zap.String("profile", p.Name), zap.Error(runErr))
	}

	return v.evaluate(totalSteps, p, string(out))
}

// lookupTool probes the dry-run head before spawning it. A head containing a
// path separator is a project-relative tool (behat's vendor/bin/behat) and
// lives under workDir, where the dry-run itself runs; a bare name resolves on
// PATH.
func lookupTool(tool, workDir string) error {
	if strings.ContainsAny(tool, `/\`) {
		_, err := os.Stat(filepath.Join(workDir, tool))
		return err
	}
	_, err := exec.LookPath(tool)
	return err
}

func (v *Verifier) evaluate(totalSteps int, p *framework.Profile, output string) Result {
	counts := grammarFor(p.Name)(output)

	matched := totalSteps - counts.Undefined - counts.Pending
	if matched < 0 {
		matched = 0
	}

	res := Result{
		Matched:   matched,
		Undefined: counts.Undefined,
		Pending:   counts.Pending,
	}
	if counts.Undefined+counts.Pending > 0 {
		res.Status = StatusBlocked
		var parts []string
		if counts.Undefined > 0 {
			parts = append(parts, fmt.Sprintf("%d undefined", counts.Undefined))
		}
		if counts.Pending > 0 {
			parts = append(parts, fmt.Sprintf("%d pending", counts.Pending))
		}
		res.Details = fmt.Sprintf("%s step(s) reported by %s dry-run", strings.Join(parts, ", "), p.Name)
	} else {
		res.Status = StatusPass
		res.Details = fmt.Sprintf("all %d step(s) matched by %s dry-run", matched, p.Name)
	}
	return res
}
