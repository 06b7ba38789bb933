// SPDX-License-Identifier: AGPL-3.0-or-later
package commands

import (
	"fmt"
	"io"

	"github.com/stepguard/stepguard/internal/coverage"
	"github.com/stepguard/stepguard/internal/quality"
	"github.com/stepguard/stepguard/internal/verdict"
)

func renderCoverage(w io.Writer, res coverage.Result) {
	fmt.Fprintf(w, "status: %s\n", res.Status)
	fmt.Fprintf(w, "matched: %d  undefined: %d  pending: %d\n", res.Matched, res.Undefined, res.Pending)
	if res.Details != "" {
		fmt.Fprintf(w, "detail: %s\n", res.Details)
	}
}

func renderQuality(w io.Writer, res quality.Result) {
	fmt.Fprintf(w, "status: %s\n", res.Status)
	fmt.Fprintf(w, "steps: %d total, %d pass, %d fail\n", res.TotalSteps, res.QualityPass, res.QualityFail)
	if res.ParserNote != "" {
		fmt.Fprintf(w, "note: %s\n", res.ParserNote)
	}
	for _, f := range res.Details {
		fmt.Fprintf(w, "%s %s %s:%d %q\n", f.Severity, f.Kind, f.File, f.Line, f.Step)
	}
}

func renderVerdict(w io.Writer, v verdict.Verdict, outcomes []verdict.Outcome) {
	for _, o := range outcomes {
		if o.Detail != "" {
			fmt.Fprintf(w, "%-10s %s (%s)\n", o.Name, o.Status, o.Detail)
		} else {
			fmt.Fprintf(w, "%-10s %s\n", o.Name, o.Status)
		}
	}
	if v.Reason != "" {
		fmt.Fprintf(w, "verdict: %s (%s)\n", v.Overall, v.Reason)
	} else {
		fmt.Fprintf(w, "verdict: %s\n", v.Overall)
	}
}
