// SPDX-License-Identifier: AGPL-3.0-or-later
package coverage

import (
	"regexp"
	"strconv"
	"strings"
)

// Counts are the undefined/pending step totals recovered from a dry-run's
// output. Counts a grammar cannot recover stay zero; a tool that ran and
// produced output is never treated as unverifiable.
type Counts struct {
	Undefined int
	Pending   int
}

// Grammar parses one ecosystem's dry-run output. Grammars are pluggable
// strategies keyed by profile name: supporting a ninth framework means adding
// one entry here, not touching the verifier's control flow.
type Grammar func(output string) Counts

var grammars = map[string]Grammar{
	"behave":       parseBehave,
	"pytest-bdd":   parsePytestBDD,
	"cucumber-js":  parseStepsSummary,
	"cucumber-rb":  parseStepsSummary,
	"cucumber-jvm": parseStepsSummary,
	"godog":        parseStepsSummary,
	"behat":        parseStepsSummary,
	"specflow":     parseSpecflow,
}

// grammarFor returns the grammar for a profile name, falling back to the
// cucumber-family steps-summary parser.
func grammarFor(name string) Grammar {
	if g, ok := grammars[name]; ok {
		return g
	}
	return parseStepsSummary
}

var (
	// "6 steps (1 passed, 2 undefined, 1 pending, 2 skipped)" — cucumber-js,
	// cucumber-rb, cucumber-jvm, godog and behat all print this family.
	stepsLineRe = regexp.MustCompile(`(?mi)^\s*\d+ steps? \(([^)]+)\)`)
	bucketRe    = regexp.MustCompile(`(\d+)\s+(undefined|pending)`)

	// behave summary: "10 steps passed, 0 failed, 3 skipped, 2 undefined"
	behaveUndefinedRe = regexp.MustCompile(`(\d+)\s+undefined`)
	behavePendingRe   = regexp.MustCompile(`(\d+)\s+pending`)

	pytestMissingRe   = regexp.MustCompile(`StepDefinitionNotFoundError`)
	specflowMissingRe = regexp.MustCompile(`No matching step definition found`)
)

func parseStepsSummary(output string) Counts {
	var c Counts
	// The steps line appears once per run; take the last occurrence so a
	// rerun-style log still parses.
	matches := stepsLineRe.FindAllStringSubmatch(output, -1)
	if len(matches) == 0 {
		return parseBehave(output) // loose fallback on "N undefined" tokens
	}
	buckets := matches[len(matches)-1][1]
	for _, m := range bucketRe.FindAllStringSubmatch(buckets, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		switch m[2] {
		case "undefined":
			c.Undefined = n
		case "pending":
			c.Pending = n
		}
	}
	return c
}

func parseBehave(output string) Counts {
	var c Counts
	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(line, "steps") {
			continue
		}
		if m := behaveUndefinedRe.FindStringSubmatch(line); m != nil {
			c.Undefined, _ = strconv.Atoi(m[1])
		}
		if m := behavePendingRe.FindStringSubmatch(line); m != nil {
			c.Pending, _ = strconv.Atoi(m[1])
		}
	}
	return c
}

// parsePytestBDD counts collection errors for missing step definitions.
// pytest-bdd has no true dry-run mode; collection is the closest read-only
// probe and each unresolvable step surfaces as one error.
func parsePytestBDD(output string) Counts {
	return Counts{Undefined: len(pytestMissingRe.FindAllString(output, -1))}
}

func parseSpecflow(output string) Counts {
	return Counts{Undefined: len(specflowMissingRe.FindAllString(output, -1))}
}
