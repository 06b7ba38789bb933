// SPDX-License-Identifier: AGPL-3.0-or-later
package quality

import (
	"regexp"
	"strings"
)

// Tautology detection: assertions whose truth value is fixed at authoring
// time. Recognized shapes are a closed set per the defect taxonomy, not a
// general constant-expression evaluator.

var (
	// assert True / assert not False / assert 1 / assert 1 == 1, "msg"
	pyAssertStmtRe = regexp.MustCompile(`(?i)^\s*assert\s+(.+?)\s*(,.*)?$`)
	// assertTrue(True), assert_true(true), assertThat(true), assert(true)
	callAssertRe = regexp.MustCompile(`(?i)\bassert(?:true|that|_true)?\s*\(\s*([^(),]+?)\s*[),]`)
	// Assert.True(true), Assert.IsTrue(1)
	msAssertRe = regexp.MustCompile(`(?i)\bassert\s*\.\s*(?:istrue|true)\s*\(\s*(true|1)\s*\)`)
	// expect(true).toBe(true); expect(true).to.be.true; expect(true).to be true
	expectTautRe = regexp.MustCompile(`(?i)^\s*expect\s*\(\s*(?:true|1)\s*\)(?:\s*\.\s*\w+|\s+be|\s+true)*\s*(?:\(\s*(?:true|1)\s*\))?\s*;?\s*$`)

	numEqRe = regexp.MustCompile(`^(\d+)\s*==\s*(\d+)$`)
)

// isLiteralTruth reports whether expr is a literal that can never evaluate
// falsy at run time.
func isLiteralTruth(expr string) bool {
	e := strings.ToLower(strings.TrimSpace(expr))
	for strings.HasPrefix(e, "(") && strings.HasSuffix(e, ")") {
		e = strings.TrimSpace(e[1 : len(e)-1])
	}
	switch e {
	case "true", "not false", "1":
		return true
	}
	if m := numEqRe.FindStringSubmatch(e); m != nil && m[1] == m[2] {
		return true
	}
	return false
}

// isTautologicalAssertion reports whether one assertion line tests only
// literal truth.
func isTautologicalAssertion(line string) bool {
	trimmed := strings.TrimSpace(line)

	if expectTautRe.MatchString(trimmed) {
		return true
	}
	if msAssertRe.MatchString(trimmed) {
		return true
	}
	if m := callAssertRe.FindStringSubmatch(trimmed); m != nil {
		return isLiteralTruth(m[1])
	}
	if m := pyAssertStmtRe.FindStringSubmatch(trimmed); m != nil {
		return isLiteralTruth(m[1])
	}
	return false
}
