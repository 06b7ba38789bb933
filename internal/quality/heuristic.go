// SPDX-License-Identifier: AGPL-3.0-or-later
package quality

import (
	"regexp"
	"strings"
)

// Heuristic binding scanners for languages without a wired structural parser.
// They delimit bodies by indentation, braces or do/end pairs and always
// return results; confidence is disclosed through the tier's parser note.

var (
	indentMarkerRe = regexp.MustCompile(`^\s*@(?:\w+\.)?(given|when|then|step|and|but)\b`)
	defLineRe      = regexp.MustCompile(`^(\s*)def\s`)

	// @Given("...") annotations (java, php docblocks), [Given(...)] attributes
	// (csharp) and Given(/.../, ...) registration calls.
	braceAnnotRe  = regexp.MustCompile(`^\s*(?:\*\s*)?(?:@|#\[|\[)(Given|When|Then|And|But|Step)\b`)
	braceCallRe   = regexp.MustCompile(`^\s*(Given|When|Then|And|But)\s*\(`)
	rubyMarkerRe  = regexp.MustCompile(`^(\s*)(Given|When|Then|And|But)\s*[(/'"]`)
	stepLabelRe   = regexp.MustCompile("\"([^\"]*)\"|'([^']*)'|`([^`]*)`|/([^/]*)/")
	placeholderRe = regexp.MustCompile(`^(pass|\.\.\.|;|\{|\}|\}\)|\}\);|do|end|begin|return nil;?)$`)
)

func heuristicLabel(line string) string {
	m := stepLabelRe.FindStringSubmatch(line)
	if m == nil {
		return strings.TrimSpace(line)
	}
	for _, g := range m[1:] {
		if g != "" {
			return g
		}
	}
	return strings.TrimSpace(line)
}

// countLooseStmts counts body lines that look executable: not blank, not a
// comment, not a docstring, not a bare placeholder.
func countLooseStmts(lines []string) int {
	count := 0
	inDocstring := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, `"""`) || strings.HasPrefix(trimmed, "'''") {
			// Toggle unless the docstring opens and closes on one line.
			if !(len(trimmed) >= 6 && (strings.HasSuffix(trimmed, `"""`) || strings.HasSuffix(trimmed, "'''"))) {
				inDocstring = !inDocstring
			}
			continue
		}
		if inDocstring {
			continue
		}
		if isCommentLine(trimmed) || placeholderRe.MatchString(trimmed) {
			continue
		}
		count++
	}
	return count
}

func indentWidth(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

// scanIndentBlocks finds decorator-marked step functions delimited by
// indentation (python shape).
func scanIndentBlocks(path string, src []byte) []Binding {
	lines := strings.Split(string(src), "\n")
	var bindings []Binding

	for i := 0; i < len(lines); i++ {
		m := indentMarkerRe.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}
		kind, _ := stepKindFromName(m[1])
		label := heuristicLabel(lines[i])

		// Skip past further decorators to the def line.
		j := i + 1
		for j < len(lines) && !defLineRe.MatchString(lines[j]) {
			if !indentMarkerRe.MatchString(lines[j]) && strings.TrimSpace(lines[j]) != "" {
				break
			}
			j++
		}
		if j >= len(lines) || !defLineRe.MatchString(lines[j]) {
			continue
		}

		defIndent := indentWidth(lines[j])
		var body []string
		k := j + 1
		for ; k < len(lines); k++ {
			if strings.TrimSpace(lines[k]) == "" {
				body = append(body, lines[k])
				continue
			}
			if indentWidth(lines[k]) <= defIndent {
				break
			}
			body = append(body, lines[k])
		}

		bindings = append(bindings, Binding{
			Kind:      kind,
			Label:     label,
			File:      path,
			Line:      j + 1,
			Body:      strings.Join(body, "\n"),
			StmtCount: countLooseStmts(body),
		})
		i = k - 1
	}
	return bindings
}

// scanBraceBlocks finds annotation- or call-marked step bodies delimited by
// braces (java, csharp, php, javascript shapes).
func scanBraceBlocks(path string, src []byte) []Binding {
	lines := strings.Split(string(src), "\n")
	var bindings []Binding

	for i := 0; i < len(lines); i++ {
		var kindName string
		if m := braceAnnotRe.FindStringSubmatch(lines[i]); m != nil {
			kindName = m[1]
		} else if m := braceCallRe.FindStringSubmatch(lines[i]); m != nil {
			kindName = m[1]
		} else {
			continue
		}
		kind, ok := stepKindFromName(kindName)
		if !ok {
			continue
		}
		label := heuristicLabel(lines[i])

		body, next := captureBraceBody(lines, i)
		if body == nil {
			continue
		}

		bindings = append(bindings, Binding{
			Kind:      kind,
			Label:     label,
			File:      path,
			Line:      i + 1,
			Body:      strings.Join(body, "\n"),
			StmtCount: countLooseStmts(body),
		})
		i = next
	}
	return bindings
}

// captureBraceBody returns the lines strictly between the first opening
// brace at or after start and its match, plus the index of the closing line.
// The opening brace is searched within a few lines so annotation markers find
// the method body that follows them.
func captureBraceBody(lines []string, start int) ([]string, int) {
	open := -1
	for i := start; i < len(lines) && i <= start+8; i++ {
		if strings.Contains(lines[i], "{") {
			open = i
			break
		}
	}
	if open == -1 {
		return nil, start
	}

	depth := 0
	var body []string
	for i := open; i < len(lines); i++ {
		for _, ch := range lines[i] {
			switch ch {
			case '{':
				depth++
			case '}':
				depth--
			}
		}
		if i == open {
			if depth <= 0 {
				// One-line body: everything between the outer braces.
				l := strings.Index(lines[i], "{")
				r := strings.LastIndex(lines[i], "}")
				if l >= 0 && r > l+1 {
					if inner := strings.TrimSpace(lines[i][l+1 : r]); inner != "" {
						body = append(body, inner)
					}
				}
				return body, i
			}
			continue
		}
		if depth <= 0 {
			return body, i
		}
		body = append(body, lines[i])
	}
	return body, len(lines) - 1
}

// scanRubyBlocks finds Given/When/Then registrations with do/end or brace
// blocks (cucumber-rb shape).
func scanRubyBlocks(path string, src []byte) []Binding {
	lines := strings.Split(string(src), "\n")
	var bindings []Binding

	for i := 0; i < len(lines); i++ {
		m := rubyMarkerRe.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}
		indent, kindName := m[1], m[2]
		kind, _ := stepKindFromName(kindName)
		label := heuristicLabel(lines[i])

		var body []string
		end := i
		if strings.Contains(lines[i], "{") && !strings.Contains(lines[i], "do") {
			body, end = captureBraceBody(lines, i)
		} else {
			for j := i + 1; j < len(lines); j++ {
				trimmed := strings.TrimSpace(lines[j])
				if trimmed == "end" && indentWidth(lines[j]) <= len(indent) {
					end = j
					break
				}
				body = append(body, lines[j])
				end = j
			}
		}

		bindings = append(bindings, Binding{
			Kind:      kind,
			Label:     label,
			File:      path,
			Line:      i + 1,
			Body:      strings.Join(body, "\n"),
			StmtCount: countLooseStmts(body),
		})
		i = end
	}
	return bindings
}
