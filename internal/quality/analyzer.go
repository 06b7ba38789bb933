// SPDX-License-Identifier: AGPL-3.0-or-later
package quality

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// DefaultAssertKeywords is the default assertion-keyword set for the
// NO_ASSERTION check. A call whose name starts with any of these counts as
// verification.
var DefaultAssertKeywords = []string{"assert", "expect", "should", "verify", "check", "require"}

// tier selects how bindings are discovered for one language.
type tier struct {
	exts []string
	// structural is the full syntax-tree extractor; nil means only the
	// heuristic tier is available for this language.
	structural func(path string, src []byte) ([]Binding, error)
	heuristic  func(path string, src []byte) []Binding
	note       string // parser note emitted when the heuristic tier runs
}

// strategies keys capability tiers by target language. Adding a language is
// adding one entry here; the analyzer's control flow never changes.
var strategies = map[string]tier{
	"python": {
		exts:       []string{".py"},
		structural: extractPython,
		heuristic:  scanIndentBlocks,
	},
	"javascript": {
		exts:       []string{".js", ".mjs"},
		structural: extractJavaScript,
		heuristic:  scanBraceBlocks,
	},
	"typescript": {
		exts:       []string{".ts"},
		structural: extractTypeScript,
		heuristic:  scanBraceBlocks,
	},
	"go": {
		exts:       []string{".go"},
		structural: extractGo,
		heuristic:  scanBraceBlocks,
	},
	"ruby": {
		exts:      []string{".rb"},
		heuristic: scanRubyBlocks,
		note:      "no structural parser wired for ruby; heuristic scan, reduced confidence",
	},
	"java": {
		exts:      []string{".java"},
		heuristic: scanBraceBlocks,
		note:      "no structural parser wired for java; heuristic scan, reduced confidence",
	},
	"csharp": {
		exts:      []string{".cs"},
		heuristic: scanBraceBlocks,
		note:      "no structural parser wired for csharp; heuristic scan, reduced confidence",
	},
	"php": {
		exts:      []string{".php"},
		heuristic: scanBraceBlocks,
		note:      "no structural parser wired for php; heuristic scan, reduced confidence",
	},
}

// Analyzer classifies step-binding bodies against the defect taxonomy.
type Analyzer struct {
	log      *zap.Logger
	assertRe *regexp.Regexp
	raiseRe  *regexp.Regexp
}

// NewAnalyzer creates an Analyzer. A nil or empty keyword set uses
// DefaultAssertKeywords.
func NewAnalyzer(log *zap.Logger, assertKeywords []string) *Analyzer {
	if log == nil {
		log = zap.NewNop()
	}
	if len(assertKeywords) == 0 {
		assertKeywords = DefaultAssertKeywords
	}

	var quoted []string
	for _, kw := range assertKeywords {
		quoted = append(quoted, regexp.QuoteMeta(kw))
	}
	// Matches python `assert x`, method/function calls like expect(...),
	// should_be(...), t.verifySomething(...), Assert.True(...).
	assertRe := regexp.MustCompile(`(?i)(^|[^\w.])(` + strings.Join(quoted, "|") + `)\w*\s*[(\s.]`)

	return &Analyzer{
		log:      log,
		assertRe: assertRe,
		raiseRe:  raiseRe,
	}
}

// raiseRe matches failure paths that count as verification for then-steps.
var raiseRe = regexp.MustCompile(`\b(raise|throw)\b|\bpanic\s*\(|\breturn\s+(fmt\.Errorf|errors\.New)\b`)

// AnalyzeDir discovers and classifies every step binding under stepsDir for
// the given target language.
func (a *Analyzer) AnalyzeDir(ctx context.Context, stepsDir, language string) (Result, error) {
	strat, ok := strategies[strings.ToLower(language)]
	if !ok {
		// Unknown language: the heuristic scanner still runs over every
		// source-looking file. Tier two never refuses.
		strat = tier{
			heuristic: scanBraceBlocks,
			note:      fmt.Sprintf("no parser tier for %q; generic heuristic scan, reduced confidence", language),
		}
	}

	files, err := a.collectFiles(stepsDir, strat.exts)
	if err != nil {
		return Result{}, err
	}

	res := Result{Status: StatusPass, ParserNote: strat.note}
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		src, err := os.ReadFile(file)
		if err != nil {
			return res, fmt.Errorf("reading step bindings %s: %w", file, err)
		}

		bindings, finding := a.extract(strat, file, src)
		if finding != nil {
			res.Details = append(res.Details, *finding)
			continue
		}
		for _, b := range bindings {
			res.TotalSteps++
			if f := a.Classify(b); f != nil {
				res.Details = append(res.Details, *f)
			} else {
				res.QualityPass++
			}
		}
	}

	for _, f := range res.Details {
		if f.Severity == SeverityFail {
			res.QualityFail++
		}
	}
	if res.QualityFail > 0 {
		res.Status = StatusBlocked
	}
	return res, nil
}

// extract runs the capability-appropriate tier for one file. A structural
// parse failure becomes a single PARSE_ERROR finding; it never aborts the run.
func (a *Analyzer) extract(strat tier, file string, src []byte) ([]Binding, *Finding) {
	if strat.structural != nil {
		bindings, err := strat.structural(file, src)
		if err != nil {
			a.log.Warn("structural parse failed", zap.String("file", file), zap.Error(err))
			return nil, &Finding{
				Step:     filepath.Base(file),
				File:     file,
				Line:     1,
				Kind:     KindParseError,
				Severity: SeverityOf(KindParseError),
			}
		}
		return bindings, nil
	}
	return strat.heuristic(file, src), nil
}

// Classify applies the defect taxonomy to one binding. Checks short-circuit
// in priority order: an empty body is a stronger signal than a tautology that
// happens to be the only statement.
func (a *Analyzer) Classify(b Binding) *Finding {
	kind := a.classifyKind(b)
	if kind == "" {
		return nil
	}
	return &Finding{
		Step:     b.Label,
		File:     b.File,
		Line:     b.Line,
		Kind:     kind,
		Severity: SeverityOf(kind),
	}
}

func (a *Analyzer) classifyKind(b Binding) DefectKind {
	if b.StmtCount == 0 {
		return KindEmptyBody
	}

	asserts := a.assertionLines(b.Body)
	if len(asserts) > 0 {
		allTautological := true
		for _, line := range asserts {
			if !isTautologicalAssertion(line) {
				allTautological = false
				break
			}
		}
		if allTautological {
			return KindTautology
		}
		return ""
	}

	if b.Kind == StepThen && !a.raiseRe.MatchString(b.Body) {
		return KindNoAssertion
	}
	return ""
}

// assertionLines returns the body lines that contain an assertion-keyword call.
func (a *Analyzer) assertionLines(body string) []string {
	var out []string
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isCommentLine(trimmed) {
			continue
		}
		if a.assertRe.MatchString(" " + trimmed) {
			out = append(out, trimmed)
		}
	}
	return out
}

func (a *Analyzer) collectFiles(stepsDir string, exts []string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(stepsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			base := filepath.Base(path)
			if base == "node_modules" || base == ".git" || base == "vendor" || base == "__pycache__" {
				return filepath.SkipDir
			}
			return nil
		}
		if len(exts) == 0 {
			if sourceLikeExt(path) {
				files = append(files, path)
			}
			return nil
		}
		for _, ext := range exts {
			if strings.EqualFold(filepath.Ext(path), ext) {
				files = append(files, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning step bindings %s: %w", stepsDir, err)
	}
	sort.Strings(files)
	return files, nil
}

func sourceLikeExt(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py", ".js", ".mjs", ".ts", ".go", ".rb", ".java", ".cs", ".php":
		return true
	}
	return false
}

func isCommentLine(trimmed string) bool {
	return strings.HasPrefix(trimmed, "#") ||
		strings.HasPrefix(trimmed, "//") ||
		strings.HasPrefix(trimmed, "/*") ||
		strings.HasPrefix(trimmed, "*")
}
