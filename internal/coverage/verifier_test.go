package coverage

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stepguard/stepguard/internal/framework"
)

func TestParseStepsSummary(t *testing.T) {
	cases := []struct {
		name   string
		output string
		want   Counts
	}{
		{
			name:   "cucumber all matched",
			output: "2 scenarios (2 passed)\n6 steps (6 passed)\n0m0.04s\n",
			want:   Counts{},
		},
		{
			name:   "cucumber undefined and pending",
			output: "2 scenarios (1 undefined, 1 pending)\n6 steps (3 passed, 2 undefined, 1 pending)\n",
			want:   Counts{Undefined: 2, Pending: 1},
		},
		{
			name:   "godog summary",
			output: "--- Failed steps:\n\n3 scenarios (1 passed, 2 undefined)\n9 steps (4 passed, 4 undefined, 1 pending)\n",
			want:   Counts{Undefined: 4, Pending: 1},
		},
		{
			name:   "singular step",
			output: "1 scenario (1 undefined)\n1 step (1 undefined)\n",
			want:   Counts{Undefined: 1},
		},
		{
			name:   "no summary at all",
			output: "garbage output\n",
			want:   Counts{},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, parseStepsSummary(tc.output))
		})
	}
}

func TestParseBehave(t *testing.T) {
	out := "Feature: login\n" +
		"1 feature passed, 0 failed, 0 skipped\n" +
		"2 scenarios passed, 0 failed, 0 skipped\n" +
		"10 steps passed, 0 failed, 3 skipped, 2 undefined\n"
	assert.Equal(t, Counts{Undefined: 2}, parseBehave(out))

	clean := "5 steps passed, 0 failed, 0 skipped, 0 undefined\n"
	assert.Equal(t, Counts{}, parseBehave(clean))
}

func TestParsePytestBDD(t *testing.T) {
	out := "E   pytest_bdd.exceptions.StepDefinitionNotFoundError: Step definition is not found\n" +
		"E   pytest_bdd.exceptions.StepDefinitionNotFoundError: Step definition is not found\n"
	assert.Equal(t, Counts{Undefined: 2}, parsePytestBDD(out))
}

func TestGrammarForUnknownFallsBack(t *testing.T) {
	g := grammarFor("framework-nine")
	assert.Equal(t, Counts{Undefined: 1}, g("3 steps (2 passed, 1 undefined)\n"))
}

func TestRunDegradedWithoutProfile(t *testing.T) {
	v := New(zap.NewNop())
	res := v.Run(context.Background(), 3, t.TempDir(), nil)
	assert.Equal(t, StatusDegraded, res.Status)
	assert.Contains(t, res.Details, "unverifiable")
}

func TestRunDegradedWithoutTool(t *testing.T) {
	v := New(nil)
	p := &framework.Profile{
		Name:     "behave",
		Language: "python",
		DryRun:   []string{"definitely-not-installed-tool-xyz", "--dry-run"},
	}
	res := v.Run(context.Background(), 3, t.TempDir(), p)
	assert.Equal(t, StatusDegraded, res.Status)
	assert.Contains(t, res.Details, "not found")
}

func TestRunResolvesRelativeToolUnderWorkDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stub requires /bin/sh")
	}

	// behat's head is project-relative; it must be probed under workDir, not
	// against the process working directory or PATH.
	workDir := t.TempDir()
	script := filepath.Join(workDir, "vendor", "bin", "behat")
	require.NoError(t, os.MkdirAll(filepath.Dir(script), 0o755))
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho '5 steps (5 passed)'\n"), 0o755))

	res := New(zap.NewNop()).Run(context.Background(), 5, workDir, framework.ByName("behat"))
	assert.Equal(t, StatusPass, res.Status)
	assert.Equal(t, 5, res.Matched)
}

func TestRunDegradedWithoutRelativeTool(t *testing.T) {
	res := New(nil).Run(context.Background(), 3, t.TempDir(), framework.ByName("behat"))
	assert.Equal(t, StatusDegraded, res.Status)
	assert.Contains(t, res.Details, "not found")
}

func TestEvaluate(t *testing.T) {
	v := New(nil)
	p := &framework.Profile{Name: "cucumber-js"}

	res := v.evaluate(6, p, "6 steps (4 passed, 2 undefined)\n")
	assert.Equal(t, StatusBlocked, res.Status)
	assert.Equal(t, 4, res.Matched)
	assert.Equal(t, 2, res.Undefined)

	res = v.evaluate(6, p, "6 steps (6 passed)\n")
	assert.Equal(t, StatusPass, res.Status)
	assert.Equal(t, 6, res.Matched)

	// Matched floors at zero even when the tool reports more missing steps
	// than the corpus declares.
	res = v.evaluate(1, p, "6 steps (2 undefined, 1 pending)\n")
	require.Equal(t, StatusBlocked, res.Status)
	assert.Equal(t, 0, res.Matched)
}
