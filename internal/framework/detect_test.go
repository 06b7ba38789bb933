package framework

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(dir, name)), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
}

func TestRegistryIsComplete(t *testing.T) {
	assert.Len(t, Registry, 8)
	seen := map[string]bool{}
	for _, p := range Registry {
		assert.NotEmpty(t, p.Name)
		assert.NotEmpty(t, p.Language)
		assert.NotEmpty(t, p.DryRun)
		assert.False(t, seen[p.Name], "duplicate profile %s", p.Name)
		seen[p.Name] = true
	}
}

func TestDetectDeclaredWins(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "steps.js") // sniffing would say cucumber-js

	p := Detect("behave", dir)
	require.NotNil(t, p)
	assert.Equal(t, "behave", p.Name)

	p = Detect("Go", dir)
	require.NotNil(t, p)
	assert.Equal(t, "godog", p.Name)

	assert.Nil(t, Detect("cobol", dir))
}

func TestDetectSniffsExtensions(t *testing.T) {
	cases := []struct {
		files []string
		want  string
	}{
		{[]string{"steps.py"}, "behave"},
		{[]string{"steps.py", "conftest.py"}, "pytest-bdd"},
		{[]string{"steps.js"}, "cucumber-js"},
		{[]string{"steps.ts"}, "cucumber-js"},
		{[]string{"steps.rb"}, "cucumber-rb"},
		{[]string{"Steps.java"}, "cucumber-jvm"},
		{[]string{"steps_test.go"}, "godog"},
		{[]string{"FeatureContext.php"}, "behat"},
		{[]string{"Steps.cs"}, "specflow"},
		{[]string{"nested/deep/steps.py"}, "behave"},
	}
	for _, tc := range cases {
		dir := t.TempDir()
		for _, f := range tc.files {
			touch(t, dir, f)
		}
		p := Detect("", dir)
		require.NotNil(t, p, "files %v", tc.files)
		assert.Equal(t, tc.want, p.Name, "files %v", tc.files)
	}
}

func TestDetectNoSignal(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "README.md")
	assert.Nil(t, Detect("", dir))
	assert.Nil(t, Detect("", ""))
}

func TestDetectMajorityWins(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.py")
	touch(t, dir, "b.js")
	touch(t, dir, "c.js")

	p := Detect("", dir)
	require.NotNil(t, p)
	assert.Equal(t, "cucumber-js", p.Name)
}
