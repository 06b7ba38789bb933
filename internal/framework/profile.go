// SPDX-License-Identifier: AGPL-3.0-or-later

// Package framework maps a target language/tooling description to a static
// execution profile: how to invoke the ecosystem's test tool in dry-run mode
// and which output grammar recovers step coverage from it.
package framework

// Profile describes one test-execution ecosystem. Profiles are static,
// versioned data; nothing here is computed at runtime.
type Profile struct {
	// Name keys the coverage output grammar for this ecosystem.
	Name string
	// Language is the step-binding source language.
	Language string
	// DryRun is the argv that evaluates bindings without executing assertions.
	// DryRun[0] is the binary probed with LookPath before invocation.
	DryRun []string
}

// Registry is the canonical ordered list of supported ecosystems.
var Registry = []Profile{
	{
		Name:     "behave",
		Language: "python",
		DryRun:   []string{"behave", "--dry-run", "--format", "plain"},
	},
	{
		Name:     "pytest-bdd",
		Language: "python",
		DryRun:   []string{"python", "-m", "pytest", "--collect-only", "-q"},
	},
	{
		Name:     "cucumber-js",
		Language: "javascript",
		DryRun:   []string{"npx", "cucumber-js", "--dry-run", "--format", "summary"},
	},
	{
		Name:     "cucumber-rb",
		Language: "ruby",
		DryRun:   []string{"bundle", "exec", "cucumber", "--dry-run", "--format", "summary"},
	},
	{
		Name:     "cucumber-jvm",
		Language: "java",
		DryRun:   []string{"mvn", "-q", "test", "-Dcucumber.execution.dry-run=true"},
	},
	{
		Name:     "godog",
		Language: "go",
		DryRun:   []string{"go", "test", "-run", "TestFeatures", "-v", "-args", "-godog.dry-run"},
	},
	{
		Name:     "behat",
		Language: "php",
		DryRun:   []string{"vendor/bin/behat", "--dry-run", "--format", "progress"},
	},
	{
		Name:     "specflow",
		Language: "csharp",
		DryRun:   []string{"dotnet", "test", "--no-build", "--", "--dry-run"},
	},
}

// ByName returns the profile with the given name, or nil.
func ByName(name string) *Profile {
	for i := range Registry {
		if Registry[i].Name == name {
			return &Registry[i]
		}
	}
	return nil
}

// ByLanguage returns the first registry profile for a language, or nil.
// Registry order encodes preference when a language has several ecosystems.
func ByLanguage(lang string) *Profile {
	for i := range Registry {
		if Registry[i].Language == lang {
			return &Registry[i]
		}
	}
	return nil
}
