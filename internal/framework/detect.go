// SPDX-License-Identifier: AGPL-3.0-or-later
package framework

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// langAliases maps accepted language/tool tokens to a registry profile name.
var langAliases = map[string]string{
	"behave":      "behave",
	"pytest-bdd":  "pytest-bdd",
	"pytest_bdd":  "pytest-bdd",
	"cucumber-js": "cucumber-js",
	"cucumberjs":  "cucumber-js",
	"cucumber-rb": "cucumber-rb",
	"cucumber":    "cucumber-rb",
	"cucumber-jvm": "cucumber-jvm",
	"godog":       "godog",
	"behat":       "behat",
	"specflow":    "specflow",

	"python":     "behave",
	"javascript": "cucumber-js",
	"typescript": "cucumber-js",
	"js":         "cucumber-js",
	"ts":         "cucumber-js",
	"ruby":       "cucumber-rb",
	"java":       "cucumber-jvm",
	"go":         "godog",
	"golang":     "godog",
	"php":        "behat",
	"csharp":     "specflow",
	"c#":         "specflow",
	"dotnet":     "specflow",
}

var extProfiles = map[string]string{
	".py":   "behave",
	".js":   "cucumber-js",
	".mjs":  "cucumber-js",
	".ts":   "cucumber-js",
	".rb":   "cucumber-rb",
	".java": "cucumber-jvm",
	".go":   "godog",
	".php":  "behat",
	".cs":   "specflow",
}

// Detect resolves a profile for the step-binding directory.
//
// An explicit declaration always wins. With no declaration the binding
// directory is sniffed by file extension. With no signal at all the result is
// nil: the caller reports "unverifiable", never a guess.
func Detect(declared, stepsDir string) *Profile {
	if declared != "" {
		if name, ok := langAliases[strings.ToLower(strings.TrimSpace(declared))]; ok {
			return ByName(name)
		}
		return nil
	}
	return sniff(stepsDir)
}

// sniff inspects source file extensions under stepsDir and picks the profile
// of the most common recognized extension.
func sniff(stepsDir string) *Profile {
	if stepsDir == "" {
		return nil
	}

	counts := map[string]int{}
	hasConftest := false
	_ = filepath.WalkDir(stepsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil //nolint:nilerr // unreadable entries just don't count
		}
		if filepath.Base(path) == "conftest.py" {
			hasConftest = true
		}
		if name, ok := extProfiles[strings.ToLower(filepath.Ext(path))]; ok {
			counts[name]++
		}
		return nil
	})
	if len(counts) == 0 {
		return nil
	}

	best, bestCount := "", 0
	// Registry order breaks ties deterministically.
	for _, p := range Registry {
		if counts[p.Name] > bestCount {
			best, bestCount = p.Name, counts[p.Name]
		}
	}

	// A conftest.py next to python bindings indicates pytest-bdd over behave.
	if best == "behave" && hasConftest {
		return ByName("pytest-bdd")
	}
	return ByName(best)
}
