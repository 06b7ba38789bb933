// Package golden checks rendered report output against fixtures committed
// under a test package's testdata directory. After an intentional rendering
// change, rerun the tests with -update to rewrite the fixtures.
package golden

import (
	"flag"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// Update rewrites fixtures with the current output instead of comparing.
var Update = flag.Bool("update", false, "rewrite golden fixtures")

// Dir returns the testdata directory next to the calling test file.
func Dir(t *testing.T) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(1)
	if !ok {
		t.Fatalf("runtime.Caller failed")
	}
	return filepath.Join(filepath.Dir(filename), "testdata")
}

// Assert compares got against the fixture <dir>/<name>.golden, or rewrites
// the fixture when -update is set.
func Assert(t *testing.T, dir, name, got string) {
	t.Helper()
	safeName(t, name)

	path := filepath.Join(dir, name+".golden")
	if *Update {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatalf("mkdir testdata: %v", err)
		}
		if err := os.WriteFile(path, []byte(got), 0o600); err != nil {
			t.Fatalf("write golden %s: %v", path, err)
		}
		return
	}

	data, err := os.ReadFile(path) //nolint:gosec // testdata path controlled by test
	if err != nil {
		t.Fatalf("read golden %s: %v (rerun with -update to create it)", path, err)
	}
	if diff := cmp.Diff(string(data), got); diff != "" {
		t.Errorf("%s.golden mismatch (-want +got):\n%s", name, diff)
	}
}

func safeName(t *testing.T, name string) {
	t.Helper()
	if strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		t.Fatalf("invalid golden name %q", name)
	}
}
