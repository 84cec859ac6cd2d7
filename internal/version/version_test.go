package version

import (
	"testing"

	"github.com/fatih/color"
)

func TestDescribePlain(t *testing.T) {
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	t.Cleanup(func() { Version, GitCommit, BuildDate = origVersion, origCommit, origDate })

	Version = "1.2.3"
	GitCommit = "abc123"
	BuildDate = "2026-01-15"
	if got := Describe(false); got != "prefabls 1.2.3 (abc123) built 2026-01-15" {
		t.Fatalf("unexpected banner %q", got)
	}

	GitCommit, BuildDate = "", ""
	if got := Describe(false); got != "prefabls 1.2.3" {
		t.Fatalf("optional fields should be omitted, got %q", got)
	}
}

func TestColoredWithoutColor(t *testing.T) {
	origVersion, origNoColor := Version, color.NoColor
	t.Cleanup(func() { Version, color.NoColor = origVersion, origNoColor })

	color.NoColor = true
	for _, v := range []string{"0.1.0-dev", "1.2.3", "1.0.0-rc.1", "nightly"} {
		Version = v
		if got := Colored(); got != v {
			t.Errorf("Colored() = %q, want %q", got, v)
		}
	}
}
