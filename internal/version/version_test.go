package version

import "testing"

func TestString(t *testing.T) {
	Version, Commit, Date = "v0.3.0", "abc123", "2025-02-15"
	t.Cleanup(func() { Version, Commit, Date = "dev", "unknown", "unknown" })

	if got, want := String(), "v0.3.0 (commit abc123, built 2025-02-15)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
