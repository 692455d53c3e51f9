package version

import "testing"

func TestString(t *testing.T) {
	origV, origSHA, origBuilt := Version, GitSHA, BuildTime
	defer func() { Version, GitSHA, BuildTime = origV, origSHA, origBuilt }()

	Version, GitSHA, BuildTime = "1.2.0", "abc1234", "2026-10-14T08:00:00Z"
	want := "irdecode 1.2.0 (abc1234, built 2026-10-14T08:00:00Z)"
	if got := String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
