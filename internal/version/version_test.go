package version

import "testing"

func TestString(t *testing.T) {
	old, oldCommit := Version, Commit
	defer func() { Version, Commit = old, oldCommit }()

	Version, Commit = "1.2.3", "abc123"
	if got := String(); got != "1.2.3 (abc123)" {
		t.Errorf("String() = %q", got)
	}
}
