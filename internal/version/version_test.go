package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	oldVersion, oldCommit := Version, GitCommit
	t.Cleanup(func() { Version, GitCommit = oldVersion, oldCommit })

	Version = "1.2.0"
	GitCommit = "0123456789abcdef"

	got := String()
	if !strings.HasPrefix(got, "lightnode 1.2.0 (0123456,") {
		t.Errorf("String() = %q", got)
	}
}

func TestGet(t *testing.T) {
	info := Get()
	if info.GoVersion == "" || info.Platform == "" {
		t.Errorf("Get() = %+v, missing runtime fields", info)
	}
}
