package version

import (
	"strings"
	"testing"
)

func stamp(t *testing.T, version, commit string) {
	t.Helper()
	prevVersion, prevCommit := Version, Commit
	t.Cleanup(func() { Version, Commit = prevVersion, prevCommit })
	Version, Commit = version, commit
}

func TestSummary(t *testing.T) {
	tests := []struct {
		name    string
		version string
		commit  string
		want    string
	}{
		{"unstamped", "dev", "none", "dev"},
		{"empty version", " ", "", "dev"},
		{"long commit", "1.2.0", "abc1234def5678", "1.2.0 (abc1234)"},
		{"short commit", "1.2.0", "abc", "1.2.0 (abc)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stamp(t, tt.version, tt.commit)
			if got := Summary(); got != tt.want {
				t.Errorf("Summary() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUserAgent(t *testing.T) {
	stamp(t, "1.2.0", "none")

	got := UserAgent()
	if !strings.HasPrefix(got, "camara_chat/1.2.0 (") {
		t.Errorf("UserAgent() = %q", got)
	}
	if !strings.Contains(got, Platform()) {
		t.Errorf("UserAgent() = %q, want platform %q", got, Platform())
	}
}
