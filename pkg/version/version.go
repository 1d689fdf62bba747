package version

import (
	"fmt"
	"runtime"
	"strings"
)

// Build metadata, stamped with -ldflags "-X camara_chat/pkg/version.Version=...".
var (
	Version   = "dev"
	Commit    = "none"
	Date      = "unknown"
	GoVersion = runtime.Version()
)

const product = "camara_chat"

// Platform reports the GOOS/GOARCH pair the binary was built for.
func Platform() string {
	return runtime.GOOS + "/" + runtime.GOARCH
}

// Release is the version string with a missing value shown as "dev".
func Release() string {
	if v := strings.TrimSpace(Version); v != "" {
		return v
	}
	return "dev"
}

// ShortCommit is the first seven characters of Commit, or "" when the build
// was not stamped.
func ShortCommit() string {
	c := strings.TrimSpace(Commit)
	if c == "" || c == "none" {
		return ""
	}
	if len(c) > 7 {
		c = c[:7]
	}
	return c
}

// Summary is shown in the chat panel footer, e.g. "1.2.0 (abc1234)".
func Summary() string {
	if c := ShortCommit(); c != "" {
		return fmt.Sprintf("%s (%s)", Release(), c)
	}
	return Release()
}

// UserAgent identifies the widget to the chat backend.
func UserAgent() string {
	return fmt.Sprintf("%s/%s (%s)", product, Release(), Platform())
}
