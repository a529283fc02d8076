// Package version reports the planr build version.
package version

import "strings"

// Version is set at build time with -ldflags "-X github.com/ShayCichocki/planr/internal/version.Version=...".
var Version = "dev"

// Get returns the current version, with whitespace trimmed.
func Get() string {
	if v := strings.TrimSpace(Version); v != "" {
		return v
	}
	return "dev"
}
