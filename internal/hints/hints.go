// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"runtime"
	"strings"
)

// GOOS is the platform the install hint is written for. Tests override it.
var GOOS = runtime.GOOS

// ForPoppler returns installation hints for a missing pdftoppm/pdfinfo.
func ForPoppler() string {
	switch GOOS {
	case "darwin":
		return format("install Poppler: brew install poppler")
	case "windows":
		return format("install Poppler (e.g. choco install poppler) and add its bin directory to PATH")
	case "linux":
		return formatHints([]string{
			"install Poppler: sudo apt-get install poppler-utils (Debian/Ubuntu) or sudo dnf install poppler-utils (Fedora)",
			"or point --pdftoppm at the binary",
		})
	default:
		return format("install Poppler's pdftoppm or point --pdftoppm at the binary")
	}
}

// ForTimeout returns a hint about raising the per-page timeout.
func ForTimeout() string {
	return format("for very large pages, raise --timeout or lower --width")
}

// ForNoPages returns a hint for runs where nothing could be rasterized.
func ForNoPages() string {
	return format("check that the file is a readable, unencrypted PDF (try: pdfinfo <file>)")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
