// File utilities with cross-platform safety and edge case handling
package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/afero"
)

var dangerousChars = regexp.MustCompile(`[<>:"|?*\\/]+`)

// SanitizeFilename creates safe filename for all platforms
func SanitizeFilename(filename string) string {
	// Remove/replace dangerous characters for cross-platform safety
	safe := dangerousChars.ReplaceAllString(filename, "_")

	// Control characters
	safe = strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return '_'
		}
		return r
	}, safe)

	safe = strings.Trim(safe, " .")
	if safe == "" {
		safe = "unnamed"
	}

	return safe
}

// EnsureDirectory creates directory path with proper permissions
func EnsureDirectory(fs afero.Fs, path string) error {
	if path == "" {
		return errors.New("empty path")
	}
	return fs.MkdirAll(path, 0o755)
}

// FormatFileSize returns human-readable size with appropriate units
func FormatFileSize(bytes int64) string {
	const unit = 1024
	if bytes < 0 {
		return "Invalid size"
	}
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	units := []string{"B", "KB", "MB", "GB", "TB"}
	size := float64(bytes)
	i := 0

	for size >= unit && i < len(units)-1 {
		size /= unit
		i++
	}

	// Smart precision based on size
	switch {
	case size >= 100:
		return fmt.Sprintf("%.0f %s", size, units[i])
	case size >= 10:
		return fmt.Sprintf("%.1f %s", size, units[i])
	default:
		return fmt.Sprintf("%.2f %s", size, units[i])
	}
}

// TruncateString shortens text to maxLength runes including suffix,
// preferring to cut at a word boundary.
func TruncateString(text string, maxLength int, suffix string) string {
	runes := []rune(text)
	if maxLength <= 0 {
		return ""
	}
	if len(runes) <= maxLength {
		return text
	}

	suffixRunes := []rune(suffix)
	if len(suffixRunes) >= maxLength {
		return string(suffixRunes[:maxLength])
	}

	cut := string(runes[:maxLength-len(suffixRunes)])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ") + suffix
}
