package errors

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	maxModulePathLength = 1024

	// MaxCanvasSide bounds either side of a treemap canvas.
	MaxCanvasSide = 10000
)

// ValidateModulePath checks a module path or package name received from a
// user (CLI argument or query string) before it is looked up.
//
// Bundle paths are allowed to contain ".." segments because files outside
// the project root are reported that way, so only emptiness, length and
// control characters are rejected.
func ValidateModulePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return New(ErrCodeInvalidPath, "module path cannot be empty")
	}
	if len(path) > maxModulePathLength {
		return New(ErrCodeInvalidPath, "module path too long (max %d characters)", maxModulePathLength)
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "module path contains control characters")
		}
	}
	return nil
}

// ValidateCanvas checks treemap canvas dimensions.
func ValidateCanvas(width, height int) error {
	if width <= 0 || height <= 0 {
		return New(ErrCodeInvalidCanvas, "canvas must be positive, got %dx%d", width, height)
	}
	if width > MaxCanvasSide || height > MaxCanvasSide {
		return New(ErrCodeInvalidCanvas, "canvas too large (max %d per side), got %dx%d", MaxCanvasSide, width, height)
	}
	return nil
}

var analysisIDRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// ValidateAnalysisID checks that id is a canonical lowercase UUID.
func ValidateAnalysisID(id string) error {
	if !analysisIDRegex.MatchString(id) {
		return New(ErrCodeInvalidInput, "invalid analysis id: %q", id)
	}
	return nil
}

// ValidateFormat checks that format is one of allowed.
func ValidateFormat(format string, allowed ...string) error {
	for _, a := range allowed {
		if format == a {
			return nil
		}
	}
	return New(ErrCodeInvalidFormat, "unknown format %q (want one of %s)", format, strings.Join(allowed, ", "))
}
