package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// fileKeyRegex matches document file keys as they appear in share URLs.
// Keys are opaque alphanumeric handles, typically 22 characters.
var fileKeyRegex = regexp.MustCompile(`^[A-Za-z0-9]{10,128}$`)

// ValidateFileKey validates a document file key for safety and plausibility.
// It rejects keys that could be used for path traversal or URL injection,
// since keys are interpolated into API paths and cache filenames.
func ValidateFileKey(key string) error {
	if key == "" {
		return New(ErrCodeInvalidFileKey, "file key cannot be empty")
	}

	if !fileKeyRegex.MatchString(key) {
		return New(ErrCodeInvalidFileKey, "invalid file key: %q", key)
	}

	return nil
}

// nodeIDRegex matches node ids like "1:2", "0:1", and instance-scoped ids
// like "I12:3;4:5".
var nodeIDRegex = regexp.MustCompile(`^I?[0-9]+:[0-9]+(;[0-9]+:[0-9]+)*$`)

// ValidateNodeID validates a node id within a document.
//
// The validation rules are intentionally conservative:
//   - No empty ids
//   - No control characters
//   - Must match the id grammar used by design documents
//
// Node ids are user-supplied on the command line and then embedded in API
// query strings, so anything outside the grammar is rejected up front.
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidNode, "node id cannot be empty")
	}

	if len(id) > 256 {
		return New(ErrCodeInvalidNode, "node id too long (max 256 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidNode, "node id contains invalid control characters")
		}
	}

	if !nodeIDRegex.MatchString(id) {
		return New(ErrCodeInvalidNode, "invalid node id: %q", id)
	}

	return nil
}

// Export formats accepted by the image rendering API.
var exportFormats = map[string]bool{
	"png": true,
	"jpg": true,
	"svg": true,
	"pdf": true,
}

// ValidateExportFormat validates an asset export format.
func ValidateExportFormat(format string) error {
	if format == "" {
		return New(ErrCodeInvalidFormat, "export format cannot be empty")
	}

	if !exportFormats[strings.ToLower(format)] {
		return New(ErrCodeInvalidFormat, "unsupported export format: %q (use png, jpg, svg, or pdf)", format)
	}

	return nil
}

// ValidateScale validates a raster export scale factor. The rendering API
// accepts scales between 0.01 and 4.
func ValidateScale(scale float64) error {
	if scale < 0.01 || scale > 4 {
		return New(ErrCodeInvalidScale, "scale must be between 0.01 and 4, got %g", scale)
	}

	return nil
}

// ValidatePath validates a file path within an export directory for safety.
// It prevents path traversal attacks and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	// Check for null bytes and control characters
	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	// Must not be absolute path
	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	// Check for path traversal
	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	// No backslashes (potential Windows path injection)
	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
