package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// pageIDRegex matches ids that are safe to use as file names and store keys.
var pageIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidatePageID validates a page id for safety and correctness.
// Page ids become file names in the file store and key suffixes in Redis, so
// the rules are conservative:
//   - No empty ids
//   - Maximum length of 128 characters
//   - Letters, digits, dot, dash and underscore only, not starting with a dot
//   - No path traversal sequences (..)
func ValidatePageID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "page id cannot be empty")
	}

	if len(id) > 128 {
		return New(ErrCodeInvalidInput, "page id too long (max 128 characters)")
	}

	if strings.Contains(id, "..") {
		return New(ErrCodeInvalidInput, "page id cannot contain path traversal sequences (..)")
	}

	if !pageIDRegex.MatchString(id) {
		return New(ErrCodeInvalidInput, "invalid page id: %q", id)
	}

	return nil
}

// ValidateBlockID validates a block id. Block ids are opaque but must be
// non-empty, at most 256 characters and free of control characters.
func ValidateBlockID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidBlock, "block id cannot be empty")
	}

	if len(id) > 256 {
		return New(ErrCodeInvalidBlock, "block id too long (max 256 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidBlock, "block id contains invalid control characters")
		}
	}

	return nil
}

// MaxColumns bounds the grid width accepted from configuration and requests.
const MaxColumns = 48

// ValidateColumns validates a grid column count.
func ValidateColumns(columns int) error {
	if columns < 1 || columns > MaxColumns {
		return New(ErrCodeInvalidInput, "columns must be between 1 and %d, got %d", MaxColumns, columns)
	}
	return nil
}
