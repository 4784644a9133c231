package util

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// IsConfigured reports whether all provided values are non-empty.
func IsConfigured(values ...string) bool {
	return !slices.Contains(values, "")
}

// ValidatePath rejects an empty path or one with a ".." element. Absolute
// paths are allowed.
func ValidatePath(field, path string) error {
	if path == "" {
		return fmt.Errorf("%s: is required", field)
	}
	elems := strings.FieldsFunc(filepath.ToSlash(path), func(r rune) bool { return r == '/' })
	if slices.Contains(elems, "..") {
		return fmt.Errorf("%s: path cannot contain '..'", field)
	}
	return nil
}
