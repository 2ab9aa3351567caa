// Package pathutil resolves stored entry names to safe relative paths.
//
// Archives store names with backslash separators regardless of the host.
// Names are untrusted: anything that could address a location outside the
// extraction root is rejected.
package pathutil

import (
	"fmt"
	"io/fs"
	"strings"

	"github.com/meigma/rgssad/internal/rgsstype"
)

// Normalize converts a stored name to slash-separated form.
//
// It performs the following transformations:
//   - Converts backslashes to slashes: "Data\Map.rxdata" → "Data/Map.rxdata"
//   - Collapses consecutive separators: "Data//Map" → "Data/Map"
//   - Removes "." elements: "./Data/./Map" → "Data/Map"
//   - Strips leading and trailing separators
//
// ".." elements are preserved so that Resolve can reject them.
func Normalize(name string) string {
	parts := strings.Split(strings.ReplaceAll(name, `\`, "/"), "/")
	result := parts[:0] // reuse backing array
	for _, part := range parts {
		if part != "" && part != "." {
			result = append(result, part)
		}
	}
	return strings.Join(result, "/")
}

// Resolve returns the slash-separated relative path an entry extracts to.
//
// If flat is true only the final element is kept. ErrCorruptArchive is
// returned for names that are empty after normalization, absolute (leading
// separator, drive letter or UNC prefix), or contain ".." elements.
func Resolve(name string, flat bool) (string, error) {
	slashed := strings.ReplaceAll(name, `\`, "/")
	if strings.HasPrefix(slashed, "/") {
		return "", invalid(name, "absolute path")
	}

	rel := Normalize(name)
	if rel == "" {
		return "", invalid(name, "empty path")
	}
	for part := range strings.SplitSeq(rel, "/") {
		if part == ".." {
			return "", invalid(name, "parent directory element")
		}
	}
	if first, _, _ := strings.Cut(rel, "/"); strings.Contains(first, ":") {
		return "", invalid(name, "volume name")
	}

	if flat {
		rel = Base(rel)
	}
	if !fs.ValidPath(rel) {
		return "", invalid(name, "not a valid path")
	}
	return rel, nil
}

// Base returns the last element of a slash-separated path.
// If path is empty, it returns ".".
func Base(path string) string {
	if path == "" {
		return "."
	}
	path = strings.TrimSuffix(path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// Dir returns all but the last element of a slash-separated path.
// If path has a single element, it returns ".".
func Dir(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[:i]
	}
	return "."
}

func invalid(name, reason string) error {
	return fmt.Errorf("%w: invalid entry path %q: %s", rgsstype.ErrCorruptArchive, name, reason)
}
