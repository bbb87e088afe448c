// Package persistence reads and writes the catalog file the site loads.
//
// The legacy format is a JavaScript file assigning the catalog to
// `const gearData`. JSON and YAML renditions of the same record are also
// supported. Saves rewrite the whole file through a temp file and rename.
package persistence

import (
	"path/filepath"
	"strings"

	"github.com/bmedia/gearsync/pkg/errors"
)

// Format is a catalog file format.
type Format string

// Format constants.
const (
	FormatJS   Format = "js"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Formats returns every supported format.
func Formats() []Format {
	return []Format{FormatJS, FormatJSON, FormatYAML}
}

// IsValid checks if the format is valid.
func (f Format) IsValid() bool {
	switch f {
	case FormatJS, FormatJSON, FormatYAML:
		return true
	default:
		return false
	}
}

// String returns the string representation of the format.
func (f Format) String() string {
	return string(f)
}

// ParseFormat parses a format name. "yml" and "javascript" are accepted aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "js", "javascript":
		return FormatJS, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", errors.NewValidationError("catalog_format", s, "must be one of js, json, yaml")
}

// DetectFormat picks a format from the file extension, defaulting to js.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJS
}

// resolveFormat returns f when set, otherwise the format implied by path.
func resolveFormat(path string, f Format) (Format, error) {
	if f == "" {
		return DetectFormat(path), nil
	}
	if !f.IsValid() {
		return "", errors.NewValidationError("format", string(f), "unsupported catalog format")
	}
	return f, nil
}
