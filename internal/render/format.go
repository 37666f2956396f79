// SPDX-License-Identifier: MPL-2.0

// Package render turns a resolver.Resolution into the text artifacts consumed
// by builds: a raw JSON or YAML dump, a CI matrix snippet, gradle.properties,
// a standalone version-switch script and a Markdown summary.
package render

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

const (
	// FormatJSON is the raw, ordered JSON dump of the resolution.
	FormatJSON Format = "json"
	// FormatYAML is the raw dump as a YAML list of records.
	FormatYAML Format = "yaml"
	// FormatWorkflow is the CI matrix list plus the matching case block.
	FormatWorkflow Format = "workflow"
	// FormatGradle is gradle.properties for one selected record.
	FormatGradle Format = "gradle"
	// FormatScript is a standalone bash script dispatching on the version.
	FormatScript Format = "script"
	// FormatSummary is a Markdown table of every record.
	FormatSummary Format = "summary"
)

var (
	// ErrUnknownFormat is the sentinel error wrapped by UnknownFormatError.
	ErrUnknownFormat = errors.New("unknown output format")
	// ErrNoRecords is returned when a format needs a record and the resolution is empty.
	ErrNoRecords = errors.New("no versions resolved")
	// ErrNoCompleteRecords is returned when a format needs at least one complete record.
	ErrNoCompleteRecords = errors.New("no fully resolved versions")
	// ErrIdentifierNotFound is the sentinel error wrapped by IdentifierNotFoundError.
	ErrIdentifierNotFound = errors.New("version not in resolution")
	// ErrIncompleteRecord is the sentinel error wrapped by IncompleteRecordError.
	ErrIncompleteRecord = errors.New("version is not fully resolved")
	// ErrInvalidScript is returned when a generated script does not parse.
	ErrInvalidScript = errors.New("generated script is not valid shell")
)

type (
	// Format selects an output renderer.
	Format string

	// UnknownFormatError is returned when a format name is not recognized.
	// It wraps ErrUnknownFormat for errors.Is() compatibility.
	UnknownFormatError struct {
		Value string
	}

	// IdentifierNotFoundError is returned when the selected version is not in the resolution.
	// It wraps ErrIdentifierNotFound for errors.Is() compatibility.
	IdentifierNotFoundError struct {
		Identifier string
		Available  []string
	}

	// IncompleteRecordError is returned when the selected version is partial.
	// It wraps ErrIncompleteRecord for errors.Is() compatibility.
	IncompleteRecordError struct {
		Identifier string
	}
)

// Formats returns every supported format in display order.
func Formats() []Format {
	return []Format{FormatJSON, FormatYAML, FormatWorkflow, FormatGradle, FormatScript, FormatSummary}
}

// FormatNames returns the names of every supported format.
func FormatNames() []string {
	names := make([]string, 0, len(Formats()))
	for _, f := range Formats() {
		names = append(names, string(f))
	}
	return names
}

// ParseFormat parses a case-insensitive format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Formats(), f) {
		return "", &UnknownFormatError{Value: s}
	}
	return f, nil
}

// IsRaw reports whether the format is a machine-readable dump meant for pipes.
func (f Format) IsRaw() bool {
	return f == FormatJSON || f == FormatYAML
}

// String returns the format name.
func (f Format) String() string { return string(f) }

// Error implements the error interface.
func (e *UnknownFormatError) Error() string {
	return fmt.Sprintf("unknown output format %q (valid: %s)", e.Value, strings.Join(FormatNames(), ", "))
}

// Unwrap returns ErrUnknownFormat for errors.Is() compatibility.
func (e *UnknownFormatError) Unwrap() error { return ErrUnknownFormat }

// Error implements the error interface.
func (e *IdentifierNotFoundError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("version %s was not resolved", e.Identifier)
	}
	return fmt.Sprintf("version %s was not resolved (resolved: %s)", e.Identifier, strings.Join(e.Available, ", "))
}

// Unwrap returns ErrIdentifierNotFound for errors.Is() compatibility.
func (e *IdentifierNotFoundError) Unwrap() error { return ErrIdentifierNotFound }

// Error implements the error interface.
func (e *IncompleteRecordError) Error() string {
	return fmt.Sprintf("version %s is not fully resolved", e.Identifier)
}

// Unwrap returns ErrIncompleteRecord for errors.Is() compatibility.
func (e *IncompleteRecordError) Unwrap() error { return ErrIncompleteRecord }
