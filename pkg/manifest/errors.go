// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"
)

var (
	// ErrManifestParse is the sentinel wrapped by ParseError.
	ErrManifestParse = errors.New("manifest parse error")

	// ErrInvalidLevel is returned for a bump level other than major, minor or patch.
	ErrInvalidLevel = errors.New("invalid bump level")

	// ErrInvalidConstraint is the sentinel wrapped by ConstraintError.
	ErrInvalidConstraint = errors.New("invalid version constraint")
)

type (
	// ParseError reports a manifest whose version field is missing or not in
	// MAJOR.MINOR.PATCH form, or that is not valid TOML at all.
	ParseError struct {
		// Path is the manifest file, empty when parsing from memory.
		Path string
		// Field is the offending key, e.g. "project.version".
		Field string
		// Value is the raw value found, if any.
		Value string
		// Reason describes what is wrong.
		Reason string
		// Err is an optional underlying decode error.
		Err error
	}

	// ConstraintError reports a dependency or tool constraint that cannot be parsed.
	ConstraintError struct {
		Subject    string
		Constraint string
		Reason     string
	}
)

func (e *ParseError) Error() string {
	msg := e.Reason
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Value != "" {
		msg += fmt.Sprintf(" (got %q)", e.Value)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Path != "" {
		return e.Path + ": " + msg
	}
	return msg
}

// Unwrap returns ErrManifestParse so callers can use errors.Is.
func (e *ParseError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrManifestParse, e.Err}
	}
	return []error{ErrManifestParse}
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%s: invalid constraint %q: %s", e.Subject, e.Constraint, e.Reason)
}

// Unwrap returns ErrInvalidConstraint so callers can use errors.Is.
func (e *ConstraintError) Unwrap() error { return ErrInvalidConstraint }
