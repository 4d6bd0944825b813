// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxDescriptionLength is the longest description, in runes, that still fits
// on one line of the task listing.
const MaxDescriptionLength = 120

// ErrInvalidDescriptionText is the sentinel error wrapped by InvalidDescriptionTextError.
var ErrInvalidDescriptionText = errors.New("invalid description text")

type (
	// DescriptionText is the one-line help shown next to a task name. The
	// zero value means no description.
	DescriptionText string

	// InvalidDescriptionTextError is returned when a DescriptionText is
	// whitespace-only, spans several lines or is too long.
	InvalidDescriptionTextError struct {
		Value  DescriptionText
		Reason string
	}
)

// String returns the description.
func (d DescriptionText) String() string { return string(d) }

// Validate returns an error unless the description is empty or a single
// non-blank line of at most MaxDescriptionLength runes.
func (d DescriptionText) Validate() error {
	switch {
	case d == "":
		return nil
	case strings.TrimSpace(string(d)) == "":
		return &InvalidDescriptionTextError{Value: d, Reason: "must not be whitespace-only"}
	case strings.ContainsAny(string(d), "\r\n"):
		return &InvalidDescriptionTextError{Value: d, Reason: "must be a single line"}
	case utf8.RuneCountInString(string(d)) > MaxDescriptionLength:
		return &InvalidDescriptionTextError{Value: d, Reason: fmt.Sprintf("must be at most %d characters", MaxDescriptionLength)}
	}
	return nil
}

func (e *InvalidDescriptionTextError) Error() string {
	return fmt.Sprintf("invalid description %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidDescriptionText for errors.Is.
func (e *InvalidDescriptionTextError) Unwrap() error { return ErrInvalidDescriptionText }
