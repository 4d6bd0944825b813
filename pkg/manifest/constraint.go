// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"regexp"
	"strings"

	"golang.org/x/mod/semver"
)

// Constraint is a minimum-version style requirement such as ">=1.10",
// "^0.4.1" or "~=3.2".
type Constraint struct {
	// Op is one of ==, =, >=, >, <=, <, ^, ~, ~=.
	Op string
	// Version is the canonical semver form with a "v" prefix (e.g. "v1.10.0").
	Version string
	// Parts is how many components the constraint spelled out (1-3). "~="
	// uses it to decide how much may float.
	Parts int
	// Original is the constraint as written.
	Original string
}

var constraintRegex = regexp.MustCompile(`^(==|=|>=|<=|>|<|~=|\^|~)?\s*v?(\d+(?:\.\d+){0,2})$`)

// ParseConstraint parses a constraint. A bare version means ">=": the
// manifest records minimum versions.
func ParseConstraint(subject, s string) (Constraint, error) {
	raw := strings.TrimSpace(s)
	m := constraintRegex.FindStringSubmatch(raw)
	if m == nil {
		return Constraint{}, &ConstraintError{Subject: subject, Constraint: s, Reason: "expected [op]MAJOR[.MINOR[.PATCH]]"}
	}

	op := m[1]
	if op == "" {
		op = ">="
	}
	parts := strings.Count(m[2], ".") + 1
	if op == "~=" && parts < 2 {
		return Constraint{}, &ConstraintError{Subject: subject, Constraint: s, Reason: "~= needs at least MAJOR.MINOR"}
	}

	canonical := semver.Canonical("v" + m[2])
	if canonical == "" {
		return Constraint{}, &ConstraintError{Subject: subject, Constraint: s, Reason: "not a semantic version"}
	}

	return Constraint{Op: op, Version: canonical, Parts: parts, Original: raw}, nil
}

// Allows reports whether version (with or without a "v" prefix, e.g.
// "1.25.1") satisfies the constraint. Invalid versions never satisfy.
func (c Constraint) Allows(version string) bool {
	v := semver.Canonical("v" + strings.TrimPrefix(version, "v"))
	if v == "" {
		return false
	}

	cmp := semver.Compare(v, c.Version)
	switch c.Op {
	case "==", "=":
		return cmp == 0
	case ">=":
		return cmp >= 0
	case ">":
		return cmp > 0
	case "<=":
		return cmp <= 0
	case "<":
		return cmp < 0
	case "^":
		return cmp >= 0 && semver.Compare(v, c.caretCeiling()) < 0
	case "~":
		return cmp >= 0 && semver.Compare(v, bumpCanonical(c.Version, LevelMinor)) < 0
	case "~=":
		level := LevelMinor
		if c.Parts == 2 {
			level = LevelMajor
		}
		return cmp >= 0 && semver.Compare(v, bumpCanonical(c.Version, level)) < 0
	}
	return false
}

// caretCeiling is the first version a caret constraint excludes: the next
// major, or the next minor while the major is zero.
func (c Constraint) caretCeiling() string {
	if semver.Major(c.Version) == "v0" {
		return bumpCanonical(c.Version, LevelMinor)
	}
	return bumpCanonical(c.Version, LevelMajor)
}

func bumpCanonical(canonical string, level Level) string {
	v, err := ParseVersion(strings.TrimPrefix(canonical, "v"))
	if err != nil {
		return canonical
	}
	next, err := v.Bump(level)
	if err != nil {
		return canonical
	}
	return "v" + next.String()
}

func (c Constraint) String() string {
	return c.Original
}
