// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"fmt"
	"regexp"
	"strconv"
)

// Bump levels, in decreasing significance.
const (
	LevelMajor Level = "major"
	LevelMinor Level = "minor"
	LevelPatch Level = "patch"
)

type (
	// Version is a three-component semantic version.
	Version struct {
		Major int
		Minor int
		Patch int
	}

	// Level selects which Version component a bump increments.
	Level string
)

var versionRegex = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)$`)

// ParseVersion parses a strict MAJOR.MINOR.PATCH string. Prefixes, pre-release
// and build suffixes are rejected: the manifest only ever holds release versions.
func ParseVersion(s string) (Version, error) {
	m := versionRegex.FindStringSubmatch(s)
	if m == nil {
		return Version{}, fmt.Errorf("expected MAJOR.MINOR.PATCH, got %q", s)
	}

	var parts [3]int
	for i := range parts {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return Version{}, fmt.Errorf("version component %q: %w", m[i+1], err)
		}
		parts[i] = n
	}
	return Version{Major: parts[0], Minor: parts[1], Patch: parts[2]}, nil
}

// String returns MAJOR.MINOR.PATCH.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Bump increments the component selected by level and zeroes every
// component of lower significance.
func (v Version) Bump(level Level) (Version, error) {
	switch level {
	case LevelMajor:
		return Version{Major: v.Major + 1}, nil
	case LevelMinor:
		return Version{Major: v.Major, Minor: v.Minor + 1}, nil
	case LevelPatch, "":
		return Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch + 1}, nil
	default:
		return Version{}, fmt.Errorf("%w: %q", ErrInvalidLevel, level)
	}
}

// Compare returns -1, 0 or 1.
func (v Version) Compare(other Version) int {
	for _, d := range [3]int{v.Major - other.Major, v.Minor - other.Minor, v.Patch - other.Patch} {
		switch {
		case d < 0:
			return -1
		case d > 0:
			return 1
		}
	}
	return 0
}

// ParseLevel accepts "major", "minor", "patch" or "" (patch).
func ParseLevel(s string) (Level, error) {
	switch l := Level(s); l {
	case LevelMajor, LevelMinor, LevelPatch:
		return l, nil
	case "":
		return LevelPatch, nil
	default:
		return "", fmt.Errorf("%w: %q (want major, minor or patch)", ErrInvalidLevel, s)
	}
}
