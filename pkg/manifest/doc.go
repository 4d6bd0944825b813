// SPDX-License-Identifier: MPL-2.0

// Package manifest reads the project manifest (a TOML file, project.toml by
// default) and performs the one mutation the release workflow makes to it:
// bumping the semantic version.
//
// The bump is an explicit read-modify-write over a path. Only the version
// value is rewritten; comments, ordering and every other byte of the file are
// preserved.
package manifest
