// SPDX-License-Identifier: MPL-2.0

// Package cueutil compiles CUE documents against an embedded schema and
// decodes them into Go values.
//
// Both the taskfile and the user configuration go through the same flow:
//
//  1. Compile the embedded schema
//  2. Compile user data and unify it with a schema definition
//  3. Validate and decode to a Go struct
//
// Errors carry the file name and a JSON-style path to the offending field,
// for example "tasks.cue: tasks.build.steps[1]: conflicting values".
package cueutil
