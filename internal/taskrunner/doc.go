// SPDX-License-Identifier: MPL-2.0

// Package taskrunner holds the named-task registry and the composite executor.
//
// A task is one of three kinds: a shell command (cmd), an ordered list of other
// task names (steps), or a built-in Go operation (builtin). Composites are
// resolved lazily: every step is looked up by name at the moment it runs, so
// redefining a leaf changes every composite that includes it. Execution is
// strictly sequential and stops at the first failure.
package taskrunner
