// SPDX-License-Identifier: MPL-2.0

// Package coreutils implements the file utilities most task commands need
// (cat, cp, mkdir, rm, touch) in Go, so commands run by the virtual runtime
// behave the same on every platform.
//
// Registry.ExecHandler plugs the utilities into a mvdan/sh interpreter.
// Commands that are not registered fall through to the next handler, which
// normally runs the program found on PATH.
package coreutils
