// SPDX-License-Identifier: MPL-2.0

// Package runtime executes the shell command of a task.
//
// Two runtimes are provided: native runs the command through the host shell
// (sh/bash on Unix, pwsh/powershell/cmd on Windows), and virtual runs it
// in-process with the mvdan/sh interpreter so the same taskfile behaves the
// same on every platform.
package runtime
