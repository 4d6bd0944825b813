// SPDX-License-Identifier: MPL-2.0

// Package issue provides user-facing errors with operation context and
// suggestions, plus a catalog of markdown help pages rendered with glamour.
package issue
