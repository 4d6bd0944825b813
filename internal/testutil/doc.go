// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Most helpers build and inspect small file trees (WriteFile, WriteTree,
// AssertFileContent) for the copy, validation and task tests.
package testutil
