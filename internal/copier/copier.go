// SPDX-License-Identifier: MPL-2.0

// Package copier copies files and directory trees, either through Robocopy or
// with a portable in-process implementation.
package copier

import (
	"context"
	"fmt"
	goruntime "runtime"
)

// Copier kinds accepted by New.
const (
	KindAuto     = "auto"
	KindRobocopy = "robocopy"
	KindNative   = "native"
)

// Copier copies src to dest. For a directory, the contents of src end up
// directly inside dest, which is created when missing. Existing files in dest
// are overwritten; files that only exist in dest are left alone.
type Copier interface {
	Name() string
	Copy(ctx context.Context, src, dest string) error
}

// Options configures the copier returned by New.
type Options struct {
	// RobocopyThreads is the /MT value; zero means DefaultThreads.
	RobocopyThreads int
	// RobocopyArgs are appended after the thread flag.
	RobocopyArgs []string
}

// New returns the copier for kind. "auto" picks Robocopy on Windows and the
// native copier everywhere else.
func New(kind string, opts Options) (Copier, error) {
	switch kind {
	case KindAuto, "":
		if goruntime.GOOS == "windows" {
			return NewRobocopy(opts.RobocopyThreads, opts.RobocopyArgs...), nil
		}
		return NewNative(), nil
	case KindRobocopy:
		return NewRobocopy(opts.RobocopyThreads, opts.RobocopyArgs...), nil
	case KindNative:
		return NewNative(), nil
	default:
		return nil, fmt.Errorf("unknown copier %q (want auto, robocopy or native)", kind)
	}
}
