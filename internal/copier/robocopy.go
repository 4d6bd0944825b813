// SPDX-License-Identifier: MPL-2.0

package copier

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"strconv"
	"strings"
)

const (
	// DefaultThreads is the /MT value used when none is configured.
	DefaultThreads = 8

	// robocopyBinary is looked up on PATH.
	robocopyBinary = "robocopy"

	// helpExitCode is what `robocopy /?` exits with.
	helpExitCode = 16

	// failureThreshold is the lowest exit code that means at least one
	// file failed to copy. Codes below it are combinations of "copied",
	// "extra files" and "mismatched" bits.
	failureThreshold = 8

	maxOutputTail = 2048
)

var (
	// ErrRobocopyUnavailable is returned when Robocopy cannot be run.
	ErrRobocopyUnavailable = errors.New("robocopy is not available")

	// ErrRenameUnsupported is returned when a single file would be copied
	// under a different name; robocopy keeps file names.
	ErrRenameUnsupported = errors.New("robocopy cannot rename a copied file")
)

type (
	// Robocopy copies through the Windows robocopy tool.
	Robocopy struct {
		// Binary is the executable to run; defaults to "robocopy" on PATH.
		Binary    string
		Threads   int
		ExtraArgs []string
		// Output receives the tool's console output when set.
		Output io.Writer

		windowsOnly bool
	}

	// RobocopyError reports a run that exited with a failure code.
	RobocopyError struct {
		ExitCode int
		Args     []string
		// Output is the tail of the console output.
		Output string
	}
)

func (e *RobocopyError) Error() string {
	return fmt.Sprintf("robocopy exited with code %d (%s)", e.ExitCode, describeExitCode(e.ExitCode))
}

// NewRobocopy creates a Robocopy copier. threads <= 0 means DefaultThreads.
func NewRobocopy(threads int, extraArgs ...string) *Robocopy {
	if threads <= 0 {
		threads = DefaultThreads
	}
	return &Robocopy{
		Binary:      robocopyBinary,
		Threads:     threads,
		ExtraArgs:   extraArgs,
		windowsOnly: true,
	}
}

// Name returns "robocopy".
func (r *Robocopy) Name() string { return KindRobocopy }

// AssertAvailable checks that Robocopy runs and answers `/?` with its
// help exit code.
func (r *Robocopy) AssertAvailable(ctx context.Context) error {
	if r.windowsOnly && goruntime.GOOS != "windows" {
		return fmt.Errorf("%w: robocopy is only available on Windows, running on %s", ErrRobocopyUnavailable, goruntime.GOOS)
	}

	cmd := exec.CommandContext(ctx, r.binary(), "/?")
	err := cmd.Run()
	var exitErr *exec.ExitError
	switch {
	case errors.As(err, &exitErr):
		if code := exitErr.ExitCode(); code != helpExitCode {
			return fmt.Errorf("%w: '%s /?' returned exit status %d", ErrRobocopyUnavailable, r.binary(), code)
		}
		return nil
	case err != nil:
		return fmt.Errorf("%w: %s could not be found in PATH: %w", ErrRobocopyUnavailable, r.binary(), err)
	default:
		return fmt.Errorf("%w: '%s /?' returned exit status 0", ErrRobocopyUnavailable, r.binary())
	}
}

// Copy runs robocopy src dest /MT:<threads> <extra args>. A file source
// becomes robocopy <src dir> <dest dir> <file name>, so dest must keep the
// source's file name.
func (r *Robocopy) Copy(ctx context.Context, src, dest string) error {
	args, err := r.args(src, dest)
	if err != nil {
		return err
	}
	if err := r.AssertAvailable(ctx); err != nil {
		return err
	}

	var tail tailBuffer
	cmd := exec.CommandContext(ctx, r.binary(), args...)
	if r.Output != nil {
		cmd.Stdout = io.MultiWriter(r.Output, &tail)
	} else {
		cmd.Stdout = &tail
	}
	cmd.Stderr = cmd.Stdout

	slog.Debug("running robocopy", "args", strings.Join(args, " "))
	err = cmd.Run()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return fmt.Errorf("failed to run robocopy: %w", err)
	}
	code := exitErr.ExitCode()
	if code < failureThreshold && code >= 0 {
		slog.Debug("robocopy finished", "code", code, "meaning", describeExitCode(code))
		return nil
	}
	return &RobocopyError{ExitCode: code, Args: args, Output: tail.String()}
}

func (r *Robocopy) args(src, dest string) ([]string, error) {
	threads := r.Threads
	if threads <= 0 {
		threads = DefaultThreads
	}

	args := []string{src, dest}
	// A missing source is left for robocopy to report.
	if info, err := os.Stat(src); err == nil && info.Mode().IsRegular() {
		name := filepath.Base(src)
		if filepath.Base(dest) != name {
			return nil, fmt.Errorf("%w: %s to %s", ErrRenameUnsupported, src, dest)
		}
		args = []string{filepath.Dir(src), filepath.Dir(dest), name}
	}

	args = append(args, "/MT:"+strconv.Itoa(threads))
	return append(args, r.ExtraArgs...), nil
}

func (r *Robocopy) binary() string {
	if r.Binary == "" {
		return robocopyBinary
	}
	return r.Binary
}

// describeExitCode spells out the bit flags of a robocopy exit code.
func describeExitCode(code int) string {
	if code == 0 {
		return "no files copied"
	}
	var parts []string
	for _, f := range []struct {
		bit  int
		desc string
	}{
		{1, "files copied"},
		{2, "extra files in destination"},
		{4, "mismatched files"},
		{8, "some files could not be copied"},
		{16, "fatal error"},
	} {
		if code&f.bit != 0 {
			parts = append(parts, f.desc)
		}
	}
	return strings.Join(parts, ", ")
}

// tailBuffer keeps the last maxOutputTail bytes written to it.
type tailBuffer struct {
	buf bytes.Buffer
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	n, err := t.buf.Write(p)
	if over := t.buf.Len() - maxOutputTail; over > 0 {
		t.buf.Next(over)
	}
	return n, err
}

func (t *tailBuffer) String() string { return t.buf.String() }
