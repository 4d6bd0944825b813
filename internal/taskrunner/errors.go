// SPDX-License-Identifier: MPL-2.0

package taskrunner

import (
	"errors"
	"fmt"

	"github.com/hardcopy/hardcopy/pkg/types"
)

var (
	// ErrUnknownTask is the sentinel wrapped by UnknownTaskError.
	ErrUnknownTask = errors.New("unknown task")

	// ErrSubprocessFailure is the sentinel wrapped by SubprocessFailure.
	ErrSubprocessFailure = errors.New("task failed")

	// ErrCompositeArgs is returned when arguments are given to a composite task.
	ErrCompositeArgs = errors.New("composite tasks do not accept arguments")
)

type (
	// UnknownTaskError is returned when a task name is not registered.
	UnknownTaskError struct {
		Name string
		// ReferencedBy names the composite whose steps list mentions Name,
		// empty when Name was requested directly.
		ReferencedBy string
	}

	// SubprocessFailure is returned when a leaf task fails. Composites
	// propagate the failure of their first failing step unchanged.
	SubprocessFailure struct {
		// Task is the failing leaf.
		Task string
		// Chain is the composite path from the requested task down to Task,
		// inclusive at both ends.
		Chain    []string
		ExitCode types.ExitCode
		// Err is the cause when the leaf could not run or a builtin failed.
		Err error
	}
)

func (e *UnknownTaskError) Error() string {
	if e.ReferencedBy != "" {
		return fmt.Sprintf("unknown task '%s' (referenced by '%s')", e.Name, e.ReferencedBy)
	}
	return fmt.Sprintf("unknown task '%s'", e.Name)
}

// Unwrap returns ErrUnknownTask for errors.Is.
func (e *UnknownTaskError) Unwrap() error { return ErrUnknownTask }

func (e *SubprocessFailure) Error() string {
	msg := fmt.Sprintf("task '%s' failed with exit code %d", e.Task, e.ExitCode)
	if len(e.Chain) > 1 {
		msg += " (" + joinArrow(e.Chain) + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both ErrSubprocessFailure and the cause.
func (e *SubprocessFailure) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrSubprocessFailure}
	}
	return []error{ErrSubprocessFailure, e.Err}
}
