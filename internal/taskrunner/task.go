// SPDX-License-Identifier: MPL-2.0

package taskrunner

import (
	"errors"
	"fmt"
	"regexp"
	"slices"

	"github.com/hardcopy/hardcopy/internal/runtime"
	"github.com/hardcopy/hardcopy/pkg/types"
)

// Task kinds.
const (
	KindCmd     Kind = "cmd"
	KindSteps   Kind = "steps"
	KindBuiltin Kind = "builtin"
)

// ErrInvalidTask is returned when a task does not set exactly one of
// Cmd, Steps or Builtin.
var ErrInvalidTask = errors.New("invalid task definition")

// taskNameRegex matches #TaskName in the taskfile schema.
var taskNameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_.:-]*$`)

type (
	// Kind is the kind of a task.
	Kind string

	// Task is a named unit of work. Exactly one of Cmd, Steps and Builtin is set.
	Task struct {
		Description types.DescriptionText

		// Cmd is a shell command line.
		Cmd string
		// Steps names other tasks to run in order.
		Steps []string
		// Builtin names a registered Go operation; Args are passed to it
		// ahead of any arguments given on the command line.
		Builtin string
		Args    []string

		// Runtime overrides the executor's default runtime for Cmd tasks.
		Runtime runtime.RuntimeType
		Env     map[string]string
		WorkDir string
	}
)

// Cmd creates a shell command task.
func Cmd(cmd string) Task { return Task{Cmd: cmd} }

// Steps creates a composite task.
func Steps(names ...string) Task { return Task{Steps: names} }

// BuiltinTask creates a task that runs a registered Go operation.
func BuiltinTask(name string, args ...string) Task { return Task{Builtin: name, Args: args} }

// Kind reports which of Cmd, Steps and Builtin is set. A task with none set
// reports an empty Kind.
func (t Task) Kind() Kind {
	switch {
	case t.Builtin != "":
		return KindBuiltin
	case t.Steps != nil:
		return KindSteps
	case t.Cmd != "":
		return KindCmd
	default:
		return ""
	}
}

// Validate checks the task on its own; references to other tasks are
// checked by Registry.Validate.
func (t Task) Validate(name string) error {
	set := 0
	if t.Cmd != "" {
		set++
	}
	if t.Steps != nil {
		set++
	}
	if t.Builtin != "" {
		set++
	}
	if set != 1 {
		return fmt.Errorf("%w: task '%s' must set exactly one of cmd, steps or builtin", ErrInvalidTask, name)
	}
	if t.Kind() == KindSteps && len(t.Steps) == 0 {
		return fmt.Errorf("%w: task '%s' has an empty steps list", ErrInvalidTask, name)
	}
	if slices.Contains(t.Steps, "") {
		return fmt.Errorf("%w: task '%s' has an empty step name", ErrInvalidTask, name)
	}
	if len(t.Args) > 0 && t.Kind() != KindBuiltin {
		return fmt.Errorf("%w: task '%s' sets args without builtin", ErrInvalidTask, name)
	}
	if t.Runtime != "" {
		if _, err := runtime.ParseRuntimeType(string(t.Runtime)); err != nil {
			return fmt.Errorf("%w: task '%s': %w", ErrInvalidTask, name, err)
		}
	}
	if err := t.Description.Validate(); err != nil {
		return fmt.Errorf("%w: task '%s': %w", ErrInvalidTask, name, err)
	}
	return nil
}

// ValidateName rejects names that do not start with a letter or that contain
// characters other than letters, digits, '_', '.', ':' and '-'.
func ValidateName(name string) error {
	if !taskNameRegex.MatchString(name) {
		return fmt.Errorf("%w: invalid task name %q", ErrInvalidTask, name)
	}
	return nil
}

// Summary is a one-line rendering of what the task does.
func (t Task) Summary() string {
	switch t.Kind() {
	case KindCmd:
		return t.Cmd
	case KindSteps:
		return joinArrow(t.Steps)
	case KindBuiltin:
		return joinSpace(append([]string{"builtin " + t.Builtin}, t.Args...))
	default:
		return ""
	}
}
