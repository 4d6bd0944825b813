// SPDX-License-Identifier: MPL-2.0

package taskrunner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/hardcopy/hardcopy/internal/dag"
	"github.com/hardcopy/hardcopy/internal/runtime"
	"github.com/hardcopy/hardcopy/pkg/types"
)

// executionStackKey is the context key for the re-entrancy guard. The value
// is the ordered list of task names currently executing.
type executionStackKey struct{}

type (
	// Builtin is a Go operation a task can run instead of a shell command.
	Builtin interface {
		Run(ctx context.Context, env BuiltinEnv, args []string) error
	}

	// BuiltinFunc adapts a function to the Builtin interface.
	BuiltinFunc func(ctx context.Context, env BuiltinEnv, args []string) error

	// BuiltinEnv is what the executor hands to a builtin.
	BuiltinEnv struct {
		Task    string
		WorkDir string
		Stdout  io.Writer
		Stderr  io.Writer
	}

	// Executor runs tasks from a Registry.
	Executor struct {
		registry       *Registry
		runtimes       *runtime.Registry
		builtins       map[string]Builtin
		defaultRuntime runtime.RuntimeType
		workDir        string
		stdout         io.Writer
		stderr         io.Writer
		stdin          io.Reader
	}

	// ExecutorOption configures an Executor.
	ExecutorOption func(*Executor)

	// StepResult records one leaf task that ran.
	StepResult struct {
		Task     string
		Chain    []string
		ExitCode types.ExitCode
		Duration time.Duration
	}

	// Report describes a run. Steps lists the leaves that ran, in order,
	// including the failing one.
	Report struct {
		Task     string
		Steps    []StepResult
		Duration time.Duration
	}
)

// Run calls f.
func (f BuiltinFunc) Run(ctx context.Context, env BuiltinEnv, args []string) error {
	return f(ctx, env, args)
}

// WithRuntimes sets the runtime registry used for cmd tasks.
func WithRuntimes(r *runtime.Registry) ExecutorOption {
	return func(e *Executor) { e.runtimes = r }
}

// WithDefaultRuntime sets the runtime for cmd tasks that do not name one.
func WithDefaultRuntime(t runtime.RuntimeType) ExecutorOption {
	return func(e *Executor) { e.defaultRuntime = t }
}

// WithBuiltin registers a builtin under name.
func WithBuiltin(name string, b Builtin) ExecutorOption {
	return func(e *Executor) { e.builtins[name] = b }
}

// WithWorkDir sets the directory tasks run in unless they set their own.
func WithWorkDir(dir string) ExecutorOption {
	return func(e *Executor) { e.workDir = dir }
}

// WithIO sets the streams connected to tasks.
func WithIO(stdin io.Reader, stdout, stderr io.Writer) ExecutorOption {
	return func(e *Executor) {
		e.stdin = stdin
		e.stdout = stdout
		e.stderr = stderr
	}
}

// NewExecutor creates an executor over registry.
func NewExecutor(registry *Registry, opts ...ExecutorOption) *Executor {
	e := &Executor{
		registry:       registry,
		runtimes:       runtime.NewDefaultRegistry(),
		builtins:       make(map[string]Builtin),
		defaultRuntime: runtime.RuntimeTypeNative,
		stdout:         os.Stdout,
		stderr:         os.Stderr,
		stdin:          os.Stdin,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Succeeded reports whether every step that ran exited 0.
func (r *Report) Succeeded() bool {
	for _, s := range r.Steps {
		if !s.ExitCode.IsSuccess() {
			return false
		}
	}
	return true
}

// Run executes the named task. Args are passed to the task's command or
// builtin; a composite given args is rejected before anything runs.
//
// The returned Report is never nil. On failure the error is a
// *SubprocessFailure, *UnknownTaskError, *dag.CycleError or a context error.
func (e *Executor) Run(ctx context.Context, name string, args []string) (*Report, error) {
	start := time.Now()
	report := &Report{Task: name}
	defer func() { report.Duration = time.Since(start) }()

	task, err := e.registry.Resolve(name)
	if err != nil {
		return report, err
	}
	if len(args) > 0 && task.Kind() == KindSteps {
		return report, fmt.Errorf("%w: '%s' runs %s", ErrCompositeArgs, name, joinArrow(task.Steps))
	}

	err = e.run(ctx, name, "", args, report)
	return report, err
}

func (e *Executor) run(ctx context.Context, name, parent string, args []string, report *Report) error {
	stack := stackFromContext(ctx)
	if i := slices.Index(stack, name); i >= 0 {
		return &dag.CycleError{Cycle: append(slices.Clone(stack[i:]), name)}
	}

	// Resolved here, not when the parent was resolved, so redefinitions made
	// after the parent was defined are honored.
	task, err := e.registry.Resolve(name)
	if err != nil {
		return &UnknownTaskError{Name: name, ReferencedBy: parent}
	}

	chain := append(slices.Clone(stack), name)
	ctx = context.WithValue(ctx, executionStackKey{}, chain)

	switch task.Kind() {
	case KindSteps:
		for _, step := range task.Steps {
			if ctx.Err() != nil {
				return fmt.Errorf("task '%s' cancelled before step '%s': %w", name, step, ctx.Err())
			}
			if err := e.run(ctx, step, name, nil, report); err != nil {
				return err
			}
		}
		return nil
	case KindCmd, KindBuiltin:
		return e.runLeaf(ctx, name, task, chain, args, report)
	default:
		return fmt.Errorf("%w: task '%s' has no cmd, steps or builtin", ErrInvalidTask, name)
	}
}

func (e *Executor) runLeaf(ctx context.Context, name string, task Task, chain, args []string, report *Report) error {
	slog.Debug("running task", "task", name, "chain", joinArrow(chain), "kind", task.Kind())

	workDir := e.workDir
	if task.WorkDir != "" {
		workDir = task.WorkDir
	}

	start := time.Now()
	var (
		code  types.ExitCode
		cause error
	)
	if task.Kind() == KindBuiltin {
		code, cause = e.runBuiltin(ctx, name, task, workDir, args)
	} else {
		code, cause = e.runCmd(ctx, name, task, workDir, args)
	}

	report.Steps = append(report.Steps, StepResult{
		Task:     name,
		Chain:    chain,
		ExitCode: code,
		Duration: time.Since(start),
	})

	if code.IsSuccess() && cause == nil {
		return nil
	}
	return &SubprocessFailure{Task: name, Chain: chain, ExitCode: code, Err: cause}
}

func (e *Executor) runCmd(ctx context.Context, name string, task Task, workDir string, args []string) (types.ExitCode, error) {
	rtType := e.defaultRuntime
	if task.Runtime != "" {
		rtType = task.Runtime
	}

	result := e.runtimes.Execute(rtType, &runtime.ExecutionContext{
		Context:  ctx,
		TaskName: name,
		Script:   task.Cmd,
		Args:     args,
		WorkDir:  workDir,
		Env:      task.Env,
		Stdout:   e.stdout,
		Stderr:   e.stderr,
		Stdin:    e.stdin,
	})
	return result.ExitCode.Clamp(), result.Error
}

func (e *Executor) runBuiltin(ctx context.Context, name string, task Task, workDir string, args []string) (types.ExitCode, error) {
	b, ok := e.builtins[task.Builtin]
	if !ok {
		return 1, fmt.Errorf("builtin '%s' is not available", task.Builtin)
	}
	env := BuiltinEnv{Task: name, WorkDir: workDir, Stdout: e.stdout, Stderr: e.stderr}
	if err := b.Run(ctx, env, append(slices.Clone(task.Args), args...)); err != nil {
		return 1, err
	}
	return 0, nil
}

func stackFromContext(ctx context.Context) []string {
	if stack, ok := ctx.Value(executionStackKey{}).([]string); ok {
		return stack
	}
	return nil
}

func joinArrow(names []string) string { return strings.Join(names, " → ") }

func joinSpace(parts []string) string { return strings.Join(parts, " ") }
