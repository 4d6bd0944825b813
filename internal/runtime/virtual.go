// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hardcopy/hardcopy/internal/coreutils"
	"github.com/hardcopy/hardcopy/pkg/types"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// VirtualRuntime runs commands with the mvdan/sh POSIX interpreter. Shell
// builtins (echo, test, cd, ...) and the Utils commands are handled
// in-process; other programs are looked up on PATH as usual.
type VirtualRuntime struct {
	// Utils provides in-process file utilities; nil disables them.
	Utils *coreutils.Registry
}

// NewVirtualRuntime creates a virtual runtime with the default utilities.
func NewVirtualRuntime() *VirtualRuntime {
	return &VirtualRuntime{Utils: coreutils.Default()}
}

// Name returns "virtual".
func (r *VirtualRuntime) Name() string { return string(RuntimeTypeVirtual) }

// Available always returns true; the interpreter is built in.
func (r *VirtualRuntime) Available() bool { return true }

// Validate rejects empty commands and commands that do not parse.
func (r *VirtualRuntime) Validate(ctx *ExecutionContext) error {
	if err := ctx.validateScript(); err != nil {
		return err
	}
	if _, err := parse(ctx); err != nil {
		return err
	}
	return nil
}

// Execute interprets the command.
func (r *VirtualRuntime) Execute(ctx *ExecutionContext) *Result {
	prog, err := parse(ctx)
	if err != nil {
		return NewErrorResult(err)
	}

	opts := []interp.RunnerOption{
		interp.Env(expand.ListEnviron(ctx.environ()...)),
		interp.StdIO(ctx.Stdin, orDiscard(ctx.Stdout), orDiscard(ctx.Stderr)),
	}
	if ctx.WorkDir != "" {
		opts = append(opts, interp.Dir(ctx.WorkDir))
	}
	if r.Utils != nil {
		opts = append(opts, interp.ExecHandlers(r.Utils.ExecHandler))
	}
	// "--" stops args such as "-M" from being read as shell options.
	if len(ctx.Args) > 0 {
		opts = append(opts, interp.Params(append([]string{"--"}, ctx.Args...)...))
	}

	runner, err := interp.New(opts...)
	if err != nil {
		return NewErrorResult(fmt.Errorf("failed to create interpreter: %w", err))
	}

	if err := runner.Run(ctx.context(), prog); err != nil {
		var status interp.ExitStatus
		if errors.As(err, &status) {
			return &Result{ExitCode: types.ExitCode(status)}
		}
		return NewErrorResult(fmt.Errorf("task '%s' failed: %w", ctx.TaskName, err))
	}
	return &Result{}
}

func parse(ctx *ExecutionContext) (*syntax.File, error) {
	prog, err := syntax.NewParser().Parse(strings.NewReader(ctx.Script), ctx.TaskName)
	if err != nil {
		return nil, fmt.Errorf("task '%s': command syntax error: %w", ctx.TaskName, err)
	}
	return prog, nil
}

func orDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}
