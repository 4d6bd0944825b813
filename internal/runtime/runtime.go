// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/hardcopy/hardcopy/pkg/types"
)

// Runtime type constants.
const (
	RuntimeTypeNative  RuntimeType = "native"
	RuntimeTypeVirtual RuntimeType = "virtual"
)

type (
	// ExecutionContext is everything a runtime needs to run one task command.
	ExecutionContext struct {
		// Context carries cancellation; a nil Context means context.Background().
		Context context.Context
		// TaskName is used in $0 and error messages.
		TaskName string
		// Script is the command line to run.
		Script string
		// Args become the positional parameters $1, $2, ...
		Args []string
		// WorkDir is the directory the command runs in; empty means the
		// current directory.
		WorkDir string
		// Env is layered over the inherited host environment.
		Env map[string]string

		Stdout io.Writer
		Stderr io.Writer
		Stdin  io.Reader
	}

	// Result is the outcome of running a command.
	Result struct {
		// ExitCode is the process (or interpreter) exit status.
		ExitCode types.ExitCode
		// Error is set when the command could not be run at all.
		Error error
	}

	// Runtime runs task commands.
	Runtime interface {
		Name() string
		Execute(ctx *ExecutionContext) *Result
		Available() bool
		Validate(ctx *ExecutionContext) error
	}

	// RuntimeType identifies a runtime.
	//
	//nolint:revive // RuntimeType reads better than Type at call sites
	RuntimeType string

	// Registry holds the runtimes available to the task runner.
	Registry struct {
		runtimes map[RuntimeType]Runtime
	}
)

// Success reports whether the command ran and exited 0.
func (r *Result) Success() bool {
	return r.Error == nil && r.ExitCode.IsSuccess()
}

// NewErrorResult creates a Result for a command that could not be run.
func NewErrorResult(err error) *Result {
	return &Result{ExitCode: 1, Error: err}
}

// ParseRuntimeType validates a runtime name. The empty string maps to native.
func ParseRuntimeType(s string) (RuntimeType, error) {
	switch t := RuntimeType(s); t {
	case RuntimeTypeNative, RuntimeTypeVirtual:
		return t, nil
	case "":
		return RuntimeTypeNative, nil
	default:
		return "", fmt.Errorf("unknown runtime %q (want native or virtual)", s)
	}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{runtimes: make(map[RuntimeType]Runtime)}
}

// NewDefaultRegistry registers the native and virtual runtimes.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(RuntimeTypeNative, NewNativeRuntime())
	r.Register(RuntimeTypeVirtual, NewVirtualRuntime())
	return r
}

// Register adds or replaces a runtime.
func (r *Registry) Register(typ RuntimeType, rt Runtime) {
	r.runtimes[typ] = rt
}

// Get returns the runtime registered for typ.
func (r *Registry) Get(typ RuntimeType) (Runtime, error) {
	rt, ok := r.runtimes[typ]
	if !ok {
		return nil, fmt.Errorf("runtime '%s' not registered", typ)
	}
	return rt, nil
}

// Available lists the registered runtimes usable on this host, sorted.
func (r *Registry) Available() []RuntimeType {
	var types []RuntimeType
	for _, typ := range slices.Sorted(maps.Keys(r.runtimes)) {
		if r.runtimes[typ].Available() {
			types = append(types, typ)
		}
	}
	return types
}

// Execute runs ctx with the runtime registered for typ.
func (r *Registry) Execute(typ RuntimeType, ctx *ExecutionContext) *Result {
	rt, err := r.Get(typ)
	if err != nil {
		return NewErrorResult(err)
	}
	if !rt.Available() {
		return NewErrorResult(fmt.Errorf("runtime '%s' is not available on this system", rt.Name()))
	}
	if err := rt.Validate(ctx); err != nil {
		return NewErrorResult(err)
	}
	return rt.Execute(ctx)
}

func (ctx *ExecutionContext) context() context.Context {
	if ctx.Context == nil {
		return context.Background()
	}
	return ctx.Context
}

func (ctx *ExecutionContext) validateScript() error {
	if strings.TrimSpace(ctx.Script) == "" {
		return fmt.Errorf("task '%s' has an empty command", ctx.TaskName)
	}
	return nil
}

// environ returns the host environment with ctx.Env layered on top, as
// KEY=VALUE pairs sorted by key.
func (ctx *ExecutionContext) environ() []string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			env[k] = v
		}
	}
	maps.Copy(env, ctx.Env)

	out := make([]string, 0, len(env))
	for _, k := range slices.Sorted(maps.Keys(env)) {
		out = append(out, k+"="+env[k])
	}
	return out
}
