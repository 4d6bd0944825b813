// SPDX-License-Identifier: MPL-2.0

package coreutils

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/pflag"
	"mvdan.cc/sh/v3/interp"
)

type (
	// Command is one utility.
	Command interface {
		// Name returns the command name (e.g., "cp").
		Name() string

		// Run executes the command. args[0] is the command name.
		Run(ctx context.Context, args []string) error
	}

	// HandlerContext is the part of the interpreter state a utility sees.
	HandlerContext struct {
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
		// Dir is the shell's current directory; relative paths resolve against it.
		Dir string
	}

	handlerContextKey struct{}

	commandFunc struct {
		name string
		run  func(ctx context.Context, hc *HandlerContext, args []string) error
	}
)

func (c *commandFunc) Name() string { return c.name }

func (c *commandFunc) Run(ctx context.Context, args []string) error {
	return c.run(ctx, GetHandlerContext(ctx), args)
}

// WithHandlerContext stores hc in ctx. Tests use it to run a utility without
// an interpreter.
func WithHandlerContext(ctx context.Context, hc *HandlerContext) context.Context {
	return context.WithValue(ctx, handlerContextKey{}, hc)
}

// GetHandlerContext returns the context stored by WithHandlerContext, or the
// one taken from the running mvdan/sh interpreter.
func GetHandlerContext(ctx context.Context) *HandlerContext {
	if hc, ok := ctx.Value(handlerContextKey{}).(*HandlerContext); ok {
		return hc
	}
	hc := interp.HandlerCtx(ctx)
	return &HandlerContext{Stdin: hc.Stdin, Stdout: hc.Stdout, Stderr: hc.Stderr, Dir: hc.Dir}
}

// path resolves p against the shell's current directory.
func (hc *HandlerContext) path(p string) string {
	if filepath.IsAbs(p) || hc.Dir == "" {
		return p
	}
	return filepath.Join(hc.Dir, p)
}

// newFlagSet returns a POSIX-style flag set that reports errors instead of
// printing them.
func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// wrapError prefixes err with the command name.
func wrapError(name string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", name, err)
}
