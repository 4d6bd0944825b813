// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"strings"

	"github.com/hardcopy/hardcopy/pkg/types"
)

// NativeRuntime runs commands through the host shell.
type NativeRuntime struct {
	// Shell overrides shell detection.
	Shell string
	// ShellArgs overrides the arguments placed before the command.
	ShellArgs []string
}

// NewNativeRuntime creates a native runtime with shell auto-detection.
func NewNativeRuntime() *NativeRuntime {
	return &NativeRuntime{}
}

// Name returns "native".
func (r *NativeRuntime) Name() string { return string(RuntimeTypeNative) }

// Available reports whether a shell could be found.
func (r *NativeRuntime) Available() bool {
	_, err := r.shell()
	return err == nil
}

// Validate rejects empty commands.
func (r *NativeRuntime) Validate(ctx *ExecutionContext) error {
	return ctx.validateScript()
}

// Execute runs the command and reports its exit status. A non-zero exit is
// not an error: Result.Error is only set when the shell could not start.
func (r *NativeRuntime) Execute(ctx *ExecutionContext) *Result {
	shell, err := r.shell()
	if err != nil {
		return NewErrorResult(err)
	}

	args := append(r.shellArgs(shell), ctx.Script)
	args = appendPositionalArgs(shell, args, ctx.TaskName, ctx.Args)

	cmd := exec.CommandContext(ctx.context(), shell, args...)
	cmd.Dir = ctx.WorkDir
	cmd.Env = ctx.environ()
	cmd.Stdout = ctx.Stdout
	cmd.Stderr = ctx.Stderr
	cmd.Stdin = ctx.Stdin

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &Result{ExitCode: types.ExitCode(exitErr.ExitCode())}
		}
		return NewErrorResult(fmt.Errorf("failed to start %s: %w", shell, err))
	}
	return &Result{}
}

func (r *NativeRuntime) shell() (string, error) {
	if r.Shell != "" {
		return r.Shell, nil
	}

	if goruntime.GOOS == "windows" {
		for _, candidate := range []string{"pwsh", "powershell", "cmd"} {
			if path, err := exec.LookPath(candidate); err == nil {
				return path, nil
			}
		}
		return "", fmt.Errorf("no shell found (tried pwsh, powershell, cmd)")
	}

	if shell := os.Getenv("SHELL"); shell != "" {
		return shell, nil
	}
	for _, candidate := range []string{"bash", "sh"} {
		if path, err := exec.LookPath(candidate); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no shell found (tried $SHELL, bash, sh)")
}

func (r *NativeRuntime) shellArgs(shell string) []string {
	if len(r.ShellArgs) > 0 {
		return append([]string(nil), r.ShellArgs...)
	}
	switch shellBase(shell) {
	case "cmd":
		return []string{"/C"}
	case "powershell", "pwsh":
		return []string{"-NoProfile", "-Command"}
	default:
		return []string{"-c"}
	}
}

// appendPositionalArgs makes args visible to the command: $0/$1.. for POSIX
// shells, $args for PowerShell. cmd.exe has no way to receive them.
func appendPositionalArgs(shell string, args []string, name string, positional []string) []string {
	if len(positional) == 0 {
		return args
	}
	switch shellBase(shell) {
	case "cmd":
		return args
	case "powershell", "pwsh":
		return append(args, positional...)
	default:
		args = append(args, name)
		return append(args, positional...)
	}
}

// shellBase returns the lower-cased executable name without extension,
// accepting both slash styles so Windows paths resolve on any host.
func shellBase(shell string) string {
	base := filepath.Base(shell)
	if i := strings.LastIndex(base, `\`); i >= 0 {
		base = base[i+1:]
	}
	return strings.TrimSuffix(strings.ToLower(base), ".exe")
}
