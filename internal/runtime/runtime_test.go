// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"testing"
)

func TestParseRuntimeType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    RuntimeType
		wantErr bool
	}{
		{"", RuntimeTypeNative, false},
		{"native", RuntimeTypeNative, false},
		{"virtual", RuntimeTypeVirtual, false},
		{"container", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseRuntimeType(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRuntimeType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseRuntimeType(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRegistry_UnknownRuntime(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	res := r.Execute(RuntimeTypeVirtual, &ExecutionContext{TaskName: "x", Script: "true"})
	if res.Success() {
		t.Fatal("Execute on empty registry should fail")
	}
	if res.Error == nil || !strings.Contains(res.Error.Error(), "not registered") {
		t.Errorf("Error = %v, want not registered", res.Error)
	}
}

func TestRegistry_Available(t *testing.T) {
	t.Parallel()

	got := NewDefaultRegistry().Available()
	found := false
	for _, typ := range got {
		if typ == RuntimeTypeVirtual {
			found = true
		}
	}
	if !found {
		t.Errorf("Available() = %v, want virtual included", got)
	}
}

func TestVirtualRuntime_Execute(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		script   string
		args     []string
		env      map[string]string
		wantCode int
		wantOut  string
	}{
		{name: "echo", script: "echo hello", wantOut: "hello\n"},
		{name: "exit status", script: "exit 3", wantCode: 3},
		{name: "positional args", script: `echo "$1-$2"`, args: []string{"-M", "x"}, wantOut: "-M-x\n"},
		{name: "env overlay", script: `echo "$HARDCOPY_TEST_VAR"`, env: map[string]string{"HARDCOPY_TEST_VAR": "set"}, wantOut: "set\n"},
		{name: "first failure", script: "false; echo after", wantOut: "after\n"},
		{name: "errexit", script: "set -e; false; echo after", wantCode: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var stdout, stderr bytes.Buffer
			ctx := &ExecutionContext{
				Context:  context.Background(),
				TaskName: tt.name,
				Script:   tt.script,
				Args:     tt.args,
				Env:      tt.env,
				Stdout:   &stdout,
				Stderr:   &stderr,
			}

			res := NewDefaultRegistry().Execute(RuntimeTypeVirtual, ctx)
			if res.Error != nil {
				t.Fatalf("Execute() error = %v", res.Error)
			}
			if int(res.ExitCode) != tt.wantCode {
				t.Errorf("ExitCode = %d, want %d (stderr: %s)", res.ExitCode, tt.wantCode, stderr.String())
			}
			if tt.wantOut != "" && stdout.String() != tt.wantOut {
				t.Errorf("stdout = %q, want %q", stdout.String(), tt.wantOut)
			}
		})
	}
}

func TestVirtualRuntime_WorkDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var stdout bytes.Buffer
	res := NewVirtualRuntime().Execute(&ExecutionContext{
		TaskName: "pwd",
		Script:   "pwd",
		WorkDir:  dir,
		Stdout:   &stdout,
	})
	if !res.Success() {
		t.Fatalf("Execute() = %+v", res)
	}
	if strings.TrimSpace(stdout.String()) != dir {
		t.Errorf("pwd = %q, want %q", strings.TrimSpace(stdout.String()), dir)
	}
}

func TestVirtualRuntime_FileUtilities(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var stdout, stderr bytes.Buffer
	res := NewVirtualRuntime().Execute(&ExecutionContext{
		TaskName: "package",
		Script:   "mkdir -p dist/bin && echo hi > dist/bin/app && cp dist/bin/app dist/copy && cat dist/copy && rm -r dist/bin",
		WorkDir:  dir,
		Stdout:   &stdout,
		Stderr:   &stderr,
	})
	if !res.Success() {
		t.Fatalf("Execute() = %+v, stderr = %q", res, stderr.String())
	}
	if stdout.String() != "hi\n" {
		t.Errorf("stdout = %q, want %q", stdout.String(), "hi\n")
	}
	if _, err := os.Stat(filepath.Join(dir, "dist", "bin")); !os.IsNotExist(err) {
		t.Errorf("dist/bin still exists: %v", err)
	}
}

func TestVirtualRuntime_FileUtilityFailure(t *testing.T) {
	t.Parallel()

	var stderr bytes.Buffer
	res := NewVirtualRuntime().Execute(&ExecutionContext{
		TaskName: "clean",
		Script:   "rm missing",
		WorkDir:  t.TempDir(),
		Stderr:   &stderr,
	})
	if res.ExitCode != 1 || res.Error != nil {
		t.Errorf("Execute() = %+v, want exit code 1", res)
	}
	if !strings.Contains(stderr.String(), "rm:") {
		t.Errorf("stderr = %q, want rm error", stderr.String())
	}
}

func TestVirtualRuntime_Validate(t *testing.T) {
	t.Parallel()

	rt := NewVirtualRuntime()
	if err := rt.Validate(&ExecutionContext{TaskName: "empty", Script: "   "}); err == nil {
		t.Error("Validate() should reject an empty command")
	}
	if err := rt.Validate(&ExecutionContext{TaskName: "bad", Script: "echo 'unterminated"}); err == nil {
		t.Error("Validate() should reject a command that does not parse")
	}
	if err := rt.Validate(&ExecutionContext{TaskName: "ok", Script: "echo ok"}); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestNativeRuntime_Execute(t *testing.T) {
	t.Parallel()
	if goruntime.GOOS == "windows" {
		t.Skip("POSIX shell required")
	}

	rt := &NativeRuntime{Shell: "sh"}
	if !rt.Available() {
		t.Skip("sh not available")
	}

	var stdout bytes.Buffer
	res := rt.Execute(&ExecutionContext{
		TaskName: "greet",
		Script:   `echo "$0:$1"; exit 4`,
		Args:     []string{"world"},
		Stdout:   &stdout,
	})
	if res.Error != nil {
		t.Fatalf("Execute() error = %v", res.Error)
	}
	if res.ExitCode != 4 {
		t.Errorf("ExitCode = %d, want 4", res.ExitCode)
	}
	if stdout.String() != "greet:world\n" {
		t.Errorf("stdout = %q, want %q", stdout.String(), "greet:world\n")
	}
}

func TestNativeRuntime_MissingShell(t *testing.T) {
	t.Parallel()

	rt := &NativeRuntime{Shell: "/nonexistent/shell-for-hardcopy-tests"}
	res := rt.Execute(&ExecutionContext{TaskName: "x", Script: "true"})
	if res.Error == nil {
		t.Fatal("Execute() with missing shell should set Error")
	}
}

func TestShellArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		shell string
		want  string
	}{
		{"/bin/bash", "-c"},
		{`C:\Windows\System32\cmd.exe`, "/C"},
		{"pwsh", "-NoProfile -Command"},
		{"powershell.exe", "-NoProfile -Command"},
	}

	rt := NewNativeRuntime()
	for _, tt := range tests {
		t.Run(tt.shell, func(t *testing.T) {
			t.Parallel()
			if got := strings.Join(rt.shellArgs(tt.shell), " "); got != tt.want {
				t.Errorf("shellArgs(%q) = %q, want %q", tt.shell, got, tt.want)
			}
		})
	}
}

func TestAppendPositionalArgs(t *testing.T) {
	t.Parallel()

	base := []string{"-c", "script"}
	if got := appendPositionalArgs("/bin/sh", base, "task", []string{"a"}); strings.Join(got, " ") != "-c script task a" {
		t.Errorf("sh: got %v", got)
	}
	if got := appendPositionalArgs("cmd.exe", base, "task", []string{"a"}); len(got) != 2 {
		t.Errorf("cmd: got %v, want args dropped", got)
	}
	if got := appendPositionalArgs("/bin/sh", base, "task", nil); len(got) != 2 {
		t.Errorf("no args: got %v", got)
	}
}
