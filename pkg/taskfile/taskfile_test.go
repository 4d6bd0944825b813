// SPDX-License-Identifier: MPL-2.0

package taskfile

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/hardcopy/hardcopy/internal/dag"
	"github.com/hardcopy/hardcopy/internal/runtime"
	"github.com/hardcopy/hardcopy/internal/taskrunner"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	tf := Default()
	if !tf.IsDefault() {
		t.Error("IsDefault() = false")
	}

	reg, err := tf.Registry()
	if err != nil {
		t.Fatalf("Registry() error = %v", err)
	}

	for _, name := range []string{"format-fix", "lint-fix", "test", "prebuild", "bump", "build", "dry-run", "publish"} {
		if _, err := reg.Resolve(name); err != nil {
			t.Errorf("default task %q missing: %v", name, err)
		}
	}

	tests := []struct {
		name   string
		leaves []string
	}{
		{"prebuild", []string{"format-fix", "lint-fix", "test"}},
		{"build", []string{"format-fix", "lint-fix", "test", "bump", "package"}},
		{"dry-run", []string{"format-fix", "lint-fix", "test", "package", "upload-staging"}},
		{"publish", []string{"format-fix", "lint-fix", "test", "package", "upload"}},
	}
	for _, tt := range tests {
		if got := reg.Leaves(tt.name); !slices.Equal(got, tt.leaves) {
			t.Errorf("Leaves(%s) = %v, want %v", tt.name, got, tt.leaves)
		}
	}

	for _, name := range []string{"dry-run", "publish"} {
		if slices.Contains(reg.Leaves(name), "bump") {
			t.Errorf("%s must not bump", name)
		}
	}

	for _, name := range []string{"format-fix", "lint-fix", "test", "package"} {
		task, _ := reg.Resolve(name)
		if !strings.HasSuffix(task.Cmd, `"$@"`) || task.Runtime != runtime.RuntimeTypeVirtual {
			t.Errorf("%s = %+v, want a virtual-shell command that forwards its arguments", name, task)
		}
	}

	staging, _ := reg.Resolve("upload-staging")
	if staging.Builtin != taskrunner.BuiltinUpload || !slices.Equal(staging.Args, []string{"--index", "staging"}) {
		t.Errorf("upload-staging = %+v", staging)
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	src := `
tasks: {
	hello: {
		description: "Say hello"
		cmd:         "echo hello"
		runtime:     "virtual"
		env: GREETING: "hi"
	}
	all: steps: ["hello"]
	release: {
		builtin: "bump"
		args: ["-m"]
	}
}
`
	tf, err := Parse([]byte(src), "tasks.cue")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(tf.Tasks) != 3 {
		t.Fatalf("len(Tasks) = %d, want 3", len(tf.Tasks))
	}
	hello := tf.Tasks["hello"]
	if hello.Cmd != "echo hello" || hello.Runtime != "virtual" || hello.Env["GREETING"] != "hi" {
		t.Errorf("hello = %+v", hello)
	}

	reg, err := tf.Registry()
	if err != nil {
		t.Fatalf("Registry() error = %v", err)
	}
	task, _ := reg.Resolve("release")
	if task.Kind() != taskrunner.KindBuiltin || !slices.Equal(task.Args, []string{"-m"}) {
		t.Errorf("release = %+v", task)
	}
}

func TestParse_SchemaErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
	}{
		{"unknown field", `tasks: a: {cmd: "x", shell: "bash"}`},
		{"unknown builtin", `tasks: a: builtin: "deploy"`},
		{"unknown runtime", `tasks: a: {cmd: "x", runtime: "container"}`},
		{"empty steps", `tasks: a: steps: []`},
		{"bad task name", `tasks: "1abc": cmd: "x"`},
		{"task name with space", `tasks: "a b": cmd: "x"`},
		{"empty cmd", `tasks: a: cmd: ""`},
		{"top-level field", `jobs: {}`},
		{"syntax", `tasks: {`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tt.src), "tasks.cue")
			if !errors.Is(err, ErrTaskfileParse) {
				t.Errorf("Parse() error = %v, want ErrTaskfileParse", err)
			}
		})
	}
}

func TestRegistry_Errors(t *testing.T) {
	t.Parallel()

	t.Run("exactly one kind", func(t *testing.T) {
		t.Parallel()
		tf, err := Parse([]byte(`tasks: a: {cmd: "x", steps: ["b"]}, tasks: b: cmd: "y"`), "tasks.cue")
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		_, err = tf.Registry()
		if !errors.Is(err, taskrunner.ErrInvalidTask) {
			t.Errorf("Registry() error = %v, want ErrInvalidTask", err)
		}
	})

	t.Run("dangling and cycle", func(t *testing.T) {
		t.Parallel()
		src := `tasks: {
	a: steps: ["b", "missing"]
	b: steps: ["a"]
}`
		tf, err := Parse([]byte(src), "tasks.cue")
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		_, err = tf.Registry()
		if !errors.Is(err, ErrTaskfileParse) || !errors.Is(err, taskrunner.ErrUnknownTask) {
			t.Errorf("Registry() error = %v, want dangling reference", err)
		}
		var cycle *dag.CycleError
		if !errors.As(err, &cycle) {
			t.Errorf("Registry() error = %v, want cycle", err)
		}
	})
}

func TestDiscover(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tf, err := Discover(filepath.Join(dir, DefaultFileName))
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if !tf.IsDefault() {
		t.Error("missing taskfile should fall back to the built-in one")
	}

	path := filepath.Join(dir, DefaultFileName)
	src := `tasks: only: {cmd: "true", workdir: "sub"}`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	tf, err = Discover(path)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if tf.IsDefault() {
		t.Error("project taskfile should be used")
	}

	reg, err := tf.Registry()
	if err != nil {
		t.Fatalf("Registry() error = %v", err)
	}
	if reg.Len() != 1 {
		t.Errorf("project taskfile must replace the defaults, got %v", reg.Names())
	}
	task, _ := reg.Resolve("only")
	if task.WorkDir != filepath.Join(dir, "sub") {
		t.Errorf("WorkDir = %q, want relative to the taskfile", task.WorkDir)
	}
}

func TestLoad_ErrorMentionsFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), DefaultFileName)
	if err := os.WriteFile(path, []byte(`tasks: a: builtin: "deploy"`), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), path) {
		t.Errorf("Load() error = %v, want file path in message", err)
	}
}
