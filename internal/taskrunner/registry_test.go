// SPDX-License-Identifier: MPL-2.0

package taskrunner

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/hardcopy/hardcopy/internal/dag"
)

func TestRegistry_Resolve(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	mustDefine(t, r, "test", Cmd("go test ./..."))

	task, err := r.Resolve("test")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if task.Kind() != KindCmd || task.Cmd != "go test ./..." {
		t.Errorf("Resolve() = %+v", task)
	}

	_, err = r.Resolve("missing")
	var unknown *UnknownTaskError
	if !errors.As(err, &unknown) || unknown.Name != "missing" {
		t.Fatalf("Resolve(missing) error = %v, want *UnknownTaskError", err)
	}
	if !errors.Is(err, ErrUnknownTask) {
		t.Error("errors.Is(err, ErrUnknownTask) = false")
	}
}

func TestRegistry_DefineRejectsInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		task Task
	}{
		{"none set", Task{}},
		{"cmd and steps", Task{Cmd: "true", Steps: []string{"a"}}},
		{"cmd and builtin", Task{Cmd: "true", Builtin: "bump"}},
		{"empty steps", Task{Steps: []string{}}},
		{"empty step name", Steps("a", "")},
		{"args without builtin", Task{Cmd: "true", Args: []string{"-M"}}},
		{"unknown runtime", Task{Cmd: "true", Runtime: "container"}},
		{"blank description", Task{Cmd: "true", Description: "   "}},
		{"multi-line description", Task{Cmd: "true", Description: "Format\nand lint"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := NewRegistry().Define("x", tt.task)
			if !errors.Is(err, ErrInvalidTask) {
				t.Errorf("Define() error = %v, want ErrInvalidTask", err)
			}
		})
	}

	for _, name := range []string{"", " ", "1abc", "a b", "-lint", "tests/unit"} {
		if err := NewRegistry().Define(name, Cmd("true")); !errors.Is(err, ErrInvalidTask) {
			t.Errorf("Define(%q) error = %v, want ErrInvalidTask", name, err)
		}
	}
	for _, name := range []string{"a", "format-fix", "go:generate", "v1.2_check"} {
		if err := NewRegistry().Define(name, Cmd("true")); err != nil {
			t.Errorf("Define(%q) error = %v", name, err)
		}
	}
}

func TestRegistry_DefineCopiesSlices(t *testing.T) {
	t.Parallel()

	steps := []string{"a", "b"}
	r := NewRegistry()
	mustDefine(t, r, "c", Steps(steps...))
	steps[0] = "changed"

	task, _ := r.Resolve("c")
	if task.Steps[0] != "a" {
		t.Errorf("registry shares caller slice: %v", task.Steps)
	}
}

func TestRegistry_Validate(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		r := NewRegistry()
		mustDefine(t, r, "a", Cmd("true"))
		mustDefine(t, r, "b", Steps("a"))
		mustDefine(t, r, "c", Steps("a", "b"))
		if errs := r.Validate(); len(errs) != 0 {
			t.Errorf("Validate() = %v, want none", errs)
		}
	})

	t.Run("dangling", func(t *testing.T) {
		t.Parallel()
		r := NewRegistry()
		mustDefine(t, r, "build", Steps("prebuild", "package"))
		mustDefine(t, r, "package", Cmd("true"))

		errs := r.Validate()
		if len(errs) != 1 {
			t.Fatalf("Validate() = %v, want 1 error", errs)
		}
		var unknown *UnknownTaskError
		if !errors.As(errs[0], &unknown) {
			t.Fatalf("error = %T, want *UnknownTaskError", errs[0])
		}
		if unknown.Name != "prebuild" || unknown.ReferencedBy != "build" {
			t.Errorf("got %+v", unknown)
		}
		if !strings.Contains(unknown.Error(), "referenced by 'build'") {
			t.Errorf("Error() = %q", unknown.Error())
		}
	})

	t.Run("cycle", func(t *testing.T) {
		t.Parallel()
		r := NewRegistry()
		mustDefine(t, r, "a", Steps("b"))
		mustDefine(t, r, "b", Steps("c"))
		mustDefine(t, r, "c", Steps("a"))

		errs := r.Validate()
		if len(errs) != 1 {
			t.Fatalf("Validate() = %v, want 1 error", errs)
		}
		var cycle *dag.CycleError
		if !errors.As(errs[0], &cycle) {
			t.Fatalf("error = %T, want *dag.CycleError", errs[0])
		}
		if cycle.Cycle[0] != cycle.Cycle[len(cycle.Cycle)-1] || len(cycle.Cycle) != 4 {
			t.Errorf("Cycle = %v", cycle.Cycle)
		}
	})

	t.Run("self reference", func(t *testing.T) {
		t.Parallel()
		r := NewRegistry()
		mustDefine(t, r, "loop", Steps("loop"))
		if errs := r.Validate(); len(errs) != 1 {
			t.Errorf("Validate() = %v, want cycle", errs)
		}
	})
}

func TestRegistry_NamesAndOrder(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	mustDefine(t, r, "build", Steps("prebuild", "package"))
	mustDefine(t, r, "prebuild", Cmd("true"))
	mustDefine(t, r, "package", Cmd("true"))

	if got := r.Names(); !slices.Equal(got, []string{"build", "package", "prebuild"}) {
		t.Errorf("Names() = %v", got)
	}

	order, err := r.Order()
	if err != nil {
		t.Fatalf("Order() error = %v", err)
	}
	if slices.Index(order, "build") < slices.Index(order, "prebuild") ||
		slices.Index(order, "build") < slices.Index(order, "package") {
		t.Errorf("Order() = %v, composite must follow its steps", order)
	}
}

func TestRegistry_Explain(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	mustDefine(t, r, "fmt", Cmd("gofmt -s -w ."))
	mustDefine(t, r, "bump", BuiltinTask("bump", "-m"))
	mustDefine(t, r, "prebuild", Steps("fmt"))
	mustDefine(t, r, "build", Steps("prebuild", "bump", "ghost"))

	out, err := r.Explain("build")
	if err != nil {
		t.Fatalf("Explain() error = %v", err)
	}
	want := strings.Join([]string{
		"build",
		"├── prebuild",
		"│   └── fmt: gofmt -s -w .",
		"├── bump: builtin bump -m",
		"└── ghost (unknown task)",
		"",
	}, "\n")
	if out != want {
		t.Errorf("Explain() =\n%s\nwant\n%s", out, want)
	}

	if _, err := r.Explain("nope"); !errors.Is(err, ErrUnknownTask) {
		t.Errorf("Explain(nope) error = %v", err)
	}

	if got := r.Leaves("build"); !slices.Equal(got, []string{"fmt", "bump"}) {
		t.Errorf("Leaves() = %v", got)
	}
}

func mustDefine(t *testing.T, r *Registry, name string, task Task) {
	t.Helper()
	if err := r.Define(name, task); err != nil {
		t.Fatalf("Define(%q) error = %v", name, err)
	}
}
