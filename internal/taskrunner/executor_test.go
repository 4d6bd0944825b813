// SPDX-License-Identifier: MPL-2.0

package taskrunner

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/hardcopy/hardcopy/internal/dag"
	"github.com/hardcopy/hardcopy/internal/runtime"
	"github.com/hardcopy/hardcopy/pkg/manifest"
)

const testManifest = `[project]
name = "hardcopy"
version = "0.0.0"
`

// project is a release graph over a temp directory. Every leaf appends its
// name to log.txt so tests can observe which steps ran.
type project struct {
	dir      string
	registry *Registry
	executor *Executor
	stdout   *bytes.Buffer
}

func newProject(t *testing.T) *project {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, manifest.DefaultFileName), []byte(testManifest), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "dist"), 0o755); err != nil {
		t.Fatal(err)
	}

	r := NewRegistry()
	mustDefine(t, r, "format-fix", Cmd("echo format-fix >> log.txt"))
	mustDefine(t, r, "lint-fix", Cmd("echo lint-fix >> log.txt"))
	mustDefine(t, r, "test", Cmd("echo test >> log.txt"))
	mustDefine(t, r, "prebuild", Steps("format-fix", "lint-fix", "test"))
	mustDefine(t, r, "bump", BuiltinTask(BuiltinBump))
	mustDefine(t, r, "package", Cmd("echo package >> log.txt; echo artifact > dist/hardcopy.bin"))
	mustDefine(t, r, "build", Steps("prebuild", "bump", "package"))
	mustDefine(t, r, "dry-run", Steps("prebuild", "package"))
	mustDefine(t, r, "publish", Steps("prebuild", "package"))

	stdout := &bytes.Buffer{}
	e := NewExecutor(r,
		WithDefaultRuntime(runtime.RuntimeTypeVirtual),
		WithWorkDir(dir),
		WithIO(nil, stdout, &bytes.Buffer{}),
		WithBuiltin(BuiltinBump, BumpBuiltin(manifest.DefaultFileName)),
	)
	return &project{dir: dir, registry: r, executor: e, stdout: stdout}
}

func (p *project) ran(t *testing.T) []string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(p.dir, "log.txt"))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		t.Fatal(err)
	}
	return strings.Fields(string(data))
}

func (p *project) version(t *testing.T) string {
	t.Helper()
	m, err := manifest.Load(filepath.Join(p.dir, manifest.DefaultFileName))
	if err != nil {
		t.Fatal(err)
	}
	return m.Project.Version
}

func (p *project) hasArtifact() bool {
	_, err := os.Stat(filepath.Join(p.dir, "dist", "hardcopy.bin"))
	return err == nil
}

func TestExecutor_BuildSucceeds(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	report, err := p.executor.Run(context.Background(), "build", nil)
	if err != nil {
		t.Fatalf("Run(build) error = %v", err)
	}
	if !report.Succeeded() {
		t.Error("Report.Succeeded() = false")
	}

	if got := p.version(t); got != "0.0.1" {
		t.Errorf("version = %s, want exactly one increment to 0.0.1", got)
	}
	if !p.hasArtifact() {
		t.Error("build artifact missing")
	}
	want := []string{"format-fix", "lint-fix", "test", "package"}
	if got := p.ran(t); !slices.Equal(got, want) {
		t.Errorf("ran %v, want %v", got, want)
	}

	var steps []string
	for _, s := range report.Steps {
		steps = append(steps, s.Task)
	}
	if !slices.Equal(steps, []string{"format-fix", "lint-fix", "test", "bump", "package"}) {
		t.Errorf("report steps = %v", steps)
	}
	if chain := report.Steps[0].Chain; !slices.Equal(chain, []string{"build", "prebuild", "format-fix"}) {
		t.Errorf("chain = %v", chain)
	}
}

func TestExecutor_BuildStopsOnFailingTest(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	mustDefine(t, p.registry, "test", Cmd("echo test >> log.txt; exit 3"))

	report, err := p.executor.Run(context.Background(), "build", nil)
	if err == nil {
		t.Fatal("Run(build) should fail")
	}

	var failure *SubprocessFailure
	if !errors.As(err, &failure) {
		t.Fatalf("error = %T %v, want *SubprocessFailure", err, err)
	}
	if !errors.Is(err, ErrSubprocessFailure) {
		t.Error("errors.Is(err, ErrSubprocessFailure) = false")
	}
	if failure.Task != "test" || failure.ExitCode != 3 {
		t.Errorf("failure = %+v, want test with exit code 3", failure)
	}
	if !slices.Equal(failure.Chain, []string{"build", "prebuild", "test"}) {
		t.Errorf("Chain = %v", failure.Chain)
	}
	if !strings.Contains(err.Error(), "task 'test' failed with exit code 3") {
		t.Errorf("Error() = %q", err.Error())
	}

	if got := p.version(t); got != "0.0.0" {
		t.Errorf("version = %s, want unchanged 0.0.0", got)
	}
	if p.hasArtifact() {
		t.Error("artifact should not exist after a failed test step")
	}
	if report.Succeeded() {
		t.Error("Report.Succeeded() = true")
	}
	if last := report.Steps[len(report.Steps)-1]; last.Task != "test" || last.ExitCode != 3 {
		t.Errorf("last step = %+v", last)
	}
}

func TestExecutor_EarlyFailureSkipsLaterSteps(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	mustDefine(t, p.registry, "format-fix", Cmd("exit 1"))

	if _, err := p.executor.Run(context.Background(), "prebuild", nil); err == nil {
		t.Fatal("Run(prebuild) should fail")
	}
	if got := p.ran(t); len(got) != 0 {
		t.Errorf("later steps ran: %v", got)
	}
}

func TestExecutor_PipelinesDoNotBump(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"dry-run", "publish"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			p := newProject(t)
			before := p.version(t)
			if _, err := p.executor.Run(context.Background(), name, nil); err != nil {
				t.Fatalf("Run(%s) error = %v", name, err)
			}
			if after := p.version(t); after != before {
				t.Errorf("version changed %s -> %s", before, after)
			}
		})
	}
}

func TestExecutor_BumpNotIdempotent(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	for _, want := range []string{"0.0.1", "0.0.2"} {
		if _, err := p.executor.Run(context.Background(), "bump", nil); err != nil {
			t.Fatalf("Run(bump) error = %v", err)
		}
		if got := p.version(t); got != want {
			t.Errorf("version = %s, want %s", got, want)
		}
	}

	if _, err := p.executor.Run(context.Background(), "bump", []string{"-M"}); err != nil {
		t.Fatalf("Run(bump -M) error = %v", err)
	}
	if got := p.version(t); got != "1.0.0" {
		t.Errorf("version = %s, want 1.0.0", got)
	}
	if !strings.Contains(p.stdout.String(), "0.0.2 → 1.0.0") {
		t.Errorf("stdout = %q", p.stdout.String())
	}
}

func TestExecutor_BumpMalformedManifest(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	path := filepath.Join(p.dir, manifest.DefaultFileName)
	if err := os.WriteFile(path, []byte("[project]\nname = \"x\"\nversion = \"1.2\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := p.executor.Run(context.Background(), "build", nil)
	if !errors.Is(err, manifest.ErrManifestParse) {
		t.Fatalf("error = %v, want ErrManifestParse", err)
	}
	var failure *SubprocessFailure
	if !errors.As(err, &failure) || failure.Task != "bump" {
		t.Errorf("failure = %+v, want bump", failure)
	}
	if p.hasArtifact() {
		t.Error("package should not run after a failed bump")
	}
}

func TestExecutor_LazyResolution(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	mustDefine(t, p.registry, "test", Cmd("echo redefined-test >> log.txt"))

	if _, err := p.executor.Run(context.Background(), "prebuild", nil); err != nil {
		t.Fatalf("Run(prebuild) error = %v", err)
	}
	want := []string{"format-fix", "lint-fix", "redefined-test"}
	if got := p.ran(t); !slices.Equal(got, want) {
		t.Errorf("ran %v, want %v", got, want)
	}
}

func TestExecutor_UnknownTask(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	_, err := p.executor.Run(context.Background(), "deploy", nil)
	if !errors.Is(err, ErrUnknownTask) {
		t.Errorf("error = %v, want ErrUnknownTask", err)
	}

	mustDefine(t, p.registry, "release", Steps("test", "sign"))
	_, err = p.executor.Run(context.Background(), "release", nil)
	var unknown *UnknownTaskError
	if !errors.As(err, &unknown) || unknown.Name != "sign" || unknown.ReferencedBy != "release" {
		t.Errorf("error = %v, want unknown sign referenced by release", err)
	}
	if got := p.ran(t); !slices.Equal(got, []string{"test"}) {
		t.Errorf("ran %v, want steps before the dangling one only", got)
	}
}

func TestExecutor_CompositeArgsRejected(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	_, err := p.executor.Run(context.Background(), "build", []string{"-M"})
	if !errors.Is(err, ErrCompositeArgs) {
		t.Fatalf("error = %v, want ErrCompositeArgs", err)
	}
	if got := p.version(t); got != "0.0.0" {
		t.Errorf("version = %s, nothing should have run", got)
	}
}

func TestExecutor_ArgsReachLeaf(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	mustDefine(t, p.registry, "say", Cmd(`echo "$1" >> log.txt`))
	if _, err := p.executor.Run(context.Background(), "say", []string{"hello"}); err != nil {
		t.Fatal(err)
	}
	if got := p.ran(t); !slices.Equal(got, []string{"hello"}) {
		t.Errorf("ran %v", got)
	}
}

func TestExecutor_RuntimeCycleGuard(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	mustDefine(t, p.registry, "a", Steps("b"))
	mustDefine(t, p.registry, "b", Steps("a"))

	_, err := p.executor.Run(context.Background(), "a", nil)
	var cycle *dag.CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("error = %v, want *dag.CycleError", err)
	}
	if !slices.Equal(cycle.Cycle, []string{"a", "b", "a"}) {
		t.Errorf("Cycle = %v", cycle.Cycle)
	}
}

func TestExecutor_CancelledBetweenSteps(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	ctx, cancel := context.WithCancel(context.Background())
	mustDefine(t, p.registry, "stop", BuiltinTask("cancel"))
	mustDefine(t, p.registry, "seq", Steps("stop", "test"))
	e := NewExecutor(p.registry,
		WithDefaultRuntime(runtime.RuntimeTypeVirtual),
		WithWorkDir(p.dir),
		WithIO(nil, &bytes.Buffer{}, &bytes.Buffer{}),
		WithBuiltin("cancel", BuiltinFunc(func(context.Context, BuiltinEnv, []string) error {
			cancel()
			return nil
		})),
	)

	_, err := e.Run(ctx, "seq", nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if got := p.ran(t); len(got) != 0 {
		t.Errorf("step after cancellation ran: %v", got)
	}
}

func TestExecutor_MissingBuiltin(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	mustDefine(t, p.registry, "sign", BuiltinTask("sign"))
	_, err := p.executor.Run(context.Background(), "sign", nil)
	var failure *SubprocessFailure
	if !errors.As(err, &failure) || failure.ExitCode != 1 {
		t.Fatalf("error = %v, want SubprocessFailure with exit 1", err)
	}
	if !strings.Contains(err.Error(), "builtin 'sign' is not available") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestParseBumpArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		args    []string
		want    manifest.Level
		wantErr bool
	}{
		{nil, manifest.LevelPatch, false},
		{[]string{"-M"}, manifest.LevelMajor, false},
		{[]string{"--major"}, manifest.LevelMajor, false},
		{[]string{"-m"}, manifest.LevelMinor, false},
		{[]string{"-p"}, manifest.LevelPatch, false},
		{[]string{"minor"}, manifest.LevelMinor, false},
		{[]string{"-M", "-m"}, "", true},
		{[]string{"-M", "minor"}, "", true},
		{[]string{"huge"}, "", true},
		{[]string{"major", "minor"}, "", true},
		{[]string{"--unknown"}, "", true},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			t.Parallel()
			got, err := ParseBumpArgs(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseBumpArgs(%v) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseBumpArgs(%v) = %q, want %q", tt.args, got, tt.want)
			}
		})
	}
}
