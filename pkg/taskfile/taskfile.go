// SPDX-License-Identifier: MPL-2.0

// Package taskfile loads task definitions from CUE files.
package taskfile

import (
	_ "embed"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/hardcopy/hardcopy/internal/runtime"
	"github.com/hardcopy/hardcopy/internal/taskrunner"
	"github.com/hardcopy/hardcopy/pkg/cueutil"
	"github.com/hardcopy/hardcopy/pkg/types"
)

// DefaultFileName is the project taskfile looked up in the working directory.
const DefaultFileName = "tasks.cue"

// defaultSource is shown in messages when the built-in taskfile is used.
const defaultSource = "<built-in>"

var (
	//go:embed taskfile_schema.cue
	schema []byte

	//go:embed tasks.cue
	defaultTasks []byte

	// ErrTaskfileParse is wrapped by every parse and validation failure.
	ErrTaskfileParse = errors.New("invalid taskfile")
)

type (
	// Taskfile is a decoded tasks.cue.
	Taskfile struct {
		Tasks map[string]TaskDef `json:"tasks"`

		// Source is the file the tasks came from, or "<built-in>".
		Source string `json:"-"`
		// Dir anchors relative workdir values; empty for the built-in taskfile.
		Dir string `json:"-"`
	}

	// TaskDef is one entry of the tasks map.
	TaskDef struct {
		Description string            `json:"description,omitempty"`
		Cmd         string            `json:"cmd,omitempty"`
		Steps       []string          `json:"steps,omitempty"`
		Builtin     string            `json:"builtin,omitempty"`
		Args        []string          `json:"args,omitempty"`
		Runtime     string            `json:"runtime,omitempty"`
		Env         map[string]string `json:"env,omitempty"`
		WorkDir     string            `json:"workdir,omitempty"`
	}
)

// Parse decodes and schema-checks taskfile source. filename is used in errors.
func Parse(data []byte, filename string) (*Taskfile, error) {
	result, err := cueutil.ParseAndDecode[Taskfile](schema, data, "#Taskfile", cueutil.WithFilename(filename))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTaskfileParse, err)
	}
	tf := result.Value
	var errs []error
	for _, name := range slices.Sorted(maps.Keys(tf.Tasks)) {
		if err := taskrunner.ValidateName(name); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s: %w", ErrTaskfileParse, filename, errors.Join(errs...))
	}
	tf.Source = filename
	return tf, nil
}

// Load parses the taskfile at path.
func Load(path string) (*Taskfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read taskfile: %w", err)
	}
	tf, err := Parse(data, path)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	tf.Dir = filepath.Dir(abs)
	return tf, nil
}

// Default returns the built-in release workflow.
func Default() *Taskfile {
	tf, err := Parse(defaultTasks, defaultSource)
	if err != nil {
		panic(fmt.Sprintf("built-in taskfile is invalid: %v", err))
	}
	return tf
}

// Discover loads path when it exists and falls back to the built-in taskfile
// otherwise. A project taskfile replaces the built-in one; the two are never
// merged. Callers holding a user-chosen path should use Load, which fails
// when the file is missing.
func Discover(path string) (*Taskfile, error) {
	if path == "" {
		path = DefaultFileName
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	return Load(path)
}

// IsDefault reports whether tf is the built-in taskfile.
func (tf *Taskfile) IsDefault() bool { return tf.Source == defaultSource }

// Registry defines every task and validates the resulting graph. All
// definition errors, dangling steps and cycles are returned together.
func (tf *Taskfile) Registry() (*taskrunner.Registry, error) {
	reg := taskrunner.NewRegistry()
	var errs []error
	for _, name := range slices.Sorted(maps.Keys(tf.Tasks)) {
		if err := reg.Define(name, tf.task(tf.Tasks[name])); err != nil {
			errs = append(errs, err)
		}
	}
	errs = append(errs, reg.Validate()...)
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s: %w", ErrTaskfileParse, tf.Source, errors.Join(errs...))
	}
	return reg, nil
}

func (tf *Taskfile) task(def TaskDef) taskrunner.Task {
	workDir := def.WorkDir
	if workDir != "" && tf.Dir != "" && !filepath.IsAbs(workDir) {
		workDir = filepath.Join(tf.Dir, workDir)
	}
	return taskrunner.Task{
		Description: types.DescriptionText(def.Description),
		Cmd:         def.Cmd,
		Steps:       def.Steps,
		Builtin:     def.Builtin,
		Args:        def.Args,
		Runtime:     runtime.RuntimeType(def.Runtime),
		Env:         def.Env,
		WorkDir:     workDir,
	}
}
