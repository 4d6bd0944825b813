// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/hardcopy/hardcopy/internal/config"
	"github.com/hardcopy/hardcopy/internal/issue"
	"github.com/hardcopy/hardcopy/internal/runtime"
	"github.com/hardcopy/hardcopy/internal/taskrunner"
	"github.com/hardcopy/hardcopy/pkg/taskfile"
)

type (
	// App wires CLI services and shared dependencies. Every command handler
	// receives an App and reads configuration and project state through it.
	App struct {
		Config     ConfigProvider
		HTTPClient *http.Client
		stdin      io.Reader
		stdout     io.Writer
		stderr     io.Writer

		// Set by the persistent flags on the root command.
		verbose    bool
		configPath string

		// cfg is loaded once per invocation by the root PersistentPreRunE.
		cfg *config.Config
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config     ConfigProvider
		HTTPClient *http.Client
		Stdin      io.Reader
		Stdout     io.Writer
		Stderr     io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// project is the task state of the working directory.
	project struct {
		tasks    *taskfile.Taskfile
		registry *taskrunner.Registry
		executor *taskrunner.Executor
		// dir is where tasks run and relative manifest paths resolve.
		dir string
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdin == nil {
		deps.Stdin = os.Stdin
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.HTTPClient == nil {
		deps.HTTPClient = http.DefaultClient
	}
	return &App{
		Config:     deps.Config,
		HTTPClient: deps.HTTPClient,
		stdin:      deps.Stdin,
		stdout:     deps.Stdout,
		stderr:     deps.Stderr,
	}
}

// loadConfig loads the configuration and installs the logger. A broken
// config file is reported and the defaults are used instead, except when the
// file was named explicitly with --config.
func (a *App) loadConfig(ctx context.Context) error {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: a.configPath})
	if err != nil {
		if a.configPath != "" {
			return err
		}
		fmt.Fprintln(a.stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, a.verbose))
		cfg = config.DefaultConfig()
	}
	if !a.verbose {
		a.verbose = cfg.UI.Verbose
	}
	a.cfg = cfg
	return installLogger(a.stderr, cfg.Log, a.verbose)
}

// effectiveConfig returns the loaded configuration, or the defaults when a command
// runs without the root pre-run hook (as in unit tests).
func (a *App) effectiveConfig() *config.Config {
	if a.cfg == nil {
		return config.DefaultConfig()
	}
	return a.cfg
}

func (a *App) issueStyle() string {
	return glamourStyle(a.effectiveConfig().UI.ColorScheme, a.stderr)
}

// loadProject discovers the taskfile and builds the registry and executor.
// Tasks run in the taskfile's directory, or the working directory for the
// built-in taskfile.
func (a *App) loadProject() (*project, error) {
	cfg := a.effectiveConfig()

	tf, err := openTaskfile(cfg.Taskfile)
	if err != nil {
		return nil, newServiceError(
			issue.WrapWithContext(err, "load taskfile", cfg.Taskfile),
			issue.TaskfileParseErrorId, "")
	}
	reg, err := tf.Registry()
	if err != nil {
		id := issue.TaskfileParseErrorId
		if errors.Is(err, taskrunner.ErrUnknownTask) {
			id = issue.TaskGraphInvalidId
		}
		return nil, newServiceError(err, id, "")
	}

	workDir, manifestPath, err := projectPaths(tf, cfg.Manifest)
	if err != nil {
		return nil, err
	}

	defaultRuntime, err := runtime.ParseRuntimeType(cfg.DefaultRuntime)
	if err != nil {
		return nil, fmt.Errorf("config default_runtime: %w", err)
	}

	exec := taskrunner.NewExecutor(reg,
		taskrunner.WithDefaultRuntime(defaultRuntime),
		taskrunner.WithWorkDir(workDir),
		taskrunner.WithIO(a.stdin, a.stdout, a.stderr),
		taskrunner.WithBuiltin(taskrunner.BuiltinBump, taskrunner.BumpBuiltin(manifestPath)),
		taskrunner.WithBuiltin(taskrunner.BuiltinUpload, taskrunner.UploadBuiltin(taskrunner.UploadConfig{
			ManifestPath: manifestPath,
			DistDir:      cfg.Publish.DistDir,
			Indexes:      cfg.Publish.Indexes(),
			TokenEnv:     cfg.Publish.TokenEnv,
			Client:       a.HTTPClient,
		})),
	)

	return &project{tasks: tf, registry: reg, executor: exec, dir: workDir}, nil
}

// openTaskfile falls back to the built-in taskfile only for the default
// location. A taskfile configured elsewhere must exist.
func openTaskfile(path string) (*taskfile.Taskfile, error) {
	if path == "" || path == config.DefaultConfig().Taskfile {
		return taskfile.Discover(path)
	}
	return taskfile.Load(path)
}

// projectPaths returns the directory tasks run in and the absolute manifest
// path. A relative manifest resolves against that directory, so the bump and
// upload builtins see the same file the tasks do.
func projectPaths(tf *taskfile.Taskfile, manifestPath string) (dir, manifest string, err error) {
	dir = tf.Dir
	if dir == "" {
		if dir, err = os.Getwd(); err != nil {
			return "", "", err
		}
	}
	if filepath.IsAbs(manifestPath) {
		return dir, manifestPath, nil
	}
	return dir, filepath.Join(dir, manifestPath), nil
}
