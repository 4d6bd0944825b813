// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hardcopy/hardcopy/internal/dag"
	"github.com/hardcopy/hardcopy/internal/issue"
	"github.com/hardcopy/hardcopy/internal/taskrunner"
	"github.com/hardcopy/hardcopy/internal/watch"
	"github.com/hardcopy/hardcopy/pkg/manifest"
	"github.com/hardcopy/hardcopy/pkg/types"

	"github.com/spf13/cobra"
)

// exitInterrupted is the conventional status for a run stopped by SIGINT.
const exitInterrupted types.ExitCode = 130

type runOptions struct {
	explain  bool
	watch    bool
	patterns []string
	debounce time.Duration
}

// watchConfig watches the project directory dir.
func (o runOptions) watchConfig(dir string, onChange func(context.Context, []string) error) watch.Config {
	return watch.Config{
		BaseDir:  dir,
		Patterns: o.patterns,
		Debounce: o.debounce,
		OnChange: onChange,
	}
}

// newRunCommand creates the `hardcopy run` command.
func newRunCommand(app *App) *cobra.Command {
	var opts runOptions

	runCmd := &cobra.Command{
		Use:   "run <task> [-- args...]",
		Short: "Run a task",
		Long: `Run a task from the active taskfile.

Composite tasks run their steps one after another and stop at the first
failure; steps that already ran are not undone. Arguments after the task
name are passed to that task only, and composites do not accept any.`,
		Example: `  hardcopy run build
  hardcopy run test -- -run TestParse
  hardcopy run publish --explain
  hardcopy run test --watch --pattern '**/*.go'`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: app.completeTaskNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runTask(cmd, args[0], args[1:], opts)
		},
	}

	runCmd.Flags().BoolVar(&opts.explain, "explain", false, "print the plan without running anything")
	runCmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "re-run the task when files change")
	runCmd.Flags().StringArrayVar(&opts.patterns, "pattern", nil, "glob selecting the files that trigger a re-run (repeatable)")
	runCmd.Flags().DurationVar(&opts.debounce, "debounce", watch.DefaultDebounce, "quiet period before a re-run")

	return runCmd
}

func (a *App) runTask(cmd *cobra.Command, name string, args []string, opts runOptions) error {
	proj, err := a.loadProject()
	if err != nil {
		return a.fail(cmd, err, 1)
	}

	if opts.explain {
		plan, err := proj.registry.Explain(name)
		if err != nil {
			return a.taskFailure(cmd, proj, err)
		}
		fmt.Fprint(a.stdout, plan)
		return nil
	}

	if opts.watch {
		return a.watchTask(cmd, proj.dir, name, args, opts)
	}

	report, err := proj.executor.Run(cmd.Context(), name, args)
	if err != nil {
		return a.taskFailure(cmd, proj, err)
	}
	a.printReport(report)
	return nil
}

func (a *App) printReport(report *taskrunner.Report) {
	if !a.verbose {
		return
	}
	for _, step := range report.Steps {
		fmt.Fprintf(a.stderr, "%s %s %s\n", successIcon, CmdStyle.Render(step.Task),
			VerboseStyle.Render(step.Duration.Round(time.Millisecond).String()))
	}
	fmt.Fprintf(a.stderr, "%s %s\n", successIcon,
		SuccessStyle.Render(fmt.Sprintf("%s finished in %s", report.Task, report.Duration.Round(time.Millisecond))))
}

// taskFailure maps an executor error to its help page and exit status. A
// failing step's own exit status becomes the process status.
func (a *App) taskFailure(cmd *cobra.Command, proj *project, err error) error {
	var (
		failure *taskrunner.SubprocessFailure
		unknown *taskrunner.UnknownTaskError
		cycle   *dag.CycleError
	)
	switch {
	case errors.Is(err, context.Canceled):
		return a.fail(cmd, err, exitInterrupted)

	case errors.As(err, &failure):
		code := failure.ExitCode
		if code.IsSuccess() {
			code = 1
		}
		id := issue.TaskFailedId
		if errors.Is(err, manifest.ErrManifestParse) {
			id = issue.ManifestParseErrorId
		} else if task, rerr := proj.registry.Resolve(failure.Task); rerr == nil && task.Builtin == taskrunner.BuiltinUpload {
			id = issue.UploadFailedId
		}
		return a.fail(cmd, newServiceError(err, id, ""), code)

	case errors.As(err, &unknown):
		return a.fail(cmd, newServiceError(err, issue.TaskNotFoundId, ""), 1)

	case errors.As(err, &cycle):
		return a.fail(cmd, newServiceError(err, issue.TaskGraphInvalidId, ""), 1)

	case errors.Is(err, taskrunner.ErrCompositeArgs):
		return a.fail(cmd, issue.NewErrorContext().
			WithOperation("run task").
			WithSuggestion("Pass arguments to one of the leaf tasks instead; 'hardcopy run <task> --explain' lists them").
			Wrap(err).
			BuildError(), 2)

	default:
		return a.fail(cmd, err, 1)
	}
}

// watchTask runs name once, then again after every batch of file changes
// until interrupted. Failed runs are reported and watching continues. The
// taskfile is reloaded before each run so edits to it take effect. dir is
// the project directory; patterns are relative to it.
func (a *App) watchTask(cmd *cobra.Command, dir, name string, args []string, opts runOptions) error {
	ctx := cmd.Context()

	runOnce := func(ctx context.Context) {
		proj, err := a.loadProject()
		if err != nil {
			fmt.Fprintln(a.stderr, errorIcon+" "+formatErrorForDisplay(err, a.verbose))
			return
		}
		report, err := proj.executor.Run(ctx, name, args)
		if err != nil {
			fmt.Fprintln(a.stderr, errorIcon+" "+ErrorStyle.Render(err.Error()))
			return
		}
		fmt.Fprintf(a.stderr, "%s %s\n", successIcon,
			SuccessStyle.Render(fmt.Sprintf("%s finished in %s", name, report.Duration.Round(time.Millisecond))))
	}

	w, err := watch.New(opts.watchConfig(dir, func(ctx context.Context, changed []string) error {
		slog.Info("files changed", "count", len(changed), "first", changed[0])
		runOnce(ctx)
		return nil
	}))
	if err != nil {
		return a.fail(cmd, err, 1)
	}

	runOnce(ctx)
	fmt.Fprintln(a.stderr, SubtitleStyle.Render("watching for changes, press Ctrl+C to stop"))
	if err := w.Run(ctx); err != nil {
		return a.fail(cmd, err, 1)
	}
	return nil
}

// completeTaskNames offers the task names of the active taskfile.
func (a *App) completeTaskNames(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	proj, err := a.loadProject()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	names := proj.registry.Names()
	out := make([]string, 0, len(names))
	for _, n := range names {
		task, _ := proj.registry.Resolve(n)
		out = append(out, n+"\t"+task.Description.String())
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
