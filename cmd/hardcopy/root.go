// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for hardcopy.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/hardcopy/hardcopy/internal/issue"
	"github.com/hardcopy/hardcopy/pkg/types"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "hardcopy",
		Short: "Release tasks and verified copies",
		Long: TitleStyle.Render("hardcopy") + SubtitleStyle.Render(" - release tasks and verified copies") + `

hardcopy runs the release workflow of a project (format, lint, test, bump,
package, upload) as named tasks, and copies files or directory trees,
validating every copy with checksums.

Tasks come from 'tasks.cue' in the working directory. Without one, the
built-in release workflow is used.

` + SubtitleStyle.Render("Examples:") + `
  hardcopy tasks                  List the available tasks
  hardcopy run build              Prebuild, bump the version and package
  hardcopy run test -- -run Foo   Pass arguments to a task
  hardcopy bump -m                Bump the minor version
  hardcopy copy ./data /mnt/bak   Copy and validate a tree`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.loadConfig(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&app.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/hardcopy/config.cue)")

	rootCmd.AddCommand(
		newRunCommand(app),
		newTasksCommand(app),
		newBumpCommand(app),
		newManifestCommand(app),
		newCopyCommand(app),
		newValidateCommand(app),
		newConfigCommand(app),
	)
	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the root command and exits with the resulting status.
// This is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code.Clamp()))
		}
		os.Exit(1)
	}
}

// formatErrorForDisplay formats an error for user display.
// ActionableErrors use their Format method; verbose adds the error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// fail renders err with its help page and returns an ExitError carrying
// code. Cobra's own error output is silenced since err is already printed.
func (a *App) fail(cmd *cobra.Command, err error, code types.ExitCode) error {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	fmt.Fprintln(a.stderr, errorIcon+" "+ErrorStyle.Render(formatErrorForDisplay(err, a.verbose)))
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		renderServiceError(a.stderr, svcErr, a.issueStyle())
	}
	return &ExitError{Code: code}
}
