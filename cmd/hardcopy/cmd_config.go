// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hardcopy/hardcopy/internal/config"
	"github.com/hardcopy/hardcopy/internal/issue"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `hardcopy config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage hardcopy configuration",
		Long: `Manage hardcopy configuration.

Configuration is stored in:
  - Linux: ~/.config/hardcopy/config.cue
  - macOS: ~/Library/Application Support/hardcopy/config.cue
  - Windows: %APPDATA%\hardcopy\config.cue

A config.cue in the working directory is used when none exists there.
Any value can be overridden with a HARDCOPY_* environment variable,
e.g. HARDCOPY_COPY_ATTEMPTS=5.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.showConfig()
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create the default configuration file",
		Args:  cobra.NoArgs,
		// --config names the file to create here, so it need not exist yet.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return installLogger(app.stderr, config.DefaultConfig().Log, app.verbose)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.initConfig(cmd, force)
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing configuration file")
	cfgCmd.AddCommand(initCmd)

	return cfgCmd
}

func (a *App) showConfig() error {
	cfg := a.effectiveConfig()

	keyStyle := CmdStyle
	valueStyle := SuccessStyle
	line := func(key, value string) {
		if value == "" {
			value = SubtitleStyle.Render("(unset)")
		} else {
			value = valueStyle.Render(value)
		}
		fmt.Fprintf(a.stdout, "%s: %s\n", keyStyle.Render(key), value)
	}

	fmt.Fprintln(a.stdout, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(a.stdout)
	if cfg.Source != "" {
		fmt.Fprintf(a.stdout, "%s: %s\n", keyStyle.Render("Config file"), cfg.Source)
	} else {
		fmt.Fprintf(a.stdout, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(a.stdout)

	line("taskfile", cfg.Taskfile)
	line("manifest", cfg.Manifest)
	line("default_runtime", cfg.DefaultRuntime)
	line("log.level", cfg.Log.Level)
	line("log.format", cfg.Log.Format)
	line("publish.dist_dir", cfg.Publish.DistDir)
	line("publish.staging_index", cfg.Publish.StagingIndex)
	line("publish.production_index", cfg.Publish.ProductionIndex)
	line("publish.token_env", cfg.Publish.TokenEnv)
	line("copy.copier", cfg.Copy.Copier)
	line("copy.attempts", strconv.Itoa(cfg.Copy.Attempts))
	line("copy.algorithm", cfg.Copy.Algorithm)
	line("copy.workers", strconv.Itoa(cfg.Copy.Workers))
	line("copy.robocopy_threads", strconv.Itoa(cfg.Copy.RobocopyThreads))
	line("copy.robocopy_args", strings.Join(cfg.Copy.RobocopyArgs, " "))
	line("ui.verbose", strconv.FormatBool(cfg.UI.Verbose))
	line("ui.color_scheme", cfg.UI.ColorScheme)
	return nil
}

func (a *App) initConfig(cmd *cobra.Command, force bool) error {
	path := a.configPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(""); err != nil {
			return a.fail(cmd, err, 1)
		}
	}

	if err := config.WriteDefault(path, force); err != nil {
		if errors.Is(err, config.ErrConfigExists) {
			err = issue.NewErrorContext().
				WithOperation("create configuration").
				WithResource(path).
				WithSuggestion("Pass --force to overwrite it").
				Wrap(config.ErrConfigExists).
				BuildError()
		}
		return a.fail(cmd, err, 1)
	}
	fmt.Fprintf(a.stdout, "%s created %s\n", successIcon, path)
	return nil
}
