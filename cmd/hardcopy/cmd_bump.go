// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/hardcopy/hardcopy/internal/issue"
	"github.com/hardcopy/hardcopy/internal/taskrunner"
	"github.com/hardcopy/hardcopy/pkg/manifest"

	"github.com/spf13/cobra"
)

type bumpOptions struct {
	manifestPath string
	major        bool
	minor        bool
	patch        bool
}

// newBumpCommand creates the `hardcopy bump` command.
func newBumpCommand(app *App) *cobra.Command {
	var opts bumpOptions

	bumpCmd := &cobra.Command{
		Use:   "bump [major|minor|patch]",
		Short: "Increment the manifest version",
		Long: `Increment the version in the project manifest.

The patch component is bumped unless a level is given, either as an
argument or with -M, -m or -p. Every call advances the version.`,
		Example: `  hardcopy bump          # 1.2.3 → 1.2.4
  hardcopy bump -m       # 1.2.3 → 1.3.0
  hardcopy bump major    # 1.2.3 → 2.0.0`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(manifest.LevelMajor), string(manifest.LevelMinor), string(manifest.LevelPatch)},
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.bump(cmd, args, opts)
		},
	}

	bumpCmd.Flags().StringVarP(&opts.manifestPath, "manifest", "f", "", "manifest file (default from config)")
	bumpCmd.Flags().BoolVarP(&opts.major, "major", "M", false, "bump the major version")
	bumpCmd.Flags().BoolVarP(&opts.minor, "minor", "m", false, "bump the minor version")
	bumpCmd.Flags().BoolVarP(&opts.patch, "patch", "p", false, "bump the patch version")

	return bumpCmd
}

func (a *App) bump(cmd *cobra.Command, args []string, opts bumpOptions) error {
	// The bump builtin parses the same flags; going through it keeps the
	// conflict rules in one place.
	builtinArgs := args
	if opts.major {
		builtinArgs = append(builtinArgs, "--major")
	}
	if opts.minor {
		builtinArgs = append(builtinArgs, "--minor")
	}
	if opts.patch {
		builtinArgs = append(builtinArgs, "--patch")
	}
	level, err := taskrunner.ParseBumpArgs(builtinArgs)
	if err != nil {
		return a.fail(cmd, err, 2)
	}

	path := a.manifestPath(opts.manifestPath)
	old, next, err := manifest.BumpFile(path, level)
	if err != nil {
		return a.fail(cmd, manifestError(err, "bump version", path), 1)
	}
	fmt.Fprintf(a.stdout, "%s → %s\n", old, SuccessStyle.Render(next.String()))
	return nil
}

func (a *App) manifestPath(override string) string {
	if override != "" {
		return override
	}
	return a.effectiveConfig().Manifest
}

// manifestError attaches the manifest help page to parse failures.
func manifestError(err error, operation, path string) error {
	wrapped := issue.NewErrorContext().
		WithOperation(operation).
		WithResource(path).
		Wrap(err).
		BuildError()
	if errors.Is(err, manifest.ErrManifestParse) {
		return newServiceError(wrapped, issue.ManifestParseErrorId, "")
	}
	return wrapped
}
