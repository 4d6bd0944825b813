// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hardcopy/hardcopy/internal/copier"
	"github.com/hardcopy/hardcopy/internal/hardcopy"
	"github.com/hardcopy/hardcopy/internal/issue"
	"github.com/hardcopy/hardcopy/internal/validate"

	"github.com/spf13/cobra"
)

// copyOptions override the copy section of the configuration when set.
type copyOptions struct {
	copier    string
	attempts  int
	algorithm string
	workers   int
}

func (o *copyOptions) register(cmd *cobra.Command, withCopier bool) {
	if withCopier {
		cmd.Flags().StringVar(&o.copier, "copier", "", "copier to use: auto, robocopy or native (default from config)")
		cmd.Flags().IntVar(&o.attempts, "attempts", 0, "copy attempts before giving up (default from config)")
	}
	algs := make([]string, 0, len(validate.Algorithms()))
	for _, a := range validate.Algorithms() {
		algs = append(algs, string(a))
	}
	cmd.Flags().StringVar(&o.algorithm, "algorithm", "", "checksum algorithm: "+strings.Join(algs, ", ")+" (default from config)")
	cmd.Flags().IntVar(&o.workers, "workers", 0, "files checksummed in parallel (default from config)")
}

// newCopyCommand creates the `hardcopy copy` command.
func newCopyCommand(app *App) *cobra.Command {
	var opts copyOptions

	copyCmd := &cobra.Command{
		Use:   "copy <src> <dest>",
		Short: "Copy a file or directory and validate the copy",
		Long: `Copy a file or directory and validate the copy with checksums.

When dest is already a valid copy nothing is copied. Otherwise src is
copied and validated, and the copy is retried until it validates or the
attempts run out. For directories, the contents of src end up directly
inside dest.`,
		Example: `  hardcopy copy ./photos /mnt/backup/photos
  hardcopy copy --copier robocopy C:\data D:\data`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.copyTree(cmd, args[0], args[1], opts)
		},
	}
	opts.register(copyCmd, true)
	return copyCmd
}

// newValidateCommand creates the `hardcopy validate` command.
func newValidateCommand(app *App) *cobra.Command {
	var opts copyOptions

	validateCmd := &cobra.Command{
		Use:   "validate <src> <copy>...",
		Short: "Check that copies hold the same data as their source",
		Long: `Check that every copy holds the same data as src.

Files are compared by checksum. For a directory, every entry of src must
exist in each copy with the same content; entries that only exist in a
copy are ignored.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.validateCopies(cmd, args[0], args[1:], opts)
		},
	}
	opts.register(validateCmd, false)
	return validateCmd
}

func (a *App) newValidator(opts copyOptions) (*validate.Validator, error) {
	cfg := a.effectiveConfig().Copy
	name := cfg.Algorithm
	if opts.algorithm != "" {
		name = opts.algorithm
	}
	alg, err := validate.ParseAlgorithm(name)
	if err != nil {
		return nil, err
	}
	workers := cfg.Workers
	if opts.workers > 0 {
		workers = opts.workers
	}
	return validate.NewValidator(alg, workers), nil
}

func (a *App) newCopier(ctx context.Context, opts copyOptions) (copier.Copier, error) {
	cfg := a.effectiveConfig().Copy
	kind := cfg.Copier
	if opts.copier != "" {
		kind = opts.copier
	}
	c, err := copier.New(kind, copier.Options{
		RobocopyThreads: cfg.RobocopyThreads,
		RobocopyArgs:    cfg.RobocopyArgs,
	})
	if err != nil {
		return nil, err
	}
	if rc, ok := c.(*copier.Robocopy); ok {
		if err := rc.AssertAvailable(ctx); err != nil {
			return nil, newServiceError(issue.NewErrorContext().
				WithOperation("start robocopy").
				WithSuggestion("Use '--copier native' for the portable copier").
				Wrap(err).
				BuildError(), issue.RobocopyUnavailableId, "")
		}
	}
	return c, nil
}

func (a *App) copyTree(cmd *cobra.Command, src, dest string, opts copyOptions) error {
	ctx := cmd.Context()

	v, err := a.newValidator(opts)
	if err != nil {
		return a.fail(cmd, err, 2)
	}
	c, err := a.newCopier(ctx, opts)
	if err != nil {
		return a.fail(cmd, err, 1)
	}
	attempts := a.effectiveConfig().Copy.Attempts
	if opts.attempts > 0 {
		attempts = opts.attempts
	}

	out, err := hardcopy.NewService(c, v, attempts).HardCopy(ctx, src, dest)
	if err != nil {
		return a.fail(cmd, copyError(err, "copy", src+" → "+dest), 1)
	}
	if out.Skipped {
		fmt.Fprintf(a.stdout, "%s %s is already a valid copy of %s\n", successIcon, dest, src)
		return nil
	}
	fmt.Fprintf(a.stdout, "%s copied %s → %s %s\n", successIcon, src, dest,
		SubtitleStyle.Render(fmt.Sprintf("(%s, %s, %d attempt(s))", c.Name(), v.Algorithm, out.Attempts)))
	return nil
}

func (a *App) validateCopies(cmd *cobra.Command, src string, copies []string, opts copyOptions) error {
	v, err := a.newValidator(opts)
	if err != nil {
		return a.fail(cmd, err, 2)
	}
	if err := v.IsValidCopy(cmd.Context(), src, copies...); err != nil {
		return a.fail(cmd, copyError(err, "validate", src), 1)
	}
	fmt.Fprintf(a.stdout, "%s %d valid cop%s of %s %s\n", successIcon, len(copies), plural(len(copies), "y", "ies"), src,
		SubtitleStyle.Render("("+string(v.Algorithm)+")"))
	return nil
}

// copyError attaches the validation help page to checksum mismatches.
func copyError(err error, operation, resource string) error {
	wrapped := issue.WrapWithContext(err, operation, resource)
	if errors.Is(err, validate.ErrMismatch) {
		return newServiceError(wrapped, issue.CopyValidationFailedId, "")
	}
	return wrapped
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
