// SPDX-License-Identifier: MPL-2.0

package taskrunner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/hardcopy/hardcopy/pkg/manifest"

	"github.com/spf13/pflag"
)

// BuiltinBump is the name the bump builtin is registered under.
const BuiltinBump = "bump"

// BumpBuiltin returns the builtin that advances the manifest version.
// A relative manifestPath is resolved against the task's working directory.
func BumpBuiltin(manifestPath string) Builtin {
	return BuiltinFunc(func(_ context.Context, env BuiltinEnv, args []string) error {
		level, err := ParseBumpArgs(args)
		if err != nil {
			return err
		}

		path := resolve(env.WorkDir, manifestPath)
		old, next, err := manifest.BumpFile(path, level)
		if err != nil {
			return err
		}
		slog.Debug("bumped version", "manifest", path, "level", level, "from", old, "to", next)
		if env.Stdout != nil {
			fmt.Fprintf(env.Stdout, "%s → %s\n", old, next)
		}
		return nil
	})
}

// ParseBumpArgs reads the bump level from -M/--major, -m/--minor,
// -p/--patch or a single positional level. No level means patch.
func ParseBumpArgs(args []string) (manifest.Level, error) {
	fs := pflag.NewFlagSet(BuiltinBump, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	major := fs.BoolP("major", "M", false, "bump the major version")
	minor := fs.BoolP("minor", "m", false, "bump the minor version")
	patch := fs.BoolP("patch", "p", false, "bump the patch version")
	if err := fs.Parse(args); err != nil {
		return "", fmt.Errorf("bump: %w", err)
	}

	var selected []manifest.Level
	if *major {
		selected = append(selected, manifest.LevelMajor)
	}
	if *minor {
		selected = append(selected, manifest.LevelMinor)
	}
	if *patch {
		selected = append(selected, manifest.LevelPatch)
	}

	switch fs.NArg() {
	case 0:
	case 1:
		level, err := manifest.ParseLevel(fs.Arg(0))
		if err != nil {
			return "", fmt.Errorf("bump: %w", err)
		}
		selected = append(selected, level)
	default:
		return "", fmt.Errorf("bump: expected at most one level, got %d", fs.NArg())
	}

	switch len(selected) {
	case 0:
		return manifest.LevelPatch, nil
	case 1:
		return selected[0], nil
	default:
		return "", errors.New("bump: select only one of major, minor or patch")
	}
}
