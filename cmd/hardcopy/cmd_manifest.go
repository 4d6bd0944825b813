// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"maps"
	goruntime "runtime"
	"slices"
	"strings"

	"github.com/hardcopy/hardcopy/pkg/manifest"

	"github.com/spf13/cobra"
)

// newManifestCommand creates the `hardcopy manifest` command tree.
func newManifestCommand(app *App) *cobra.Command {
	var manifestPath string

	manifestCmd := &cobra.Command{
		Use:   "manifest",
		Short: "Inspect the project manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	manifestCmd.PersistentFlags().StringVarP(&manifestPath, "manifest", "f", "", "manifest file (default from config)")

	manifestCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the project metadata",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.showManifest(cmd, app.manifestPath(manifestPath))
		},
	})

	manifestCmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Check the version, constraints and required Go toolchain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.checkManifest(cmd, app.manifestPath(manifestPath))
		},
	})

	return manifestCmd
}

func (a *App) showManifest(cmd *cobra.Command, path string) error {
	m, err := manifest.Load(path)
	if err != nil {
		return a.fail(cmd, manifestError(err, "load manifest", path), 1)
	}

	keyStyle := CmdStyle
	field := func(key, value string) {
		if value != "" {
			fmt.Fprintf(a.stdout, "%s: %s\n", keyStyle.Render(key), value)
		}
	}

	fmt.Fprintln(a.stdout, TitleStyle.Render(m.Project.Name))
	field("version", m.Project.Version)
	field("description", m.Project.Description)
	field("license", m.Project.License)
	field("requires-go", m.Project.RequiresGo)
	if len(m.Project.Authors) > 0 {
		authors := make([]string, 0, len(m.Project.Authors))
		for _, au := range m.Project.Authors {
			if au.Email != "" {
				authors = append(authors, fmt.Sprintf("%s <%s>", au.Name, au.Email))
			} else {
				authors = append(authors, au.Name)
			}
		}
		field("authors", strings.Join(authors, ", "))
	}
	if len(m.Project.Dependencies) > 0 {
		fmt.Fprintln(a.stdout, keyStyle.Render("dependencies")+":")
		for _, dep := range m.Project.Dependencies {
			fmt.Fprintf(a.stdout, "  %s %s\n", dep.Name, SubtitleStyle.Render(dep.Version))
		}
	}
	if len(m.Tool.Dev) > 0 {
		fmt.Fprintln(a.stdout, keyStyle.Render("tool.dev")+":")
		for _, tool := range slices.Sorted(maps.Keys(m.Tool.Dev)) {
			fmt.Fprintf(a.stdout, "  %s %s\n", tool, SubtitleStyle.Render(m.Tool.Dev[tool]))
		}
	}
	return nil
}

func (a *App) checkManifest(cmd *cobra.Command, path string) error {
	m, err := manifest.Load(path)
	if err != nil {
		return a.fail(cmd, manifestError(err, "load manifest", path), 1)
	}

	problems := m.Check(goVersion())
	if len(problems) == 0 {
		fmt.Fprintf(a.stdout, "%s %s %s is valid\n", successIcon, m.Project.Name, m.Project.Version)
		return nil
	}
	return a.fail(cmd, manifestError(errors.Join(problems...), "check manifest", path), 1)
}

// goVersion returns the running toolchain version without the "go" prefix,
// or "" for development builds.
func goVersion() string {
	v := goruntime.Version()
	if !strings.HasPrefix(v, "go1") {
		return ""
	}
	v = strings.TrimPrefix(v, "go")
	// Drop experiment suffixes such as "1.25.1 X:nocoverageredesign".
	if i := strings.IndexByte(v, ' '); i >= 0 {
		v = v[:i]
	}
	return v
}
