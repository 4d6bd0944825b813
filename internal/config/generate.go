// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"
	"strings"
)

// GenerateCUE renders cfg as a config.cue that validates against #Config.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// hardcopy configuration file\n\n")

	fmt.Fprintf(&sb, "taskfile:        %q\n", cfg.Taskfile)
	fmt.Fprintf(&sb, "manifest:        %q\n", cfg.Manifest)
	fmt.Fprintf(&sb, "default_runtime: %q\n", cfg.DefaultRuntime)

	sb.WriteString("\nlog: {\n")
	fmt.Fprintf(&sb, "\tlevel:  %q\n", cfg.Log.Level)
	fmt.Fprintf(&sb, "\tformat: %q\n", cfg.Log.Format)
	sb.WriteString("}\n")

	sb.WriteString("\npublish: {\n")
	fmt.Fprintf(&sb, "\tdist_dir:         %q\n", cfg.Publish.DistDir)
	fmt.Fprintf(&sb, "\tstaging_index:    %q\n", cfg.Publish.StagingIndex)
	fmt.Fprintf(&sb, "\tproduction_index: %q\n", cfg.Publish.ProductionIndex)
	fmt.Fprintf(&sb, "\ttoken_env:        %q\n", cfg.Publish.TokenEnv)
	sb.WriteString("}\n")

	sb.WriteString("\ncopy: {\n")
	fmt.Fprintf(&sb, "\tcopier:           %q\n", cfg.Copy.Copier)
	fmt.Fprintf(&sb, "\tattempts:         %d\n", cfg.Copy.Attempts)
	fmt.Fprintf(&sb, "\talgorithm:        %q\n", cfg.Copy.Algorithm)
	fmt.Fprintf(&sb, "\tworkers:          %d\n", cfg.Copy.Workers)
	fmt.Fprintf(&sb, "\trobocopy_threads: %d\n", cfg.Copy.RobocopyThreads)
	quoted := make([]string, len(cfg.Copy.RobocopyArgs))
	for i, a := range cfg.Copy.RobocopyArgs {
		quoted[i] = fmt.Sprintf("%q", a)
	}
	fmt.Fprintf(&sb, "\trobocopy_args: [%s]\n", strings.Join(quoted, ", "))
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tverbose:      %v\n", cfg.UI.Verbose)
	fmt.Fprintf(&sb, "\tcolor_scheme: %q\n", cfg.UI.ColorScheme)
	sb.WriteString("}\n")

	return sb.String()
}
