// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hardcopy/hardcopy/internal/issue"
	"github.com/hardcopy/hardcopy/internal/taskrunner"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

// newTasksCommand creates the `hardcopy tasks` command tree.
func newTasksCommand(app *App) *cobra.Command {
	tasksCmd := &cobra.Command{
		Use:   "tasks",
		Short: "List the available tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.listTasks(cmd)
		},
	}

	tasksCmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Check the task graph for unknown steps and cycles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.checkTasks(cmd)
		},
	})

	tasksCmd.AddCommand(&cobra.Command{
		Use:               "show <task>",
		Short:             "Describe a task and its plan",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: app.completeTaskNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.showTask(cmd, args[0])
		},
	})

	return tasksCmd
}

func (a *App) listTasks(cmd *cobra.Command) error {
	proj, err := a.loadProject()
	if err != nil {
		return a.fail(cmd, err, 1)
	}

	fmt.Fprintf(a.stdout, "%s %s\n\n", TitleStyle.Render("Tasks"), SubtitleStyle.Render("("+proj.tasks.Source+")"))

	names := proj.registry.Names()
	width := 0
	for _, n := range names {
		width = max(width, len(n))
	}
	for _, n := range names {
		task, err := proj.registry.Resolve(n)
		if err != nil {
			return a.fail(cmd, err, 1)
		}
		fmt.Fprintf(a.stdout, "  %s  %s %s\n",
			CmdStyle.Render(fmt.Sprintf("%-*s", width, n)),
			kindStyle.Render(string(task.Kind())),
			task.Description)
	}
	return nil
}

func (a *App) checkTasks(cmd *cobra.Command) error {
	proj, err := a.loadProject()
	if err != nil {
		var svcErr *ServiceError
		if !errors.As(err, &svcErr) {
			err = newServiceError(err, issue.TaskGraphInvalidId, "")
		}
		return a.fail(cmd, err, 1)
	}

	order, err := proj.registry.Order()
	if err != nil {
		return a.fail(cmd, newServiceError(err, issue.TaskGraphInvalidId, ""), 1)
	}
	fmt.Fprintf(a.stdout, "%s %d tasks in %s, graph is valid\n", successIcon, len(order), proj.tasks.Source)
	if a.verbose {
		fmt.Fprintln(a.stdout, VerboseStyle.Render("order: "+strings.Join(order, ", ")))
	}
	return nil
}

func (a *App) showTask(cmd *cobra.Command, name string) error {
	proj, err := a.loadProject()
	if err != nil {
		return a.fail(cmd, err, 1)
	}
	task, err := proj.registry.Resolve(name)
	if err != nil {
		return a.fail(cmd, newServiceError(err, issue.TaskNotFoundId, ""), 1)
	}
	plan, err := proj.registry.Explain(name)
	if err != nil {
		return a.fail(cmd, err, 1)
	}

	rendered, err := glamour.Render(taskMarkdown(name, task, plan, proj.registry.Leaves(name)),
		glamourStyle(a.effectiveConfig().UI.ColorScheme, a.stdout))
	if err != nil {
		return a.fail(cmd, fmt.Errorf("render task: %w", err), 1)
	}
	fmt.Fprint(a.stdout, rendered)
	return nil
}

// taskMarkdown describes a task as a markdown page.
func taskMarkdown(name string, task taskrunner.Task, plan string, leaves []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", name)
	if task.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", task.Description)
	}
	fmt.Fprintf(&sb, "- **Kind:** %s\n", task.Kind())
	if task.Runtime != "" {
		fmt.Fprintf(&sb, "- **Runtime:** %s\n", task.Runtime)
	}
	if task.WorkDir != "" {
		fmt.Fprintf(&sb, "- **Working directory:** `%s`\n", task.WorkDir)
	}

	switch task.Kind() {
	case taskrunner.KindCmd:
		fmt.Fprintf(&sb, "\n## Command\n\n~~~sh\n%s\n~~~\n", task.Cmd)
	case taskrunner.KindBuiltin:
		fmt.Fprintf(&sb, "\n## Builtin\n\n~~~\n%s\n~~~\n", task.Summary())
	case taskrunner.KindSteps:
		fmt.Fprintf(&sb, "\n## Plan\n\n~~~\n%s~~~\n", plan)
		sb.WriteString("\n## Runs\n\n")
		for i, leaf := range leaves {
			fmt.Fprintf(&sb, "%d. `%s`\n", i+1, leaf)
		}
	}
	return sb.String()
}
