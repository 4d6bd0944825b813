// SPDX-License-Identifier: MPL-2.0

package taskrunner

import (
	"fmt"
	"slices"
	"strings"
)

// Explain renders the plan for name as a tree without running anything.
// Unknown steps and cycles are shown inline rather than returned, so a
// broken taskfile can still be inspected; only an unknown root is an error.
func (r *Registry) Explain(name string) (string, error) {
	if _, err := r.Resolve(name); err != nil {
		return "", err
	}
	var sb strings.Builder
	r.explain(&sb, name, "", "", nil)
	return sb.String(), nil
}

func (r *Registry) explain(sb *strings.Builder, name, prefix, childPrefix string, stack []string) {
	task, err := r.Resolve(name)
	switch {
	case err != nil:
		fmt.Fprintf(sb, "%s%s (unknown task)\n", prefix, name)
		return
	case slices.Contains(stack, name):
		fmt.Fprintf(sb, "%s%s (cycle)\n", prefix, name)
		return
	case task.Kind() != KindSteps:
		fmt.Fprintf(sb, "%s%s: %s\n", prefix, name, task.Summary())
		return
	}

	fmt.Fprintf(sb, "%s%s\n", prefix, name)
	stack = append(stack, name)
	for i, step := range task.Steps {
		if i == len(task.Steps)-1 {
			r.explain(sb, step, childPrefix+"└── ", childPrefix+"    ", stack)
		} else {
			r.explain(sb, step, childPrefix+"├── ", childPrefix+"│   ", stack)
		}
	}
}

// Leaves returns the leaf tasks name would run, in execution order. It
// stops descending at unknown names and cycles.
func (r *Registry) Leaves(name string) []string {
	var out []string
	var walk func(n string, stack []string)
	walk = func(n string, stack []string) {
		task, err := r.Resolve(n)
		if err != nil || slices.Contains(stack, n) {
			return
		}
		if task.Kind() != KindSteps {
			out = append(out, n)
			return
		}
		for _, step := range task.Steps {
			walk(step, append(stack, n))
		}
	}
	walk(name, nil)
	return out
}
