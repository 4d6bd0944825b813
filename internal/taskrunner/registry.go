// SPDX-License-Identifier: MPL-2.0

package taskrunner

import (
	"maps"
	"slices"

	"github.com/hardcopy/hardcopy/internal/dag"
)

// Registry maps task names to definitions.
type Registry struct {
	tasks map[string]Task
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tasks: make(map[string]Task)}
}

// Define registers or replaces a task. Steps may name tasks that are not
// defined yet; Validate reports the ones that never get defined.
func (r *Registry) Define(name string, task Task) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := task.Validate(name); err != nil {
		return err
	}
	task.Steps = slices.Clone(task.Steps)
	task.Args = slices.Clone(task.Args)
	task.Env = maps.Clone(task.Env)
	r.tasks[name] = task
	return nil
}

// Resolve returns the task registered under name.
func (r *Registry) Resolve(name string) (Task, error) {
	task, ok := r.tasks[name]
	if !ok {
		return Task{}, &UnknownTaskError{Name: name}
	}
	return task, nil
}

// Names returns all task names, sorted.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.tasks))
}

// Len returns the number of registered tasks.
func (r *Registry) Len() int { return len(r.tasks) }

// Validate reports every dangling step reference and, when there are none,
// the first composite cycle. A nil result means every step resolves and the
// graph is acyclic.
func (r *Registry) Validate() []error {
	var errs []error
	g := dag.New()
	for _, name := range r.Names() {
		g.AddNode(name)
		for _, step := range r.tasks[name].Steps {
			if _, ok := r.tasks[step]; !ok {
				errs = append(errs, &UnknownTaskError{Name: step, ReferencedBy: name})
				continue
			}
			g.AddEdge(name, step)
		}
	}
	if cycle := g.FindCycle(); cycle != nil {
		errs = append(errs, cycle)
	}
	return errs
}

// Order returns every task name with each composite after the tasks it
// includes.
func (r *Registry) Order() ([]string, error) {
	g := dag.New()
	for _, name := range r.Names() {
		g.AddNode(name)
		for _, step := range r.tasks[name].Steps {
			if _, ok := r.tasks[step]; ok {
				g.AddEdge(name, step)
			}
		}
	}
	return g.ExecutionOrder()
}
