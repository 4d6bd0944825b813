// SPDX-License-Identifier: MPL-2.0

// Package dag orders task names and finds cycles in composite task graphs.
// An edge from A to B means "A includes B": B must finish before A can.
package dag

import (
	"fmt"
	"strings"
)

type (
	// CycleError reports a composite that transitively includes itself.
	CycleError struct {
		// Cycle lists the nodes along the loop, starting and ending with the
		// same name (e.g. [build, prebuild, build]).
		Cycle []string
	}

	// Graph is a directed graph keyed by task name.
	Graph struct {
		adjacency map[string][]string
		// nodes keeps insertion order so sorting and cycle reports are deterministic.
		nodes   []string
		nodeSet map[string]bool
	}
)

func (e *CycleError) Error() string {
	return fmt.Sprintf("task cycle detected: %s", strings.Join(e.Cycle, " -> "))
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		adjacency: make(map[string][]string),
		nodeSet:   make(map[string]bool),
	}
}

// AddNode adds a node. Adding an existing node is a no-op.
func (g *Graph) AddNode(name string) {
	if g.nodeSet[name] {
		return
	}
	g.nodeSet[name] = true
	g.nodes = append(g.nodes, name)
}

// AddEdge records that from includes to. Both nodes are added implicitly.
func (g *Graph) AddEdge(from, to string) {
	g.AddNode(from)
	g.AddNode(to)
	g.adjacency[from] = append(g.adjacency[from], to)
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// FindCycle returns the first cycle reachable from any node, in insertion
// order, or nil when the graph is acyclic.
func (g *Graph) FindCycle() *CycleError {
	const (
		unvisited = iota
		onStack
		done
	)
	state := make(map[string]int, len(g.nodes))
	var stack []string

	var visit func(node string) []string
	visit = func(node string) []string {
		state[node] = onStack
		stack = append(stack, node)
		for _, next := range g.adjacency[node] {
			switch state[next] {
			case onStack:
				for i, n := range stack {
					if n == next {
						cycle := append([]string(nil), stack[i:]...)
						return append(cycle, next)
					}
				}
			case unvisited:
				if cycle := visit(next); cycle != nil {
					return cycle
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[node] = done
		return nil
	}

	for _, node := range g.nodes {
		if state[node] != unvisited {
			continue
		}
		if cycle := visit(node); cycle != nil {
			return &CycleError{Cycle: cycle}
		}
	}
	return nil
}

// ExecutionOrder returns nodes so that every node appears after everything it
// includes (leaves first), using Kahn's algorithm over the reversed edges.
// Nodes at the same depth keep insertion order.
func (g *Graph) ExecutionOrder() ([]string, error) {
	if len(g.nodes) == 0 {
		return nil, nil
	}

	// pending counts the not-yet-emitted children of each node.
	pending := make(map[string]int, len(g.nodes))
	parents := make(map[string][]string, len(g.nodes))
	for _, node := range g.nodes {
		pending[node] = len(g.adjacency[node])
		for _, child := range g.adjacency[node] {
			parents[child] = append(parents[child], node)
		}
	}

	queue := make([]string, 0, len(g.nodes))
	for _, node := range g.nodes {
		if pending[node] == 0 {
			queue = append(queue, node)
		}
	}

	result := make([]string, 0, len(g.nodes))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)

		for _, parent := range parents[node] {
			pending[parent]--
			if pending[parent] == 0 {
				queue = append(queue, parent)
			}
		}
	}

	if len(result) != len(g.nodes) {
		if cycle := g.FindCycle(); cycle != nil {
			return nil, cycle
		}
		return nil, &CycleError{}
	}
	return result, nil
}
