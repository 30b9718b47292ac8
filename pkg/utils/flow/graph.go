// SPDX-FileCopyrightText: SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package flow

import (
	"fmt"
)

// Task is a unit of work within a Graph. Dependencies must have been added to the
// Graph before any Task referencing them.
type Task struct {
	// Name is the human-readable name of the task. It doubles as the TaskID and thus
	// has to be unique within one Graph.
	Name string
	// Fn is the payload of the task. A nil Fn is treated as an already-done task.
	Fn TaskFn
	// SkipIf causes the task to be marked as skipped without running Fn.
	SkipIf bool
	// Dependencies are the TaskIDs that have to complete before this task may run.
	Dependencies TaskIDs
}

// Spec is the specification of one task within a compiled Flow.
type Spec struct {
	Fn           TaskFn
	Skip         bool
	Dependencies TaskIDs
}

// Graph is a builder for a Flow.
type Graph struct {
	name  string
	tasks map[TaskID]*Spec
	order TaskIDSlice
}

// NewGraph returns a new Graph with the given name.
func NewGraph(name string) *Graph {
	return &Graph{
		name:  name,
		tasks: make(map[TaskID]*Spec),
	}
}

// Name returns the name of the graph.
func (g *Graph) Name() string {
	return g.name
}

// Add adds the given Task to the graph and returns its TaskID.
// It panics if a task with the same name was already added or if the task
// references a dependency that has not been added yet.
func (g *Graph) Add(task Task) TaskID {
	id := TaskID(task.Name)
	if _, ok := g.tasks[id]; ok {
		panic(fmt.Sprintf("Task with id %q already exists", id))
	}

	for dependency := range task.Dependencies {
		if _, ok := g.tasks[dependency]; !ok {
			panic(fmt.Sprintf("Task %q is missing dependency %q", id, dependency))
		}
	}

	g.tasks[id] = &Spec{
		Fn:           task.Fn,
		Skip:         task.SkipIf || task.Fn == nil,
		Dependencies: task.Dependencies.Copy(),
	}
	g.order = append(g.order, id)

	return id
}

// Compile compiles the graph into an executable Flow.
func (g *Graph) Compile() *Flow {
	nodes := make(nodes, len(g.tasks))

	for id, spec := range g.tasks {
		node := nodes.getOrCreate(id)
		node.fn = spec.Fn
		node.skip = spec.Skip
		node.required = spec.Dependencies.Len()

		for dependency := range spec.Dependencies {
			nodes.getOrCreate(dependency).addTarget(id)
		}
	}

	return &Flow{
		name:  g.name,
		nodes: nodes,
		order: append(TaskIDSlice(nil), g.order...),
	}
}
