// SPDX-FileCopyrightText: SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package flow provides a task graph executor for sequencing the units of work of an
// installation run. Tasks without mutual dependencies run concurrently, failures are
// collected and surface as typed task errors.
package flow

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

// Flow is a compiled executable task graph.
type Flow struct {
	name  string
	nodes nodes
	order TaskIDSlice
}

type node struct {
	fn       TaskFn
	skip     bool
	required int
	targets  TaskIDSlice
}

func (n *node) addTarget(id TaskID) {
	n.targets = append(n.targets, id)
}

type nodes map[TaskID]*node

func (ns nodes) getOrCreate(id TaskID) *node {
	n, ok := ns[id]
	if !ok {
		n = &node{}
		ns[id] = n
	}
	return n
}

// Opts are options for running a Flow.
type Opts struct {
	// Logger is used to log the progress of the flow. If nil, logging is skipped.
	Logger logrus.FieldLogger
	// ProgressReporter is called after every completed task. May be nil.
	ProgressReporter ProgressReporter
}

// Name returns the name of the flow.
func (f *Flow) Name() string {
	return f.name
}

// Len returns the number of tasks of the flow.
func (f *Flow) Len() int {
	return len(f.nodes)
}

type result struct {
	id  TaskID
	err error
}

// Run starts an execution of the flow and blocks until all tasks have completed,
// been skipped or can no longer run because a dependency failed. It returns an
// *Errors aggregating all task failures, or nil on success.
func (f *Flow) Run(ctx context.Context, opts Opts) error {
	var (
		log = opts.Logger

		remaining = f.nodes.remaining()
		results   = make(chan result)
		running   = 0
		completed = 0
		taskErrs  []*TaskError
	)

	if log != nil {
		log.Infof("Starting flow %q with %d tasks", f.name, f.Len())
	}

	runnable := func(id TaskID) bool {
		return remaining[id] == 0
	}

	start := func(id TaskID) {
		running++
		n := f.nodes[id]

		if n.skip {
			go func() {
				results <- result{id: id, err: nil}
			}()
			return
		}

		if log != nil {
			log.Infof("Running task %q", id)
		}

		go func() {
			results <- result{id: id, err: n.fn(ctx)}
		}()
	}

	// Start all root tasks. Deterministic order for reproducible logs.
	for _, id := range f.order {
		if runnable(id) {
			start(id)
		}
	}

	for running > 0 {
		res := <-results
		running--
		completed++
		delete(remaining, res.id)

		if res.err != nil {
			if log != nil {
				log.Errorf("Task %q failed: %v", res.id, res.err)
			}
			taskErrs = append(taskErrs, &TaskError{TaskID: res.id, err: res.err})
			continue
		}

		if opts.ProgressReporter != nil {
			opts.ProgressReporter.Report(ctx, &Stats{
				FlowName:  f.name,
				Completed: completed,
				All:       f.Len(),
				LastTask:  res.id,
			})
		}

		// Unblock dependent tasks, unless the run already failed or was cancelled.
		for _, target := range f.nodes[res.id].targets {
			if _, pending := remaining[target]; !pending {
				continue
			}

			remaining[target]--
			if runnable(target) && len(taskErrs) == 0 && ctx.Err() == nil {
				start(target)
			}
		}
	}

	if err := ctx.Err(); err != nil && len(taskErrs) == 0 {
		return fmt.Errorf("flow %q was cancelled: %w", f.name, err)
	}

	if len(taskErrs) > 0 {
		if log != nil {
			log.Errorf("Flow %q failed with %d task error(s)", f.name, len(taskErrs))
		}
		return newErrors(f.name, taskErrs)
	}

	if log != nil {
		log.Infof("Flow %q succeeded", f.name)
	}
	return nil
}

func (ns nodes) remaining() map[TaskID]int {
	out := make(map[TaskID]int, len(ns))
	for id, n := range ns {
		out[id] = n.required
	}
	return out
}

// TaskError is the error of a single failed task.
type TaskError struct {
	// TaskID is the id of the failed task.
	TaskID TaskID
	err    error
}

// Error implements error.
func (e *TaskError) Error() string {
	return fmt.Sprintf("task %q failed: %v", e.TaskID, e.err)
}

// Unwrap returns the underlying task error.
func (e *TaskError) Unwrap() error {
	return e.err
}

// Errors aggregates all task errors of one flow execution.
type Errors struct {
	// FlowName is the name of the failed flow.
	FlowName string
	// TaskErrors are the individual task errors.
	TaskErrors []*TaskError

	aggregated error
}

func newErrors(flowName string, taskErrors []*TaskError) *Errors {
	var aggregated error
	for _, taskError := range taskErrors {
		aggregated = multierror.Append(aggregated, taskError)
	}

	return &Errors{
		FlowName:   flowName,
		TaskErrors: taskErrors,
		aggregated: aggregated,
	}
}

// Error implements error.
func (e *Errors) Error() string {
	return fmt.Sprintf("flow %q encountered task errors: %v", e.FlowName, e.aggregated)
}

// Unwrap returns the aggregated task errors.
func (e *Errors) Unwrap() error {
	return e.aggregated
}
