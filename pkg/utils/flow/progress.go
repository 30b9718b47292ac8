// SPDX-FileCopyrightText: SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package flow

import (
	"context"
)

// Stats describes the progress of one flow execution.
type Stats struct {
	// FlowName is the name of the executing flow.
	FlowName string
	// Completed is the number of completed tasks.
	Completed int
	// All is the total number of tasks.
	All int
	// LastTask is the id of the task that completed last.
	LastTask TaskID
}

// ProgressPercent returns the progress of the flow execution in percent.
func (s *Stats) ProgressPercent() int {
	if s.All == 0 {
		return 100
	}
	return 100 * s.Completed / s.All
}

// ProgressReporter is used to report the progress of a flow execution.
type ProgressReporter interface {
	// Report is called after every completed task.
	Report(ctx context.Context, stats *Stats)
}

// ProgressReporterFn is a function implementing ProgressReporter.
type ProgressReporterFn func(ctx context.Context, stats *Stats)

// Report implements ProgressReporter.
func (p ProgressReporterFn) Report(ctx context.Context, stats *Stats) {
	p(ctx, stats)
}

// NewImmediateProgressReporter returns a ProgressReporter that reports the progress
// as soon as a task completes.
func NewImmediateProgressReporter(fn ProgressReporterFn) ProgressReporter {
	return fn
}
