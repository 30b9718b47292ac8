// SPDX-FileCopyrightText: SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package flow

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Executor runs compiled flows. It decouples the code building a flow from the
// policy (logging, progress reporting) used to run it.
type Executor interface {
	// Execute runs the given flow and blocks until it has completed or failed.
	Execute(ctx context.Context, flow *Flow) error
}

type executor struct {
	log      logrus.FieldLogger
	reporter ProgressReporter
}

// NewExecutor returns an Executor logging to the given logger and reporting
// progress to the given reporter. Both may be nil.
func NewExecutor(log logrus.FieldLogger, reporter ProgressReporter) Executor {
	return &executor{log: log, reporter: reporter}
}

// Execute implements Executor.
func (e *executor) Execute(ctx context.Context, flow *Flow) error {
	return flow.Run(ctx, Opts{
		Logger:           e.log,
		ProgressReporter: e.reporter,
	})
}
