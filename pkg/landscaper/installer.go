// SPDX-FileCopyrightText: SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package landscaper implements the version resolution and chained state migration of
// the landscape installer. A target version resolves to an installer that applies the
// state corrections of its own and all older version bands (newest to oldest) and then
// performs exactly one terminal reconciliation against the cluster.
package landscaper

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/gardener/landscape-installer/pkg/apis/installation"
	"github.com/gardener/landscape-installer/pkg/client/kubernetes"
	"github.com/gardener/landscape-installer/pkg/controlplane"
	"github.com/gardener/landscape-installer/pkg/utils/flow"
)

// Installer installs one target version of the Gardener control plane into a landscape.
type Installer interface {
	// Install applies the state corrections of the installer's version band and all
	// older bands to the given state and then reconciles the landscape once. The state
	// is mutated in place, persisting it is the caller's responsibility. Install is
	// idempotent from the caller's perspective, re-running it after a failure is safe
	// because all cluster-apply operations are create-or-update.
	Install(ctx context.Context, executor flow.Executor, state *installation.State, imports *installation.Imports) error
}

// InstallerFactory constructs the Installer of one version band with the shared
// collaborators of an installation run.
type InstallerFactory func(deps Deps) Installer

// Deps are the collaborators shared by all installers of one installation run.
// Persisting the state and writing exports is the caller's responsibility, so the
// installers carry no persistence handle.
type Deps struct {
	// Log is the logger of the installation run.
	Log *logrus.Entry
	// RuntimeClient is the client for the runtime cluster.
	RuntimeClient client.Client
	// ChartApplier renders and applies the Helm charts of the control plane.
	ChartApplier kubernetes.ChartApplier
	// Config is the static configuration of the run.
	Config Config
}

// Config is the static configuration of an installation run.
type Config struct {
	// ChartsDirectory is the directory containing the control plane Helm charts.
	ChartsDirectory string
	// DryRun skips all cluster-mutating calls but still computes and logs values.
	DryRun bool
}

// reconcileFn is the terminal deployment action at the bottom of the chain.
type reconcileFn func(ctx context.Context, executor flow.Executor, state *installation.State, imports *installation.Imports) error

type installer struct {
	log       logrus.FieldLogger
	steps     []migrationStep
	reconcile reconcileFn
}

// Install implements Installer.
func (i *installer) Install(ctx context.Context, executor flow.Executor, state *installation.State, imports *installation.Imports) error {
	if state == nil {
		return fmt.Errorf("the state must be normalized before installing, got nil")
	}

	for _, step := range i.steps {
		if err := step.apply(i.log, state); err != nil {
			return err
		}
	}

	return i.reconcile(ctx, executor, state, imports)
}

// newInstallerFactory returns the factory of the band of the given minor version. The
// produced installers carry the migration steps of that band and all older bands.
func newInstallerFactory(minor uint64) InstallerFactory {
	steps := migrationStepsForMinor(minor)

	return func(deps Deps) Installer {
		return &installer{
			log:       deps.Log,
			steps:     steps,
			reconcile: newControlPlaneReconciler(deps),
		}
	}
}

// newControlPlaneReconciler returns the terminal reconciliation deploying the Gardener
// control plane. It runs exactly once per installation, at the bottom of the chain.
func newControlPlaneReconciler(deps Deps) reconcileFn {
	return func(ctx context.Context, executor flow.Executor, state *installation.State, imports *installation.Imports) error {
		operation := controlplane.New(controlplane.Options{
			Log:             deps.Log,
			RuntimeClient:   deps.RuntimeClient,
			ChartApplier:    deps.ChartApplier,
			ChartsDirectory: deps.Config.ChartsDirectory,
			DryRun:          deps.Config.DryRun,
			Imports:         imports,
			State:           state,
		})

		if err := operation.Reconcile(ctx, executor); err != nil {
			return err
		}

		state.GardenerVersion = imports.GardenerVersion
		return nil
	}
}
