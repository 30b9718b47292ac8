// SPDX-FileCopyrightText: SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package app contains the landscape-installer command. It wires the version registry,
// the state store and the cluster clients together and runs one installation.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/tools/clientcmd"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/yaml"

	"github.com/gardener/landscape-installer/pkg/apis/installation"
	"github.com/gardener/landscape-installer/pkg/apis/installation/validation"
	"github.com/gardener/landscape-installer/pkg/chartrenderer"
	"github.com/gardener/landscape-installer/pkg/client/kubernetes"
	"github.com/gardener/landscape-installer/pkg/controlplane"
	"github.com/gardener/landscape-installer/pkg/landscaper"
	"github.com/gardener/landscape-installer/pkg/logger"
	"github.com/gardener/landscape-installer/pkg/utils/flow"
)

// Options has all the context and parameters needed to run the landscape installer.
type Options struct {
	// ImportsFile is the path to the imports configuration file.
	ImportsFile string
	// StateFile is the path to the persisted landscape state file.
	StateFile string
	// Kubeconfig is the path to the kubeconfig of the runtime cluster.
	Kubeconfig string
	// ChartsDirectory is the directory containing the control plane Helm charts.
	ChartsDirectory string
	// OutputDirectory is the directory the exports are written to.
	OutputDirectory string
	// DryRun renders and logs instead of applying to the cluster.
	DryRun bool
	// LogLevel defines the logging verbosity (debug, info, error).
	LogLevel string
}

// AddFlags adds all flags to the given FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.ImportsFile, "imports", "", "path to the imports configuration file")
	fs.StringVar(&o.StateFile, "state", "", "path to the landscape state file")
	fs.StringVar(&o.Kubeconfig, "kubeconfig", "", "path to the kubeconfig of the runtime cluster")
	fs.StringVar(&o.ChartsDirectory, "charts-dir", "charts", "directory containing the control plane charts")
	fs.StringVar(&o.OutputDirectory, "output-dir", "", "directory the exports are written to")
	fs.BoolVar(&o.DryRun, "dry-run", false, "render and log the charts instead of applying them")
	fs.StringVar(&o.LogLevel, "log-level", "info", "logging verbosity (debug, info, error)")
}

func (o *Options) validate() error {
	if o.ImportsFile == "" {
		return fmt.Errorf("an imports file must be provided via --imports")
	}
	if o.StateFile == "" {
		return fmt.Errorf("a state file must be provided via --state")
	}
	if o.Kubeconfig == "" && !o.DryRun {
		return fmt.Errorf("a kubeconfig must be provided via --kubeconfig unless running with --dry-run")
	}
	return nil
}

// NewCommandStartLandscapeInstaller creates the landscape-installer cobra command.
func NewCommandStartLandscapeInstaller() *cobra.Command {
	opts := &Options{}

	cmd := &cobra.Command{
		Use:   "landscape-installer",
		Short: "Installs or upgrades the Gardener control plane of a landscape.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true

			if err := opts.validate(); err != nil {
				return err
			}
			return run(cmd.Context(), opts)
		},
	}

	opts.AddFlags(cmd.Flags())
	return cmd
}

func run(ctx context.Context, opts *Options) error {
	log := logger.NewLogger(opts.LogLevel)
	fs := afero.NewOsFs()

	imports, err := landscaper.LoadImports(fs, opts.ImportsFile)
	if err != nil {
		return err
	}
	if errs := validation.ValidateImports(imports); len(errs) > 0 {
		return fmt.Errorf("the imports configuration is invalid: %v", errs.ToAggregate())
	}

	landscapeLog := logger.NewLandscapeLogger(log, imports.LandscapeName)

	store := landscaper.NewStore(fs, opts.StateFile)
	persisted, err := store.Load()
	if err != nil {
		return err
	}
	state, err := landscaper.NormalizeState(persisted, imports)
	if err != nil {
		return err
	}

	registry, err := landscaper.NewRegistry()
	if err != nil {
		return err
	}
	factory, err := registry.Resolve(imports.GardenerVersion)
	if err != nil {
		return err
	}

	runtimeClient, chartApplier, err := newRuntimeClients(opts)
	if err != nil {
		return err
	}

	executor := flow.NewExecutor(landscapeLog, flow.NewImmediateProgressReporter(func(_ context.Context, stats *flow.Stats) {
		landscapeLog.Infof("%d%% of flow %q completed (last task: %q)", stats.ProgressPercent(), stats.FlowName, stats.LastTask)
	}))

	installer := factory(landscaper.Deps{
		Log:           landscapeLog,
		RuntimeClient: runtimeClient,
		ChartApplier:  chartApplier,
		Config: landscaper.Config{
			ChartsDirectory: opts.ChartsDirectory,
			DryRun:          opts.DryRun,
		},
	})

	landscapeLog.Infof("Installing Gardener version %s", imports.GardenerVersion)
	if err := installer.Install(ctx, executor, state, imports); err != nil {
		return err
	}

	if err := store.Save(state); err != nil {
		return err
	}
	if err := writeExports(fs, opts.OutputDirectory, imports, state); err != nil {
		return err
	}

	landscapeLog.Infof("Successfully installed Gardener version %s", imports.GardenerVersion)
	return nil
}

func newRuntimeClients(opts *Options) (client.Client, kubernetes.ChartApplier, error) {
	if opts.DryRun {
		// The renderer is still needed to log the would-be manifests.
		return nil, kubernetes.NewChartApplier(chartrenderer.New(), nil), nil
	}

	config, err := clientcmd.BuildConfigFromFlags("", opts.Kubeconfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load the runtime cluster kubeconfig: %w", err)
	}

	runtimeClient, err := client.New(config, client.Options{Scheme: scheme.Scheme})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create the runtime cluster client: %w", err)
	}

	return runtimeClient, kubernetes.NewChartApplierForClient(runtimeClient), nil
}

func writeExports(fs afero.Fs, outputDirectory string, imports *installation.Imports, state *installation.State) error {
	if outputDirectory == "" {
		return nil
	}

	exports := controlplane.New(controlplane.Options{
		Log:     logrus.NewEntry(logger.NewNopLogger()),
		Imports: imports,
		State:   state,
	}).Exports()

	data, err := yaml.Marshal(exports)
	if err != nil {
		return fmt.Errorf("failed to marshal the exports: %w", err)
	}

	if err := (afero.Afero{Fs: fs}).MkdirAll(outputDirectory, os.FileMode(0o755)); err != nil {
		return fmt.Errorf("failed to create the output directory %q: %w", outputDirectory, err)
	}

	path := filepath.Join(outputDirectory, "exports.yaml")
	if err := (afero.Afero{Fs: fs}).WriteFile(path, data, os.FileMode(0o600)); err != nil {
		return fmt.Errorf("failed to write the exports file %q: %w", path, err)
	}

	return nil
}
