// SPDX-FileCopyrightText: SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package controlplane deploys the Gardener control plane components into the runtime
// cluster of a landscape. It is the terminal deployment action of the installer chain.
package controlplane

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/sirupsen/logrus"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/gardener/landscape-installer/pkg/apis/installation"
	"github.com/gardener/landscape-installer/pkg/client/kubernetes"
	"github.com/gardener/landscape-installer/pkg/utils/secrets"
)

const (
	// GardenNamespace is the namespace the control plane components are deployed to.
	GardenNamespace = "garden"

	deploymentNameGardenerAPIServer           = "gardener-apiserver"
	deploymentNameGardenerControllerManager   = "gardener-controller-manager"
	deploymentNameGardenerAdmissionController = "gardener-admission-controller"

	deploymentNameVirtualGardenKubeAPIServer = "virtual-garden-kube-apiserver"

	applicationChartName = "application"
	runtimeChartName     = "runtime"
)

// Options contains the collaborators and configuration of an Operation.
type Options struct {
	// Log is the logger of the installation run.
	Log logrus.FieldLogger
	// RuntimeClient is the client for the runtime cluster. May be nil in dry-run mode.
	RuntimeClient client.Client
	// ChartApplier renders and applies the control plane Helm charts.
	ChartApplier kubernetes.ChartApplier
	// ChartsDirectory is the directory containing the control plane charts.
	ChartsDirectory string
	// DryRun skips all cluster-mutating calls but still computes and logs values.
	DryRun bool
	// Imports is the desired configuration of the run.
	Imports *installation.Imports
	// State is the (already migrated) state of the landscape. The operation records
	// generated certificates and the identity in it.
	State *installation.State
}

// Operation is one control plane deployment against the runtime cluster.
type Operation struct {
	log             logrus.FieldLogger
	runtimeClient   client.Client
	chartApplier    kubernetes.ChartApplier
	chartsDirectory string
	dryRun          bool

	imports *installation.Imports
	state   *installation.State

	// populated during the reconciliation flow
	caCertificate *secrets.Certificate
	credentials   map[string][]byte
}

// New returns a new control plane operation.
func New(opts Options) *Operation {
	return &Operation{
		log:             opts.Log,
		runtimeClient:   opts.RuntimeClient,
		chartApplier:    opts.ChartApplier,
		chartsDirectory: opts.ChartsDirectory,
		dryRun:          opts.DryRun,
		imports:         opts.Imports,
		state:           opts.State,
		credentials:     map[string][]byte{},
	}
}

// Exports returns the outputs of a successful reconciliation.
func (o *Operation) Exports() *installation.Exports {
	certificates := o.state.Certificates

	exports := &installation.Exports{
		GardenerIdentity:                    o.state.Identity,
		GardenerAPIServerCA:                 certificates.CA,
		GardenerAPIServerTLSServing:         certificates.APIServer,
		GardenerControllerManagerTLSServing: certificates.ControllerManager,
	}

	if o.admissionControllerEnabled() {
		tls := certificates.AdmissionController
		exports.GardenerAdmissionControllerTLSServing = &tls
	}

	return exports
}

func (o *Operation) admissionControllerEnabled() bool {
	return o.imports.GardenerAdmissionController != nil && o.imports.GardenerAdmissionController.Enabled
}

func (o *Operation) virtualGardenEnabled() bool {
	return o.imports.VirtualGarden != nil && o.imports.VirtualGarden.Enabled
}

// EnsureIdentity generates the landscape identity on first install. Like the
// certificates it is created once and reused for the lifetime of the landscape.
func (o *Operation) EnsureIdentity() error {
	if o.state.Identity != "" {
		return nil
	}

	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return fmt.Errorf("failed to generate landscape identity: %w", err)
	}

	name := o.imports.LandscapeName
	if name == "" {
		name = "landscape"
	}

	o.state.Identity = fmt.Sprintf("%s-%s", name, hex.EncodeToString(suffix))
	return nil
}

func (o *Operation) componentNames() []string {
	names := []string{deploymentNameGardenerAPIServer, deploymentNameGardenerControllerManager}
	if o.admissionControllerEnabled() {
		names = append(names, deploymentNameGardenerAdmissionController)
	}
	return names
}
