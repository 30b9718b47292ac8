// SPDX-FileCopyrightText: SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package controlplane

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/gardener/landscape-installer/pkg/client/kubernetes"
	"github.com/gardener/landscape-installer/pkg/utils/flow"
)

// Reconcile deploys the Gardener control plane into the runtime cluster. The flow first
// applies the application chart (CRDs, RBAC, service accounts), then mints the service
// account credentials against the objects that chart created, and only then applies the
// runtime chart which consumes the minted kubeconfigs. This ordering is a hard
// dependency, not an optimization.
func (o *Operation) Reconcile(ctx context.Context, executor flow.Executor) error {
	var (
		g = flow.NewGraph("Gardener control plane reconciliation")

		ensureGardenNamespace = g.Add(flow.Task{
			Name:   "Ensuring garden namespace",
			Fn:     o.EnsureGardenNamespace,
			SkipIf: o.dryRun,
		})
		ensureIdentity = g.Add(flow.Task{
			Name: "Ensuring landscape identity",
			Fn: func(_ context.Context) error {
				return o.EnsureIdentity()
			},
			Dependencies: flow.NewTaskIDs(ensureGardenNamespace),
		})
		generateCertificates = g.Add(flow.Task{
			Name:         "Loading or generating control plane certificates",
			Fn:           o.LoadOrGenerateCertificates,
			Dependencies: flow.NewTaskIDs(ensureIdentity),
		})
		waitUntilVirtualGardenReady = g.Add(flow.Task{
			Name: "Waiting until the virtual garden kube-apiserver is ready",
			Fn: flow.TaskFn(o.WaitUntilVirtualGardenReady).
				RetryUntilTimeout(5*time.Second, 5*time.Minute).
				DoIf(o.virtualGardenEnabled() && !o.dryRun),
			Dependencies: flow.NewTaskIDs(generateCertificates),
		})
		deployApplicationChart = g.Add(flow.Task{
			Name:         "Deploying application chart",
			Fn:           o.DeployApplicationChart,
			Dependencies: flow.NewTaskIDs(waitUntilVirtualGardenReady),
		})
		mintCredentials = g.Add(flow.Task{
			Name:         "Minting service account credentials",
			Fn:           o.MintServiceAccountCredentials,
			Dependencies: flow.NewTaskIDs(deployApplicationChart),
		})
		deployRuntimeChart = g.Add(flow.Task{
			Name:         "Deploying runtime chart",
			Fn:           o.DeployRuntimeChart,
			Dependencies: flow.NewTaskIDs(mintCredentials),
		})
		_ = g.Add(flow.Task{
			Name: "Verifying control plane availability",
			Fn: flow.TaskFn(o.VerifyControlPlane).
				RetryUntilTimeout(5*time.Second, 5*time.Minute),
			SkipIf:       o.dryRun,
			Dependencies: flow.NewTaskIDs(deployRuntimeChart),
		})
	)

	return executor.Execute(ctx, g.Compile())
}

// EnsureGardenNamespace creates the garden namespace if it does not exist yet.
func (o *Operation) EnsureGardenNamespace(ctx context.Context) error {
	namespace := &corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{Name: GardenNamespace},
	}
	if err := o.runtimeClient.Create(ctx, namespace); err != nil && !apierrors.IsAlreadyExists(err) {
		return fmt.Errorf("failed to create the %s namespace: %w", GardenNamespace, err)
	}
	return nil
}

// WaitUntilVirtualGardenReady checks that the virtual garden kube-apiserver deployment
// has at least one available replica.
func (o *Operation) WaitUntilVirtualGardenReady(ctx context.Context) error {
	deployment := &appsv1.Deployment{}
	if err := o.runtimeClient.Get(ctx, client.ObjectKey{Namespace: GardenNamespace, Name: deploymentNameVirtualGardenKubeAPIServer}, deployment); err != nil {
		return err
	}

	if deployment.Status.AvailableReplicas < 1 {
		return fmt.Errorf("deployment %s/%s has no available replicas yet", GardenNamespace, deploymentNameVirtualGardenKubeAPIServer)
	}
	return nil
}

// DeployApplicationChart renders and applies the application chart. In dry-run mode the
// chart is rendered and logged but not applied.
func (o *Operation) DeployApplicationChart(ctx context.Context) error {
	values, err := o.ApplicationChartValues()
	if err != nil {
		return fmt.Errorf("failed to compute the application chart values: %w", err)
	}
	return o.applyChart(ctx, applicationChartName, values)
}

// DeployRuntimeChart renders and applies the runtime chart. In dry-run mode the chart is
// rendered and logged but not applied.
func (o *Operation) DeployRuntimeChart(ctx context.Context) error {
	values, err := o.RuntimeChartValues()
	if err != nil {
		return fmt.Errorf("failed to compute the runtime chart values: %w", err)
	}
	return o.applyChart(ctx, runtimeChartName, values)
}

func (o *Operation) applyChart(ctx context.Context, name string, values map[string]interface{}) error {
	chartPath := filepath.Join(o.chartsDirectory, name)

	if o.dryRun {
		release, err := o.chartApplier.Render(chartPath, name, GardenNamespace, values)
		if err != nil {
			return fmt.Errorf("failed to render the %s chart: %w", name, err)
		}
		o.log.Infof("Dry run, would apply the %s chart:\n%s", name, release.Manifest())
		return nil
	}

	if err := o.chartApplier.Apply(ctx, chartPath, GardenNamespace, name, kubernetes.Values(values)); err != nil {
		return fmt.Errorf("failed to apply the %s chart: %w", name, err)
	}
	return nil
}

// VerifyControlPlane checks that every control plane deployment reports at least one
// available replica.
func (o *Operation) VerifyControlPlane(ctx context.Context) error {
	for _, name := range o.componentNames() {
		deployment := &appsv1.Deployment{}
		if err := o.runtimeClient.Get(ctx, client.ObjectKey{Namespace: GardenNamespace, Name: name}, deployment); err != nil {
			return err
		}
		if deployment.Status.AvailableReplicas < 1 {
			return fmt.Errorf("deployment %s/%s has no available replicas yet", GardenNamespace, name)
		}
	}
	return nil
}
