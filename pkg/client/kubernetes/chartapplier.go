// SPDX-FileCopyrightText: SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package kubernetes

import (
	"context"

	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/gardener/landscape-installer/pkg/chartrenderer"
)

// ChartApplier renders Helm charts and applies the result to a Kubernetes cluster.
type ChartApplier interface {
	chartrenderer.Interface

	// Apply renders the chart at <chartPath> with release name <name> into <namespace>
	// and applies the resulting manifest to the cluster.
	Apply(ctx context.Context, chartPath, namespace, name string, opts ...ApplyOption) error
	// Delete renders the chart at <chartPath> and deletes the resulting objects from the cluster.
	Delete(ctx context.Context, chartPath, namespace, name string, opts ...ApplyOption) error
}

// chartApplier is a structure that contains a chart renderer and a manifest applier.
type chartApplier struct {
	chartrenderer.Interface
	Applier
}

// NewChartApplier returns a new chart applier.
func NewChartApplier(renderer chartrenderer.Interface, applier Applier) ChartApplier {
	return &chartApplier{renderer, applier}
}

// NewChartApplierForClient returns a new chart applier with a default renderer for the given client.
func NewChartApplierForClient(c client.Client) ChartApplier {
	return NewChartApplier(chartrenderer.New(), NewApplier(c))
}

// ApplyOptions are options for ChartApplier.Apply.
type ApplyOptions struct {
	// Values are the values the chart is rendered with.
	Values map[string]interface{}
	// ForceNamespace forces the target namespace on all namespace-less rendered objects.
	ForceNamespace bool
}

// ApplyOption mutates ApplyOptions.
type ApplyOption interface {
	MutateApplyOptions(opts *ApplyOptions)
}

// Values sets the chart values.
type Values map[string]interface{}

// MutateApplyOptions implements ApplyOption.
func (v Values) MutateApplyOptions(opts *ApplyOptions) {
	opts.Values = v
}

type forceNamespace struct{}

// MutateApplyOptions implements ApplyOption.
func (forceNamespace) MutateApplyOptions(opts *ApplyOptions) {
	opts.ForceNamespace = true
}

// ForceNamespace forces the release namespace on all namespace-less rendered objects.
var ForceNamespace ApplyOption = forceNamespace{}

// Apply implements ChartApplier.
func (c *chartApplier) Apply(ctx context.Context, chartPath, namespace, name string, opts ...ApplyOption) error {
	applyOpts := mutate(opts...)

	reader, err := c.manifestReader(chartPath, namespace, name, applyOpts)
	if err != nil {
		return err
	}

	return c.ApplyManifest(ctx, reader)
}

// Delete implements ChartApplier.
func (c *chartApplier) Delete(ctx context.Context, chartPath, namespace, name string, opts ...ApplyOption) error {
	applyOpts := mutate(opts...)

	reader, err := c.manifestReader(chartPath, namespace, name, applyOpts)
	if err != nil {
		return err
	}

	return c.DeleteManifest(ctx, reader)
}

func (c *chartApplier) manifestReader(chartPath, namespace, name string, opts *ApplyOptions) (UnstructuredReader, error) {
	release, err := c.Render(chartPath, name, namespace, opts.Values)
	if err != nil {
		return nil, err
	}

	reader := NewManifestReader(release.Manifest())
	if opts.ForceNamespace {
		reader = NewNamespaceSettingReader(reader, namespace)
	}

	return reader, nil
}

func mutate(opts ...ApplyOption) *ApplyOptions {
	applyOpts := &ApplyOptions{}
	for _, o := range opts {
		if o != nil {
			o.MutateApplyOptions(applyOpts)
		}
	}
	return applyOpts
}
