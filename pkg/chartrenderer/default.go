// SPDX-FileCopyrightText: SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package chartrenderer

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	helmchart "helm.sh/helm/v3/pkg/chart"
	helmloader "helm.sh/helm/v3/pkg/chart/loader"
	"helm.sh/helm/v3/pkg/chartutil"
	"helm.sh/helm/v3/pkg/engine"
	"helm.sh/helm/v3/pkg/releaseutil"
	"k8s.io/apimachinery/pkg/version"
)

const notesFileSuffix = "NOTES.txt"

// chartRenderer renders Helm charts with the Helm template engine. The resulting manifests
// never touch a cluster, applying them is the applier's job.
type chartRenderer struct {
	renderer     *engine.Engine
	capabilities *chartutil.Capabilities
}

// New creates a new chart renderer with default capabilities.
func New() Interface {
	return &chartRenderer{
		renderer:     &engine.Engine{},
		capabilities: chartutil.DefaultCapabilities,
	}
}

// NewWithServerVersion creates a new chart renderer with the given server version.
func NewWithServerVersion(serverVersion *version.Info) Interface {
	return &chartRenderer{
		renderer: &engine.Engine{},
		capabilities: &chartutil.Capabilities{KubeVersion: chartutil.KubeVersion{
			Version: serverVersion.GitVersion,
			Major:   serverVersion.Major,
			Minor:   serverVersion.Minor,
		}},
	}
}

// Render loads the chart from the given location <chartPath> and renders it with the
// given values.
func (r *chartRenderer) Render(chartPath, releaseName, namespace string, values map[string]interface{}) (*RenderedChart, error) {
	chart, err := helmloader.Load(chartPath)
	if err != nil {
		return nil, fmt.Errorf("can't load chart from path %s: %w", chartPath, err)
	}
	return r.renderRelease(chart, releaseName, namespace, values)
}

// RenderArchive loads the chart from the given archive and renders it with the given values.
func (r *chartRenderer) RenderArchive(archive []byte, releaseName, namespace string, values map[string]interface{}) (*RenderedChart, error) {
	chart, err := helmloader.LoadArchive(bytes.NewReader(archive))
	if err != nil {
		return nil, fmt.Errorf("can't load chart from archive: %w", err)
	}
	return r.renderRelease(chart, releaseName, namespace, values)
}

func (r *chartRenderer) renderRelease(chart *helmchart.Chart, releaseName, namespace string, values map[string]interface{}) (*RenderedChart, error) {
	chartName := chart.Metadata.Name

	parsedValues, err := chartutil.CoalesceValues(chart, values)
	if err != nil {
		return nil, fmt.Errorf("failed to parse values for chart %s: %w", chartName, err)
	}

	if err := chartutil.ProcessDependencies(chart, parsedValues); err != nil {
		return nil, fmt.Errorf("failed to process chart %s: %w", chartName, err)
	}

	options := chartutil.ReleaseOptions{
		Name:      releaseName,
		Namespace: namespace,
		Revision:  1,
		IsInstall: true,
	}

	valuesToRender, err := chartutil.ToRenderValues(chart, parsedValues, options, r.capabilities)
	if err != nil {
		return nil, err
	}

	return r.renderResources(chart, valuesToRender)
}

func (r *chartRenderer) renderResources(ch *helmchart.Chart, values chartutil.Values) (*RenderedChart, error) {
	files, err := r.renderer.Render(ch, values)
	if err != nil {
		return nil, err
	}

	// Remove NOTES.txt and partials
	for k := range files {
		if strings.HasSuffix(k, notesFileSuffix) || strings.HasPrefix(path.Base(k), "_") {
			delete(files, k)
		}
	}

	_, manifests, err := releaseutil.SortManifests(files, chartutil.DefaultVersionSet, releaseutil.InstallOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to sort manifests: %w", err)
	}

	return &RenderedChart{
		ChartName: ch.Metadata.Name,
		Manifests: manifests,
	}, nil
}
