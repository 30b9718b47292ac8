// SPDX-FileCopyrightText: SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package chartrenderer renders Helm charts into plain Kubernetes manifests without
// contacting a cluster.
package chartrenderer

import (
	"bytes"
	"fmt"

	"helm.sh/helm/v3/pkg/releaseutil"
)

// Interface is an interface for rendering Helm charts from a path with a given
// release name, namespace and values.
type Interface interface {
	// Render renders the chart at the given path.
	Render(chartPath, releaseName, namespace string, values map[string]interface{}) (*RenderedChart, error)
	// RenderArchive renders the chart contained in the given gzipped tar archive.
	RenderArchive(archive []byte, releaseName, namespace string, values map[string]interface{}) (*RenderedChart, error)
}

// RenderedChart holds the rendered manifests of one chart in install order.
type RenderedChart struct {
	ChartName string
	Manifests []releaseutil.Manifest
}

// Manifest returns the manifest of the rendered chart as byte array.
func (c *RenderedChart) Manifest() []byte {
	// Aggregate all valid manifests into one big doc.
	b := bytes.NewBuffer(nil)

	for _, mf := range c.Manifests {
		b.WriteString("\n---\n# Source: " + mf.Name + "\n")
		b.WriteString(mf.Content)
	}
	return b.Bytes()
}

// Files returns all rendered manifests mapping their names to their content.
func (c *RenderedChart) Files() map[string]string {
	files := make(map[string]string, len(c.Manifests))
	for _, mf := range c.Manifests {
		files[mf.Name] = mf.Content
	}
	return files
}

// FileContent returns explicitly the content of the provided <filename>.
func (c *RenderedChart) FileContent(filename string) string {
	for _, mf := range c.Manifests {
		if mf.Name == fmt.Sprintf("%s/templates/%s", c.ChartName, filename) {
			return mf.Content
		}
	}
	return ""
}
