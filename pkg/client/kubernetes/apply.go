// SPDX-FileCopyrightText: SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package kubernetes

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	utilyaml "k8s.io/apimachinery/pkg/util/yaml"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/yaml"
)

// Applier creates or updates objects from plain manifests in a target cluster.
// Apply is create-or-update, so re-running it after a partial failure is safe.
type Applier interface {
	// ApplyManifest applies all objects of the given reader to the cluster.
	ApplyManifest(ctx context.Context, reader UnstructuredReader) error
	// DeleteManifest deletes all objects of the given reader from the cluster.
	DeleteManifest(ctx context.Context, reader UnstructuredReader) error
}

type applier struct {
	client client.Client
}

// NewApplier returns a new Applier backed by the given client.
func NewApplier(c client.Client) Applier {
	return &applier{client: c}
}

// ApplyManifest implements Applier.
func (a *applier) ApplyManifest(ctx context.Context, reader UnstructuredReader) error {
	for {
		obj, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if obj == nil {
			continue
		}

		if err := a.applyObject(ctx, obj); err != nil {
			return fmt.Errorf("failed to apply %s %s/%s: %w", obj.GetKind(), obj.GetNamespace(), obj.GetName(), err)
		}
	}
}

func (a *applier) applyObject(ctx context.Context, desired *unstructured.Unstructured) error {
	current := &unstructured.Unstructured{}
	current.SetGroupVersionKind(desired.GroupVersionKind())

	if err := a.client.Get(ctx, client.ObjectKeyFromObject(desired), current); err != nil {
		if !apierrors.IsNotFound(err) {
			return err
		}
		return a.client.Create(ctx, desired)
	}

	mergeObjects(desired, current)

	return a.client.Update(ctx, desired)
}

// mergeObjects carries over server-populated fields that an update must not drop.
func mergeObjects(desired, current *unstructured.Unstructured) {
	desired.SetResourceVersion(current.GetResourceVersion())

	// Services get their cluster IP allocated by the server, updates without it are rejected.
	if desired.GetAPIVersion() == "v1" && desired.GetKind() == "Service" {
		if clusterIP, ok, _ := unstructured.NestedString(current.Object, "spec", "clusterIP"); ok {
			_ = unstructured.SetNestedField(desired.Object, clusterIP, "spec", "clusterIP")
		}
	}
}

// DeleteManifest implements Applier.
func (a *applier) DeleteManifest(ctx context.Context, reader UnstructuredReader) error {
	for {
		obj, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if obj == nil {
			continue
		}

		if err := a.client.Delete(ctx, obj); client.IgnoreNotFound(err) != nil {
			return fmt.Errorf("failed to delete %s %s/%s: %w", obj.GetKind(), obj.GetNamespace(), obj.GetName(), err)
		}
	}
}

// UnstructuredReader reads one unstructured object at a time and io.EOF once exhausted.
type UnstructuredReader interface {
	Read() (*unstructured.Unstructured, error)
}

// NewManifestReader initializes a reader for the given multi-document YAML manifest.
func NewManifestReader(manifest []byte) UnstructuredReader {
	return &manifestReader{
		reader: utilyaml.NewYAMLReader(bufio.NewReader(bytes.NewReader(manifest))),
	}
}

type manifestReader struct {
	reader *utilyaml.YAMLReader
}

// Read implements UnstructuredReader.
func (m *manifestReader) Read() (*unstructured.Unstructured, error) {
	for {
		data, err := m.reader.Read()
		if err != nil {
			return nil, err
		}

		obj := map[string]interface{}{}
		if err := yaml.Unmarshal(data, &obj); err != nil {
			return nil, fmt.Errorf("failed to unmarshal manifest document: %w", err)
		}

		// Skip empty documents, e.g. rendered templates that only contain comments.
		if len(obj) == 0 {
			continue
		}

		return &unstructured.Unstructured{Object: obj}, nil
	}
}

// NewNamespaceSettingReader wraps the given reader and forces the given namespace
// on all namespace-less objects.
func NewNamespaceSettingReader(reader UnstructuredReader, namespace string) UnstructuredReader {
	return &namespaceSettingReader{reader: reader, namespace: namespace}
}

type namespaceSettingReader struct {
	reader    UnstructuredReader
	namespace string
}

// Read implements UnstructuredReader.
func (n *namespaceSettingReader) Read() (*unstructured.Unstructured, error) {
	obj, err := n.reader.Read()
	if err != nil {
		return nil, err
	}

	if obj != nil && obj.GetNamespace() == "" {
		obj.SetNamespace(n.namespace)
	}

	return obj, nil
}
