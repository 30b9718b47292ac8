// SPDX-FileCopyrightText: SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package secrets

import (
	"k8s.io/apimachinery/pkg/runtime"
	clientcmdlatest "k8s.io/client-go/tools/clientcmd/api/latest"
	clientcmdv1 "k8s.io/client-go/tools/clientcmd/api/v1"
)

// DataKeyKubeconfig is the key in a secret data holding the kubeconfig.
const DataKeyKubeconfig = "kubeconfig"

// KubeconfigSecretConfig is configuration for kubeconfig secrets.
type KubeconfigSecretConfig struct {
	// Name is the name of the kubeconfig.
	Name string
	// ContextName is the name of the cluster, context and (by convention) the user entry.
	ContextName string
	// Cluster is the cluster the kubeconfig points to.
	Cluster clientcmdv1.Cluster
	// AuthInfo contains the credentials.
	AuthInfo clientcmdv1.AuthInfo
	// Namespace is the default namespace of the context.
	Namespace string
}

// Kubeconfig contains the name and the generated kubeconfig.
type Kubeconfig struct {
	Name          string
	Kubeconfig    *clientcmdv1.Config
	kubeconfigRaw []byte
}

// Generate computes the kubeconfig from the configuration.
func (s *KubeconfigSecretConfig) Generate() (*Kubeconfig, error) {
	kubeconfig := NewKubeconfig(s.ContextName, s.Cluster, s.AuthInfo)
	kubeconfig.Contexts[0].Context.Namespace = s.Namespace

	raw, err := runtime.Encode(clientcmdlatest.Codec, kubeconfig)
	if err != nil {
		return nil, err
	}

	return &Kubeconfig{
		Name:          s.Name,
		Kubeconfig:    kubeconfig,
		kubeconfigRaw: raw,
	}, nil
}

// Raw returns the serialized kubeconfig.
func (v *Kubeconfig) Raw() []byte {
	return v.kubeconfigRaw
}

// SecretData computes the data map which can be used in a Kubernetes secret.
func (v *Kubeconfig) SecretData() map[string][]byte {
	return map[string][]byte{DataKeyKubeconfig: v.kubeconfigRaw}
}

// NewKubeconfig returns a new kubeconfig structure for the given cluster and credentials.
func NewKubeconfig(contextName string, cluster clientcmdv1.Cluster, authInfo clientcmdv1.AuthInfo) *clientcmdv1.Config {
	return &clientcmdv1.Config{
		CurrentContext: contextName,
		Clusters: []clientcmdv1.NamedCluster{{
			Name:    contextName,
			Cluster: cluster,
		}},
		Contexts: []clientcmdv1.NamedContext{{
			Name: contextName,
			Context: clientcmdv1.Context{
				Cluster:  contextName,
				AuthInfo: contextName,
			},
		}},
		AuthInfos: []clientcmdv1.NamedAuthInfo{{
			Name:     contextName,
			AuthInfo: authInfo,
		}},
	}
}
