// SPDX-FileCopyrightText: SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package controlplane

import (
	"context"
	"fmt"

	authenticationv1 "k8s.io/api/authentication/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	clientcmdv1 "k8s.io/client-go/tools/clientcmd/api/v1"

	"github.com/gardener/landscape-installer/pkg/utils/secrets"
)

// MintServiceAccountCredentials requests a token for the service account of every
// control plane component and wraps it into a kubeconfig. The tokens are minted
// against the components created by the application chart, so this must run strictly
// after the application chart has been applied. Dry-run mode substitutes placeholder
// tokens instead of contacting the cluster.
func (o *Operation) MintServiceAccountCredentials(ctx context.Context) error {
	for _, name := range o.componentNames() {
		token, err := o.serviceAccountToken(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to mint credentials for service account %q: %w", name, err)
		}

		kubeconfig, err := (&secrets.KubeconfigSecretConfig{
			Name:        name,
			ContextName: "garden",
			Cluster: clientcmdv1.Cluster{
				Server:                   o.apiServerURL(),
				CertificateAuthorityData: []byte(o.state.Certificates.CA.Crt),
			},
			AuthInfo:  clientcmdv1.AuthInfo{Token: token},
			Namespace: GardenNamespace,
		}).Generate()
		if err != nil {
			return fmt.Errorf("failed to generate kubeconfig for service account %q: %w", name, err)
		}

		o.credentials[name] = kubeconfig.Raw()
	}

	return nil
}

func (o *Operation) serviceAccountToken(ctx context.Context, name string) (string, error) {
	if o.dryRun {
		return fmt.Sprintf("dry-run-token-%s", name), nil
	}

	serviceAccount := &corev1.ServiceAccount{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: GardenNamespace,
		},
	}
	if err := o.runtimeClient.Create(ctx, serviceAccount); err != nil && !apierrors.IsAlreadyExists(err) {
		return "", err
	}

	tokenRequest := &authenticationv1.TokenRequest{}
	if err := o.runtimeClient.SubResource("token").Create(ctx, serviceAccount, tokenRequest); err != nil {
		return "", err
	}

	return tokenRequest.Status.Token, nil
}

func (o *Operation) apiServerURL() string {
	if o.virtualGardenEnabled() {
		return fmt.Sprintf("https://%s.%s.svc", deploymentNameVirtualGardenKubeAPIServer, GardenNamespace)
	}
	return "https://kubernetes.default.svc"
}
