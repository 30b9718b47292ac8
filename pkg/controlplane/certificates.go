// SPDX-FileCopyrightText: SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package controlplane

import (
	"context"
	"fmt"

	"github.com/gardener/landscape-installer/pkg/apis/installation"
	"github.com/gardener/landscape-installer/pkg/utils/secrets"
)

// LoadOrGenerateCertificates reuses the TLS material recorded in the state and
// generates whatever is missing: a self-signed CA and one serving certificate per
// control plane component, bound to the component's in-cluster DNS names.
// Certificates are created once per landscape and reused for its entire lifetime.
func (o *Operation) LoadOrGenerateCertificates(_ context.Context) error {
	if o.state.Certificates == nil {
		o.state.Certificates = &installation.Certificates{}
	}
	certificates := o.state.Certificates

	ca, err := o.loadOrGenerateCA(&certificates.CA)
	if err != nil {
		return err
	}
	o.caCertificate = ca

	components := []struct {
		name string
		pair *installation.CertificatePair
	}{
		{deploymentNameGardenerAPIServer, &certificates.APIServer},
		{deploymentNameGardenerControllerManager, &certificates.ControllerManager},
	}
	if o.admissionControllerEnabled() {
		components = append(components, struct {
			name string
			pair *installation.CertificatePair
		}{deploymentNameGardenerAdmissionController, &certificates.AdmissionController})
	}

	for _, component := range components {
		if err := o.loadOrGenerateServingCertificate(component.name, component.pair, ca); err != nil {
			return err
		}
	}

	return nil
}

func (o *Operation) loadOrGenerateCA(pair *installation.CertificatePair) (*secrets.Certificate, error) {
	if pair.Crt != "" && pair.Key != "" {
		ca, err := secrets.LoadCertificate("ca-landscape", []byte(pair.Key), []byte(pair.Crt))
		if err != nil {
			return nil, fmt.Errorf("failed to load the landscape CA from the state: %w", err)
		}
		return ca, nil
	}

	o.log.Info("Generating a new landscape certificate authority")

	ca, err := (&secrets.CertificateSecretConfig{
		Name:       "ca-landscape",
		CommonName: "ca-landscape",
		CertType:   secrets.CACert,
	}).GenerateCertificate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate the landscape CA: %w", err)
	}

	pair.Crt = string(ca.CertificatePEM)
	pair.Key = string(ca.PrivateKeyPEM)
	return ca, nil
}

func (o *Operation) loadOrGenerateServingCertificate(name string, pair *installation.CertificatePair, ca *secrets.Certificate) error {
	if pair.Crt != "" && pair.Key != "" {
		if _, err := secrets.LoadCertificate(name, []byte(pair.Key), []byte(pair.Crt)); err != nil {
			return fmt.Errorf("failed to load the %s serving certificate from the state: %w", name, err)
		}
		return nil
	}

	o.log.Infof("Generating serving certificate for %s", name)

	certificate, err := (&secrets.CertificateSecretConfig{
		Name:       name,
		CommonName: name,
		DNSNames:   inClusterDNSNames(name),
		CertType:   secrets.ServerCert,
		SigningCA:  ca,
	}).GenerateCertificate()
	if err != nil {
		return fmt.Errorf("failed to generate the %s serving certificate: %w", name, err)
	}

	pair.Crt = string(certificate.CertificatePEM)
	pair.Key = string(certificate.PrivateKeyPEM)
	return nil
}

func inClusterDNSNames(name string) []string {
	return []string{
		name,
		fmt.Sprintf("%s.%s", name, GardenNamespace),
		fmt.Sprintf("%s.%s.svc", name, GardenNamespace),
		fmt.Sprintf("%s.%s.svc.cluster.local", name, GardenNamespace),
	}
}
