// SPDX-FileCopyrightText: SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package controlplane

import (
	"encoding/base64"
	"fmt"

	"dario.cat/mergo"

	"github.com/gardener/landscape-installer/pkg/apis/installation"
)

// ApplicationChartValues computes the values for the application chart: hard-coded
// defaults per component, deep-merged with the operator overrides from the imports.
func (o *Operation) ApplicationChartValues() (map[string]interface{}, error) {
	certificates := o.state.Certificates

	values := map[string]interface{}{
		"global": map[string]interface{}{
			"identity":        o.state.Identity,
			"gardenerVersion": o.imports.GardenerVersion,
		},
		"apiserver": componentDefaults(o.imports.GardenerVersion, deploymentNameGardenerAPIServer, installation.CertificatePair{
			Crt: certificates.APIServer.Crt,
			Key: certificates.APIServer.Key,
		}, certificates.CA.Crt),
		"controllerManager": componentDefaults(o.imports.GardenerVersion, deploymentNameGardenerControllerManager, installation.CertificatePair{
			Crt: certificates.ControllerManager.Crt,
			Key: certificates.ControllerManager.Key,
		}, certificates.CA.Crt),
	}

	if o.admissionControllerEnabled() {
		values["admissionController"] = componentDefaults(o.imports.GardenerVersion, deploymentNameGardenerAdmissionController, installation.CertificatePair{
			Crt: certificates.AdmissionController.Crt,
			Key: certificates.AdmissionController.Key,
		}, certificates.CA.Crt)
	}

	if err := o.mergeComponentOverrides(values); err != nil {
		return nil, err
	}

	return values, nil
}

// RuntimeChartValues computes the values for the runtime chart. It wires the minted
// service account kubeconfigs into the components, so it must only be computed after
// MintServiceAccountCredentials has run.
func (o *Operation) RuntimeChartValues() (map[string]interface{}, error) {
	kubeconfigs := map[string]interface{}{}
	for name, kubeconfig := range o.credentials {
		kubeconfigs[name] = base64.StdEncoding.EncodeToString(kubeconfig)
	}

	values := map[string]interface{}{
		"global": map[string]interface{}{
			"identity":        o.state.Identity,
			"gardenerVersion": o.imports.GardenerVersion,
		},
		"kubeconfigs": kubeconfigs,
	}

	if err := o.mergeComponentOverrides(values); err != nil {
		return nil, err
	}

	return values, nil
}

func componentDefaults(version, name string, tls installation.CertificatePair, caCrt string) map[string]interface{} {
	return map[string]interface{}{
		"replicaCount": int64(1),
		"image": map[string]interface{}{
			"repository": fmt.Sprintf("europe-docker.pkg.dev/gardener-project/releases/gardener/%s", name),
			"tag":        fmt.Sprintf("v%s", version),
		},
		"tls": map[string]interface{}{
			"crt": tls.Crt,
			"key": tls.Key,
		},
		"ca": map[string]interface{}{
			"crt": caCrt,
		},
	}
}

func (o *Operation) mergeComponentOverrides(values map[string]interface{}) error {
	overrides := map[string]*installation.ComponentConfiguration{}

	if o.imports.GardenerAPIServer != nil {
		overrides["apiserver"] = o.imports.GardenerAPIServer
	}
	if o.imports.GardenerControllerManager != nil {
		overrides["controllerManager"] = o.imports.GardenerControllerManager
	}
	if o.admissionControllerEnabled() {
		overrides["admissionController"] = &o.imports.GardenerAdmissionController.ComponentConfiguration
	}

	for key, configuration := range overrides {
		section, ok := values[key].(map[string]interface{})
		if !ok {
			continue
		}

		if configuration.ReplicaCount != nil {
			section["replicaCount"] = int64(*configuration.ReplicaCount)
		}
		if len(configuration.FeatureGates) > 0 {
			featureGates := map[string]interface{}{}
			for gate, enabled := range configuration.FeatureGates {
				featureGates[gate] = enabled
			}
			section["featureGates"] = featureGates
		}

		// mergo.WithOverride ensures operator values take precedence over the defaults.
		if len(configuration.Values) > 0 {
			if err := mergo.Merge(&section, configuration.Values, mergo.WithOverride); err != nil {
				return fmt.Errorf("failed to merge value overrides for %q: %w", key, err)
			}
			values[key] = section
		}
	}

	return nil
}
