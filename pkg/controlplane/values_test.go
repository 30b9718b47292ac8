// SPDX-FileCopyrightText: SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package controlplane_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"k8s.io/utils/ptr"

	"github.com/gardener/landscape-installer/pkg/apis/installation"
	"github.com/gardener/landscape-installer/pkg/controlplane"
	"github.com/gardener/landscape-installer/pkg/logger"
)

var _ = Describe("Values", func() {
	var (
		imports *installation.Imports
		state   *installation.State
	)

	BeforeEach(func() {
		imports = &installation.Imports{
			LandscapeName:   "test",
			GardenerVersion: "1.80.3",
		}
		state = &installation.State{
			GardenerVersion: "1.80.3",
			Identity:        "test-abcd1234",
			VirtualGarden:   &installation.VirtualGardenState{},
			Certificates: &installation.Certificates{
				CA:                  installation.CertificatePair{Crt: "ca-crt", Key: "ca-key"},
				APIServer:           installation.CertificatePair{Crt: "apiserver-crt", Key: "apiserver-key"},
				ControllerManager:   installation.CertificatePair{Crt: "cm-crt", Key: "cm-key"},
				AdmissionController: installation.CertificatePair{Crt: "ac-crt", Key: "ac-key"},
			},
		}
	})

	newOperation := func() *controlplane.Operation {
		return controlplane.New(controlplane.Options{
			Log:     logger.NewNopLogger(),
			Imports: imports,
			State:   state,
		})
	}

	Describe("#ApplicationChartValues", func() {
		It("should compute the default values from the state and the target version", func() {
			values, err := newOperation().ApplicationChartValues()
			Expect(err).NotTo(HaveOccurred())

			Expect(values).To(HaveKeyWithValue("global", map[string]interface{}{
				"identity":        "test-abcd1234",
				"gardenerVersion": "1.80.3",
			}))

			apiserver, ok := values["apiserver"].(map[string]interface{})
			Expect(ok).To(BeTrue())
			Expect(apiserver).To(HaveKeyWithValue("replicaCount", int64(1)))
			Expect(apiserver["image"]).To(HaveKeyWithValue("tag", "v1.80.3"))
			Expect(apiserver["tls"]).To(HaveKeyWithValue("crt", "apiserver-crt"))
			Expect(apiserver["ca"]).To(HaveKeyWithValue("crt", "ca-crt"))
		})

		It("should omit the admission controller section unless enabled", func() {
			values, err := newOperation().ApplicationChartValues()
			Expect(err).NotTo(HaveOccurred())
			Expect(values).NotTo(HaveKey("admissionController"))

			imports.GardenerAdmissionController = &installation.AdmissionControllerConfiguration{Enabled: true}
			values, err = newOperation().ApplicationChartValues()
			Expect(err).NotTo(HaveOccurred())
			Expect(values).To(HaveKey("admissionController"))
		})

		It("should apply replica count and feature gate overrides", func() {
			imports.GardenerAPIServer = &installation.ComponentConfiguration{
				ReplicaCount: ptr.To[int32](3),
				FeatureGates: map[string]bool{"HVPA": true},
			}

			values, err := newOperation().ApplicationChartValues()
			Expect(err).NotTo(HaveOccurred())

			apiserver := values["apiserver"].(map[string]interface{})
			Expect(apiserver).To(HaveKeyWithValue("replicaCount", int64(3)))
			Expect(apiserver["featureGates"]).To(HaveKeyWithValue("HVPA", true))
		})

		It("should deep-merge operator value overrides over the defaults", func() {
			imports.GardenerControllerManager = &installation.ComponentConfiguration{
				Values: map[string]interface{}{
					"image": map[string]interface{}{
						"tag": "custom",
					},
					"resources": map[string]interface{}{
						"requests": map[string]interface{}{"cpu": "100m"},
					},
				},
			}

			values, err := newOperation().ApplicationChartValues()
			Expect(err).NotTo(HaveOccurred())

			controllerManager := values["controllerManager"].(map[string]interface{})
			image := controllerManager["image"].(map[string]interface{})
			Expect(image).To(HaveKeyWithValue("tag", "custom"))
			// Default keys not touched by the override survive the merge.
			Expect(image).To(HaveKey("repository"))
			Expect(controllerManager).To(HaveKey("resources"))
			Expect(controllerManager["tls"]).To(HaveKeyWithValue("crt", "cm-crt"))
		})
	})

	Describe("#RuntimeChartValues", func() {
		It("should carry the global section and an empty kubeconfigs map before minting", func() {
			values, err := newOperation().RuntimeChartValues()
			Expect(err).NotTo(HaveOccurred())

			Expect(values).To(HaveKeyWithValue("global", map[string]interface{}{
				"identity":        "test-abcd1234",
				"gardenerVersion": "1.80.3",
			}))
			Expect(values["kubeconfigs"]).To(Equal(map[string]interface{}{}))
		})
	})
})
