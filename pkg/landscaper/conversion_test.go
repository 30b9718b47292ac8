// SPDX-FileCopyrightText: SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package landscaper_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/gardener/landscape-installer/pkg/apis/installation"
	"github.com/gardener/landscape-installer/pkg/landscaper"
)

var _ = Describe("ConvertStateValues", func() {
	var (
		registry *landscaper.Registry
		state    *installation.State
	)

	BeforeEach(func() {
		var err error
		registry, err = landscaper.NewRegistry()
		Expect(err).NotTo(HaveOccurred())

		state = &installation.State{
			GardenerVersion: "1.79.0",
			VirtualGarden:   &installation.VirtualGardenState{KubeAPIServerVersion: "1.21.0"},
		}
	})

	It("should convert within the supported span without modifying the state", func() {
		converted, err := registry.ConvertStateValues(state, "1.86.4")
		Expect(err).NotTo(HaveOccurred())
		Expect(converted).To(Equal(state))
	})

	It("should fail if the recorded version is unsupported", func() {
		state.GardenerVersion = "1.60.0"

		_, err := registry.ConvertStateValues(state, "1.86.4")
		Expect(landscaper.IsVersionNotFound(err)).To(BeTrue())
	})

	It("should fail if the target version is unsupported", func() {
		_, err := registry.ConvertStateValues(state, "1.96.0")
		Expect(landscaper.IsVersionNotFound(err)).To(BeTrue())
	})

	It("should fail explicitly for a conversion across major versions", func() {
		converted, err := registry.ConvertStateValues(state, "2.0.0")
		Expect(converted).To(BeNil())
		Expect(landscaper.IsConversionNotSupported(err)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring(`"2.0.0"`))
	})

	It("should fail for a malformed recorded version", func() {
		state.GardenerVersion = "1.79"

		_, err := registry.ConvertStateValues(state, "1.86.4")
		Expect(landscaper.IsVersionNotFound(err)).To(BeTrue())
	})
})
