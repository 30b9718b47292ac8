// SPDX-FileCopyrightText: SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package landscaper_test

import (
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"k8s.io/apimachinery/pkg/util/validation/field"

	"github.com/gardener/landscape-installer/pkg/landscaper"
)

var _ = Describe("Errors", func() {
	It("should detect the typed errors through wrapping", func() {
		versionNotFound := fmt.Errorf("resolving failed: %w", &landscaper.VersionNotFoundError{Version: "1.96.0"})
		Expect(landscaper.IsVersionNotFound(versionNotFound)).To(BeTrue())
		Expect(landscaper.IsMalformedState(versionNotFound)).To(BeFalse())

		malformedState := fmt.Errorf("loading failed: %w", &landscaper.MalformedStateError{
			FieldErrors: field.ErrorList{field.Required(field.NewPath("gardenerVersion"), "missing")},
		})
		Expect(landscaper.IsMalformedState(malformedState)).To(BeTrue())

		stateValidation := fmt.Errorf("migrating failed: %w", &landscaper.StateValidationError{Band: "1.80.x", Reason: "bad version"})
		Expect(landscaper.IsStateValidation(stateValidation)).To(BeTrue())

		conversionNotSupported := fmt.Errorf("converting failed: %w", &landscaper.ConversionNotSupportedError{FromVersion: "1.80.0", ToVersion: "2.0.0"})
		Expect(landscaper.IsConversionNotSupported(conversionNotSupported)).To(BeTrue())
	})

	It("should name the offending input in the error messages", func() {
		Expect((&landscaper.VersionNotFoundError{Version: "1.96.0"}).Error()).To(ContainSubstring(`"1.96.0"`))
		Expect((&landscaper.StateValidationError{Band: "1.80.x", Reason: "bad"}).Error()).To(ContainSubstring(`"1.80.x"`))
		Expect((&landscaper.ConversionNotSupportedError{FromVersion: "1.80.0", ToVersion: "2.0.0"}).Error()).To(ContainSubstring(`"2.0.0"`))
	})
})
