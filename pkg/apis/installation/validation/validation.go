// SPDX-FileCopyrightText: SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package validation

import (
	"k8s.io/apimachinery/pkg/util/validation/field"

	"github.com/gardener/landscape-installer/pkg/apis/installation"
)

// ValidateState validates the structural shape of a persisted state object. It performs
// no semantic migration, that is the installer chain's job.
func ValidateState(state *installation.State) field.ErrorList {
	allErrs := field.ErrorList{}

	if len(state.GardenerVersion) == 0 {
		allErrs = append(allErrs, field.Required(field.NewPath("gardenerVersion"), "the state must record the last installed Gardener version."))
	}

	if state.VirtualGarden == nil {
		allErrs = append(allErrs, field.Required(field.NewPath("virtualGarden"), "the state must contain the virtual garden sub-object."))
	}

	return allErrs
}

// ValidateImports validates an imports object.
func ValidateImports(imports *installation.Imports) field.ErrorList {
	allErrs := field.ErrorList{}

	if len(imports.GardenerVersion) == 0 {
		allErrs = append(allErrs, field.Required(field.NewPath("gardenerVersion"), "the target Gardener version has to be provided."))
	}

	if imports.GardenerAPIServer != nil {
		allErrs = append(allErrs, validateComponentConfiguration(imports.GardenerAPIServer, field.NewPath("gardenerAPIServer"))...)
	}

	if imports.GardenerControllerManager != nil {
		allErrs = append(allErrs, validateComponentConfiguration(imports.GardenerControllerManager, field.NewPath("gardenerControllerManager"))...)
	}

	if imports.GardenerAdmissionController != nil {
		allErrs = append(allErrs, validateComponentConfiguration(&imports.GardenerAdmissionController.ComponentConfiguration, field.NewPath("gardenerAdmissionController"))...)
	}

	return allErrs
}

func validateComponentConfiguration(configuration *installation.ComponentConfiguration, fldPath *field.Path) field.ErrorList {
	allErrs := field.ErrorList{}

	if configuration.ReplicaCount != nil && *configuration.ReplicaCount < 0 {
		allErrs = append(allErrs, field.Invalid(fldPath.Child("replicaCount"), *configuration.ReplicaCount, "replica count must not be negative."))
	}

	return allErrs
}
