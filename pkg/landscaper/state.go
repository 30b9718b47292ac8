// SPDX-FileCopyrightText: SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package landscaper

import (
	"github.com/gardener/landscape-installer/pkg/apis/installation"
	"github.com/gardener/landscape-installer/pkg/apis/installation/validation"
)

// NormalizeState prepares the persisted state of a landscape for the installer chain.
// A nil state marks a fresh install and is replaced by a minimal state tagged with the
// target version. A present state is checked structurally, a failed check surfaces as
// a *MalformedStateError naming the missing fields. No semantic migration happens here.
func NormalizeState(state *installation.State, imports *installation.Imports) (*installation.State, error) {
	if state == nil {
		return &installation.State{
			GardenerVersion: imports.GardenerVersion,
			VirtualGarden:   &installation.VirtualGardenState{},
		}, nil
	}

	if errs := validation.ValidateState(state); len(errs) > 0 {
		return nil, &MalformedStateError{FieldErrors: errs}
	}

	return state.DeepCopy(), nil
}
