// SPDX-FileCopyrightText: SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package landscaper

import (
	"github.com/Masterminds/semver/v3"

	"github.com/gardener/landscape-installer/pkg/apis/installation"
)

// ConvertStateValues converts the persisted state to the schema of the given target
// version. All currently supported bands share one state schema, so conversion within
// the supported span is the identity after both versions have been validated against
// the registry. A conversion across major versions would require structural changes
// and fails with a *ConversionNotSupportedError before any band resolution. Callers
// must not assume a full cross-version implementation.
func (r *Registry) ConvertStateValues(state *installation.State, targetVersion string) (*installation.State, error) {
	from, err := semver.StrictNewVersion(state.GardenerVersion)
	if err != nil {
		return nil, &VersionNotFoundError{Version: state.GardenerVersion}
	}
	to, err := semver.StrictNewVersion(targetVersion)
	if err != nil {
		return nil, &VersionNotFoundError{Version: targetVersion}
	}

	if from.Major() != to.Major() {
		return nil, &ConversionNotSupportedError{
			FromVersion: state.GardenerVersion,
			ToVersion:   targetVersion,
		}
	}

	if _, err := r.Resolve(state.GardenerVersion); err != nil {
		return nil, err
	}
	if _, err := r.Resolve(targetVersion); err != nil {
		return nil, err
	}

	return state, nil
}
