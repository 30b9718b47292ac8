// SPDX-FileCopyrightText: SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package landscaper

// The installer supports every Gardener minor version band from OldestSupportedMinor to
// NewestSupportedMinor. Bands follow the semver constraint syntax of
// github.com/Masterminds/semver, e.g. "1.80.x" matches any patch release of the 1.80
// minor version. Bands whose installation behavior did not change compared to their
// predecessor reuse the predecessor's installer.

const (
	// OldestSupportedMinor is the oldest still-supported Gardener minor version.
	OldestSupportedMinor = 74
	// NewestSupportedMinor is the newest supported Gardener minor version.
	NewestSupportedMinor = 95
	// SupportedMajor is the major version of all supported Gardener releases.
	SupportedMajor = 1
)

// minVirtualGardenKubeAPIServerVersions maps a version band to the minimum virtual
// garden kube-apiserver version that band requires. Installing a version of such a band
// raises the kube-apiserver version recorded in the state to exactly this floor if the
// recorded value is older. Bands absent from this map require no state correction.
var minVirtualGardenKubeAPIServerVersions = map[string]string{
	"1.77.x": "1.21.0",
	"1.80.x": "1.23.16",
	"1.86.x": "1.25.0",
	"1.91.x": "1.26.3",
}
