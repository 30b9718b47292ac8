// SPDX-FileCopyrightText: SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package landscaper

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/sirupsen/logrus"

	"github.com/gardener/landscape-installer/pkg/apis/installation"
)

// migrationStep is the state correction of one version band. Steps only mutate the
// state, they never touch the cluster. Cluster side effects happen exactly once in the
// terminal reconciliation after all steps have run.
type migrationStep struct {
	band                    string
	minKubeAPIServerVersion *semver.Version
}

// migrationStepsForMinor returns the state corrections of all bands from the given
// minor version down to the oldest supported band, in newest-to-oldest order.
func migrationStepsForMinor(minor uint64) []migrationStep {
	var steps []migrationStep

	for m := minor; m >= OldestSupportedMinor; m-- {
		band := bandPattern(m)
		floor, ok := minVirtualGardenKubeAPIServerVersions[band]
		if !ok {
			continue
		}

		steps = append(steps, migrationStep{
			band:                    band,
			minKubeAPIServerVersion: semver.MustParse(floor),
		})
	}

	return steps
}

func bandPattern(minor uint64) string {
	return fmt.Sprintf("%d.%d.x", SupportedMajor, minor)
}

// apply enforces the band's minimum virtual garden kube-apiserver version on the state.
// An empty recorded version marks a freshly synthesized state and satisfies the floor
// without a warning.
func (m migrationStep) apply(log logrus.FieldLogger, state *installation.State) error {
	if m.minKubeAPIServerVersion == nil {
		return nil
	}

	if state.VirtualGarden == nil {
		state.VirtualGarden = &installation.VirtualGardenState{}
	}

	recorded := state.VirtualGarden.KubeAPIServerVersion
	if recorded == "" {
		state.VirtualGarden.KubeAPIServerVersion = m.minKubeAPIServerVersion.String()
		return nil
	}

	recordedVersion, err := semver.NewVersion(recorded)
	if err != nil {
		return &StateValidationError{
			Band:   m.band,
			Reason: fmt.Sprintf("recorded virtual garden kube-apiserver version %q is not a valid semver version: %v", recorded, err),
		}
	}

	// Only the main components (major.minor.patch) are compared, pre-release and build
	// metadata are ignored.
	if mainVersion(recordedVersion).LessThan(m.minKubeAPIServerVersion) {
		if log != nil {
			log.Warnf("Version band %s requires at least virtual garden kube-apiserver %s, raising the recorded version %s",
				m.band, m.minKubeAPIServerVersion, recorded)
		}
		state.VirtualGarden.KubeAPIServerVersion = m.minKubeAPIServerVersion.String()
	}

	return nil
}

func mainVersion(v *semver.Version) *semver.Version {
	return semver.New(v.Major(), v.Minor(), v.Patch(), "", "")
}
