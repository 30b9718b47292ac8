// SPDX-FileCopyrightText: SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package landscaper

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Registry is an ordered mapping from version-range patterns to installer factories.
// It is constructed once per process and validated at construction time: band ranges
// are pairwise disjoint and every minor version of the supported span has an entry.
// Resolution therefore never depends on declaration order even though it scans in order.
type Registry struct {
	entries []registryEntry
}

type registryEntry struct {
	pattern    string
	minor      uint64
	constraint *semver.Constraints
	factory    InstallerFactory
}

// NewRegistry constructs the default registry covering every supported version band.
// Bands without behavioral changes reuse the factory of the nearest older band that
// has one.
func NewRegistry() (*Registry, error) {
	registry := &Registry{}

	var factory InstallerFactory
	for minor := uint64(OldestSupportedMinor); minor <= NewestSupportedMinor; minor++ {
		band := bandPattern(minor)

		if _, hasCorrection := minVirtualGardenKubeAPIServerVersions[band]; hasCorrection || factory == nil {
			factory = newInstallerFactory(minor)
		}

		constraint, err := semver.NewConstraint(band)
		if err != nil {
			return nil, fmt.Errorf("invalid version band pattern %q: %w", band, err)
		}

		registry.entries = append(registry.entries, registryEntry{
			pattern:    band,
			minor:      minor,
			constraint: constraint,
			factory:    factory,
		})
	}

	if err := registry.validate(); err != nil {
		return nil, err
	}

	return registry, nil
}

// Resolve returns the installer factory of the first band the given version string
// satisfies. It fails with a *VersionNotFoundError for versions outside every declared
// band as well as for malformed version strings. Parsing is strict: partial versions
// like "1.80" are rejected instead of being coerced to "1.80.0".
func (r *Registry) Resolve(version string) (InstallerFactory, error) {
	parsed, err := semver.StrictNewVersion(version)
	if err != nil {
		return nil, &VersionNotFoundError{Version: version}
	}

	for _, entry := range r.entries {
		if entry.constraint.Check(parsed) {
			return entry.factory, nil
		}
	}

	return nil, &VersionNotFoundError{Version: version}
}

// Supports reports whether the given version string resolves to a registered band.
func (r *Registry) Supports(version string) bool {
	_, err := r.Resolve(version)
	return err == nil
}

// Bands returns the declared band patterns in declaration order.
func (r *Registry) Bands() []string {
	bands := make([]string, 0, len(r.entries))
	for _, entry := range r.entries {
		bands = append(bands, entry.pattern)
	}
	return bands
}

// validate asserts that the band ranges are pairwise disjoint and that the supported
// span has no gaps. Overlapping ranges would make resolution order-dependent and
// silently wrong, so they are rejected at construction time.
func (r *Registry) validate() error {
	for i, entry := range r.entries {
		for _, probe := range probeVersions(entry.minor) {
			matches := 0
			for j, other := range r.entries {
				if other.constraint.Check(probe) {
					matches++
					if j != i {
						return fmt.Errorf("version bands %q and %q overlap: both match %s", entry.pattern, other.pattern, probe)
					}
				}
			}
			if matches == 0 {
				return fmt.Errorf("version band %q does not cover its own probe version %s", entry.pattern, probe)
			}
		}
	}

	for minor := uint64(OldestSupportedMinor); minor <= NewestSupportedMinor; minor++ {
		probe := semver.New(SupportedMajor, minor, 0, "", "")
		covered := false
		for _, entry := range r.entries {
			if entry.constraint.Check(probe) {
				covered = true
				break
			}
		}
		if !covered {
			return fmt.Errorf("the supported span has a gap: version %s matches no band", probe)
		}
	}

	return nil
}

func probeVersions(minor uint64) []*semver.Version {
	return []*semver.Version{
		semver.New(SupportedMajor, minor, 0, "", ""),
		semver.New(SupportedMajor, minor, 7, "", ""),
		semver.New(SupportedMajor, minor, 9999, "", ""),
	}
}
