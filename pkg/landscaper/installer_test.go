// SPDX-FileCopyrightText: SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package landscaper_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/gardener/landscape-installer/pkg/apis/installation"
	"github.com/gardener/landscape-installer/pkg/landscaper"
	"github.com/gardener/landscape-installer/pkg/logger"
	"github.com/gardener/landscape-installer/pkg/utils/flow"
)

// fakeExecutor records the flows it is asked to run without executing their tasks. It
// stands in for the terminal reconciliation so that the migration chain can be observed
// in isolation.
type fakeExecutor struct {
	executed []string
}

func (f *fakeExecutor) Execute(_ context.Context, fl *flow.Flow) error {
	f.executed = append(f.executed, fl.Name())
	return nil
}

var _ = Describe("Installer", func() {
	var (
		ctx      context.Context
		registry *landscaper.Registry
		executor *fakeExecutor
		deps     landscaper.Deps

		imports *installation.Imports
	)

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		registry, err = landscaper.NewRegistry()
		Expect(err).NotTo(HaveOccurred())

		executor = &fakeExecutor{}
		deps = landscaper.Deps{
			Log: logrus.NewEntry(logger.NewNopLogger()),
		}

		imports = &installation.Imports{
			LandscapeName:   "test",
			GardenerVersion: "1.80.3",
			VirtualGarden:   &installation.VirtualGarden{Enabled: true},
		}
	})

	install := func(version string, state *installation.State) error {
		imports.GardenerVersion = version
		factory, err := registry.Resolve(version)
		Expect(err).NotTo(HaveOccurred())
		return factory(deps).Install(ctx, executor, state, imports)
	}

	newState := func(kubeAPIServerVersion string) *installation.State {
		return &installation.State{
			GardenerVersion: "1.74.0",
			VirtualGarden:   &installation.VirtualGardenState{KubeAPIServerVersion: kubeAPIServerVersion},
		}
	}

	It("should raise an outdated virtual garden kube-apiserver version exactly to the newest applicable floor", func() {
		state := newState("1.20.0")

		Expect(install("1.80.3", state)).To(Succeed())
		Expect(state.VirtualGarden.KubeAPIServerVersion).To(Equal("1.23.16"))
	})

	It("should never lower a recorded version that already satisfies all floors", func() {
		state := newState("1.30.0")

		Expect(install("1.80.3", state)).To(Succeed())
		Expect(state.VirtualGarden.KubeAPIServerVersion).To(Equal("1.30.0"))
	})

	It("should apply only the floors of the target band and older bands", func() {
		state := newState("1.20.0")

		// 1.79.x has no own correction and inherits from 1.77.x, so the 1.80.x floor
		// must not apply.
		Expect(install("1.79.1", state)).To(Succeed())
		Expect(state.VirtualGarden.KubeAPIServerVersion).To(Equal("1.21.0"))
	})

	It("should not correct anything for bands older than the first floor", func() {
		state := newState("1.5.0")

		Expect(install("1.74.2", state)).To(Succeed())
		Expect(state.VirtualGarden.KubeAPIServerVersion).To(Equal("1.5.0"))
	})

	It("should satisfy the floor silently on a fresh state", func() {
		state, err := landscaper.NormalizeState(nil, imports)
		Expect(err).NotTo(HaveOccurred())

		Expect(install("1.80.3", state)).To(Succeed())
		Expect(state.VirtualGarden.KubeAPIServerVersion).To(Equal("1.23.16"))
	})

	It("should fail with a StateValidationError for an unparseable recorded version", func() {
		state := newState("not-a-version")

		err := install("1.80.3", state)
		Expect(landscaper.IsStateValidation(err)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("1.80.x"))
		// The chain aborts before the terminal reconciliation.
		Expect(executor.executed).To(BeEmpty())
	})

	It("should run the terminal reconciliation exactly once", func() {
		state := newState("1.25.0")

		Expect(install("1.86.4", state)).To(Succeed())
		Expect(executor.executed).To(HaveLen(1))
	})

	It("should tag the state with the installed version after a successful run", func() {
		state := newState("1.25.0")

		Expect(install("1.86.4", state)).To(Succeed())
		Expect(state.GardenerVersion).To(Equal("1.86.4"))
	})

	It("should compare only the main version components", func() {
		state := newState("1.23.16-rc.1+build.7")

		Expect(install("1.80.3", state)).To(Succeed())
		Expect(state.VirtualGarden.KubeAPIServerVersion).To(Equal("1.23.16-rc.1+build.7"))
	})

	It("should reject a nil state", func() {
		Expect(install("1.80.3", nil)).To(HaveOccurred())
	})
})
