// SPDX-FileCopyrightText: SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package logger_test

import (
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	. "github.com/gardener/landscape-installer/pkg/logger"
)

var _ = Describe("logger", func() {
	AfterEach(func() {
		Logger = nil
	})

	Describe("#NewLogger", func() {
		It("should return a pointer to a Logger object ('info' level)", func() {
			logger := NewLogger("info")

			Expect(logger.Out).To(Equal(os.Stderr))
			Expect(logger.Level).To(Equal(logrus.InfoLevel))
			Expect(Logger).To(Equal(logger))
		})

		It("should return a pointer to a Logger object ('debug' level)", func() {
			logger := NewLogger("debug")

			Expect(logger.Out).To(Equal(os.Stderr))
			Expect(logger.Level).To(Equal(logrus.DebugLevel))
			Expect(Logger).To(Equal(logger))
		})

		It("should default to the 'info' level for an empty string", func() {
			logger := NewLogger("")

			Expect(logger.Level).To(Equal(logrus.InfoLevel))
		})

		It("should panic for an unsupported log level", func() {
			Expect(func() { NewLogger("verbose") }).To(Panic())
		})
	})

	Describe("#NewLandscapeLogger", func() {
		It("should add the landscape field", func() {
			logger := NewNopLogger()

			entry := NewLandscapeLogger(logger, "dev")

			Expect(entry.Data).To(HaveKeyWithValue("landscape", "dev"))
		})
	})

	Describe("#NewFieldLogger", func() {
		It("should add the provided field", func() {
			logger := NewNopLogger()

			entry := NewFieldLogger(logger, "band", "1.80.x")

			Expect(entry.Data).To(HaveKeyWithValue("band", "1.80.x"))
		})
	})
})
