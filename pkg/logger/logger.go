// SPDX-FileCopyrightText: SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the standard logger for the landscape installer which is used for all messages
// which are not landscape specific.
var Logger *logrus.Logger

// NewLogger creates a new logrus logger.
// It uses STDERR as output channel and evaluates the value of the --log-level command line argument in order
// to set the log level.
// Example output: time="2021-06-08T13:00:28+02:00" level=info msg="landscape installer started successfully".
func NewLogger(logLevel string) *logrus.Logger {
	var level logrus.Level

	switch logLevel {
	case "debug":
		level = logrus.DebugLevel
	case "", "info":
		level = logrus.InfoLevel
	case "error":
		level = logrus.ErrorLevel
	default:
		panic("The specified log level is not supported.")
	}

	logger := &logrus.Logger{
		Out:   os.Stderr,
		Level: level,
		Formatter: &logrus.TextFormatter{
			DisableColors: true,
		},
	}
	Logger = logger
	return logger
}

// NewNopLogger instantiates a new logger that discards all output.
func NewNopLogger() *logrus.Logger {
	logger := logrus.New()
	logger.Out = io.Discard
	return logger
}

// AddWriter returns a logger that uses the given writer (e.g., the GinkgoWriter) as output channel.
func AddWriter(logger *logrus.Logger, writer io.Writer) *logrus.Logger {
	logger.Out = writer
	return logger
}

// NewLandscapeLogger extends an existing logrus logger and adds an additional field containing the
// name of the landscape the installer currently operates on.
// Example output: time="2021-06-08T13:00:49+02:00" level=info msg="Deploying application chart" landscape=dev.
func NewLandscapeLogger(logger *logrus.Logger, landscape string) *logrus.Entry {
	return logger.WithField("landscape", landscape)
}

// NewFieldLogger extends an existing logrus logger and adds the provided additional field.
// Example output: time="2021-06-08T13:00:49+02:00" level=info msg="something" <fieldKey>=<fieldValue>.
func NewFieldLogger(logger *logrus.Logger, fieldKey, fieldValue string) *logrus.Entry {
	return logger.WithField(fieldKey, fieldValue)
}
