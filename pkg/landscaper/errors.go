// SPDX-FileCopyrightText: SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package landscaper

import (
	"errors"
	"fmt"

	"k8s.io/apimachinery/pkg/util/validation/field"
)

// VersionNotFoundError is returned when a version string matches none of the registered
// version bands. This is a normal outcome for out-of-support or malformed version
// strings and must be surfaced to the operator verbatim, never retried.
type VersionNotFoundError struct {
	// Version is the unmatched version string.
	Version string
}

// Error implements error.
func (e *VersionNotFoundError) Error() string {
	return fmt.Sprintf("version %q is not supported by any registered version band", e.Version)
}

// IsVersionNotFound reports whether the error is a *VersionNotFoundError.
func IsVersionNotFound(err error) bool {
	var versionNotFound *VersionNotFoundError
	return errors.As(err, &versionNotFound)
}

// MalformedStateError is returned when a persisted state fails structural validation.
// It is not retryable without manual intervention and names the missing fields.
type MalformedStateError struct {
	// FieldErrors describe the fields that were expected but missing or invalid.
	FieldErrors field.ErrorList
}

// Error implements error.
func (e *MalformedStateError) Error() string {
	return fmt.Sprintf("the persisted landscape state is malformed: %v", e.FieldErrors.ToAggregate())
}

// IsMalformedState reports whether the error is a *MalformedStateError.
func IsMalformedState(err error) bool {
	var malformedState *MalformedStateError
	return errors.As(err, &malformedState)
}

// StateValidationError is returned when a version band's installer finds the (possibly
// corrected) state still unfit for its preconditions. It aborts the whole chain before
// any cluster-affecting call has been made.
type StateValidationError struct {
	// Band is the version band whose precondition failed.
	Band string
	// Reason describes the failed precondition.
	Reason string
}

// Error implements error.
func (e *StateValidationError) Error() string {
	return fmt.Sprintf("state validation for version band %q failed: %s", e.Band, e.Reason)
}

// IsStateValidation reports whether the error is a *StateValidationError.
func IsStateValidation(err error) bool {
	var stateValidation *StateValidationError
	return errors.As(err, &stateValidation)
}

// ConversionNotSupportedError is returned by ConvertStateValues when a structural
// cross-version conversion of the persisted state would be required. Such conversions
// are not implemented yet and must fail explicitly instead of silently passing the
// state through.
type ConversionNotSupportedError struct {
	// FromVersion is the version recorded in the state.
	FromVersion string
	// ToVersion is the requested target version.
	ToVersion string
}

// Error implements error.
func (e *ConversionNotSupportedError) Error() string {
	return fmt.Sprintf("structural state conversion from version %q to %q is not supported yet", e.FromVersion, e.ToVersion)
}

// IsConversionNotSupported reports whether the error is a *ConversionNotSupportedError.
func IsConversionNotSupported(err error) bool {
	var conversionNotSupported *ConversionNotSupportedError
	return errors.As(err, &conversionNotSupported)
}
