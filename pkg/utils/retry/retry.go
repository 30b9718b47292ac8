// SPDX-FileCopyrightText: SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package retry

import (
	"context"
	"fmt"
	"time"
)

// Func is a function that tries to accomplish something. It reports whether it is done.
// If it is not done and no error occurred, it is retried.
type Func func(ctx context.Context) (done bool, err error)

// Ok returns (true, nil), indicating that the operation succeeded.
func Ok() (bool, error) {
	return true, nil
}

// MinorError returns (false, err), indicating that the operation failed with a
// minor error and should be retried.
func MinorError(err error) (bool, error) {
	return false, err
}

// SevereError returns (true, err), indicating that the operation failed with a
// severe error and must not be retried.
func SevereError(err error) (bool, error) {
	return true, err
}

// NotOk returns (false, nil), indicating that the operation did not succeed yet
// and should be retried.
func NotOk() (bool, error) {
	return false, nil
}

// Error is an error that occurred during a retried operation. It carries the last
// error observed before the context expired.
type Error struct {
	ctxError error
	err      error
}

// Unwrap returns the last error observed before the context expired, if any.
func (e *Error) Unwrap() error {
	if e.err != nil {
		return e.err
	}
	return e.ctxError
}

// Error implements error.
func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("retry failed with %v, last error: %v", e.ctxError, e.err)
	}
	return fmt.Sprintf("retry failed with %v", e.ctxError)
}

// NewError returns a new retry error with the given context error and last observed error.
func NewError(ctxError, err error) error {
	return &Error{ctxError, err}
}

// Until keeps retrying the given Func every interval until it is done or the
// context expires. If the context expires, the last error observed is wrapped
// in the returned error.
func Until(ctx context.Context, interval time.Duration, f Func) error {
	var lastError error

	for {
		done, err := f(ctx)
		if err != nil {
			if done {
				return err
			}
			lastError = err
		} else if done {
			return nil
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return NewError(ctx.Err(), lastError)
		case <-timer.C:
		}
	}
}

// UntilTimeout is Until with a context that times out after the given timeout.
func UntilTimeout(ctx context.Context, interval, timeout time.Duration, f Func) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return Until(ctx, interval, f)
}
