// SPDX-License-Identifier: EPL-2.0

package cue

import "errors"

var (
	// ErrIllegalState reports an open/close transition that is not valid
	// from the current state, such as opening an open cue.
	ErrIllegalState = errors.New("illegal cue state")

	// ErrInvalidInstance reports an instance id that is out of range or not
	// currently obtained.
	ErrInvalidInstance = errors.New("invalid instance")

	// ErrInvalidArgument reports a parameter outside its domain.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidFormat reports sample data that cannot form a buffer.
	ErrInvalidFormat = errors.New("invalid sample format")

	// ErrDeviceUnavailable wraps a sink that failed to open.
	ErrDeviceUnavailable = errors.New("output device unavailable")

	// ErrSinkClosed is returned by a sink written to after Close.
	ErrSinkClosed = errors.New("sink closed")
)
