// SPDX-License-Identifier: EPL-2.0

// Package sink holds cue.Sink implementations that do not need an audio
// device. The device sink lives in sink/otosink.
package sink
