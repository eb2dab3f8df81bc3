// SPDX-License-Identifier: EPL-2.0

// Package otosink plays a cue through the system audio device using oto.
//
// oto allows one device context per process, so every Sink shares it: the
// first Open fixes the sample rate and channel count, and later sinks must
// match them. Setting cue.Options.SampleRate to one rate lets files recorded
// at different rates share the device.
//
// Building with the headless tag replaces the device with a stub whose Open
// always fails with ErrUnavailable.
package otosink
