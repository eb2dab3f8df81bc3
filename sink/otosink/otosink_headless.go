//go:build headless

// SPDX-License-Identifier: EPL-2.0

package otosink

import "github.com/ik5/audcue/cue"

var _ cue.Sink = (*Sink)(nil)

// Sink is a stand-in for builds without an audio device.
type Sink struct{}

func New() *Sink { return &Sink{} }

func (*Sink) Open(int, int, int) error { return ErrUnavailable }
func (*Sink) Write([]float32) error    { return cue.ErrSinkClosed }
func (*Sink) Close() error             { return nil }
