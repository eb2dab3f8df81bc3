// SPDX-License-Identifier: EPL-2.0

package cue

import "github.com/sirupsen/logrus"

const (
	DefaultBufferFrames   = 1024
	DefaultEventQueueSize = 256
	DefaultPriority       = 10
)

// Options configures a Cue. The zero value of each field selects its
// default.
type Options struct {
	// BufferFrames is the number of stereo frames rendered per tick.
	BufferFrames int

	// EventQueueSize is how many events may wait for listeners before
	// events raised by the render goroutine are dropped.
	EventQueueSize int

	// SampleRate, when positive, is the rate assets are resampled to when
	// loaded, so cues decoded from files at different rates can share one
	// device. Zero keeps each asset's own rate.
	SampleRate int

	PanType PanType

	// Priority is reported in lifecycle events. It is advisory only.
	Priority int

	// Sink receives rendered audio and serves one cue at a time. Defaults to
	// a ClockSink.
	Sink Sink

	Logger *logrus.Entry
}

// NewOptions returns Options populated with defaults.
func NewOptions() *Options {
	return &Options{
		BufferFrames:   DefaultBufferFrames,
		EventQueueSize: DefaultEventQueueSize,
		PanType:        PanCutLinear,
		Priority:       DefaultPriority,
		Sink:           NewClockSink(),
		Logger:         logrus.NewEntry(logrus.StandardLogger()),
	}
}

func (o *Options) withDefaults() Options {
	out := *NewOptions()
	if o == nil {
		return out
	}

	if o.BufferFrames > 0 {
		out.BufferFrames = o.BufferFrames
	}
	if o.EventQueueSize > 0 {
		out.EventQueueSize = o.EventQueueSize
	}
	if o.SampleRate > 0 {
		out.SampleRate = o.SampleRate
	}
	if o.PanType.valid() {
		out.PanType = o.PanType
	}
	if o.Priority != 0 {
		out.Priority = o.Priority
	}
	if o.Sink != nil {
		out.Sink = o.Sink
	}
	if o.Logger != nil {
		out.Logger = o.Logger
	}

	return out
}
