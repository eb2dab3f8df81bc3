// SPDX-License-Identifier: EPL-2.0

package cue

import (
	"fmt"
	"math"
)

// PanType selects how a pan value in [-1, 1] maps to left and right gains.
type PanType int32

const (
	// PanCutLinear keeps full gain at center and attenuates only the side
	// the sound is panned away from.
	PanCutLinear PanType = iota

	// PanLinear crossfades linearly; each side is at half gain at center.
	PanLinear

	// PanCircular keeps left² + right² constant.
	PanCircular
)

func (t PanType) String() string {
	switch t {
	case PanCutLinear:
		return "cut-linear"
	case PanLinear:
		return "linear"
	case PanCircular:
		return "circular"
	default:
		return fmt.Sprintf("PanType(%d)", int32(t))
	}
}

func (t PanType) valid() bool { return t >= PanCutLinear && t <= PanCircular }

// Gains returns the left and right multipliers for pan.
func (t PanType) Gains(pan float64) (float64, float64) {
	switch t {
	case PanLinear:
		return (1 - pan) / 2, (1 + pan) / 2
	case PanCircular:
		angle := (pan + 1) * math.Pi / 4
		return math.Cos(angle), math.Sin(angle)
	default:
		return min(1, 1-pan), min(1, 1+pan)
	}
}
