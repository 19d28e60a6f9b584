// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package liveness

import (
	"math"
	"testing"
)

func TestEyeAspectRatio(t *testing.T) {
	// Corners 4 apart, verticals 2 apart: EAR = (2+2)/(2*4) = 0.5
	open := [6]Point{
		{0, 0}, {1, 1}, {3, 1}, {4, 0}, {3, -1}, {1, -1},
	}
	if got := EyeAspectRatio(open); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("open eye EAR = %f, want 0.5", got)
	}

	// Nearly closed: verticals 0.4 apart → EAR = 0.1
	closed := [6]Point{
		{0, 0}, {1, 0.2}, {3, 0.2}, {4, 0}, {3, -0.2}, {1, -0.2},
	}
	if got := EyeAspectRatio(closed); math.Abs(got-0.1) > 1e-9 {
		t.Errorf("closed eye EAR = %f, want 0.1", got)
	}
}

func TestEyeAspectRatioDegenerate(t *testing.T) {
	var collapsed [6]Point // all points identical
	if got := EyeAspectRatio(collapsed); got != 0 {
		t.Errorf("degenerate EAR = %f, want 0", got)
	}
}

func TestMouthAspectRatio(t *testing.T) {
	// Wide open: verticals 6 apart, corners 4 apart → MAR = 1.5
	open := [6]Point{
		{0, 0}, {1, 3}, {3, 3}, {4, 0}, {3, -3}, {1, -3},
	}
	if got := MouthAspectRatio(open); math.Abs(got-1.5) > 1e-9 {
		t.Errorf("open mouth MAR = %f, want 1.5", got)
	}
}

func TestNoseRatio(t *testing.T) {
	left, right := Point{0, 0}, Point{10, 0}

	tests := []struct {
		name string
		nose Point
		want float64
	}{
		{"centered", Point{5, 0}, 0.5},
		{"turned left", Point{2, 0}, 0.2},
		{"turned right", Point{8.5, 0}, 0.85},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NoseRatio(tt.nose, left, right); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("NoseRatio = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestNoseRatioDegenerateSpan(t *testing.T) {
	p := Point{3, 0}
	if got := NoseRatio(p, p, p); got != 0.5 {
		t.Errorf("degenerate NoseRatio = %f, want 0.5", got)
	}
}
