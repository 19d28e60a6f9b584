// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package liveness

import "math"

// Point is a 2D facial landmark coordinate in frame space.
type Point struct {
	X float64
	Y float64
}

func dist(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// EyeAspectRatio computes the EAR over six eye landmarks ordered
// [left corner, upper-1, upper-2, right corner, lower-2, lower-1]:
//
//	EAR = (|p2-p6| + |p3-p5|) / (2 * |p1-p4|)
//
// The ratio collapses toward zero when the eye closes. A degenerate
// horizontal span returns 0 rather than dividing by zero.
func EyeAspectRatio(eye [6]Point) float64 {
	horizontal := dist(eye[0], eye[3])
	if horizontal == 0 {
		return 0
	}
	vertical1 := dist(eye[1], eye[5])
	vertical2 := dist(eye[2], eye[4])
	return (vertical1 + vertical2) / (2 * horizontal)
}

// MouthAspectRatio computes the MAR analogously over six mouth landmarks
// in the same ordering. The ratio rises when the mouth opens.
func MouthAspectRatio(mouth [6]Point) float64 {
	horizontal := dist(mouth[0], mouth[3])
	if horizontal == 0 {
		return 0
	}
	vertical1 := dist(mouth[1], mouth[5])
	vertical2 := dist(mouth[2], mouth[4])
	return (vertical1 + vertical2) / (2 * horizontal)
}

// NoseRatio returns the horizontal position of the nose tip relative to
// the left/right face boundary landmarks, 0 at the left boundary and 1 at
// the right. Near 0.5 means facing the camera; values outside the
// configured band mean the head is turned.
func NoseRatio(nose, faceLeft, faceRight Point) float64 {
	span := faceRight.X - faceLeft.X
	if span == 0 {
		return 0.5
	}
	return (nose.X - faceLeft.X) / span
}
