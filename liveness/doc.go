// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package liveness implements the client-side biometric challenge state
machine that must complete before any face-match attempt runs.

# Challenge Sequence

The machine walks a fixed, unskippable order:

	Blink → MouthOpen → HeadTurn → Done

Each frame of camera geometry is fed to Observe. A blink registers when
the eye aspect ratio drops below the threshold, an open mouth when the
mouth aspect ratio rises above it, and a head turn when the nose tip
moves outside the center band between the face boundary landmarks.

# Frame Loop Contract

The machine is single-threaded by contract: it belongs to one cooperative
frame loop (a camera callback). Observe drops frames while a previous
observation is processing, throttles to DetectInterval, and freezes the
machine the moment Done is reached, so the handoff to embedding capture
never races a later frame.

# Reset Policy

Any downstream failure must call Reset, which returns to Blink with all
completion flags cleared and observation re-armed. Retrying without Reset
would let stale partial progress (a satisfied MouthOpen from the previous
attempt) leak into the next one.

# Session Timeout

A machine that fails to reach Done within SessionTimeout reports
ErrSessionTimeout through OnError and freezes until Reset.
*/
package liveness
