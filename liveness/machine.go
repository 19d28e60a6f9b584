// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package liveness

import (
	"errors"
	"time"
)

// ErrSessionTimeout is reported through OnError when a machine fails to
// reach Done within the configured session timeout. The machine freezes
// until Reset.
var ErrSessionTimeout = errors.New("liveness session timed out")

// Step is one stage of the sequential liveness challenge.
type Step int

const (
	StepBlink Step = iota
	StepMouthOpen
	StepHeadTurn
	StepDone
)

func (s Step) String() string {
	switch s {
	case StepBlink:
		return "blink"
	case StepMouthOpen:
		return "mouth_open"
	case StepHeadTurn:
		return "head_turn"
	case StepDone:
		return "done"
	default:
		return "unknown"
	}
}

// Frame is one camera frame reduced to the landmark geometry the machine
// needs, plus the raw image bytes so the Done handoff can feed embedding
// capture without a re-grab.
type Frame struct {
	FaceDetected bool
	LeftEye      [6]Point
	RightEye     [6]Point
	Mouth        [6]Point
	NoseTip      Point
	FaceLeft     Point
	FaceRight    Point
	Image        []byte
}

// Config holds the challenge thresholds. The zero value is not usable;
// start from DefaultConfig.
type Config struct {
	BlinkEARThreshold float64       // blink registers below this EAR
	MouthMARThreshold float64       // open mouth registers above this MAR
	TurnRatioLow      float64       // head turn registers below this nose ratio...
	TurnRatioHigh     float64       // ...or above this one
	DetectInterval    time.Duration // minimum spacing between processed frames
	SessionTimeout    time.Duration // max time to reach Done before freezing
}

func DefaultConfig() Config {
	return Config{
		BlinkEARThreshold: 0.30,
		MouthMARThreshold: 0.60,
		TurnRatioLow:      0.35,
		TurnRatioHigh:     0.65,
		DetectInterval:    100 * time.Millisecond,
		SessionTimeout:    60 * time.Second,
	}
}

// Machine drives the Blink → MouthOpen → HeadTurn → Done challenge.
//
// It is deliberately not safe for concurrent use: the contract is a
// single cooperative frame loop feeding Observe, matching how a camera
// callback schedules detection. The processing flag keeps a re-entrant
// call (e.g. from inside the OnDone handoff) from interleaving with an
// observation already in flight.
type Machine struct {
	cfg Config

	step       Step
	blinked    bool
	mouthMoved bool
	turned     bool

	processing bool
	frozen     bool

	startedAt     time.Time
	lastProcessed time.Time

	// UI surface. Nil callbacks are skipped.
	OnStepChange func(Step)
	OnDone       func(Frame)
	OnError      func(error)
}

// NewMachine returns a machine at StepBlink. now anchors the session
// timeout clock.
func NewMachine(cfg Config, now time.Time) *Machine {
	return &Machine{cfg: cfg, step: StepBlink, startedAt: now}
}

// Step returns the current challenge step.
func (m *Machine) Step() Step {
	return m.step
}

// Satisfied reports the per-step completion flags in challenge order.
func (m *Machine) Satisfied() (blink, mouth, turn bool) {
	return m.blinked, m.mouthMoved, m.turned
}

// Observe feeds one frame to the machine. Frames arriving while a prior
// observation is still processing, closer together than DetectInterval,
// or after the machine froze (Done or timeout) are dropped.
func (m *Machine) Observe(f Frame, now time.Time) {
	if m.frozen || m.processing {
		return
	}
	m.processing = true
	defer func() { m.processing = false }()

	if !m.lastProcessed.IsZero() && now.Sub(m.lastProcessed) < m.cfg.DetectInterval {
		return
	}

	if m.cfg.SessionTimeout > 0 && now.Sub(m.startedAt) > m.cfg.SessionTimeout {
		m.frozen = true
		if m.OnError != nil {
			m.OnError(ErrSessionTimeout)
		}
		return
	}

	m.lastProcessed = now

	// No face in frame: stay in the current step, no penalty.
	if !f.FaceDetected {
		return
	}

	switch m.step {
	case StepBlink:
		ear := (EyeAspectRatio(f.LeftEye) + EyeAspectRatio(f.RightEye)) / 2
		if ear < m.cfg.BlinkEARThreshold {
			m.blinked = true
			m.advance(StepMouthOpen)
		}
	case StepMouthOpen:
		if MouthAspectRatio(f.Mouth) > m.cfg.MouthMARThreshold {
			m.mouthMoved = true
			m.advance(StepHeadTurn)
		}
	case StepHeadTurn:
		ratio := NoseRatio(f.NoseTip, f.FaceLeft, f.FaceRight)
		if ratio < m.cfg.TurnRatioLow || ratio > m.cfg.TurnRatioHigh {
			m.turned = true
			// Freeze before the handoff so no later frame can race the
			// embedding capture triggered by this one.
			m.frozen = true
			m.advance(StepDone)
			if m.OnDone != nil {
				m.OnDone(f)
			}
		}
	}
}

func (m *Machine) advance(next Step) {
	m.step = next
	if m.OnStepChange != nil {
		m.OnStepChange(next)
	}
}

// Reset drives the machine back to StepBlink with every flag cleared and
// observation re-armed. Downstream failures (embedding capture,
// verification, timeout) must call this rather than retrying in place, so
// no stale partial progress survives.
func (m *Machine) Reset(now time.Time) {
	m.step = StepBlink
	m.blinked = false
	m.mouthMoved = false
	m.turned = false
	m.frozen = false
	m.processing = false
	m.startedAt = now
	m.lastProcessed = time.Time{}
	if m.OnStepChange != nil {
		m.OnStepChange(StepBlink)
	}
}

// Frozen reports whether the machine stopped observing (Done reached or
// session timed out).
func (m *Machine) Frozen() bool {
	return m.frozen
}
