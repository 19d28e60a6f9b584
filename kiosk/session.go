// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package kiosk

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jannurey/botosafe-sub000/biometric"
	"github.com/jannurey/botosafe-sub000/liveness"
)

var (
	ErrSendInFlight = errors.New("otp request already in flight")
	ErrGaveUp       = errors.New("liveness verification gave up after repeated failures")
)

// VerifyTimeout bounds one embedding verification round-trip. Past it the
// client treats the attempt as failed and resets instead of hanging.
const VerifyTimeout = 10 * time.Second

// DefaultMaxAttempts bounds how many times Run resets and retries the
// challenge before giving up.
const DefaultMaxAttempts = 3

// Camera is the scoped frame source. NextFrame blocks for the next frame;
// Close stops all tracks and must be safe to call on every exit path.
type Camera interface {
	NextFrame(ctx context.Context) (liveness.Frame, error)
	Close() error
}

// Embedder turns the Done-handoff frame into a face embedding.
type Embedder interface {
	Embed(f liveness.Frame) (biometric.Embedding, error)
}

// API is the slice of the election server the kiosk talks to.
type API interface {
	VerifyFace(ctx context.Context, electionID string, emb biometric.Embedding) (token string, err error)
	RequestOtp(ctx context.Context, electionID string) error
	VerifyOtp(ctx context.Context, electionID, code string) (token string, err error)
}

// RequestState is the explicit OTP send state owned by the session, in
// place of an ad hoc "send in flight" flag.
type RequestState int

const (
	StateIdle RequestState = iota
	StateSending
	StateSent
)

// Session drives one voter's verification flow on a kiosk: the camera
// loop feeding the liveness machine, the embedding handoff with a hard
// verification timeout, and the OTP fallback. The frame loop is
// single-threaded; only the OTP state is shared with UI goroutines.
type Session struct {
	cam         Camera
	embedder    Embedder
	api         API
	electionID  string
	cfg         liveness.Config
	maxAttempts int

	mu       sync.Mutex
	otpState RequestState

	// OnStep and OnRetryable surface progress and recoverable failures
	// to the UI. Nil callbacks are skipped.
	OnStep      func(liveness.Step)
	OnRetryable func(error)

	token    string
	attempts int
	lastErr  error
}

func NewSession(cam Camera, embedder Embedder, api API, electionID string) *Session {
	return &Session{
		cam:         cam,
		embedder:    embedder,
		api:         api,
		electionID:  electionID,
		cfg:         liveness.DefaultConfig(),
		maxAttempts: DefaultMaxAttempts,
	}
}

// Run executes the liveness challenge and face verification until a vote
// token is obtained, the attempt budget is spent, or ctx is canceled. The
// camera is released on every return path.
func (s *Session) Run(ctx context.Context) (string, error) {
	defer func() {
		// A close racing a pending frame grab is expected during
		// teardown; swallow it.
		_ = s.cam.Close()
	}()

	machine := liveness.NewMachine(s.cfg, time.Now())
	machine.OnStepChange = func(step liveness.Step) {
		if s.OnStep != nil {
			s.OnStep(step)
		}
	}
	machine.OnDone = func(f liveness.Frame) {
		s.handleDone(ctx, machine, f)
	}
	machine.OnError = func(err error) {
		s.retry(machine, err)
	}

	for s.token == "" {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if s.attempts >= s.maxAttempts {
			return "", fmt.Errorf("%w: %w", ErrGaveUp, s.lastErr)
		}

		frame, err := s.cam.NextFrame(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			return "", fmt.Errorf("camera failed: %w", err)
		}

		machine.Observe(frame, time.Now())
	}

	return s.token, nil
}

// handleDone runs inside the machine's Done handoff, so no later frame
// can start a second verification while this one is in flight.
func (s *Session) handleDone(ctx context.Context, machine *liveness.Machine, f liveness.Frame) {
	emb, err := s.embedder.Embed(f)
	if err != nil {
		s.retry(machine, fmt.Errorf("embedding capture failed: %w", err))
		return
	}

	vctx, cancel := context.WithTimeout(ctx, VerifyTimeout)
	defer cancel()

	token, err := s.api.VerifyFace(vctx, s.electionID, emb)
	if err != nil {
		s.retry(machine, err)
		return
	}

	s.token = token
}

// retry records a recoverable failure and drives the machine back to
// Blink with all progress cleared, per the reset policy.
func (s *Session) retry(machine *liveness.Machine, err error) {
	s.attempts++
	s.lastErr = err
	if s.OnRetryable != nil {
		s.OnRetryable(err)
	}
	machine.Reset(time.Now())
}

// RequestOtp asks the server to mail a one-time code. Duplicate calls
// while a send is in flight fail with ErrSendInFlight; an explicit
// user-triggered resend after the server cool-down is allowed.
func (s *Session) RequestOtp(ctx context.Context) error {
	s.mu.Lock()
	if s.otpState == StateSending {
		s.mu.Unlock()
		return ErrSendInFlight
	}
	s.otpState = StateSending
	s.mu.Unlock()

	err := s.api.RequestOtp(ctx, s.electionID)

	s.mu.Lock()
	if err != nil {
		s.otpState = StateIdle
	} else {
		s.otpState = StateSent
	}
	s.mu.Unlock()

	return err
}

// VerifyOtp exchanges a received code for a vote token.
func (s *Session) VerifyOtp(ctx context.Context, code string) (string, error) {
	return s.api.VerifyOtp(ctx, s.electionID, code)
}

// OtpState returns the current send state for UI affordances.
func (s *Session) OtpState() RequestState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.otpState
}
