// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package mailer defines the email delivery collaborator used to hand
// one-time codes to voters. Actual SMTP delivery belongs to the hosting
// environment; this package carries the interface, a dev implementation
// that only logs, and a recording fake for tests.
package mailer

import (
	"context"
	"log/slog"
	"sync"
)

// Sender delivers a one-time code to a voter's email address.
type Sender interface {
	Send(ctx context.Context, toEmail, code string) error
}

// LogSender logs deliveries instead of sending them. Dev use only; it
// never logs the code itself.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, toEmail, code string) error {
	slog.Info("otp email dispatched", "to", toEmail, "code_len", len(code))
	return nil
}

// Delivery is one recorded send.
type Delivery struct {
	ToEmail string
	Code    string
}

// Recorder captures deliveries for assertions in tests.
type Recorder struct {
	mu   sync.Mutex
	sent []Delivery

	// FailNext makes the next Send return this error once.
	FailNext error
}

func (r *Recorder) Send(ctx context.Context, toEmail, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailNext != nil {
		err := r.FailNext
		r.FailNext = nil
		return err
	}
	r.sent = append(r.sent, Delivery{ToEmail: toEmail, Code: code})
	return nil
}

// Sent returns a copy of the recorded deliveries.
func (r *Recorder) Sent() []Delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Delivery, len(r.sent))
	copy(out, r.sent)
	return out
}
