// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Election status constants
const (
	StatusDraft  = "draft"
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// Request types

type VerifyFaceRequest struct {
	Embedding []float64 `json:"embedding"`
}

type VerifyOtpRequest struct {
	Code string `json:"code"`
}

// position_id -> candidate_id; positions the voter skips are absent
type SubmitBallotRequest struct {
	Choices map[string]int `json:"choices"`
}

// Response types

type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type RequestOtpResponse struct {
	Message string `json:"message"`
}

type SubmitBallotResponse struct {
	EnvelopeID string `json:"envelope_id"`
	Message    string `json:"message"`
}

type TallyResponse struct {
	ElectionID string                 `json:"election_id"`
	Counts     map[int]int            `json:"counts"`
	ByPosition map[string]map[int]int `json:"by_position"`
	Ballots    int                    `json:"ballots"`
	Skipped    int                    `json:"skipped"`
}

// Domain types

type Voter struct {
	ID        string    `json:"id"`
	Email     string    `json:"-"` // Never expose in JSON
	CreatedAt time.Time `json:"created_at"`
}

type Election struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Status    string     `json:"status"`
	OpensAt   *time.Time `json:"opens_at,omitempty"`
	ClosesAt  *time.Time `json:"closes_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

type Position struct {
	ID         string `json:"id"`
	ElectionID string `json:"election_id"`
	Title      string `json:"title"`
}

type Candidate struct {
	ID         int    `json:"id"`
	PositionID string `json:"position_id"`
	Name       string `json:"name"`
}

type BallotEnvelope struct {
	ID         string    `json:"id"`
	ElectionID string    `json:"election_id"`
	VoterID    string    `json:"-"` // Never expose in JSON
	Ciphertext string    `json:"-"` // Never expose in JSON
	CreatedAt  time.Time `json:"created_at"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
