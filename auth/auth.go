// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrTokenInvalid     = errors.New("invalid vote token")
	ErrTokenExpired     = errors.New("vote token expired")
	ErrTokenAlreadyUsed = errors.New("vote token already used")
	ErrVotingClosed     = errors.New("voting window closed")
)

// ProofKind records which identity proof backed a vote token.
type ProofKind string

const (
	ProofBiometric ProofKind = "biometric"
	ProofOTP       ProofKind = "otp"
)

// DefaultTokenTTL bounds how long an issued vote token stays redeemable.
const DefaultTokenTTL = 5 * time.Minute

// Claims is the payload sealed inside a vote token. It binds the token to
// one voter and one election and carries a single-use nonce. It never
// contains anything about the ballot contents.
type Claims struct {
	VoterID    string    `json:"voter_id"`
	ElectionID string    `json:"election_id"`
	Proof      ProofKind `json:"proof"`
	Nonce      string    `json:"nonce"`
	IssuedAt   int64     `json:"iat"`
	ExpiresAt  int64     `json:"exp"`
}

// Expiry returns the expiration time of the claims.
func (c Claims) Expiry() time.Time {
	return time.Unix(c.ExpiresAt, 0)
}

// Gate reports whether an election currently accepts ballots. Issue
// consults it so no token exists outside the voting window.
type Gate interface {
	VotingOpen(ctx context.Context, electionID string) error
}

// TokenService mints and verifies sealed vote tokens. A token is
// base64url(JSON claims) + "." + base64url(HMAC-SHA256 over the payload),
// so the client cannot forge or alter one. Single-use enforcement happens
// at redemption time against the token_redemption ledger, not here.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	gate   Gate
	now    func() time.Time
}

func NewTokenService(secret string, ttl time.Duration, gate Gate) *TokenService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		gate:   gate,
		now:    time.Now,
	}
}

// WithClock overrides the service clock. Test use only.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

// Issue converts a successful identity proof into a short-lived vote token
// for (voterID, electionID). Fails with ErrVotingClosed when the election
// is not accepting ballots.
func (s *TokenService) Issue(ctx context.Context, voterID, electionID string, proof ProofKind) (string, Claims, error) {
	if s.gate != nil {
		if err := s.gate.VotingOpen(ctx, electionID); err != nil {
			return "", Claims{}, err
		}
	}

	nonce, err := GenerateID(16)
	if err != nil {
		return "", Claims{}, fmt.Errorf("failed to generate token nonce: %w", err)
	}

	now := s.now()
	claims := Claims{
		VoterID:    voterID,
		ElectionID: electionID,
		Proof:      proof,
		Nonce:      nonce,
		IssuedAt:   now.Unix(),
		ExpiresAt:  now.Add(s.ttl).Unix(),
	}

	payload, err := json.Marshal(claims)
	if err != nil {
		return "", Claims{}, fmt.Errorf("failed to encode token claims: %w", err)
	}

	token := encodeSegment(payload) + "." + encodeSegment(s.sign(payload))
	return token, claims, nil
}

// Parse verifies the token's format, MAC, and expiry and returns its
// claims. It does not check single-use; that belongs to redemption.
func (s *TokenService) Parse(token string) (Claims, error) {
	payloadPart, macPart, ok := strings.Cut(token, ".")
	if !ok {
		return Claims{}, ErrTokenInvalid
	}

	payload, err := decodeSegment(payloadPart)
	if err != nil {
		return Claims{}, ErrTokenInvalid
	}
	mac, err := decodeSegment(macPart)
	if err != nil {
		return Claims{}, ErrTokenInvalid
	}

	if !hmac.Equal(mac, s.sign(payload)) {
		return Claims{}, ErrTokenInvalid
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return Claims{}, ErrTokenInvalid
	}
	if claims.VoterID == "" || claims.ElectionID == "" || claims.Nonce == "" {
		return Claims{}, ErrTokenInvalid
	}

	if s.now().After(claims.Expiry()) {
		return Claims{}, ErrTokenExpired
	}

	return claims, nil
}

func (s *TokenService) sign(payload []byte) []byte {
	h := hmac.New(sha256.New, s.secret)
	h.Write(payload)
	return h.Sum(nil)
}

func encodeSegment(b []byte) string {
	return strings.TrimRight(base64.URLEncoding.EncodeToString(b), "=")
}

func decodeSegment(s string) ([]byte, error) {
	if pad := len(s) % 4; pad != 0 {
		s += strings.Repeat("=", 4-pad)
	}
	return base64.URLEncoding.DecodeString(s)
}

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}
