// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package otp

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/jannurey/botosafe-sub000/mailer"
)

var (
	ErrExpired       = errors.New("otp code expired")
	ErrInvalid       = errors.New("otp code invalid")
	ErrNotFound      = errors.New("no active otp challenge")
	ErrResendTooSoon = errors.New("otp resend not allowed yet")
)

const (
	DefaultTTL      = 5 * time.Minute
	DefaultCooldown = 60 * time.Second
	CodeLength      = 6
)

// ResendTooSoonError carries how long the caller must wait before a
// resend is allowed. It satisfies errors.Is(err, ErrResendTooSoon).
type ResendTooSoonError struct {
	RetryAfter time.Duration
}

func (e *ResendTooSoonError) Error() string {
	return fmt.Sprintf("otp resend not allowed for another %s", e.RetryAfter.Round(time.Second))
}

func (e *ResendTooSoonError) Is(target error) bool {
	return target == ErrResendTooSoon
}

// Manager issues and verifies one-time codes as the camera-free identity
// proof. At most one active challenge exists per (voter, election);
// requesting a new one supersedes the old. Codes are stored as
// HMAC-SHA256 hashes only.
type Manager struct {
	db       *sql.DB
	secret   []byte
	sender   mailer.Sender
	ttl      time.Duration
	cooldown time.Duration
	now      func() time.Time
}

func NewManager(db *sql.DB, secret string, sender mailer.Sender) *Manager {
	return &Manager{
		db:       db,
		secret:   []byte(secret),
		sender:   sender,
		ttl:      DefaultTTL,
		cooldown: DefaultCooldown,
		now:      time.Now,
	}
}

// WithClock overrides the manager clock. Test use only.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Request supersedes any existing challenge for (voterID, electionID),
// stores a fresh 6-digit code, and hands the plaintext to the mail
// collaborator. A request inside the previous challenge's cool-down fails
// with a ResendTooSoonError carrying the remaining wait.
func (m *Manager) Request(ctx context.Context, voterID, electionID string) error {
	now := m.now()

	var createdAt time.Time
	var consumedAt sql.NullTime
	err := m.db.QueryRowContext(ctx, `
		SELECT created_at, consumed_at FROM otp_challenge
		WHERE voter_id = $1 AND election_id = $2
	`, voterID, electionID).Scan(&createdAt, &consumedAt)

	switch {
	case err == sql.ErrNoRows:
		// First request for this pair.
	case err != nil:
		return fmt.Errorf("failed to query otp challenge: %w", err)
	default:
		if !consumedAt.Valid {
			if wait := m.cooldown - now.Sub(createdAt); wait > 0 {
				return &ResendTooSoonError{RetryAfter: wait}
			}
		}
	}

	var email string
	err = m.db.QueryRowContext(ctx, `SELECT email FROM voter WHERE id = $1`, voterID).Scan(&email)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to query voter email: %w", err)
	}

	code, err := generateCode(CodeLength)
	if err != nil {
		return fmt.Errorf("failed to generate otp code: %w", err)
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Supersede: exactly one active challenge per (voter, election).
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM otp_challenge WHERE voter_id = $1 AND election_id = $2
	`, voterID, electionID); err != nil {
		return fmt.Errorf("failed to supersede otp challenge: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO otp_challenge (voter_id, election_id, code_hash, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`, voterID, electionID, m.hash(code), now, now.Add(m.ttl)); err != nil {
		return fmt.Errorf("failed to store otp challenge: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit otp challenge: %w", err)
	}

	if err := m.sender.Send(ctx, email, code); err != nil {
		// Delivery failed; drop the challenge so the voter is not locked
		// into a cool-down for a code that never arrived.
		if _, delErr := m.db.ExecContext(ctx, `
			DELETE FROM otp_challenge WHERE voter_id = $1 AND election_id = $2
		`, voterID, electionID); delErr != nil {
			slog.Error("failed to drop undelivered otp challenge", "error", delErr, "voter_id", voterID)
		}
		return fmt.Errorf("failed to deliver otp code: %w", err)
	}

	slog.Info("otp challenge issued", "voter_id", voterID, "election_id", electionID)
	return nil
}

// Verify checks a submitted code against the active challenge and marks
// it consumed. A consumed or missing challenge fails with ErrNotFound, a
// past-TTL one with ErrExpired even if the code is correct, and a
// mismatch with ErrInvalid. A code can never verify twice: consumption is
// a conditional UPDATE on consumed_at IS NULL.
func (m *Manager) Verify(ctx context.Context, voterID, electionID, code string) error {
	var codeHash string
	var expiresAt time.Time
	var consumedAt sql.NullTime
	err := m.db.QueryRowContext(ctx, `
		SELECT code_hash, expires_at, consumed_at FROM otp_challenge
		WHERE voter_id = $1 AND election_id = $2
	`, voterID, electionID).Scan(&codeHash, &expiresAt, &consumedAt)

	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to query otp challenge: %w", err)
	}

	if consumedAt.Valid {
		return ErrNotFound
	}
	if m.now().After(expiresAt) {
		return ErrExpired
	}
	if !hmac.Equal([]byte(codeHash), []byte(m.hash(code))) {
		return ErrInvalid
	}

	res, err := m.db.ExecContext(ctx, `
		UPDATE otp_challenge SET consumed_at = $1
		WHERE voter_id = $2 AND election_id = $3 AND consumed_at IS NULL
	`, m.now(), voterID, electionID)
	if err != nil {
		return fmt.Errorf("failed to consume otp challenge: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to consume otp challenge: %w", err)
	}
	if affected == 0 {
		// Lost the race to a concurrent verification.
		return ErrNotFound
	}

	slog.Info("otp challenge verified", "voter_id", voterID, "election_id", electionID)
	return nil
}

func (m *Manager) hash(code string) string {
	h := hmac.New(sha256.New, m.secret)
	h.Write([]byte(code))
	return hex.EncodeToString(h.Sum(nil))
}

// generateCode returns a fixed-length numeric code with uniform digits.
func generateCode(length int) (string, error) {
	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}
