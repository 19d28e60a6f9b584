// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballotbox

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jannurey/botosafe-sub000/auth"
)

var (
	ErrAlreadyVoted  = errors.New("a ballot already exists for this voter and election")
	ErrInvalidChoice = errors.New("ballot names an unknown position or candidate")
)

// Box validates a vote token and persists the encrypted ballot. Token
// redemption, the double-vote check, and the envelope insert run in one
// transaction, with the nonce primary key and the (election, voter)
// UNIQUE constraint carrying the invariants under concurrency: a token is
// never burned unless the envelope commits, and an envelope is never
// stored without redeeming an unused token.
type Box struct {
	db     *sql.DB
	tokens *auth.TokenService
	master []byte
	now    func() time.Time
}

func NewBox(db *sql.DB, tokens *auth.TokenService, masterKey []byte) *Box {
	return &Box{db: db, tokens: tokens, master: masterKey, now: time.Now}
}

// Submit redeems the token and stores the voter's choices encrypted.
// choices maps position id to the chosen candidate id; skipped positions
// are simply absent. Of any number of concurrent submissions with the
// same token exactly one succeeds; the rest fail with
// auth.ErrTokenAlreadyUsed. A voter who already has an envelope for the
// election fails with ErrAlreadyVoted.
func (b *Box) Submit(ctx context.Context, token string, choices map[string]int) (string, error) {
	claims, err := b.tokens.Parse(token)
	if err != nil {
		return "", err
	}

	if len(choices) == 0 {
		return "", ErrInvalidChoice
	}
	if err := b.validateChoices(ctx, claims.ElectionID, choices); err != nil {
		return "", err
	}

	plaintext, err := json.Marshal(choices)
	if err != nil {
		return "", fmt.Errorf("failed to encode ballot: %w", err)
	}
	key, err := DeriveElectionKey(b.master, claims.ElectionID)
	if err != nil {
		return "", err
	}
	sealed, err := Seal(key, plaintext)
	if err != nil {
		return "", fmt.Errorf("failed to seal ballot: %w", err)
	}

	envelopeID := uuid.NewString()
	now := b.now()

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Redeem the token: the nonce primary key turns a second redemption
	// into a constraint violation.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO token_redemption (nonce, voter_id, election_id, redeemed_at)
		VALUES ($1, $2, $3, $4)
	`, claims.Nonce, claims.VoterID, claims.ElectionID, now)
	if err != nil {
		if isUniqueViolation(err) {
			return "", auth.ErrTokenAlreadyUsed
		}
		return "", fmt.Errorf("failed to redeem token: %w", err)
	}

	// Double-vote check inside the same transaction, with the UNIQUE
	// constraint as the backstop for concurrent submitters.
	var exists bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM ballot_envelope
			WHERE election_id = $1 AND voter_id = $2
		)
	`, claims.ElectionID, claims.VoterID).Scan(&exists)
	if err != nil {
		return "", fmt.Errorf("failed to check prior ballot: %w", err)
	}
	if exists {
		return "", ErrAlreadyVoted
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ballot_envelope (id, election_id, voter_id, ciphertext, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, envelopeID, claims.ElectionID, claims.VoterID,
		base64.StdEncoding.EncodeToString(sealed), now)
	if err != nil {
		if isUniqueViolation(err) {
			return "", ErrAlreadyVoted
		}
		return "", fmt.Errorf("failed to store ballot envelope: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit ballot: %w", err)
	}

	slog.Info("ballot submitted",
		"election_id", claims.ElectionID,
		"envelope_id", envelopeID,
		"proof", claims.Proof,
	)
	return envelopeID, nil
}

// validateChoices checks every (position, candidate) pair against the
// election's registered contests before anything is encrypted.
func (b *Box) validateChoices(ctx context.Context, electionID string, choices map[string]int) error {
	rows, err := b.db.QueryContext(ctx, `
		SELECT p.id, c.id
		FROM position p
		JOIN candidate c ON c.position_id = p.id
		WHERE p.election_id = $1
	`, electionID)
	if err != nil {
		return fmt.Errorf("failed to query contests: %w", err)
	}
	defer rows.Close()

	valid := make(map[string]map[int]bool)
	for rows.Next() {
		var posID string
		var candID int
		if err := rows.Scan(&posID, &candID); err != nil {
			return fmt.Errorf("failed to scan contest: %w", err)
		}
		if valid[posID] == nil {
			valid[posID] = make(map[int]bool)
		}
		valid[posID][candID] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read contests: %w", err)
	}

	for posID, candID := range choices {
		if !valid[posID][candID] {
			return ErrInvalidChoice
		}
	}
	return nil
}

// isUniqueViolation matches the uniqueness errors of both supported
// drivers (modernc sqlite and lib/pq).
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}
