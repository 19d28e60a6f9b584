// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jannurey/botosafe-sub000/auth"
)

// VotingGate answers whether an election currently accepts ballots. The
// token service consults it before issuing a vote token.
type VotingGate struct {
	DB  *sql.DB
	Now func() time.Time
}

func NewVotingGate(db *sql.DB) *VotingGate {
	return &VotingGate{DB: db, Now: time.Now}
}

// VotingOpen returns auth.ErrVotingClosed unless the election exists, is in
// the open state, and the current time falls inside its voting window.
func (g *VotingGate) VotingOpen(ctx context.Context, electionID string) error {
	var status string
	var opensAt, closesAt sql.NullTime
	err := g.DB.QueryRowContext(ctx, `
		SELECT status, opens_at, closes_at FROM election WHERE id = $1
	`, electionID).Scan(&status, &opensAt, &closesAt)

	if err == sql.ErrNoRows {
		return auth.ErrVotingClosed
	}
	if err != nil {
		return fmt.Errorf("failed to query election: %w", err)
	}

	if status != "open" {
		return auth.ErrVotingClosed
	}

	now := g.Now()
	if opensAt.Valid && now.Before(opensAt.Time) {
		return auth.ErrVotingClosed
	}
	if closesAt.Valid && now.After(closesAt.Time) {
		return auth.ErrVotingClosed
	}

	return nil
}
