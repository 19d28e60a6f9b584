// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- Voters
CREATE TABLE IF NOT EXISTS voter (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_voter_email ON voter(email);

-- Enrolled face embeddings (immutable outside re-enrollment)
CREATE TABLE IF NOT EXISTS voter_embedding (
    id TEXT PRIMARY KEY,
    voter_id TEXT NOT NULL REFERENCES voter(id) ON DELETE CASCADE,
    vector TEXT NOT NULL,
    enrolled_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_voter_embedding_voter ON voter_embedding(voter_id);

-- Elections
CREATE TABLE IF NOT EXISTS election (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'draft' CHECK (status IN ('draft', 'open', 'closed')),
    opens_at TIMESTAMP,
    closes_at TIMESTAMP,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_election_status ON election(status);

-- Contested positions
CREATE TABLE IF NOT EXISTS position (
    id TEXT PRIMARY KEY,
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    title TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_position_election ON position(election_id);

-- Candidates
CREATE TABLE IF NOT EXISTS candidate (
    id INTEGER PRIMARY KEY,
    position_id TEXT NOT NULL REFERENCES position(id) ON DELETE CASCADE,
    name TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_candidate_position ON candidate(position_id);

-- OTP challenges: one row per (voter, election), a new request replaces it.
-- Codes are stored as HMAC hashes, never plaintext.
CREATE TABLE IF NOT EXISTS otp_challenge (
    voter_id TEXT NOT NULL REFERENCES voter(id) ON DELETE CASCADE,
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    code_hash TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    expires_at TIMESTAMP NOT NULL,
    consumed_at TIMESTAMP,
    PRIMARY KEY (voter_id, election_id)
);

-- Single-use ledger for vote token nonces. The primary key makes a
-- second redemption a constraint violation.
CREATE TABLE IF NOT EXISTS token_redemption (
    nonce TEXT PRIMARY KEY,
    voter_id TEXT NOT NULL,
    election_id TEXT NOT NULL,
    redeemed_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_token_redemption_election ON token_redemption(election_id);

-- Encrypted ballots: at most one per (election, voter), DB-enforced.
CREATE TABLE IF NOT EXISTS ballot_envelope (
    id TEXT PRIMARY KEY,
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    voter_id TEXT NOT NULL REFERENCES voter(id) ON DELETE CASCADE,
    ciphertext TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (election_id, voter_id)
);

CREATE INDEX IF NOT EXISTS idx_ballot_envelope_election ON ballot_envelope(election_id);
`
