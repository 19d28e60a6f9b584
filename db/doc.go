// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database schema creation and election window checks.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

The schema includes:

  - voter: Voter identity and email
  - voter_embedding: Enrolled face embeddings (JSON vectors)
  - election: Election metadata, lifecycle state, and voting window
  - position: Contested positions per election
  - candidate: Candidates per position
  - otp_challenge: Active OTP challenge per (voter, election)
  - token_redemption: Single-use ledger for vote token nonces
  - ballot_envelope: Encrypted ballots, one per (election, voter)

# Relationships

	voter 1──* voter_embedding
	election 1──* position
	position 1──* candidate
	election 1──* otp_challenge
	election 1──* ballot_envelope

All foreign keys use ON DELETE CASCADE.

# Uniqueness Invariants

Two constraints carry the double-voting guarantees:

  - token_redemption.nonce is the primary key, so a vote token nonce can
    be redeemed at most once
  - ballot_envelope has UNIQUE(election_id, voter_id), so at most one
    envelope exists per voter per election

# Voting Gate

VotingGate checks whether an election is currently open for voting:

	gate := db.NewVotingGate(conn)
	if err := gate.VotingOpen(ctx, electionID); err != nil {
		// auth.ErrVotingClosed
	}
*/
package db
