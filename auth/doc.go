// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth mints and verifies single-use vote authorization tokens.

The token service is the one choke point where any identity proof
(biometric match or OTP) becomes permission to cast exactly one ballot.

# Vote Tokens

A token is a sealed credential: URL-safe base64 of the JSON claims,
a dot, and URL-safe base64 of an HMAC-SHA256 over the claims bytes.

	token, claims, err := svc.Issue(ctx, voterID, electionID, auth.ProofBiometric)

Claims bind the token to (voter, election) and carry a random single-use
nonce plus a short expiry (default 5 minutes). Nothing in the payload
reveals how the voter will vote.

# Verification

	claims, err := svc.Parse(token)

Parse fails with ErrTokenInvalid on a bad format or MAC and with
ErrTokenExpired past the TTL. Single-use enforcement is intentionally NOT
here: redemption inserts the nonce into the token_redemption table inside
the same transaction that stores the ballot, so "used" can never be marked
without the ballot actually persisting. See package ballotbox.

# Voting Window

Issue consults a Gate before minting. A closed or out-of-window election
fails with ErrVotingClosed and no token exists.

# ID Generation

Random hex IDs for database records:

	id, err := auth.GenerateID(16)  // 32 hex characters
*/
package auth
