// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ballotbox encrypts and persists ballots, and redeems the vote
token that authorizes each one.

# Wire Format

A sealed ballot is IV (12 bytes) || AUTH_TAG (16 bytes) || CIPHERTEXT,
AES-256-GCM under a per-election key derived with HKDF-SHA256 from the
master ballot key. Open rejects anything shorter than 28 bytes and fails
authentication on any tamper instead of mis-parsing. The plaintext is a
JSON object mapping position-id strings to candidate-id integers.

# Atomic Submission

Submit performs, in one transaction:

 1. token redemption - INSERT of the token nonce, where the primary key
    makes a double redemption a constraint violation
    (auth.ErrTokenAlreadyUsed)
 2. double-vote check plus envelope INSERT, with UNIQUE(election_id,
    voter_id) as the backstop (ErrAlreadyVoted)

So a token cannot be marked used without the ballot persisting, a ballot
cannot persist without an unused token, and concurrent submissions with
the same token or for the same voter yield exactly one envelope.
*/
package ballotbox
