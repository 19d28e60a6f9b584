// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package otp implements the mailed one-time-code identity proof, the
camera-free alternative to the biometric path.

# Requesting a Code

	err := manager.Request(ctx, voterID, electionID)

Request replaces any prior challenge for the pair, stores the HMAC of a
fresh 6-digit code with a 5-minute TTL, and hands the plaintext to the
mail collaborator. Repeat requests inside the 60-second cool-down fail
with ErrResendTooSoon (the error carries the remaining wait), so the UI
can tell the voter when a resend becomes available instead of allowing
unlimited immediate resends. If delivery fails the challenge is dropped
so the voter can retry immediately.

# Verifying a Code

	err := manager.Verify(ctx, voterID, electionID, code)

Failure modes: ErrNotFound (no active challenge, or already consumed),
ErrExpired (past TTL, even with the right code), ErrInvalid (mismatch,
constant-time compare). Success consumes the challenge with a conditional
UPDATE, so the same code can never verify twice even under concurrent
requests.
*/
package otp
