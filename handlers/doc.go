// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the vote-casting API.

# Handler Types

Each handler is a struct holding its service dependencies:

  - VerifyHandler: face-match verification and token issuance
  - OtpHandler: one-time-code request, verification, token issuance
  - BallotHandler: token redemption and encrypted ballot submission
  - TallyHandler: aggregate tally retrieval

Handlers are created via constructor functions:

	verifyHandler := handlers.NewVerifyHandler(verifier, tokens)

# Vote Flow

Two identity proofs lead to the same single-use vote token:

	POST /elections/{id}/verify-face → token (proof: biometric)
	POST /elections/{id}/otp/request → code mailed to voter
	POST /elections/{id}/otp/verify  → token (proof: otp)

then exactly one ballot:

	POST /elections/{id}/ballots     → encrypted envelope stored
	GET  /elections/{id}/tally       → aggregate counts

# Identity

The voter id comes from the X-Session-Voter header installed by the
campus SSO proxy (see middleware.VoterID). The vote token travels in
X-Vote-Token and binds (voter, election, nonce, expiry).

# Status Codes

  - 401: no session, face mismatch, bad/expired token or code
  - 403: voting window closed
  - 409: embedding collision, token already used, already voted
  - 429: OTP resend inside the cool-down
*/
package handlers
