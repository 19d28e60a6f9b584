// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - VerifyFaceRequest: embedding ([]float64)
  - VerifyOtpRequest: code
  - SubmitBallotRequest: choices (map of position id → candidate id)

# Response Types

Types for JSON responses:

  - TokenResponse: token, expires_at
  - RequestOtpResponse: message
  - SubmitBallotResponse: envelope_id, message
  - TallyResponse: counts, by_position, ballots, skipped
  - ErrorResponse: error, message

# Domain Types

Internal data structures:

  - Voter: voter identity (email never serialized)
  - Election: metadata, lifecycle state, voting window
  - Position, Candidate: contest structure
  - BallotEnvelope: encrypted ballot metadata (ciphertext and voter
    linkage never serialized)

# Constants

Election status values:

	StatusDraft  = "draft"
	StatusOpen   = "open"
	StatusClosed = "closed"
*/
package models
