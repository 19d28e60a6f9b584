// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the BotoSafe election API server.

BotoSafe is a campus election platform. This service is its secure
vote-casting pipeline: it turns a liveness-checked face match or a mailed
one-time code into a single-use vote token, stores ballots encrypted, and
tallies them without exposing individual choices.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=botosafe.db TOKEN_SECRET=... BALLOT_KEY=... go run main.go

Or with flags:

	go run main.go -p 4117 -d botosafe.db -t sqlite

# Configuration

Required settings:

  - DATABASE_URL (-d): sqlite file path or PostgreSQL connection string
  - TOKEN_SECRET (--token-secret): HMAC secret for vote tokens and OTP hashes
  - BALLOT_KEY (--ballot-key): 64 hex chars, master key for ballot encryption

Optional settings:

  - PORT (-p): Server port (default: 4117)
  - DATABASE_TYPE (-t): sqlite (default) or postgres

A .env file in the working directory is loaded if present.

# Architecture

The server uses a handler-based architecture with dependency injection:

  - liveness: client-side challenge state machine (blink, mouth, head turn)
  - biometric: embedding match verification against enrollment
  - otp: mailed one-time-code identity proof
  - auth: single-use vote token issuance and verification
  - ballotbox: token redemption + encrypted ballot persistence, atomically
  - tally: aggregate per-candidate counts from decrypted envelopes
  - kiosk: client-side glue driving camera, liveness, and the verify API
  - handlers / router / middleware / models: HTTP surface
  - db: schema creation and the voting window gate
  - cliparse: configuration parsing
  - mailer: email delivery collaborator

See package documentation for each component.
*/
package main
