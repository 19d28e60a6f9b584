// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 4117)
  - DatabaseURL: sqlite path or PostgreSQL connection string (required)
  - DatabaseType: "sqlite" (default) or "postgres"
  - TokenSecret: HMAC secret for vote tokens and OTP hashes (required)
  - BallotKeyHex: 64 hex chars, master ballot encryption key (required)

# CLI Flags

	-p             Server port
	-d             Database URL
	-t             Database type
	--token-secret Vote token HMAC secret
	--ballot-key   Ballot master key

# Environment Variables

Flags fall back to environment variables:

	PORT          → -p
	DATABASE_URL  → -d
	DATABASE_TYPE → -t
	TOKEN_SECRET  → --token-secret
	BALLOT_KEY    → --ballot-key

CLI flags take precedence over environment variables.

# Validation

ParseFlags returns an error if required values are missing or if
BALLOT_KEY does not decode to exactly 32 bytes.
*/
package cliparse
