// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the BotoSafe vote-casting API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux, err := router.NewRouter(conn, cfg, sender)

# Endpoints

Health:

	GET /health

Identity proofs (require X-Session-Voter from the SSO proxy):

	POST /elections/{id}/verify-face - Match embedding, issue vote token
	POST /elections/{id}/otp/request - Mail a one-time code
	POST /elections/{id}/otp/verify  - Verify code, issue vote token

Ballot casting (requires X-Vote-Token):

	POST /elections/{id}/ballots - Redeem token, store encrypted ballot

Reporting (public, aggregate only):

	GET /elections/{id}/tally - Per-candidate counts

# Service Wiring

The router builds the service graph with dependency injection: the voting
gate and token service, the embedding verifier over the SQL store, the
OTP manager with the mail collaborator, the ballot box, and the tally
counter. Handlers receive only the services they use.
*/
package router
