// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/jannurey/botosafe-sub000/auth"
	"github.com/jannurey/botosafe-sub000/ballotbox"
	"github.com/jannurey/botosafe-sub000/biometric"
	"github.com/jannurey/botosafe-sub000/cliparse"
	"github.com/jannurey/botosafe-sub000/db"
	"github.com/jannurey/botosafe-sub000/handlers"
	"github.com/jannurey/botosafe-sub000/mailer"
	"github.com/jannurey/botosafe-sub000/middleware"
	"github.com/jannurey/botosafe-sub000/otp"
	"github.com/jannurey/botosafe-sub000/tally"
)

// NewRouter wires the vote-casting pipeline and returns the configured
// mux. cfg must already be validated by cliparse.ParseFlags.
func NewRouter(conn *sql.DB, cfg cliparse.Config, sender mailer.Sender) (*http.ServeMux, error) {
	masterKey, err := cfg.BallotKey()
	if err != nil {
		return nil, err
	}

	// Initialize services
	gate := db.NewVotingGate(conn)
	tokens := auth.NewTokenService(cfg.TokenSecret, auth.DefaultTokenTTL, gate)
	verifier := biometric.NewVerifier(biometric.NewSQLStore(conn))
	otpManager := otp.NewManager(conn, cfg.TokenSecret, sender)
	box := ballotbox.NewBox(conn, tokens, masterKey)
	counter := tally.NewCounter(conn, masterKey)

	// Initialize handlers
	verifyHandler := handlers.NewVerifyHandler(verifier, tokens)
	otpHandler := handlers.NewOtpHandler(otpManager, tokens)
	ballotHandler := handlers.NewBallotHandler(box)
	tallyHandler := handlers.NewTallyHandler(counter)

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Identity proofs
	mux.HandleFunc("POST /elections/{id}/verify-face", middleware.WithLogging(verifyHandler.VerifyFace))
	mux.HandleFunc("POST /elections/{id}/otp/request", middleware.WithLogging(otpHandler.RequestOtp))
	mux.HandleFunc("POST /elections/{id}/otp/verify", middleware.WithLogging(otpHandler.VerifyOtp))

	// Ballot casting
	mux.HandleFunc("POST /elections/{id}/ballots", middleware.WithLogging(ballotHandler.SubmitBallot))

	// Reporting
	mux.HandleFunc("GET /elections/{id}/tally", middleware.WithLogging(tallyHandler.GetTally))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("botosafe API v1"))
	})

	return mux, nil
}
