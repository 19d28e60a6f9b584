// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jannurey/botosafe-sub000/auth"
	"github.com/jannurey/botosafe-sub000/ballotbox"
	"github.com/jannurey/botosafe-sub000/middleware"
	"github.com/jannurey/botosafe-sub000/models"
)

type BallotHandler struct {
	box *ballotbox.Box
}

func NewBallotHandler(box *ballotbox.Box) *BallotHandler {
	return &BallotHandler{box: box}
}

// SubmitBallot handles POST /elections/:id/ballots
// The vote token arrives in the X-Vote-Token header; its claims, not the
// URL, decide which voter and election the ballot belongs to. All token
// and double-vote failures are terminal for this attempt - retrying
// requires a fresh identity proof.
func (h *BallotHandler) SubmitBallot(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Vote-Token")
	if token == "" {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "X-Vote-Token header required")
		return
	}

	var req models.SubmitBallotRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if len(req.Choices) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "choices cannot be empty")
		return
	}

	envelopeID, err := h.box.Submit(r.Context(), token, req.Choices)
	switch {
	case errors.Is(err, auth.ErrTokenInvalid):
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid vote token")
		return
	case errors.Is(err, auth.ErrTokenExpired):
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Vote token expired")
		return
	case errors.Is(err, auth.ErrTokenAlreadyUsed):
		middleware.ErrorResponse(w, http.StatusConflict, "Vote token already used")
		return
	case errors.Is(err, ballotbox.ErrAlreadyVoted):
		middleware.ErrorResponse(w, http.StatusConflict, "A ballot was already cast for this election")
		return
	case errors.Is(err, ballotbox.ErrInvalidChoice):
		middleware.ErrorResponse(w, http.StatusBadRequest, "Unknown position or candidate in ballot")
		return
	case err != nil:
		slog.Error("failed to submit ballot", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to submit ballot")
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.SubmitBallotResponse{
		EnvelopeID: envelopeID,
		Message:    "Ballot submitted successfully",
	})
}
