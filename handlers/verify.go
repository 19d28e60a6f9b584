// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jannurey/botosafe-sub000/auth"
	"github.com/jannurey/botosafe-sub000/biometric"
	"github.com/jannurey/botosafe-sub000/middleware"
	"github.com/jannurey/botosafe-sub000/models"
)

type VerifyHandler struct {
	verifier *biometric.Verifier
	tokens   *auth.TokenService
}

func NewVerifyHandler(verifier *biometric.Verifier, tokens *auth.TokenService) *VerifyHandler {
	return &VerifyHandler{verifier: verifier, tokens: tokens}
}

// VerifyFace handles POST /elections/:id/verify-face
// Matches the captured embedding against the session voter's enrollment
// and, on success, issues a vote token with proof kind biometric.
func (h *VerifyHandler) VerifyFace(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election id is required")
		return
	}

	voterID, err := middleware.VoterID(r)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "No authenticated session")
		return
	}

	var req models.VerifyFaceRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	match, err := h.verifier.Verify(r.Context(), voterID, biometric.Embedding(req.Embedding))
	switch {
	case errors.Is(err, biometric.ErrNoFaceCaptured):
		middleware.ErrorResponse(w, http.StatusBadRequest, "No face captured, scan again")
		return
	case errors.Is(err, biometric.ErrEmbeddingCollision):
		// Possible security incident: the camera is seeing someone else.
		// Logged by the verifier; answer with a distinct code so the UI
		// does not present a plain retry.
		middleware.ErrorResponse(w, http.StatusConflict, "Face matched a different enrolled voter")
		return
	case errors.Is(err, biometric.ErrEmbeddingMismatch):
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Face did not match enrollment, scan again")
		return
	case err != nil:
		slog.Error("face verification failed", "error", err, "election_id", electionID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Verification error")
		return
	}

	token, claims, err := h.tokens.Issue(r.Context(), voterID, electionID, auth.ProofBiometric)
	if errors.Is(err, auth.ErrVotingClosed) {
		middleware.ErrorResponse(w, http.StatusForbidden, "Voting is not open for this election")
		return
	}
	if err != nil {
		slog.Error("failed to issue vote token", "error", err, "election_id", electionID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to issue vote token")
		return
	}

	slog.Info("vote token issued",
		"election_id", electionID,
		"proof", auth.ProofBiometric,
		"distance", match.Distance,
	)

	middleware.JSONResponse(w, http.StatusOK, models.TokenResponse{
		Token:     token,
		ExpiresAt: claims.Expiry(),
	})
}
