// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jannurey/botosafe-sub000/auth"
	"github.com/jannurey/botosafe-sub000/middleware"
	"github.com/jannurey/botosafe-sub000/models"
	"github.com/jannurey/botosafe-sub000/otp"
)

type OtpHandler struct {
	manager *otp.Manager
	tokens  *auth.TokenService
}

func NewOtpHandler(manager *otp.Manager, tokens *auth.TokenService) *OtpHandler {
	return &OtpHandler{manager: manager, tokens: tokens}
}

// RequestOtp handles POST /elections/:id/otp/request
func (h *OtpHandler) RequestOtp(w http.ResponseWriter, r *http.Request) {
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

	err = h.manager.Request(r.Context(), voterID, electionID)
	var tooSoon *otp.ResendTooSoonError
	switch {
	case errors.As(err, &tooSoon):
		// Tell the voter when a resend becomes possible instead of
		// allowing unlimited immediate resends.
		middleware.ErrorResponse(w, http.StatusTooManyRequests,
			"A code was already sent, resend available "+humanize.Time(time.Now().Add(tooSoon.RetryAfter)))
		return
	case errors.Is(err, otp.ErrNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Voter not found")
		return
	case err != nil:
		slog.Error("failed to issue otp challenge", "error", err, "election_id", electionID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to send code")
		return
	}

	middleware.JSONResponse(w, http.StatusAccepted, models.RequestOtpResponse{
		Message: "Code sent to your campus email",
	})
}

// VerifyOtp handles POST /elections/:id/otp/verify
// On success the challenge is consumed and a vote token with proof kind
// otp is issued.
func (h *OtpHandler) VerifyOtp(w http.ResponseWriter, r *http.Request) {
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

	var req models.VerifyOtpRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Code == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "code is required")
		return
	}

	err = h.manager.Verify(r.Context(), voterID, electionID, req.Code)
	switch {
	case errors.Is(err, otp.ErrNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "No active code, request a new one")
		return
	case errors.Is(err, otp.ErrExpired):
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Code expired, request a new one")
		return
	case errors.Is(err, otp.ErrInvalid):
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Incorrect code")
		return
	case err != nil:
		slog.Error("failed to verify otp challenge", "error", err, "election_id", electionID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Verification error")
		return
	}

	token, claims, err := h.tokens.Issue(r.Context(), voterID, electionID, auth.ProofOTP)
	if errors.Is(err, auth.ErrVotingClosed) {
		middleware.ErrorResponse(w, http.StatusForbidden, "Voting is not open for this election")
		return
	}
	if err != nil {
		slog.Error("failed to issue vote token", "error", err, "election_id", electionID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to issue vote token")
		return
	}

	slog.Info("vote token issued", "election_id", electionID, "proof", auth.ProofOTP)

	middleware.JSONResponse(w, http.StatusOK, models.TokenResponse{
		Token:     token,
		ExpiresAt: claims.Expiry(),
	})
}
