// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/jannurey/botosafe-sub000/middleware"
	"github.com/jannurey/botosafe-sub000/models"
	"github.com/jannurey/botosafe-sub000/tally"
)

type TallyHandler struct {
	counter *tally.Counter
}

func NewTallyHandler(counter *tally.Counter) *TallyHandler {
	return &TallyHandler{counter: counter}
}

// GetTally handles GET /elections/:id/tally
// Recomputes the aggregate from stored envelopes. The response never
// contains voter linkage; unreadable envelopes only show up in the
// skipped count.
func (h *TallyHandler) GetTally(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "election id is required")
		return
	}

	result, err := h.counter.Count(r.Context(), electionID)
	if err != nil {
		slog.Error("failed to tally election", "error", err, "election_id", electionID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to compute tally")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.TallyResponse{
		ElectionID: result.ElectionID,
		Counts:     result.Counts,
		ByPosition: result.ByPosition,
		Ballots:    result.Ballots,
		Skipped:    result.Skipped,
	})
}
