package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/openballot/ballotd/internal/ballot/service"
	"github.com/openballot/ballotd/pkg/httpx"
)

// TokensHandler issues and verifies one-time vote tokens. The voter identity
// always comes from the bearer token, never from the request body, so a voter
// can only operate on their own token.
type TokensHandler struct {
	IssuanceService *service.IssuanceService
}

func (h *TokensHandler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	token, err := h.IssuanceService.IssueToken(r.Context(), httpx.CallerID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, map[string]string{
		"vote_token": token,
	})
}

func (h *TokensHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VoteToken string `json:"vote_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	valid, err := h.IssuanceService.VerifyToken(r.Context(), httpx.CallerID(r.Context()), req.VoteToken)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"valid": valid})
}

// VotesHandler records ballots and serves tallies.
type VotesHandler struct {
	CastingService *service.CastingService
}

func (h *VotesHandler) HandleCast(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CandidateID string `json:"candidate_id"`
		VoteToken   string `json:"vote_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}
	if req.CandidateID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "candidate_id is required")
		return
	}

	vote, err := h.CastingService.CastVote(r.Context(), httpx.CallerID(r.Context()), req.CandidateID, req.VoteToken)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, struct {
		ID        string    `json:"id"`
		SessionID string    `json:"session_id"`
		CastAt    time.Time `json:"cast_at"`
	}{
		ID:        vote.ID,
		SessionID: vote.SessionID,
		CastAt:    vote.CreatedAt,
	})
}

func (h *VotesHandler) HandleTally(w http.ResponseWriter, r *http.Request) {
	tally, err := h.CastingService.TallyByCandidate(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, candidateTallyResponse{
		candidateResponse: toCandidateResponse(tally.Candidate),
		Votes:             tally.Votes,
	})
}
