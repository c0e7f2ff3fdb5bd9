package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/openballot/ballotd/internal/ballot/domain"
	"github.com/openballot/ballotd/internal/ballot/service"
	"github.com/openballot/ballotd/pkg/httpx"
)

type candidateRequest struct {
	FullName string `json:"full_name"`
	Position string `json:"position"`
}

type sessionRequest struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	VotingDate  string             `json:"voting_date"` // YYYY-MM-DD
	StartTime   string             `json:"start_time"`  // HH:MM
	EndTime     string             `json:"end_time"`    // HH:MM
	Candidates  []candidateRequest `json:"candidates,omitempty"`
}

type sessionResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	VotingDate  string `json:"voting_date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Active      bool   `json:"active"`
}

type candidateResponse struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	FullName  string `json:"full_name"`
	Position  string `json:"position"`
}

type candidateTallyResponse struct {
	candidateResponse
	Votes int `json:"votes"`
}

type voterSummaryResponse struct {
	ID             string `json:"id"`
	Code           string `json:"code"`
	Email          string `json:"email"`
	TokenGenerated bool   `json:"token_generated"`
	HasVoted       bool   `json:"has_voted"`
}

type sessionDetailResponse struct {
	sessionResponse
	Candidates []candidateTallyResponse `json:"candidates"`
	Voters     []voterSummaryResponse   `json:"voters"`
}

func toSessionResponse(s domain.Session) sessionResponse {
	return sessionResponse{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		VotingDate:  s.VotingDate.Format("2006-01-02"),
		StartTime:   s.StartTime.String(),
		EndTime:     s.EndTime.String(),
		Active:      s.Active,
	}
}

func toCandidateResponse(c domain.Candidate) candidateResponse {
	return candidateResponse{
		ID:        c.ID,
		SessionID: c.SessionID,
		FullName:  c.FullName,
		Position:  c.Position,
	}
}

// parseSessionRequest validates the date/time fields shared by create and
// update.
func parseSessionRequest(req sessionRequest) (votingDate time.Time, start, end domain.TimeOfDay, ok bool) {
	votingDate, err := time.Parse("2006-01-02", req.VotingDate)
	if err != nil {
		return time.Time{}, 0, 0, false
	}
	if start, err = domain.ParseTimeOfDay(req.StartTime); err != nil {
		return time.Time{}, 0, 0, false
	}
	if end, err = domain.ParseTimeOfDay(req.EndTime); err != nil {
		return time.Time{}, 0, 0, false
	}
	return votingDate, start, end, true
}

type SessionsHandler struct {
	SessionService *service.SessionService
}

func (h *SessionsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}
	votingDate, start, end, ok := parseSessionRequest(req)
	if !ok {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request",
			"voting_date must be YYYY-MM-DD and times must be HH:MM")
		return
	}

	candidates := make([]service.CandidateInput, 0, len(req.Candidates))
	for _, c := range req.Candidates {
		candidates = append(candidates, service.CandidateInput{FullName: c.FullName, Position: c.Position})
	}

	sess, err := h.SessionService.Create(r.Context(), httpx.CallerID(r.Context()),
		req.Title, req.Description, votingDate, start, end, candidates)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toSessionResponse(sess))
}

func (h *SessionsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	h.writeSessionList(w, r, h.SessionService.List)
}

func (h *SessionsHandler) HandleListActive(w http.ResponseWriter, r *http.Request) {
	h.writeSessionList(w, r, h.SessionService.ListActive)
}

func (h *SessionsHandler) writeSessionList(
	w http.ResponseWriter, r *http.Request,
	list func(ctx context.Context, organizationID string) ([]domain.Session, error),
) {
	sessions, err := list(r.Context(), httpx.CallerID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]sessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, toSessionResponse(s))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *SessionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	detail, err := h.SessionService.Get(r.Context(), httpx.CallerID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := sessionDetailResponse{
		sessionResponse: toSessionResponse(detail.Session),
		Candidates:      make([]candidateTallyResponse, 0, len(detail.Candidates)),
		Voters:          make([]voterSummaryResponse, 0, len(detail.Voters)),
	}
	for _, c := range detail.Candidates {
		resp.Candidates = append(resp.Candidates, candidateTallyResponse{
			candidateResponse: toCandidateResponse(c.Candidate),
			Votes:             c.Votes,
		})
	}
	for _, v := range detail.Voters {
		resp.Voters = append(resp.Voters, voterSummaryResponse{
			ID:             v.ID,
			Code:           v.Code,
			Email:          v.Email,
			TokenGenerated: v.TokenGenerated,
			HasVoted:       v.HasVoted,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *SessionsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}
	votingDate, start, end, ok := parseSessionRequest(req)
	if !ok {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request",
			"voting_date must be YYYY-MM-DD and times must be HH:MM")
		return
	}

	sess, err := h.SessionService.Update(r.Context(), httpx.CallerID(r.Context()),
		r.PathValue("id"), req.Title, req.Description, votingDate, start, end)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toSessionResponse(sess))
}

func (h *SessionsHandler) HandleListCandidates(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.SessionService.Candidates(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]candidateResponse, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, toCandidateResponse(c))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *SessionsHandler) HandleUpdateCandidate(w http.ResponseWriter, r *http.Request) {
	var req candidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	candidate, err := h.SessionService.UpdateCandidate(r.Context(), httpx.CallerID(r.Context()),
		r.PathValue("id"), req.FullName, req.Position)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toCandidateResponse(candidate))
}
