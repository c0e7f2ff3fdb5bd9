package http

import (
	"net/http"

	"github.com/openballot/ballotd/internal/ballot/service"
	"github.com/openballot/ballotd/pkg/httpx"
)

type duplicateGroupResponse struct {
	TokenFingerprint string   `json:"token_fingerprint"`
	Count            int      `json:"count"`
	VoteIDs          []string `json:"vote_ids"`
}

type auditReportResponse struct {
	SessionID  string                   `json:"session_id"`
	TotalVotes int                      `json:"total_votes"`
	Clean      bool                     `json:"clean"`
	Duplicates []duplicateGroupResponse `json:"duplicates"`
}

// AuditHandler runs the duplicate-fingerprint scan for a session.
type AuditHandler struct {
	AuditService *service.AuditService
}

func (h *AuditHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	report, err := h.AuditService.Scan(r.Context(), httpx.CallerID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := auditReportResponse{
		SessionID:  report.SessionID,
		TotalVotes: report.TotalVotes,
		Clean:      report.Clean(),
		Duplicates: make([]duplicateGroupResponse, 0, len(report.Duplicates)),
	}
	for _, g := range report.Duplicates {
		resp.Duplicates = append(resp.Duplicates, duplicateGroupResponse{
			TokenFingerprint: g.TokenFingerprint,
			Count:            g.Count,
			VoteIDs:          g.VoteIDs,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}
