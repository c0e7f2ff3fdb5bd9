package http

import (
	"io"
	"net/http"
	"strings"

	"github.com/openballot/ballotd/internal/ballot/service"
	"github.com/openballot/ballotd/pkg/httpx"
)

// maxRosterSize caps uploads at 5 MiB; plenty for any plausible roster.
const maxRosterSize = 5 << 20

type rosterRowResponse struct {
	Row     int    `json:"row"`
	Email   string `json:"email"`
	Code    string `json:"code,omitempty"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type rosterReportResponse struct {
	Created int                 `json:"created"`
	Rows    []rosterRowResponse `json:"rows"`
}

type RosterHandler struct {
	RosterService *service.RosterService
}

// HandleUpload accepts the roster either as a multipart form with a "file"
// part or as a raw CSV body.
func (h *RosterHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRosterSize)

	var src io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "multipart upload needs a \"file\" part")
			return
		}
		defer file.Close()
		src = file
	}

	report, err := h.RosterService.UploadCSV(r.Context(), httpx.CallerID(r.Context()), r.PathValue("id"), src)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := rosterReportResponse{
		Created: report.Created,
		Rows:    make([]rosterRowResponse, 0, len(report.Rows)),
	}
	for _, row := range report.Rows {
		resp.Rows = append(resp.Rows, rosterRowResponse{
			Row:     row.Row,
			Email:   row.Email,
			Code:    row.Code,
			Status:  row.Status,
			Message: row.Message,
		})
	}
	httpx.WriteJSON(w, http.StatusCreated, resp)
}

func (h *RosterHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	voters, err := h.RosterService.ListVoters(r.Context(), httpx.CallerID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]voterSummaryResponse, 0, len(voters))
	for _, v := range voters {
		out = append(out, voterSummaryResponse{
			ID:             v.ID,
			Code:           v.Code,
			Email:          v.Email,
			TokenGenerated: v.TokenGenerated,
			HasVoted:       v.HasVoted,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *RosterHandler) HandleSendInvites(w http.ResponseWriter, r *http.Request) {
	sent, failed, err := h.RosterService.SendInvites(r.Context(), httpx.CallerID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]int{
		"sent":   sent,
		"failed": failed,
	})
}
