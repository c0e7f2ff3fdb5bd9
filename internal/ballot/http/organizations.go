package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/openballot/ballotd/internal/ballot/domain"
	"github.com/openballot/ballotd/internal/ballot/service"
	"github.com/openballot/ballotd/pkg/httpx"
)

type organizationResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	ContactPerson string    `json:"contact_person"`
	CreatedAt     time.Time `json:"created_at"`
}

func toOrganizationResponse(o domain.Organization) organizationResponse {
	return organizationResponse{
		ID:            o.ID,
		Name:          o.Name,
		Email:         o.Email,
		ContactPerson: o.ContactPerson,
		CreatedAt:     o.CreatedAt,
	}
}

type OrganizationsHandler struct {
	OrganizationService *service.OrganizationService
}

func (h *OrganizationsHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name          string `json:"name"`
		Email         string `json:"email"`
		ContactPerson string `json:"contact_person"`
		Password      string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	org, err := h.OrganizationService.Register(r.Context(), req.Name, req.Email, req.ContactPerson, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toOrganizationResponse(org))
}

func (h *OrganizationsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.OrganizationService.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]organizationResponse, 0, len(orgs))
	for _, o := range orgs {
		out = append(out, toOrganizationResponse(o))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *OrganizationsHandler) HandleGetMe(w http.ResponseWriter, r *http.Request) {
	org, err := h.OrganizationService.Get(r.Context(), httpx.CallerID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toOrganizationResponse(org))
}

func (h *OrganizationsHandler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name          string `json:"name"`
		Email         string `json:"email"`
		ContactPerson string `json:"contact_person"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	org, err := h.OrganizationService.UpdateProfile(r.Context(),
		httpx.CallerID(r.Context()), req.Name, req.Email, req.ContactPerson)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toOrganizationResponse(org))
}
