package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/openballot/ballotd/internal/ballot/service"
	"github.com/openballot/ballotd/pkg/httpx"
	"github.com/openballot/ballotd/pkg/jwtx"
	"github.com/openballot/ballotd/pkg/slogx"
)

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Role        string `json:"role"`
}

// OrgLoginHandler authenticates an organization and mints a session JWT.
type OrgLoginHandler struct {
	AuthService *service.AuthService
	Signer      *jwtx.Signer
}

func (h *OrgLoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}
	if req.Email == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}

	org, err := h.AuthService.OrganizationLogin(ctx, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	token, err := h.Signer.Mint(org.Email, org.ID, jwtx.RoleOrganization)
	if err != nil {
		log.Error("failed to mint organization token", slog.Any("error", err))
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(h.Signer.TTL.Seconds()),
		Role:        jwtx.RoleOrganization,
	})
}

// VoterLoginHandler authenticates a voter by code and PIN.
type VoterLoginHandler struct {
	AuthService *service.AuthService
	Signer      *jwtx.Signer
}

func (h *VoterLoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req struct {
		Code string `json:"code"`
		PIN  string `json:"pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}
	if req.Code == "" || req.PIN == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "code and pin are required")
		return
	}

	voter, err := h.AuthService.VoterLogin(ctx, req.Code, req.PIN)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	token, err := h.Signer.Mint(voter.Code, voter.ID, jwtx.RoleVoter)
	if err != nil {
		log.Error("failed to mint voter token", slog.Any("error", err))
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(h.Signer.TTL.Seconds()),
		Role:        jwtx.RoleVoter,
	})
}
