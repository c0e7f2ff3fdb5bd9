package http

import (
	"errors"
	"net/http"

	"github.com/openballot/ballotd/internal/ballot/service"
	"github.com/openballot/ballotd/pkg/httpx"
)

// writeServiceError maps the service error taxonomy onto HTTP statuses in
// one place so every handler reports failures the same way.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "The provided credentials are incorrect")

	case errors.Is(err, service.ErrNotSessionOwner):
		httpx.WriteError(w, http.StatusForbidden, "forbidden", "The session belongs to a different organization")
	case errors.Is(err, service.ErrInvalidVoteToken):
		httpx.WriteError(w, http.StatusForbidden, "invalid_token", "The vote token is missing or does not match")

	case errors.Is(err, service.ErrOrganizationNotFound),
		errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrCandidateNotFound),
		errors.Is(err, service.ErrVoterNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", err.Error())

	case errors.Is(err, service.ErrOrganizationExists):
		httpx.WriteError(w, http.StatusConflict, "already_exists", err.Error())
	case errors.Is(err, service.ErrAlreadyIssued):
		httpx.WriteError(w, http.StatusConflict, "token_already_issued", "A vote token was already issued to this voter")
	case errors.Is(err, service.ErrAlreadyVoted):
		httpx.WriteError(w, http.StatusConflict, "already_voted", "This voter has already cast a vote")
	case errors.Is(err, service.ErrSessionStarted):
		httpx.WriteError(w, http.StatusConflict, "session_started", "The session can no longer be modified")
	case errors.Is(err, service.ErrSessionNotStarted):
		httpx.WriteError(w, http.StatusConflict, "session_not_started", "The voting window has not opened yet")
	case errors.Is(err, service.ErrSessionClosed):
		httpx.WriteError(w, http.StatusConflict, "session_closed", "The voting window has closed")

	case errors.Is(err, service.ErrCandidateNotInSession):
		httpx.WriteError(w, http.StatusUnprocessableEntity, "candidate_not_in_session", "The candidate is not on this voter's ballot")

	case errors.Is(err, service.ErrInvalidOrganization),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrInvalidSession),
		errors.Is(err, service.ErrInvalidSessionWindow),
		errors.Is(err, service.ErrVotingDatePast),
		errors.Is(err, service.ErrNoCandidates),
		errors.Is(err, service.ErrDuplicateCandidateName),
		errors.Is(err, service.ErrEmptyRoster),
		errors.Is(err, service.ErrMissingColumn):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())

	default:
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "An internal error occurred")
	}
}

func writeInvalidBody(w http.ResponseWriter) {
	httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
}
