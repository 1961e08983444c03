package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/justinjudd/league/models"
)

type errorEnvelope struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, errorEnvelope{Error: apiError{Code: code, Message: message}})
}

func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteDomainError maps league errors onto HTTP statuses
func WriteDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrInsufficientTeams):
		WriteError(w, http.StatusBadRequest, "insufficient_teams", "at least two teams are required")
	case errors.Is(err, models.ErrDuplicateTeam):
		WriteError(w, http.StatusBadRequest, "duplicate_team", err.Error())
	case errors.Is(err, models.ErrInvalidTeam):
		WriteError(w, http.StatusBadRequest, "invalid_team", err.Error())
	case errors.Is(err, models.ErrInvalidScore):
		WriteError(w, http.StatusBadRequest, "invalid_score", err.Error())
	case errors.Is(err, models.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not_found", "competition not found")
	case errors.Is(err, models.ErrMatchNotFound):
		WriteError(w, http.StatusNotFound, "match_not_found", "match not found")
	case errors.Is(err, models.ErrAlreadyCompleted):
		WriteError(w, http.StatusConflict, "already_completed", "match already has a result")
	case errors.Is(err, models.ErrVersionConflict):
		WriteError(w, http.StatusConflict, "version_conflict", "competition changed, retry")
	case errors.Is(err, models.ErrSeasonComplete):
		WriteError(w, http.StatusConflict, "season_complete", "already on the last matchday")
	case errors.Is(err, models.ErrPersistence):
		zerolog.Ctx(ctx).Error().Err(err).Msg("storage failure")
		WriteError(w, http.StatusServiceUnavailable, "persistence_failure", "storage unavailable, retry")
	default:
		zerolog.Ctx(ctx).Error().Err(err).Msg("internal error")
		WriteError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
