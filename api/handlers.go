package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/justinjudd/league"
	"github.com/justinjudd/league/models"
	"github.com/justinjudd/league/tournament"
)

const maxBodyBytes = 1 << 20

type createCompetitionRequest struct {
	Name        string   `json:"name"`
	TeamIDs     []string `json:"teamIds"`
	DoubleRound *bool    `json:"doubleRound"`
}

// submitResultRequest carries either both raw totals or both lineups
type submitResultRequest struct {
	HomeScore *float64                       `json:"homeScore"`
	AwayScore *float64                       `json:"awayScore"`
	Home      []tournament.PlayerPerformance `json:"home"`
	Away      []tournament.PlayerPerformance `json:"away"`
}

type submitResultResponse struct {
	MatchID string             `json:"matchId"`
	Result  models.MatchResult `json:"result"`
}

type teamFixturesResponse struct {
	Team      models.TeamID            `json:"teamId"`
	Fixtures  []tournament.TeamFixture `json:"fixtures"`
	ByeRounds []int                    `json:"byeRounds"`
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("trailing data after JSON body")
	}
	return nil
}

func (a *api) handleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *api) handleCreateCompetition(w http.ResponseWriter, r *http.Request) {
	var req createCompetitionRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		WriteError(w, http.StatusBadRequest, "validation_error", "name is required")
		return
	}
	doubleRound := true
	if req.DoubleRound != nil {
		doubleRound = *req.DoubleRound
	}
	teams := make([]models.TeamID, len(req.TeamIDs))
	for i, id := range req.TeamIDs {
		teams[i] = models.TeamID(id)
	}

	c, err := a.league.CreateCompetition(r.Context(), req.Name, teams, doubleRound)
	if err != nil {
		WriteDomainError(r.Context(), w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, c)
}

func (a *api) handleListCompetitions(w http.ResponseWriter, r *http.Request) {
	comps, err := a.league.Competitions(r.Context())
	if err != nil {
		WriteDomainError(r.Context(), w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"competitions": comps})
}

func (a *api) handleGetCompetition(w http.ResponseWriter, r *http.Request) {
	c, err := a.league.Competition(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		WriteDomainError(r.Context(), w, err)
		return
	}
	WriteJSON(w, http.StatusOK, c)
}

func (a *api) handleCompetitionByShareCode(w http.ResponseWriter, r *http.Request) {
	c, err := a.league.CompetitionByShareCode(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		WriteDomainError(r.Context(), w, err)
		return
	}
	WriteJSON(w, http.StatusOK, c)
}

func (a *api) handleResetCompetition(w http.ResponseWriter, r *http.Request) {
	if err := a.league.Reset(r.Context(), mux.Vars(r)["id"]); err != nil {
		WriteDomainError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleStandings(w http.ResponseWriter, r *http.Request) {
	rows, err := a.league.Standings(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		WriteDomainError(r.Context(), w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"standings": rows})
}

func (a *api) handleFixtures(w http.ResponseWriter, r *http.Request) {
	c, err := a.league.Competition(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		WriteDomainError(r.Context(), w, err)
		return
	}
	rounds := c.State.Fixtures
	if raw := r.URL.Query().Get("round"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > len(rounds) {
			WriteError(w, http.StatusBadRequest, "validation_error", "round must be between 1 and "+strconv.Itoa(len(rounds)))
			return
		}
		rounds = rounds[n-1 : n]
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"currentRound": c.CurrentRound, "rounds": rounds})
}

func (a *api) handleTeamFixtures(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	c, err := a.league.Competition(r.Context(), vars["id"])
	if err != nil {
		WriteDomainError(r.Context(), w, err)
		return
	}
	team := models.TeamID(vars["team"])
	if _, ok := c.State.Standings[team]; !ok {
		WriteError(w, http.StatusNotFound, "team_not_found", "team is not part of this competition")
		return
	}
	WriteJSON(w, http.StatusOK, teamFixturesResponse{
		Team:      team,
		Fixtures:  tournament.TeamFixtures(c.State.Fixtures, team),
		ByeRounds: tournament.ByeRounds(c.State.Fixtures, team),
	})
}

func (a *api) handleResults(w http.ResponseWriter, r *http.Request) {
	entries, err := a.league.Results(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		WriteDomainError(r.Context(), w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"results": entries})
}

func (a *api) handleSubmitResult(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req submitResultRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	var (
		result models.MatchResult
		err    error
	)
	switch {
	case req.HomeScore != nil && req.AwayScore != nil:
		result, err = a.league.SubmitResult(r.Context(), vars["id"], vars["match"], *req.HomeScore, *req.AwayScore)
	case len(req.Home) > 0 && len(req.Away) > 0:
		result, err = a.league.SubmitLineups(r.Context(), vars["id"], vars["match"], req.Home, req.Away)
	default:
		WriteError(w, http.StatusBadRequest, "validation_error", "provide homeScore and awayScore, or home and away lineups")
		return
	}
	if err != nil {
		WriteDomainError(r.Context(), w, err)
		return
	}
	WriteJSON(w, http.StatusOK, submitResultResponse{MatchID: vars["match"], Result: result})
}

func (a *api) handleNextMatchday(w http.ResponseWriter, r *http.Request) {
	c, err := a.league.NextMatchday(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		WriteDomainError(r.Context(), w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]int{"currentRound": c.CurrentRound})
}

func (a *api) handleTableHTML(w http.ResponseWriter, r *http.Request) {
	c, err := a.league.Competition(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		WriteDomainError(r.Context(), w, err)
		return
	}
	page, err := league.GenerateCompetitionHTML(c)
	if err != nil {
		WriteDomainError(r.Context(), w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}
