package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/justinjudd/league/models"
	"github.com/justinjudd/league/tournament"
)

// Service is the league operations the API exposes
type Service interface {
	CreateCompetition(ctx context.Context, name string, teamIDs []models.TeamID, doubleRound bool) (models.Competition, error)
	Competition(ctx context.Context, id string) (models.Competition, error)
	CompetitionByShareCode(ctx context.Context, code string) (models.Competition, error)
	Competitions(ctx context.Context) ([]models.Competition, error)
	Standings(ctx context.Context, id string) ([]models.StandingRow, error)
	Results(ctx context.Context, id string) ([]models.ResultEntry, error)
	SubmitResult(ctx context.Context, id, matchID string, homeRaw, awayRaw float64) (models.MatchResult, error)
	SubmitLineups(ctx context.Context, id, matchID string, home, away []tournament.PlayerPerformance) (models.MatchResult, error)
	NextMatchday(ctx context.Context, id string) (models.Competition, error)
	Reset(ctx context.Context, id string) error
}

type RouterOpts struct {
	Logger zerolog.Logger
	League Service
}

type api struct {
	league Service
}

// NewRouter wires every route onto a gorilla/mux router
func NewRouter(opts RouterOpts) http.Handler {
	a := &api{league: opts.League}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", a.handleHealth).Methods(http.MethodGet)

	c := r.PathPrefix("/competitions").Subrouter()
	c.HandleFunc("", a.handleCreateCompetition).Methods(http.MethodPost)
	c.HandleFunc("", a.handleListCompetitions).Methods(http.MethodGet)
	c.HandleFunc("/share/{code}", a.handleCompetitionByShareCode).Methods(http.MethodGet)
	c.HandleFunc("/{id}", a.handleGetCompetition).Methods(http.MethodGet)
	c.HandleFunc("/{id}", a.handleResetCompetition).Methods(http.MethodDelete)
	c.HandleFunc("/{id}/standings", a.handleStandings).Methods(http.MethodGet)
	c.HandleFunc("/{id}/fixtures", a.handleFixtures).Methods(http.MethodGet)
	c.HandleFunc("/{id}/results", a.handleResults).Methods(http.MethodGet)
	c.HandleFunc("/{id}/teams/{team}/fixtures", a.handleTeamFixtures).Methods(http.MethodGet)
	c.HandleFunc("/{id}/matches/{match}/result", a.handleSubmitResult).Methods(http.MethodPost)
	c.HandleFunc("/{id}/matchday/next", a.handleNextMatchday).Methods(http.MethodPost)
	c.HandleFunc("/{id}/table.html", a.handleTableHTML).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusNotFound, "not_found", "no such route")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	return withLogging(opts.Logger, r)
}
