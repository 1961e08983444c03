package league

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog"

	"github.com/justinjudd/league/models"
	"github.com/justinjudd/league/tournament"
)

const (
	shareCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	shareCodeLength   = 6
	shareCodeAttempts = 5
)

// Manager runs competitions on top of a StorageEngine. Every mutation of a competition happens under that
// competition's lock, so submissions for one competition are applied one at a time while different
// competitions proceed in parallel.
type Manager struct {
	engine models.StorageEngine
	logger zerolog.Logger
	rules  tournament.ScoringRules
	locks  competitionLocks
	now    func() time.Time
}

// Option configures a Manager
type Option func(*Manager)

func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithScoringRules(rules tournament.ScoringRules) Option {
	return func(m *Manager) { m.rules = rules }
}

// NewManager creates a Manager storing its competitions in engine
func NewManager(engine models.StorageEngine, opts ...Option) *Manager {
	m := &Manager{
		engine: engine,
		logger: zerolog.Nop(),
		rules:  tournament.DefaultScoringRules(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateCompetition schedules a new season for teamIDs and stores it with zeroed standings
func (m *Manager) CreateCompetition(ctx context.Context, name string, teamIDs []models.TeamID, doubleRound bool) (models.Competition, error) {
	state, err := tournament.NewState(teamIDs, doubleRound)
	if err != nil {
		return models.Competition{}, err
	}

	now := m.now().UTC()
	c := models.Competition{
		ID:           xid.New().String(),
		Name:         strings.TrimSpace(name),
		DoubleRound:  doubleRound,
		CurrentRound: 1,
		Status:       models.Status_NEW,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
		State:        state,
	}

	for attempt := 0; ; attempt++ {
		c.ShareCode, err = newShareCode()
		if err != nil {
			return models.Competition{}, err
		}
		err = m.engine.Save(ctx, c)
		if errors.Is(err, models.ErrShareCodeTaken) && attempt < shareCodeAttempts-1 {
			continue
		}
		break
	}
	if err != nil {
		m.logger.Error().Err(err).Str("competition", c.ID).Msg("create competition failed")
		return models.Competition{}, persistErr(err)
	}

	m.logger.Info().
		Str("competition", c.ID).
		Str("share_code", c.ShareCode).
		Int("teams", len(teamIDs)).
		Int("rounds", len(state.Fixtures)).
		Bool("double_round", doubleRound).
		Msg("competition created")
	return c, nil
}

func (m *Manager) Competition(ctx context.Context, id string) (models.Competition, error) {
	c, err := m.engine.GetCompetition(ctx, id)
	if err != nil {
		return models.Competition{}, persistErr(err)
	}
	return c, nil
}

// CompetitionByShareCode looks a competition up by its join code, ignoring case
func (m *Manager) CompetitionByShareCode(ctx context.Context, code string) (models.Competition, error) {
	c, err := m.engine.GetCompetitionByShareCode(ctx, code)
	if err != nil {
		return models.Competition{}, persistErr(err)
	}
	return c, nil
}

func (m *Manager) Competitions(ctx context.Context) ([]models.Competition, error) {
	comps, err := m.engine.GetCompetitions(ctx)
	if err != nil {
		return nil, persistErr(err)
	}
	return comps, nil
}

// Standings returns the ranked table of a competition
func (m *Manager) Standings(ctx context.Context, id string) ([]models.StandingRow, error) {
	c, err := m.Competition(ctx, id)
	if err != nil {
		return nil, err
	}
	return tournament.Standings(c.State.Standings), nil
}

// Results returns the accepted submissions of a competition, oldest first
func (m *Manager) Results(ctx context.Context, id string) ([]models.ResultEntry, error) {
	if _, err := m.Competition(ctx, id); err != nil {
		return nil, err
	}
	entries, err := m.engine.GetResults(ctx, id)
	if err != nil {
		return nil, persistErr(err)
	}
	return entries, nil
}

// SubmitResult completes a match from both sides' fantasy totals and persists the new standings.
// A rejected submission leaves the stored competition unchanged. If saving fails the in-memory change
// is dropped; the next call reloads from storage.
func (m *Manager) SubmitResult(ctx context.Context, id, matchID string, homeRaw, awayRaw float64) (models.MatchResult, error) {
	return m.submit(ctx, id, matchID, func(state models.CompetitionState) (models.CompetitionState, models.MatchResult, error) {
		return tournament.SubmitResult(state, matchID, homeRaw, awayRaw)
	})
}

// SubmitLineups scores both lineups and submits the exact totals as the match result
func (m *Manager) SubmitLineups(ctx context.Context, id, matchID string, home, away []tournament.PlayerPerformance) (models.MatchResult, error) {
	homeTotal := m.rules.TeamTotal(home)
	awayTotal := m.rules.TeamTotal(away)
	return m.submit(ctx, id, matchID, func(state models.CompetitionState) (models.CompetitionState, models.MatchResult, error) {
		return tournament.SubmitResultDecimal(state, matchID, homeTotal, awayTotal)
	})
}

type transition func(models.CompetitionState) (models.CompetitionState, models.MatchResult, error)

func (m *Manager) submit(ctx context.Context, id, matchID string, apply transition) (models.MatchResult, error) {
	unlock := m.locks.lock(id)
	defer unlock()

	logger := m.logger.With().Str("competition", id).Str("match", matchID).Logger()

	c, err := m.engine.GetCompetition(ctx, id)
	if err != nil {
		return models.MatchResult{}, persistErr(err)
	}

	next, result, err := apply(c.State)
	if err != nil {
		logger.Warn().Err(err).Msg("result rejected")
		return models.MatchResult{}, err
	}

	ri, mi, _ := next.FindMatch(matchID)
	match := next.Fixtures[ri].Matches[mi]

	c.State = next
	c.Version++
	c.UpdatedAt = m.now().UTC()
	c.Status = models.Status_ONGOING
	if next.AllCompleted() {
		c.Status = models.Status_COMPLETED
	}

	entry := models.ResultEntry{
		CompetitionID: c.ID,
		MatchID:       matchID,
		Home:          match.Home,
		Away:          match.Away,
		HomeRawScore:  result.HomeRawScore,
		AwayRawScore:  result.AwayRawScore,
		HomeGoals:     result.HomeGoals,
		AwayGoals:     result.AwayGoals,
		Version:       c.Version,
		SubmittedAt:   c.UpdatedAt,
	}
	if err := m.engine.SaveResult(ctx, c, entry); err != nil {
		logger.Error().Err(err).Int("version", c.Version).Msg("saving result failed")
		return models.MatchResult{}, persistErr(err)
	}

	logger.Info().
		Str("home", string(match.Home)).
		Str("away", string(match.Away)).
		Int("home_goals", result.HomeGoals).
		Int("away_goals", result.AwayGoals).
		Int("version", c.Version).
		Msg("result recorded")
	return result, nil
}

// NextMatchday moves the matchday cursor forward one round
func (m *Manager) NextMatchday(ctx context.Context, id string) (models.Competition, error) {
	unlock := m.locks.lock(id)
	defer unlock()

	c, err := m.engine.GetCompetition(ctx, id)
	if err != nil {
		return models.Competition{}, persistErr(err)
	}
	if c.CurrentRound >= len(c.State.Fixtures) {
		return models.Competition{}, fmt.Errorf("competition %s is on its last round %d: %w", id, c.CurrentRound, models.ErrSeasonComplete)
	}
	c.CurrentRound++
	c.Version++
	c.UpdatedAt = m.now().UTC()
	if err := m.engine.Save(ctx, c); err != nil {
		m.logger.Error().Err(err).Str("competition", id).Msg("advancing matchday failed")
		return models.Competition{}, persistErr(err)
	}
	m.logger.Info().Str("competition", id).Int("round", c.CurrentRound).Msg("matchday advanced")
	return c, nil
}

// Reset removes a competition and its result log
func (m *Manager) Reset(ctx context.Context, id string) error {
	unlock := m.locks.lock(id)
	defer unlock()

	if err := m.engine.DeleteCompetition(ctx, id); err != nil {
		return persistErr(err)
	}
	m.logger.Info().Str("competition", id).Msg("competition reset")
	return nil
}

// persistErr marks storage failures as ErrPersistence. Errors that describe the request rather than the
// storage keep their identity
func persistErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, models.ErrNotFound),
		errors.Is(err, models.ErrVersionConflict),
		errors.Is(err, models.ErrShareCodeTaken),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return fmt.Errorf("%w: %w", models.ErrPersistence, err)
}

func newShareCode() (string, error) {
	buf := make([]byte, shareCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("share code: %w", err)
	}
	for i, b := range buf {
		buf[i] = shareCodeAlphabet[int(b)%len(shareCodeAlphabet)]
	}
	return string(buf), nil
}

// competitionLocks hands out one mutex per competition id, dropping it once nobody holds or waits for it
type competitionLocks struct {
	mu    sync.Mutex
	locks map[string]*competitionLock
}

type competitionLock struct {
	sync.Mutex
	refs int
}

func (c *competitionLocks) lock(id string) (unlock func()) {
	c.mu.Lock()
	if c.locks == nil {
		c.locks = map[string]*competitionLock{}
	}
	l, ok := c.locks[id]
	if !ok {
		l = &competitionLock{}
		c.locks[id] = l
	}
	l.refs++
	c.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		c.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(c.locks, id)
		}
		c.mu.Unlock()
	}
}
