package league

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justinjudd/league/models"
	stormengine "github.com/justinjudd/league/models/storm"
	"github.com/justinjudd/league/tournament"
)

var fixedNow = time.Date(2024, 9, 1, 15, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) *stormengine.Engine {
	t.Helper()
	e, err := stormengine.NewStorageEngine(filepath.Join(t.TempDir(), "league.db"), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func newTestManager(t *testing.T, opts ...Option) *Manager {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewManager(newTestEngine(t), opts...)
}

// flakyEngine fails writes on demand
type flakyEngine struct {
	*stormengine.Engine

	mu              sync.Mutex
	failSaveResult  error
	shareCodeTaken  int
	saveAttempts    int
	shareCodesTried []string
}

func (f *flakyEngine) Save(ctx context.Context, c models.Competition) error {
	f.mu.Lock()
	f.saveAttempts++
	f.shareCodesTried = append(f.shareCodesTried, c.ShareCode)
	if f.shareCodeTaken > 0 {
		f.shareCodeTaken--
		f.mu.Unlock()
		return models.ErrShareCodeTaken
	}
	f.mu.Unlock()
	return f.Engine.Save(ctx, c)
}

func (f *flakyEngine) SaveResult(ctx context.Context, c models.Competition, entry models.ResultEntry) error {
	f.mu.Lock()
	err := f.failSaveResult
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.Engine.SaveResult(ctx, c, entry)
}

func teams(ids ...string) []models.TeamID {
	out := make([]models.TeamID, len(ids))
	for i, id := range ids {
		out[i] = models.TeamID(id)
	}
	return out
}

func TestCreateCompetition(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	c, err := m.CreateCompetition(ctx, "  Sunday League ", teams("a", "b", "c", "d"), true)
	require.NoError(t, err)

	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "Sunday League", c.Name)
	assert.Len(t, c.ShareCode, shareCodeLength)
	for _, r := range c.ShareCode {
		assert.Contains(t, shareCodeAlphabet, string(r))
	}
	assert.Equal(t, models.Status_NEW, c.Status)
	assert.Equal(t, 1, c.Version)
	assert.Equal(t, 1, c.CurrentRound)
	assert.True(t, c.CreatedAt.Equal(fixedNow))
	assert.Len(t, c.State.Fixtures, 6)
	require.NoError(t, tournament.Verify(c.State))

	stored, err := m.Competition(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.State, stored.State)

	byCode, err := m.CompetitionByShareCode(ctx, c.ShareCode)
	require.NoError(t, err)
	assert.Equal(t, c.ID, byCode.ID)

	all, err := m.Competitions(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCreateCompetitionInvalidTeams(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	tests := []struct {
		name  string
		teams []models.TeamID
		want  error
	}{
		{name: "too few", teams: teams("a"), want: models.ErrInsufficientTeams},
		{name: "duplicate", teams: teams("a", "b", "a"), want: models.ErrDuplicateTeam},
		{name: "blank", teams: teams("a", ""), want: models.ErrInvalidTeam},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.CreateCompetition(ctx, "x", tt.teams, false)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	all, err := m.Competitions(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreateCompetitionRetriesShareCode(t *testing.T) {
	ctx := context.Background()
	engine := &flakyEngine{Engine: newTestEngine(t), shareCodeTaken: 2}
	m := NewManager(engine)

	c, err := m.CreateCompetition(ctx, "x", teams("a", "b"), false)
	require.NoError(t, err)
	assert.Equal(t, 3, engine.saveAttempts)
	assert.Equal(t, engine.shareCodesTried[2], c.ShareCode)

	engine.shareCodeTaken = 100
	engine.saveAttempts = 0
	_, err = m.CreateCompetition(ctx, "y", teams("a", "b"), false)
	assert.ErrorIs(t, err, models.ErrShareCodeTaken)
	assert.Equal(t, shareCodeAttempts, engine.saveAttempts)
}

func TestSubmitResult(t *testing.T) {
	ctx := context.Background()
	var logs bytes.Buffer
	m := newTestManager(t, WithLogger(zerolog.New(&logs)))

	c, err := m.CreateCompetition(ctx, "x", teams("a", "b", "c", "d"), false)
	require.NoError(t, err)

	result, err := m.SubmitResult(ctx, c.ID, "1-1", 72, 65.9)
	require.NoError(t, err)
	assert.Equal(t, models.MatchResult{HomeGoals: 2, AwayGoals: 0, HomeRawScore: 72, AwayRawScore: 65.9}, result)
	assert.Contains(t, logs.String(), `"message":"result recorded"`)

	stored, err := m.Competition(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Version)
	assert.Equal(t, models.Status_ONGOING, stored.Status)
	assert.True(t, stored.State.Fixtures[0].Matches[0].Completed)
	require.NoError(t, tournament.Verify(stored.State))

	rows, err := m.Standings(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, models.TeamID("a"), rows[0].Team)
	assert.Equal(t, 3, rows[0].Points)
	assert.Equal(t, models.TeamID("d"), rows[3].Team)

	results, err := m.Results(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "1-1", results[0].MatchID)
	assert.Equal(t, models.TeamID("a"), results[0].Home)
	assert.Equal(t, models.TeamID("d"), results[0].Away)
	assert.Equal(t, 2, results[0].Version)
	assert.True(t, results[0].SubmittedAt.Equal(fixedNow))
}

func TestSubmitResultRejections(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	c, err := m.CreateCompetition(ctx, "x", teams("a", "b", "c", "d"), false)
	require.NoError(t, err)
	_, err = m.SubmitResult(ctx, c.ID, "1-1", 80, 70)
	require.NoError(t, err)
	before, err := m.Competition(ctx, c.ID)
	require.NoError(t, err)

	_, err = m.SubmitResult(ctx, c.ID, "1-1", 60, 90)
	assert.ErrorIs(t, err, models.ErrAlreadyCompleted)
	_, err = m.SubmitResult(ctx, c.ID, "7-1", 60, 90)
	assert.ErrorIs(t, err, models.ErrMatchNotFound)
	_, err = m.SubmitResult(ctx, "nope", "1-1", 60, 90)
	assert.ErrorIs(t, err, models.ErrNotFound)

	after, err := m.Competition(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, before.Version, after.Version)
	assert.Equal(t, before.State, after.State)

	results, err := m.Results(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSubmitResultPersistenceFailure(t *testing.T) {
	ctx := context.Background()
	engine := &flakyEngine{Engine: newTestEngine(t)}
	m := NewManager(engine)

	c, err := m.CreateCompetition(ctx, "x", teams("a", "b", "c", "d"), false)
	require.NoError(t, err)

	engine.failSaveResult = errors.New("disk full")
	_, err = m.SubmitResult(ctx, c.ID, "1-1", 80, 70)
	assert.ErrorIs(t, err, models.ErrPersistence)

	stored, err := m.Competition(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Version)
	assert.Equal(t, c.State, stored.State)

	engine.failSaveResult = nil
	result, err := m.SubmitResult(ctx, c.ID, "1-1", 80, 70)
	require.NoError(t, err)
	assert.Equal(t, 3, result.HomeGoals)
}

func TestSubmitResultConcurrent(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	ids := teams("a", "b", "c", "d", "e", "f", "g", "h")
	c, err := m.CreateCompetition(ctx, "x", ids, true)
	require.NoError(t, err)
	other, err := m.CreateCompetition(ctx, "y", ids[:4], false)
	require.NoError(t, err)

	matches := c.State.Matches()
	var wg sync.WaitGroup
	errs := make(chan error, 2*len(matches)+len(other.State.Matches()))
	submit := func(id, matchID string, home, away float64) {
		defer wg.Done()
		_, err := m.SubmitResult(ctx, id, matchID, home, away)
		errs <- err
	}
	// every match of c is submitted twice, only one of each pair can be accepted
	for i, match := range matches {
		wg.Add(2)
		go submit(c.ID, match.ID, float64(55+i%40), float64(90-i%35))
		go submit(c.ID, match.ID, 70, 70)
	}
	for _, match := range other.State.Matches() {
		wg.Add(1)
		go submit(other.ID, match.ID, 70, 66)
	}
	wg.Wait()
	close(errs)

	accepted, duplicates := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			accepted++
		case errors.Is(err, models.ErrAlreadyCompleted):
			duplicates++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, len(matches)+len(other.State.Matches()), accepted)
	assert.Equal(t, len(matches), duplicates)

	stored, err := m.Competition(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1+len(matches), stored.Version)
	assert.Equal(t, models.Status_COMPLETED, stored.Status)
	assert.True(t, stored.State.AllCompleted())
	require.NoError(t, tournament.Verify(stored.State))

	results, err := m.Results(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, results, len(matches))

	storedOther, err := m.Competition(ctx, other.ID)
	require.NoError(t, err)
	require.NoError(t, tournament.Verify(storedOther.State))
	assert.Equal(t, models.Status_COMPLETED, storedOther.Status)
}

func TestSubmitLineups(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	c, err := m.CreateCompetition(ctx, "x", teams("a", "b"), false)
	require.NoError(t, err)

	lineup := func(grade string, goals int) []tournament.PlayerPerformance {
		out := make([]tournament.PlayerPerformance, 11)
		for i := range out {
			out[i] = tournament.PlayerPerformance{Role: tournament.RoleMidfielder, Grade: decimal.RequireFromString(grade)}
		}
		out[10].Events.Goals = goals
		return out
	}

	// 71.5 + 6 = 77.5 against 66
	result, err := m.SubmitLineups(ctx, c.ID, "1-1", lineup("6.5", 2), lineup("6", 0))
	require.NoError(t, err)
	assert.Equal(t, 2, result.HomeGoals)
	assert.Equal(t, 1, result.AwayGoals)
	assert.Equal(t, 77.5, result.HomeRawScore)
	assert.Equal(t, 66.0, result.AwayRawScore)

	stored, err := m.Competition(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Status_COMPLETED, stored.Status)
}

func TestSubmitLineupsExactTotals(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	c, err := m.CreateCompetition(ctx, "x", teams("a", "b"), false)
	require.NoError(t, err)

	single := func(grade string) []tournament.PlayerPerformance {
		return []tournament.PlayerPerformance{{Role: tournament.RoleForward, Grade: decimal.RequireFromString(grade)}}
	}

	result, err := m.SubmitLineups(ctx, c.ID, "1-1", single("71.99999999999999999"), single("72"))
	require.NoError(t, err)
	assert.Equal(t, 1, result.HomeGoals)
	assert.Equal(t, 2, result.AwayGoals)

	results, err := m.Results(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].HomeGoals)
}

func TestSubmitResultInvalidScore(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	c, err := m.CreateCompetition(ctx, "x", teams("a", "b"), false)
	require.NoError(t, err)

	_, err = m.SubmitResult(ctx, c.ID, "1-1", 1e20, 70)
	assert.ErrorIs(t, err, models.ErrInvalidScore)

	stored, err := m.Competition(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Version)
	assert.False(t, stored.State.Fixtures[0].Matches[0].Completed)
	assert.Equal(t, models.TeamStats{}, stored.State.Standings["a"])
}

func TestNextMatchday(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	c, err := m.CreateCompetition(ctx, "x", teams("a", "b", "c", "d"), false)
	require.NoError(t, err)

	for round := 2; round <= 3; round++ {
		c, err = m.NextMatchday(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, round, c.CurrentRound)
	}
	_, err = m.NextMatchday(ctx, c.ID)
	assert.ErrorIs(t, err, models.ErrSeasonComplete)

	stored, err := m.Competition(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.CurrentRound)
	assert.Equal(t, 3, stored.Version)

	_, err = m.NextMatchday(ctx, "nope")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	c, err := m.CreateCompetition(ctx, "x", teams("a", "b", "c"), false)
	require.NoError(t, err)
	_, err = m.SubmitResult(ctx, c.ID, "1-1", 70, 70)
	require.NoError(t, err)

	require.NoError(t, m.Reset(ctx, c.ID))

	_, err = m.Competition(ctx, c.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = m.Results(ctx, c.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorIs(t, m.Reset(ctx, c.ID), models.ErrNotFound)
}

func TestPersistErr(t *testing.T) {
	assert.NoError(t, persistErr(nil))
	assert.ErrorIs(t, persistErr(models.ErrNotFound), models.ErrNotFound)
	assert.NotErrorIs(t, persistErr(models.ErrNotFound), models.ErrPersistence)
	assert.ErrorIs(t, persistErr(context.Canceled), context.Canceled)

	boom := errors.New("boom")
	err := persistErr(boom)
	assert.ErrorIs(t, err, models.ErrPersistence)
	assert.ErrorIs(t, err, boom)
}

func TestCompetitionLocksRelease(t *testing.T) {
	var locks competitionLocks
	unlock := locks.lock("a")
	unlockB := locks.lock("b")
	assert.Len(t, locks.locks, 2)
	unlock()
	unlockB()
	assert.Empty(t, locks.locks)
}
