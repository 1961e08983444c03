package tournament

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/justinjudd/league/models"
)

const (
	winPoints  = 3
	drawPoints = 1
)

// SubmitResult completes a match from the two sides' fantasy totals and credits both teams.
// The returned state is a copy. On error the original state is returned untouched.
func SubmitResult(state models.CompetitionState, matchID string, homeRaw, awayRaw float64) (models.CompetitionState, models.MatchResult, error) {
	for _, raw := range []float64{homeRaw, awayRaw} {
		if math.IsNaN(raw) || math.IsInf(raw, 0) {
			return state, models.MatchResult{}, fmt.Errorf("match %q raw score %v: %w", matchID, raw, models.ErrInvalidScore)
		}
	}
	return SubmitResultDecimal(state, matchID, decimal.NewFromFloat(homeRaw), decimal.NewFromFloat(awayRaw))
}

// SubmitResultDecimal is SubmitResult on exact totals. Raw scores beyond MaxRawScore in either
// direction are rejected with ErrInvalidScore
func SubmitResultDecimal(state models.CompetitionState, matchID string, homeRaw, awayRaw decimal.Decimal) (models.CompetitionState, models.MatchResult, error) {
	for _, raw := range []decimal.Decimal{homeRaw, awayRaw} {
		if !ValidRawScore(raw) {
			return state, models.MatchResult{}, fmt.Errorf("match %q raw score %s outside ±%d: %w", matchID, raw, MaxRawScore, models.ErrInvalidScore)
		}
	}

	ri, mi, ok := state.FindMatch(matchID)
	if !ok {
		return state, models.MatchResult{}, fmt.Errorf("match %q: %w", matchID, models.ErrMatchNotFound)
	}
	match := state.Fixtures[ri].Matches[mi]
	if match.Completed {
		return state, models.MatchResult{}, fmt.Errorf("match %q: %w", matchID, models.ErrAlreadyCompleted)
	}
	home, okHome := state.Standings[match.Home]
	away, okAway := state.Standings[match.Away]
	if !okHome || !okAway {
		return state, models.MatchResult{}, fmt.Errorf("match %q has a team without standings: %w", matchID, models.ErrInconsistentState)
	}

	result := models.MatchResult{
		HomeGoals:    GoalsForDecimal(homeRaw),
		AwayGoals:    GoalsForDecimal(awayRaw),
		HomeRawScore: homeRaw.InexactFloat64(),
		AwayRawScore: awayRaw.InexactFloat64(),
	}

	next := state.Clone()
	completed := &next.Fixtures[ri].Matches[mi]
	completed.Completed = true
	res := result
	completed.Result = &res

	next.Standings[match.Home] = credit(home, result.HomeGoals, result.AwayGoals)
	next.Standings[match.Away] = credit(away, result.AwayGoals, result.HomeGoals)

	return next, result, nil
}

// credit applies one match to a team's stats, from that team's point of view
func credit(s models.TeamStats, scored, conceded int) models.TeamStats {
	s.Played++
	s.GoalsFor += scored
	s.GoalsAgainst += conceded
	switch {
	case scored > conceded:
		s.Wins++
		s.Points += winPoints
	case scored == conceded:
		s.Draws++
		s.Points += drawPoints
	default:
		s.Losses++
	}
	return s
}

// Standings ranks the table by points, then goal difference, then goals scored, then team id.
// The team id fallback makes the order total.
func Standings(standings map[models.TeamID]models.TeamStats) []models.StandingRow {
	rows := make([]models.StandingRow, 0, len(standings))
	for id, stats := range standings {
		rows = append(rows, models.StandingRow{Team: id, TeamStats: stats, GoalDifference: stats.GoalDifference()})
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.GoalDifference != b.GoalDifference {
			return a.GoalDifference > b.GoalDifference
		}
		if a.GoalsFor != b.GoalsFor {
			return a.GoalsFor > b.GoalsFor
		}
		return a.Team < b.Team
	})
	for i := range rows {
		rows[i].Position = i + 1
	}
	return rows
}

// RecomputeStandings rebuilds standings from scratch out of the completed matches. Every team of the
// fixtures gets an entry
func RecomputeStandings(fixtures []models.Round) map[models.TeamID]models.TeamStats {
	standings := map[models.TeamID]models.TeamStats{}
	for _, r := range fixtures {
		for _, m := range r.Matches {
			home, away := standings[m.Home], standings[m.Away]
			if m.Completed && m.Result != nil {
				home = credit(home, m.Result.HomeGoals, m.Result.AwayGoals)
				away = credit(away, m.Result.AwayGoals, m.Result.HomeGoals)
			}
			standings[m.Home] = home
			standings[m.Away] = away
		}
	}
	return standings
}

// Verify checks that the incrementally maintained standings agree with a full recomputation
func Verify(state models.CompetitionState) error {
	for _, r := range state.Fixtures {
		for _, m := range r.Matches {
			if m.Completed != (m.Result != nil) {
				return fmt.Errorf("match %q completed=%t without matching result: %w", m.ID, m.Completed, models.ErrInconsistentState)
			}
		}
	}

	expected := RecomputeStandings(state.Fixtures)
	for id, stats := range state.Standings {
		if stats.Played != stats.Wins+stats.Draws+stats.Losses {
			return fmt.Errorf("team %q played %d but has %d results: %w", id, stats.Played, stats.Wins+stats.Draws+stats.Losses, models.ErrInconsistentState)
		}
		if stats.Points != winPoints*stats.Wins+drawPoints*stats.Draws {
			return fmt.Errorf("team %q has %d points for %d wins and %d draws: %w", id, stats.Points, stats.Wins, stats.Draws, models.ErrInconsistentState)
		}
		want, ok := expected[id]
		if !ok {
			return fmt.Errorf("team %q is not scheduled: %w", id, models.ErrInconsistentState)
		}
		if want != stats {
			return fmt.Errorf("team %q standings %+v, recomputed %+v: %w", id, stats, want, models.ErrInconsistentState)
		}
	}
	for id := range expected {
		if _, ok := state.Standings[id]; !ok {
			return fmt.Errorf("team %q has no standings entry: %w", id, models.ErrInconsistentState)
		}
	}
	return nil
}
