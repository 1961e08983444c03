package tournament

import (
	"fmt"

	"github.com/justinjudd/league/models"
)

// GenerateFixtures builds a round robin calendar using the circle method. The first team is held fixed as the
// pivot while the rest rotate one place per round. With an odd number of teams a bye is added and its pairings
// are left out, so every team sits out exactly one round per pass.
//
// When doubleRound is set a second pass follows with every pairing reversed, numbered after the first.
// The output depends only on the order of teamIDs.
func GenerateFixtures(teamIDs []models.TeamID, doubleRound bool) ([]models.Round, error) {
	if len(teamIDs) < 2 {
		return nil, fmt.Errorf("need at least 2 teams, got %d: %w", len(teamIDs), models.ErrInsufficientTeams)
	}
	seen := make(map[models.TeamID]bool, len(teamIDs))
	for _, id := range teamIDs {
		if models.IsByeTeam(id) {
			return nil, fmt.Errorf("empty team id: %w", models.ErrInvalidTeam)
		}
		if seen[id] {
			return nil, fmt.Errorf("team %q listed twice: %w", id, models.ErrDuplicateTeam)
		}
		seen[id] = true
	}

	teams := make([]models.TeamID, len(teamIDs), len(teamIDs)+1)
	copy(teams, teamIDs)
	if len(teams)%2 != 0 {
		teams = append(teams, models.ByeTeam)
	}

	passes := len(teams) - 1
	pivot := teams[0]
	others := make([]models.TeamID, passes)
	copy(others, teams[1:])

	rounds := make([]models.Round, 0, 2*passes)
	for r := 0; r < passes; r++ {
		var pairs [][2]models.TeamID
		last := len(others) - 1

		// The pivot's side alternates with round parity
		if r%2 == 0 {
			pairs = append(pairs, [2]models.TeamID{pivot, others[last]})
		} else {
			pairs = append(pairs, [2]models.TeamID{others[last], pivot})
		}
		for i := 0; i < last/2; i++ {
			t1, t2 := others[i], others[last-1-i]
			if r%2 == 0 {
				pairs = append(pairs, [2]models.TeamID{t1, t2})
			} else {
				pairs = append(pairs, [2]models.TeamID{t2, t1})
			}
		}
		rounds = append(rounds, newRound(r+1, pairs))

		// Move the last team to the front
		others = append([]models.TeamID{others[last]}, others[:last]...)
	}

	if doubleRound {
		for r := 0; r < passes; r++ {
			first := rounds[r]
			pairs := make([][2]models.TeamID, len(first.Matches))
			for i, m := range first.Matches {
				pairs[i] = [2]models.TeamID{m.Away, m.Home}
			}
			rounds = append(rounds, newRound(passes+r+1, pairs))
		}
	}

	return rounds, nil
}

func newRound(number int, pairs [][2]models.TeamID) models.Round {
	round := models.Round{Number: number, Matches: make([]models.Match, 0, len(pairs))}
	for _, p := range pairs {
		if models.IsByeGame(p[0], p[1]) {
			continue
		}
		round.Matches = append(round.Matches, models.Match{
			ID:   MatchID(number, len(round.Matches)+1),
			Home: p[0],
			Away: p[1],
		})
	}
	return round
}

// MatchID is the id of the n-th match (1-indexed) of a round
func MatchID(round, n int) string {
	return fmt.Sprintf("%d-%d", round, n)
}

// NewState embeds freshly generated fixtures into a state with every team's standings zeroed
func NewState(teamIDs []models.TeamID, doubleRound bool) (models.CompetitionState, error) {
	fixtures, err := GenerateFixtures(teamIDs, doubleRound)
	if err != nil {
		return models.CompetitionState{}, err
	}
	standings := make(map[models.TeamID]models.TeamStats, len(teamIDs))
	for _, id := range teamIDs {
		standings[id] = models.TeamStats{}
	}
	return models.CompetitionState{Fixtures: fixtures, Standings: standings}, nil
}
