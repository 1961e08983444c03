package tournament

import (
	"github.com/justinjudd/league/models"
)

// Pairing is an unordered pair of teams
type Pairing struct {
	A, B models.TeamID
}

// NewPairing normalizes the order of the two teams so {a,b} and {b,a} compare equal
func NewPairing(a, b models.TeamID) Pairing {
	if a > b {
		a, b = b, a
	}
	return Pairing{a, b}
}

// PairingCounts counts how many times each unordered pair meets across the fixtures
func PairingCounts(fixtures []models.Round) map[Pairing]int {
	counts := map[Pairing]int{}
	for _, r := range fixtures {
		for _, m := range r.Matches {
			counts[NewPairing(m.Home, m.Away)]++
		}
	}
	return counts
}

// TeamFixture is a match seen from one team's side
type TeamFixture struct {
	Round    int           `json:"round"`
	Match    models.Match  `json:"match"`
	Home     bool          `json:"home"`
	Opponent models.TeamID `json:"opponentId"`
}

// TeamFixtures lists a team's matches in round order. Rounds where the team has a bye are absent
func TeamFixtures(fixtures []models.Round, team models.TeamID) []TeamFixture {
	var out []TeamFixture
	for _, r := range fixtures {
		for _, m := range r.Matches {
			if !m.Involves(team) {
				continue
			}
			tf := TeamFixture{Round: r.Number, Match: m, Home: m.Home == team, Opponent: m.Home}
			if tf.Home {
				tf.Opponent = m.Away
			}
			out = append(out, tf)
		}
	}
	return out
}

// ByeRounds returns the numbers of the rounds in which team has no fixture
func ByeRounds(fixtures []models.Round, team models.TeamID) []int {
	var byes []int
	for _, r := range fixtures {
		playing := false
		for _, m := range r.Matches {
			if m.Involves(team) {
				playing = true
				break
			}
		}
		if !playing {
			byes = append(byes, r.Number)
		}
	}
	return byes
}
