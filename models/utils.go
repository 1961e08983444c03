package models

// ByeTeam is the placeholder that pads an odd field. Matches against it are never scheduled
const ByeTeam TeamID = ""

// IsByeTeam determines if a team is the bye placeholder
func IsByeTeam(t TeamID) bool {
	return t == ByeTeam
}

// IsByeGame determines if a pairing involves the bye placeholder and so should not be played
func IsByeGame(home, away TeamID) bool {
	return IsByeTeam(home) || IsByeTeam(away)
}

// Involves reports whether t plays in m
func (m Match) Involves(t TeamID) bool {
	return m.Home == t || m.Away == t
}

// FindMatch locates a match by id, returning its round and match index
func (s CompetitionState) FindMatch(id string) (roundIdx, matchIdx int, ok bool) {
	for i, r := range s.Fixtures {
		for j, m := range r.Matches {
			if m.ID == id {
				return i, j, true
			}
		}
	}
	return -1, -1, false
}

// AllCompleted reports whether every scheduled match has a result
func (s CompetitionState) AllCompleted() bool {
	for _, r := range s.Fixtures {
		for _, m := range r.Matches {
			if !m.Completed {
				return false
			}
		}
	}
	return true
}
