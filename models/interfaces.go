package models

import (
	"context"
	"time"
)

// Status is the basic status for competitions and matches
type Status int32

const (
	Status_NEW       Status = 0
	Status_ONGOING   Status = 1
	Status_COMPLETED Status = 2
)

func (s Status) String() string {
	switch s {
	case Status_NEW:
		return "NEW"
	case Status_ONGOING:
		return "ONGOING"
	case Status_COMPLETED:
		return "COMPLETED"
	}
	return "UNKNOWN"
}

// TeamID is the opaque identifier of a team. It is only ever compared, never inspected
type TeamID string

// MatchResult is what a completed match records. Raw scores are kept for auditing the goal conversion
type MatchResult struct {
	HomeGoals    int     `json:"homeGoals"`
	AwayGoals    int     `json:"awayGoals"`
	HomeRawScore float64 `json:"homeRawScore"`
	AwayRawScore float64 `json:"awayRawScore"`
}

// Match is a single scheduled fixture. Identity and teams never change after scheduling
type Match struct {
	ID        string       `json:"id"`
	Home      TeamID       `json:"homeTeamId"`
	Away      TeamID       `json:"awayTeamId"`
	Completed bool         `json:"completed"`
	Result    *MatchResult `json:"result,omitempty"`
}

// Round is a matchday. A round may hold fewer matches than half the teams when a bye occurs
type Round struct {
	Number  int     `json:"number"`
	Matches []Match `json:"matches"`
}

// TeamStats are a team's season aggregates
type TeamStats struct {
	Played       int `json:"played"`
	Wins         int `json:"wins"`
	Draws        int `json:"draws"`
	Losses       int `json:"losses"`
	GoalsFor     int `json:"goalsFor"`
	GoalsAgainst int `json:"goalsAgainst"`
	Points       int `json:"points"`
}

// GoalDifference is goals scored minus goals conceded
func (s TeamStats) GoalDifference() int {
	return s.GoalsFor - s.GoalsAgainst
}

// CompetitionState is the fixtures plus standings document. Fixtures are produced once by the scheduler,
// standings only change when a match is completed
type CompetitionState struct {
	Fixtures  []Round              `json:"fixtures"`
	Standings map[TeamID]TeamStats `json:"standings"`
}

// Clone returns a deep copy, so a transition can never alias the state it started from
func (s CompetitionState) Clone() CompetitionState {
	out := CompetitionState{
		Fixtures:  make([]Round, len(s.Fixtures)),
		Standings: make(map[TeamID]TeamStats, len(s.Standings)),
	}
	for i, r := range s.Fixtures {
		matches := make([]Match, len(r.Matches))
		for j, m := range r.Matches {
			if m.Result != nil {
				res := *m.Result
				m.Result = &res
			}
			matches[j] = m
		}
		out.Fixtures[i] = Round{Number: r.Number, Matches: matches}
	}
	for id, stats := range s.Standings {
		out.Standings[id] = stats
	}
	return out
}

// Matches returns every match of the season in round order
func (s CompetitionState) Matches() []Match {
	var matches []Match
	for _, r := range s.Fixtures {
		matches = append(matches, r.Matches...)
	}
	return matches
}

// Competition is the stored document wrapping a CompetitionState with its bookkeeping
type Competition struct {
	ID           string           `json:"id" storm:"id"`
	Name         string           `json:"name"`
	ShareCode    string           `json:"shareCode" storm:"unique"`
	DoubleRound  bool             `json:"doubleRound"`
	CurrentRound int              `json:"currentRound"`
	Status       Status           `json:"status"`
	Version      int              `json:"version"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
	State        CompetitionState `json:"state"`
}

// StandingRow is one line of the ranked league table
type StandingRow struct {
	Position int    `json:"position"`
	Team     TeamID `json:"teamId"`
	TeamStats
	GoalDifference int `json:"goalDifference"`
}

// ResultEntry is the audit record of an accepted result submission
type ResultEntry struct {
	Seq           int       `json:"seq" storm:"id,increment"`
	CompetitionID string    `json:"competitionId" storm:"index"`
	MatchID       string    `json:"matchId"`
	Home          TeamID    `json:"homeTeamId"`
	Away          TeamID    `json:"awayTeamId"`
	HomeRawScore  float64   `json:"homeRawScore"`
	AwayRawScore  float64   `json:"awayRawScore"`
	HomeGoals     int       `json:"homeGoals"`
	AwayGoals     int       `json:"awayGoals"`
	Version       int       `json:"version"`
	SubmittedAt   time.Time `json:"submittedAt"`
}

// StorageEngine is a backing that stores competitions between requests
type StorageEngine interface {
	// Save stores c. c.Version must be exactly one past the stored version (1 for a new competition)
	Save(ctx context.Context, c Competition) error
	// SaveResult stores c and appends entry in a single transaction
	SaveResult(ctx context.Context, c Competition, entry ResultEntry) error
	GetCompetition(ctx context.Context, id string) (Competition, error)
	GetCompetitionByShareCode(ctx context.Context, code string) (Competition, error)
	GetCompetitions(ctx context.Context) ([]Competition, error)
	GetResults(ctx context.Context, competitionID string) ([]ResultEntry, error)
	DeleteCompetition(ctx context.Context, id string) error
}
