package tournament

import (
	"math"

	"github.com/shopspring/decimal"
)

// MaxRawScore bounds the magnitude of a raw score accepted for a match
const MaxRawScore = 1_000_000

// MaxGoals is the goal count GoalsFor saturates at
const MaxGoals = math.MaxInt32

var (
	goalThreshold = decimal.NewFromInt(66)
	goalBand      = decimal.NewFromInt(6)
	maxRawScore   = decimal.NewFromInt(MaxRawScore)
	maxGoalBands  = decimal.NewFromInt(MaxGoals - 1)
)

// GoalsFor converts a team's fantasy point total into goals: nothing below 66, then one goal
// plus another for every full 6 points above 66.
//
// The float is read as its shortest decimal representation, so 71.9 stays below the 72 boundary.
// NaN and -Inf give no goals, +Inf gives MaxGoals.
func GoalsFor(points float64) int {
	switch {
	case math.IsNaN(points), math.IsInf(points, -1):
		return 0
	case math.IsInf(points, 1):
		return MaxGoals
	}
	return GoalsForDecimal(decimal.NewFromFloat(points))
}

// GoalsForDecimal is GoalsFor on an exact decimal
func GoalsForDecimal(points decimal.Decimal) int {
	if points.LessThan(goalThreshold) {
		return 0
	}
	// Quotient is truncated and the remainder exact, and the dividend is non-negative here, so this is floor
	q, _ := points.Sub(goalThreshold).QuoRem(goalBand, 0)
	if q.GreaterThanOrEqual(maxGoalBands) {
		return MaxGoals
	}
	return 1 + int(q.IntPart())
}

// ValidRawScore reports whether a raw score can be recorded for a match
func ValidRawScore(points decimal.Decimal) bool {
	return points.Abs().LessThanOrEqual(maxRawScore)
}

// Role is a player's position. Only goalkeepers earn the clean sheet bonus
type Role string

const (
	RoleGoalkeeper Role = "POR"
	RoleDefender   Role = "D"
	RoleMidfielder Role = "C"
	RoleForward    Role = "A"
)

// Events counts what a player did in a match
type Events struct {
	Goals           int  `json:"goals,omitempty"`
	PenaltiesScored int  `json:"penaltiesScored,omitempty"`
	Assists         int  `json:"assists,omitempty"`
	PenaltiesSaved  int  `json:"penaltiesSaved,omitempty"`
	PenaltiesMissed int  `json:"penaltiesMissed,omitempty"`
	OwnGoals        int  `json:"ownGoals,omitempty"`
	YellowCards     int  `json:"yellowCards,omitempty"`
	RedCards        int  `json:"redCards,omitempty"`
	GoalsConceded   int  `json:"goalsConceded,omitempty"`
	CleanSheet      bool `json:"cleanSheet,omitempty"`
}

// PlayerPerformance is a player's grade for a match plus the events that adjust it
type PlayerPerformance struct {
	PlayerID string          `json:"playerId"`
	Role     Role            `json:"role"`
	Grade    decimal.Decimal `json:"grade"`
	Events   Events          `json:"events"`
}

// ScoringRules are the bonus and malus values applied per event
type ScoringRules struct {
	Goal          decimal.Decimal
	PenaltyGoal   decimal.Decimal
	Assist        decimal.Decimal
	CleanSheetGK  decimal.Decimal
	PenaltySaved  decimal.Decimal
	PenaltyMissed decimal.Decimal
	OwnGoal       decimal.Decimal
	YellowCard    decimal.Decimal
	RedCard       decimal.Decimal
	ConcededGoal  decimal.Decimal
}

// DefaultScoringRules are the standard league rules
func DefaultScoringRules() ScoringRules {
	return ScoringRules{
		Goal:          decimal.NewFromInt(3),
		PenaltyGoal:   decimal.NewFromInt(3),
		Assist:        decimal.NewFromInt(1),
		CleanSheetGK:  decimal.NewFromInt(1),
		PenaltySaved:  decimal.NewFromInt(3),
		PenaltyMissed: decimal.NewFromInt(-3),
		OwnGoal:       decimal.NewFromInt(-2),
		YellowCard:    decimal.RequireFromString("-0.5"),
		RedCard:       decimal.NewFromInt(-1),
		ConcededGoal:  decimal.NewFromInt(-1),
	}
}

// PlayerScore is a scored performance
type PlayerScore struct {
	Grade decimal.Decimal `json:"grade"`
	Bonus decimal.Decimal `json:"bonus"`
	Total decimal.Decimal `json:"total"`
}

// Score applies the rules to a single performance
func (r ScoringRules) Score(p PlayerPerformance) PlayerScore {
	times := func(n int, v decimal.Decimal) decimal.Decimal {
		return v.Mul(decimal.NewFromInt(int64(n)))
	}

	e := p.Events
	bonus := decimal.Zero.
		Add(times(e.Goals, r.Goal)).
		Add(times(e.PenaltiesScored, r.PenaltyGoal)).
		Add(times(e.Assists, r.Assist)).
		Add(times(e.PenaltiesSaved, r.PenaltySaved)).
		Add(times(e.PenaltiesMissed, r.PenaltyMissed)).
		Add(times(e.OwnGoals, r.OwnGoal)).
		Add(times(e.YellowCards, r.YellowCard)).
		Add(times(e.RedCards, r.RedCard)).
		Add(times(e.GoalsConceded, r.ConcededGoal))
	if p.Role == RoleGoalkeeper && e.CleanSheet {
		bonus = bonus.Add(r.CleanSheetGK)
	}

	return PlayerScore{Grade: p.Grade, Bonus: bonus, Total: p.Grade.Add(bonus)}
}

// TeamTotal sums the totals of a lineup
func (r ScoringRules) TeamTotal(lineup []PlayerPerformance) decimal.Decimal {
	total := decimal.Zero
	for _, p := range lineup {
		total = total.Add(r.Score(p).Total)
	}
	return total
}
