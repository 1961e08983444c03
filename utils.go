package league

import (
	"bytes"
	"html/template"
	"strconv"

	"github.com/justinjudd/league/models"
	"github.com/justinjudd/league/tournament"
)

// GenerateCompetitionHTML renders the standings table followed by every round of fixtures
func GenerateCompetitionHTML(c models.Competition) ([]byte, error) {
	var out []byte

	out = append(out, []byte("<h1>"+template.HTMLEscapeString(c.Name)+"</h1>")...)

	table, err := StandingsHTML(c)
	if err != nil {
		return nil, err
	}
	out = append(out, table...)

	fixtures, err := FixturesHTML(c)
	if err != nil {
		return nil, err
	}
	out = append(out, fixtures...)

	return out, nil
}

const standingsHTML = `
<table class="standings">
<caption>Standings</caption>
<tr><th>#</th><th>Team</th><th>P</th><th>W</th><th>D</th><th>L</th><th>GF</th><th>GA</th><th>GD</th><th>Pts</th></tr>
{{ range .Rows -}}
<tr{{if leader .Position}} class="leader"{{end}}><td>{{.Position}}</td><td>{{.Team}}</td><td>{{.Played}}</td><td>{{.Wins}}</td><td>{{.Draws}}</td><td>{{.Losses}}</td><td>{{.GoalsFor}}</td><td>{{.GoalsAgainst}}</td><td>{{signed .GoalDifference}}</td><td>{{.Points}}</td></tr>
{{ end -}}
</table>
`

// StandingsHTML renders the ranked league table
func StandingsHTML(c models.Competition) ([]byte, error) {
	funcMap := template.FuncMap{
		"leader": func(position int) bool {
			return position == 1 && c.Status == models.Status_COMPLETED
		},
		"signed": func(n int) string {
			if n > 0 {
				return "+" + strconv.Itoa(n)
			}
			return strconv.Itoa(n)
		},
	}
	tmpl, err := template.New("standings").Funcs(funcMap).Parse(standingsHTML)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	err = tmpl.Execute(&buf, map[string]interface{}{"Rows": tournament.Standings(c.State.Standings)})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

const fixturesHTML = `
{{ range $i, $round := .Rounds }}
<h4{{if current $round.Number}} class="current"{{end}}>Round {{$round.Number}}</h4>
<ul class="round">
{{ range $j, $match := $round.Matches -}}
    <li class="game{{if $match.Completed}} final{{end}}"><span class="home{{if winner $match $match.Home}} winner{{end}}">{{$match.Home}}</span> {{score $match}} <span class="away{{if winner $match $match.Away}} winner{{end}}">{{$match.Away}}</span></li>
{{ end -}}
</ul>
{{ end }}`

// FixturesHTML renders every round, marking the current matchday and decided winners
func FixturesHTML(c models.Competition) ([]byte, error) {
	funcMap := template.FuncMap{
		"current": func(n int) bool {
			return n == c.CurrentRound
		},
		"score": func(m models.Match) string {
			if !m.Completed || m.Result == nil {
				return "vs"
			}
			return strconv.Itoa(m.Result.HomeGoals) + " - " + strconv.Itoa(m.Result.AwayGoals)
		},
		"winner": func(m models.Match, team models.TeamID) bool {
			return IsWinner(team, m)
		},
	}
	tmpl, err := template.New("fixtures").Funcs(funcMap).Parse(fixturesHTML)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	err = tmpl.Execute(&buf, map[string]interface{}{"Rounds": c.State.Fixtures})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// IsWinner reports whether t won the completed match m. Draws have no winner
func IsWinner(t models.TeamID, m models.Match) bool {
	if models.IsByeTeam(t) || !m.Completed || m.Result == nil {
		return false
	}
	switch t {
	case m.Home:
		return m.Result.HomeGoals > m.Result.AwayGoals
	case m.Away:
		return m.Result.AwayGoals > m.Result.HomeGoals
	}
	return false
}
