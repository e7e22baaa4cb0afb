package services

import (
	"sort"

	"github.com/fogna/football-stats/models"
	"github.com/shopspring/decimal"
)

// teamLine is one match seen from one side: the team, its goals and the opponent's.
type teamLine struct {
	team         string
	league       string
	season       string
	goalsFor     int
	goalsAgainst int
}

type groupKey struct {
	team   string
	league string
	season string
}

// expandMatches turns every scored fixture into a home line and an away line.
// Fixtures without a full-time score are not counted as played.
func expandMatches(matches []models.MatchRecord) []teamLine {
	lines := make([]teamLine, 0, len(matches)*2)
	for _, m := range matches {
		if !m.HasFullTimeScore() {
			continue
		}
		season := ""
		if m.Season != nil {
			season = *m.Season
		}
		lines = append(lines,
			teamLine{team: m.HomeTeam, league: m.Div, season: season, goalsFor: *m.FTHG, goalsAgainst: *m.FTAG},
			teamLine{team: m.AwayTeam, league: m.Div, season: season, goalsFor: *m.FTAG, goalsAgainst: *m.FTHG},
		)
	}
	return lines
}

// accumulate groups lines by key and sums the results. Order of first appearance is kept.
func accumulate(lines []teamLine, keyOf func(teamLine) groupKey) []*models.TeamStanding {
	index := make(map[groupKey]*models.TeamStanding)
	order := make([]*models.TeamStanding, 0)
	for _, l := range lines {
		k := keyOf(l)
		s, ok := index[k]
		if !ok {
			s = &models.TeamStanding{Team: k.team, League: k.league, Season: k.season}
			index[k] = s
			order = append(order, s)
		}
		s.Played++
		s.GoalsFor += l.goalsFor
		s.GoalsAgainst += l.goalsAgainst
		switch {
		case l.goalsFor > l.goalsAgainst:
			s.Wins++
		case l.goalsFor == l.goalsAgainst:
			s.Draws++
		default:
			s.Losses++
		}
	}
	for _, s := range order {
		s.GoalDifference = s.GoalsFor - s.GoalsAgainst
		s.Points = s.Wins*3 + s.Draws
	}
	return order
}

// BuildStandings computes the league table of one league and season.
// Order: points, goal difference, goals for (all descending), then team name.
func BuildStandings(matches []models.MatchRecord, league, season string) []models.TeamStanding {
	rows := accumulate(expandMatches(matches), func(l teamLine) groupKey {
		return groupKey{team: l.team}
	})

	sort.SliceStable(rows, func(i, j int) bool {
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

	standings := make([]models.TeamStanding, len(rows))
	for i, s := range rows {
		s.Rank = i + 1
		s.League = league
		s.Season = season
		standings[i] = *s
	}
	return standings
}

// WinPercentage returns wins/played*100 rounded half away from zero to one decimal.
func WinPercentage(wins, played int) decimal.Decimal {
	if played == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(wins) * 100).Div(decimal.NewFromInt(int64(played))).Round(1)
}

// BuildLeaderboard ranks every team per league and season by win percentage, keeping
// groups whose rounded percentage reaches threshold. The comparison uses the rounded
// value, the same one that is returned.
func BuildLeaderboard(matches []models.MatchRecord, threshold decimal.Decimal) []models.TeamStanding {
	rows := accumulate(expandMatches(matches), func(l teamLine) groupKey {
		return groupKey{team: l.team, league: l.league, season: l.season}
	})

	type ranked struct {
		row *models.TeamStanding
		pct decimal.Decimal
	}
	kept := make([]ranked, 0, len(rows))
	for _, s := range rows {
		pct := WinPercentage(s.Wins, s.Played)
		if pct.LessThan(threshold) {
			continue
		}
		kept = append(kept, ranked{row: s, pct: pct})
	}

	sort.SliceStable(kept, func(i, j int) bool {
		a, b := kept[i], kept[j]
		if c := a.pct.Cmp(b.pct); c != 0 {
			return c > 0
		}
		if a.row.Points != b.row.Points {
			return a.row.Points > b.row.Points
		}
		if a.row.Played != b.row.Played {
			return a.row.Played > b.row.Played
		}
		if a.row.Team != b.row.Team {
			return a.row.Team < b.row.Team
		}
		if a.row.League != b.row.League {
			return a.row.League < b.row.League
		}
		return a.row.Season > b.row.Season
	})

	board := make([]models.TeamStanding, len(kept))
	for i, k := range kept {
		pct := k.pct.InexactFloat64()
		k.row.Rank = i + 1
		k.row.WinPct = &pct
		board[i] = *k.row
	}
	return board
}
