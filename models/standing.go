package models

// TeamStanding is one team's aggregate within a league and season.
// It is computed on demand and never persisted.
type TeamStanding struct {
	Rank           int    `json:"rank"`
	Team           string `json:"team"`
	League         string `json:"league"`
	Season         string `json:"season"`
	Played         int    `json:"played"`
	Wins           int    `json:"wins"`
	Draws          int    `json:"draws"`
	Losses         int    `json:"losses"`
	GoalsFor       int    `json:"goals_for"`
	GoalsAgainst   int    `json:"goals_against"`
	GoalDifference int    `json:"goal_difference"`
	Points         int    `json:"points"`

	// WinPct is only filled for leaderboard rows.
	WinPct *float64 `json:"win_pct,omitempty"`
}
