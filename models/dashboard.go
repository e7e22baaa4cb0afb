package models

type DashboardStats struct {
	MatchesTotal int      `json:"matches_total"`
	SeasonsTotal int      `json:"seasons_total"`
	LeaguesTotal int      `json:"leagues_total"`
	TeamsTotal   int      `json:"teams_total"`
	Seasons      []string `json:"seasons"`
}
