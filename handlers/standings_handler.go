package handlers

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/fogna/football-stats/services"
)

type StandingsHandler struct {
	standingsService services.StandingsService
}

func NewStandingsHandler(s services.StandingsService) *StandingsHandler {
	return &StandingsHandler{standingsService: s}
}

func (h *StandingsHandler) Standings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	league, season := q.Get("league"), q.Get("season")

	standings, err := h.standingsService.GetStandings(r.Context(), league, season)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"league": league, "season": season, "standings": standings}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Leaderboard принимает ?season=a&season=b или ?seasons=a,b и необязательный threshold.
func (h *StandingsHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	seasons := q["season"]
	for _, list := range q["seasons"] {
		seasons = append(seasons, strings.Split(list, ",")...)
	}

	threshold, err := parseThreshold(q.Get("threshold"))
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	board, err := h.standingsService.GetLeaderboard(r.Context(), seasons, threshold)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"threshold": threshold, "leaderboard": board}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func parseThreshold(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return services.DefaultWinThreshold, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("threshold must be a number, got %q", raw)
	}
	return v, nil
}

func (h *StandingsHandler) Seasons(w http.ResponseWriter, r *http.Request) {
	seasons, err := h.standingsService.ListSeasons(r.Context(), r.URL.Query().Get("league"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"seasons": seasons}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *StandingsHandler) Leagues(w http.ResponseWriter, r *http.Request) {
	leagues, err := h.standingsService.ListLeagues(r.Context(), r.URL.Query().Get("season"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"leagues": leagues}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *StandingsHandler) Teams(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	teams, err := h.standingsService.ListTeams(r.Context(), q.Get("league"), q.Get("season"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"teams": teams}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *StandingsHandler) Matches(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	matches, err := h.standingsService.ListMatches(r.Context(), q.Get("league"), q.Get("season"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
