package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/fogna/football-stats/models"
	"github.com/fogna/football-stats/repositories"
	"github.com/shopspring/decimal"
)

// DefaultWinThreshold is the leaderboard cut-off, in percent, when none is given.
const DefaultWinThreshold = 65.0

type StandingsService interface {
	GetStandings(ctx context.Context, league, season string) ([]models.TeamStanding, error)
	GetLeaderboard(ctx context.Context, seasons []string, threshold float64) ([]models.TeamStanding, error)
	ListSeasons(ctx context.Context, league string) ([]string, error)
	ListLeagues(ctx context.Context, season string) ([]string, error)
	ListTeams(ctx context.Context, league, season string) ([]string, error)
	ListMatches(ctx context.Context, league, season string) ([]models.MatchRecord, error)
}

type standingsService struct {
	matchRepo repositories.MatchRepository
}

func NewStandingsService(matchRepo repositories.MatchRepository) StandingsService {
	return &standingsService{matchRepo: matchRepo}
}

func (s *standingsService) GetStandings(ctx context.Context, league, season string) ([]models.TeamStanding, error) {
	league, season = strings.TrimSpace(league), strings.TrimSpace(season)
	if league == "" || season == "" {
		return nil, fmt.Errorf("%w: league and season are required", ErrValidationFailed)
	}

	matches, err := s.matchRepo.QueryMatches(ctx, models.MatchFilter{Div: league, Season: season})
	if err != nil {
		return nil, fmt.Errorf("failed to load matches for %s %s: %w", league, season, err)
	}
	return BuildStandings(matches, league, season), nil
}

func (s *standingsService) GetLeaderboard(ctx context.Context, seasons []string, threshold float64) ([]models.TeamStanding, error) {
	if math.IsNaN(threshold) || math.IsInf(threshold, 0) || threshold < 0 || threshold > 100 {
		return nil, fmt.Errorf("%w: threshold must be between 0 and 100, got %v", ErrValidationFailed, threshold)
	}

	seasons = normalizeSeasons(seasons)
	if len(seasons) == 0 {
		return []models.TeamStanding{}, nil
	}

	matches, err := s.matchRepo.QueryMatches(ctx, models.MatchFilter{Seasons: seasons})
	if err != nil {
		return nil, fmt.Errorf("failed to load matches for seasons %v: %w", seasons, err)
	}
	return BuildLeaderboard(matches, decimal.NewFromFloat(threshold)), nil
}

func (s *standingsService) ListSeasons(ctx context.Context, league string) ([]string, error) {
	var filter *repositories.FieldFilter
	if league = strings.TrimSpace(league); league != "" {
		filter = &repositories.FieldFilter{Field: repositories.FieldLeague, Value: league}
	}
	return s.matchRepo.Distinct(ctx, repositories.FieldSeason, filter)
}

func (s *standingsService) ListLeagues(ctx context.Context, season string) ([]string, error) {
	var filter *repositories.FieldFilter
	if season = strings.TrimSpace(season); season != "" {
		filter = &repositories.FieldFilter{Field: repositories.FieldSeason, Value: season}
	}
	return s.matchRepo.Distinct(ctx, repositories.FieldLeague, filter)
}

func (s *standingsService) ListTeams(ctx context.Context, league, season string) ([]string, error) {
	league, season = strings.TrimSpace(league), strings.TrimSpace(season)
	switch {
	case league != "" && season != "":
		matches, err := s.matchRepo.QueryMatches(ctx, models.MatchFilter{Div: league, Season: season})
		if err != nil {
			return nil, err
		}
		seen := make(map[string]struct{})
		teams := make([]string, 0)
		for _, m := range matches {
			for _, t := range []string{m.HomeTeam, m.AwayTeam} {
				if _, ok := seen[t]; !ok {
					seen[t] = struct{}{}
					teams = append(teams, t)
				}
			}
		}
		sort.Strings(teams)
		return teams, nil
	case league != "":
		return s.matchRepo.Distinct(ctx, repositories.FieldTeam, &repositories.FieldFilter{Field: repositories.FieldLeague, Value: league})
	case season != "":
		return s.matchRepo.Distinct(ctx, repositories.FieldTeam, &repositories.FieldFilter{Field: repositories.FieldSeason, Value: season})
	default:
		return s.matchRepo.Distinct(ctx, repositories.FieldTeam, nil)
	}
}

func (s *standingsService) ListMatches(ctx context.Context, league, season string) ([]models.MatchRecord, error) {
	league, season = strings.TrimSpace(league), strings.TrimSpace(season)
	if league == "" && season == "" {
		return nil, fmt.Errorf("%w: league or season is required", ErrValidationFailed)
	}
	return s.matchRepo.QueryMatches(ctx, models.MatchFilter{Div: league, Season: season})
}

// normalizeSeasons trims, drops blanks and removes duplicates, keeping the first occurrence.
func normalizeSeasons(seasons []string) []string {
	out := make([]string, 0, len(seasons))
	seen := make(map[string]struct{}, len(seasons))
	for _, s := range seasons {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
