package services

import (
	"context"
	"fmt"

	"github.com/fogna/football-stats/models"
	"github.com/fogna/football-stats/repositories"
	"golang.org/x/sync/errgroup"
)

type DashboardService interface {
	GetStats(ctx context.Context) (models.DashboardStats, error)
}

type dashboardService struct {
	matchRepo repositories.MatchRepository
}

func NewDashboardService(matchRepo repositories.MatchRepository) DashboardService {
	return &dashboardService{matchRepo: matchRepo}
}

// GetStats runs the count queries concurrently; the first failure cancels the rest.
func (s *dashboardService) GetStats(ctx context.Context) (models.DashboardStats, error) {
	var stats models.DashboardStats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.matchRepo.Count(gctx)
		if err != nil {
			return fmt.Errorf("count matches: %w", err)
		}
		stats.MatchesTotal = n
		return nil
	})
	g.Go(func() error {
		n, err := s.matchRepo.CountDistinct(gctx, repositories.FieldLeague)
		if err != nil {
			return fmt.Errorf("count leagues: %w", err)
		}
		stats.LeaguesTotal = n
		return nil
	})
	g.Go(func() error {
		n, err := s.matchRepo.CountDistinct(gctx, repositories.FieldTeam)
		if err != nil {
			return fmt.Errorf("count teams: %w", err)
		}
		stats.TeamsTotal = n
		return nil
	})
	g.Go(func() error {
		seasons, err := s.matchRepo.Distinct(gctx, repositories.FieldSeason, nil)
		if err != nil {
			return fmt.Errorf("list seasons: %w", err)
		}
		stats.Seasons = seasons
		stats.SeasonsTotal = len(seasons)
		return nil
	})

	if err := g.Wait(); err != nil {
		return models.DashboardStats{}, err
	}
	if stats.Seasons == nil {
		stats.Seasons = []string{}
	}
	return stats, nil
}
