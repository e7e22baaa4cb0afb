package services

import (
	"context"
	"reflect"
	"testing"

	"github.com/fogna/football-stats/models"
)

func TestDashboardStats(t *testing.T) {
	ctx := context.Background()
	repo := newSQLiteRepo(t)
	if _, err := repo.InsertBatch(ctx, []models.MatchRecord{
		played("E0", "2023-2024", "Arsenal", "Chelsea", 1, 0),
		played("SP1", "2023-2024", "Betis", "Alaves", 1, 1),
	}, strp("2023-2024"), models.ImportModeNormal); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := repo.InsertBatch(ctx, []models.MatchRecord{
		played("E0", "2022-2023", "Arsenal", "Burnley", 0, 2),
	}, strp("2022-2023"), models.ImportModeNormal); err != nil {
		t.Fatalf("insert: %v", err)
	}

	stats, err := NewDashboardService(repo).GetStats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	want := models.DashboardStats{
		MatchesTotal: 3,
		SeasonsTotal: 2,
		LeaguesTotal: 2,
		TeamsTotal:   5,
		Seasons:      []string{"2023-2024", "2022-2023"},
	}
	if !reflect.DeepEqual(stats, want) {
		t.Fatalf("got %+v, want %+v", stats, want)
	}
}

func TestDashboardStatsEmpty(t *testing.T) {
	stats, err := NewDashboardService(newSQLiteRepo(t)).GetStats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.MatchesTotal != 0 || stats.Seasons == nil || len(stats.Seasons) != 0 {
		t.Fatalf("unexpected empty stats: %+v", stats)
	}
}
