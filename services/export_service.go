package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/fogna/football-stats/models"
	"github.com/fogna/football-stats/repositories"
	"github.com/fogna/football-stats/storage"
)

var ErrArchiveUnavailable = errors.New("file archive is not configured")

// exportHeader uses the internal column names.
var exportHeader = []string{
	"id", "div", "date", "time", "home_team", "away_team",
	"fthg", "ftag", "ftr", "hthg", "htag", "htr",
	"hs", "as_team", "hst", "ast", "hf", "af", "hc", "ac", "hy", "ay", "hr", "ar",
	"season", "created_at",
}

type ExportArchive struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	Rows int    `json:"rows"`
}

type ExportService interface {
	Filename() string
	WriteCSV(ctx context.Context, w io.Writer) (int, error)
	Archive(ctx context.Context) (*ExportArchive, error)
}

type exportService struct {
	matchRepo repositories.MatchRepository
	uploader  storage.FileUploader
	logger    *slog.Logger
	now       func() time.Time
}

func NewExportService(matchRepo repositories.MatchRepository, uploader storage.FileUploader, logger *slog.Logger) ExportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &exportService{
		matchRepo: matchRepo,
		uploader:  uploader,
		logger:    logger,
		now:       time.Now,
	}
}

// Filename returns fogna_YYYYMMDD.csv for today.
func (s *exportService) Filename() string {
	return "fogna_" + s.now().Format("20060102") + ".csv"
}

func (s *exportService) WriteCSV(ctx context.Context, w io.Writer) (int, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return 0, fmt.Errorf("write export header: %w", err)
	}

	rows := 0
	err := s.matchRepo.StreamAll(ctx, func(m models.MatchRecord) error {
		rows++
		return cw.Write(exportRow(m))
	})
	if err != nil {
		return rows, fmt.Errorf("failed to export matches: %w", err)
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return rows, fmt.Errorf("flush export: %w", err)
	}
	return rows, nil
}

func (s *exportService) Archive(ctx context.Context) (*ExportArchive, error) {
	if s.uploader == nil {
		return nil, ErrArchiveUnavailable
	}

	var buf bytes.Buffer
	rows, err := s.WriteCSV(ctx, &buf)
	if err != nil {
		return nil, err
	}

	key := storage.ExportKey(s.Filename())
	res, err := s.uploader.Upload(ctx, key, "text/csv", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to archive export: %w", err)
	}
	s.logger.Info("export archived", slog.String("key", res.Key), slog.Int("rows", rows))
	return &ExportArchive{Key: res.Key, URL: res.Location, Rows: rows}, nil
}

func exportRow(m models.MatchRecord) []string {
	return []string{
		strconv.FormatInt(m.ID, 10),
		m.Div,
		derefString(m.Date),
		derefString(m.Time),
		m.HomeTeam,
		m.AwayTeam,
		formatCount(m.FTHG),
		formatCount(m.FTAG),
		formatResult(m.FTR),
		formatCount(m.HTHG),
		formatCount(m.HTAG),
		formatResult(m.HTR),
		formatCount(m.HomeShots),
		formatCount(m.AwayShots),
		formatCount(m.HomeShotsOnTarget),
		formatCount(m.AwayShotsOnTarget),
		formatCount(m.HomeFouls),
		formatCount(m.AwayFouls),
		formatCount(m.HomeCorners),
		formatCount(m.AwayCorners),
		formatCount(m.HomeYellow),
		formatCount(m.AwayYellow),
		formatCount(m.HomeRed),
		formatCount(m.AwayRed),
		derefString(m.Season),
		m.CreatedAt.UTC().Format(time.RFC3339),
	}
}
