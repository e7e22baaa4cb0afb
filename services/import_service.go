package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"

	"github.com/fogna/football-stats/ingest"
	"github.com/fogna/football-stats/live"
	"github.com/fogna/football-stats/models"
	"github.com/fogna/football-stats/repositories"
	"github.com/fogna/football-stats/storage"
)

// ChangeNotifier получает событие после каждого изменения таблицы матчей.
type ChangeNotifier interface {
	Notify(event string, payload interface{}) error
}

type ImportInput struct {
	Filename string
	Content  []byte
	Season   string
	Mode     models.ImportMode
}

type ImportResult struct {
	Inserted   int      `json:"inserted"`
	Dropped    int      `json:"dropped"`
	Sheets     int      `json:"sheets"`
	Season     *string  `json:"season"`
	Mode       string   `json:"mode"`
	Warnings   []string `json:"warnings,omitempty"`
	ArchiveURL string   `json:"archive_url,omitempty"`
}

type ImportService interface {
	Import(ctx context.Context, input ImportInput) (*ImportResult, error)
	DeleteSeason(ctx context.Context, season string) (int64, error)
	SeasonSummaries(ctx context.Context) ([]models.SeasonSummary, error)
}

type importService struct {
	matchRepo repositories.MatchRepository
	uploader  storage.FileUploader
	notifier  ChangeNotifier
	logger    *slog.Logger
}

// NewImportService builds the import pipeline. uploader and notifier may be nil.
func NewImportService(matchRepo repositories.MatchRepository, uploader storage.FileUploader, notifier ChangeNotifier, logger *slog.Logger) ImportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &importService{
		matchRepo: matchRepo,
		uploader:  uploader,
		notifier:  notifier,
		logger:    logger,
	}
}

func (s *importService) Import(ctx context.Context, input ImportInput) (*ImportResult, error) {
	mode := input.Mode
	if mode == "" {
		mode = models.ImportModeNormal
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidImportMode, mode)
	}

	result := &ImportResult{Mode: string(mode)}

	// Явно указанный сезон важнее сезона из имени файла.
	season := strings.TrimSpace(input.Season)
	if season == "" {
		if fromName, ok := ingest.SeasonFromFilename(input.Filename); ok {
			season = fromName
		} else {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %q", ErrSeasonUnrecognized, filepath.Base(input.Filename)))
		}
	}
	if season != "" {
		if !ingest.ValidSeason(season) {
			return nil, fmt.Errorf("%w: season must look like 2023-2024, got %q", ErrValidationFailed, season)
		}
		result.Season = &season
	}
	if mode == models.ImportModeOverwrite && result.Season == nil {
		return nil, ErrOverwriteNeedsSeason
	}

	sheets, err := ingest.ReadFile(input.Filename, bytes.NewReader(input.Content))
	if err != nil {
		if errors.Is(err, ingest.ErrUnsupportedFormat) {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, filepath.Base(input.Filename))
		}
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	result.Sheets = len(sheets)

	records := make([]models.MatchRecord, 0)
	for _, sheet := range sheets {
		mapped := ingest.MapSheet(sheet)
		records = append(records, mapped.Records...)
		result.Dropped += mapped.Dropped
		if mapped.Dropped > 0 {
			result.Warnings = append(result.Warnings, fmt.Sprintf("sheet %q: %d rows without home or away team skipped", sheet.Name, mapped.Dropped))
		}
		if len(mapped.Ignored) > 0 {
			s.logger.Debug("ignored columns", slog.String("sheet", sheet.Name), slog.Any("columns", mapped.Ignored))
		}
	}

	// Архив пишем до вставки: если вставка не удалась, объект удаляется.
	archived := s.archive(ctx, season, input)

	inserted, err := s.matchRepo.InsertBatch(ctx, records, result.Season, mode)
	if err != nil {
		s.discard(ctx, archived)
		switch {
		case errors.Is(err, repositories.ErrEmptyBatch):
			return nil, ErrImportEmpty
		case errors.Is(err, repositories.ErrOverwriteWithoutSeason):
			return nil, ErrOverwriteNeedsSeason
		case errors.Is(err, repositories.ErrMatchInvalid):
			return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
		default:
			return nil, fmt.Errorf("failed to store imported matches: %w", err)
		}
	}
	result.Inserted = inserted

	s.logger.Info("matches imported",
		slog.String("file", filepath.Base(input.Filename)),
		slog.String("season", season),
		slog.String("mode", string(mode)),
		slog.Int("inserted", inserted),
		slog.Int("dropped", result.Dropped),
	)

	if archived != nil {
		result.ArchiveURL = archived.Location
	}
	s.notify(map[string]interface{}{"action": "import", "season": result.Season, "inserted": inserted})
	return result, nil
}

// archive stores the original upload. Failures are logged only and yield nil.
func (s *importService) archive(ctx context.Context, season string, input ImportInput) *storage.UploadResult {
	if s.uploader == nil {
		return nil
	}
	key := storage.ImportKey(season, input.Filename)
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(input.Filename)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	res, err := s.uploader.Upload(ctx, key, contentType, bytes.NewReader(input.Content))
	if err != nil {
		s.logger.Warn("failed to archive uploaded file", slog.String("key", key), slog.Any("error", err))
		return nil
	}
	return res
}

// discard removes the archive of an upload whose rows were not stored.
func (s *importService) discard(ctx context.Context, archived *storage.UploadResult) {
	if archived == nil {
		return
	}
	// Запрос мог быть отменен, а объект все равно нужно убрать.
	if err := s.uploader.Delete(context.WithoutCancel(ctx), archived.Key); err != nil {
		s.logger.Warn("failed to remove archive of failed import", slog.String("key", archived.Key), slog.Any("error", err))
	}
}

func (s *importService) notify(payload map[string]interface{}) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(live.EventMatchesChanged, payload); err != nil {
		s.logger.Warn("failed to broadcast change", slog.Any("error", err))
	}
}

func (s *importService) DeleteSeason(ctx context.Context, season string) (int64, error) {
	season = strings.TrimSpace(season)
	if season == "" {
		return 0, ErrSeasonRequired
	}
	removed, err := s.matchRepo.DeleteSeason(ctx, season)
	if err != nil {
		return 0, fmt.Errorf("failed to delete season %s: %w", season, err)
	}
	s.logger.Info("season deleted", slog.String("season", season), slog.Int64("removed", removed))
	if removed > 0 {
		s.notify(map[string]interface{}{"action": "delete", "season": season, "removed": removed})
	}
	return removed, nil
}

func (s *importService) SeasonSummaries(ctx context.Context) ([]models.SeasonSummary, error) {
	summaries, err := s.matchRepo.SeasonSummaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load season summaries: %w", err)
	}
	if summaries == nil {
		return []models.SeasonSummary{}, nil
	}
	return summaries, nil
}
