package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/fogna/football-stats/models"
	"github.com/fogna/football-stats/services"
	"github.com/go-chi/chi/v5"
)

type AdminHandler struct {
	importService  services.ImportService
	exportService  services.ExportService
	maxUploadBytes int64
}

func NewAdminHandler(importService services.ImportService, exportService services.ExportService, maxUploadBytes int64) *AdminHandler {
	return &AdminHandler{
		importService:  importService,
		exportService:  exportService,
		maxUploadBytes: maxUploadBytes,
	}
}

// Import принимает multipart форму: file, season (необязательно), mode (normal|overwrite).
func (h *AdminHandler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxBytesError *http.MaxBytesError
		if errors.As(err, &maxBytesError) {
			errorResponse(w, r, http.StatusRequestEntityTooLarge, fmt.Sprintf("file must not be larger than %d bytes", maxBytesError.Limit))
			return
		}
		badRequestResponse(w, r, fmt.Errorf("failed to parse multipart form: %w", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		badRequestResponse(w, r, fmt.Errorf("failed to get file from form: %w", err))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		serverErrorResponse(w, r, fmt.Errorf("failed to read uploaded file: %w", err))
		return
	}

	result, err := h.importService.Import(r.Context(), services.ImportInput{
		Filename: header.Filename,
		Content:  content,
		Season:   r.FormValue("season"),
		Mode:     models.ImportMode(r.FormValue("mode")),
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"import": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminHandler) DeleteSeason(w http.ResponseWriter, r *http.Request) {
	season, err := url.PathUnescape(chi.URLParam(r, "season"))
	if err != nil {
		badRequestResponse(w, r, fmt.Errorf("invalid season: %w", err))
		return
	}

	removed, err := h.importService.DeleteSeason(r.Context(), season)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"season": season, "removed": removed}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AdminHandler) ListSeasons(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.importService.SeasonSummaries(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"seasons": summaries}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Export отдает всю таблицу матчей как CSV.
// CSV собирается в памяти: соединение с БД освобождается до отправки клиенту.
func (h *AdminHandler) Export(w http.ResponseWriter, r *http.Request) {
	filename := h.exportService.Filename()

	var buf bytes.Buffer
	rows, err := h.exportService.WriteCSV(r.Context(), &buf)
	if err != nil {
		serverErrorResponse(w, r, fmt.Errorf("export failed: %w", err))
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		logError(r, "export interrupted", err)
		return
	}
	slog.Default().Info("export downloaded", slog.String("file", filename), slog.Int("rows", rows))
}

func (h *AdminHandler) ArchiveExport(w http.ResponseWriter, r *http.Request) {
	archive, err := h.exportService.Archive(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"export": archive}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
