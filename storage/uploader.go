package storage

import (
	"context"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// UploadResult описывает сохраненный объект архива.
type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader хранит исходные файлы импорта и выгрузки CSV.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func sanitizeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Trim(unsafeKeyChars.ReplaceAllString(name, "_"), "_")
	if name == "" || name == "." {
		return "file"
	}
	return name
}

// ImportKey builds imports/<season>/<uuid>-<filename>. An empty season goes under "unknown".
func ImportKey(season, filename string) string {
	if season == "" {
		season = "unknown"
	}
	return path.Join("imports", sanitizeName(season), uuid.NewString()+"-"+sanitizeName(filename))
}

func ExportKey(filename string) string {
	return path.Join("exports", sanitizeName(filename))
}
