package storage

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var ErrInvalidKey = errors.New("invalid object key")

// localDiskUploader кладет файлы в локальную папку, когда R2 не настроен.
type localDiskUploader struct {
	root string
}

func NewLocalDiskUploader(root string) (FileUploader, error) {
	if root == "" {
		return nil, errors.New("archive directory is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve archive directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}
	return &localDiskUploader{root: abs}, nil
}

func (u *localDiskUploader) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(strings.TrimPrefix(key, "/")))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(u.root, clean), nil
}

func (u *localDiskUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dst, err := u.path(key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, fmt.Errorf("create directory for %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file for %s: %w", key, err)
	}
	defer os.Remove(tmp.Name())

	hash := md5.New()
	if _, err := io.Copy(io.MultiWriter(tmp, hash), reader); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return nil, fmt.Errorf("move %s into place: %w", key, err)
	}

	return &UploadResult{
		Key:      key,
		Location: u.GetPublicURL(key),
		ETag:     hex.EncodeToString(hash.Sum(nil)),
	}, nil
}

func (u *localDiskUploader) Delete(ctx context.Context, key string) error {
	dst, err := u.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(dst); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (u *localDiskUploader) GetPublicURL(key string) string {
	dst, err := u.path(key)
	if err != nil {
		return ""
	}
	return "file://" + filepath.ToSlash(dst)
}
