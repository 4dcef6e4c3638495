package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"quickblog/internal/models"

	"github.com/google/uuid"
)

const (
	DefaultUploadDir      = "./uploads"
	maxThumbnailSizeBytes = 2 << 20 // 2MB
)

var allowedThumbnailExts = map[string]struct{}{
	".jpeg": {},
	".jpg":  {},
	".png":  {},
	".gif":  {},
	".webp": {},
}

type SaveThumbnailInput struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ThumbnailService stores post thumbnails on local disk and hands back their
// public URL. It is an interface seam so a bucket-backed store can replace
// the local directory without touching handlers.
type ThumbnailService interface {
	Save(in SaveThumbnailInput) (string, error)
	Remove(url string) error
}

type localThumbnailService struct {
	uploadDir string
}

// NewThumbnailService creates a disk-backed thumbnail store rooted at uploadDir.
func NewThumbnailService(uploadDir string) (ThumbnailService, error) {
	if uploadDir == "" {
		uploadDir = DefaultUploadDir
	}
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir %s: %w", uploadDir, err)
	}
	return &localThumbnailService{uploadDir: uploadDir}, nil
}

// Save validates the upload and writes it under a random filename. Returns
// the public URL path to store on the post.
func (s *localThumbnailService) Save(in SaveThumbnailInput) (string, error) {
	if len(in.Content) == 0 {
		return "", models.NewValidationError("Thumbnail file is empty")
	}
	if len(in.Content) > maxThumbnailSizeBytes {
		return "", models.NewValidationError("Thumbnail too large (max 2MB)")
	}

	ext := strings.ToLower(filepath.Ext(in.Filename))
	if _, ok := allowedThumbnailExts[ext]; !ok {
		return "", models.NewValidationError("Thumbnail must be a jpeg, jpg, png, gif or webp image")
	}
	if in.ContentType != "" && !strings.HasPrefix(in.ContentType, "image/") {
		return "", models.NewValidationError("Thumbnail must be an image")
	}

	name := uuid.NewString() + ext
	path := filepath.Join(s.uploadDir, name)
	if err := os.WriteFile(path, in.Content, 0o644); err != nil {
		return "", models.NewInternalError(fmt.Errorf("failed to store thumbnail: %w", err))
	}

	return "/uploads/" + name, nil
}

// Remove deletes a previously stored thumbnail. Unknown or placeholder URLs
// are ignored.
func (s *localThumbnailService) Remove(url string) error {
	if url == "" || url == models.DefaultThumbnail {
		return nil
	}
	name := strings.TrimPrefix(url, "/uploads/")
	if name == url || strings.Contains(name, "/") || strings.Contains(name, "..") {
		return nil
	}
	err := os.Remove(filepath.Join(s.uploadDir, name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
