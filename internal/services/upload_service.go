package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/avdeluca/inkwell-be/internal/apperr"
)

// allowedImageExts lists the accepted featured-image extensions.
var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// UploadServiceProvider defines the interface for upload services.
type UploadServiceProvider interface {
	SaveFeaturedImage(file multipart.File, header *multipart.FileHeader) (string, error)
	Remove(filename string) error
}

// UploadService streams uploaded images into the upload directory.
// The file must be fully written before any post record references it;
// a failed write aborts the surrounding operation.
type UploadService struct {
	dir string
}

// NewUploadService creates a new UploadService rooted at dir.
func NewUploadService(dir string) *UploadService {
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Error().Err(err).Str("dir", dir).Msg("Failed to create upload directory")
	}
	return &UploadService{dir: dir}
}

// SaveFeaturedImage writes the uploaded file under a unique name and
// returns the stored filename.
func (s *UploadService) SaveFeaturedImage(file multipart.File, header *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedImageExts[ext] {
		return "", apperr.InvalidArgument("only jpg, jpeg, png and gif images are allowed")
	}

	name := fmt.Sprintf("%d-%s", time.Now().UnixNano(), sanitizeFilename(header.Filename))
	path := filepath.Join(s.dir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", apperr.Storage(err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(path)
		return "", apperr.Storage(err)
	}
	return name, nil
}

// Remove deletes a stored upload. A missing file is not an error.
func (s *UploadService) Remove(filename string) error {
	if filename == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, filepath.Base(filename)))
	if err != nil && !os.IsNotExist(err) {
		return apperr.Storage(err)
	}
	return nil
}

// sanitizeFilename strips any path components and whitespace from a
// client-supplied name.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '-'
		}
	}, name)
}
