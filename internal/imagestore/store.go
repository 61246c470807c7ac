// Package imagestore persists downloaded cover and author images under the
// media directory.
package imagestore

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/lepinkainen/libris/internal/fileutil"
	"github.com/lepinkainen/libris/internal/model"
)

const (
	defaultMaxWidth = 1000
	jpegQuality     = 85
)

// ErrEmptyImage is returned when Save is handed no data.
var ErrEmptyImage = errors.New("imagestore: empty image data")

// Store writes images below Root, as JPEG whenever they can be decoded. Stored paths are relative to
// Root and use forward slashes, e.g. "covers/emma-12.jpg".
type Store struct {
	Root     string
	MaxWidth int
}

// New creates a Store rooted at root. maxWidth <= 0 selects the default.
func New(root string, maxWidth int) *Store {
	if maxWidth <= 0 {
		maxWidth = defaultMaxWidth
	}
	return &Store{Root: root, MaxWidth: maxWidth}
}

// Save decodes data, shrinks it to MaxWidth and writes it as
// "<field>s/<slug(hint)>.jpg". Images the decoder does not support (WebP,
// AVIF, SVG...) are stored unchanged under their own extension. When the name
// is taken a random suffix is appended. It returns the stored relative path.
func (s *Store) Save(owner model.Owner, field string, data []byte, hint string) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyImage
	}
	if field == "" {
		return "", errors.New("imagestore: field is required")
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		mime := mimetype.Detect(data)
		if !strings.HasPrefix(mime.String(), "image/") || mime.Extension() == "" {
			return "", fmt.Errorf("imagestore: decode image for %s %d: %w", owner.OwnerKind(), owner.OwnerID(), err)
		}
		slog.Debug("Storing undecodable image as is", "owner", owner.OwnerKind(), "id", owner.OwnerID(), "type", mime.String())
		return s.write(field, hint, mime.Extension(), func(p string) error {
			return os.WriteFile(p, data, 0o644)
		})
	}

	img = s.fit(img)
	return s.write(field, hint, ".jpg", func(p string) error {
		return imaging.Save(img, p, imaging.JPEGQuality(jpegQuality))
	})
}

// write picks a free name for hint under the field directory and hands the
// absolute path to save.
func (s *Store) write(field, hint, ext string, save func(path string) error) (string, error) {
	dir := field + "s"
	if err := os.MkdirAll(filepath.Join(s.Root, dir), 0o755); err != nil {
		return "", fmt.Errorf("imagestore: create directory: %w", err)
	}

	stem := fileutil.Slugify(strings.TrimSuffix(hint, ".jpg"))
	rel := path.Join(dir, stem+ext)
	if fileutil.FileExists(s.Abs(rel)) {
		rel = path.Join(dir, stem+"-"+uuid.NewString()[:8]+ext)
	}

	if err := save(s.Abs(rel)); err != nil {
		return "", fmt.Errorf("imagestore: write %s: %w", rel, err)
	}
	return rel, nil
}

// Abs resolves a stored relative path to a filesystem path.
func (s *Store) Abs(rel string) string {
	return filepath.Join(s.Root, filepath.FromSlash(rel))
}

func (s *Store) fit(img image.Image) image.Image {
	if img.Bounds().Dx() > s.MaxWidth {
		return imaging.Resize(img, s.MaxWidth, 0, imaging.Lanczos)
	}
	return img
}
