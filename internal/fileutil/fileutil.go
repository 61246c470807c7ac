// Package fileutil holds small filesystem helpers shared by the image store
// and the CLI.
package fileutil

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/lepinkainen/libris/internal/names"
)

const maxSlugLength = 80

// Slugify turns a free-form title or name into a lowercase ASCII file name
// stem: accents are stripped, runs of other characters become a single "-".
// An input with nothing usable yields "untitled".
func Slugify(name string) string {
	normalized := names.Normalize(name)

	var b strings.Builder
	dash := false
	for _, r := range normalized {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}

	slug := strings.TrimRight(b.String(), "-")
	if len(slug) > maxSlugLength {
		slug = strings.TrimRight(slug[:maxSlugLength], "-")
	}
	if slug == "" {
		return "untitled"
	}
	return slug
}

// FileExists checks if a regular file exists at the given path
func FileExists(filePath string) bool {
	info, err := os.Stat(filePath)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// WriteFileWithOverwrite writes data to a file, respecting the overwrite flag
// Returns true if the file was written, false if it was skipped
func WriteFileWithOverwrite(filePath string, data []byte, perm os.FileMode, overwrite bool) (bool, error) {
	if FileExists(filePath) && !overwrite {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return false, err
	}

	if err := os.WriteFile(filePath, data, perm); err != nil {
		return false, err
	}

	return true, nil
}
