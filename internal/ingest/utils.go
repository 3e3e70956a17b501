package ingest

import (
	"path/filepath"
	"strings"

	"github.com/phanvandien/ocr-script/constants"
)

// IsArchive reports whether path names a ZIP archive.
func IsArchive(path string) bool {
	return constants.NormalizeExt(filepath.Ext(path)) == "zip"
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

// ModeForPath picks the processing mode from the archive's parent directory
// name (e.g. inbox/certificate/x.zip), falling back to def.
func ModeForPath(path string, def constants.Mode) constants.Mode {
	if m, err := constants.ParseMode(filepath.Base(filepath.Dir(path))); err == nil {
		return m
	}
	return def
}
