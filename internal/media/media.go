// Package media keeps processed copies of batch images so results can link to them.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"regexp"
	"strings"

	"github.com/phanvandien/ocr-script/internal/common"
)

var (
	ErrNotFound   = fmt.Errorf("media: object not found: %w", common.ErrNotFound)
	ErrEmptyKey   = errors.New("media: key must not be empty")
	ErrInvalidKey = errors.New("media: key contains invalid path segment")
)

// Store saves and reads image bytes by key.
type Store interface {
	// Save writes data and returns where it can be read from.
	Save(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

type Config struct {
	Driver           string // local | azblob
	Root             string
	ConnectionString string
	Container        string
}

// New returns the Store for cfg.Driver.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Driver {
	case "", "local":
		return NewLocal(cfg.Root, logger)
	case "azblob":
		return NewAzure(ctx, cfg.ConnectionString, cfg.Container, logger)
	default:
		return nil, fmt.Errorf("media: unknown driver %q", cfg.Driver)
	}
}

var unsafeChars = regexp.MustCompile(`[^\p{L}\p{M}\p{N}._-]+`)

// SanitizeName flattens an archive member name into a single safe path segment.
func SanitizeName(name string) string {
	base := path.Base(strings.ReplaceAll(name, `\`, "/"))
	base = unsafeChars.ReplaceAllString(base, "_")
	base = strings.Trim(base, "._")
	if base == "" {
		return "image"
	}
	return base
}

// ImageKey is the per-run unique key of the index-th image of a session.
func ImageKey(sessionID string, index int, name, ext string) string {
	stem := strings.TrimSuffix(SanitizeName(name), path.Ext(SanitizeName(name)))
	if stem == "" {
		stem = "image"
	}
	return fmt.Sprintf("%s/%03d_%s.%s", SanitizeName(sessionID), index, stem, strings.TrimPrefix(ext, "."))
}

// ReplacementKey derives a key from the full member name, so members with the
// same base name in different folders stay apart.
func ReplacementKey(sessionID, name, ext string) string {
	flat := strings.NewReplacer(`\`, "_", "/", "_").Replace(name)
	stem := strings.TrimSuffix(SanitizeName(flat), path.Ext(SanitizeName(flat)))
	if stem == "" {
		stem = "image"
	}
	return fmt.Sprintf("%s/replaced/%s.%s", SanitizeName(sessionID), stem, strings.TrimPrefix(ext, "."))
}

func validateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return ErrInvalidKey
	}
	return nil
}
