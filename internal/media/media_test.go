package media

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phanvandien/ocr-script/internal/common"
)

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "scan_01.jpg", SanitizeName("batch/sub dir/scan 01.jpg"))
	assert.Equal(t, "ảnh.png", SanitizeName(`win\path\ảnh.png`))
	assert.Equal(t, "image", SanitizeName("../.."))
}

func TestImageKey(t *testing.T) {
	assert.Equal(t, "sess/007_scan_01.jpg", ImageKey("sess", 7, "a/scan 01.png", "jpg"))
	assert.Equal(t, "sess/000_x.png", ImageKey("sess", 0, "x.png", ".png"))
}

func TestLocalSaveOpen(t *testing.T) {
	l, err := NewLocal(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	ctx := context.Background()

	loc, err := l.Save(ctx, "sess/000_a.jpg", []byte("jpeg"), "image/jpeg")
	require.NoError(t, err)
	assert.FileExists(t, loc)

	rc, err := l.Open(ctx, "sess/000_a.jpg")
	require.NoError(t, err)
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "jpeg", string(b))

	_, err = l.Open(ctx, "sess/missing.jpg")
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestLocalRejectsTraversal(t *testing.T) {
	l, err := NewLocal(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	_, err = l.Save(context.Background(), "../escape.jpg", nil, "")
	require.ErrorIs(t, err, ErrInvalidKey)
	_, err = l.Save(context.Background(), "", nil, "")
	require.ErrorIs(t, err, ErrEmptyKey)
}
