package imaging

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func noisyPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	rng := rand.New(rand.NewSource(1))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256))})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPrepareUnderBudgetUnchanged(t *testing.T) {
	data := []byte("tiny but not an image")
	require.Equal(t, data, Prepare(data, 1))
}

func TestPrepareInvalidImageReturnsOriginal(t *testing.T) {
	data := bytes.Repeat([]byte{0xFF}, 2048)
	require.Equal(t, data, Prepare(data, 0.001))
}

func TestPrepareDownsizesAndReencodes(t *testing.T) {
	data := noisyPNG(t, 2400, 600)
	out := Prepare(data, 0.1)
	require.NotEqual(t, data, out)

	img, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	require.Equal(t, "jpeg", format)
	require.Equal(t, 2000, img.Bounds().Dx())
	require.Equal(t, 500, img.Bounds().Dy())
	require.Less(t, len(out), len(data))
}

func TestPrepareKeepsDimensionsWhenSmall(t *testing.T) {
	data := noisyPNG(t, 300, 200)
	out := Prepare(data, 0.01)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	require.Equal(t, 300, cfg.Width)
	require.Equal(t, 200, cfg.Height)
}

func TestFitWithin(t *testing.T) {
	w, h := FitWithin(4000, 3000, 2000)
	require.Equal(t, 2000, w)
	require.Equal(t, 1500, h)

	w, h = FitWithin(1000, 5000, 2000)
	require.Equal(t, 400, w)
	require.Equal(t, 2000, h)

	w, h = FitWithin(800, 600, 2000)
	require.Equal(t, 800, w)
	require.Equal(t, 600, h)
}

// pngHeader returns a PNG signature and IHDR chunk declaring w×h RGBA pixels,
// padded with zeros. It is enough for DecodeConfig, not for Decode.
func pngHeader(w, h uint32, pad int) []byte {
	var buf bytes.Buffer
	buf.Write([]byte("\x89PNG\r\n\x1a\n"))
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], w)
	binary.BigEndian.PutUint32(ihdr[4:], h)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 6 // RGBA
	chunk := append([]byte("IHDR"), ihdr...)
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	buf.Write(make([]byte, pad))
	return buf.Bytes()
}

func TestPrepareSkipsHugeDeclaredDimensions(t *testing.T) {
	data := pngHeader(60000, 60000, 4096)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, "png", format)
	require.Equal(t, 60000, cfg.Width)

	require.Equal(t, data, Prepare(data, 0.001))
}

func TestWithinPixelBudget(t *testing.T) {
	require.True(t, WithinPixelBudget(2000, 2000))
	require.True(t, WithinPixelBudget(10000, 5000))
	require.False(t, WithinPixelBudget(60000, 60000))
	require.False(t, WithinPixelBudget(0, 10))
}
