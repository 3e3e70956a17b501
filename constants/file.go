package constants

import "strings"

// ImageExtensions holds the archive member extensions eligible for extraction.
var ImageExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"webp": {},
	"bmp":  {},
	"gif":  {},
}

const (
	// MaxEntryBytes rejects an archive member before dispatch.
	MaxEntryBytes = 15 * 1024 * 1024
	// MaxVisionMB is the size budget an image is shrunk to before it is sent to the model.
	MaxVisionMB = 3.0
	// MaxImagesDefault caps how many images a single batch processes.
	MaxImagesDefault = 50
	// MacOSResourceDir is the resource-fork folder macOS adds to archives.
	MacOSResourceDir = "__MACOSX"
	// DefaultExcelFilename is used when the caller leaves the output name blank.
	DefaultExcelFilename = "ocr_ketqua.xlsx"
)

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsImageExt reports whether ext (with or without dot) is a supported image type.
func IsImageExt(ext string) bool {
	_, ok := ImageExtensions[NormalizeExt(ext)]
	return ok
}

// MimeForExt maps an image extension to its MIME type.
func MimeForExt(ext string) string {
	switch NormalizeExt(ext) {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "webp":
		return "image/webp"
	case "bmp":
		return "image/bmp"
	case "gif":
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}
