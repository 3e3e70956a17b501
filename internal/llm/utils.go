package llm

import (
	"encoding/base64"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/phanvandien/ocr-script/constants"
)

// DetectImageMIME sniffs the content type of an image, falling back to the
// filename extension when the bytes are not recognized.
func DetectImageMIME(data []byte, filename string) string {
	if mt := http.DetectContentType(data); strings.HasPrefix(mt, "image/") {
		return mt
	}
	if constants.IsImageExt(filepath.Ext(filename)) {
		return constants.MimeForExt(filepath.Ext(filename))
	}
	return "image/jpeg"
}

// DataURL encodes image bytes as a base64 data URL.
func DataURL(data []byte, mimeType string) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
