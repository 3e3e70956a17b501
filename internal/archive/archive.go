// Package archive enumerates the image members of an uploaded ZIP archive.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/phanvandien/ocr-script/constants"
)

// Entry is an archive member eligible for extraction. Bytes are read on demand.
type Entry struct {
	Name string
	Size int64 // uncompressed size as recorded in the archive
	file *zip.File
}

// Open returns a reader over the entry's uncompressed bytes.
func (e Entry) Open() (io.ReadCloser, error) {
	if e.file == nil {
		return nil, fmt.Errorf("entry %s: no backing archive member", e.Name)
	}
	return e.file.Open()
}

// ReadAll reads the entry, refusing anything larger than limit bytes.
func (e Entry) ReadAll(limit int64) ([]byte, error) {
	rc, err := e.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	b, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", e.Name, err)
	}
	if int64(len(b)) > limit {
		return nil, fmt.Errorf("read %s: exceeds %d bytes", e.Name, limit)
	}
	return b, nil
}

// Open parses a ZIP archive.
func Open(r io.ReaderAt, size int64) (*zip.Reader, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	return zr, nil
}

// Eligible lists image members, skipping directories, macOS resource forks and
// hidden paths. The result is sorted by size ascending, ties broken by name.
func Eligible(zr *zip.Reader) []Entry {
	var out []Entry
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if IsHidden(f.Name) || !AllowedExt(path.Ext(f.Name)) {
			continue
		}
		out = append(out, Entry{Name: f.Name, Size: int64(f.UncompressedSize64), file: f})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Size != out[j].Size {
			return out[i].Size < out[j].Size
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Truncate keeps the first max entries and returns how many were dropped.
func Truncate(entries []Entry, max int) ([]Entry, int) {
	if max <= 0 || len(entries) <= max {
		return entries, 0
	}
	return entries[:max], len(entries) - max
}

// AllowedExt checks if a file extension is a supported image type.
func AllowedExt(ext string) bool {
	return constants.IsImageExt(ext)
}

// IsHidden reports whether any segment of name starts with '.' or is the
// macOS resource-fork folder.
func IsHidden(name string) bool {
	name = strings.ReplaceAll(name, "\\", "/")
	for _, seg := range strings.Split(name, "/") {
		if seg == "" {
			continue
		}
		if strings.HasPrefix(seg, ".") || seg == constants.MacOSResourceDir {
			return true
		}
	}
	return false
}
