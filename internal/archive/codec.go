package archive

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/starford/grampsxml/internal/apperr"
	"github.com/starford/grampsxml/internal/storage"
)

var gzipMagic = []byte{0x1f, 0x8b}

// Compressed reports whether path is written gzip-compressed.
func Compressed(path string) bool {
	return strings.EqualFold(filepath.Ext(path), storage.ExtGramps)
}

// Decode returns the XML text of an archive file. Gzip input is detected by
// its magic number, so plain .gramps files are accepted too.
func Decode(data []byte) ([]byte, error) {
	if !bytes.HasPrefix(data, gzipMagic) {
		return data, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("archive: %w: gzip header: %w", apperr.ErrMalformed, err)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("archive: %w: gzip stream: %w", apperr.ErrMalformed, err)
	}
	return out, nil
}

// Encode returns the on-disk bytes for the XML text of an archive at path.
func Encode(path string, xmlText []byte) ([]byte, error) {
	if !Compressed(path) {
		return xmlText, nil
	}
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + storage.ExtXML
	if _, err := zw.Write(xmlText); err != nil {
		return nil, fmt.Errorf("archive: gzip: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("archive: gzip: %w", err)
	}
	return buf.Bytes(), nil
}
