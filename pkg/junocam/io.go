package junocam

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func extOf(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

func isFits(ext string) bool {
	return ext == ".fits" || ext == ".fit" || ext == ".fts"
}

// ReadRaw loads a raw pushframe image with its sample depth intact. FITS
// files go through the built-in reader and everything else through the
// backend codec. Any failure wraps ErrImageLoad.
func ReadRaw(path string) (Mat, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Mat{}, loadError(path, err)
	}
	if info.IsDir() {
		return Mat{}, loadError(path, errors.New("is a directory"))
	}
	if info.Size() == 0 {
		return Mat{}, loadError(path, errors.New("file is empty"))
	}

	var m Mat
	if isFits(extOf(path)) {
		var fits *FitsImageData
		fits, err = ReadFits(path)
		if err == nil {
			m, err = fits.Mat()
		}
	} else {
		m, err = imRead(path)
	}
	if err != nil {
		return Mat{}, loadError(path, err)
	}
	if err := checkRaw(m); err != nil {
		m.Close()
		return Mat{}, loadError(path, err)
	}
	return m, nil
}

// DecodeRaw is ReadRaw for in-memory data. name supplies the extension
// used to recognize FITS.
func DecodeRaw(data []byte, name string) (Mat, error) {
	if len(data) == 0 {
		return Mat{}, loadError(name, errors.New("no data"))
	}

	var m Mat
	var err error
	if isFits(extOf(name)) {
		var fits *FitsImageData
		fits, err = ReadFitsFromBytes(data)
		if err == nil {
			m, err = fits.Mat()
		}
	} else {
		m, err = imDecode(data, name)
	}
	if err != nil {
		return Mat{}, loadError(name, err)
	}
	if err := checkRaw(m); err != nil {
		m.Close()
		return Mat{}, loadError(name, err)
	}
	return m, nil
}

func checkRaw(m Mat) error {
	if m.Empty() {
		return errors.New("image has no pixels")
	}
	if d := m.Depth(); d != Depth8U && d != Depth16U {
		return fmt.Errorf("unsupported sample depth %s", d)
	}
	return nil
}

// WriteMat encodes m in the format named by the path's extension.
func WriteMat(path string, m Mat) error {
	if m.Empty() {
		return fmt.Errorf("writing %s: empty image", path)
	}
	if err := imWrite(path, m); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// EncodeMat encodes m in memory. ext includes the dot, e.g. ".png".
func EncodeMat(ext string, m Mat) ([]byte, error) {
	if m.Empty() {
		return nil, fmt.Errorf("encoding %s: empty image", ext)
	}
	return imEncode(strings.ToLower(ext), m)
}
