package junocam

import (
	"errors"
	"fmt"
)

var (
	// ErrImageLoad reports a raw image that is missing, unreadable or empty.
	ErrImageLoad = errors.New("image load failed")
	// ErrGeometryMismatch reports a raw image whose height does not fit the
	// strip geometry.
	ErrGeometryMismatch = errors.New("geometry mismatch")
)

// GeometryError describes why a raw height was rejected.
type GeometryError struct {
	Height     int
	BandHeight int
	Bands      int
	Frames     int
	Reason     string
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("%s: height %d with %d bands of %d rows (%d frames): %s",
		ErrGeometryMismatch, e.Height, e.Bands, e.BandHeight, e.Frames, e.Reason)
}

func (e *GeometryError) Unwrap() error { return ErrGeometryMismatch }

func loadError(path string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrImageLoad, path, err)
}
