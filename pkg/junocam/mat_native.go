//go:build !purego && !js

package junocam

import (
	"encoding/binary"
	"fmt"
	"image"
	"runtime"

	"gocv.io/x/gocv"
)

// compositeOrder is the plane order imwrite expects for a color image.
var compositeOrder = [3]Channel{Blue, Green, Red}

// Mat wraps gocv.Mat for the native OpenCV backend.
type Mat struct {
	m gocv.Mat
}

func matType(d Depth, channels int) gocv.MatType {
	var base gocv.MatType
	switch d {
	case Depth8U:
		base = gocv.MatTypeCV8U
	case Depth16U:
		base = gocv.MatTypeCV16U
	default:
		base = gocv.MatTypeCV32F
	}
	return gocv.MatType(int(base) + (channels-1)<<3)
}

// NewMatWithSize returns a zero-filled Mat.
func NewMatWithSize(rows, cols int, d Depth, channels int) Mat {
	return Mat{m: gocv.Zeros(rows, cols, matType(d, channels))}
}

// NewMatFromSamples builds an integer Mat from row-major, channel-interleaved
// samples.
func NewMatFromSamples(rows, cols, channels int, d Depth, samples []uint16) (Mat, error) {
	if err := checkSamples(rows, cols, channels, d, samples); err != nil {
		return Mat{}, err
	}

	var buf []byte
	switch d {
	case Depth8U:
		buf = make([]byte, len(samples))
		for i, s := range samples {
			buf[i] = byte(s)
		}
	case Depth16U:
		buf = make([]byte, 2*len(samples))
		for i, s := range samples {
			binary.NativeEndian.PutUint16(buf[2*i:], s)
		}
	}

	tmp, err := gocv.NewMatFromBytes(rows, cols, matType(d, channels), buf)
	if err != nil {
		return Mat{}, fmt.Errorf("wrapping samples: %w", err)
	}
	// NewMatFromBytes borrows buf; clone so the Mat owns its data.
	out := tmp.Clone()
	tmp.Close()
	runtime.KeepAlive(buf)
	return Mat{m: out}, nil
}

func (mat Mat) Rows() int     { return mat.m.Rows() }
func (mat Mat) Cols() int     { return mat.m.Cols() }
func (mat Mat) Channels() int { return mat.m.Channels() }
func (mat Mat) Empty() bool   { return mat.m.Empty() }
func (mat Mat) Clone() Mat    { return Mat{m: mat.m.Clone()} }
func (mat *Mat) Close()       { mat.m.Close() }

func (mat Mat) Region(r image.Rectangle) Mat { return Mat{m: mat.m.Region(r)} }

// Depth reports the sample type.
func (mat Mat) Depth() Depth {
	switch gocv.MatType(int(mat.m.Type()) & 7) {
	case gocv.MatTypeCV8U:
		return Depth8U
	case gocv.MatTypeCV16U:
		return Depth16U
	case gocv.MatTypeCV32F:
		return Depth32F
	default:
		return DepthUnknown
	}
}

// At returns one sample as float64.
func (mat Mat) At(row, col, ch int) float64 {
	idx := col*mat.Channels() + ch
	switch mat.Depth() {
	case Depth8U:
		return float64(mat.m.GetUCharAt(row, idx))
	case Depth16U:
		return float64(uint16(mat.m.GetShortAt(row, idx)))
	default:
		return float64(mat.m.GetFloatAt(row, idx))
	}
}

// CopyMatTo copies src into dst. A dst Region of matching size is written
// in place.
func CopyMatTo(src Mat, dst *Mat) {
	src.m.CopyTo(&dst.m)
}

// --- codec and CV operations ---

func imRead(path string) (Mat, error) {
	src := gocv.IMRead(path, gocv.IMReadUnchanged)
	if src.Empty() {
		src.Close()
		return Mat{}, fmt.Errorf("could not decode image")
	}
	return Mat{m: src}, nil
}

func imDecode(data []byte, _ string) (Mat, error) {
	src, err := gocv.IMDecode(data, gocv.IMReadUnchanged)
	if err != nil {
		return Mat{}, fmt.Errorf("decoding image: %w", err)
	}
	if src.Empty() {
		src.Close()
		return Mat{}, fmt.Errorf("could not decode image")
	}
	return Mat{m: src}, nil
}

func imWrite(path string, m Mat) error {
	if !gocv.IMWrite(path, m.m) {
		return fmt.Errorf("imwrite rejected %s (%s, %d channels)", path, m.Depth(), m.Channels())
	}
	return nil
}

func imEncode(ext string, m Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(gocv.FileExt(ext), m.m)
	if err != nil {
		return nil, fmt.Errorf("imencode %s: %w", ext, err)
	}
	defer buf.Close()
	return append([]byte(nil), buf.GetBytes()...), nil
}

func normalizeMinMax(src Mat, lo, hi float64) Mat {
	f := gocv.NewMat()
	defer f.Close()
	src.m.ConvertTo(&f, matType(Depth32F, src.Channels()))

	dst := gocv.NewMat()
	gocv.Normalize(f, &dst, lo, hi, gocv.NormMinMax)
	return Mat{m: dst}
}

func convertDepth(src Mat, d Depth) Mat {
	dst := gocv.NewMat()
	src.m.ConvertTo(&dst, matType(d, src.Channels()))
	return Mat{m: dst}
}

func mergePlanes(planes []Mat) Mat {
	mats := make([]gocv.Mat, len(planes))
	for i, p := range planes {
		mats[i] = p.m
	}
	dst := gocv.NewMat()
	gocv.Merge(mats, &dst)
	return Mat{m: dst}
}

func minMax(src Mat) (float64, float64) {
	flat := src.m.Reshape(1, 0)
	defer flat.Close()
	lo, hi, _, _ := gocv.MinMaxLoc(flat)
	return float64(lo), float64(hi)
}
