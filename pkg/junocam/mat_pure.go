//go:build purego || js

package junocam

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"math"
	"os"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// compositeOrder is the plane order of image.RGBA.
var compositeOrder = [3]Channel{Red, Green, Blue}

// Mat is a pure Go 2D matrix of channel-interleaved samples. Integer
// samples are stored exactly in float32.
type Mat struct {
	data     []float32
	rows     int
	cols     int
	channels int
	depth    Depth
	stride   int // elements per row in backing array (may differ from cols*channels for sub-matrices)
	dataOff  int // offset into data for sub-matrices
	owned    bool
}

// NewMatWithSize returns a zero-filled Mat.
func NewMatWithSize(rows, cols int, d Depth, channels int) Mat {
	return Mat{
		data:     make([]float32, rows*cols*channels),
		rows:     rows,
		cols:     cols,
		channels: channels,
		depth:    d,
		stride:   cols * channels,
		owned:    true,
	}
}

// NewMatFromSamples builds an integer Mat from row-major, channel-interleaved
// samples.
func NewMatFromSamples(rows, cols, channels int, d Depth, samples []uint16) (Mat, error) {
	if err := checkSamples(rows, cols, channels, d, samples); err != nil {
		return Mat{}, err
	}
	m := NewMatWithSize(rows, cols, d, channels)
	for i, s := range samples {
		m.data[i] = float32(s)
	}
	return m, nil
}

func (m Mat) Rows() int     { return m.rows }
func (m Mat) Cols() int     { return m.cols }
func (m Mat) Channels() int { return m.channels }
func (m Mat) Depth() Depth  { return m.depth }
func (m Mat) Empty() bool   { return m.data == nil || m.rows == 0 || m.cols == 0 }

func (m Mat) Clone() Mat {
	out := NewMatWithSize(m.rows, m.cols, m.depth, m.channels)
	CopyMatTo(m, &out)
	return out
}

func (m *Mat) Close() {
	if m.owned {
		m.data = nil
	}
	m.rows = 0
	m.cols = 0
}

func (m Mat) Region(r image.Rectangle) Mat {
	return Mat{
		data:     m.data,
		rows:     r.Dy(),
		cols:     r.Dx(),
		channels: m.channels,
		depth:    m.depth,
		stride:   m.stride,
		dataOff:  m.dataOff + r.Min.Y*m.stride + r.Min.X*m.channels,
		owned:    false,
	}
}

// At returns one sample as float64.
func (m Mat) At(row, col, ch int) float64 {
	return float64(m.data[m.dataOff+row*m.stride+col*m.channels+ch])
}

func (m Mat) row(r int) []float32 {
	off := m.dataOff + r*m.stride
	return m.data[off : off+m.cols*m.channels]
}

// CopyMatTo copies src into dst. A dst Region of matching size is written
// in place.
func CopyMatTo(src Mat, dst *Mat) {
	if dst.rows != src.rows || dst.cols != src.cols || dst.channels != src.channels || dst.data == nil {
		*dst = NewMatWithSize(src.rows, src.cols, src.depth, src.channels)
	}
	for r := 0; r < src.rows; r++ {
		copy(dst.row(r), src.row(r))
	}
}

// --- codec and CV operations ---

func imRead(path string) (Mat, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Mat{}, fmt.Errorf("reading image: %w", err)
	}
	return imDecode(data, path)
}

func imDecode(data []byte, name string) (Mat, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Mat{}, fmt.Errorf("decoding image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	switch src := img.(type) {
	case *image.Gray:
		m := NewMatWithSize(h, w, Depth8U, 1)
		for y := 0; y < h; y++ {
			row := m.row(y)
			pix := src.Pix[y*src.Stride : y*src.Stride+w]
			for x, v := range pix {
				row[x] = float32(v)
			}
		}
		return m, nil

	case *image.Gray16:
		m := NewMatWithSize(h, w, Depth16U, 1)
		for y := 0; y < h; y++ {
			row := m.row(y)
			off := y * src.Stride
			for x := 0; x < w; x++ {
				row[x] = float32(uint16(src.Pix[off+2*x])<<8 | uint16(src.Pix[off+2*x+1]))
			}
		}
		return m, nil
	}

	slog.Warn("converting non-gray raw image to 16-bit gray", "name", name, "format", format, "model", fmt.Sprintf("%T", img.ColorModel()))
	m := NewMatWithSize(h, w, Depth16U, 1)
	for y := 0; y < h; y++ {
		row := m.row(y)
		for x := 0; x < w; x++ {
			g := color.Gray16Model.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray16)
			row[x] = float32(g.Y)
		}
	}
	return m, nil
}

func toImage(m Mat) (image.Image, error) {
	rect := image.Rect(0, 0, m.cols, m.rows)
	switch {
	case m.channels == 1 && m.depth == Depth8U:
		img := image.NewGray(rect)
		for y := 0; y < m.rows; y++ {
			for x, v := range m.row(y) {
				img.Pix[y*img.Stride+x] = uint8(v)
			}
		}
		return img, nil

	case m.channels == 1 && m.depth == Depth16U:
		img := image.NewGray16(rect)
		for y := 0; y < m.rows; y++ {
			for x, v := range m.row(y) {
				img.SetGray16(x, y, color.Gray16{Y: uint16(v)})
			}
		}
		return img, nil

	case m.channels == 3 && m.depth == Depth8U:
		img := image.NewRGBA(rect)
		for y := 0; y < m.rows; y++ {
			row := m.row(y)
			for x := 0; x < m.cols; x++ {
				img.SetRGBA(x, y, color.RGBA{
					R: uint8(row[3*x]),
					G: uint8(row[3*x+1]),
					B: uint8(row[3*x+2]),
					A: 0xff,
				})
			}
		}
		return img, nil

	case m.channels == 3 && m.depth == Depth16U:
		img := image.NewRGBA64(rect)
		for y := 0; y < m.rows; y++ {
			row := m.row(y)
			for x := 0; x < m.cols; x++ {
				img.SetRGBA64(x, y, color.RGBA64{
					R: uint16(row[3*x]),
					G: uint16(row[3*x+1]),
					B: uint16(row[3*x+2]),
					A: 0xffff,
				})
			}
		}
		return img, nil
	}
	return nil, fmt.Errorf("no image model for %s with %d channels", m.depth, m.channels)
}

func imEncode(ext string, m Mat) ([]byte, error) {
	img, err := toImage(m)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	switch strings.ToLower(ext) {
	case ".png":
		err = png.Encode(&buf, img)
	case ".tif", ".tiff":
		err = tiff.Encode(&buf, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	case ".bmp":
		err = bmp.Encode(&buf, img)
	default:
		return nil, fmt.Errorf("unsupported output format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", ext, err)
	}
	return buf.Bytes(), nil
}

func imWrite(path string, m Mat) error {
	data, err := imEncode(extOf(path), m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func normalizeMinMax(src Mat, lo, hi float64) Mat {
	smin, smax := minMax(src)
	// Same rule as NORM_MINMAX: a flat source maps to lo.
	scale := 0.0
	if smax-smin > math.SmallestNonzeroFloat64 {
		scale = (hi - lo) / (smax - smin)
	}
	shift := lo - smin*scale

	dst := NewMatWithSize(src.rows, src.cols, Depth32F, src.channels)
	for r := 0; r < src.rows; r++ {
		out := dst.row(r)
		for i, v := range src.row(r) {
			out[i] = float32(float64(v)*scale + shift)
		}
	}
	return dst
}

func convertDepth(src Mat, d Depth) Mat {
	dst := NewMatWithSize(src.rows, src.cols, d, src.channels)
	for r := 0; r < src.rows; r++ {
		out := dst.row(r)
		for i, v := range src.row(r) {
			out[i] = saturate(v, d)
		}
	}
	return dst
}

// saturate rounds half to even and clamps to the depth's range, as
// OpenCV's convertTo does.
func saturate(v float32, d Depth) float32 {
	if d == Depth32F {
		return v
	}
	r := math.RoundToEven(float64(v))
	if r < 0 {
		return 0
	}
	if top := d.MaxValue(); r > top {
		return float32(top)
	}
	return float32(r)
}

func mergePlanes(planes []Mat) Mat {
	first := planes[0]
	n := len(planes)
	dst := NewMatWithSize(first.rows, first.cols, first.depth, n)
	for r := 0; r < first.rows; r++ {
		out := dst.row(r)
		for p, plane := range planes {
			for x, v := range plane.row(r) {
				out[x*n+p] = v
			}
		}
	}
	return dst
}

func minMax(src Mat) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for r := 0; r < src.rows; r++ {
		for _, v := range src.row(r) {
			f := float64(v)
			if f < lo {
				lo = f
			}
			if f > hi {
				hi = f
			}
		}
	}
	if src.rows == 0 || src.cols == 0 {
		return 0, 0
	}
	return lo, hi
}
