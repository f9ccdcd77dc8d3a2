package junocam

import (
	"fmt"
)

func checkSamples(rows, cols, channels int, d Depth, samples []uint16) error {
	if rows <= 0 || cols <= 0 || channels <= 0 {
		return fmt.Errorf("invalid mat size %dx%dx%d", rows, cols, channels)
	}
	if want := rows * cols * channels; len(samples) != want {
		return fmt.Errorf("expected %d samples, got %d", want, len(samples))
	}
	switch d {
	case Depth8U:
		for i, s := range samples {
			if s > 0xff {
				return fmt.Errorf("sample %d value %d overflows 8 bits", i, s)
			}
		}
	case Depth16U:
	default:
		return fmt.Errorf("samples need an integer depth, got %s", d)
	}
	return nil
}

// Normalize linearly rescales src so that its minimum maps to lo and its
// maximum to hi. The result is 32-bit float. A constant src maps entirely
// to lo.
func Normalize(src Mat, lo, hi float64) Mat {
	return normalizeMinMax(src, lo, hi)
}

// ConvertDepth rounds and saturates src into depth d.
func ConvertDepth(src Mat, d Depth) Mat {
	return convertDepth(src, d)
}

// Merge interleaves single-channel planes of equal size and depth into one
// multi-channel Mat, plane i becoming channel i.
func Merge(planes []Mat) (Mat, error) {
	if len(planes) == 0 {
		return Mat{}, fmt.Errorf("merge: no planes")
	}
	first := planes[0]
	for i, p := range planes {
		if p.Empty() {
			return Mat{}, fmt.Errorf("merge: plane %d is empty", i)
		}
		if p.Channels() != 1 {
			return Mat{}, fmt.Errorf("merge: plane %d has %d channels", i, p.Channels())
		}
		if p.Rows() != first.Rows() || p.Cols() != first.Cols() || p.Depth() != first.Depth() {
			return Mat{}, fmt.Errorf("merge: plane %d is %dx%d %s, want %dx%d %s",
				i, p.Cols(), p.Rows(), p.Depth(), first.Cols(), first.Rows(), first.Depth())
		}
	}
	return mergePlanes(planes), nil
}

// Stats returns the smallest and largest sample of m across all channels.
func Stats(m Mat) (lo, hi float64) {
	return minMax(m)
}

// Composite stretches each mosaic to the full 8-bit range and merges them
// into a three-channel image. Planes are ordered the way the active codec
// stores red, green and blue.
func Composite(ms *Mosaics) (Mat, error) {
	planes := make([]Mat, 0, len(compositeOrder))
	defer func() {
		for i := range planes {
			planes[i].Close()
		}
	}()

	for _, c := range compositeOrder {
		mosaic := ms.Channel(c)
		if mosaic.Channels() != 1 {
			return Mat{}, fmt.Errorf("%s mosaic has %d channels, composite needs 1", c, mosaic.Channels())
		}
		stretched := Normalize(mosaic, 0, Depth8U.MaxValue())
		planes = append(planes, ConvertDepth(stretched, Depth8U))
		stretched.Close()
	}

	out, err := Merge(planes)
	if err != nil {
		return Mat{}, fmt.Errorf("composite: %w", err)
	}
	return out, nil
}

// CompositeOrder reports the channel stored in each plane of a Composite.
func CompositeOrder() [3]Channel {
	return compositeOrder
}
