package junocam

import (
	"fmt"
	"image"
)

// RowRange is a half-open span of image rows.
type RowRange struct {
	Start int
	End   int
}

func (r RowRange) Len() int { return r.End - r.Start }

func (r RowRange) String() string { return fmt.Sprintf("[%d, %d)", r.Start, r.End) }

func (r RowRange) rect(width int) image.Rectangle {
	return image.Rect(0, r.Start, width, r.End)
}

// Placement is one band copy: raw rows Src of frame Frame go to rows Dst of
// the Channel mosaic.
type Placement struct {
	Frame   int
	Channel Channel
	Src     RowRange
	Dst     RowRange
}

// Layout is the validated frame arithmetic for one raw image height.
type Layout struct {
	Height int
	Frames int
	Params DemuxParams
}

// NewLayout splits a raw image of the given height into frames. The height
// must be a whole number of frames and there must be at least MinFrames so
// that one interior frame exists.
func NewLayout(height int, p DemuxParams) (Layout, error) {
	if err := p.Validate(); err != nil {
		return Layout{}, fmt.Errorf("invalid demux params: %w", err)
	}

	frameHeight := p.FrameHeight()
	frames := height / frameHeight
	gerr := &GeometryError{
		Height:     height,
		BandHeight: p.BandHeight,
		Bands:      p.Bands,
		Frames:     frames,
	}
	if height%frameHeight != 0 {
		gerr.Reason = fmt.Sprintf("%d leftover rows after the last %d-row frame", height%frameHeight, frameHeight)
		return Layout{}, gerr
	}
	if frames < MinFrames {
		gerr.Reason = fmt.Sprintf("need at least %d frames", MinFrames)
		return Layout{}, gerr
	}

	return Layout{Height: height, Frames: frames, Params: p}, nil
}

// FrameHeight is the row count of one raw frame.
func (l Layout) FrameHeight() int { return l.Params.FrameHeight() }

// MosaicHeight is the row count of every channel mosaic.
func (l Layout) MosaicHeight() int { return l.Frames * l.Params.BandHeight }

// FirstFrame is the first frame that is copied. Frame 0 is skipped.
func (l Layout) FirstFrame() int { return 1 }

// LastFrame is the last frame that is copied. The final frame is skipped.
func (l Layout) LastFrame() int { return l.Frames - 2 }

// Interior is the number of frames that are copied.
func (l Layout) Interior() int { return l.LastFrame() - l.FirstFrame() + 1 }

// IsInterior reports whether frame f is copied into the mosaics.
func (l Layout) IsInterior(f int) bool {
	return f >= l.FirstFrame() && f <= l.LastFrame()
}

// Band returns the raw rows of band k in frame f.
func (l Layout) Band(f, k int) RowRange {
	start := f*l.FrameHeight() + k*l.Params.BandHeight
	return RowRange{Start: start, End: start + l.Params.BandHeight}
}

// Slot returns the mosaic rows of slot s.
func (l Layout) Slot(s int) RowRange {
	start := s * l.Params.BandHeight
	return RowRange{Start: start, End: start + l.Params.BandHeight}
}

// Placement returns where channel c of interior frame f lands.
func (l Layout) Placement(f int, c Channel) (Placement, bool) {
	filter, ok := l.Params.Filter(c)
	if !ok || !l.IsInterior(f) {
		return Placement{}, false
	}
	return Placement{
		Frame:   f,
		Channel: c,
		Src:     l.Band(f, filter.Band),
		Dst:     l.Slot(f + filter.Shift),
	}, true
}

// Placements lists every band copy in frame order, filters in band order
// within a frame.
func (l Layout) Placements() []Placement {
	out := make([]Placement, 0, l.Interior()*len(l.Params.Filters))
	for f := l.FirstFrame(); f <= l.LastFrame(); f++ {
		for k := 0; k < l.Params.Bands; k++ {
			for _, filter := range l.Params.Filters {
				if filter.Band != k {
					continue
				}
				p, _ := l.Placement(f, filter.Channel)
				out = append(out, p)
			}
		}
	}
	return out
}

// Written returns the mosaic rows of channel c that receive data. Rows
// outside it stay zero.
func (l Layout) Written(c Channel) RowRange {
	filter, ok := l.Params.Filter(c)
	if !ok {
		return RowRange{}
	}
	return RowRange{
		Start: l.Slot(l.FirstFrame() + filter.Shift).Start,
		End:   l.Slot(l.LastFrame() + filter.Shift).End,
	}
}

// Mosaics holds the three channel mosaics of one raw image.
type Mosaics struct {
	Layout Layout
	Red    Mat
	Green  Mat
	Blue   Mat
}

// Channel returns the mosaic for c.
func (m *Mosaics) Channel(c Channel) Mat {
	switch c {
	case Red:
		return m.Red
	case Green:
		return m.Green
	default:
		return m.Blue
	}
}

func (m *Mosaics) set(c Channel, mat Mat) {
	switch c {
	case Red:
		m.Red = mat
	case Green:
		m.Green = mat
	default:
		m.Blue = mat
	}
}

// Close releases all three mosaics.
func (m *Mosaics) Close() {
	m.Red.Close()
	m.Green.Close()
	m.Blue.Close()
}

// Demux copies the bands of every interior frame of raw into zero-filled
// channel mosaics. Each mosaic has raw's width, sample depth and channel
// count and is Layout.MosaicHeight rows tall. Geometry is checked before
// anything is allocated.
func Demux(raw Mat, p DemuxParams) (*Mosaics, error) {
	if raw.Empty() {
		return nil, fmt.Errorf("%w: empty raw image", ErrImageLoad)
	}
	layout, err := NewLayout(raw.Rows(), p)
	if err != nil {
		return nil, err
	}

	width := raw.Cols()
	out := &Mosaics{Layout: layout}
	for _, c := range Channels {
		out.set(c, NewMatWithSize(layout.MosaicHeight(), width, raw.Depth(), raw.Channels()))
	}

	for _, pl := range layout.Placements() {
		strip := raw.Region(pl.Src.rect(width))
		slot := out.Channel(pl.Channel)
		dst := slot.Region(pl.Dst.rect(width))
		CopyMatTo(strip, &dst)
		strip.Close()
		dst.Close()
	}

	return out, nil
}
