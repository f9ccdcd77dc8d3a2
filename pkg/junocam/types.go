package junocam

import (
	"fmt"
)

// Channel identifies the color filter a band was exposed through.
type Channel int

const (
	Blue Channel = iota
	Green
	Red
)

// Channels lists every channel in raw band order.
var Channels = []Channel{Blue, Green, Red}

func (c Channel) String() string {
	switch c {
	case Blue:
		return "blue"
	case Green:
		return "green"
	case Red:
		return "red"
	default:
		return "unknown"
	}
}

// Depth is the per-sample storage type of a Mat.
type Depth int

const (
	DepthUnknown Depth = iota
	Depth8U
	Depth16U
	Depth32F
)

func (d Depth) String() string {
	switch d {
	case Depth8U:
		return "8U"
	case Depth16U:
		return "16U"
	case Depth32F:
		return "32F"
	default:
		return "unknown"
	}
}

// Bits returns the sample width in bits, or 0 for an unknown depth.
func (d Depth) Bits() int {
	switch d {
	case Depth8U:
		return 8
	case Depth16U:
		return 16
	case Depth32F:
		return 32
	default:
		return 0
	}
}

// MaxValue is the top of the depth's natural sample range.
func (d Depth) MaxValue() float64 {
	switch d {
	case Depth8U:
		return 255
	case Depth16U:
		return 65535
	default:
		return 1
	}
}

// Filter places one channel's band within a raw frame.
type Filter struct {
	Channel Channel
	// Band is the index of the channel's band inside a frame.
	Band int
	// Shift moves the band's destination slot by whole bands relative to
	// the frame's own slot. It undoes the physical stagger of the filter
	// strips on the sensor.
	Shift int
}

// DefaultFilters is the JunoCam visible filter arrangement: blue, green,
// red from the top of each frame.
var DefaultFilters = []Filter{
	{Channel: Blue, Band: 0, Shift: -1},
	{Channel: Green, Band: 1, Shift: 0},
	{Channel: Red, Band: 2, Shift: 1},
}

const (
	// DefaultBandHeight is the row count of one JunoCam filter strip.
	DefaultBandHeight = 128
	// DefaultBands is the number of strips per frame (methane is not read).
	DefaultBands = 3
	// MinFrames is the smallest frame count with at least one interior frame.
	MinFrames = 3
)

// DemuxParams holds the strip geometry of a raw pushframe image.
type DemuxParams struct {
	BandHeight int
	Bands      int
	Filters    []Filter
}

// DefaultParams returns the JunoCam geometry.
func DefaultParams() DemuxParams {
	filters := make([]Filter, len(DefaultFilters))
	copy(filters, DefaultFilters)
	return DemuxParams{
		BandHeight: DefaultBandHeight,
		Bands:      DefaultBands,
		Filters:    filters,
	}
}

// FrameHeight is the row count of one frame.
func (p DemuxParams) FrameHeight() int {
	return p.BandHeight * p.Bands
}

// Filter returns the filter for channel c.
func (p DemuxParams) Filter(c Channel) (Filter, bool) {
	for _, f := range p.Filters {
		if f.Channel == c {
			return f, true
		}
	}
	return Filter{}, false
}

// Validate checks that every channel has exactly one band inside the frame
// and that shifted destinations of interior frames stay inside the mosaic.
func (p DemuxParams) Validate() error {
	if p.BandHeight <= 0 {
		return fmt.Errorf("band height must be positive, got %d", p.BandHeight)
	}
	if p.Bands <= 0 {
		return fmt.Errorf("bands must be positive, got %d", p.Bands)
	}
	if len(p.Filters) != len(Channels) {
		return fmt.Errorf("expected %d filters, got %d", len(Channels), len(p.Filters))
	}

	seenChannel := make(map[Channel]bool, len(p.Filters))
	seenBand := make(map[int]bool, len(p.Filters))
	for _, f := range p.Filters {
		if f.Channel < Blue || f.Channel > Red {
			return fmt.Errorf("unknown channel %d", int(f.Channel))
		}
		if seenChannel[f.Channel] {
			return fmt.Errorf("channel %s assigned twice", f.Channel)
		}
		seenChannel[f.Channel] = true

		if f.Band < 0 || f.Band >= p.Bands {
			return fmt.Errorf("%s band %d outside [0, %d)", f.Channel, f.Band, p.Bands)
		}
		if seenBand[f.Band] {
			return fmt.Errorf("band %d assigned twice", f.Band)
		}
		seenBand[f.Band] = true

		// Interior frames are 1..frames-2, so a shift of one band either
		// way still lands on a mosaic slot.
		if f.Shift < -1 || f.Shift > 1 {
			return fmt.Errorf("%s shift %d outside [-1, 1]", f.Channel, f.Shift)
		}
	}
	return nil
}
