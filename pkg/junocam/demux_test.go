package junocam

import (
	"errors"
	"testing"
)

// bandValue is the constant each synthetic band is filled with.
func bandValue(f, k int) uint16 {
	return uint16(100*f + 10*k)
}

func syntheticRaw(t *testing.T, p DemuxParams, frames, width int) Mat {
	t.Helper()
	rows := frames * p.FrameHeight()
	samples := make([]uint16, rows*width)
	for f := 0; f < frames; f++ {
		for k := 0; k < p.Bands; k++ {
			for r := 0; r < p.BandHeight; r++ {
				row := f*p.FrameHeight() + k*p.BandHeight + r
				for x := 0; x < width; x++ {
					samples[row*width+x] = bandValue(f, k)
				}
			}
		}
	}
	m, err := NewMatFromSamples(rows, width, 1, Depth16U, samples)
	if err != nil {
		t.Fatalf("NewMatFromSamples: %v", err)
	}
	return m
}

func smallParams() DemuxParams {
	p := DefaultParams()
	p.BandHeight = 4
	return p
}

func TestNewLayoutFrames(t *testing.T) {
	p := DefaultParams()
	for n := 3; n <= 8; n++ {
		l, err := NewLayout(n*p.FrameHeight(), p)
		if err != nil {
			t.Fatalf("frames=%d: %v", n, err)
		}
		if l.Frames != n {
			t.Errorf("frames=%d: got Frames=%d", n, l.Frames)
		}
		if l.FirstFrame() != 1 || l.LastFrame() != n-2 {
			t.Errorf("frames=%d: interior range %d..%d, want 1..%d", n, l.FirstFrame(), l.LastFrame(), n-2)
		}
		if got := len(l.Placements()); got != 3*(n-2) {
			t.Errorf("frames=%d: %d placements, want %d", n, got, 3*(n-2))
		}
		if l.MosaicHeight() != n*p.BandHeight {
			t.Errorf("frames=%d: mosaic height %d, want %d", n, l.MosaicHeight(), n*p.BandHeight)
		}
	}
}

func TestNewLayoutGeometryMismatch(t *testing.T) {
	p := DefaultParams()
	heights := []int{
		0,
		p.FrameHeight(),
		2 * p.FrameHeight(),
		3*p.FrameHeight() + 1,
		5*p.FrameHeight() - p.BandHeight,
	}
	for _, h := range heights {
		_, err := NewLayout(h, p)
		if !errors.Is(err, ErrGeometryMismatch) {
			t.Errorf("height %d: got %v, want ErrGeometryMismatch", h, err)
			continue
		}
		var gerr *GeometryError
		if !errors.As(err, &gerr) {
			t.Errorf("height %d: error is not a *GeometryError", h)
			continue
		}
		if gerr.Height != h || gerr.BandHeight != p.BandHeight {
			t.Errorf("height %d: GeometryError carries %+v", h, gerr)
		}
	}
}

func TestPlacementsDefaultGeometry(t *testing.T) {
	p := DefaultParams()
	l, err := NewLayout(30*p.FrameHeight(), p)
	if err != nil {
		t.Fatal(err)
	}

	const bh = 128
	for _, f := range []int{1, 2, 15, 28} {
		base := f * bh * 3
		want := map[Channel]Placement{
			Red:   {Frame: f, Channel: Red, Src: RowRange{base + 2*bh, base + 3*bh}, Dst: RowRange{(f + 1) * bh, (f + 2) * bh}},
			Green: {Frame: f, Channel: Green, Src: RowRange{base + bh, base + 2*bh}, Dst: RowRange{f * bh, (f + 1) * bh}},
			Blue:  {Frame: f, Channel: Blue, Src: RowRange{base, base + bh}, Dst: RowRange{(f - 1) * bh, f * bh}},
		}
		for c, w := range want {
			got, ok := l.Placement(f, c)
			if !ok {
				t.Fatalf("frame %d %s: no placement", f, c)
			}
			if got != w {
				t.Errorf("frame %d %s: got %+v, want %+v", f, c, got, w)
			}
		}
	}

	for _, f := range []int{0, 29} {
		if _, ok := l.Placement(f, Green); ok {
			t.Errorf("edge frame %d has a placement", f)
		}
	}
}

func TestPlacementsOrder(t *testing.T) {
	p := smallParams()
	l, err := NewLayout(4*p.FrameHeight(), p)
	if err != nil {
		t.Fatal(err)
	}
	got := l.Placements()
	want := []struct {
		frame int
		ch    Channel
	}{
		{1, Blue}, {1, Green}, {1, Red},
		{2, Blue}, {2, Green}, {2, Red},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d placements, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Frame != w.frame || got[i].Channel != w.ch {
			t.Errorf("placement %d: got frame %d %s, want frame %d %s", i, got[i].Frame, got[i].Channel, w.frame, w.ch)
		}
	}
}

func TestWrittenRows(t *testing.T) {
	p := smallParams()
	l, err := NewLayout(6*p.FrameHeight(), p)
	if err != nil {
		t.Fatal(err)
	}
	bh := p.BandHeight
	want := map[Channel]RowRange{
		Red:   {2 * bh, 6 * bh},
		Green: {1 * bh, 5 * bh},
		Blue:  {0, 4 * bh},
	}
	for c, w := range want {
		if got := l.Written(c); got != w {
			t.Errorf("%s written rows %v, want %v", c, got, w)
		}
	}
}

func TestDemuxSyntheticBands(t *testing.T) {
	p := smallParams()
	const frames, width = 6, 5
	raw := syntheticRaw(t, p, frames, width)
	defer raw.Close()

	ms, err := Demux(raw, p)
	if err != nil {
		t.Fatalf("Demux: %v", err)
	}
	defer ms.Close()

	for _, c := range Channels {
		m := ms.Channel(c)
		if m.Cols() != width || m.Rows() != frames*p.BandHeight {
			t.Errorf("%s mosaic is %dx%d, want %dx%d", c, m.Cols(), m.Rows(), width, frames*p.BandHeight)
		}
		if m.Depth() != Depth16U || m.Channels() != 1 {
			t.Errorf("%s mosaic is %s with %d channels", c, m.Depth(), m.Channels())
		}
	}

	slotValue := func(m Mat, slot int) (float64, bool) {
		v := m.At(slot*p.BandHeight, 0, 0)
		for r := slot * p.BandHeight; r < (slot+1)*p.BandHeight; r++ {
			for x := 0; x < width; x++ {
				if m.At(r, x, 0) != v {
					return 0, false
				}
			}
		}
		return v, true
	}

	for f := 1; f <= frames-2; f++ {
		checks := []struct {
			ch   Channel
			slot int
			want uint16
		}{
			{Red, f + 1, bandValue(f, 2)},
			{Green, f, bandValue(f, 1)},
			{Blue, f - 1, bandValue(f, 0)},
		}
		for _, c := range checks {
			got, uniform := slotValue(ms.Channel(c.ch), c.slot)
			if !uniform {
				t.Errorf("frame %d: %s slot %d is not uniform", f, c.ch, c.slot)
				continue
			}
			if got != float64(c.want) {
				t.Errorf("frame %d: %s slot %d = %v, want %d", f, c.ch, c.slot, got, c.want)
			}
		}
	}

	zeroSlots := map[Channel][]int{
		Red:   {0, 1},
		Green: {0, frames - 1},
		Blue:  {frames - 2, frames - 1},
	}
	for c, slots := range zeroSlots {
		for _, s := range slots {
			got, uniform := slotValue(ms.Channel(c), s)
			if !uniform || got != 0 {
				t.Errorf("%s slot %d should stay zero", c, s)
			}
		}
	}
}

func TestDemuxMinimumFrames(t *testing.T) {
	p := smallParams()
	raw := syntheticRaw(t, p, MinFrames, 3)
	defer raw.Close()

	ms, err := Demux(raw, p)
	if err != nil {
		t.Fatalf("Demux: %v", err)
	}
	defer ms.Close()

	if ms.Layout.Interior() != 1 {
		t.Errorf("interior frames = %d, want 1", ms.Layout.Interior())
	}
	if got := ms.Green.At(p.BandHeight, 0, 0); got != float64(bandValue(1, 1)) {
		t.Errorf("green slot 1 = %v, want %d", got, bandValue(1, 1))
	}
	if got := ms.Red.At(2*p.BandHeight, 0, 0); got != float64(bandValue(1, 2)) {
		t.Errorf("red slot 2 = %v, want %d", got, bandValue(1, 2))
	}
	if got := ms.Blue.At(0, 0, 0); got != float64(bandValue(1, 0)) {
		t.Errorf("blue slot 0 = %v, want %d", got, bandValue(1, 0))
	}
}

func TestDemuxRejectsShortImage(t *testing.T) {
	p := smallParams()
	raw := syntheticRaw(t, p, 2, 3)
	defer raw.Close()

	if _, err := Demux(raw, p); !errors.Is(err, ErrGeometryMismatch) {
		t.Fatalf("got %v, want ErrGeometryMismatch", err)
	}
}

func TestDemuxRejectsEmpty(t *testing.T) {
	if _, err := Demux(Mat{}, DefaultParams()); !errors.Is(err, ErrImageLoad) {
		t.Fatalf("got %v, want ErrImageLoad", err)
	}
}

func TestParamsValidate(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("default params: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*DemuxParams)
	}{
		{"zero band height", func(p *DemuxParams) { p.BandHeight = 0 }},
		{"zero bands", func(p *DemuxParams) { p.Bands = 0 }},
		{"missing filter", func(p *DemuxParams) { p.Filters = p.Filters[:2] }},
		{"band out of range", func(p *DemuxParams) { p.Filters[2].Band = 3 }},
		{"duplicate channel", func(p *DemuxParams) { p.Filters[1].Channel = Blue }},
		{"duplicate band", func(p *DemuxParams) { p.Filters[1].Band = 0 }},
		{"shift too large", func(p *DemuxParams) { p.Filters[2].Shift = 2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			if err := p.Validate(); err == nil {
				t.Error("expected an error")
			}
			if _, err := NewLayout(3*DefaultBandHeight*DefaultBands, p); err == nil {
				t.Error("NewLayout accepted invalid params")
			}
		})
	}
}

func TestDefaultParamsIsACopy(t *testing.T) {
	p := DefaultParams()
	p.Filters[0].Shift = 0
	if DefaultFilters[0].Shift != -1 {
		t.Fatal("DefaultParams shares the DefaultFilters backing array")
	}
}
