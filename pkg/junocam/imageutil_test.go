package junocam

import (
	"testing"
)

func mustMat(t *testing.T, rows, cols int, d Depth, samples []uint16) Mat {
	t.Helper()
	m, err := NewMatFromSamples(rows, cols, 1, d, samples)
	if err != nil {
		t.Fatalf("NewMatFromSamples: %v", err)
	}
	return m
}

func TestNormalizeStretchesToDepthRange(t *testing.T) {
	src := mustMat(t, 2, 3, Depth16U, []uint16{
		1000, 2000, 3000,
		4000, 5000, 6000,
	})
	defer src.Close()

	n := Normalize(src, 0, 255)
	defer n.Close()
	if n.Depth() != Depth32F {
		t.Fatalf("normalized depth %s, want 32F", n.Depth())
	}

	out := ConvertDepth(n, Depth8U)
	defer out.Close()
	lo, hi := Stats(out)
	if lo != 0 || hi != 255 {
		t.Errorf("stretched range [%v, %v], want [0, 255]", lo, hi)
	}
	if got := out.At(0, 0, 0); got != 0 {
		t.Errorf("minimum sample maps to %v", got)
	}
	if got := out.At(1, 2, 0); got != 255 {
		t.Errorf("maximum sample maps to %v", got)
	}
	// 3000 sits 2/5 of the way up: 102.
	if got := out.At(0, 2, 0); got != 102 {
		t.Errorf("mid sample maps to %v, want 102", got)
	}
}

func TestNormalizeConstantMapsToLowerBound(t *testing.T) {
	src := mustMat(t, 2, 2, Depth8U, []uint16{7, 7, 7, 7})
	defer src.Close()

	n := Normalize(src, 0, 255)
	defer n.Close()
	lo, hi := Stats(n)
	if lo != 0 || hi != 0 {
		t.Errorf("constant source normalized to [%v, %v], want all 0", lo, hi)
	}
}

func TestConvertDepthSaturates(t *testing.T) {
	src := mustMat(t, 1, 3, Depth16U, []uint16{0, 200, 60000})
	defer src.Close()

	out := ConvertDepth(src, Depth8U)
	defer out.Close()
	want := []float64{0, 200, 255}
	for x, w := range want {
		if got := out.At(0, x, 0); got != w {
			t.Errorf("sample %d = %v, want %v", x, got, w)
		}
	}
}

func TestMergeInterleavesPlanes(t *testing.T) {
	a := mustMat(t, 1, 2, Depth8U, []uint16{1, 2})
	b := mustMat(t, 1, 2, Depth8U, []uint16{3, 4})
	c := mustMat(t, 1, 2, Depth8U, []uint16{5, 6})
	defer a.Close()
	defer b.Close()
	defer c.Close()

	m, err := Merge([]Mat{a, b, c})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	defer m.Close()

	if m.Channels() != 3 || m.Rows() != 1 || m.Cols() != 2 {
		t.Fatalf("merged %dx%dx%d", m.Cols(), m.Rows(), m.Channels())
	}
	want := [2][3]float64{{1, 3, 5}, {2, 4, 6}}
	for x := 0; x < 2; x++ {
		for ch := 0; ch < 3; ch++ {
			if got := m.At(0, x, ch); got != want[x][ch] {
				t.Errorf("pixel %d channel %d = %v, want %v", x, ch, got, want[x][ch])
			}
		}
	}
}

func TestMergeRejectsMismatchedPlanes(t *testing.T) {
	a := mustMat(t, 1, 2, Depth8U, []uint16{1, 2})
	b := mustMat(t, 2, 1, Depth8U, []uint16{3, 4})
	c := mustMat(t, 1, 2, Depth16U, []uint16{5, 6})
	defer a.Close()
	defer b.Close()
	defer c.Close()

	if _, err := Merge(nil); err == nil {
		t.Error("merged no planes")
	}
	if _, err := Merge([]Mat{a, b}); err == nil {
		t.Error("merged planes of different size")
	}
	if _, err := Merge([]Mat{a, c}); err == nil {
		t.Error("merged planes of different depth")
	}
}

func TestCompositePlaneOrder(t *testing.T) {
	p := smallParams()
	raw := syntheticRaw(t, p, 4, 2)
	defer raw.Close()

	ms, err := Demux(raw, p)
	if err != nil {
		t.Fatal(err)
	}
	defer ms.Close()

	comp, err := Composite(ms)
	if err != nil {
		t.Fatalf("Composite: %v", err)
	}
	defer comp.Close()

	if comp.Channels() != 3 || comp.Depth() != Depth8U {
		t.Fatalf("composite is %s with %d channels", comp.Depth(), comp.Channels())
	}
	if comp.Rows() != ms.Layout.MosaicHeight() || comp.Cols() != 2 {
		t.Fatalf("composite is %dx%d", comp.Cols(), comp.Rows())
	}

	// Slot 0 is written only in the blue mosaic, slot 3 only in red.
	order := CompositeOrder()
	for i, c := range order {
		blueRow := comp.At(0, 0, i)
		redRow := comp.At(3*p.BandHeight, 0, i)
		switch c {
		case Blue:
			if blueRow == 0 || redRow != 0 {
				t.Errorf("plane %d (blue): slot0=%v slot3=%v", i, blueRow, redRow)
			}
		case Red:
			if blueRow != 0 || redRow != 255 {
				t.Errorf("plane %d (red): slot0=%v slot3=%v", i, blueRow, redRow)
			}
		case Green:
			if blueRow != 0 || redRow != 0 {
				t.Errorf("plane %d (green): slot0=%v slot3=%v", i, blueRow, redRow)
			}
		}
	}
}

func TestNewMatFromSamplesValidates(t *testing.T) {
	if _, err := NewMatFromSamples(2, 2, 1, Depth8U, []uint16{1, 2, 3}); err == nil {
		t.Error("accepted short sample slice")
	}
	if _, err := NewMatFromSamples(1, 1, 1, Depth8U, []uint16{256}); err == nil {
		t.Error("accepted 8-bit overflow")
	}
	if _, err := NewMatFromSamples(1, 1, 1, Depth32F, []uint16{1}); err == nil {
		t.Error("accepted float depth")
	}
}
