package camera

import (
	"math"
	"testing"
)

func TestNewCentersGrid(t *testing.T) {
	vp := New(1280, 720, 46, 46, 0.8)

	if vp.Scale != 720 {
		t.Errorf("expected scale 720, got %f", vp.Scale)
	}
	// span = 576; (1280-576)/2 = 352, (720-576)/2 = 72
	if vp.OffsetX != 352 || vp.OffsetY != 72 {
		t.Errorf("expected offset (352, 72), got (%f, %f)", vp.OffsetX, vp.OffsetY)
	}
}

func TestOffsetsAreFloored(t *testing.T) {
	vp := New(1001, 700, 46, 46, 0.8)
	// span = 560; (1001-560)/2 = 220.5
	if vp.OffsetX != 220 {
		t.Errorf("expected floored offset 220, got %f", vp.OffsetX)
	}
}

func TestCellSize(t *testing.T) {
	vp := New(800, 600, 40, 30, 0.8)
	sx, sy := vp.CellSize()
	if math.Abs(sx-12) > 1e-9 || math.Abs(sy-16) > 1e-9 {
		t.Errorf("expected cell size (12, 16), got (%f, %f)", sx, sy)
	}
}

func TestToGridCellCenters(t *testing.T) {
	vp := New(1000, 1000, 10, 10, 0.8)
	// span 800, offset 100, cells of 80px: center of cell (3,7) at (100+240+40, 100+560+40)
	mx, my := vp.ToGrid(380, 700)
	if math.Abs(mx-3) > 1e-9 || math.Abs(my-7) > 1e-9 {
		t.Errorf("expected (3, 7), got (%f, %f)", mx, my)
	}

	// top-left corner of the grid sits half a cell before cell 0
	mx, my = vp.ToGrid(100, 100)
	if mx != -0.5 || my != -0.5 {
		t.Errorf("expected (-0.5, -0.5), got (%f, %f)", mx, my)
	}
}

func TestToScreenRoundtrip(t *testing.T) {
	vp := New(1280, 720, 46, 46, 0.8)

	testCases := []struct{ px, py float32 }{
		{640, 360},
		{352, 72},
		{900, 600},
		{0, 0},
	}
	for _, tc := range testCases {
		mx, my := vp.ToGrid(tc.px, tc.py)
		px, py := vp.ToScreen(mx, my)
		if math.Abs(px-float64(tc.px)) > 1e-6 || math.Abs(py-float64(tc.py)) > 1e-6 {
			t.Errorf("roundtrip failed: (%f,%f) -> (%f,%f) -> (%f,%f)",
				tc.px, tc.py, mx, my, px, py)
		}
	}
}

func TestResize(t *testing.T) {
	vp := New(1280, 720, 46, 46, 0.8)
	vp.Resize(500, 900)
	if vp.Scale != 500 {
		t.Errorf("expected scale 500, got %f", vp.Scale)
	}
	if vp.OffsetX != 50 || vp.OffsetY != 250 {
		t.Errorf("expected offset (50, 250), got (%f, %f)", vp.OffsetX, vp.OffsetY)
	}
}

func TestContains(t *testing.T) {
	vp := New(1000, 1000, 10, 10, 0.8)
	if !vp.Contains(500, 500) {
		t.Error("center should be inside")
	}
	if vp.Contains(50, 500) || vp.Contains(500, 900) {
		t.Error("margins should be outside")
	}
}

func TestDefaultCanvasRatio(t *testing.T) {
	vp := New(100, 100, 4, 4, 0)
	if vp.CanvasRatio != DefaultCanvasRatio {
		t.Errorf("expected default ratio, got %f", vp.CanvasRatio)
	}
}
