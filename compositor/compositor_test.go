package compositor

import (
	"image"
	"math"
	"testing"

	"github.com/pthm-cable/regrow/camera"
	"github.com/pthm-cable/regrow/grid"
)

func TestComponentFormula(t *testing.T) {
	cases := []struct {
		c, a float32
		want uint8
	}{
		{0.6, 0.4, 254}, // 1-0.4+0.6 = 1.2 clamps to 0.999 -> 254.745
		{0, 1, 0},       // opaque black
		{0.5, 1, 127},   // opaque: raw channel
		{0, 0, 254},     // transparent shows the ceiling
		{0.2, 0.9, 76},  // 0.3*255 = 76.5
		{-2, 1, 0},      // clamps at 0
		{1, 1, 254},     // opaque white still capped
	}
	for _, tc := range cases {
		if got := Component(tc.c, tc.a); got != tc.want {
			t.Errorf("Component(%v, %v) = %d, want %d", tc.c, tc.a, got, tc.want)
		}
	}
}

func TestComponentBounded(t *testing.T) {
	values := []float32{
		-1e9, -5, -1, -0.5, 0, 0.001, 0.25, 0.5, 0.999, 1, 1.5, 7, 1e9,
		float32(math.Inf(1)), float32(math.Inf(-1)), float32(math.NaN()),
	}
	for _, c := range values {
		for _, a := range values {
			got := Component(c, a)
			if got > 254 {
				t.Fatalf("Component(%v, %v) = %d, above 254", c, a, got)
			}
		}
	}
}

func TestCellColorPerChannel(t *testing.T) {
	r, g, b := CellColor(0.1, 0.5, 0.9, 1)
	if r != 25 || g != 127 || b != 229 {
		t.Errorf("CellColor = (%d,%d,%d), want (25,127,229)", r, g, b)
	}
}

func TestRenderPixelsOneRectPerCell(t *testing.T) {
	s, _ := grid.NewSeeded(46, 46, 16)
	vp := camera.New(1280, 720, 46, 46, 0.8)
	rects := RenderPixels(s, vp)
	if len(rects) != 46*46 {
		t.Fatalf("got %d rects, want %d", len(rects), 46*46)
	}

	// seed cell: alpha 1, color 0 -> black
	seed := rects[23*46+23]
	if seed.R != 0 || seed.G != 0 || seed.B != 0 {
		t.Errorf("seed cell color = (%d,%d,%d), want black", seed.R, seed.G, seed.B)
	}
	// empty cell: alpha 0 -> near white
	if rects[0].R != 254 {
		t.Errorf("empty cell red = %d, want 254", rects[0].R)
	}
}

func TestRenderPixelsTilesExactly(t *testing.T) {
	cases := []struct {
		dw, dh float64
		gw, gh int
	}{
		{1280, 720, 46, 46},
		{1001, 777, 46, 46},
		{333, 999, 7, 13},
		{640, 480, 64, 48},
		{50, 50, 46, 46}, // cells smaller than a pixel
		{0, 0, 8, 8},     // degenerate display
	}
	for _, tc := range cases {
		s, _ := grid.New(tc.gh, tc.gw, 4)
		vp := camera.New(tc.dw, tc.dh, tc.gw, tc.gh, 0.8)
		rects := RenderPixels(s, vp)
		bounds := Bounds(s, vp)

		covered := make(map[image.Point]int)
		for _, r := range rects {
			if r.W < 0 || r.H < 0 {
				t.Fatalf("negative rect size %+v", r)
			}
			for y := r.Y; y < r.Y+r.H; y++ {
				for x := r.X; x < r.X+r.W; x++ {
					covered[image.Pt(x, y)]++
				}
			}
		}
		if len(covered) != bounds.Dx()*bounds.Dy() {
			t.Errorf("%v: covered %d pixels, bounds hold %d", tc, len(covered), bounds.Dx()*bounds.Dy())
		}
		for p, n := range covered {
			if n != 1 {
				t.Fatalf("%v: pixel %v covered %d times", tc, p, n)
			}
			if !p.In(bounds) {
				t.Fatalf("%v: pixel %v outside bounds %v", tc, p, bounds)
			}
		}
	}
}

func TestRenderPixelsOffsets(t *testing.T) {
	s, _ := grid.New(10, 10, 4)
	vp := camera.New(1000, 1000, 10, 10, 0.8)
	rects := RenderPixels(s, vp)
	first := rects[0]
	if first.X != 100 || first.Y != 100 || first.W != 80 || first.H != 80 {
		t.Errorf("first rect = %+v, want at (100,100) size 80", first)
	}
	last := rects[len(rects)-1]
	if last.X != 820 || last.Y != 820 {
		t.Errorf("last rect at (%d,%d), want (820,820)", last.X, last.Y)
	}
}

func TestRenderPixelsPanicsOnMalformedState(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for malformed state")
		}
	}()
	bad := &grid.State{Height: 2, Width: 2, Channels: 4, Cells: make([]float32, 3)}
	RenderPixels(bad, camera.New(100, 100, 2, 2, 0.8))
}

func TestAppendChannelGrayscale(t *testing.T) {
	s, _ := grid.NewSeeded(3, 3, 6)
	s.Cells[s.Index(0, 0)+4] = 0.5
	s.Cells[s.Index(2, 2)+4] = 7
	vp := camera.New(300, 300, 3, 3, 0.8)

	rects := AppendChannel(nil, s, vp, grid.ChannelAlpha)
	if len(rects) != 9 {
		t.Fatalf("got %d rects, want 9", len(rects))
	}
	if c := rects[4]; c.R != 254 || c.G != 254 || c.B != 254 {
		t.Errorf("seed alpha shade = %+v, want 254", c)
	}
	if c := rects[0]; c.R != 0 {
		t.Errorf("empty alpha shade = %d, want 0", c.R)
	}

	hidden := AppendChannel(nil, s, vp, 4)
	if hidden[0].R != 127 || hidden[8].R != 254 {
		t.Errorf("hidden shades = %d, %d; want 127, 254", hidden[0].R, hidden[8].R)
	}

	// Same tiling as the color rendering
	color := RenderPixels(s, vp)
	for i := range color {
		if color[i].X != hidden[i].X || color[i].W != hidden[i].W {
			t.Fatalf("rect %d tiles differently", i)
		}
	}
}

func TestLevel(t *testing.T) {
	cases := []struct {
		in   float32
		want uint8
	}{
		{-1, 0}, {0, 0}, {0.5, 127}, {1, 254}, {float32(math.NaN()), 0}, {float32(math.Inf(1)), 254},
	}
	for _, c := range cases {
		if got := Level(c.in); got != c.want {
			t.Errorf("Level(%v) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestAppendChannelPanicsOutOfRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for missing channel")
		}
	}()
	s, _ := grid.New(2, 2, 4)
	AppendChannel(nil, s, camera.New(100, 100, 2, 2, 0.8), 4)
}
