package grid

import "math"

// Point is a position in grid coordinates. Integer values sit on cell
// centers; points may be fractional and may lie outside the grid.
type Point struct {
	X, Y float64
}

// ApplyDamage erases every cell within radius of each point, all channels
// included. Points are applied in order to one working copy of s. With no
// points s itself is returned. Cells outside the grid are never touched, so
// points off the grid may miss it partially or entirely.
func ApplyDamage(s *State, points []Point, radius float64) *State {
	if len(points) == 0 {
		return s
	}
	out := s.Clone()
	r2 := radius * radius
	for _, p := range points {
		x0, x1 := span(p.X, radius, out.Width)
		y0, y1 := span(p.Y, radius, out.Height)
		for y := y0; y <= y1; y++ {
			dy := p.Y - float64(y)
			for x := x0; x <= x1; x++ {
				dx := p.X - float64(x)
				if dx*dx+dy*dy > r2 {
					continue
				}
				clear(out.Cell(x, y))
			}
		}
	}
	return out
}

// span narrows the scan along one axis to the cells that can fall inside the
// disc, clamped to [0, n). An empty span has lo > hi.
func span(center, radius float64, n int) (lo, hi int) {
	if math.IsNaN(center) || math.IsNaN(radius) || radius < 0 {
		return 0, -1
	}
	fl := math.Floor(center - radius)
	fh := math.Ceil(center + radius)
	if fh < 0 || fl > float64(n-1) {
		return 0, -1
	}
	lo, hi = 0, n-1
	if fl > 0 {
		lo = int(fl)
	}
	if fh < float64(n-1) {
		hi = int(fh)
	}
	return lo, hi
}
