package creative

import "math"

// Rect is an axis-aligned rectangle in canvas pixels.
type Rect struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.Left + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Overlaps reports whether r and o share interior area. Touching edges do not
// overlap and empty rectangles never overlap.
func (r Rect) Overlaps(o Rect) bool {
	if r.Empty() || o.Empty() {
		return false
	}
	return r.Left < o.Right() && o.Left < r.Right() &&
		r.Top < o.Bottom() && o.Top < r.Bottom()
}

// Contains reports whether o lies entirely inside r (edges inclusive).
func (r Rect) Contains(o Rect) bool {
	return o.Left >= r.Left && o.Top >= r.Top &&
		o.Right() <= r.Right() && o.Bottom() <= r.Bottom()
}

// Bounds returns the axis-aligned bounding rectangle of the scaled element. For a
// rotated element this is the bounding box of the rectangle rotated by Angle
// degrees around its origin (X, Y).
func (e *Element) Bounds() Rect {
	w := e.Width * scaleOrOne(e.ScaleX)
	h := e.Height * scaleOrOne(e.ScaleY)
	if math.Mod(e.Angle, 360) == 0 {
		return Rect{Left: e.X, Top: e.Y, Width: w, Height: h}
	}

	rad := e.Angle * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)
	corners := [4][2]float64{{0, 0}, {w, 0}, {w, h}, {0, h}}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range corners {
		x := e.X + c[0]*cos - c[1]*sin
		y := e.Y + c[0]*sin + c[1]*cos
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	return Rect{Left: minX, Top: minY, Width: maxX - minX, Height: maxY - minY}
}

// Canvas returns the full canvas rectangle of the format.
func (f Format) Canvas() Rect {
	return Rect{Width: f.Width, Height: f.Height}
}
