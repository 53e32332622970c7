// Package roi defines the closed set of region-of-interest shapes. All
// coordinates are in axis data space.
package roi

import (
	"fmt"
	"math"
)

// Kind tags an ROI shape
type Kind int

const (
	KindPoint Kind = iota
	KindLine
	KindBox
	KindSector
)

var kindNames = [...]string{"point", "line", "box", "sector"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind converts a kind name back to its tag
func ParseKind(s string) (Kind, error) {
	for i, n := range kindNames {
		if n == s {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown ROI kind %q", s)
}

// ROI is implemented only by Point, Line, Box and Sector
type ROI interface {
	Kind() Kind

	// Points returns the defining coordinates
	Points() [][2]float64

	// Contains reports whether (x, y) lies inside or on the shape
	Contains(x, y float64) bool

	// Bounds returns the axis-aligned bounding box
	Bounds() Rect

	// Translate returns a copy moved by (dx, dy)
	Translate(dx, dy float64) ROI

	sealed()
}

// Zero returns the default shape for a kind
func Zero(k Kind) (ROI, error) {
	switch k {
	case KindPoint:
		return Point{}, nil
	case KindLine:
		return Line{}, nil
	case KindBox:
		return Box{}, nil
	case KindSector:
		return Sector{}, nil
	}
	return nil, fmt.Errorf("unknown ROI kind %d", int(k))
}

// Rect is an axis-aligned rectangle
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// Width returns the horizontal extent
func (r Rect) Width() float64 { return r.MaxX - r.MinX }

// Height returns the vertical extent
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Intersects reports whether two rectangles overlap
func (r Rect) Intersects(o Rect) bool {
	return r.MinX <= o.MaxX && o.MinX <= r.MaxX && r.MinY <= o.MaxY && o.MinY <= r.MaxY
}

// Intersects reports whether the bounds of two shapes overlap
func Intersects(a, b ROI) bool {
	return a.Bounds().Intersects(b.Bounds())
}

// Point is a single position
type Point struct {
	X, Y float64
}

func (Point) Kind() Kind { return KindPoint }

func (p Point) Points() [][2]float64 { return [][2]float64{{p.X, p.Y}} }

func (p Point) Contains(x, y float64) bool { return x == p.X && y == p.Y }

func (p Point) Bounds() Rect { return Rect{p.X, p.Y, p.X, p.Y} }

func (p Point) Translate(dx, dy float64) ROI { return Point{p.X + dx, p.Y + dy} }

func (Point) sealed() {}

// Line runs from (X0, Y0) to (X1, Y1)
type Line struct {
	X0, Y0, X1, Y1 float64
}

func (Line) Kind() Kind { return KindLine }

func (l Line) Points() [][2]float64 { return [][2]float64{{l.X0, l.Y0}, {l.X1, l.Y1}} }

// Length returns the Euclidean length
func (l Line) Length() float64 { return math.Hypot(l.X1-l.X0, l.Y1-l.Y0) }

// Angle returns the direction in radians measured from the x axis
func (l Line) Angle() float64 { return math.Atan2(l.Y1-l.Y0, l.X1-l.X0) }

// At returns the point a distance d from the start along the line
func (l Line) At(d float64) (float64, float64) {
	length := l.Length()
	if length == 0 {
		return l.X0, l.Y0
	}
	t := d / length
	return l.X0 + t*(l.X1-l.X0), l.Y0 + t*(l.Y1-l.Y0)
}

// Contains reports whether (x, y) is on the segment within a small tolerance
func (l Line) Contains(x, y float64) bool {
	const tol = 1e-9
	dx, dy := l.X1-l.X0, l.Y1-l.Y0
	length2 := dx*dx + dy*dy
	if length2 == 0 {
		return math.Abs(x-l.X0) <= tol && math.Abs(y-l.Y0) <= tol
	}
	t := ((x-l.X0)*dx + (y-l.Y0)*dy) / length2
	if t < -tol || t > 1+tol {
		return false
	}
	px, py := l.X0+t*dx, l.Y0+t*dy
	return math.Hypot(x-px, y-py) <= tol*math.Max(1, math.Sqrt(length2))
}

func (l Line) Bounds() Rect {
	return Rect{math.Min(l.X0, l.X1), math.Min(l.Y0, l.Y1), math.Max(l.X0, l.X1), math.Max(l.Y0, l.Y1)}
}

func (l Line) Translate(dx, dy float64) ROI {
	return Line{l.X0 + dx, l.Y0 + dy, l.X1 + dx, l.Y1 + dy}
}

func (Line) sealed() {}

// Box is an axis-aligned rectangle anchored at (X, Y) with the given extents
type Box struct {
	X, Y          float64
	Width, Height float64
}

func (Box) Kind() Kind { return KindBox }

func (b Box) Points() [][2]float64 {
	return [][2]float64{{b.X, b.Y}, {b.X + b.Width, b.Y + b.Height}}
}

func (b Box) Contains(x, y float64) bool {
	r := b.Bounds()
	return x >= r.MinX && x <= r.MaxX && y >= r.MinY && y <= r.MaxY
}

func (b Box) Bounds() Rect {
	return Rect{
		math.Min(b.X, b.X+b.Width), math.Min(b.Y, b.Y+b.Height),
		math.Max(b.X, b.X+b.Width), math.Max(b.Y, b.Y+b.Height),
	}
}

func (b Box) Translate(dx, dy float64) ROI {
	return Box{b.X + dx, b.Y + dy, b.Width, b.Height}
}

func (Box) sealed() {}

// Sector is an annular wedge around (CX, CY). Angles are in radians,
// counter-clockwise from the x axis, and the span runs from A0 to A1.
type Sector struct {
	CX, CY float64
	R0, R1 float64
	A0, A1 float64
}

func (Sector) Kind() Kind { return KindSector }

func (s Sector) Points() [][2]float64 { return [][2]float64{{s.CX, s.CY}} }

// Span returns the angular extent in radians, in [0, 2π]
func (s Sector) Span() float64 {
	span := s.A1 - s.A0
	if span >= 2*math.Pi {
		return 2 * math.Pi
	}
	span = math.Mod(span, 2*math.Pi)
	if span < 0 {
		span += 2 * math.Pi
	}
	return span
}

// ContainsAngle reports whether the direction a falls inside the span
func (s Sector) ContainsAngle(a float64) bool {
	span := s.Span()
	if span >= 2*math.Pi {
		return true
	}
	d := math.Mod(a-s.A0, 2*math.Pi)
	if d < 0 {
		d += 2 * math.Pi
	}
	return d <= span
}

func (s Sector) Contains(x, y float64) bool {
	r := math.Hypot(x-s.CX, y-s.CY)
	if r < s.R0 || r > s.R1 {
		return false
	}
	if r == 0 {
		return true
	}
	return s.ContainsAngle(math.Atan2(y-s.CY, x-s.CX))
}

// Bounds is the bounding box of the full outer circle
func (s Sector) Bounds() Rect {
	return Rect{s.CX - s.R1, s.CY - s.R1, s.CX + s.R1, s.CY + s.R1}
}

func (s Sector) Translate(dx, dy float64) ROI {
	s.CX += dx
	s.CY += dy
	return s
}

func (Sector) sealed() {}
