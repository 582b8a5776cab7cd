package model

import "math"

// Point represents a 2D point in normalized page coordinates
type Point struct {
	X, Y float64
}

// BBox represents a bounding box in normalized page coordinates.
// The origin is the top-left corner of the page: X grows rightward,
// Y grows downward, and all values lie in [0,1] for on-page content.
type BBox struct {
	X0 float64 // Left
	Y0 float64 // Top
	X1 float64 // Right
	Y1 float64 // Bottom
}

// NewBBox creates a bounding box from edge coordinates
func NewBBox(x0, y0, x1, y1 float64) BBox {
	return BBox{X0: x0, Y0: y0, X1: x1, Y1: y1}
}

// Width returns the horizontal extent of the box
func (b BBox) Width() float64 {
	return b.X1 - b.X0
}

// Height returns the vertical extent of the box
func (b BBox) Height() float64 {
	return b.Y1 - b.Y0
}

// CenterX returns the horizontal center
func (b BBox) CenterX() float64 {
	return (b.X0 + b.X1) / 2
}

// CenterY returns the vertical center
func (b BBox) CenterY() float64 {
	return (b.Y0 + b.Y1) / 2
}

// Center returns the center point
func (b BBox) Center() Point {
	return Point{X: b.CenterX(), Y: b.CenterY()}
}

// Contains checks if a point is inside the bounding box
func (b BBox) Contains(p Point) bool {
	return p.X >= b.X0 && p.X <= b.X1 && p.Y >= b.Y0 && p.Y <= b.Y1
}

// Intersects checks if two bounding boxes intersect
func (b BBox) Intersects(other BBox) bool {
	return !(b.X1 < other.X0 || b.X0 > other.X1 ||
		b.Y1 < other.Y0 || b.Y0 > other.Y1)
}

// Union returns the smallest box covering both boxes
func (b BBox) Union(other BBox) BBox {
	return BBox{
		X0: math.Min(b.X0, other.X0),
		Y0: math.Min(b.Y0, other.Y0),
		X1: math.Max(b.X1, other.X1),
		Y1: math.Max(b.Y1, other.Y1),
	}
}

// Area returns the area of the bounding box
func (b BBox) Area() float64 {
	return b.Width() * b.Height()
}

// IsEmpty returns true if the bounding box has zero or negative area
func (b BBox) IsEmpty() bool {
	return b.Width() <= 0 || b.Height() <= 0
}

// VerticalOverlap returns the fraction of this box's height that overlaps
// the other box vertically. Returns a value in [0,1].
func (b BBox) VerticalOverlap(other BBox) float64 {
	if b.Height() <= 0 {
		return 0
	}
	top := math.Max(b.Y0, other.Y0)
	bottom := math.Min(b.Y1, other.Y1)
	if bottom <= top {
		return 0
	}
	return (bottom - top) / b.Height()
}

// Clamp01 clamps all edges of the box into [0,1]
func (b BBox) Clamp01() BBox {
	return BBox{
		X0: clamp01(b.X0),
		Y0: clamp01(b.Y0),
		X1: clamp01(b.X1),
		Y1: clamp01(b.Y1),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Rect is an absolute rectangle in page points, used when talking to an
// external candidate engine that works in unscaled coordinates.
type Rect struct {
	X0, Y0, X1, Y1 float64
}

// ToRect converts a normalized box into page points
func (b BBox) ToRect(pageWidth, pageHeight float64) Rect {
	return Rect{
		X0: b.X0 * pageWidth,
		Y0: b.Y0 * pageHeight,
		X1: b.X1 * pageWidth,
		Y1: b.Y1 * pageHeight,
	}
}

// Normalize converts an absolute rectangle back into normalized coordinates.
// Zero page dimensions yield an empty box.
func (r Rect) Normalize(pageWidth, pageHeight float64) BBox {
	if pageWidth <= 0 || pageHeight <= 0 {
		return BBox{}
	}
	return BBox{
		X0: r.X0 / pageWidth,
		Y0: r.Y0 / pageHeight,
		X1: r.X1 / pageWidth,
		Y1: r.Y1 / pageHeight,
	}
}
