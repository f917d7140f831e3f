package printing

// Millimetre is one millimetre in PDF points
const Millimetre = 72.0 / 25.4

// MM converts millimetres to points
func MM(v float64) float64 {
	return v * Millimetre
}

// Point is a position in points, origin at the top-left corner of the page
type Point struct {
	X float64
	Y float64
}

// Size is a width and height in points
type Size struct {
	W float64
	H float64
}

// Box is an axis-aligned rectangle in points, origin at its top-left corner
type Box struct {
	X float64
	Y float64
	W float64
	H float64
}

// BoxMM builds a Box from millimetre values
func BoxMM(x, y, w, h float64) Box {
	return Box{X: MM(x), Y: MM(y), W: MM(w), H: MM(h)}
}

// Offset returns the box moved by p
func (b Box) Offset(p Point) Box {
	return Box{X: b.X + p.X, Y: b.Y + p.Y, W: b.W, H: b.H}
}

// Contains reports whether p lies inside the box
func (b Box) Contains(p Point) bool {
	return p.X >= b.X && p.X <= b.X+b.W && p.Y >= b.Y && p.Y <= b.Y+b.H
}

// HalfA6Landscape is the card page: A6 in landscape, 148 x 105 mm
var HalfA6Landscape = Size{W: MM(148), H: MM(105)}
