package printing

import "image"

// LineStyle describes a stroked line
type LineStyle struct {
	Width  float64
	Gray   uint8
	Dotted bool
}

// Canvas is the drawing surface of one page. All coordinates are points with
// the origin at the top-left corner of the page.
type Canvas interface {
	SetFont(face FontFace, size float64) error
	// Text draws s with the top of the line box at y
	Text(x, y float64, s string) error
	Line(x1, y1, x2, y2 float64, style LineStyle) error
	Image(img image.Image, box Box) error
}

// Document is a multi-page canvas. Drawing goes to the last added page.
type Document interface {
	Canvas
	AddPage()
	PageCount() int
	// Finalize serializes the document. It can be called once.
	Finalize() ([]byte, error)
}
