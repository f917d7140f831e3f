package printing

import (
	"image"
)

type textCall struct {
	X, Y float64
	Text string
	Face FontFace
	Size float64
}

type lineCall struct {
	X1, Y1, X2, Y2 float64
	Style          LineStyle
}

type imageCall struct {
	Img image.Image
	Box Box
}

// recordingCanvas records every drawing call
type recordingCanvas struct {
	face   FontFace
	size   float64
	texts  []textCall
	lines  []lineCall
	images []imageCall
}

func (c *recordingCanvas) SetFont(face FontFace, size float64) error {
	c.face = face
	c.size = size
	return nil
}

func (c *recordingCanvas) Text(x, y float64, s string) error {
	c.texts = append(c.texts, textCall{X: x, Y: y, Text: s, Face: c.face, Size: c.size})
	return nil
}

func (c *recordingCanvas) Line(x1, y1, x2, y2 float64, style LineStyle) error {
	c.lines = append(c.lines, lineCall{X1: x1, Y1: y1, X2: x2, Y2: y2, Style: style})
	return nil
}

func (c *recordingCanvas) Image(img image.Image, box Box) error {
	c.images = append(c.images, imageCall{Img: img, Box: box})
	return nil
}

func (c *recordingCanvas) textsIn(box Box) []textCall {
	var out []textCall
	for _, t := range c.texts {
		if box.Contains(Point{X: t.X, Y: t.Y}) {
			out = append(out, t)
		}
	}
	return out
}

func (c *recordingCanvas) joined() string {
	s := ""
	for i, t := range c.texts {
		if i > 0 {
			s += " "
		}
		s += t.Text
	}
	return s
}
