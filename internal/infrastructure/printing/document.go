package printing

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/signintech/gopdf"
)

var (
	// ErrDocumentFinalized is returned when a finalized document is used again
	ErrDocumentFinalized = errors.New("document already finalized")
	// ErrNoPage is returned when drawing before the first AddPage
	ErrNoPage = errors.New("document has no page")
)

// PDFDocument is a Document written with gopdf
type PDFDocument struct {
	pdf       *gopdf.GoPdf
	pageSize  Size
	pages     int
	fonts     map[FontFace]bool
	finalized bool
}

// NewPDFDocument starts an empty document with the given page size. Fonts are
// embedded the first time they are selected.
func NewPDFDocument(pageSize Size) (*PDFDocument, error) {
	if pageSize.W <= 0 || pageSize.H <= 0 {
		return nil, NewRenderError(ErrCodeInvalidPageSize,
			fmt.Sprintf("invalid page size %.2fx%.2f", pageSize.W, pageSize.H), nil)
	}
	pdf := &gopdf.GoPdf{}
	pdf.Start(gopdf.Config{
		Unit:     gopdf.UnitPT,
		PageSize: gopdf.Rect{W: pageSize.W, H: pageSize.H},
	})
	return &PDFDocument{pdf: pdf, pageSize: pageSize, fonts: make(map[FontFace]bool)}, nil
}

// PageSize returns the size of every page
func (d *PDFDocument) PageSize() Size {
	return d.pageSize
}

// AddPage appends a blank page and makes it current
func (d *PDFDocument) AddPage() {
	if d.finalized {
		return
	}
	d.pdf.AddPage()
	d.pages++
}

// PageCount returns the number of pages added so far
func (d *PDFDocument) PageCount() int {
	return d.pages
}

func (d *PDFDocument) ready() error {
	if d.finalized {
		return ErrDocumentFinalized
	}
	if d.pages == 0 {
		return ErrNoPage
	}
	return nil
}

// SetFont selects the face and size for following Text calls
func (d *PDFDocument) SetFont(face FontFace, size float64) error {
	if err := d.ready(); err != nil {
		return err
	}
	if !d.fonts[face] {
		if err := d.pdf.AddTTFFontData(face.String(), face.TTF()); err != nil {
			return NewRenderError(ErrCodeFontFailed, "failed to register font "+face.String(), err)
		}
		d.fonts[face] = true
	}
	if err := d.pdf.SetFont(face.String(), "", size); err != nil {
		return NewRenderError(ErrCodeFontFailed, "failed to set font", err)
	}
	return nil
}

// Text draws s with the top of the line at y
func (d *PDFDocument) Text(x, y float64, s string) error {
	if err := d.ready(); err != nil {
		return err
	}
	d.pdf.SetTextColor(0, 0, 0)
	d.pdf.SetXY(x, y)
	if err := d.pdf.Cell(nil, s); err != nil {
		return NewRenderError(ErrCodeDrawFailed, "failed to draw text", err)
	}
	return nil
}

// Line strokes a line from (x1, y1) to (x2, y2)
func (d *PDFDocument) Line(x1, y1, x2, y2 float64, style LineStyle) error {
	if err := d.ready(); err != nil {
		return err
	}
	d.pdf.SetStrokeColor(style.Gray, style.Gray, style.Gray)
	d.pdf.SetLineWidth(style.Width)
	if style.Dotted {
		d.pdf.SetLineType("dotted")
	}
	d.pdf.Line(x1, y1, x2, y2)
	if style.Dotted {
		d.pdf.SetLineType("solid")
	}
	return nil
}

// Image draws img stretched into box
func (d *PDFDocument) Image(img image.Image, box Box) error {
	if err := d.ready(); err != nil {
		return err
	}
	if img == nil {
		return NewRenderError(ErrCodeDrawFailed, "nil image", nil)
	}
	if err := d.pdf.ImageFrom(img, box.X, box.Y, &gopdf.Rect{W: box.W, H: box.H}); err != nil {
		return NewRenderError(ErrCodeDrawFailed, "failed to draw image", err)
	}
	return nil
}

// Finalize writes the PDF. The document cannot be modified afterwards.
func (d *PDFDocument) Finalize() ([]byte, error) {
	if d.finalized {
		return nil, ErrDocumentFinalized
	}
	d.finalized = true
	var buf bytes.Buffer
	if err := d.pdf.Write(&buf); err != nil {
		return nil, NewRenderError(ErrCodeFinalizeFailed, "failed to write PDF", err)
	}
	return buf.Bytes(), nil
}
