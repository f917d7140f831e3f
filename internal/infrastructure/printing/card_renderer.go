package printing

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/erp/kanban/internal/domain/kanban"
)

// maxPhotoPixels bounds the longest side of an embedded photo
const maxPhotoPixels = 1000

// QREncoder produces a square QR raster of exactly pixelSize pixels
type QREncoder interface {
	Encode(payload string, pixelSize int) (image.Image, error)
}

// CardRenderer draws cards onto pages
type CardRenderer struct {
	layout CardLayout
	fitter *TextFitter
	qr     QREncoder
}

// NewCardRenderer creates a renderer for the layout
func NewCardRenderer(layout CardLayout, fitter *TextFitter, qr QREncoder) *CardRenderer {
	return &CardRenderer{layout: layout, fitter: fitter, qr: qr}
}

// Render draws card onto page with its top-left corner at origin. QR encoding
// errors are returned as a RenderError with code ErrCodeQRFailed.
func (r *CardRenderer) Render(page Canvas, card *kanban.Card, origin Point) error {
	l := r.layout

	if !l.Divider.Hidden {
		x := origin.X + l.Divider.X
		if err := page.Line(x, origin.Y, x, origin.Y+l.PageSize.H, l.Divider.Style); err != nil {
			return err
		}
	}

	if err := r.drawText(page, card.DisplayTitle(l.TitleMaxRunes), l.Title, origin); err != nil {
		return err
	}
	if err := r.drawText(page, l.ItemCodePrefix+card.ItemCode, l.ItemCode, origin); err != nil {
		return err
	}

	if card.Image != nil {
		if err := page.Image(prepareImage(card.Image), fitImage(card.Image, l.Photo.Offset(origin))); err != nil {
			return err
		}
	}

	if err := r.drawQR(page, card.ItemCode, l.ItemQR, origin); err != nil {
		return err
	}

	for i, row := range l.Rows {
		text := l.RowCaptions[i]
		switch i {
		case l.SupplierRow:
			text += card.SupplierName
		case l.SupplierNoRow:
			text += card.SupplierPartNo
		}
		if err := r.drawText(page, text, row, origin); err != nil {
			return err
		}
	}

	switch {
	case card.HasOrderURL():
		return r.drawQR(page, card.OrderLink, l.OrderQR, origin)
	case card.OrderLink != "":
		return r.drawText(page, card.OrderLink, l.OrderText, origin)
	default:
		return nil
	}
}

func (r *CardRenderer) drawText(page Canvas, text string, block TextBlock, origin Point) error {
	box := block.Box.Offset(origin)
	p := r.fitter.Fit(text, box, block.options())
	return p.Draw(page, box)
}

func (r *CardRenderer) drawQR(page Canvas, payload string, block QRBlock, origin Point) error {
	img, err := r.qr.Encode(payload, block.PixelSize)
	if err != nil {
		return NewRenderError(ErrCodeQRFailed, "failed to encode QR code", err)
	}
	return page.Image(img, block.Box.Offset(origin))
}

// fitImage returns the largest box with the image's aspect ratio centred in box
func fitImage(img image.Image, box Box) Box {
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return box
	}
	ratio := float64(b.Dx()) / float64(b.Dy())
	w, h := box.W, box.W/ratio
	if h > box.H {
		h = box.H
		w = box.H * ratio
	}
	return Box{
		X: box.X + (box.W-w)/2,
		Y: box.Y + (box.H-h)/2,
		W: w,
		H: h,
	}
}

func prepareImage(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() <= maxPhotoPixels && b.Dy() <= maxPhotoPixels {
		return img
	}
	return imaging.Fit(img, maxPhotoPixels, maxPhotoPixels, imaging.Lanczos)
}
