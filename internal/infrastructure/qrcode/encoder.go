// Package qrcode renders text payloads as square QR code rasters.
package qrcode

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	qr "github.com/skip2/go-qrcode"
)

// ErrQREncoding is returned when a payload cannot be encoded
var ErrQREncoding = errors.New("qr encoding failed")

// Encoder produces black-on-white QR codes at low error correction
type Encoder struct {
	level qr.RecoveryLevel
}

// NewEncoder creates an Encoder using error correction level Low
func NewEncoder() *Encoder {
	return &Encoder{level: qr.Low}
}

// Encode returns a pixelSize x pixelSize image encoding payload. The module
// matrix (with its 4-module quiet zone) is resampled with nearest-neighbour so
// module edges stay sharp.
func (e *Encoder) Encode(payload string, pixelSize int) (image.Image, error) {
	if payload == "" {
		return nil, fmt.Errorf("%w: payload is empty", ErrQREncoding)
	}
	if pixelSize <= 0 {
		return nil, fmt.Errorf("%w: invalid pixel size %d", ErrQREncoding, pixelSize)
	}

	code, err := qr.New(payload, e.level)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQREncoding, err)
	}

	matrix := moduleImage(code.Bitmap())
	return imaging.Resize(matrix, pixelSize, pixelSize, imaging.NearestNeighbor), nil
}

// moduleImage draws one pixel per module
func moduleImage(bitmap [][]bool) *image.Gray {
	n := len(bitmap)
	img := image.NewGray(image.Rect(0, 0, n, n))
	for y, row := range bitmap {
		for x, dark := range row {
			if dark {
				img.SetGray(x, y, color.Gray{Y: 0})
			} else {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}
