package printing

import (
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// FontFace selects one of the embedded fonts
type FontFace int

const (
	FontRegular FontFace = iota
	FontBold
)

// String returns the font family name registered in the PDF
func (f FontFace) String() string {
	switch f {
	case FontBold:
		return "go-bold"
	default:
		return "go-regular"
	}
}

// TTF returns the TrueType data of the face
func (f FontFace) TTF() []byte {
	switch f {
	case FontBold:
		return gobold.TTF
	default:
		return goregular.TTF
	}
}

// AllFontFaces returns every embedded face
func AllFontFaces() []FontFace {
	return []FontFace{FontRegular, FontBold}
}
