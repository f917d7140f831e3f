package printing

import (
	"fmt"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	// DefaultMinFontSize is the smallest size the fitter shrinks to
	DefaultMinFontSize = 4.0
	// LeadingGap is added to the font size to get the line height
	LeadingGap = 2.0
	// fallbackAdvance approximates a glyph width, relative to the font size,
	// when a face cannot be built
	fallbackAdvance = 0.55
)

// Align is the horizontal alignment of fitted lines
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
)

// FitOptions controls a single Fit call
type FitOptions struct {
	Face      FontFace
	StartSize float64
	// MinSize defaults to DefaultMinFontSize when zero
	MinSize float64
	Align   Align
}

// Line is one wrapped line and its measured width in points
type Line struct {
	Text  string
	Width float64
}

// Paragraph is the result of fitting text into a box
type Paragraph struct {
	Lines    []Line
	Face     FontFace
	FontSize float64
	Leading  float64
	Align    Align
	// Attempts is the number of font sizes tried
	Attempts int
}

// Height returns the vertical space taken by all lines
func (p Paragraph) Height() float64 {
	return float64(len(p.Lines)) * p.Leading
}

// Draw writes the lines onto the canvas starting at the top of box.
// Overflowing paragraphs are drawn anyway.
func (p Paragraph) Draw(c Canvas, box Box) error {
	if len(p.Lines) == 0 {
		return nil
	}
	if err := c.SetFont(p.Face, p.FontSize); err != nil {
		return err
	}
	for i, line := range p.Lines {
		x := box.X
		if p.Align == AlignCenter {
			x += (box.W - line.Width) / 2
		}
		y := box.Y + float64(i)*p.Leading
		if err := c.Text(x, y, line.Text); err != nil {
			return fmt.Errorf("draw line %d: %w", i, err)
		}
	}
	return nil
}

type faceKey struct {
	face FontFace
	size float64
}

// TextFitter wraps text into boxes, shrinking the font until it fits.
// It is safe for concurrent use.
type TextFitter struct {
	fonts map[FontFace]*opentype.Font

	mu    sync.Mutex
	faces map[faceKey]font.Face
}

// NewTextFitter parses the embedded fonts
func NewTextFitter() (*TextFitter, error) {
	fonts := make(map[FontFace]*opentype.Font)
	for _, f := range AllFontFaces() {
		parsed, err := opentype.Parse(f.TTF())
		if err != nil {
			return nil, fmt.Errorf("parse font %s: %w", f, err)
		}
		fonts[f] = parsed
	}
	return &TextFitter{
		fonts: fonts,
		faces: make(map[faceKey]font.Face),
	}, nil
}

// Fit wraps text into box. Starting at opts.StartSize the size is decreased by
// one point until the wrapped height fits or the next size would fall below the
// minimum. The result at the minimum size is returned even if it overflows.
func (f *TextFitter) Fit(text string, box Box, opts FitOptions) Paragraph {
	minSize := opts.MinSize
	if minSize <= 0 {
		minSize = DefaultMinFontSize
	}
	size := opts.StartSize
	if size < minSize {
		size = minSize
	}

	attempts := 0
	for {
		attempts++
		lines := f.wrap(text, opts.Face, size, box.W)
		leading := size + LeadingGap
		if float64(len(lines))*leading <= box.H || size-1 < minSize {
			return Paragraph{
				Lines:    lines,
				Face:     opts.Face,
				FontSize: size,
				Leading:  leading,
				Align:    opts.Align,
				Attempts: attempts,
			}
		}
		size--
	}
}

// Measure returns the advance width of s in points
func (f *TextFitter) Measure(s string, face FontFace, size float64) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.measureLocked(s, face, size)
}

func (f *TextFitter) measureLocked(s string, face FontFace, size float64) float64 {
	ff := f.faceLocked(face, size)
	if ff == nil {
		return float64(len([]rune(s))) * size * fallbackAdvance
	}
	return fixedToFloat(font.MeasureString(ff, s))
}

func (f *TextFitter) faceLocked(face FontFace, size float64) font.Face {
	key := faceKey{face: face, size: size}
	if ff, ok := f.faces[key]; ok {
		return ff
	}
	parsed, ok := f.fonts[face]
	if !ok {
		return nil
	}
	// 72 DPI makes one pixel one point
	ff, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil
	}
	f.faces[key] = ff
	return ff
}

// wrap breaks text into lines no wider than width. Explicit newlines start a new
// line; words wider than the box are split between runes. Whitespace between
// words on the same line is kept as written.
func (f *TextFitter) wrap(text string, face FontFace, size, width float64) []Line {
	f.mu.Lock()
	defer f.mu.Unlock()

	var lines []Line
	text = strings.ReplaceAll(text, "\r\n", "\n")
	for _, para := range strings.Split(text, "\n") {
		words := splitWords(para)
		if len(words) == 0 {
			continue
		}
		var cur string
		var curWidth float64
		flush := func() {
			if cur != "" {
				lines = append(lines, Line{Text: cur, Width: curWidth})
			}
			cur, curWidth = "", 0
		}
		for _, word := range words {
			w := f.measureLocked(word.text, face, size)
			if cur != "" {
				sep := f.measureLocked(word.sep, face, size)
				if curWidth+sep+w <= width {
					cur += word.sep + word.text
					curWidth += sep + w
					continue
				}
			}
			flush()
			if w <= width {
				cur, curWidth = word.text, w
				continue
			}
			pieces := f.breakWord(word.text, face, size, width)
			lines = append(lines, pieces[:len(pieces)-1]...)
			last := pieces[len(pieces)-1]
			cur, curWidth = last.Text, last.Width
		}
		flush()
	}
	return lines
}

// spacedWord is a run of non-space runes and the spaces written before it
type spacedWord struct {
	sep  string
	text string
}

// splitWords splits para at whitespace. Each whitespace rune becomes one space
// in the separator of the following word; leading and trailing space is dropped.
func splitWords(para string) []spacedWord {
	var words []spacedWord
	var sep, text strings.Builder
	for _, r := range para {
		if unicode.IsSpace(r) {
			if text.Len() > 0 {
				words = append(words, spacedWord{sep: sep.String(), text: text.String()})
				sep.Reset()
				text.Reset()
			}
			sep.WriteByte(' ')
			continue
		}
		text.WriteRune(r)
	}
	if text.Len() > 0 {
		words = append(words, spacedWord{sep: sep.String(), text: text.String()})
	}
	return words
}

// breakWord splits a single word into pieces that fit width. Every piece holds
// at least one rune.
func (f *TextFitter) breakWord(word string, face FontFace, size, width float64) []Line {
	var pieces []Line
	var cur []rune
	for _, r := range word {
		next := append(cur, r)
		w := f.measureLocked(string(next), face, size)
		if w > width && len(cur) > 0 {
			pieces = append(pieces, Line{Text: string(cur), Width: f.measureLocked(string(cur), face, size)})
			cur = []rune{r}
			continue
		}
		cur = next
	}
	if len(cur) > 0 {
		pieces = append(pieces, Line{Text: string(cur), Width: f.measureLocked(string(cur), face, size)})
	}
	return pieces
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
