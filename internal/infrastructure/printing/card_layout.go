package printing

import "fmt"

// TextBlock is a shrink-to-fit text region
type TextBlock struct {
	Box       Box
	Face      FontFace
	StartSize float64
	MinSize   float64
	Align     Align
}

func (t TextBlock) options() FitOptions {
	return FitOptions{Face: t.Face, StartSize: t.StartSize, MinSize: t.MinSize, Align: t.Align}
}

// QRBlock is a QR code region and the raster size it is encoded at
type QRBlock struct {
	Box       Box
	PixelSize int
}

// DividerLayout is the vertical line between the two card halves
type DividerLayout struct {
	X      float64
	Style  LineStyle
	Hidden bool
}

// CardLayout positions every element of a card. Values are in points relative
// to the card origin.
type CardLayout struct {
	PageSize Size
	Divider  DividerLayout

	Title         TextBlock
	TitleMaxRunes int

	ItemCode       TextBlock
	ItemCodePrefix string

	Photo  Box
	ItemQR QRBlock

	// Rows holds the right-hand lines, top to bottom. The first two are
	// followed by the supplier name and the supplier part number.
	Rows          []TextBlock
	RowCaptions   []string
	SupplierRow   int
	SupplierNoRow int

	OrderQR   QRBlock
	OrderText TextBlock
}

// Right-hand row captions
const (
	CaptionSupplier     = "Lieferant: "
	CaptionSupplierNo   = "L-Teilenummer: "
	CaptionOrderQty     = "Bestellmenge:"
	CaptionKanbanUnit   = "KANBAN VE:"
	CaptionLastPrice    = "Letzter Preis:"
	CaptionDateQuantity = "Datum        |        Stk."
	ItemCodePrefix      = "ERP-TeileNr: "
)

// DefaultCardLayout returns the half-A6 landscape reorder card
func DefaultCardLayout() CardLayout {
	captions := []string{
		CaptionSupplier,
		CaptionSupplierNo,
		CaptionOrderQty,
		CaptionKanbanUnit,
		CaptionLastPrice,
		CaptionDateQuantity,
	}
	rows := make([]TextBlock, len(captions))
	for i := range rows {
		rows[i] = TextBlock{
			Box:       BoxMM(76, 5+8*float64(i), 70, 8),
			Face:      FontRegular,
			StartSize: 12,
			Align:     AlignLeft,
		}
	}

	return CardLayout{
		PageSize: HalfA6Landscape,
		Divider: DividerLayout{
			X:     MM(74),
			Style: LineStyle{Width: 0.5, Gray: 204, Dotted: true},
		},
		Title: TextBlock{
			Box:       BoxMM(2, 5, 70, 20),
			Face:      FontBold,
			StartSize: 24,
			Align:     AlignCenter,
		},
		TitleMaxRunes: 34,
		ItemCode: TextBlock{
			Box:       BoxMM(2, 26, 70, 5),
			Face:      FontRegular,
			StartSize: 18,
			Align:     AlignCenter,
		},
		ItemCodePrefix: ItemCodePrefix,
		Photo:          BoxMM(7, 32, 60, 55),
		ItemQR: QRBlock{
			Box:       BoxMM(2, 88, 15, 15),
			PixelSize: 150,
		},
		Rows:          rows,
		RowCaptions:   captions,
		SupplierRow:   0,
		SupplierNoRow: 1,
		OrderQR: QRBlock{
			Box:       BoxMM(96, 69, 30, 30),
			PixelSize: 300,
		},
		OrderText: TextBlock{
			Box:       BoxMM(76, 65, 70, 20),
			Face:      FontRegular,
			StartSize: 18,
			Align:     AlignCenter,
		},
	}
}

// Validate checks that every region lies on the page and that the row
// indexes point at existing rows
func (l CardLayout) Validate() error {
	if l.PageSize.W <= 0 || l.PageSize.H <= 0 {
		return NewRenderError(ErrCodeInvalidLayout, "layout has no page size", nil)
	}
	if len(l.RowCaptions) != len(l.Rows) {
		return NewRenderError(ErrCodeInvalidLayout,
			fmt.Sprintf("layout has %d rows but %d captions", len(l.Rows), len(l.RowCaptions)), nil)
	}
	for _, idx := range []int{l.SupplierRow, l.SupplierNoRow} {
		if idx < 0 || idx >= len(l.Rows) {
			return NewRenderError(ErrCodeInvalidLayout, fmt.Sprintf("supplier row %d out of range", idx), nil)
		}
	}

	regions := map[string]Box{
		"title":      l.Title.Box,
		"item code":  l.ItemCode.Box,
		"photo":      l.Photo,
		"item qr":    l.ItemQR.Box,
		"order qr":   l.OrderQR.Box,
		"order text": l.OrderText.Box,
	}
	for i, row := range l.Rows {
		regions[fmt.Sprintf("row %d", i)] = row.Box
	}
	page := Box{W: l.PageSize.W, H: l.PageSize.H}
	for name, b := range regions {
		if !page.Contains(Point{X: b.X, Y: b.Y}) || !page.Contains(Point{X: b.X + b.W, Y: b.Y + b.H}) {
			return NewRenderError(ErrCodeInvalidLayout, fmt.Sprintf("%s region lies outside the page", name), nil)
		}
	}
	return nil
}
