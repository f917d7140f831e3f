package kanban

import (
	"image"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Placeholders used when the inventory record carries no supplier entries
const (
	DefaultSupplierName   = "Unknown Supplier"
	DefaultSupplierPartNo = "-"
)

// DefaultTitleMaxRunes is the title length kept on a card before the ellipsis marker
const DefaultTitleMaxRunes = 34

// TitleEllipsis is appended to truncated titles
const TitleEllipsis = ".."

// Card is one enriched inventory item, ready to be rendered onto a page
type Card struct {
	ItemCode       string
	Title          string
	Image          image.Image
	OrderLink      string
	SupplierName   string
	SupplierPartNo string
	// ImageFallback is true when the item photo could not be fetched
	ImageFallback bool
}

// Supplier is one supplier association of an inventory item
type Supplier struct {
	Name   string
	PartNo string
}

// NewCard builds a card from looked-up item data. Only the first supplier is
// used; missing supplier data falls back to the documented placeholders.
func NewCard(itemCode, title string, img image.Image, orderLink string, suppliers []Supplier) (*Card, error) {
	itemCode = strings.TrimSpace(itemCode)
	if itemCode == "" {
		return nil, ErrEmptyItemCode
	}
	if img == nil {
		return nil, ErrMissingImage
	}

	card := &Card{
		ItemCode:       itemCode,
		Title:          norm.NFC.String(title),
		Image:          img,
		OrderLink:      strings.TrimSpace(orderLink),
		SupplierName:   DefaultSupplierName,
		SupplierPartNo: DefaultSupplierPartNo,
	}

	if len(suppliers) > 0 {
		if name := strings.TrimSpace(suppliers[0].Name); name != "" {
			card.SupplierName = name
		}
		if partNo := strings.TrimSpace(suppliers[0].PartNo); partNo != "" {
			card.SupplierPartNo = partNo
		}
	}

	return card, nil
}

// DisplayTitle returns the title truncated to maxRunes runes plus the ellipsis
// marker. A non-positive maxRunes disables truncation.
func (c *Card) DisplayTitle(maxRunes int) string {
	return TruncateTitle(c.Title, maxRunes)
}

// HasOrderURL reports whether the order link is rendered as a QR code
func (c *Card) HasOrderURL() bool {
	return strings.HasPrefix(c.OrderLink, "http")
}

// TruncateTitle cuts title to maxRunes runes and appends TitleEllipsis
func TruncateTitle(title string, maxRunes int) string {
	if maxRunes <= 0 {
		return title
	}
	runes := []rune(title)
	if len(runes) <= maxRunes {
		return title
	}
	return string(runes[:maxRunes]) + TitleEllipsis
}
