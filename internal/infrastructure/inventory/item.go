package inventory

import (
	"context"
	"image"

	"github.com/erp/kanban/internal/domain/kanban"
)

// SupplierItem is one entry of an item's supplier table
type SupplierItem struct {
	Supplier       string `json:"supplier"`
	SupplierPartNo string `json:"supplier_part_no"`
}

// Item is the subset of an ERPNext Item document used for cards
type Item struct {
	ItemCode      string         `json:"item_code"`
	ItemName      string         `json:"item_name"`
	Image         string         `json:"image"`
	OrderPageLink string         `json:"orderpage_link"`
	SupplierItems []SupplierItem `json:"supplier_items"`
}

// Suppliers converts the supplier table to domain suppliers
func (i *Item) Suppliers() []kanban.Supplier {
	out := make([]kanban.Supplier, 0, len(i.SupplierItems))
	for _, s := range i.SupplierItems {
		out = append(out, kanban.Supplier{Name: s.Supplier, PartNo: s.SupplierPartNo})
	}
	return out
}

// ItemSource looks up items by code
type ItemSource interface {
	GetItem(ctx context.Context, itemCode string) (*Item, error)
}

// ImageFetcher downloads and decodes an image
type ImageFetcher interface {
	FetchImage(ctx context.Context, url string) (image.Image, error)
}
