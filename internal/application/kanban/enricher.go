package kanban

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/erp/kanban/internal/domain/kanban"
	"github.com/erp/kanban/internal/infrastructure/inventory"
	"github.com/erp/kanban/internal/infrastructure/logger"
	"github.com/erp/kanban/internal/infrastructure/telemetry"
)

// Image fallback reasons reported in metrics
const (
	FallbackUnresolvable = "unresolvable"
	FallbackFetchFailed  = "fetch_failed"
)

const placeholderSize = 600

// ImageResolver turns an item image reference into a downloadable URL
type ImageResolver interface {
	ResolveImageURL(ref string) (string, bool)
}

// Enricher turns an item code into a renderable card
type Enricher struct {
	items    inventory.ItemSource
	images   inventory.ImageFetcher
	resolver ImageResolver
	fallback image.Image
	metrics  *telemetry.KanbanMetrics
	logger   *zap.Logger
	now      func() time.Time
}

// EnricherOption configures an Enricher
type EnricherOption func(*Enricher)

// WithFallbackImage sets the image used when a photo is unavailable
func WithFallbackImage(img image.Image) EnricherOption {
	return func(e *Enricher) {
		if img != nil {
			e.fallback = img
		}
	}
}

// WithEnricherMetrics sets the metrics recorder
func WithEnricherMetrics(m *telemetry.KanbanMetrics) EnricherOption {
	return func(e *Enricher) {
		e.metrics = m
	}
}

// WithEnricherLogger sets the logger
func WithEnricherLogger(l *zap.Logger) EnricherOption {
	return func(e *Enricher) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEnricher creates an Enricher. The inventory client usually serves as
// both image fetcher and resolver.
func NewEnricher(items inventory.ItemSource, images inventory.ImageFetcher, resolver ImageResolver, opts ...EnricherOption) *Enricher {
	e := &Enricher{
		items:    items,
		images:   images,
		resolver: resolver,
		fallback: PlaceholderImage(),
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich looks up one item and fetches its photo. Any lookup failure is
// returned as a *kanban.LookupError; photo failures fall back silently.
func (e *Enricher) Enrich(ctx context.Context, itemCode string) (*kanban.Card, error) {
	code := strings.TrimSpace(itemCode)
	if code == "" {
		return nil, kanban.NewLookupError(itemCode, kanban.ErrEmptyItemCode)
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "kanban", "enrich",
		telemetry.WithAttribute(telemetry.SpanAttrItemCode, code),
	)
	defer span.End()

	start := e.now()
	item, err := e.items.GetItem(ctx, code)
	e.metrics.RecordLookup(ctx, e.now().Sub(start), err)
	if err != nil {
		lookupErr := kanban.NewLookupError(code, err)
		telemetry.RecordError(span, lookupErr)
		return nil, lookupErr
	}

	img, reason := e.photo(ctx, code, item.Image)

	card, err := kanban.NewCard(code, item.ItemName, img, item.OrderPageLink, item.Suppliers())
	if err != nil {
		lookupErr := kanban.NewLookupError(code, err)
		telemetry.RecordError(span, lookupErr)
		return nil, lookupErr
	}

	if reason != "" {
		card.ImageFallback = true
		e.metrics.RecordImageFallback(ctx, reason)
		telemetry.AddEvent(span, "image_fallback", "reason", reason)
	}
	telemetry.SetOK(span)
	return card, nil
}

// photo returns the item photo, or the fallback image together with the reason
func (e *Enricher) photo(ctx context.Context, code, ref string) (image.Image, string) {
	url, ok := e.resolver.ResolveImageURL(ref)
	if !ok {
		logger.L(ctx).Debug("Item image reference not resolvable, using fallback",
			zap.String("item_code", code),
			zap.String("image", ref),
		)
		return e.fallback, FallbackUnresolvable
	}

	telemetry.SetAttributes(telemetry.SpanFromContext(ctx), telemetry.SpanAttrImageURL, url)
	img, err := e.images.FetchImage(ctx, url)
	if err != nil {
		logger.L(ctx).Debug("Item image fetch failed, using fallback",
			zap.String("item_code", code),
			zap.String("url", url),
			zap.Error(err),
		)
		return e.fallback, FallbackFetchFailed
	}
	return img, ""
}

// LoadFallbackImage opens the configured fallback image. An empty path yields
// the built-in placeholder.
func LoadFallbackImage(path string) (image.Image, error) {
	if strings.TrimSpace(path) == "" {
		return PlaceholderImage(), nil
	}
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("open fallback image %s: %w", path, err)
	}
	return img, nil
}

// PlaceholderImage returns a light grey framed square
func PlaceholderImage() image.Image {
	frame := imaging.New(placeholderSize, placeholderSize, color.NRGBA{R: 170, G: 170, B: 170, A: 255})
	inner := imaging.New(placeholderSize-16, placeholderSize-16, color.NRGBA{R: 235, G: 235, B: 235, A: 255})
	return imaging.PasteCenter(frame, inner)
}
