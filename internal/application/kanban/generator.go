package kanban

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/erp/kanban/internal/domain/kanban"
	"github.com/erp/kanban/internal/infrastructure/logger"
	"github.com/erp/kanban/internal/infrastructure/printing"
	"github.com/erp/kanban/internal/infrastructure/storage"
	"github.com/erp/kanban/internal/infrastructure/telemetry"
)

// Ordering decides the page order of a generated document
type Ordering string

const (
	// OrderingInput emits pages in the order the codes were given
	OrderingInput Ordering = "input"
	// OrderingCompletion emits pages as soon as their lookup completes
	OrderingCompletion Ordering = "completion"
)

// DefaultConcurrency is the number of lookups in flight per run
const DefaultConcurrency = 10

// CardEnricher resolves an item code into a card
type CardEnricher interface {
	Enrich(ctx context.Context, itemCode string) (*kanban.Card, error)
}

// CardRenderer draws a card onto the current page
type CardRenderer interface {
	Render(page printing.Canvas, card *kanban.Card, origin printing.Point) error
}

// DocumentFactory starts an empty output document
type DocumentFactory func() (printing.Document, error)

// NewPDFDocumentFactory returns a factory for card-sized PDF documents
func NewPDFDocumentFactory(pageSize printing.Size) DocumentFactory {
	return func() (printing.Document, error) {
		return printing.NewPDFDocument(pageSize)
	}
}

// GeneratorConfig holds the generator settings
type GeneratorConfig struct {
	Concurrency int
	Ordering    Ordering
	// Source labels metrics, e.g. "cli" or "http"
	Source string
}

// Generator builds one document of cards per run
type Generator struct {
	enricher    CardEnricher
	renderer    CardRenderer
	newDocument DocumentFactory
	store       storage.DocumentStore
	metrics     *telemetry.KanbanMetrics
	logger      *zap.Logger
	config      GeneratorConfig
	clock       func() time.Time
	newRunID    func() string
}

// GeneratorOption configures a Generator
type GeneratorOption func(*Generator)

// WithDocumentStore stores every finalized document
func WithDocumentStore(store storage.DocumentStore) GeneratorOption {
	return func(g *Generator) {
		g.store = store
	}
}

// WithGeneratorMetrics sets the metrics recorder
func WithGeneratorMetrics(m *telemetry.KanbanMetrics) GeneratorOption {
	return func(g *Generator) {
		g.metrics = m
	}
}

// WithGeneratorLogger sets the logger
func WithGeneratorLogger(l *zap.Logger) GeneratorOption {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithClock sets the time source used to name documents
func WithClock(clock func() time.Time) GeneratorOption {
	return func(g *Generator) {
		g.clock = clock
	}
}

// NewGenerator creates a Generator
func NewGenerator(enricher CardEnricher, renderer CardRenderer, newDocument DocumentFactory, cfg GeneratorConfig, opts ...GeneratorOption) *Generator {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Ordering == "" {
		cfg.Ordering = OrderingInput
	}
	g := &Generator{
		enricher:    enricher,
		renderer:    renderer,
		newDocument: newDocument,
		logger:      zap.NewNop(),
		config:      cfg,
		clock:       time.Now,
		newRunID:    func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Config returns the generator settings
func (g *Generator) Config() GeneratorConfig {
	return g.config
}

// GenerateFromText parses comma or newline separated item codes and generates
// their cards
func (g *Generator) GenerateFromText(ctx context.Context, raw string) (*kanban.GeneratedDocument, error) {
	return g.Generate(ctx, kanban.ParseItemCodes(raw))
}

type enrichResult struct {
	index int
	code  string
	card  *kanban.Card
	err   error
}

// Generate looks up every item code, renders one page per found item and
// returns the finalized document. Blank codes are dropped before lookup and
// failed lookups are skipped. Render, finalize and storage failures end the run.
func (g *Generator) Generate(ctx context.Context, itemCodes []string) (doc *kanban.GeneratedDocument, err error) {
	started := g.clock()
	runID := g.newRunID()

	ctx = logger.WithRunID(ctx, runID)
	if _, ok := ctx.Value(logger.LoggerKey).(*zap.Logger); !ok {
		ctx = logger.WithContext(ctx, g.logger)
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "kanban", "generate",
		telemetry.WithAttribute(telemetry.SpanAttrRunID, runID),
		telemetry.WithAttribute(telemetry.SpanAttrOrdering, string(g.config.Ordering)),
	)
	defer func() {
		g.metrics.RecordGeneration(ctx, g.config.Source, g.clock().Sub(started), err)
		if err != nil {
			telemetry.RecordError(span, err)
		} else {
			telemetry.SetOK(span)
		}
		span.End()
	}()

	codes := kanban.NormalizeItemCodes(itemCodes)
	telemetry.SetAttributes(span, telemetry.SpanAttrItemCount, len(codes))

	out, err := g.newDocument()
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}

	skipped, err := g.assemble(ctx, out, codes)
	if err != nil {
		return nil, err
	}

	data, err := out.Finalize()
	if err != nil {
		return nil, fmt.Errorf("finalize document: %w", err)
	}

	generatedAt := g.clock()
	doc = &kanban.GeneratedDocument{
		RunID:       runID,
		Name:        kanban.DocumentFilename(generatedAt),
		Data:        data,
		PageCount:   out.PageCount(),
		Skipped:     skipped,
		GeneratedAt: generatedAt,
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrDocument, doc.Name,
		telemetry.SpanAttrPageCount, doc.PageCount,
		telemetry.SpanAttrSkipped, len(skipped),
	)

	if g.store != nil {
		result, err := g.store.Store(ctx, &storage.StoreRequest{
			Name:        doc.Name,
			Data:        data,
			ContentType: kanban.DocumentContentType,
			CreatedAt:   generatedAt,
		})
		if err != nil {
			return nil, fmt.Errorf("store document: %w", err)
		}
		doc.Location = result.Location
		telemetry.SetAttributes(span, telemetry.SpanAttrStorageKey, result.Key)
	}

	logger.L(ctx).Info("Kanban cards generated",
		zap.String("document", doc.Name),
		zap.Int("requested", len(codes)),
		zap.Int("pages", doc.PageCount),
		zap.Int("skipped", len(skipped)),
		zap.String("location", doc.Location),
	)
	return doc, nil
}

// assemble runs the lookups with bounded concurrency and draws pages on the
// calling goroutine. It returns the codes whose lookup failed.
func (g *Generator) assemble(ctx context.Context, out printing.Document, codes []string) ([]string, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan enrichResult, len(codes))
	group, groupCtx := errgroup.WithContext(runCtx)
	group.SetLimit(g.config.Concurrency)

	go func() {
		defer close(results)
		for i, code := range codes {
			if groupCtx.Err() != nil {
				break
			}
			group.Go(func() error {
				card, err := g.enricher.Enrich(groupCtx, code)
				results <- enrichResult{index: i, code: code, card: card, err: err}
				return nil
			})
		}
		_ = group.Wait()
	}()

	var (
		skipped []string
		pending = make(map[int]enrichResult)
		next    int
		failure error
	)

	emit := func(r enrichResult) error {
		if r.err != nil {
			skipped = append(skipped, r.code)
			g.metrics.RecordItemSkipped(ctx, skipReason(r.err))
			logger.L(ctx).Warn("Skipping item",
				zap.String("item_code", r.code),
				zap.Error(r.err),
			)
			return nil
		}
		out.AddPage()
		if err := g.renderer.Render(out, r.card, printing.Point{}); err != nil {
			return fmt.Errorf("render item %s: %w", r.code, err)
		}
		g.metrics.RecordCardRendered(ctx)
		return nil
	}

	for r := range results {
		if failure != nil {
			continue
		}
		if g.config.Ordering == OrderingCompletion {
			failure = emit(r)
		} else {
			pending[r.index] = r
			for failure == nil {
				p, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				next++
				failure = emit(p)
			}
		}
		if failure != nil {
			cancel()
		}
	}

	if failure != nil {
		return nil, failure
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return skipped, nil
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, kanban.ErrEmptyItemCode):
		return "empty_code"
	case errors.Is(err, kanban.ErrLookupFailed):
		return "lookup_failed"
	default:
		return "error"
	}
}
