package kanban_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	app "github.com/erp/kanban/internal/application/kanban"
	domain "github.com/erp/kanban/internal/domain/kanban"
	"github.com/erp/kanban/internal/infrastructure/printing"
	"github.com/erp/kanban/internal/infrastructure/qrcode"
	"github.com/erp/kanban/internal/infrastructure/storage"
)

// fakeEnricher returns a card for every code not listed in failures. Delays
// let tests control completion order.
type fakeEnricher struct {
	failures map[string]bool
	delays   map[string]time.Duration

	mu       sync.Mutex
	calls    []string
	inFlight int32
	peak     int32
}

func (e *fakeEnricher) Enrich(ctx context.Context, itemCode string) (*domain.Card, error) {
	e.mu.Lock()
	e.calls = append(e.calls, itemCode)
	e.mu.Unlock()

	n := atomic.AddInt32(&e.inFlight, 1)
	defer atomic.AddInt32(&e.inFlight, -1)
	for {
		peak := atomic.LoadInt32(&e.peak)
		if n <= peak || atomic.CompareAndSwapInt32(&e.peak, peak, n) {
			break
		}
	}

	if d := e.delays[itemCode]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, domain.NewLookupError(itemCode, ctx.Err())
		}
	}
	if e.failures[itemCode] {
		return nil, domain.NewLookupError(itemCode, errors.New("not found"))
	}
	return domain.NewCard(itemCode, "Item "+itemCode, image.NewGray(image.Rect(0, 0, 4, 4)), "", nil)
}

func (e *fakeEnricher) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

// recordingRenderer records the item code drawn on each page
type recordingRenderer struct {
	failOn string
	pages  []string
}

func (r *recordingRenderer) Render(page printing.Canvas, card *domain.Card, _ printing.Point) error {
	if card.ItemCode == r.failOn {
		return errors.New("qr failed")
	}
	r.pages = append(r.pages, card.ItemCode)
	return page.Text(0, 0, card.ItemCode)
}

// fakeDocument counts pages and finalize calls
type fakeDocument struct {
	pages     int
	finalized int
}

func (d *fakeDocument) SetFont(printing.FontFace, float64) error { return nil }

func (d *fakeDocument) Text(float64, float64, string) error { return nil }

func (d *fakeDocument) Line(float64, float64, float64, float64, printing.LineStyle) error {
	return nil
}

func (d *fakeDocument) Image(image.Image, printing.Box) error { return nil }

func (d *fakeDocument) AddPage() { d.pages++ }

func (d *fakeDocument) PageCount() int { return d.pages }

func (d *fakeDocument) Finalize() ([]byte, error) {
	d.finalized++
	return []byte(fmt.Sprintf("%%PDF-fake pages=%d", d.pages)), nil
}

type failingStore struct{}

func (failingStore) Store(context.Context, *storage.StoreRequest) (*storage.StoreResult, error) {
	return nil, errors.New("disk full")
}

func (failingStore) Get(context.Context, string) (io.ReadCloser, error) {
	return nil, storage.ErrNotFound
}

func (failingStore) Delete(context.Context, string) error { return nil }

var fixedTime = time.Date(2024, 3, 5, 14, 7, 9, 0, time.Local)

func newTestGenerator(t *testing.T, enricher app.CardEnricher, renderer app.CardRenderer, cfg app.GeneratorConfig, opts ...app.GeneratorOption) (*app.Generator, *fakeDocument) {
	t.Helper()
	doc := &fakeDocument{}
	opts = append([]app.GeneratorOption{
		app.WithClock(func() time.Time { return fixedTime }),
		app.WithGeneratorLogger(zaptest.NewLogger(t)),
	}, opts...)
	g := app.NewGenerator(enricher, renderer,
		func() (printing.Document, error) { return doc, nil },
		cfg, opts...)
	return g, doc
}

func codes(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("C-%02d", i)
	}
	return out
}

// =============================================================================
// Generator Tests
// =============================================================================

func TestNewGenerator_Defaults(t *testing.T) {
	g := app.NewGenerator(&fakeEnricher{}, &recordingRenderer{}, nil, app.GeneratorConfig{})
	assert.Equal(t, app.DefaultConcurrency, g.Config().Concurrency)
	assert.Equal(t, app.OrderingInput, g.Config().Ordering)
}

func TestGenerator_SkipsFailedLookups(t *testing.T) {
	enricher := &fakeEnricher{failures: map[string]bool{"C-01": true, "C-04": true}}
	renderer := &recordingRenderer{}
	g, doc := newTestGenerator(t, enricher, renderer, app.GeneratorConfig{})

	result, err := g.Generate(context.Background(), codes(6))

	require.NoError(t, err)
	assert.Equal(t, 4, result.PageCount)
	assert.Equal(t, 4, doc.pages)
	assert.Equal(t, 1, doc.finalized)
	assert.ElementsMatch(t, []string{"C-01", "C-04"}, result.Skipped)
	assert.Equal(t, []string{"C-00", "C-02", "C-03", "C-05"}, renderer.pages)
	assert.Equal(t, "kanban_cards_20240305_140709.pdf", result.Name)
	assert.Equal(t, fixedTime, result.GeneratedAt)
	assert.NotEmpty(t, result.RunID)
	assert.True(t, bytes.HasPrefix(result.Data, []byte("%PDF-")))
}

func TestGenerator_DropsBlankCodesBeforeLookup(t *testing.T) {
	enricher := &fakeEnricher{}
	g, _ := newTestGenerator(t, enricher, &recordingRenderer{}, app.GeneratorConfig{})

	result, err := g.Generate(context.Background(), []string{"  ", "ABC-1", "", "ABC-2"})

	require.NoError(t, err)
	assert.Equal(t, 2, enricher.callCount())
	assert.Equal(t, 2, result.PageCount)
}

func TestGenerator_InputOrdering(t *testing.T) {
	input := codes(8)
	delays := map[string]time.Duration{}
	for i, code := range input {
		delays[code] = time.Duration(len(input)-i) * 5 * time.Millisecond
	}
	renderer := &recordingRenderer{}
	g, _ := newTestGenerator(t, &fakeEnricher{delays: delays}, renderer,
		app.GeneratorConfig{Concurrency: 8, Ordering: app.OrderingInput})

	_, err := g.Generate(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, input, renderer.pages)
}

func TestGenerator_CompletionOrderingKeepsPageSet(t *testing.T) {
	input := codes(8)
	delays := map[string]time.Duration{}
	for i, code := range input {
		delays[code] = time.Duration(len(input)-i) * 5 * time.Millisecond
	}
	renderer := &recordingRenderer{}
	g, _ := newTestGenerator(t, &fakeEnricher{delays: delays}, renderer,
		app.GeneratorConfig{Concurrency: 8, Ordering: app.OrderingCompletion})

	result, err := g.Generate(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, len(input), result.PageCount)
	assert.ElementsMatch(t, input, renderer.pages)
}

func TestGenerator_BoundsConcurrency(t *testing.T) {
	input := codes(30)
	delays := map[string]time.Duration{}
	for _, code := range input {
		delays[code] = 5 * time.Millisecond
	}
	enricher := &fakeEnricher{delays: delays}
	g, _ := newTestGenerator(t, enricher, &recordingRenderer{}, app.GeneratorConfig{Concurrency: 3})

	result, err := g.Generate(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, 30, result.PageCount)
	assert.LessOrEqual(t, atomic.LoadInt32(&enricher.peak), int32(3))
}

func TestGenerator_DuplicatesYieldTwoPages(t *testing.T) {
	renderer := &recordingRenderer{}
	g, _ := newTestGenerator(t, &fakeEnricher{}, renderer, app.GeneratorConfig{})

	result, err := g.Generate(context.Background(), []string{"A", "A"})

	require.NoError(t, err)
	assert.Equal(t, 2, result.PageCount)
	assert.Equal(t, []string{"A", "A"}, renderer.pages)
}

func TestGenerator_EmptyInputStillFinalizes(t *testing.T) {
	store := storage.NewMemoryStorage("/docs")
	enricher := &fakeEnricher{}
	g, doc := newTestGenerator(t, enricher, &recordingRenderer{}, app.GeneratorConfig{},
		app.WithDocumentStore(store))

	result, err := g.GenerateFromText(context.Background(), " , \n ")

	require.NoError(t, err)
	assert.Equal(t, 0, result.PageCount)
	assert.Equal(t, 1, doc.finalized)
	assert.Equal(t, 0, enricher.callCount())
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, "/docs/kanban_cards_20240305_140709.pdf", result.Location)
}

func TestGenerator_RenderErrorIsFatal(t *testing.T) {
	renderer := &recordingRenderer{failOn: "C-02"}
	g, doc := newTestGenerator(t, &fakeEnricher{}, renderer, app.GeneratorConfig{})

	result, err := g.Generate(context.Background(), codes(5))

	assert.Nil(t, result)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "C-02")
	assert.Equal(t, 0, doc.finalized)
}

func TestGenerator_StorageErrorIsReturned(t *testing.T) {
	g, _ := newTestGenerator(t, &fakeEnricher{}, &recordingRenderer{}, app.GeneratorConfig{},
		app.WithDocumentStore(failingStore{}))

	_, err := g.Generate(context.Background(), []string{"A"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestGenerator_DocumentFactoryError(t *testing.T) {
	g := app.NewGenerator(&fakeEnricher{}, &recordingRenderer{},
		func() (printing.Document, error) { return nil, errors.New("no fonts") },
		app.GeneratorConfig{})

	_, err := g.Generate(context.Background(), []string{"A"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no fonts")
}

func TestGenerator_ContextCanceled(t *testing.T) {
	enricher := &fakeEnricher{}
	g, doc := newTestGenerator(t, enricher, &recordingRenderer{}, app.GeneratorConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.Generate(ctx, codes(5))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, doc.finalized)
}

func TestGenerator_SameSetOfPagesAcrossRuns(t *testing.T) {
	input := codes(12)
	var runs [][]string
	for i := 0; i < 3; i++ {
		renderer := &recordingRenderer{}
		g, _ := newTestGenerator(t, &fakeEnricher{failures: map[string]bool{"C-07": true}}, renderer,
			app.GeneratorConfig{Ordering: app.OrderingCompletion})
		_, err := g.Generate(context.Background(), input)
		require.NoError(t, err)
		runs = append(runs, renderer.pages)
	}
	assert.ElementsMatch(t, runs[0], runs[1])
	assert.ElementsMatch(t, runs[0], runs[2])
	assert.Len(t, runs[0], 11)
}

func TestGenerator_EndToEndPDF(t *testing.T) {
	fitter, err := printing.NewTextFitter()
	require.NoError(t, err)
	renderer := printing.NewCardRenderer(printing.DefaultCardLayout(), fitter, qrcode.NewEncoder())

	g := app.NewGenerator(&fakeEnricher{failures: map[string]bool{"BAD": true}}, renderer,
		app.NewPDFDocumentFactory(printing.HalfA6Landscape),
		app.GeneratorConfig{Concurrency: 2},
		app.WithClock(func() time.Time { return fixedTime }),
	)

	result, err := g.Generate(context.Background(), []string{"ABC-1", "BAD", "ABC-2"})

	require.NoError(t, err)
	assert.Equal(t, 2, result.PageCount)
	assert.Equal(t, []string{"BAD"}, result.Skipped)
	assert.True(t, bytes.HasPrefix(result.Data, []byte("%PDF-")))
}
