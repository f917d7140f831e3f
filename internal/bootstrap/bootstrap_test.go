package bootstrap

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/erp/kanban/internal/infrastructure/config"
	"github.com/erp/kanban/internal/infrastructure/storage"
)

func newInventoryServer(t *testing.T, lookups *atomic.Int32) *httptest.Server {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	img.Set(1, 1, color.RGBA{B: 255, A: 255})
	var photo bytes.Buffer
	require.NoError(t, png.Encode(&photo, img))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/resource/Item/ABC-1":
			lookups.Add(1)
			fmt.Fprint(w, `{"data": {
				"item_code": "ABC-1",
				"item_name": "Hex Bolt M8",
				"image": "/files/bolt.png",
				"orderpage_link": "https://shop.example.com/bolt",
				"supplier_items": [{"supplier": "Acme", "supplier_part_no": "AC-77"}]
			}}`)
		case "/files/bolt.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(photo.Bytes())
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		Inventory: config.InventoryConfig{
			BaseURL:   baseURL,
			APIKey:    "key",
			APISecret: "secret",
			Timeout:   5 * time.Second,
		},
		Kanban: config.KanbanConfig{
			Concurrency:   4,
			Ordering:      "input",
			TitleMaxRunes: 34,
			DottedDivider: true,
		},
		Cache: config.CacheConfig{
			Enabled: true,
			Driver:  "memory",
			TTL:     time.Minute,
		},
		Storage: config.StorageConfig{
			Driver:  storage.DriverMemory,
			BaseURL: "/api/v1/kanban/documents",
		},
		Telemetry: config.TelemetryConfig{
			ServiceName: "kanban-test",
		},
	}
}

func TestNew_GeneratesAndStores(t *testing.T) {
	var lookups atomic.Int32
	srv := newInventoryServer(t, &lookups)
	ctx := context.Background()

	a, err := New(ctx, testConfig(srv.URL), zap.NewNop(), Options{Source: "test", StoreDocuments: true})
	require.NoError(t, err)
	defer func() { assert.NoError(t, a.Shutdown(ctx)) }()

	require.NotNil(t, a.Store)
	assert.False(t, a.TracerProvider.IsEnabled())
	assert.False(t, a.MeterProvider.IsEnabled())

	doc, err := a.Generator.Generate(ctx, []string{"ABC-1", " ", "MISSING", "ABC-1"})
	require.NoError(t, err)

	assert.Equal(t, 2, doc.PageCount)
	assert.Equal(t, []string{"MISSING"}, doc.Skipped)
	assert.True(t, bytes.HasPrefix(doc.Data, []byte("%PDF")))
	assert.Equal(t, "/api/v1/kanban/documents/"+doc.Name, doc.Location)
	// the second ABC-1 lookup is served from the item cache
	assert.LessOrEqual(t, lookups.Load(), int32(2))

	rc, err := a.Store.Get(ctx, doc.Name)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
}

func TestNew_WithoutStorage(t *testing.T) {
	var lookups atomic.Int32
	srv := newInventoryServer(t, &lookups)
	ctx := context.Background()

	cfg := testConfig(srv.URL)
	cfg.Cache.Enabled = false

	a, err := New(ctx, cfg, zap.NewNop(), Options{Source: "cli"})
	require.NoError(t, err)
	defer func() { assert.NoError(t, a.Shutdown(ctx)) }()

	assert.Nil(t, a.Store)

	doc, err := a.Generator.Generate(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, doc.PageCount)
	assert.Empty(t, doc.Location)
	assert.NotEmpty(t, doc.Data)
}

func TestNew_InvalidInventoryURL(t *testing.T) {
	cfg := testConfig("")

	_, err := New(context.Background(), cfg, zap.NewNop(), Options{})
	assert.Error(t, err)
}

func TestNew_MissingFallbackImage(t *testing.T) {
	cfg := testConfig("https://erp.example.com")
	cfg.Kanban.FallbackImage = "/does/not/exist.png"

	_, err := New(context.Background(), cfg, zap.NewNop(), Options{})
	assert.Error(t, err)
}

func TestCardLayout(t *testing.T) {
	layout := CardLayout(config.KanbanConfig{TitleMaxRunes: 20, DottedDivider: false})
	assert.Equal(t, 20, layout.TitleMaxRunes)
	assert.False(t, layout.Divider.Style.Dotted)

	layout = CardLayout(config.KanbanConfig{TitleMaxRunes: 0, DottedDivider: true})
	assert.Equal(t, 0, layout.TitleMaxRunes)
	assert.True(t, layout.Divider.Style.Dotted)
}

func TestApp_Flush(t *testing.T) {
	var lookups atomic.Int32
	srv := newInventoryServer(t, &lookups)
	ctx := context.Background()

	a, err := New(ctx, testConfig(srv.URL), zap.NewNop(), Options{Source: "test"})
	require.NoError(t, err)

	assert.NoError(t, a.Flush(ctx))
	assert.NoError(t, a.Shutdown(ctx))
	assert.NoError(t, (&App{}).Flush(ctx))
}

func TestApp_RunRetention(t *testing.T) {
	var lookups atomic.Int32
	srv := newInventoryServer(t, &lookups)
	ctx := context.Background()

	runUntilStopped := func(t *testing.T, a *App, stopAfter time.Duration) {
		t.Helper()
		runCtx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			a.RunRetention(runCtx)
			close(done)
		}()
		time.AfterFunc(stopAfter, cancel)
		select {
		case <-done:
		case <-time.After(time.Second):
			cancel()
			t.Fatal("retention loop did not return")
		}
	}

	t.Run("keeps fresh documents", func(t *testing.T) {
		cfg := testConfig(srv.URL)
		cfg.Storage.Retention = time.Hour
		cfg.Storage.CleanupInterval = 5 * time.Millisecond

		a, err := New(ctx, cfg, zap.NewNop(), Options{Source: "test", StoreDocuments: true})
		require.NoError(t, err)
		defer func() { assert.NoError(t, a.Shutdown(ctx)) }()

		doc, err := a.Generator.Generate(ctx, []string{"ABC-1"})
		require.NoError(t, err)

		runUntilStopped(t, a, 50*time.Millisecond)

		rc, err := a.Store.Get(ctx, doc.Name)
		require.NoError(t, err)
		_ = rc.Close()
	})

	t.Run("disabled returns at once", func(t *testing.T) {
		a, err := New(ctx, testConfig(srv.URL), zap.NewNop(), Options{Source: "test", StoreDocuments: true})
		require.NoError(t, err)
		defer func() { assert.NoError(t, a.Shutdown(ctx)) }()

		runUntilStopped(t, a, time.Hour)
	})
}
