package inventory

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient(Config{BaseURL: baseURL, APIKey: "key", APISecret: "secret", Timeout: 5 * time.Second})
	require.NoError(t, err)
	return c
}

func TestNewClient(t *testing.T) {
	t.Run("requires base URL", func(t *testing.T) {
		_, err := NewClient(Config{})
		assert.ErrorIs(t, err, ErrMissingBaseURL)
	})

	t.Run("rejects relative URL", func(t *testing.T) {
		_, err := NewClient(Config{BaseURL: "erp.local"})
		assert.Error(t, err)
	})

	t.Run("trims trailing slash", func(t *testing.T) {
		c, err := NewClient(Config{BaseURL: "https://erp.example.com/"})
		require.NoError(t, err)
		assert.Equal(t, "https://erp.example.com", c.BaseURL())
		assert.Equal(t, DefaultTimeout, c.httpClient.Timeout)
	})
}

func TestClient_GetItem(t *testing.T) {
	var gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.EscapedPath()
		switch r.URL.Path {
		case "/api/resource/Item/ABC-1":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"data": {
				"item_code": "ABC-1",
				"item_name": "Hex Bolt M8",
				"image": "/files/bolt.png",
				"orderpage_link": "https://shop.example.com/bolt",
				"supplier_items": [
					{"supplier": "Acme", "supplier_part_no": "AC-77"},
					{"supplier": "Other", "supplier_part_no": "OT-1"}
				]
			}}`)
		case "/api/resource/Item/A B/1":
			fmt.Fprint(w, `{"data": {"item_name": "Spaced"}}`)
		case "/api/resource/Item/NONAME":
			fmt.Fprint(w, `{"data": {"item_code": "NONAME"}}`)
		case "/api/resource/Item/BROKEN":
			fmt.Fprint(w, `{"data": `)
		case "/api/resource/Item/DOWN":
			w.WriteHeader(http.StatusBadGateway)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	ctx := context.Background()

	t.Run("decodes item", func(t *testing.T) {
		item, err := c.GetItem(ctx, "ABC-1")
		require.NoError(t, err)

		assert.Equal(t, "token key:secret", gotAuth)
		assert.Equal(t, "ABC-1", item.ItemCode)
		assert.Equal(t, "Hex Bolt M8", item.ItemName)
		assert.Equal(t, "/files/bolt.png", item.Image)
		assert.Equal(t, "https://shop.example.com/bolt", item.OrderPageLink)
		require.Len(t, item.Suppliers(), 2)
		assert.Equal(t, "Acme", item.Suppliers()[0].Name)
		assert.Equal(t, "AC-77", item.Suppliers()[0].PartNo)
	})

	t.Run("escapes code and defaults item code", func(t *testing.T) {
		item, err := c.GetItem(ctx, "A B/1")
		require.NoError(t, err)
		assert.Equal(t, "/api/resource/Item/A%20B%2F1", gotPath)
		assert.Equal(t, "A B/1", item.ItemCode)
	})

	tests := []struct {
		code    string
		wantErr error
	}{
		{"MISSING", ErrItemNotFound},
		{"NONAME", ErrMalformedResponse},
		{"BROKEN", ErrMalformedResponse},
		{"DOWN", ErrRequestFailed},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			item, err := c.GetItem(ctx, tt.code)
			assert.Nil(t, item)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClient_GetItem_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := newTestClient(t, url)
	_, err := c.GetItem(context.Background(), "ABC-1")

	assert.ErrorIs(t, err, ErrRequestFailed)
}

func TestClient_GetItem_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.GetItem(ctx, "ABC-1")
	assert.ErrorIs(t, err, ErrRequestFailed)
}

func TestClient_ResolveImageURL(t *testing.T) {
	c := newTestClient(t, "https://erp.example.com")

	tests := []struct {
		ref    string
		want   string
		wantOK bool
	}{
		{"/files/bolt.png", "https://erp.example.com/files/bolt.png", true},
		{"https://cdn.example.com/a.jpg", "https://cdn.example.com/a.jpg", true},
		{"http://cdn.example.com/a.jpg", "http://cdn.example.com/a.jpg", true},
		{"./default.png", "", false},
		{"", "", false},
		{"files/bolt.png", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, ok := c.ResolveImageURL(tt.ref)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_FetchImage(t *testing.T) {
	data := pngBytes(t, 8, 4)
	var authHeaders []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeaders = append(authHeaders, r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/files/bolt.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(data)
		case "/files/garbage.png":
			_, _ = w.Write([]byte("not an image"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	ctx := context.Background()

	img, err := c.FetchImage(ctx, srv.URL+"/files/bolt.png")
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())
	assert.Equal(t, 4, img.Bounds().Dy())
	assert.Equal(t, "token key:secret", authHeaders[0])

	_, err = c.FetchImage(ctx, srv.URL+"/files/garbage.png")
	assert.ErrorIs(t, err, ErrImageFetch)

	_, err = c.FetchImage(ctx, srv.URL+"/files/missing.png")
	assert.ErrorIs(t, err, ErrImageFetch)
}

func TestClient_FetchImage_ForeignOriginHasNoAuth(t *testing.T) {
	var auth string
	cdn := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = w.Write(pngBytes(t, 2, 2))
	}))
	defer cdn.Close()

	c := newTestClient(t, "https://erp.example.com")
	_, err := c.FetchImage(context.Background(), cdn.URL+"/a.png")

	require.NoError(t, err)
	assert.Empty(t, auth)
}

func TestClient_ResponseLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"data": {"item_name": "%s"}}`, strings.Repeat("x", maxItemResponseSize))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.GetItem(context.Background(), "BIG")

	assert.ErrorIs(t, err, ErrMalformedResponse)
}
