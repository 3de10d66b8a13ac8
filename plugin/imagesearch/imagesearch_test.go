package imagesearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type fakeGoogle struct {
	server      *httptest.Server
	searchCalls atomic.Int32
	links       []string
	status      int
}

func newFakeGoogle(t *testing.T, imageWidth, imageHeight int, linkCount int) *fakeGoogle {
	t.Helper()
	f := &fakeGoogle{status: http.StatusOK}
	payload := pngBytes(t, imageWidth, imageHeight)

	mux := http.NewServeMux()
	mux.HandleFunc("/customsearch/v1", func(w http.ResponseWriter, r *http.Request) {
		f.searchCalls.Add(1)
		q := r.URL.Query()
		assert.Equal(t, "test-key", q.Get("key"))
		assert.Equal(t, "test-cx", q.Get("cx"))
		assert.Equal(t, "image", q.Get("searchType"))
		assert.Equal(t, "10", q.Get("num"))

		if f.status != http.StatusOK {
			http.Error(w, `{"error":{"message":"quota exceeded"}}`, f.status)
			return
		}
		items := []map[string]string{}
		for _, link := range f.links {
			items = append(items, map[string]string{"link": link})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"items": items})
	})
	mux.HandleFunc("/img/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "broken") {
			_, _ = w.Write([]byte("not an image"))
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(payload)
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)

	for i := 0; i < linkCount; i++ {
		f.links = append(f.links, fmt.Sprintf("%s/img/%d", f.server.URL, i))
	}
	return f
}

func newTestClient(t *testing.T, f *fakeGoogle) *Client {
	t.Helper()
	c := NewClient(Config{APIKey: "test-key", CX: "test-cx", Endpoint: f.server.URL + "/customsearch/v1"}, f.server.Client())
	c.pick = func(int) int { return 0 }
	t.Cleanup(c.Close)
	return c
}

func TestSearch_ReturnsJPEG(t *testing.T) {
	f := newFakeGoogle(t, 40, 30, 3)
	c := newTestClient(t, f)

	result, err := c.Search(context.Background(), "kucing lucu")
	require.NoError(t, err)
	assert.False(t, result.Repeated)
	assert.Equal(t, "image/jpeg", result.Image.MimeType)
	assert.True(t, strings.HasSuffix(result.Image.FileName, ".jpg"))

	decoded, err := imaging.Decode(bytes.NewReader(result.Image.Data))
	require.NoError(t, err)
	assert.Equal(t, 40, decoded.Bounds().Dx())
}

func TestSearch_ShrinksLargeImages(t *testing.T) {
	f := newFakeGoogle(t, 2560, 1280, 1)
	c := newTestClient(t, f)

	result, err := c.Search(context.Background(), "gunung")
	require.NoError(t, err)

	decoded, err := imaging.Decode(bytes.NewReader(result.Image.Data))
	require.NoError(t, err)
	assert.Equal(t, MaxImageSide, decoded.Bounds().Dx())
	assert.Equal(t, MaxImageSide/2, decoded.Bounds().Dy())
}

func TestSearch_SkipsLinksAlreadySent(t *testing.T) {
	f := newFakeGoogle(t, 10, 10, 2)
	c := newTestClient(t, f)
	ctx := context.Background()

	first, err := c.Search(ctx, "Kucing")
	require.NoError(t, err)
	second, err := c.Search(ctx, "kucing")
	require.NoError(t, err)
	third, err := c.Search(ctx, "kucing")
	require.NoError(t, err)

	assert.NotEqual(t, first.Image.SourceURL, second.Image.SourceURL)
	assert.False(t, second.Repeated)
	assert.True(t, third.Repeated, "every link was already sent")

	// Another query has its own history.
	other, err := c.Search(ctx, "anjing")
	require.NoError(t, err)
	assert.False(t, other.Repeated)

	c.Forget()
	again, err := c.Search(ctx, "kucing")
	require.NoError(t, err)
	assert.False(t, again.Repeated)
}

func TestSearch_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("no results", func(t *testing.T) {
		c := newTestClient(t, newFakeGoogle(t, 10, 10, 0))
		_, err := c.Search(ctx, "zzz")
		assert.ErrorIs(t, err, ErrNoResults)
	})

	t.Run("empty query", func(t *testing.T) {
		f := newFakeGoogle(t, 10, 10, 1)
		c := newTestClient(t, f)
		_, err := c.Search(ctx, "  ")
		assert.ErrorIs(t, err, ErrNoResults)
		assert.Zero(t, f.searchCalls.Load())
	})

	t.Run("quota exhausted", func(t *testing.T) {
		f := newFakeGoogle(t, 10, 10, 1)
		f.status = http.StatusTooManyRequests
		c := newTestClient(t, f)
		_, err := c.Search(ctx, "kucing")
		assert.ErrorIs(t, err, ErrSearchFailed)
		assert.Contains(t, err.Error(), "429")
	})

	t.Run("undecodable image", func(t *testing.T) {
		f := newFakeGoogle(t, 10, 10, 0)
		f.links = []string{f.server.URL + "/img/broken"}
		c := newTestClient(t, f)
		_, err := c.Search(ctx, "kucing")
		assert.ErrorIs(t, err, ErrDownloadFailed)
	})
}
