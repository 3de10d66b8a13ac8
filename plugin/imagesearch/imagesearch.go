// Package imagesearch finds an image for a text query with the Google Custom
// Search JSON API and downloads it ready to be sent as chat media.
package imagesearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/lithammer/shortuuid/v4"

	"github.com/hrygo/arisu/plugin/ai/cache"
)

const (
	// DefaultEndpoint is the Custom Search JSON API.
	DefaultEndpoint = "https://www.googleapis.com/customsearch/v1"
	// resultsPerQuery is the largest page the API returns.
	resultsPerQuery = 10
	// MaxImageSide bounds the longest side of a delivered image.
	MaxImageSide = 1280
	// maxDownloadBytes caps a single image download.
	maxDownloadBytes = 10 << 20
	// historyTTL is how long a sent link is skipped for the same query.
	historyTTL = 24 * time.Hour
)

var (
	// ErrNoResults means the search returned no image for the query.
	ErrNoResults = errors.New("no image found")
	// ErrSearchFailed covers quota exhaustion and any other search API failure.
	ErrSearchFailed = errors.New("image search failed")
	// ErrDownloadFailed covers fetching or decoding the chosen image.
	ErrDownloadFailed = errors.New("image download failed")
)

// Config holds the search credentials.
type Config struct {
	APIKey   string
	CX       string
	Endpoint string
}

// Image is a downloaded, re-encoded image.
type Image struct {
	Data     []byte
	MimeType string
	FileName string
	// SourceURL is the link the image was downloaded from.
	SourceURL string
}

// Result is the outcome of Search.
type Result struct {
	Image *Image
	// Repeated reports that every link for the query had already been sent.
	Repeated bool
}

// Client searches and downloads images.
type Client struct {
	config     Config
	httpClient *http.Client
	history    *cache.Service[struct{}]
	pick       func(n int) int
}

// NewClient creates a search client. httpClient may be nil.
func NewClient(config Config, httpClient *http.Client) *Client {
	if config.Endpoint == "" {
		config.Endpoint = DefaultEndpoint
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		config:     config,
		httpClient: httpClient,
		history: cache.NewService[struct{}](cache.ServiceConfig{
			Capacity:        5000,
			DefaultTTL:      historyTTL,
			CleanupInterval: time.Hour,
		}),
		pick: rand.IntN,
	}
}

// Close stops the history cleanup loop.
func (c *Client) Close() {
	c.history.Close()
}

type searchResponse struct {
	Items []struct {
		Link string `json:"link"`
		Mime string `json:"mime"`
	} `json:"items"`
}

// Search returns a random image for query, preferring links not yet sent for
// the same query.
func (c *Client) Search(ctx context.Context, query string) (*Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrNoResults
	}

	links, err := c.searchLinks(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return nil, ErrNoResults
	}

	prefix := historyPrefix(query)
	fresh := make([]string, 0, len(links))
	for _, link := range links {
		if _, seen := c.history.Get(prefix + link); !seen {
			fresh = append(fresh, link)
		}
	}
	repeated := len(fresh) == 0
	if repeated {
		fresh = links
	}

	link := fresh[c.pick(len(fresh))]
	c.history.Set(prefix+link, struct{}{}, 0)

	image, err := c.download(ctx, link)
	if err != nil {
		return nil, err
	}
	return &Result{Image: image, Repeated: repeated}, nil
}

// Forget drops the sent-link history for every query.
func (c *Client) Forget() {
	c.history.Clear()
}

func historyPrefix(query string) string {
	return strings.ToLower(query) + "\x00"
}

func (c *Client) searchLinks(ctx context.Context, query string) ([]string, error) {
	params := url.Values{}
	params.Set("key", c.config.APIKey)
	params.Set("cx", c.config.CX)
	params.Set("q", query)
	params.Set("searchType", "image")
	params.Set("num", fmt.Sprint(resultsPerQuery))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.Endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrSearchFailed, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrSearchFailed, err)
	}

	links := make([]string, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item.Link != "" {
			links = append(links, item.Link)
		}
	}
	return links, nil
}

// download fetches link and re-encodes it as a JPEG no larger than MaxImageSide.
func (c *Client) download(ctx context.Context, link string) (*Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrDownloadFailed, resp.StatusCode)
	}

	img, err := imaging.Decode(io.LimitReader(resp.Body, maxDownloadBytes), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrDownloadFailed, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > MaxImageSide || bounds.Dy() > MaxImageSide {
		img = imaging.Fit(img, MaxImageSide, MaxImageSide, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("%w: encode: %w", ErrDownloadFailed, err)
	}

	slog.Debug("image downloaded", "url", link, "width", img.Bounds().Dx(), "height", img.Bounds().Dy(), "bytes", buf.Len())
	return &Image{
		Data:      buf.Bytes(),
		MimeType:  "image/jpeg",
		FileName:  "image-" + shortuuid.New() + ".jpg",
		SourceURL: link,
	}, nil
}
