package spacetraveling

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"
	"golang.org/x/sync/singleflight"

	"github.com/eringen/spacetraveling/pages"
)

const (
	jpegQuality   = 80
	maxBannerSize = 20 << 20 // 20MB

	bannerFetchTimeout = 30 * time.Second
)

// processImage decodes an image from src, downscales it to maxWidth when it
// is wider, and encodes it as JPEG.
func processImage(src io.Reader, maxWidth int) ([]byte, image.Point, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return nil, image.Point{}, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if maxWidth > 0 && w > maxWidth {
		newH := max(h*maxWidth/w, 1)
		dst := image.NewRGBA(image.Rect(0, 0, maxWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		w = maxWidth
		h = newH
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, image.Point{}, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), image.Pt(w, h), nil
}

// BannerOptimizer serves post banners downscaled and re-encoded as JPEG.
// Results are kept in an LRU keyed by source URL.
type BannerOptimizer struct {
	client   *http.Client
	maxWidth int
	cache    *lru.Cache[string, []byte]
	group    singleflight.Group
}

// NewBannerOptimizer creates a BannerOptimizer keeping up to cacheSize banners.
func NewBannerOptimizer(client *http.Client, maxWidth, cacheSize int) (*BannerOptimizer, error) {
	cache, err := lru.New[string, []byte](cacheSize)
	if err != nil {
		return nil, err
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &BannerOptimizer{client: client, maxWidth: maxWidth, cache: cache}, nil
}

// Get returns the optimized JPEG for the image at src. Concurrent callers
// share one fetch, which outlives any single caller's cancellation.
func (b *BannerOptimizer) Get(ctx context.Context, src string) ([]byte, error) {
	if data, ok := b.cache.Get(src); ok {
		return data, nil
	}
	v, err, _ := b.group.Do(src, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), bannerFetchTimeout)
		defer cancel()
		data, err := b.fetch(fetchCtx, src)
		if err != nil {
			return nil, err
		}
		b.cache.Add(src, data)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (b *BannerOptimizer) fetch(ctx context.Context, src string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch banner: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch banner: unexpected status %d", resp.StatusCode)
	}
	data, _, err := processImage(io.LimitReader(resp.Body, maxBannerSize), b.maxWidth)
	return data, err
}

// handleBanner serves the optimized banner of a built post. Only URLs taken
// from CMS records are fetched. When optimization fails the viewer is sent
// to the original image.
func (a *App) handleBanner(c echo.Context) error {
	page := a.Pages.Get(c.Request().Context(), c.Param("slug"))
	if page.State != pages.StateReady || page.Post.BannerURL == "" {
		return echo.NewHTTPError(http.StatusNotFound)
	}
	data, err := a.Banners.Get(c.Request().Context(), page.Post.BannerURL)
	if err != nil {
		c.Logger().Warnf("banner %s: %v", page.UID, err)
		return c.Redirect(http.StatusFound, page.Post.BannerURL)
	}
	return c.Blob(http.StatusOK, "image/jpeg", data)
}
