package tilegrid

import (
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
)

// defaultClient bounds tile downloads; fetches are never retried.
var defaultClient = &http.Client{Timeout: 15 * time.Second}

// Fetcher retrieves raster tile images, caching them on disk at each
// handle's CachePath. Cache writes go through a temp file and rename, so
// concurrent first fetches of the same tile may download redundantly but
// never corrupt each other.
type Fetcher struct {
	Client *http.Client

	// Refresh re-downloads tiles even when a cached copy exists.
	Refresh bool
}

// Tile returns the decoded image for a raster tile handle, downloading it
// on first use.
func (f *Fetcher) Tile(ctx context.Context, h Handle) (image.Image, error) {
	if h.URL == "" || h.CachePath == "" {
		return nil, fmt.Errorf("tile has no image source: %w", ErrAssetFetchFailed)
	}

	if !f.Refresh {
		if img, err := imaging.Open(h.CachePath); err == nil {
			return img, nil
		}
	}

	if err := f.download(ctx, h); err != nil {
		return nil, err
	}

	img, err := imaging.Open(h.CachePath)
	if err != nil {
		return nil, fmt.Errorf("tile image %q: %v: %w", h.CachePath, err, ErrAssetFetchFailed)
	}
	return img, nil
}

func (f *Fetcher) download(ctx context.Context, h Handle) error {
	client := f.Client
	if client == nil {
		client = defaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return fmt.Errorf("tile %q: %v: %w", h.URL, err, ErrAssetFetchFailed)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("tile %q: %v: %w", h.URL, err, ErrAssetFetchFailed)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tile %q: unexpected status %s: %w", h.URL, resp.Status, ErrAssetFetchFailed)
	}

	dir := filepath.Dir(h.CachePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("tile cache %q: %v: %w", dir, err, ErrAssetFetchFailed)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(h.CachePath)+".*")
	if err != nil {
		return fmt.Errorf("tile cache %q: %v: %w", dir, err, ErrAssetFetchFailed)
	}

	_, err = io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("tile cache %q: %v: %w", h.CachePath, err, ErrAssetFetchFailed)
	}

	if err := os.Rename(tmp.Name(), h.CachePath); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("tile cache %q: %v: %w", h.CachePath, err, ErrAssetFetchFailed)
	}
	return nil
}
