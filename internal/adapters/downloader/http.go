package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// Media downloads are generous because short-form video files can still be
// tens of megabytes on slow CDNs; metadata-style fetches use a short timeout.
const (
	MediaTimeout    = 120 * time.Second
	MetadataTimeout = 20 * time.Second
)

// browserHeaders makes CDN endpoints treat us like a regular browser; several
// platforms serve 403s to default Go user agents.
var browserHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Accept":          "*/*",
	"Accept-Language": "en-US,en;q=0.9",
}

// HTTPDownloader streams remote media to local files.
type HTTPDownloader struct {
	client *http.Client
}

// NewHTTPDownloader creates a downloader. The per-request context carries the
// timeout, so the client itself has none.
func NewHTTPDownloader() *HTTPDownloader {
	return &HTTPDownloader{client: &http.Client{}}
}

// FetchToFile downloads url into destPath. extraHeaders are merged over the
// default browser-like set (platform CDNs often require a Referer).
func (d *HTTPDownloader) FetchToFile(ctx context.Context, url, destPath string, extraHeaders map[string]string) error {
	ctx, cancel := context.WithTimeout(ctx, MediaTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}
	for k, v := range extraHeaders {
		req.Header.Set(k, v)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	file, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create media file %s: %w", destPath, err)
	}
	defer file.Close()

	if _, err := io.Copy(file, resp.Body); err != nil {
		os.Remove(destPath)
		return fmt.Errorf("failed to write media file: %w", err)
	}
	return nil
}
