// Package pagescrape implements the direct page-scrape strategy: an HTTP GET
// against the post's public page with browser-like headers, mining the
// embedded structured payloads (Open Graph tags, JSON-LD) for media URLs.
package pagescrape

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"postextract/internal/adapters/downloader"
	"postextract/internal/core/domain"
)

const pageTimeout = 20 * time.Second

// Strategy scrapes the post's public page directly.
type Strategy struct {
	client *http.Client
	dl     *downloader.HTTPDownloader
	logger *zap.Logger
}

// NewStrategy creates the page-scrape strategy.
func NewStrategy(dl *downloader.HTTPDownloader, logger *zap.Logger) *Strategy {
	return &Strategy{client: &http.Client{}, dl: dl, logger: logger}
}

func (s *Strategy) Name() string { return "pagescrape" }

// pageData is what the scrape recovered from the page's embedded payloads.
type pageData struct {
	videoURL string
	imageURL string
	caption  string
	title    string
	author   string
	duration float64
}

// Attempt fetches the post page, parses its embedded payloads, and downloads
// whichever media URL it found.
func (s *Strategy) Attempt(ctx context.Context, url string, destDir string) (*domain.DownloadResult, error) {
	page, err := s.fetchPage(ctx, url)
	if err != nil {
		return &domain.DownloadResult{Success: false, Error: err.Error()}, err
	}

	data := parsePage(page)
	if data.videoURL == "" && data.imageURL == "" {
		return &domain.DownloadResult{Success: false, Error: domain.ErrNoMediaURL.Error()}, domain.ErrNoMediaURL
	}

	meta := &domain.Metadata{Title: data.title, Author: data.author, Duration: data.duration, MediaCount: 1}
	headers := map[string]string{"Referer": url}

	if data.videoURL != "" {
		dest := filepath.Join(destDir, "media_0.mp4")
		if err := s.dl.FetchToFile(ctx, data.videoURL, dest, headers); err != nil {
			return &domain.DownloadResult{Success: false, Error: err.Error()}, err
		}
		return &domain.DownloadResult{
			Success: true, FilePath: dest, MediaType: domain.MediaVideo,
			Caption: data.caption, Metadata: meta,
		}, nil
	}

	dest := filepath.Join(destDir, "media_0.jpg")
	if err := s.dl.FetchToFile(ctx, data.imageURL, dest, headers); err != nil {
		return &domain.DownloadResult{Success: false, Error: err.Error()}, err
	}
	return &domain.DownloadResult{
		Success: true, FilePath: dest, MediaType: domain.MediaImage,
		Caption: data.caption, Metadata: meta,
	}, nil
}

func (s *Strategy) fetchPage(ctx context.Context, url string) (*goquery.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, pageTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	return doc, nil
}

func parsePage(doc *goquery.Document) *pageData {
	data := &pageData{
		videoURL: metaContent(doc, "og:video:secure_url", "og:video:url", "og:video"),
		caption:  metaContent(doc, "og:description", "description"),
		title:    metaContent(doc, "og:title"),
	}
	if d, err := strconv.ParseFloat(metaContent(doc, "og:video:duration", "video:duration"), 64); err == nil {
		data.duration = d
	}

	// JSON-LD VideoObject payloads carry the fields the OG tags often omit.
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		var obj struct {
			Type       string `json:"@type"`
			Name       string `json:"name"`
			Desc       string `json:"description"`
			ContentURL string `json:"contentUrl"`
			Author     struct {
				Name string `json:"name"`
			} `json:"author"`
		}
		if err := json.Unmarshal([]byte(sel.Text()), &obj); err != nil {
			return true
		}
		if !strings.EqualFold(obj.Type, "VideoObject") && !strings.EqualFold(obj.Type, "ImageObject") {
			return true
		}
		if data.videoURL == "" && strings.EqualFold(obj.Type, "VideoObject") {
			data.videoURL = obj.ContentURL
		}
		if data.imageURL == "" && strings.EqualFold(obj.Type, "ImageObject") {
			data.imageURL = obj.ContentURL
		}
		if data.caption == "" {
			data.caption = obj.Desc
		}
		if data.title == "" {
			data.title = obj.Name
		}
		if data.author == "" {
			data.author = obj.Author.Name
		}
		return false
	})

	// Image fallback only matters when no video rendition exists.
	if data.videoURL == "" && data.imageURL == "" {
		data.imageURL = metaContent(doc, "og:image:secure_url", "og:image")
	}
	return data
}

func metaContent(doc *goquery.Document, properties ...string) string {
	for _, prop := range properties {
		sel := doc.Find(fmt.Sprintf(`meta[property=%q], meta[name=%q]`, prop, prop))
		if content, ok := sel.First().Attr("content"); ok && content != "" {
			return content
		}
	}
	return ""
}
